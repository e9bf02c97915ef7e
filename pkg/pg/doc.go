// Package pg connects to PostgreSQL through a pgx/v5 pool and applies goose
// migrations shipped inside the binary.
//
// Connect retries with a linearly growing delay until the database answers a
// ping or the attempts run out, and gives up early when the context is
// cancelled. Migrate bridges the pool to database/sql for goose and reads
// migration files from an fs.FS, so deployments do not depend on a
// migrations directory on disk:
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer pool.Close()
//
//	if err := pg.Migrate(ctx, pool, migrations.FS, cfg, log); err != nil {
//		return err
//	}
//
// Healthcheck returns a probe suitable for readiness endpoints.
package pg
