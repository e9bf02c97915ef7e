package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/dmitrymomot/campusnotify/internal/db/migrations"
	pkgconfig "github.com/dmitrymomot/campusnotify/pkg/config"
	"github.com/dmitrymomot/campusnotify/pkg/logger"
	"github.com/dmitrymomot/campusnotify/pkg/pg"
)

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the push subscription schema",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPool(cmd.Context(), func(ctx context.Context, pool *pgxpool.Pool, cfg pg.Config, log *slog.Logger) error {
				return pg.Migrate(ctx, pool, migrations.FS, cfg, log)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back the latest migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPool(cmd.Context(), func(ctx context.Context, pool *pgxpool.Pool, cfg pg.Config, log *slog.Logger) error {
				return pg.Rollback(ctx, pool, migrations.FS, cfg, log)
			})
		},
	})

	return cmd
}

// withPool reads only the database settings so migrations run without the
// rest of the service configuration.
func withPool(ctx context.Context, fn func(context.Context, *pgxpool.Pool, pg.Config, *slog.Logger) error) error {
	var cfg pg.Config
	if err := pkgconfig.Load(&cfg); err != nil {
		return err
	}
	log := logger.New(logger.WithFormat(logger.FormatText), logger.WithAttr(logger.Component("migrate")))

	pool, err := pg.Connect(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pool.Close()

	return fn(ctx, pool, cfg, log)
}
