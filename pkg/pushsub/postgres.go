package pushsub

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dmitrymomot/campusnotify/pkg/pg"
)

// DBTX is the subset of *pgxpool.Pool and pgx.Tx used by PostgresDirectory.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresDirectory stores subscriptions in the push_subscriptions table.
type PostgresDirectory struct {
	db DBTX
}

// NewPostgresDirectory creates a directory on db.
func NewPostgresDirectory(db DBTX) *PostgresDirectory {
	return &PostgresDirectory{db: db}
}

type subscriptionRow struct {
	ID        uuid.UUID `db:"id"`
	UserID    string    `db:"user_id"`
	Endpoint  string    `db:"endpoint"`
	P256dh    string    `db:"p256dh"`
	Auth      string    `db:"auth"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r subscriptionRow) subscription() Subscription {
	return Subscription{
		ID:        r.ID.String(),
		UserID:    r.UserID,
		Endpoint:  r.Endpoint,
		Keys:      Keys{P256dh: r.P256dh, Auth: r.Auth},
		CreatedAt: r.CreatedAt.UTC(),
		UpdatedAt: r.UpdatedAt.UTC(),
	}
}

const columns = `id, user_id, endpoint, p256dh, auth, created_at, updated_at`

const upsertQuery = `
INSERT INTO push_subscriptions (id, user_id, endpoint, p256dh, auth, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, now(), now())
ON CONFLICT (endpoint) DO UPDATE SET
	user_id = EXCLUDED.user_id,
	p256dh = EXCLUDED.p256dh,
	auth = EXCLUDED.auth,
	updated_at = now()
RETURNING ` + columns

func (d *PostgresDirectory) Upsert(ctx context.Context, sub Subscription) (Subscription, error) {
	if err := sub.Validate(); err != nil {
		return Subscription{}, err
	}

	rows, err := d.db.Query(ctx, upsertQuery, uuid.New(), sub.UserID, sub.Endpoint, sub.Keys.P256dh, sub.Keys.Auth)
	if err != nil {
		return Subscription{}, fmt.Errorf("pushsub: upsert: %w", err)
	}
	row, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[subscriptionRow])
	if err != nil {
		return Subscription{}, fmt.Errorf("pushsub: upsert: %w", err)
	}
	return row.subscription(), nil
}

func (d *PostgresDirectory) Get(ctx context.Context, endpoint string) (Subscription, error) {
	rows, err := d.db.Query(ctx, `SELECT `+columns+` FROM push_subscriptions WHERE endpoint = $1`, endpoint)
	if err != nil {
		return Subscription{}, fmt.Errorf("pushsub: get: %w", err)
	}
	row, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[subscriptionRow])
	if pg.IsNotFoundError(err) {
		return Subscription{}, ErrNotFound
	}
	if err != nil {
		return Subscription{}, fmt.Errorf("pushsub: get: %w", err)
	}
	return row.subscription(), nil
}

func (d *PostgresDirectory) ListByUser(ctx context.Context, userID string) ([]Subscription, error) {
	rows, err := d.db.Query(ctx,
		`SELECT `+columns+` FROM push_subscriptions WHERE user_id = $1 ORDER BY created_at, endpoint`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("pushsub: list: %w", err)
	}
	found, err := pgx.CollectRows(rows, pgx.RowToStructByName[subscriptionRow])
	if err != nil {
		return nil, fmt.Errorf("pushsub: list: %w", err)
	}

	out := make([]Subscription, 0, len(found))
	for _, r := range found {
		out = append(out, r.subscription())
	}
	return out, nil
}

func (d *PostgresDirectory) DeleteByEndpoint(ctx context.Context, userID, endpoint string) error {
	tag, err := d.db.Exec(ctx,
		`DELETE FROM push_subscriptions WHERE endpoint = $1 AND user_id = $2`,
		endpoint, userID,
	)
	if err != nil {
		return fmt.Errorf("pushsub: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
