package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	cfg.MaxConns = 8
	cfg.MinConns = 1
	cfg.HealthCheckPeriod = 30 * time.Second
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS order_history (
	reference   TEXT        NOT NULL,
	line_no     INT         NOT NULL,
	session_id  TEXT        NOT NULL,
	item_id     INT         NOT NULL,
	name        TEXT        NOT NULL,
	item_option TEXT        NOT NULL,
	schedule    TEXT        NOT NULL,
	price_minor BIGINT      NOT NULL,
	status      TEXT        NOT NULL,
	paid_at     TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (reference, line_no)
);
CREATE INDEX IF NOT EXISTS order_history_session_idx ON order_history (session_id, paid_at DESC);
`

// EnsureSchema creates the archive table when missing.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, schema)
	return err
}
