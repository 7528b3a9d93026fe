package orders

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// HistoryRepo is the durable archive of paid order lines.
type HistoryRepo struct{ DB *pgxpool.Pool }

type ArchivedLine struct {
	Reference string    `json:"reference"`
	LineNo    int       `json:"line_no"`
	SessionID string    `json:"session_id"`
	ItemID    int       `json:"item_id"`
	Name      string    `json:"name"`
	Option    string    `json:"option"`
	Schedule  string    `json:"schedule"`
	Price     int64     `json:"price"`
	PaidAt    time.Time `json:"paid_at"`
}

// Archive stores every line of a paid order. Idempotent on (reference, line_no),
// so a redelivered OrderPaid event inserts nothing.
func (r *HistoryRepo) Archive(ctx context.Context, p OrderPaidPayload) (inserted int, err error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for i, it := range p.Items {
		ct, err := tx.Exec(ctx, `
			INSERT INTO order_history(reference, line_no, session_id, item_id, name, item_option, schedule, price_minor, status, paid_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
			ON CONFLICT (reference, line_no) DO NOTHING`,
			p.Reference, i+1, p.SessionID, it.ItemID, it.Name, it.Option, it.Schedule, it.Price, string(StatusPaid), p.PaidAt,
		)
		if err != nil {
			return 0, err
		}
		inserted += int(ct.RowsAffected())
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return inserted, nil
}

// ListBySession returns the newest archived lines first.
func (r *HistoryRepo) ListBySession(ctx context.Context, sessionID string, limit int) ([]ArchivedLine, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.DB.Query(ctx, `
		SELECT reference, line_no, session_id, item_id, name, item_option, schedule, price_minor, paid_at
		FROM order_history WHERE session_id=$1
		ORDER BY paid_at DESC, reference, line_no
		LIMIT $2`, sessionID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ArchivedLine
	for rows.Next() {
		var a ArchivedLine
		if err := rows.Scan(&a.Reference, &a.LineNo, &a.SessionID, &a.ItemID, &a.Name,
			&a.Option, &a.Schedule, &a.Price, &a.PaidAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
