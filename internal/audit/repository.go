package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides read access to audit_logs.
type Repository interface {
	Timeline(ctx context.Context, filters TimelineFilters) ([]TimelineRow, error)
}

// PGRepository implements Repository on PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PGRepository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// Timeline returns events newest first. Zero-valued filters are ignored.
func (r *PGRepository) Timeline(ctx context.Context, f TimelineFilters) ([]TimelineRow, error) {
	rows, err := r.pool.Query(ctx, `SELECT a.event_id::text, a.occurred_at, COALESCE(a.actor_id, 0), COALESCE(u.email, ''),
       a.action, a.entity, a.entity_id, a.meta
FROM audit_logs a
LEFT JOIN users u ON u.id = a.actor_id
WHERE ($1::timestamptz IS NULL OR a.occurred_at >= $1)
  AND ($2::timestamptz IS NULL OR a.occurred_at < $2)
  AND ($3::bigint = 0 OR a.actor_id = $3)
  AND ($4::text = '' OR a.entity = $4)
  AND ($5::text = '' OR a.action = $5)
ORDER BY a.occurred_at DESC, a.id DESC
LIMIT $6 OFFSET $7`,
		optionalTime(f.From), optionalTime(f.To), f.ActorID, f.Entity, f.Action, f.Limit, f.Offset)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (TimelineRow, error) {
		var (
			out  TimelineRow
			meta []byte
		)
		if err := row.Scan(&out.EventID, &out.At, &out.ActorID, &out.ActorEmail, &out.Action, &out.Entity, &out.EntityID, &meta); err != nil {
			return TimelineRow{}, err
		}
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &out.Meta); err != nil {
				return TimelineRow{}, err
			}
		}
		return out, nil
	})
}

// PruneBefore deletes events older than cutoff and reports how many went.
func (r *PGRepository) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM audit_logs WHERE occurred_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func optionalTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

var _ Repository = (*PGRepository)(nil)
