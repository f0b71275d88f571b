package quota

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/isabelleeeesv/tiktok-genius-app/internal/domain"
)

// Querier is the subset of pgxpool.Pool the store needs.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Postgres is the account-side quota store. Lazy reset and increment happen
// inside a single upsert statement, so concurrent generations by the same
// account cannot read the same pre-increment count and lose an update.
type Postgres struct {
	db Querier
}

// NewPostgres creates a store over the given pool.
func NewPostgres(db Querier) *Postgres {
	return &Postgres{db: db}
}

const qUsage = `
SELECT count, last_reset
FROM usage_records
WHERE account_id = $1 AND feature = $2;
`

func (p *Postgres) Usage(ctx context.Context, actorID string, feature domain.Feature) (domain.UsageRecord, error) {
	rec := domain.UsageRecord{Feature: feature}
	row := p.db.QueryRow(ctx, qUsage, actorID, string(feature))
	if err := row.Scan(&rec.Count, &rec.LastReset); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.UsageRecord{Feature: feature}, nil
		}
		return domain.UsageRecord{}, err
	}
	return rec, nil
}

const qIncrement = `
INSERT INTO usage_records (account_id, feature, count, last_reset)
VALUES ($1, $2, 1, now())
ON CONFLICT (account_id, feature) DO UPDATE SET
    count = CASE WHEN usage_records.last_reset < $3 THEN 1 ELSE usage_records.count + 1 END,
    last_reset = now()
RETURNING count, last_reset;
`

func (p *Postgres) Increment(ctx context.Context, actorID string, feature domain.Feature, windowStart time.Time) (domain.UsageRecord, error) {
	rec := domain.UsageRecord{Feature: feature}
	row := p.db.QueryRow(ctx, qIncrement, actorID, string(feature), windowStart)
	if err := row.Scan(&rec.Count, &rec.LastReset); err != nil {
		return domain.UsageRecord{}, err
	}
	return rec, nil
}

const qSnapshot = `
SELECT feature, count, last_reset
FROM usage_records
WHERE account_id = $1
ORDER BY feature;
`

func (p *Postgres) Snapshot(ctx context.Context, actorID string) ([]domain.UsageRecord, error) {
	rows, err := p.db.Query(ctx, qSnapshot, actorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.UsageRecord
	for rows.Next() {
		var rec domain.UsageRecord
		var feature string
		if err := rows.Scan(&feature, &rec.Count, &rec.LastReset); err != nil {
			return nil, err
		}
		rec.Feature = domain.Feature(feature)
		out = append(out, rec)
	}
	return out, rows.Err()
}

var _ domain.QuotaStore = (*Postgres)(nil)
