package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/serroba/htmlflow/internal/usage"
)

const schema = `
	CREATE TABLE IF NOT EXISTS quota_decisions (
		id            UUID PRIMARY KEY,
		caller_id     TEXT        NOT NULL,
		outcome       TEXT        NOT NULL,
		requests_made INTEGER     NOT NULL,
		quota         INTEGER     NOT NULL,
		path          TEXT        NOT NULL,
		decided_at    TIMESTAMPTZ NOT NULL
	)
`

// DailyCount is the number of decisions per outcome for one caller on one day.
type DailyCount struct {
	Day     time.Time
	Outcome string
	Count   int64
}

// Postgres is a PostgreSQL implementation of usage.Store.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres creates a new PostgreSQL-backed usage ledger. The ledger owns
// pool and closes it on Shutdown.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// Shutdown closes the connection pool.
func (p *Postgres) Shutdown() error {
	p.pool.Close()

	return nil
}

// EnsureSchema creates the ledger table if it does not exist.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	_, err := p.pool.Exec(ctx, schema)

	return err
}

// SaveQuotaDecision inserts the event. Redelivered events are ignored.
func (p *Postgres) SaveQuotaDecision(ctx context.Context, event *usage.QuotaDecisionEvent) error {
	query := `
		INSERT INTO quota_decisions (id, caller_id, outcome, requests_made, quota, path, decided_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO NOTHING
	`

	_, err := p.pool.Exec(ctx, query,
		event.ID,
		event.CallerID,
		event.Outcome,
		event.RequestsMade,
		event.Limit,
		event.Path,
		event.DecidedAt,
	)

	return err
}

// DailyCounts returns per-day, per-outcome decision counts for callerID since the given time.
func (p *Postgres) DailyCounts(ctx context.Context, callerID string, since time.Time) ([]DailyCount, error) {
	query := `
		SELECT date_trunc('day', decided_at AT TIME ZONE 'America/Los_Angeles') AS day, outcome, COUNT(*)
		FROM quota_decisions
		WHERE caller_id = $1 AND decided_at >= $2
		GROUP BY day, outcome
		ORDER BY day, outcome
	`

	rows, err := p.pool.Query(ctx, query, callerID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var counts []DailyCount

	for rows.Next() {
		var c DailyCount
		if err := rows.Scan(&c.Day, &c.Outcome, &c.Count); err != nil {
			return nil, err
		}

		counts = append(counts, c)
	}

	return counts, rows.Err()
}

// Compile-time check.
var _ usage.Store = (*Postgres)(nil)
