package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// HealthSnapshot is one recorded health-score observation.
type HealthSnapshot struct {
	Score      int       `json:"score"`
	Revenue    int       `json:"revenue_deduction"`
	Users      int       `json:"users_deduction"`
	Engagement int       `json:"engagement_deduction"`
	Operations int       `json:"operations_deduction"`
	RecordedAt time.Time `json:"recorded_at"`
}

// HistoryStore appends health-score observations to Postgres so the gateway
// can serve trend queries. Append-only; rows are never updated.
type HistoryStore struct {
	pool *pgxpool.Pool
}

const historySchema = `
CREATE TABLE IF NOT EXISTS health_history (
	id          BIGSERIAL PRIMARY KEY,
	score       INT NOT NULL,
	revenue     INT NOT NULL,
	users       INT NOT NULL,
	engagement  INT NOT NULL,
	operations  INT NOT NULL,
	recorded_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_health_history_recorded_at ON health_history (recorded_at DESC);
`

// NewHistoryStore connects to Postgres and ensures the schema exists.
func NewHistoryStore(ctx context.Context, dsn string) (*HistoryStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create Postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping Postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, historySchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to initialize history schema: %w", err)
	}
	return &HistoryStore{pool: pool}, nil
}

// AppendHealthSnapshot records one observation.
func (s *HistoryStore) AppendHealthSnapshot(ctx context.Context, snap HealthSnapshot) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO health_history (score, revenue, users, engagement, operations, recorded_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		snap.Score, snap.Revenue, snap.Users, snap.Engagement, snap.Operations, snap.RecordedAt)
	if err != nil {
		return fmt.Errorf("failed to append health snapshot: %w", err)
	}
	return nil
}

// RecentHealth returns the most recent observations, newest first.
func (s *HistoryStore) RecentHealth(ctx context.Context, limit int) ([]HealthSnapshot, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT score, revenue, users, engagement, operations, recorded_at
		 FROM health_history ORDER BY recorded_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query health history: %w", err)
	}
	defer rows.Close()

	var out []HealthSnapshot
	for rows.Next() {
		var snap HealthSnapshot
		if err := rows.Scan(&snap.Score, &snap.Revenue, &snap.Users, &snap.Engagement, &snap.Operations, &snap.RecordedAt); err != nil {
			return nil, fmt.Errorf("failed to scan health snapshot: %w", err)
		}
		out = append(out, snap)
	}
	return out, rows.Err()
}

// Close releases the pool.
func (s *HistoryStore) Close() {
	s.pool.Close()
}
