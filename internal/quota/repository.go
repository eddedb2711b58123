package quota

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

const repositoryTimeout = 5 * time.Second

// Repository persists monthly quota records.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a quota repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetOrCreate returns the record for (user, month, year), creating it with
// zero usage on first access. The unique constraint on the tuple makes
// concurrent first-access safe: the losing insert is a no-op and both
// callers read the same row.
func (r *Repository) GetOrCreate(ctx context.Context, userID uuid.UUID, month, year int) (Record, error) {
	ctx, cancel := context.WithTimeout(ctx, repositoryTimeout)
	defer cancel()

	insert := `
INSERT INTO user_quotas (user_id, month, year, used_bytes)
VALUES ($1, $2, $3, 0)
ON CONFLICT (user_id, month, year) DO NOTHING;`

	if _, err := r.pool.Exec(ctx, insert, userID, month, year); err != nil {
		return Record{}, fmt.Errorf("create quota record: %w", err)
	}

	query := `
SELECT id, user_id, month, year, used_bytes, created_at, updated_at
FROM user_quotas
WHERE user_id = $1 AND month = $2 AND year = $3;`

	var rec Record
	err := r.pool.QueryRow(ctx, query, userID, month, year).Scan(
		&rec.ID,
		&rec.UserID,
		&rec.Month,
		&rec.Year,
		&rec.UsedBytes,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		return Record{}, fmt.Errorf("get quota record: %w", err)
	}
	return rec, nil
}

// AddUsage adds delta bytes to the record's usage and returns the updated
// row. The addition happens in SQL so it is always numeric.
func (r *Repository) AddUsage(ctx context.Context, userID uuid.UUID, month, year int, delta int64) (Record, error) {
	ctx, cancel := context.WithTimeout(ctx, repositoryTimeout)
	defer cancel()

	query := `
UPDATE user_quotas
SET used_bytes = used_bytes + $4, updated_at = NOW()
WHERE user_id = $1 AND month = $2 AND year = $3
RETURNING id, user_id, month, year, used_bytes, created_at, updated_at;`

	var rec Record
	err := r.pool.QueryRow(ctx, query, userID, month, year, delta).Scan(
		&rec.ID,
		&rec.UserID,
		&rec.Month,
		&rec.Year,
		&rec.UsedBytes,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		return Record{}, fmt.Errorf("add quota usage: %w", err)
	}
	return rec, nil
}
