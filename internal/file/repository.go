package file

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const repoTimeout = 5 * time.Second

// Repository provides access to file metadata storage.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository builds a new file repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts metadata for a newly stored file.
func (r *Repository) Create(ctx context.Context, meta Metadata) (Metadata, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	query := `
INSERT INTO files (id, user_id, filename, content_type, size_bytes, path, provider, url, description)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING id, user_id, filename, content_type, size_bytes, path, provider, url, description, created_at, updated_at;`

	row := r.pool.QueryRow(ctx, query,
		meta.ID,
		meta.UserID,
		meta.Filename,
		meta.ContentType,
		meta.SizeBytes,
		meta.Path,
		meta.Provider,
		meta.URL,
		meta.Description,
	)

	var stored Metadata
	if err := scanMetadata(row, &stored); err != nil {
		return Metadata{}, fmt.Errorf("create file metadata: %w", err)
	}
	return stored, nil
}

// Get fetches metadata for a single file by id.
func (r *Repository) Get(ctx context.Context, fileID uuid.UUID) (Metadata, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	query := `
SELECT id, user_id, filename, content_type, size_bytes, path, provider, url, description, created_at, updated_at
FROM files
WHERE id = $1;`

	var meta Metadata
	if err := scanMetadata(r.pool.QueryRow(ctx, query, fileID), &meta); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Metadata{}, ErrFileNotFound
		}
		return Metadata{}, fmt.Errorf("get file metadata: %w", err)
	}
	return meta, nil
}

// ListByUser returns all files owned by the user, newest first.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]Metadata, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	query := `
SELECT id, user_id, filename, content_type, size_bytes, path, provider, url, description, created_at, updated_at
FROM files
WHERE user_id = $1
ORDER BY created_at DESC;`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	defer rows.Close()

	var files []Metadata
	for rows.Next() {
		var meta Metadata
		if err := scanMetadata(rows, &meta); err != nil {
			return nil, fmt.Errorf("scan file metadata: %w", err)
		}
		files = append(files, meta)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate files: %w", err)
	}
	return files, nil
}

func scanMetadata(row pgx.Row, meta *Metadata) error {
	return row.Scan(
		&meta.ID,
		&meta.UserID,
		&meta.Filename,
		&meta.ContentType,
		&meta.SizeBytes,
		&meta.Path,
		&meta.Provider,
		&meta.URL,
		&meta.Description,
		&meta.CreatedAt,
		&meta.UpdatedAt,
	)
}
