// Package links provides the PostgreSQL-backed repository for link rows and
// the incremental sync query.
package links

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/nononsenseapps/linksync/internal/common"
	"github.com/nononsenseapps/linksync/internal/dbx"
	"github.com/nononsenseapps/linksync/internal/server/models"
)

// PostgresRepository implements link storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Upsert replaces any row with the same (user_id, url) but a different sha,
// then inserts or updates the row keyed by (user_id, sha). updated_at is
// refreshed with GREATEST so it never moves backwards on a row.
func (r *PostgresRepository) Upsert(ctx context.Context, link *models.Link) (*models.Link, error) {
	displace := `
		DELETE FROM links
		WHERE user_id = $1 AND url = $2 AND sha <> $3;
	`
	if _, err := r.db.ExecContext(ctx, displace, link.UserID, link.URL, link.Sha); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	upsert := `
		INSERT INTO links (user_id, sha, url)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, sha)
		DO UPDATE SET
			url = EXCLUDED.url,
			deleted = FALSE,
			updated_at = GREATEST(now(), links.updated_at)
		RETURNING user_id, sha, url, deleted, updated_at;
	`
	stored := &models.Link{}
	err := r.db.QueryRowContext(ctx, upsert, link.UserID, link.Sha, link.URL).
		Scan(&stored.UserID, &stored.Sha, &stored.URL, &stored.Deleted, &stored.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return stored, nil
}

// SoftDelete tombstones the row and bumps its timestamp.
func (r *PostgresRepository) SoftDelete(ctx context.Context, userID, sha string) (*models.Link, error) {
	query := `
		UPDATE links
		SET deleted = TRUE, updated_at = GREATEST(now(), updated_at)
		WHERE user_id = $1 AND sha = $2
		RETURNING user_id, sha, url, deleted, updated_at;
	`
	stored := &models.Link{}
	err := r.db.QueryRowContext(ctx, query, userID, sha).
		Scan(&stored.UserID, &stored.Sha, &stored.URL, &stored.Deleted, &stored.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return stored, nil
}

// Get returns a single row by (user_id, sha).
func (r *PostgresRepository) Get(ctx context.Context, userID, sha string) (*models.Link, error) {
	query := `
		SELECT user_id, sha, url, deleted, updated_at FROM links
		WHERE user_id = $1 AND sha = $2;
	`
	stored := &models.Link{}
	err := r.db.QueryRowContext(ctx, query, userID, sha).
		Scan(&stored.UserID, &stored.Sha, &stored.URL, &stored.Deleted, &stored.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return stored, nil
}

// SelectChangedSince returns all rows for userID with updated_at > since,
// ordered by (updated_at, sha). Ties on updated_at are broken by sha so the
// order is stable across calls.
func (r *PostgresRepository) SelectChangedSince(ctx context.Context, userID string, since time.Time, includeDeleted bool) ([]*models.Link, error) {
	query := `
		SELECT user_id, sha, url, deleted, updated_at FROM links
		WHERE user_id = $1 AND updated_at > $2
	`
	if !includeDeleted {
		query += ` AND NOT deleted`
	}
	query += ` ORDER BY updated_at, sha;`

	rows, err := r.db.QueryContext(ctx, query, userID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to select links: %w", err)
	}
	defer rows.Close()

	var result []*models.Link
	for rows.Next() {
		var item models.Link
		if err := rows.Scan(&item.UserID, &item.Sha, &item.URL, &item.Deleted, &item.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
