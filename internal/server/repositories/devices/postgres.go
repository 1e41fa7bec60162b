// Package devices provides the PostgreSQL-backed repository for push device
// registrations.
package devices

import (
	"context"
	"fmt"

	"github.com/nononsenseapps/linksync/internal/dbx"
)

// PostgresRepository implements device storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Register(ctx context.Context, userID, regID string) error {
	query := `
		INSERT INTO devices (user_id, reg_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, reg_id) DO NOTHING;
	`
	if _, err := r.db.ExecContext(ctx, query, userID, regID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) List(ctx context.Context, userID string) ([]string, error) {
	query := `
		SELECT reg_id FROM devices
		WHERE user_id = $1
		ORDER BY reg_id;
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to select devices: %w", err)
	}
	defer rows.Close()

	var result []string
	for rows.Next() {
		var regID string
		if err := rows.Scan(&regID); err != nil {
			return nil, err
		}
		result = append(result, regID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Replace inserts the canonical id (if the stale one exists and the
// canonical one is not already registered) and drops the stale id. Both
// statements are no-ops when oldID is absent.
func (r *PostgresRepository) Replace(ctx context.Context, userID, oldID, newID string) error {
	insert := `
		INSERT INTO devices (user_id, reg_id)
		SELECT user_id, $3 FROM devices
		WHERE user_id = $1 AND reg_id = $2
		ON CONFLICT (user_id, reg_id) DO NOTHING;
	`
	if _, err := r.db.ExecContext(ctx, insert, userID, oldID, newID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	remove := `
		DELETE FROM devices
		WHERE user_id = $1 AND reg_id = $2;
	`
	if _, err := r.db.ExecContext(ctx, remove, userID, oldID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Remove(ctx context.Context, userID, regID string) error {
	query := `
		DELETE FROM devices
		WHERE user_id = $1 AND reg_id = $2;
	`
	if _, err := r.db.ExecContext(ctx, query, userID, regID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
