package links

import (
	"context"
	"time"

	"github.com/nononsenseapps/linksync/internal/server/models"
)

type Repository interface {
	// Upsert stores link for (user_id, sha), replacing any row that holds
	// the same url under a different sha. Should run inside a transaction
	// because the displacement takes two statements.
	Upsert(ctx context.Context, link *models.Link) (*models.Link, error)

	// SoftDelete marks the row as a tombstone and bumps updated_at.
	// Returns common.ErrorNotFound when no row matches.
	SoftDelete(ctx context.Context, userID, sha string) (*models.Link, error)

	// Get returns a single row by (user_id, sha), tombstones included.
	Get(ctx context.Context, userID, sha string) (*models.Link, error)

	// SelectChangedSince returns rows with updated_at strictly after since,
	// ordered by (updated_at, sha) so paging with a watermark is
	// deterministic. Tombstones are excluded when includeDeleted is false.
	SelectChangedSince(ctx context.Context, userID string, since time.Time, includeDeleted bool) ([]*models.Link, error)
}
