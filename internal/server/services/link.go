// Package services contains the business logic between the HTTP handlers
// and the repositories: validation, id derivation, the sync watermark, and
// the hand-off of mutations to the push dispatcher.
package services

import (
	"context"
	"crypto/sha1"
	"database/sql"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/nononsenseapps/linksync/internal/common"
	"github.com/nononsenseapps/linksync/internal/dbx"
	"github.com/nononsenseapps/linksync/internal/logging"
	"github.com/nononsenseapps/linksync/internal/server/models"
	"github.com/nononsenseapps/linksync/internal/server/repositories/repomanager"
)

// Notifier receives every successful link mutation. The call must not block
// the write path; implementations run the fanout on their own goroutine.
type Notifier interface {
	Notify(link *models.Link, originRegID string)
}

type LinkService struct {
	db       *sql.DB
	rm       repomanager.RepositoryManager
	notifier Notifier
	logger   logging.Logger
}

func NewLinkService(db *sql.DB, rm repomanager.RepositoryManager, notifier Notifier, logger logging.Logger) *LinkService {
	return &LinkService{
		db:       db,
		rm:       rm,
		notifier: notifier,
		logger:   logger.With("module", "link_service"),
	}
}

// DeriveSha computes the default link id: hex sha1 of the url. Deterministic,
// so posting the same url twice lands on the same row.
func DeriveSha(url string) string {
	sum := sha1.Sum([]byte(url))
	return hex.EncodeToString(sum[:])
}

// CreateOrReplace upserts the link, then hands the stored row to the
// notifier. The write returns before the fanout runs.
func (s *LinkService) CreateOrReplace(ctx context.Context, userID, url, sha, originRegID string) (*models.Link, error) {
	if url == "" {
		return nil, fmt.Errorf("url is required: %w", common.ErrorValidation)
	}
	if sha == "" {
		sha = DeriveSha(url)
	}

	var stored *models.Link
	// The url displacement and the upsert must land atomically.
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		stored, err = s.rm.Links(tx).Upsert(ctx, &models.Link{UserID: userID, Sha: sha, URL: url})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Notify(stored, originRegID)
	return stored, nil
}

// Delete tombstones the link. A missing sha surfaces common.ErrorNotFound
// and produces no notification.
func (s *LinkService) Delete(ctx context.Context, userID, sha, originRegID string) (*models.Link, error) {
	if sha == "" {
		return nil, fmt.Errorf("sha is required: %w", common.ErrorValidation)
	}

	stored, err := s.rm.Links(s.db).SoftDelete(ctx, userID, sha)
	if err != nil {
		return nil, err
	}

	s.notifier.Notify(stored, originRegID)
	return stored, nil
}

// Get returns a single link, tombstones included.
func (s *LinkService) Get(ctx context.Context, userID, sha string) (*models.Link, error) {
	if sha == "" {
		return nil, fmt.Errorf("sha is required: %w", common.ErrorValidation)
	}
	return s.rm.Links(s.db).Get(ctx, userID, sha)
}

// List runs the incremental sync query. since == nil means a full sync from
// the epoch. The watermark is the max updated_at over everything that
// changed, tombstones included even when they are filtered out of the
// response, and it never drops below the caller's cursor.
func (s *LinkService) List(ctx context.Context, userID string, since *time.Time, showDeleted bool) ([]*models.Link, time.Time, error) {
	floor := time.Time{}
	if since != nil {
		floor = *since
	}

	changed, err := s.rm.Links(s.db).SelectChangedSince(ctx, userID, floor, true)
	if err != nil {
		return nil, time.Time{}, err
	}

	watermark := floor
	result := make([]*models.Link, 0, len(changed))
	for _, link := range changed {
		if link.UpdatedAt.After(watermark) {
			watermark = link.UpdatedAt
		}
		if link.Deleted && !showDeleted {
			continue
		}
		result = append(result, link)
	}

	return result, watermark, nil
}
