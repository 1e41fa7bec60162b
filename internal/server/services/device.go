package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/nononsenseapps/linksync/internal/common"
	"github.com/nononsenseapps/linksync/internal/dbx"
	"github.com/nononsenseapps/linksync/internal/server/repositories/repomanager"
)

// DeviceService owns the user -> registration id mapping. Register is the
// only client-facing write; Replace and Remove are driven exclusively by
// push provider feedback.
type DeviceService struct {
	db *sql.DB
	rm repomanager.RepositoryManager
}

func NewDeviceService(db *sql.DB, rm repomanager.RepositoryManager) *DeviceService {
	return &DeviceService{db: db, rm: rm}
}

// Register stores the pair; re-registering is a no-op.
func (s *DeviceService) Register(ctx context.Context, userID, regID string) error {
	if regID == "" {
		return fmt.Errorf("regid is required: %w", common.ErrorValidation)
	}
	return s.rm.Devices(s.db).Register(ctx, userID, regID)
}

// List returns a snapshot of the user's registration ids.
func (s *DeviceService) List(ctx context.Context, userID string) ([]string, error) {
	return s.rm.Devices(s.db).List(ctx, userID)
}

// Replace atomically swaps a stale registration id for the canonical one
// reported by the provider. Absent oldID is a no-op.
func (s *DeviceService) Replace(ctx context.Context, userID, oldID, newID string) error {
	if newID == "" {
		return fmt.Errorf("canonical regid is required: %w", common.ErrorValidation)
	}
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return s.rm.Devices(tx).Replace(ctx, userID, oldID, newID)
	})
}

// Remove drops a registration id the provider reported as permanently
// invalid. Idempotent.
func (s *DeviceService) Remove(ctx context.Context, userID, regID string) error {
	return s.rm.Devices(s.db).Remove(ctx, userID, regID)
}
