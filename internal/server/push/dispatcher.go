// Package push fans link mutations out to the owner's registered devices
// and feeds provider feedback back into the device registry.
package push

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/nononsenseapps/linksync/internal/logging"
	"github.com/nononsenseapps/linksync/internal/server/models"
	"github.com/nononsenseapps/linksync/internal/timex"
)

// Status is the terminal state of one dispatch.
type Status string

const (
	StatusPending Status = "pending"
	StatusSent    Status = "sent"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
)

// Registry is the slice of the device service the dispatcher needs: a
// snapshot read plus the two corrective writes driven by provider feedback.
type Registry interface {
	List(ctx context.Context, userID string) ([]string, error)
	Replace(ctx context.Context, userID, oldID, newID string) error
	Remove(ctx context.Context, userID, regID string) error
}

// payload is the wire body pushed to devices. Timestamps use the canonical
// layout so clients can feed them straight back as a sync cursor.
type payload struct {
	Sha       string `json:"sha"`
	URL       string `json:"url"`
	Deleted   bool   `json:"deleted"`
	Timestamp string `json:"timestamp"`
}

// Dispatcher runs one detached, best-effort fanout per link mutation.
// Failures never reach the write that triggered them.
type Dispatcher struct {
	registry Registry
	provider Provider
	logger   logging.Logger
	timeout  time.Duration
}

func NewDispatcher(registry Registry, provider Provider, logger logging.Logger, timeout time.Duration) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		provider: provider,
		logger:   logger.With("module", "dispatcher"),
		timeout:  timeout,
	}
}

// Notify spawns the dispatch on its own goroutine and returns immediately.
// The goroutine outlives the request that triggered the mutation and is not
// cancelable by it.
func (d *Dispatcher) Notify(link *models.Link, originRegID string) {
	go func() {
		d.Dispatch(context.Background(), link, originRegID)
	}()
}

// Dispatch is the synchronous dispatch body, exported separately so tests
// can run it without the goroutine wrapper. It resolves the target set,
// multicasts, and applies registry corrections from the provider report.
func (d *Dispatcher) Dispatch(ctx context.Context, link *models.Link, originRegID string) Status {
	log := d.logger.With("dispatch", uuid.NewString(), "user", link.UserID, "sha", link.Sha)

	targets, err := d.targetSet(ctx, link.UserID, originRegID)
	if err != nil {
		log.Error(ctx, "device lookup failed", "error", err)
		return StatusFailed
	}
	if len(targets) == 0 {
		return StatusSkipped
	}

	body, err := json.Marshal(payload{
		Sha:       link.Sha,
		URL:       link.URL,
		Deleted:   link.Deleted,
		Timestamp: timex.FormatTimestamp(link.UpdatedAt),
	})
	if err != nil {
		log.Error(ctx, "payload encoding failed", "error", err)
		return StatusFailed
	}

	sendCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	report, err := d.provider.Multicast(sendCtx, targets, body)
	if err != nil {
		// No retry queue: the next mutation re-attempts delivery to the
		// same device set.
		log.Error(ctx, "multicast failed", "targets", len(targets), "error", err)
		return StatusFailed
	}

	d.applyReport(ctx, log, link.UserID, report)

	log.Info(ctx, "dispatched", "targets", len(targets),
		"canonical", len(report.Canonical), "invalid", len(report.Invalid))
	return StatusSent
}

// targetSet is the user's registered devices minus the mutation's origin.
func (d *Dispatcher) targetSet(ctx context.Context, userID, originRegID string) ([]string, error) {
	ids, err := d.registry.List(ctx, userID)
	if err != nil {
		return nil, err
	}

	targets := ids[:0]
	for _, id := range ids {
		if id != originRegID {
			targets = append(targets, id)
		}
	}
	return targets, nil
}

// applyReport feeds provider corrections back into the registry. Each
// correction stands alone; one failing does not stop the rest.
func (d *Dispatcher) applyReport(ctx context.Context, log logging.Logger, userID string, report *DeliveryReport) {
	for _, pair := range report.Canonical {
		if err := d.registry.Replace(ctx, userID, pair.Old, pair.New); err != nil {
			log.Warn(ctx, "canonical id migration failed", "error", err)
		}
	}
	for _, regID := range report.Invalid {
		if err := d.registry.Remove(ctx, userID, regID); err != nil {
			log.Warn(ctx, "stale id removal failed", "error", err)
		}
	}
}
