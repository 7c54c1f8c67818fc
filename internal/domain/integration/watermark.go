package integration

import (
	"context"
	"time"

	"github.com/fulfillment/backend/internal/domain/shared"
)

// SyncWatermark marks the last successfully processed remote change for one
// reconciliation workflow. Its value is monotonically non-decreasing and is
// advanced only after the corresponding batch is fully applied locally.
type SyncWatermark struct {
	shared.BaseEntity
	// Workflow names the reconciliation workflow the watermark belongs to
	Workflow string
	// LastProcessedAt is the modification timestamp of the last fully
	// applied remote batch
	LastProcessedAt time.Time
}

// NewSyncWatermark creates a watermark for a workflow
func NewSyncWatermark(workflow string, at time.Time) (*SyncWatermark, error) {
	if workflow == "" {
		return nil, shared.NewDomainError("INVALID_WORKFLOW", "Workflow name cannot be empty")
	}
	return &SyncWatermark{
		BaseEntity:      shared.NewBaseEntity(),
		Workflow:        workflow,
		LastProcessedAt: at,
	}, nil
}

// Advance moves the watermark forward. Moving backwards is rejected so a
// retried window can never shrink the processed range.
func (w *SyncWatermark) Advance(to time.Time) error {
	if to.Before(w.LastProcessedAt) {
		return shared.NewDomainError("WATERMARK_REGRESSION", "Watermark cannot move backwards")
	}
	w.LastProcessedAt = to
	w.Touch()
	return nil
}

// SyncWatermarkRepository defines persistence for sync watermarks
type SyncWatermarkRepository interface {
	// FindByWorkflow finds the watermark row for a workflow, or
	// shared.ErrNotFound if the workflow has never completed a batch
	FindByWorkflow(ctx context.Context, workflow string) (*SyncWatermark, error)

	// Save upserts the watermark row, keyed by workflow name
	Save(ctx context.Context, watermark *SyncWatermark) error
}
