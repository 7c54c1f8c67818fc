package persistence

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/fulfillment/backend/internal/domain/integration"
)

// AdvisoryLocker implements integration.WorkflowLocker with Postgres
// session-level advisory locks, keyed by hashing the workflow name. The lock
// survives across instances, so concurrent deployments cannot run the same
// workflow pass twice.
type AdvisoryLocker struct {
	db *gorm.DB
}

// NewAdvisoryLocker creates a new AdvisoryLocker
func NewAdvisoryLocker(db *gorm.DB) *AdvisoryLocker {
	return &AdvisoryLocker{db: db}
}

// WithLock acquires the advisory lock for the workflow on a pinned
// connection, runs fn, and releases the lock on the same connection.
// A held lock returns integration.ErrWorkflowBusy without running fn.
func (l *AdvisoryLocker) WithLock(ctx context.Context, workflow string, fn func(ctx context.Context) error) error {
	// Session-level locks belong to a connection, so the acquire, the
	// work, and the release must all happen on the same one.
	return l.db.WithContext(ctx).Connection(func(conn *gorm.DB) error {
		var acquired bool
		if err := conn.Raw("SELECT pg_try_advisory_lock(hashtext(?))", workflow).
			Scan(&acquired).Error; err != nil {
			return fmt.Errorf("acquiring workflow lock %q: %w", workflow, err)
		}
		if !acquired {
			return integration.ErrWorkflowBusy
		}

		defer func() {
			var released bool
			conn.Raw("SELECT pg_advisory_unlock(hashtext(?))", workflow).Scan(&released)
		}()

		return fn(ctx)
	})
}
