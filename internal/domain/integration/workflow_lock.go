package integration

import (
	"context"
	"errors"
	"sync"
)

// ErrWorkflowBusy is returned when a workflow lock is already held, either by
// another pass in this process or by another instance
var ErrWorkflowBusy = errors.New("integration: workflow already running")

// WorkflowLocker serializes sync passes per workflow name. Implementations
// must be safe to hold across a full pass; a lock that cannot be acquired
// returns ErrWorkflowBusy without running fn.
type WorkflowLocker interface {
	WithLock(ctx context.Context, workflow string, fn func(ctx context.Context) error) error
}

// LocalWorkflowLocker guards workflows with in-process mutexes. It only
// serializes within a single instance; multi-instance deployments need a
// database-backed locker keyed by the same workflow names.
type LocalWorkflowLocker struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewLocalWorkflowLocker creates an in-process workflow locker
func NewLocalWorkflowLocker() *LocalWorkflowLocker {
	return &LocalWorkflowLocker{locks: make(map[string]*sync.Mutex)}
}

// WithLock runs fn while holding the named workflow's mutex, or returns
// ErrWorkflowBusy when a pass for that workflow is already in flight
func (l *LocalWorkflowLocker) WithLock(ctx context.Context, workflow string, fn func(ctx context.Context) error) error {
	l.mu.Lock()
	lock, ok := l.locks[workflow]
	if !ok {
		lock = &sync.Mutex{}
		l.locks[workflow] = lock
	}
	l.mu.Unlock()

	if !lock.TryLock() {
		return ErrWorkflowBusy
	}
	defer lock.Unlock()

	return fn(ctx)
}
