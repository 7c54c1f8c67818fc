// Package scheduler runs the periodic synchronization workflows. Each
// workflow gets its own poll loop with a fixed interval, a per-cycle
// timeout, and a database flag gate checked before every cycle.
package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/fulfillment/backend/internal/domain/flags"
)

// Workflow is a periodic unit of work driven by a poll loop
type Workflow interface {
	// Name identifies the workflow in logs, flags, and watermarks
	Name() string

	// RunCycle performs one full cycle. Implementations skip cooperatively
	// when the previous cycle is still running.
	RunCycle(ctx context.Context) error
}

// PollLoopConfig holds configuration for a poll loop
type PollLoopConfig struct {
	// Interval is the time between cycle starts
	Interval time.Duration
	// CycleTimeout bounds a single cycle
	CycleTimeout time.Duration
}

// Validate validates the configuration
func (c *PollLoopConfig) Validate() error {
	if c.Interval <= 0 {
		return ErrInvalidConfig
	}
	if c.CycleTimeout <= 0 {
		return ErrInvalidConfig
	}
	return nil
}

// PollLoop drives a workflow on a fixed interval. Before every cycle it
// consults the workflow's enablement flag; a disabled workflow keeps
// ticking but skips cycles, so re-enabling the flag needs no restart.
type PollLoop struct {
	workflow  Workflow
	config    PollLoopConfig
	evaluator *flags.Evaluator
	logger    *zap.Logger

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// NewPollLoop creates a new poll loop for the workflow
func NewPollLoop(workflow Workflow, config PollLoopConfig, evaluator *flags.Evaluator, logger *zap.Logger) (*PollLoop, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &PollLoop{
		workflow:  workflow,
		config:    config,
		evaluator: evaluator,
		logger:    logger,
	}, nil
}

// Start starts the loop. The first cycle runs after one interval.
func (l *PollLoop) Start(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.isRunning {
		return ErrAlreadyRunning
	}
	l.isRunning = true

	ctx, cancel := context.WithCancel(ctx)
	l.cancel = cancel

	l.wg.Add(1)
	go l.run(ctx)

	l.logger.Info("Poll loop started",
		zap.String("workflow", l.workflow.Name()),
		zap.Duration("interval", l.config.Interval),
		zap.Duration("cycle_timeout", l.config.CycleTimeout),
	)
	return nil
}

// Stop gracefully stops the loop, waiting for an in-flight cycle
func (l *PollLoop) Stop(ctx context.Context) error {
	l.mu.Lock()
	if !l.isRunning {
		l.mu.Unlock()
		return ErrNotRunning
	}
	l.isRunning = false
	l.mu.Unlock()

	l.cancel()

	done := make(chan struct{})
	go func() {
		l.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		l.logger.Info("Poll loop stopped", zap.String("workflow", l.workflow.Name()))
		return nil
	case <-ctx.Done():
		l.logger.Warn("Poll loop stop timed out", zap.String("workflow", l.workflow.Name()))
		return ctx.Err()
	}
}

// IsRunning reports whether the loop is running
func (l *PollLoop) IsRunning() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.isRunning
}

// run ticks until the context is cancelled
func (l *PollLoop) run(ctx context.Context) {
	defer l.wg.Done()

	ticker := time.NewTicker(l.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.runCycle(ctx)
		}
	}
}

// runCycle runs one gated, timeout-bounded cycle
func (l *PollLoop) runCycle(ctx context.Context) {
	name := l.workflow.Name()

	if l.evaluator != nil && !l.evaluator.WorkflowEnabled(ctx, name) {
		l.logger.Debug("Workflow disabled, skipping cycle", zap.String("workflow", name))
		return
	}

	cycleCtx, cancel := context.WithTimeout(ctx, l.config.CycleTimeout)
	defer cancel()

	started := time.Now()
	if err := l.workflow.RunCycle(cycleCtx); err != nil {
		l.logger.Error("Workflow cycle failed",
			zap.String("workflow", name),
			zap.Duration("elapsed", time.Since(started)),
			zap.Error(err),
		)
		return
	}

	l.logger.Debug("Workflow cycle completed",
		zap.String("workflow", name),
		zap.Duration("elapsed", time.Since(started)),
	)
}
