package flags

import (
	"context"
	"errors"

	"github.com/fulfillment/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// WorkflowEnabledKey returns the flag key controlling a polling workflow
func WorkflowEnabledKey(workflow string) string {
	return "workflow." + workflow + ".enabled"
}

// Evaluator reads flags with fail-open semantics: absence or a read error
// yields the caller's default, never an error. This is an intentional
// availability-over-strictness choice.
type Evaluator struct {
	repo   Repository
	logger *zap.Logger
}

// NewEvaluator creates a new flag evaluator
func NewEvaluator(repo Repository, logger *zap.Logger) *Evaluator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Evaluator{repo: repo, logger: logger}
}

// Bool evaluates a boolean flag, returning def when the flag is absent,
// unreadable, or of the wrong type
func (e *Evaluator) Bool(ctx context.Context, key string, def bool) bool {
	flag, err := e.repo.FindByKey(ctx, key)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			e.logger.Warn("Flag read failed, using default",
				zap.String("key", key),
				zap.Bool("default", def),
				zap.Error(err),
			)
		}
		return def
	}
	return flag.BoolValue(def)
}

// String evaluates a string flag, returning def when the flag is absent or
// unreadable
func (e *Evaluator) String(ctx context.Context, key, def string) string {
	flag, err := e.repo.FindByKey(ctx, key)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			e.logger.Warn("Flag read failed, using default",
				zap.String("key", key),
				zap.String("default", def),
				zap.Error(err),
			)
		}
		return def
	}
	if flag.Type != FlagTypeString {
		return def
	}
	return flag.Value
}

// WorkflowEnabled reports whether a polling workflow is enabled. The flag
// defaults to enabled when absent.
func (e *Evaluator) WorkflowEnabled(ctx context.Context, workflow string) bool {
	return e.Bool(ctx, WorkflowEnabledKey(workflow), true)
}
