package telemetry

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// ErrMeterNil is returned when a metrics constructor is given a nil meter.
var ErrMeterNil = errors.New("telemetry: meter is nil")

// Attribute keys used across sync metrics.
var (
	AttrWorkflow      = attribute.Key("workflow")
	AttrOutcome       = attribute.Key("outcome")
	AttrViolationKind = attribute.Key("violation_kind")
)

// SyncMetrics tracks the health of the upload and reconciliation workflows:
// per-order upload outcomes, reconciliation cycle results, and shipping rule
// violations detected against remote data.
type SyncMetrics struct {
	meter  metric.Meter
	logger *zap.Logger

	uploadOutcomeTotal  *Counter
	reconcileCycleTotal *Counter
	reconcileOrderTotal *Counter
	violationTotal      *Counter
	cycleDuration       *Histogram
}

// SyncMetricsConfig holds configuration for sync metrics.
type SyncMetricsConfig struct {
	Meter  metric.Meter
	Logger *zap.Logger
}

// NewSyncMetrics creates a new SyncMetrics instance.
func NewSyncMetrics(cfg SyncMetricsConfig) (*SyncMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	sm := &SyncMetrics{
		meter:  cfg.Meter,
		logger: logger,
	}

	var err error

	sm.uploadOutcomeTotal, err = NewCounter(
		cfg.Meter,
		"fulfillment_upload_outcome_total",
		"Per-order outcomes of the upload pass",
		"{orders}",
	)
	if err != nil {
		return nil, err
	}

	sm.reconcileCycleTotal, err = NewCounter(
		cfg.Meter,
		"fulfillment_reconcile_cycle_total",
		"Total reconciliation cycles by outcome",
		"{cycles}",
	)
	if err != nil {
		return nil, err
	}

	sm.reconcileOrderTotal, err = NewCounter(
		cfg.Meter,
		"fulfillment_reconcile_order_total",
		"Remote orders processed during reconciliation",
		"{orders}",
	)
	if err != nil {
		return nil, err
	}

	sm.violationTotal, err = NewCounter(
		cfg.Meter,
		"fulfillment_shipping_violation_total",
		"Shipping rule violations detected",
		"{violations}",
	)
	if err != nil {
		return nil, err
	}

	sm.cycleDuration, err = NewHistogram(
		cfg.Meter,
		"fulfillment_workflow_cycle_duration_seconds",
		"Duration of a full workflow cycle",
		"s",
	)
	if err != nil {
		return nil, err
	}

	return sm, nil
}

// RecordUploadOutcome records the outcome of a single order's upload attempt.
func (sm *SyncMetrics) RecordUploadOutcome(ctx context.Context, outcome string) {
	sm.uploadOutcomeTotal.Inc(ctx, AttrOutcome.String(outcome))
}

// RecordReconcileCycle records the completion of a reconciliation cycle.
func (sm *SyncMetrics) RecordReconcileCycle(ctx context.Context, outcome string) {
	sm.reconcileCycleTotal.Inc(ctx, AttrOutcome.String(outcome))
}

// RecordReconcileOrders records the number of remote orders processed in a cycle.
func (sm *SyncMetrics) RecordReconcileOrders(ctx context.Context, count int64) {
	sm.reconcileOrderTotal.Add(ctx, count)
}

// RecordViolation records a newly detected shipping rule violation.
func (sm *SyncMetrics) RecordViolation(ctx context.Context, kind string) {
	sm.violationTotal.Inc(ctx, AttrViolationKind.String(kind))
}

// RecordCycleDuration records how long a workflow cycle took.
func (sm *SyncMetrics) RecordCycleDuration(ctx context.Context, workflow string, d time.Duration) {
	sm.cycleDuration.Record(ctx, d.Seconds(), AttrWorkflow.String(workflow))
}
