package telemetry_test

import (
	"context"
	"testing"
	"time"

	"github.com/fulfillment/backend/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
	"go.uber.org/zap"
)

func TestNewSyncMetrics(t *testing.T) {
	meter := noop.NewMeterProvider().Meter("test")

	sm, err := telemetry.NewSyncMetrics(telemetry.SyncMetricsConfig{
		Meter:  meter,
		Logger: zap.NewNop(),
	})

	require.NoError(t, err)
	require.NotNil(t, sm)
}

func TestNewSyncMetrics_NilMeter(t *testing.T) {
	sm, err := telemetry.NewSyncMetrics(telemetry.SyncMetricsConfig{
		Meter:  nil,
		Logger: zap.NewNop(),
	})

	require.Error(t, err)
	assert.Nil(t, sm)
	assert.ErrorIs(t, err, telemetry.ErrMeterNil)
}

func TestSyncMetrics_Record(t *testing.T) {
	meter := noop.NewMeterProvider().Meter("test")
	sm, err := telemetry.NewSyncMetrics(telemetry.SyncMetricsConfig{
		Meter: meter,
	})
	require.NoError(t, err)

	ctx := context.Background()

	// Should not panic
	sm.RecordUploadOutcome(ctx, "UPLOADED")
	sm.RecordUploadOutcome(ctx, "SKIPPED")
	sm.RecordUploadOutcome(ctx, "FAILED")
	sm.RecordReconcileCycle(ctx, "completed")
	sm.RecordReconcileOrders(ctx, 42)
	sm.RecordViolation(ctx, "CARRIER_MISMATCH")
	sm.RecordCycleDuration(ctx, "order-upload", 1500*time.Millisecond)
}
