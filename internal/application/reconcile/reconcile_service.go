// Package reconcile implements the watermark-based status reconciliation
// workflow: it polls the remote shipping platform for recently modified
// orders, mirrors their statuses locally, backfills orders that have no local
// origin, and raises advisory shipping rule violations.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fulfillment/backend/internal/domain/integration"
	"github.com/fulfillment/backend/internal/domain/ordering"
	"github.com/fulfillment/backend/internal/domain/shared"
	"github.com/fulfillment/backend/internal/domain/shipping"
	"github.com/fulfillment/backend/internal/infrastructure/telemetry"
)

// WorkflowReconcile is the workflow name of the reconciliation polling loop
const WorkflowReconcile = "status-reconcile"

// ServiceConfig holds configuration for the reconciler
type ServiceConfig struct {
	// DefaultLookback bounds the first cycle when no watermark exists yet
	DefaultLookback time.Duration
	// ListPageSize is the page size for remote listing calls
	ListPageSize int
}

// DefaultServiceConfig returns default reconciler configuration
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		DefaultLookback: 72 * time.Hour,
		ListPageSize:    100,
	}
}

// Validate validates the configuration
func (c *ServiceConfig) Validate() error {
	if c.DefaultLookback <= 0 {
		return shared.NewDomainError("INVALID_CONFIG", "Default lookback must be positive")
	}
	if c.ListPageSize <= 0 {
		return shared.NewDomainError("INVALID_CONFIG", "List page size must be positive")
	}
	return nil
}

// PassResult summarizes one reconciliation cycle
type PassResult struct {
	// Skipped is true when the cycle yielded to a still-running predecessor
	Skipped    bool
	Processed  int
	Mirrored   int
	Backfilled int
	Violations int
	Failed     int
}

// Service is the status reconciler. Cycles overlap-protect through the
// workflow locker: a tick that finds a cycle still running, here or on
// another instance, skips instead of piling up behind it.
type Service struct {
	orders     ordering.OrderRepository
	platform   integration.ShippingPlatform
	watermarks integration.SyncWatermarkRepository
	violations shipping.ViolationRepository
	rules      shipping.RuleSet
	config     ServiceConfig
	logger     *zap.Logger

	locker      integration.WorkflowLocker
	syncMetrics *telemetry.SyncMetrics
}

// NewService creates a new reconciliation service
func NewService(
	orders ordering.OrderRepository,
	platform integration.ShippingPlatform,
	watermarks integration.SyncWatermarkRepository,
	violations shipping.ViolationRepository,
	rules shipping.RuleSet,
	config ServiceConfig,
	logger *zap.Logger,
) (*Service, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		orders:     orders,
		platform:   platform,
		watermarks: watermarks,
		violations: violations,
		rules:      rules,
		config:     config,
		logger:     logger,
		locker:     integration.NewLocalWorkflowLocker(),
	}, nil
}

// SetSyncMetrics sets the optional sync metrics recorder
func (s *Service) SetSyncMetrics(m *telemetry.SyncMetrics) {
	s.syncMetrics = m
}

// SetWorkflowLocker replaces the default in-process locker, letting
// multi-instance deployments serialize cycles through the database
func (s *Service) SetWorkflowLocker(l integration.WorkflowLocker) {
	s.locker = l
}

// Name returns the workflow name
func (s *Service) Name() string {
	return WorkflowReconcile
}

// RunCycle runs one reconciliation cycle; it implements the scheduler
// workflow contract
func (s *Service) RunCycle(ctx context.Context) error {
	_, err := s.RunReconcilePass(ctx)
	return err
}

// RunReconcilePass polls remote orders modified since the watermark and
// applies each one locally. The watermark advances to the newest modification
// timestamp seen, and only when every row in the batch applied cleanly; a
// dirty batch leaves the watermark in place so the window is retried.
func (s *Service) RunReconcilePass(ctx context.Context) (*PassResult, error) {
	var result *PassResult
	err := s.locker.WithLock(ctx, WorkflowReconcile, func(ctx context.Context) error {
		var passErr error
		result, passErr = s.runPass(ctx)
		return passErr
	})
	if errors.Is(err, integration.ErrWorkflowBusy) {
		s.logger.Info("Previous reconciliation cycle still running, skipping tick")
		if s.syncMetrics != nil {
			s.syncMetrics.RecordReconcileCycle(ctx, "skipped")
		}
		return &PassResult{Skipped: true}, nil
	}
	return result, err
}

func (s *Service) runPass(ctx context.Context) (*PassResult, error) {
	started := time.Now()
	watermark, err := s.loadWatermark(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading watermark: %w", err)
	}

	result := &PassResult{}
	maxModified := watermark.LastProcessedAt

	page := 1
	for {
		req := &integration.OrderListRequest{
			ModifiedSince: watermark.LastProcessedAt,
			Page:          page,
			PageSize:      s.config.ListPageSize,
		}
		listing, err := s.platform.ListOrders(ctx, req)
		if err != nil {
			if s.syncMetrics != nil {
				s.syncMetrics.RecordReconcileCycle(ctx, "list_failed")
			}
			return result, fmt.Errorf("listing remote orders: %w", err)
		}

		for i := range listing.Orders {
			remote := &listing.Orders[i]
			result.Processed++
			if remote.ModifiedAt.After(maxModified) {
				maxModified = remote.ModifiedAt
			}
			if err := s.applyRemote(ctx, remote, result); err != nil {
				result.Failed++
				s.logger.Error("Failed to apply remote order",
					zap.String("order_number", remote.OrderNumber),
					zap.String("remote_id", remote.RemoteID),
					zap.Error(err),
				)
			}
		}

		if !listing.HasMore {
			break
		}
		page = listing.NextPage
	}

	if result.Failed == 0 && maxModified.After(watermark.LastProcessedAt) {
		if err := watermark.Advance(maxModified); err != nil {
			return result, err
		}
		if err := s.watermarks.Save(ctx, watermark); err != nil {
			return result, fmt.Errorf("saving watermark: %w", err)
		}
	}

	if s.syncMetrics != nil {
		s.syncMetrics.RecordReconcileCycle(ctx, "completed")
		s.syncMetrics.RecordReconcileOrders(ctx, int64(result.Processed))
		s.syncMetrics.RecordCycleDuration(ctx, WorkflowReconcile, time.Since(started))
	}

	s.logger.Info("Reconciliation cycle completed",
		zap.Int("processed", result.Processed),
		zap.Int("mirrored", result.Mirrored),
		zap.Int("backfilled", result.Backfilled),
		zap.Int("violations", result.Violations),
		zap.Int("failed", result.Failed),
		zap.Time("watermark", watermark.LastProcessedAt),
	)
	return result, nil
}

// loadWatermark reads the workflow's watermark, bootstrapping one at the
// default lookback when the workflow has never completed a batch
func (s *Service) loadWatermark(ctx context.Context) (*integration.SyncWatermark, error) {
	watermark, err := s.watermarks.FindByWorkflow(ctx, WorkflowReconcile)
	if err == nil {
		return watermark, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	return integration.NewSyncWatermark(WorkflowReconcile, time.Now().Add(-s.config.DefaultLookback))
}

// applyRemote mirrors one remote order onto local state. Orders unknown
// locally are backfilled; known orders get the remote status and the actual
// carrier/service, then the shipping rules run against the updated row.
func (s *Service) applyRemote(ctx context.Context, remote *integration.RemoteOrder, result *PassResult) error {
	local, err := s.orders.FindByOrderNumber(ctx, remote.OrderNumber)
	if errors.Is(err, shared.ErrNotFound) {
		return s.backfill(ctx, remote, result)
	}
	if err != nil {
		return err
	}

	status, known := ordering.FromRemoteStatus(remote.Status)
	if !known {
		s.logger.Warn("Unknown remote status, leaving local order untouched",
			zap.String("order_number", remote.OrderNumber),
			zap.String("remote_status", remote.Status.String()),
		)
		return nil
	}

	// A backfilled order keeps its SYNCED_MANUAL marker while the remote side
	// is pre-shipment so operators can still tell these orders apart. Holds
	// and terminal states apply as usual.
	keepMarker := local.Status == ordering.OrderStatusSyncedManual && !status.IsRemoteDriven()

	if !keepMarker {
		if err := local.MirrorRemote(remote.RemoteID, status); err != nil {
			if local.Status.IsTerminal() {
				// Terminal orders never move; a stale remote row is not a failure.
				s.logger.Debug("Ignoring remote status for terminal order",
					zap.String("order_number", remote.OrderNumber),
					zap.String("local_status", local.Status.String()),
				)
				return nil
			}
			return err
		}
	}
	local.SetActualShipping(remote.CarrierCode, remote.ServiceCode)

	if err := s.orders.Save(ctx, local); err != nil {
		return err
	}
	result.Mirrored++

	return s.checkShippingRules(ctx, local, result)
}

// backfill creates a local order for one discovered remotely without local
// origin
func (s *Service) backfill(ctx context.Context, remote *integration.RemoteOrder, result *PassResult) error {
	status, known := ordering.FromRemoteStatus(remote.Status)
	if !known {
		status = ordering.OrderStatusSyncedManual
	}

	order, err := ordering.BackfillFromRemote(remote.OrderNumber, remote.RemoteID, status, remote.ShipTo)
	if err != nil {
		return err
	}
	order.SetActualShipping(remote.CarrierCode, remote.ServiceCode)

	if err := s.orders.Save(ctx, order); err != nil {
		return err
	}
	result.Backfilled++

	s.logger.Info("Backfilled remote order without local origin",
		zap.String("order_number", remote.OrderNumber),
		zap.String("remote_id", remote.RemoteID),
		zap.String("status", order.Status.String()),
	)
	return s.checkShippingRules(ctx, order, result)
}

// checkShippingRules runs the advisory rule check against an order and
// upserts at most one open violation per (order, kind)
func (s *Service) checkShippingRules(ctx context.Context, order *ordering.Order, result *PassResult) error {
	for _, finding := range s.rules.Check(order) {
		existing, err := s.violations.FindOpenByOrderAndKind(ctx, order.ID, finding.Kind)
		if err != nil && !errors.Is(err, shared.ErrNotFound) {
			return err
		}

		if existing != nil {
			if err := existing.Observe(finding.Expected, finding.Actual); err != nil {
				return err
			}
			if err := s.violations.Save(ctx, existing); err != nil {
				return err
			}
			continue
		}

		violation, err := shipping.NewViolation(order.ID, finding.Kind, finding.Expected, finding.Actual)
		if err != nil {
			return err
		}
		if err := s.violations.Save(ctx, violation); err != nil {
			return err
		}
		result.Violations++
		if s.syncMetrics != nil {
			s.syncMetrics.RecordViolation(ctx, finding.Kind.String())
		}

		s.logger.Warn("Shipping rule violation detected",
			zap.String("order_number", order.OrderNumber),
			zap.String("kind", finding.Kind.String()),
			zap.String("expected", finding.Expected),
			zap.String("actual", finding.Actual),
		)
	}
	return nil
}

// ResolveViolation closes an open violation by id
func (s *Service) ResolveViolation(ctx context.Context, id uuid.UUID) (*shipping.Violation, error) {
	violation, err := s.violations.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := violation.Resolve(); err != nil {
		return nil, err
	}
	if err := s.violations.Save(ctx, violation); err != nil {
		return nil, err
	}
	s.logger.Info("Shipping violation resolved", zap.String("violation_id", id.String()))
	return violation, nil
}

// ListViolations returns a page of violations with the total count
func (s *Service) ListViolations(ctx context.Context, filter shared.Filter) ([]shipping.Violation, int64, error) {
	violations, err := s.violations.FindAll(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.violations.Count(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return violations, total, nil
}

// Watermark returns the reconciler's current watermark, or shared.ErrNotFound
// before the first completed batch
func (s *Service) Watermark(ctx context.Context) (*integration.SyncWatermark, error) {
	return s.watermarks.FindByWorkflow(ctx, WorkflowReconcile)
}
