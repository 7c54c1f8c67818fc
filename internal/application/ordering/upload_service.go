package ordering

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/fulfillment/backend/internal/domain/catalog"
	"github.com/fulfillment/backend/internal/domain/integration"
	"github.com/fulfillment/backend/internal/domain/ordering"
	"github.com/fulfillment/backend/internal/domain/shared"
	"github.com/fulfillment/backend/internal/infrastructure/telemetry"
)

// WorkflowUpload is the workflow name of the upload polling loop
const WorkflowUpload = "order-upload"

// UploadServiceConfig holds configuration for the duplicate-safe uploader
type UploadServiceConfig struct {
	// LookbackWindow bounds the remote listing used to build the duplicate
	// index before an upload pass
	LookbackWindow time.Duration
	// BatchSize is the maximum number of pending orders taken per pass
	BatchSize int
	// ListPageSize is the page size for remote listing calls
	ListPageSize int
}

// DefaultUploadServiceConfig returns default uploader configuration
func DefaultUploadServiceConfig() UploadServiceConfig {
	return UploadServiceConfig{
		LookbackWindow: 72 * time.Hour,
		BatchSize:      200,
		ListPageSize:   100,
	}
}

// Validate validates the configuration
func (c *UploadServiceConfig) Validate() error {
	if c.LookbackWindow <= 0 {
		return shared.NewDomainError("INVALID_CONFIG", "Lookback window must be positive")
	}
	if c.BatchSize <= 0 {
		return shared.NewDomainError("INVALID_CONFIG", "Batch size must be positive")
	}
	if c.ListPageSize <= 0 {
		return shared.NewDomainError("INVALID_CONFIG", "List page size must be positive")
	}
	return nil
}

// UploadOutcome is the per-order result of an upload pass
type UploadOutcome string

const (
	UploadOutcomeUploaded UploadOutcome = "UPLOADED"
	UploadOutcomeSkipped  UploadOutcome = "SKIPPED"
	UploadOutcomeFailed   UploadOutcome = "FAILED"
)

// UploadPassResult summarizes one upload pass
type UploadPassResult struct {
	Total              int
	Uploaded           int
	Skipped            int
	Failed             int
	FailedOrderNumbers []string
}

// UploadService is the duplicate-safe uploader. It expands bundles, resolves
// lots, normalizes orders into upload payloads, and uploads exactly the
// orders that do not already exist remotely, keyed on (order number, base
// product code).
type UploadService struct {
	orders   ordering.OrderRepository
	bundles  catalog.BundleDefinitionRepository
	lots     catalog.LotResolver
	platform integration.ShippingPlatform
	config   UploadServiceConfig
	logger   *zap.Logger

	locker      integration.WorkflowLocker
	syncMetrics *telemetry.SyncMetrics
}

// NewUploadService creates a new upload service
func NewUploadService(
	orders ordering.OrderRepository,
	bundles catalog.BundleDefinitionRepository,
	lots catalog.LotResolver,
	platform integration.ShippingPlatform,
	config UploadServiceConfig,
	logger *zap.Logger,
) (*UploadService, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UploadService{
		orders:   orders,
		bundles:  bundles,
		lots:     lots,
		platform: platform,
		config:   config,
		logger:   logger,
		locker:   integration.NewLocalWorkflowLocker(),
	}, nil
}

// SetSyncMetrics sets the optional sync metrics recorder
func (s *UploadService) SetSyncMetrics(m *telemetry.SyncMetrics) {
	s.syncMetrics = m
}

// SetWorkflowLocker replaces the default in-process locker, letting
// multi-instance deployments serialize passes through the database
func (s *UploadService) SetWorkflowLocker(l integration.WorkflowLocker) {
	s.locker = l
}

// Name returns the workflow name
func (s *UploadService) Name() string {
	return WorkflowUpload
}

// RunCycle runs one upload pass; it implements the scheduler workflow
// contract
func (s *UploadService) RunCycle(ctx context.Context) error {
	_, err := s.RunUploadPass(ctx)
	return err
}

// RunUploadPass uploads the net-new subset of pending orders. The duplicate
// index snapshot is taken once at the start and used for the whole pass.
// Each order is processed atomically on its own: one order's failure never
// blocks its siblings. Only loss of connectivity to the platform or the
// database aborts the pass.
func (s *UploadService) RunUploadPass(ctx context.Context) (*UploadPassResult, error) {
	var result *UploadPassResult
	err := s.locker.WithLock(ctx, WorkflowUpload, func(ctx context.Context) error {
		var passErr error
		result, passErr = s.runPass(ctx)
		return passErr
	})
	if errors.Is(err, integration.ErrWorkflowBusy) {
		s.logger.Info("Previous upload pass still running, skipping tick")
		return &UploadPassResult{}, nil
	}
	return result, err
}

func (s *UploadService) runPass(ctx context.Context) (*UploadPassResult, error) {
	filter := shared.DefaultFilter()
	filter.PageSize = s.config.BatchSize
	filter.OrderBy = "intake_date"
	filter.OrderDir = "asc"

	pending, err := s.orders.FindByStatus(ctx, ordering.OrderStatusPending, filter)
	if err != nil {
		return nil, fmt.Errorf("listing pending orders: %w", err)
	}

	result := &UploadPassResult{Total: len(pending)}
	if len(pending) == 0 {
		return result, nil
	}

	index, err := s.buildDuplicateIndex(ctx)
	if err != nil {
		return nil, fmt.Errorf("building duplicate index: %w", err)
	}

	for i := range pending {
		order := &pending[i]
		outcome, err := s.processOrder(ctx, index, order)
		if err != nil {
			// Infrastructure failure: abort the cycle, the order stays
			// pending and is retried next pass.
			return result, err
		}
		switch outcome {
		case UploadOutcomeUploaded:
			result.Uploaded++
		case UploadOutcomeSkipped:
			result.Skipped++
		case UploadOutcomeFailed:
			result.Failed++
			result.FailedOrderNumbers = append(result.FailedOrderNumbers, order.OrderNumber)
		}
		if s.syncMetrics != nil {
			s.syncMetrics.RecordUploadOutcome(ctx, string(outcome))
		}
	}

	s.logger.Info("Upload pass completed",
		zap.Int("total", result.Total),
		zap.Int("uploaded", result.Uploaded),
		zap.Int("skipped", result.Skipped),
		zap.Int("failed", result.Failed),
	)
	return result, nil
}

// remoteOrderEntry is one order's snapshot in the duplicate index
type remoteOrderEntry struct {
	remoteID  string
	status    integration.RemoteOrderStatus
	baseCodes map[string]struct{}
}

// duplicateIndex maps order number to the set of base product codes already
// present for that number in the remote system. It is ephemeral and rebuilt
// per pass.
type duplicateIndex map[string]*remoteOrderEntry

// buildDuplicateIndex lists remote orders within the lookback window and
// extracts, per order number, the base product codes already present
func (s *UploadService) buildDuplicateIndex(ctx context.Context) (duplicateIndex, error) {
	index := make(duplicateIndex)
	since := time.Now().Add(-s.config.LookbackWindow)

	page := 1
	for {
		req := &integration.OrderListRequest{
			ModifiedSince: since,
			Page:          page,
			PageSize:      s.config.ListPageSize,
		}
		listing, err := s.platform.ListOrders(ctx, req)
		if err != nil {
			return nil, err
		}

		for _, remote := range listing.Orders {
			entry, ok := index[remote.OrderNumber]
			if !ok {
				entry = &remoteOrderEntry{baseCodes: make(map[string]struct{})}
				index[remote.OrderNumber] = entry
			}
			entry.remoteID = remote.RemoteID
			entry.status = remote.Status
			for _, item := range remote.Items {
				entry.baseCodes[catalog.SplitProductCode(item.ProductCode).Base] = struct{}{}
			}
		}

		if !listing.HasMore {
			break
		}
		page = listing.NextPage
	}
	return index, nil
}

// resolveItems expands bundles and resolves lots for every line item of an
// order. A missing lot is a soft failure: the item keeps its base code and a
// warning is logged.
func (s *UploadService) resolveItems(ctx context.Context, order *ordering.Order) ([]catalog.ResolvedLineItem, error) {
	var resolved []catalog.ResolvedLineItem
	for _, item := range order.Items {
		def, err := s.bundles.FindByCode(ctx, item.ProductCode)
		if err != nil && !errors.Is(err, shared.ErrNotFound) {
			return nil, err
		}

		expanded := catalog.ExpandLineItem(def, item.ProductCode, item.Quantity, item.UnitPrice)
		if len(expanded) == 0 {
			s.logger.Warn("Bundle expanded to zero components",
				zap.String("order_number", order.OrderNumber),
				zap.String("bundle_code", item.ProductCode),
			)
		}
		for i := range expanded {
			lot, ok, err := s.lots.Resolve(ctx, expanded[i].BaseCode)
			if err != nil {
				return nil, err
			}
			if ok {
				expanded[i].Lot = lot
			} else {
				s.logger.Warn("No active lot for product code, uploading unresolved",
					zap.String("order_number", order.OrderNumber),
					zap.String("base_code", expanded[i].BaseCode),
				)
			}
		}
		resolved = append(resolved, expanded...)
	}
	return resolved, nil
}

// processOrder decides and executes the upload action for a single order.
// Per-order failures are absorbed into a FAILED status; the returned error
// is non-nil only for infrastructure failures that must abort the pass.
func (s *UploadService) processOrder(ctx context.Context, index duplicateIndex, order *ordering.Order) (UploadOutcome, error) {
	resolved, err := s.resolveItems(ctx, order)
	if err != nil {
		return "", err
	}

	if len(resolved) == 0 {
		return s.failOrder(ctx, order, "order has no shippable items after bundle expansion")
	}

	localBases := make(map[string]struct{}, len(resolved))
	for _, item := range resolved {
		localBases[item.BaseCode] = struct{}{}
	}

	if entry, ok := index[order.OrderNumber]; ok {
		matching := intersect(localBases, entry.baseCodes)
		if len(matching) > 0 {
			return s.skipDuplicate(ctx, order, entry, matching)
		}
		// Same order number, fully disjoint base codes: the rare legitimate
		// case of an additional distinct SKU under an existing number. The
		// remote system keys uniqueness on (order number, product), so this
		// uploads.
		s.logger.Info("Order number exists remotely with disjoint base codes, uploading distinct SKUs",
			zap.String("order_number", order.OrderNumber),
			zap.Strings("local_base_codes", sortedKeys(localBases)),
		)
	}

	return s.upload(ctx, order, resolved)
}

// skipDuplicate mirrors the remote order's status onto a local duplicate and
// records the remote id linkage. Every skip is logged with the matching base
// codes for audit.
func (s *UploadService) skipDuplicate(ctx context.Context, order *ordering.Order, entry *remoteOrderEntry, matching []string) (UploadOutcome, error) {
	s.logger.Info("Skipping upload of duplicate order",
		zap.String("order_number", order.OrderNumber),
		zap.String("remote_id", entry.remoteID),
		zap.String("remote_status", entry.status.String()),
		zap.Strings("matching_base_codes", matching),
	)

	status, ok := ordering.FromRemoteStatus(entry.status)
	if !ok {
		status = ordering.OrderStatusAwaitingShipment
	}
	if err := order.MirrorRemote(entry.remoteID, status); err != nil {
		s.logger.Warn("Could not mirror remote status onto duplicate order",
			zap.String("order_number", order.OrderNumber),
			zap.String("remote_status", entry.status.String()),
			zap.Error(err),
		)
	}
	if err := s.orders.Save(ctx, order); err != nil {
		return "", err
	}
	return UploadOutcomeSkipped, nil
}

// upload builds the payload and performs the remote create. Validation and
// exhausted-retry transport errors demote the order to FAILED.
func (s *UploadService) upload(ctx context.Context, order *ordering.Order, resolved []catalog.ResolvedLineItem) (UploadOutcome, error) {
	payload := buildPayload(order, resolved)
	if err := payload.Validate(); err != nil {
		return s.failOrder(ctx, order, fmt.Sprintf("validation: %v", err))
	}

	remote, err := s.platform.CreateOrUpdateOrder(ctx, payload)
	if err != nil {
		if integration.IsTransient(err) {
			return s.failOrder(ctx, order, fmt.Sprintf("transient upload failure after retries: %v", err))
		}
		return s.failOrder(ctx, order, fmt.Sprintf("upload rejected: %v", err))
	}

	if err := order.MarkUploaded(remote.RemoteID); err != nil {
		return "", err
	}
	if err := s.orders.Save(ctx, order); err != nil {
		return "", err
	}

	s.logger.Info("Order uploaded",
		zap.String("order_number", order.OrderNumber),
		zap.String("remote_id", remote.RemoteID),
		zap.Int("item_count", len(payload.Items)),
	)
	return UploadOutcomeUploaded, nil
}

// failOrder demotes an order to FAILED with a reason
func (s *UploadService) failOrder(ctx context.Context, order *ordering.Order, reason string) (UploadOutcome, error) {
	s.logger.Warn("Order upload failed",
		zap.String("order_number", order.OrderNumber),
		zap.String("reason", reason),
	)
	if err := order.MarkFailed(reason); err != nil {
		return "", err
	}
	if err := s.orders.Save(ctx, order); err != nil {
		return "", err
	}
	return UploadOutcomeFailed, nil
}

// buildPayload normalizes an order and its resolved line items into the
// upload-ready representation
func buildPayload(order *ordering.Order, resolved []catalog.ResolvedLineItem) *integration.OrderPayload {
	items := make([]integration.OrderPayloadItem, 0, len(resolved))
	for _, r := range resolved {
		items = append(items, integration.OrderPayloadItem{
			ProductCode: r.UploadCode(),
			Quantity:    r.Quantity,
			UnitPrice:   r.UnitPrice,
		})
	}
	return &integration.OrderPayload{
		OrderNumber: order.OrderNumber,
		OrderDate:   order.IntakeDate,
		ShipTo:      order.ShipTo,
		CarrierCode: order.CarrierCode,
		ServiceCode: order.ServiceCode,
		Items:       items,
	}
}

// intersect returns the sorted intersection of two base-code sets
func intersect(a, b map[string]struct{}) []string {
	var out []string
	for code := range a {
		if _, ok := b[code]; ok {
			out = append(out, code)
		}
	}
	sort.Strings(out)
	return out
}

// sortedKeys returns the sorted keys of a base-code set
func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for code := range set {
		out = append(out, code)
	}
	sort.Strings(out)
	return out
}
