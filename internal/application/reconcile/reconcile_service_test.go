package reconcile

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fulfillment/backend/internal/domain/integration"
	"github.com/fulfillment/backend/internal/domain/ordering"
	"github.com/fulfillment/backend/internal/domain/shared"
	"github.com/fulfillment/backend/internal/domain/shared/valueobject"
	"github.com/fulfillment/backend/internal/domain/shipping"
)

// ---------------------------------------------------------------------------
// Fakes
// ---------------------------------------------------------------------------

type fakeOrderRepository struct {
	orders    map[string]*ordering.Order
	saveErrBy map[string]error
}

func newFakeOrderRepository() *fakeOrderRepository {
	return &fakeOrderRepository{
		orders:    make(map[string]*ordering.Order),
		saveErrBy: make(map[string]error),
	}
}

func (r *fakeOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*ordering.Order, error) {
	for _, o := range r.orders {
		if o.ID == id {
			copied := *o
			return &copied, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *fakeOrderRepository) FindByOrderNumber(ctx context.Context, orderNumber string) (*ordering.Order, error) {
	o, ok := r.orders[orderNumber]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := *o
	return &copied, nil
}

func (r *fakeOrderRepository) FindByStatus(ctx context.Context, status ordering.OrderStatus, filter shared.Filter) ([]ordering.Order, error) {
	var out []ordering.Order
	for _, o := range r.orders {
		if o.Status == status {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (r *fakeOrderRepository) FindAll(ctx context.Context, filter shared.Filter) ([]ordering.Order, error) {
	var out []ordering.Order
	for _, o := range r.orders {
		out = append(out, *o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrderNumber < out[j].OrderNumber })
	return out, nil
}

func (r *fakeOrderRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	return int64(len(r.orders)), nil
}

func (r *fakeOrderRepository) Save(ctx context.Context, order *ordering.Order) error {
	if err, ok := r.saveErrBy[order.OrderNumber]; ok {
		return err
	}
	copied := *order
	r.orders[order.OrderNumber] = &copied
	return nil
}

type fakeWatermarkRepository struct {
	watermarks map[string]*integration.SyncWatermark
}

func newFakeWatermarkRepository() *fakeWatermarkRepository {
	return &fakeWatermarkRepository{watermarks: make(map[string]*integration.SyncWatermark)}
}

func (r *fakeWatermarkRepository) FindByWorkflow(ctx context.Context, workflow string) (*integration.SyncWatermark, error) {
	w, ok := r.watermarks[workflow]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := *w
	return &copied, nil
}

func (r *fakeWatermarkRepository) Save(ctx context.Context, watermark *integration.SyncWatermark) error {
	copied := *watermark
	r.watermarks[watermark.Workflow] = &copied
	return nil
}

type fakeViolationRepository struct {
	violations map[uuid.UUID]*shipping.Violation
}

func newFakeViolationRepository() *fakeViolationRepository {
	return &fakeViolationRepository{violations: make(map[uuid.UUID]*shipping.Violation)}
}

func (r *fakeViolationRepository) FindByID(ctx context.Context, id uuid.UUID) (*shipping.Violation, error) {
	v, ok := r.violations[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := *v
	return &copied, nil
}

func (r *fakeViolationRepository) FindOpenByOrderAndKind(ctx context.Context, orderID uuid.UUID, kind shipping.ViolationKind) (*shipping.Violation, error) {
	for _, v := range r.violations {
		if v.OrderID == orderID && v.Kind == kind && !v.IsResolved() {
			copied := *v
			return &copied, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *fakeViolationRepository) FindAll(ctx context.Context, filter shared.Filter) ([]shipping.Violation, error) {
	var out []shipping.Violation
	for _, v := range r.violations {
		out = append(out, *v)
	}
	return out, nil
}

func (r *fakeViolationRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	return int64(len(r.violations)), nil
}

func (r *fakeViolationRepository) Save(ctx context.Context, violation *shipping.Violation) error {
	copied := *violation
	r.violations[violation.ID] = &copied
	return nil
}

type fakePlatform struct {
	remote  []integration.RemoteOrder
	listErr error
}

func (p *fakePlatform) ListOrders(ctx context.Context, req *integration.OrderListRequest) (*integration.OrderListPage, error) {
	if p.listErr != nil {
		return nil, p.listErr
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if req.Page > 1 {
		return &integration.OrderListPage{TotalCount: int64(len(p.remote))}, nil
	}
	return &integration.OrderListPage{
		Orders:     p.remote,
		TotalCount: int64(len(p.remote)),
	}, nil
}

func (p *fakePlatform) CreateOrUpdateOrder(ctx context.Context, payload *integration.OrderPayload) (*integration.RemoteOrder, error) {
	return nil, errors.New("not implemented")
}

func (p *fakePlatform) CancelOrder(ctx context.Context, remoteID string) error {
	return nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

type fixture struct {
	orders     *fakeOrderRepository
	watermarks *fakeWatermarkRepository
	violations *fakeViolationRepository
	platform   *fakePlatform
	service    *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		orders:     newFakeOrderRepository(),
		watermarks: newFakeWatermarkRepository(),
		violations: newFakeViolationRepository(),
		platform:   &fakePlatform{},
	}
	svc, err := NewService(f.orders, f.platform, f.watermarks, f.violations,
		shipping.DefaultRuleSet(), DefaultServiceConfig(), zap.NewNop())
	require.NoError(t, err)
	f.service = svc
	return f
}

func testAddress() valueobject.Address {
	return valueobject.Address{
		Name:        "Dana Reeves",
		Street1:     "400 Commerce Dr",
		City:        "Columbus",
		State:       "OH",
		PostalCode:  "43004",
		CountryCode: "US",
	}
}

func uploadedOrder(t *testing.T, number, remoteID string) *ordering.Order {
	t.Helper()
	order, err := ordering.NewOrder(number, time.Now().Add(-time.Hour), testAddress())
	require.NoError(t, err)
	require.NoError(t, order.AddItem("SKU-1", decimal.NewFromInt(1), decimal.NewFromInt(10)))
	require.NoError(t, order.MarkUploaded(remoteID))
	return order
}

func remoteOrder(number, remoteID string, status integration.RemoteOrderStatus, modified time.Time) integration.RemoteOrder {
	return integration.RemoteOrder{
		RemoteID:    remoteID,
		OrderNumber: number,
		Status:      status,
		CarrierCode: "usps",
		ServiceCode: "usps_ground_advantage",
		ShipTo:      testAddress(),
		ModifiedAt:  modified,
	}
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestReconcileService_MirrorsRemoteStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	order := uploadedOrder(t, "ORD-1", "r-1")
	require.NoError(t, f.orders.Save(ctx, order))

	modified := time.Now().Add(-time.Minute)
	f.platform.remote = []integration.RemoteOrder{
		remoteOrder("ORD-1", "r-1", integration.RemoteStatusShipped, modified),
	}

	result, err := f.service.RunReconcilePass(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Processed)
	assert.Equal(t, 1, result.Mirrored)

	saved, err := f.orders.FindByOrderNumber(ctx, "ORD-1")
	require.NoError(t, err)
	assert.Equal(t, ordering.OrderStatusShipped, saved.Status)
	assert.Equal(t, "usps", saved.CarrierCode)
	assert.Equal(t, "usps_ground_advantage", saved.ServiceCode)

	wm, err := f.watermarks.FindByWorkflow(ctx, WorkflowReconcile)
	require.NoError(t, err)
	assert.True(t, wm.LastProcessedAt.Equal(modified))
}

func TestReconcileService_BackfillsUnknownOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.platform.remote = []integration.RemoteOrder{
		remoteOrder("ORD-EXT", "r-9", integration.RemoteStatusAwaitingShipment, time.Now()),
	}

	result, err := f.service.RunReconcilePass(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Backfilled)

	saved, err := f.orders.FindByOrderNumber(ctx, "ORD-EXT")
	require.NoError(t, err)
	assert.Equal(t, ordering.OrderStatusSyncedManual, saved.Status)
	assert.Equal(t, "r-9", saved.RemoteID)
}

func TestReconcileService_BackfilledOrderKeepsMarkerPreShipment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.platform.remote = []integration.RemoteOrder{
		remoteOrder("ORD-EXT", "r-9", integration.RemoteStatusAwaitingShipment, time.Now().Add(-time.Minute)),
	}
	_, err := f.service.RunReconcilePass(ctx)
	require.NoError(t, err)

	// Second cycle still reports pre-shipment: the marker stays
	f.platform.remote = []integration.RemoteOrder{
		remoteOrder("ORD-EXT", "r-9", integration.RemoteStatusAwaitingShipment, time.Now()),
	}
	_, err = f.service.RunReconcilePass(ctx)
	require.NoError(t, err)

	saved, err := f.orders.FindByOrderNumber(ctx, "ORD-EXT")
	require.NoError(t, err)
	assert.Equal(t, ordering.OrderStatusSyncedManual, saved.Status)

	// Shipping the order clears it
	f.platform.remote = []integration.RemoteOrder{
		remoteOrder("ORD-EXT", "r-9", integration.RemoteStatusShipped, time.Now()),
	}
	_, err = f.service.RunReconcilePass(ctx)
	require.NoError(t, err)

	saved, err = f.orders.FindByOrderNumber(ctx, "ORD-EXT")
	require.NoError(t, err)
	assert.Equal(t, ordering.OrderStatusShipped, saved.Status)
}

func TestReconcileService_DetectsViolationsWithoutDuplicates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	order := uploadedOrder(t, "ORD-2", "r-2")
	order.Priority = true
	require.NoError(t, f.orders.Save(ctx, order))

	// Expedited order shipped via ground: both carrier and service diverge
	f.platform.remote = []integration.RemoteOrder{
		remoteOrder("ORD-2", "r-2", integration.RemoteStatusAwaitingShipment, time.Now().Add(-time.Minute)),
	}
	result, err := f.service.RunReconcilePass(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Violations)

	// Second observation refreshes the open rows instead of duplicating them
	f.platform.remote = []integration.RemoteOrder{
		remoteOrder("ORD-2", "r-2", integration.RemoteStatusAwaitingShipment, time.Now()),
	}
	result, err = f.service.RunReconcilePass(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Violations)

	count, err := f.violations.Count(ctx, shared.DefaultFilter())
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestReconcileService_WatermarkDoesNotAdvanceOnFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	start := time.Now().Add(-24 * time.Hour)
	wm, err := integration.NewSyncWatermark(WorkflowReconcile, start)
	require.NoError(t, err)
	require.NoError(t, f.watermarks.Save(ctx, wm))

	order := uploadedOrder(t, "ORD-3", "r-3")
	require.NoError(t, f.orders.Save(ctx, order))
	f.orders.saveErrBy["ORD-3"] = errors.New("write timeout")

	f.platform.remote = []integration.RemoteOrder{
		remoteOrder("ORD-3", "r-3", integration.RemoteStatusShipped, time.Now()),
	}

	result, err := f.service.RunReconcilePass(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Failed)

	saved, err := f.watermarks.FindByWorkflow(ctx, WorkflowReconcile)
	require.NoError(t, err)
	assert.True(t, saved.LastProcessedAt.Equal(start), "watermark must hold on a dirty batch")
}

func TestReconcileService_ListFailureAbortsCycle(t *testing.T) {
	f := newFixture(t)
	f.platform.listErr = integration.ErrPlatformUnavailable

	_, err := f.service.RunReconcilePass(context.Background())
	require.Error(t, err)

	_, err = f.watermarks.FindByWorkflow(context.Background(), WorkflowReconcile)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

type busyLocker struct{}

func (busyLocker) WithLock(_ context.Context, _ string, _ func(context.Context) error) error {
	return integration.ErrWorkflowBusy
}

func TestReconcileService_SkipsWhenPreviousCycleRunning(t *testing.T) {
	f := newFixture(t)
	f.service.SetWorkflowLocker(busyLocker{})

	result, err := f.service.RunReconcilePass(context.Background())

	require.NoError(t, err)
	assert.True(t, result.Skipped)
	assert.Equal(t, 0, result.Processed)
}

func TestReconcileService_IgnoresStaleRowForTerminalOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	order := uploadedOrder(t, "ORD-4", "r-4")
	require.NoError(t, order.MirrorRemote("r-4", ordering.OrderStatusShipped))
	require.NoError(t, f.orders.Save(ctx, order))

	f.platform.remote = []integration.RemoteOrder{
		remoteOrder("ORD-4", "r-4", integration.RemoteStatusAwaitingShipment, time.Now()),
	}

	result, err := f.service.RunReconcilePass(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Failed)

	saved, err := f.orders.FindByOrderNumber(ctx, "ORD-4")
	require.NoError(t, err)
	assert.Equal(t, ordering.OrderStatusShipped, saved.Status)
}

func TestReconcileService_ResolveViolation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	violation, err := shipping.NewViolation(uuid.New(), shipping.ViolationKindCarrierMismatch, "ups", "usps")
	require.NoError(t, err)
	require.NoError(t, f.violations.Save(ctx, violation))

	resolved, err := f.service.ResolveViolation(ctx, violation.ID)
	require.NoError(t, err)
	assert.True(t, resolved.IsResolved())

	_, err = f.service.ResolveViolation(ctx, violation.ID)
	assert.ErrorIs(t, err, shared.ErrInvalidState)
}
