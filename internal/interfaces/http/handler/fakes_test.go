package handler

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fulfillment/backend/internal/domain/catalog"
	"github.com/fulfillment/backend/internal/domain/flags"
	"github.com/fulfillment/backend/internal/domain/integration"
	"github.com/fulfillment/backend/internal/domain/ordering"
	"github.com/fulfillment/backend/internal/domain/shared"
	"github.com/fulfillment/backend/internal/domain/shipping"
)

// In-memory fakes shared by the handler tests. They implement just enough
// of the repository contracts to drive the application services.

type fakeOrderRepo struct {
	mu     sync.Mutex
	orders map[uuid.UUID]*ordering.Order
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: make(map[uuid.UUID]*ordering.Order)}
}

func (r *fakeOrderRepo) FindByID(_ context.Context, id uuid.UUID) (*ordering.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := *order
	return &copied, nil
}

func (r *fakeOrderRepo) FindByOrderNumber(_ context.Context, orderNumber string) (*ordering.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, order := range r.orders {
		if order.OrderNumber == orderNumber {
			copied := *order
			return &copied, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *fakeOrderRepo) FindByStatus(_ context.Context, status ordering.OrderStatus, _ shared.Filter) ([]ordering.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []ordering.Order
	for _, order := range r.orders {
		if order.Status == status {
			out = append(out, *order)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].IntakeDate.Before(out[j].IntakeDate) })
	return out, nil
}

func (r *fakeOrderRepo) FindAll(_ context.Context, filter shared.Filter) ([]ordering.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []ordering.Order
	for _, order := range r.orders {
		if status, ok := filter.Filters["status"].(string); ok && string(order.Status) != status {
			continue
		}
		out = append(out, *order)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrderNumber < out[j].OrderNumber })
	return out, nil
}

func (r *fakeOrderRepo) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	orders, err := r.FindAll(ctx, filter)
	if err != nil {
		return 0, err
	}
	return int64(len(orders)), nil
}

func (r *fakeOrderRepo) Save(_ context.Context, order *ordering.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *order
	r.orders[order.ID] = &copied
	return nil
}

type fakePlatform struct {
	mu        sync.Mutex
	remote    []integration.RemoteOrder
	cancelled []string
	createErr error
	cancelErr error
	listErr   error
}

func (p *fakePlatform) ListOrders(_ context.Context, req *integration.OrderListRequest) (*integration.OrderListPage, error) {
	if p.listErr != nil {
		return nil, p.listErr
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return &integration.OrderListPage{
		Orders:     append([]integration.RemoteOrder(nil), p.remote...),
		TotalCount: int64(len(p.remote)),
	}, nil
}

func (p *fakePlatform) CreateOrUpdateOrder(_ context.Context, payload *integration.OrderPayload) (*integration.RemoteOrder, error) {
	if p.createErr != nil {
		return nil, p.createErr
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	remote := integration.RemoteOrder{
		RemoteID:    strconv.Itoa(9000 + len(p.remote)),
		OrderNumber: payload.OrderNumber,
		Status:      integration.RemoteStatusAwaitingShipment,
		ModifiedAt:  time.Now(),
	}
	p.remote = append(p.remote, remote)
	return &remote, nil
}

func (p *fakePlatform) CancelOrder(_ context.Context, remoteID string) error {
	if p.cancelErr != nil {
		return p.cancelErr
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cancelled = append(p.cancelled, remoteID)
	return nil
}

type fakeBundleRepo struct {
	mu      sync.Mutex
	bundles map[string]*catalog.BundleDefinition
}

func newFakeBundleRepo() *fakeBundleRepo {
	return &fakeBundleRepo{bundles: make(map[string]*catalog.BundleDefinition)}
}

func (r *fakeBundleRepo) FindByCode(_ context.Context, bundleCode string) (*catalog.BundleDefinition, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	def, ok := r.bundles[bundleCode]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := *def
	return &copied, nil
}

func (r *fakeBundleRepo) FindAll(_ context.Context, _ shared.Filter) ([]catalog.BundleDefinition, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]catalog.BundleDefinition, 0, len(r.bundles))
	for _, def := range r.bundles {
		out = append(out, *def)
	}
	return out, nil
}

func (r *fakeBundleRepo) Save(_ context.Context, def *catalog.BundleDefinition) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *def
	r.bundles[def.BundleCode] = &copied
	return nil
}

func (r *fakeBundleRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for code, def := range r.bundles {
		if def.ID == id {
			delete(r.bundles, code)
			return nil
		}
	}
	return shared.ErrNotFound
}

type fakeLotResolver struct {
	mu   sync.Mutex
	lots map[string]string
}

func newFakeLotResolver() *fakeLotResolver {
	return &fakeLotResolver{lots: make(map[string]string)}
}

func (r *fakeLotResolver) Resolve(_ context.Context, baseCode string) (string, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	lot, ok := r.lots[baseCode]
	return lot, ok, nil
}

type fakeViolationRepo struct {
	mu         sync.Mutex
	violations map[uuid.UUID]*shipping.Violation
}

func newFakeViolationRepo() *fakeViolationRepo {
	return &fakeViolationRepo{violations: make(map[uuid.UUID]*shipping.Violation)}
}

func (r *fakeViolationRepo) FindByID(_ context.Context, id uuid.UUID) (*shipping.Violation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	violation, ok := r.violations[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := *violation
	return &copied, nil
}

func (r *fakeViolationRepo) FindOpenByOrderAndKind(_ context.Context, orderID uuid.UUID, kind shipping.ViolationKind) (*shipping.Violation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, violation := range r.violations {
		if violation.OrderID == orderID && violation.Kind == kind && !violation.IsResolved() {
			copied := *violation
			return &copied, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *fakeViolationRepo) FindAll(_ context.Context, filter shared.Filter) ([]shipping.Violation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []shipping.Violation
	for _, violation := range r.violations {
		if open, ok := filter.Filters["open"].(bool); ok && violation.IsResolved() == open {
			continue
		}
		if orderID, ok := filter.Filters["order_id"].(uuid.UUID); ok && violation.OrderID != orderID {
			continue
		}
		out = append(out, *violation)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DetectedAt.After(out[j].DetectedAt) })
	return out, nil
}

func (r *fakeViolationRepo) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	violations, err := r.FindAll(ctx, filter)
	if err != nil {
		return 0, err
	}
	return int64(len(violations)), nil
}

func (r *fakeViolationRepo) Save(_ context.Context, violation *shipping.Violation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *violation
	r.violations[violation.ID] = &copied
	return nil
}

type fakeWatermarkRepo struct {
	mu         sync.Mutex
	watermarks map[string]*integration.SyncWatermark
}

func newFakeWatermarkRepo() *fakeWatermarkRepo {
	return &fakeWatermarkRepo{watermarks: make(map[string]*integration.SyncWatermark)}
}

func (r *fakeWatermarkRepo) FindByWorkflow(_ context.Context, workflow string) (*integration.SyncWatermark, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	watermark, ok := r.watermarks[workflow]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := *watermark
	return &copied, nil
}

func (r *fakeWatermarkRepo) Save(_ context.Context, watermark *integration.SyncWatermark) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *watermark
	r.watermarks[watermark.Workflow] = &copied
	return nil
}

type fakeFlagRepo struct {
	mu    sync.Mutex
	flags map[string]*flags.Flag
	err   error
}

func newFakeFlagRepo() *fakeFlagRepo {
	return &fakeFlagRepo{flags: make(map[string]*flags.Flag)}
}

func (r *fakeFlagRepo) FindByKey(_ context.Context, key string) (*flags.Flag, error) {
	if r.err != nil {
		return nil, r.err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	flag, ok := r.flags[key]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := *flag
	return &copied, nil
}

func (r *fakeFlagRepo) FindAll(_ context.Context) ([]flags.Flag, error) {
	if r.err != nil {
		return nil, r.err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]flags.Flag, 0, len(r.flags))
	for _, flag := range r.flags {
		out = append(out, *flag)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (r *fakeFlagRepo) Save(_ context.Context, flag *flags.Flag) error {
	if r.err != nil {
		return r.err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *flag
	r.flags[flag.Key] = &copied
	return nil
}
