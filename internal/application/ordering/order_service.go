package ordering

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/fulfillment/backend/internal/domain/integration"
	"github.com/fulfillment/backend/internal/domain/ordering"
	"github.com/fulfillment/backend/internal/domain/shared"
	"github.com/fulfillment/backend/internal/domain/shared/valueobject"
)

// IntakeItem is one line item of an intake request
type IntakeItem struct {
	ProductCode string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
}

// IntakeOrderRequest carries a new order from the intake feed
type IntakeOrderRequest struct {
	OrderNumber string
	IntakeDate  time.Time
	ShipTo      valueobject.Address
	CarrierCode string
	ServiceCode string
	Priority    bool
	Items       []IntakeItem
}

// OrderService handles order intake and the manual operations on orders:
// retrying failed uploads and cancelling orders against the remote platform.
type OrderService struct {
	orders   ordering.OrderRepository
	platform integration.ShippingPlatform
	logger   *zap.Logger
}

// NewOrderService creates a new order service
func NewOrderService(orders ordering.OrderRepository, platform integration.ShippingPlatform, logger *zap.Logger) *OrderService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrderService{
		orders:   orders,
		platform: platform,
		logger:   logger,
	}
}

// IntakeOrder records a new pending order. Order numbers are caller-assigned
// and unique; a second intake under an existing number is rejected.
func (s *OrderService) IntakeOrder(ctx context.Context, req IntakeOrderRequest) (*ordering.Order, error) {
	if _, err := s.orders.FindByOrderNumber(ctx, req.OrderNumber); err == nil {
		return nil, shared.NewDomainError("ORDER_EXISTS", fmt.Sprintf("Order %s already exists", req.OrderNumber))
	} else if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	order, err := ordering.NewOrder(req.OrderNumber, req.IntakeDate, req.ShipTo)
	if err != nil {
		return nil, err
	}
	order.CarrierCode = req.CarrierCode
	order.ServiceCode = req.ServiceCode
	order.Priority = req.Priority

	if len(req.Items) == 0 {
		return nil, shared.NewDomainError("INVALID_ORDER", "Order must have at least one item")
	}
	for _, item := range req.Items {
		if err := order.AddItem(item.ProductCode, item.Quantity, item.UnitPrice); err != nil {
			return nil, err
		}
	}

	if err := s.orders.Save(ctx, order); err != nil {
		return nil, err
	}

	s.logger.Info("Order intaken",
		zap.String("order_number", order.OrderNumber),
		zap.Int("item_count", len(order.Items)),
	)
	return order, nil
}

// GetOrder returns the order with the given number
func (s *OrderService) GetOrder(ctx context.Context, orderNumber string) (*ordering.Order, error) {
	return s.orders.FindByOrderNumber(ctx, orderNumber)
}

// ListOrders returns a page of orders with the total count
func (s *OrderService) ListOrders(ctx context.Context, filter shared.Filter) ([]ordering.Order, int64, error) {
	orders, err := s.orders.FindAll(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.orders.Count(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// RetryOrder re-enqueues a failed order for the next upload pass. Retrying is
// always an explicit manual operation.
func (s *OrderService) RetryOrder(ctx context.Context, orderNumber string) (*ordering.Order, error) {
	order, err := s.orders.FindByOrderNumber(ctx, orderNumber)
	if err != nil {
		return nil, err
	}
	if err := order.Retry(); err != nil {
		return nil, shared.NewDomainError("INVALID_RETRY", fmt.Sprintf("Order %s is not in a retryable state", orderNumber))
	}
	if err := s.orders.Save(ctx, order); err != nil {
		return nil, err
	}
	s.logger.Info("Order re-enqueued for upload", zap.String("order_number", orderNumber))
	return order, nil
}

// CancelOrder requests cancellation of an order on the remote platform. The
// local status is not touched here; the reconciler mirrors the cancellation
// back once the remote side reports it.
func (s *OrderService) CancelOrder(ctx context.Context, orderNumber string) error {
	order, err := s.orders.FindByOrderNumber(ctx, orderNumber)
	if err != nil {
		return err
	}
	if order.Status.IsTerminal() {
		return shared.ErrInvalidState
	}
	if order.RemoteID == "" {
		// Never uploaded: cancel locally, there is nothing to undo remotely.
		if err := order.MirrorRemote("", ordering.OrderStatusCancelled); err != nil {
			return err
		}
		return s.orders.Save(ctx, order)
	}

	if err := s.platform.CancelOrder(ctx, order.RemoteID); err != nil {
		return err
	}
	s.logger.Info("Order cancellation requested",
		zap.String("order_number", orderNumber),
		zap.String("remote_id", order.RemoteID),
	)
	return nil
}
