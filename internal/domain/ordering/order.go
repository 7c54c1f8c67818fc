package ordering

import (
	"time"

	"github.com/fulfillment/backend/internal/domain/shared"
	"github.com/fulfillment/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus represents the lifecycle status of an order
type OrderStatus string

const (
	// OrderStatusPending indicates the order is newly intaken, not yet uploaded
	OrderStatusPending OrderStatus = "PENDING"
	// OrderStatusAwaitingShipment indicates the order was accepted by the
	// remote shipping system and awaits shipment
	OrderStatusAwaitingShipment OrderStatus = "AWAITING_SHIPMENT"
	// OrderStatusShipped indicates the order has shipped (terminal)
	OrderStatusShipped OrderStatus = "SHIPPED"
	// OrderStatusCancelled indicates the order was cancelled (terminal)
	OrderStatusCancelled OrderStatus = "CANCELLED"
	// OrderStatusFailed indicates an upload attempt errored; eligible for manual retry
	OrderStatusFailed OrderStatus = "FAILED"
	// OrderStatusOnHold indicates a remote-side hold observed via reconciliation
	OrderStatusOnHold OrderStatus = "ON_HOLD"
	// OrderStatusAwaitingPayment indicates a remote-side pre-shipment payment hold
	OrderStatusAwaitingPayment OrderStatus = "AWAITING_PAYMENT"
	// OrderStatusSyncedManual indicates the order was discovered remotely
	// without local origin and backfilled
	OrderStatusSyncedManual OrderStatus = "SYNCED_MANUAL"
)

// IsValid checks if the status is a valid OrderStatus
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPending, OrderStatusAwaitingShipment, OrderStatusShipped,
		OrderStatusCancelled, OrderStatusFailed, OrderStatusOnHold,
		OrderStatusAwaitingPayment, OrderStatusSyncedManual:
		return true
	}
	return false
}

// String returns the string representation of OrderStatus
func (s OrderStatus) String() string {
	return string(s)
}

// IsTerminal returns true for states reached only via reconciliation that
// end the order's lifecycle
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusShipped || s == OrderStatusCancelled
}

// IsRemoteDriven returns true for states that only the reconciler may
// assign; local code must never set them client-side
func (s OrderStatus) IsRemoteDriven() bool {
	switch s {
	case OrderStatusShipped, OrderStatusCancelled, OrderStatusOnHold, OrderStatusAwaitingPayment:
		return true
	}
	return false
}

// OrderLineItem is a line item as given by intake. ProductCode may be a
// bundle code; it is rewritten only by lot resolution, never otherwise
// mutated once the order has left PENDING.
type OrderLineItem struct {
	ID          uuid.UUID
	OrderID     uuid.UUID
	ProductCode string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewOrderLineItem creates a new line item for an order
func NewOrderLineItem(orderID uuid.UUID, productCode string, quantity, unitPrice decimal.Decimal) (*OrderLineItem, error) {
	if productCode == "" {
		return nil, shared.NewDomainError("INVALID_PRODUCT_CODE", "Product code cannot be empty")
	}
	if quantity.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if unitPrice.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Unit price cannot be negative")
	}
	now := time.Now()
	return &OrderLineItem{
		ID:          uuid.New(),
		OrderID:     orderID,
		ProductCode: productCode,
		Quantity:    quantity,
		UnitPrice:   unitPrice,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// Order is the aggregate root for a fulfillment order. The order number is
// caller-assigned and globally unique in local storage; an order maps to at
// most one remote id.
type Order struct {
	shared.BaseEntity
	// OrderNumber is the external-facing, caller-assigned order number
	OrderNumber string
	// IntakeDate is when the order entered the intake feed
	IntakeDate time.Time
	Status     OrderStatus
	// RemoteID is the id assigned by the remote shipping system, empty
	// until uploaded or mirrored from a remote duplicate
	RemoteID string
	ShipTo   valueobject.Address
	// CarrierCode and ServiceCode are the actual carrier/service observed
	// on the order (set locally at intake, overwritten by reconciliation)
	CarrierCode string
	ServiceCode string
	// Priority marks orders whose customer classification requires
	// expedited service
	Priority bool
	// FailureReason is set when Status is FAILED
	FailureReason string
	Items         []OrderLineItem
}

// NewOrder creates a new pending order from an intake record
func NewOrder(orderNumber string, intakeDate time.Time, shipTo valueobject.Address) (*Order, error) {
	if orderNumber == "" {
		return nil, shared.NewDomainError("INVALID_ORDER_NUMBER", "Order number cannot be empty")
	}
	if len(orderNumber) > 50 {
		return nil, shared.NewDomainError("INVALID_ORDER_NUMBER", "Order number cannot exceed 50 characters")
	}
	if intakeDate.IsZero() {
		intakeDate = time.Now()
	}
	return &Order{
		BaseEntity:  shared.NewBaseEntity(),
		OrderNumber: orderNumber,
		IntakeDate:  intakeDate,
		Status:      OrderStatusPending,
		ShipTo:      shipTo,
	}, nil
}

// AddItem adds a line item to the order. Items can only be added while the
// order is pending.
func (o *Order) AddItem(productCode string, quantity, unitPrice decimal.Decimal) error {
	if o.Status != OrderStatusPending {
		return shared.ErrInvalidState
	}
	item, err := NewOrderLineItem(o.ID, productCode, quantity, unitPrice)
	if err != nil {
		return err
	}
	o.Items = append(o.Items, *item)
	o.Touch()
	return nil
}

// CanTransitionTo checks whether the status can transition to the target.
// Remote-driven states are reachable from any non-terminal state; the
// reconciler is the only writer that may apply them.
func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	if s.IsTerminal() {
		return false
	}
	if target.IsRemoteDriven() {
		return true
	}
	switch s {
	case OrderStatusPending:
		return target == OrderStatusAwaitingShipment || target == OrderStatusFailed
	case OrderStatusFailed:
		return target == OrderStatusPending
	case OrderStatusOnHold, OrderStatusAwaitingPayment, OrderStatusSyncedManual:
		return target == OrderStatusAwaitingShipment
	}
	return false
}

// MarkUploaded transitions the order to AWAITING_SHIPMENT after a
// successful upload, recording the remote id linkage
func (o *Order) MarkUploaded(remoteID string) error {
	if !o.Status.CanTransitionTo(OrderStatusAwaitingShipment) {
		return shared.ErrInvalidState
	}
	o.Status = OrderStatusAwaitingShipment
	o.RemoteID = remoteID
	o.FailureReason = ""
	o.Touch()
	return nil
}

// MarkFailed transitions the order to FAILED with a reason
func (o *Order) MarkFailed(reason string) error {
	if !o.Status.CanTransitionTo(OrderStatusFailed) {
		return shared.ErrInvalidState
	}
	o.Status = OrderStatusFailed
	o.FailureReason = reason
	o.Touch()
	return nil
}

// Retry re-enqueues a failed order as pending. This is the only way back
// from FAILED and is always an explicit manual operation.
func (o *Order) Retry() error {
	if o.Status != OrderStatusFailed {
		return shared.ErrInvalidState
	}
	o.Status = OrderStatusPending
	o.FailureReason = ""
	o.Touch()
	return nil
}

// MirrorRemote applies a remote-observed status and links the remote id.
// Only the reconciler and the duplicate-skip path call this; it accepts any
// remote-driven target from a non-terminal state and no-ops when the status
// is unchanged.
func (o *Order) MirrorRemote(remoteID string, status OrderStatus) error {
	if !status.IsRemoteDriven() && status != OrderStatusAwaitingShipment {
		return shared.ErrInvalidState
	}
	if o.RemoteID != "" && remoteID != "" && o.RemoteID != remoteID {
		return shared.NewDomainError("REMOTE_ID_CONFLICT", "Order is already linked to a different remote id")
	}
	if remoteID != "" {
		o.RemoteID = remoteID
	}
	if o.Status == status {
		o.Touch()
		return nil
	}
	if !o.Status.CanTransitionTo(status) {
		return shared.ErrInvalidState
	}
	o.Status = status
	o.Touch()
	return nil
}

// SetActualShipping records the carrier/service observed on the remote order
func (o *Order) SetActualShipping(carrierCode, serviceCode string) {
	o.CarrierCode = carrierCode
	o.ServiceCode = serviceCode
	o.Touch()
}

// BackfillFromRemote creates a local order for one discovered in the remote
// system without local origin
func BackfillFromRemote(orderNumber, remoteID string, status OrderStatus, shipTo valueobject.Address) (*Order, error) {
	order, err := NewOrder(orderNumber, time.Now(), shipTo)
	if err != nil {
		return nil, err
	}
	order.Status = OrderStatusSyncedManual
	order.RemoteID = remoteID
	// A backfilled order keeps the SYNCED_MANUAL marker while the remote
	// side is pre-shipment; holds and terminal states apply immediately.
	if status.IsRemoteDriven() {
		order.Status = status
	}
	return order, nil
}
