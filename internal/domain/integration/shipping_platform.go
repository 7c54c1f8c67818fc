package integration

import (
	"context"
	"errors"
	"time"

	"github.com/fulfillment/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// ShippingPlatform Errors
// ---------------------------------------------------------------------------

var (
	// Platform errors
	ErrPlatformNotConfigured   = errors.New("integration: platform not configured")
	ErrPlatformUnavailable     = errors.New("integration: platform temporarily unavailable")
	ErrPlatformRequestFailed   = errors.New("integration: platform request failed")
	ErrPlatformInvalidResponse = errors.New("integration: invalid platform response")
	ErrPlatformAuthFailed      = errors.New("integration: platform authentication failed")
	ErrPlatformRateLimited     = errors.New("integration: platform rate limited")

	// Order errors
	ErrOrderInvalidPayload = errors.New("integration: invalid order payload")
	ErrOrderNotFound       = errors.New("integration: remote order not found")
)

// IsTransient reports whether the error is a transient platform condition
// that is retried with backoff before the order is demoted to FAILED
func IsTransient(err error) bool {
	return errors.Is(err, ErrPlatformUnavailable) ||
		errors.Is(err, ErrPlatformRateLimited) ||
		errors.Is(err, context.DeadlineExceeded)
}

// ---------------------------------------------------------------------------
// RemoteOrderStatus
// ---------------------------------------------------------------------------

// RemoteOrderStatus is the lifecycle status of an order as reported by the
// remote shipping-management system
type RemoteOrderStatus string

const (
	RemoteStatusAwaitingPayment  RemoteOrderStatus = "awaiting_payment"
	RemoteStatusAwaitingShipment RemoteOrderStatus = "awaiting_shipment"
	RemoteStatusShipped          RemoteOrderStatus = "shipped"
	RemoteStatusOnHold           RemoteOrderStatus = "on_hold"
	RemoteStatusCancelled        RemoteOrderStatus = "cancelled"
)

// IsValid returns true if the status is valid
func (s RemoteOrderStatus) IsValid() bool {
	switch s {
	case RemoteStatusAwaitingPayment, RemoteStatusAwaitingShipment,
		RemoteStatusShipped, RemoteStatusOnHold, RemoteStatusCancelled:
		return true
	default:
		return false
	}
}

// String returns the string representation of RemoteOrderStatus
func (s RemoteOrderStatus) String() string {
	return string(s)
}

// ---------------------------------------------------------------------------
// Value Objects
// ---------------------------------------------------------------------------

// RemoteOrder represents an order as it exists in the remote shipping system
type RemoteOrder struct {
	// RemoteID is the id assigned by the remote system
	RemoteID string
	// OrderNumber is the external-facing order number (remote uniqueness is
	// keyed on order number plus product, not order number alone)
	OrderNumber string
	Status      RemoteOrderStatus
	CarrierCode string
	ServiceCode string
	ShipTo      valueobject.Address
	Items       []RemoteOrderItem
	// CreatedAt is when the order was created remotely
	CreatedAt time.Time
	// ModifiedAt is the remote modification timestamp used to bound
	// incremental polling
	ModifiedAt time.Time
}

// RemoteOrderItem is a line item on a remote order. ProductCode may carry a
// lot suffix.
type RemoteOrderItem struct {
	ProductCode string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
}

// OrderPayload is the upload-ready representation of a local order
type OrderPayload struct {
	OrderNumber string
	OrderDate   time.Time
	ShipTo      valueobject.Address
	CarrierCode string
	ServiceCode string
	Items       []OrderPayloadItem
}

// OrderPayloadItem is an upload-ready line item with the lot suffix already
// applied to the product code
type OrderPayloadItem struct {
	ProductCode string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
}

// Validate validates the payload before upload
func (p *OrderPayload) Validate() error {
	if p.OrderNumber == "" {
		return ErrOrderInvalidPayload
	}
	if len(p.Items) == 0 {
		return ErrOrderInvalidPayload
	}
	for _, item := range p.Items {
		if item.ProductCode == "" || item.Quantity.LessThanOrEqual(decimal.Zero) {
			return ErrOrderInvalidPayload
		}
	}
	return p.ShipTo.Validate()
}

// ---------------------------------------------------------------------------
// Request/Response DTOs
// ---------------------------------------------------------------------------

// OrderListRequest bounds an incremental listing of remote orders
type OrderListRequest struct {
	// ModifiedSince bounds the listing to orders modified after this time
	ModifiedSince time.Time
	// Page is the page number (1-indexed)
	Page int
	// PageSize is the number of orders per page
	PageSize int
}

// Validate normalizes the listing request
func (r *OrderListRequest) Validate() error {
	if r.ModifiedSince.IsZero() {
		return errors.New("integration: modified-since bound is required")
	}
	if r.Page < 1 {
		r.Page = 1
	}
	if r.PageSize < 1 || r.PageSize > 500 {
		r.PageSize = 100
	}
	return nil
}

// OrderListPage is one page of a remote order listing
type OrderListPage struct {
	Orders []RemoteOrder
	// TotalCount is the total number of orders matching the bound
	TotalCount int64
	// HasMore indicates if there are more pages
	HasMore bool
	// NextPage is the next page number (if HasMore is true)
	NextPage int
}

// ---------------------------------------------------------------------------
// ShippingPlatform Port Interface
// ---------------------------------------------------------------------------

// ShippingPlatform is the port to the external shipping-management system.
// Implementations retry transient failures with bounded exponential backoff.
// A CreateOrUpdateOrder result must never be assumed visible in a ListOrders
// call within the same cycle.
type ShippingPlatform interface {
	// ListOrders lists remote orders modified since the given bound,
	// paginated
	ListOrders(ctx context.Context, req *OrderListRequest) (*OrderListPage, error)

	// CreateOrUpdateOrder uploads an order; idempotent by the remote
	// system's (order number, product) key
	CreateOrUpdateOrder(ctx context.Context, payload *OrderPayload) (*RemoteOrder, error)

	// CancelOrder cancels an order by remote id
	CancelOrder(ctx context.Context, remoteID string) error
}
