package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	orderingapp "github.com/fulfillment/backend/internal/application/ordering"
	"github.com/fulfillment/backend/internal/domain/ordering"
	"github.com/fulfillment/backend/internal/domain/shared"
	"github.com/fulfillment/backend/internal/domain/shared/valueobject"
	"github.com/fulfillment/backend/internal/interfaces/http/dto"
)

// OrderHandler handles order intake and manual order operations
type OrderHandler struct {
	BaseHandler
	orders *orderingapp.OrderService
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(orders *orderingapp.OrderService) *OrderHandler {
	return &OrderHandler{orders: orders}
}

// ============================================================================
// Request/Response DTOs for HTTP layer
// ============================================================================

// AddressRequest represents a shipping address in a request body
type AddressRequest struct {
	Name        string `json:"name" binding:"required,max=200"`
	Phone       string `json:"phone,omitempty"`
	Street1     string `json:"street1" binding:"required,max=200"`
	Street2     string `json:"street2,omitempty"`
	City        string `json:"city" binding:"required,max=100"`
	State       string `json:"state,omitempty"`
	PostalCode  string `json:"postal_code" binding:"required,max=20"`
	CountryCode string `json:"country_code" binding:"required,len=2"`
	Residential bool   `json:"residential"`
}

func (r AddressRequest) toDomain() valueobject.Address {
	return valueobject.Address{
		Name:        r.Name,
		Phone:       r.Phone,
		Street1:     r.Street1,
		Street2:     r.Street2,
		City:        r.City,
		State:       r.State,
		PostalCode:  r.PostalCode,
		CountryCode: r.CountryCode,
		Residential: r.Residential,
	}
}

// IntakeItemRequest represents one line item of an intake request
type IntakeItemRequest struct {
	ProductCode string          `json:"product_code" binding:"required,max=100"`
	Quantity    decimal.Decimal `json:"quantity" binding:"required"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

// IntakeOrderRequest represents the HTTP request body for order intake
type IntakeOrderRequest struct {
	OrderNumber string              `json:"order_number" binding:"required,max=100"`
	IntakeDate  *time.Time          `json:"intake_date,omitempty"`
	ShipTo      AddressRequest      `json:"ship_to" binding:"required"`
	CarrierCode string              `json:"carrier_code,omitempty"`
	ServiceCode string              `json:"service_code,omitempty"`
	Priority    bool                `json:"priority"`
	Items       []IntakeItemRequest `json:"items" binding:"required,min=1,dive"`
}

// OrderListRequest represents the query parameters for listing orders
type OrderListRequest struct {
	dto.ListRequest
	Status       string     `form:"status" binding:"omitempty,oneof=PENDING AWAITING_SHIPMENT SHIPPED CANCELLED FAILED ON_HOLD AWAITING_PAYMENT SYNCED_MANUAL"`
	Priority     *bool      `form:"priority"`
	OrderNumber  string     `form:"order_number"`
	IntakeAfter  *time.Time `form:"intake_after" time_format:"2006-01-02T15:04:05Z07:00"`
	IntakeBefore *time.Time `form:"intake_before" time_format:"2006-01-02T15:04:05Z07:00"`
}

// OrderItemResponse represents one line item in an order response
type OrderItemResponse struct {
	ID          string          `json:"id"`
	ProductCode string          `json:"product_code"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

// OrderResponse represents an order in API responses
type OrderResponse struct {
	ID            string              `json:"id"`
	OrderNumber   string              `json:"order_number"`
	IntakeDate    time.Time           `json:"intake_date"`
	Status        string              `json:"status"`
	RemoteID      string              `json:"remote_id,omitempty"`
	ShipTo        valueobject.Address `json:"ship_to"`
	CarrierCode   string              `json:"carrier_code,omitempty"`
	ServiceCode   string              `json:"service_code,omitempty"`
	Priority      bool                `json:"priority"`
	FailureReason string              `json:"failure_reason,omitempty"`
	Items         []OrderItemResponse `json:"items"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

func toOrderResponse(order *ordering.Order) OrderResponse {
	items := make([]OrderItemResponse, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, OrderItemResponse{
			ID:          item.ID.String(),
			ProductCode: item.ProductCode,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
		})
	}
	return OrderResponse{
		ID:            order.ID.String(),
		OrderNumber:   order.OrderNumber,
		IntakeDate:    order.IntakeDate,
		Status:        order.Status.String(),
		RemoteID:      order.RemoteID,
		ShipTo:        order.ShipTo,
		CarrierCode:   order.CarrierCode,
		ServiceCode:   order.ServiceCode,
		Priority:      order.Priority,
		FailureReason: order.FailureReason,
		Items:         items,
		CreatedAt:     order.CreatedAt,
		UpdatedAt:     order.UpdatedAt,
	}
}

func toOrderResponses(orders []ordering.Order) []OrderResponse {
	responses := make([]OrderResponse, 0, len(orders))
	for i := range orders {
		responses = append(responses, toOrderResponse(&orders[i]))
	}
	return responses
}

// ============================================================================
// Handlers
// ============================================================================

// Intake records a new pending order from the intake feed
func (h *OrderHandler) Intake(c *gin.Context) {
	var req IntakeOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	intakeDate := time.Now()
	if req.IntakeDate != nil {
		intakeDate = *req.IntakeDate
	}

	items := make([]orderingapp.IntakeItem, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, orderingapp.IntakeItem{
			ProductCode: item.ProductCode,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
		})
	}

	order, err := h.orders.IntakeOrder(c.Request.Context(), orderingapp.IntakeOrderRequest{
		OrderNumber: req.OrderNumber,
		IntakeDate:  intakeDate,
		ShipTo:      req.ShipTo.toDomain(),
		CarrierCode: req.CarrierCode,
		ServiceCode: req.ServiceCode,
		Priority:    req.Priority,
		Items:       items,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, toOrderResponse(order))
}

// List retrieves a paginated list of orders with optional filtering
func (h *OrderHandler) List(c *gin.Context) {
	var req OrderListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BindingError(c, err)
		return
	}
	req.ListRequest = req.ListRequest.WithDefaults()

	filters := make(map[string]interface{})
	if req.Status != "" {
		filters["status"] = req.Status
	}
	if req.Priority != nil {
		filters["priority"] = *req.Priority
	}
	if req.OrderNumber != "" {
		filters["order_number"] = req.OrderNumber
	}
	if req.IntakeAfter != nil {
		filters["intake_after"] = *req.IntakeAfter
	}
	if req.IntakeBefore != nil {
		filters["intake_before"] = *req.IntakeBefore
	}

	filter := shared.Filter{
		Page:     req.Page,
		PageSize: req.PageSize,
		OrderBy:  req.OrderBy,
		OrderDir: req.OrderDir,
		Filters:  filters,
	}

	orders, total, err := h.orders.ListOrders(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, toOrderResponses(orders), total, req.Page, req.PageSize)
}

// Get retrieves a single order by order number
func (h *OrderHandler) Get(c *gin.Context) {
	order, err := h.orders.GetOrder(c.Request.Context(), c.Param("number"))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toOrderResponse(order))
}

// Retry re-queues a failed order for upload
func (h *OrderHandler) Retry(c *gin.Context) {
	order, err := h.orders.RetryOrder(c.Request.Context(), c.Param("number"))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toOrderResponse(order))
}

// Cancel cancels an order locally and remotely
func (h *OrderHandler) Cancel(c *gin.Context) {
	if err := h.orders.CancelOrder(c.Request.Context(), c.Param("number")); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// RegisterRoutes registers order routes
func (h *OrderHandler) RegisterRoutes(rg *gin.RouterGroup) {
	orders := rg.Group("/orders")
	{
		orders.POST("", h.Intake)
		orders.GET("", h.List)
		orders.GET("/:number", h.Get)
		orders.POST("/:number/retry", h.Retry)
		orders.POST("/:number/cancel", h.Cancel)
	}
}
