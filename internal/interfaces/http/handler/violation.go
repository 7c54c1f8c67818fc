package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	reconcileapp "github.com/fulfillment/backend/internal/application/reconcile"
	"github.com/fulfillment/backend/internal/domain/shared"
	"github.com/fulfillment/backend/internal/domain/shipping"
	"github.com/fulfillment/backend/internal/interfaces/http/dto"
)

// ViolationHandler handles shipping rule violation queries and resolution
type ViolationHandler struct {
	BaseHandler
	reconciler *reconcileapp.Service
}

// NewViolationHandler creates a new ViolationHandler
func NewViolationHandler(reconciler *reconcileapp.Service) *ViolationHandler {
	return &ViolationHandler{reconciler: reconciler}
}

// ViolationListRequest represents the query parameters for listing violations
type ViolationListRequest struct {
	dto.ListRequest
	OrderID string `form:"order_id" binding:"omitempty,uuid"`
	Kind    string `form:"kind" binding:"omitempty,oneof=CARRIER_MISMATCH SERVICE_MISMATCH"`
	Open    *bool  `form:"open"`
}

// ViolationResponse represents a shipping rule violation in API responses
type ViolationResponse struct {
	ID         string     `json:"id"`
	OrderID    string     `json:"order_id"`
	Kind       string     `json:"kind"`
	Expected   string     `json:"expected"`
	Actual     string     `json:"actual"`
	DetectedAt time.Time  `json:"detected_at"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
}

func toViolationResponse(v *shipping.Violation) ViolationResponse {
	return ViolationResponse{
		ID:         v.ID.String(),
		OrderID:    v.OrderID.String(),
		Kind:       string(v.Kind),
		Expected:   v.Expected,
		Actual:     v.Actual,
		DetectedAt: v.DetectedAt,
		ResolvedAt: v.ResolvedAt,
	}
}

// List retrieves a paginated list of violations with optional filtering
func (h *ViolationHandler) List(c *gin.Context) {
	var req ViolationListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BindingError(c, err)
		return
	}
	req.ListRequest = req.ListRequest.WithDefaults()

	filters := make(map[string]interface{})
	if req.OrderID != "" {
		orderID, err := uuid.Parse(req.OrderID)
		if err != nil {
			h.BadRequest(c, "Invalid order ID")
			return
		}
		filters["order_id"] = orderID
	}
	if req.Kind != "" {
		filters["kind"] = req.Kind
	}
	if req.Open != nil {
		filters["open"] = *req.Open
	}

	filter := shared.Filter{
		Page:     req.Page,
		PageSize: req.PageSize,
		OrderBy:  req.OrderBy,
		OrderDir: req.OrderDir,
		Filters:  filters,
	}

	violations, total, err := h.reconciler.ListViolations(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	responses := make([]ViolationResponse, 0, len(violations))
	for i := range violations {
		responses = append(responses, toViolationResponse(&violations[i]))
	}

	h.SuccessWithMeta(c, responses, total, req.Page, req.PageSize)
}

// Resolve closes an open violation
func (h *ViolationHandler) Resolve(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid violation ID")
		return
	}

	violation, err := h.reconciler.ResolveViolation(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toViolationResponse(violation))
}

// RegisterRoutes registers violation routes
func (h *ViolationHandler) RegisterRoutes(rg *gin.RouterGroup) {
	violations := rg.Group("/violations")
	{
		violations.GET("", h.List)
		violations.POST("/:id/resolve", h.Resolve)
	}
}
