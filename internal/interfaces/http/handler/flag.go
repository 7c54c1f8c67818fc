package handler

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fulfillment/backend/internal/domain/flags"
	"github.com/fulfillment/backend/internal/domain/shared"
)

// FlagHandler handles workflow flag administration. Flags gate the sync
// workflows at runtime without a restart.
type FlagHandler struct {
	BaseHandler
	flags flags.Repository
}

// NewFlagHandler creates a new FlagHandler
func NewFlagHandler(repo flags.Repository) *FlagHandler {
	return &FlagHandler{flags: repo}
}

// SetFlagRequest represents the HTTP request body for setting a flag
type SetFlagRequest struct {
	Type  string `json:"type" binding:"required,oneof=boolean string"`
	Value string `json:"value" binding:"required"`
}

// FlagResponse represents a workflow flag in API responses
type FlagResponse struct {
	Key       string    `json:"key"`
	Type      string    `json:"type"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toFlagResponse(f *flags.Flag) FlagResponse {
	return FlagResponse{
		Key:       f.Key,
		Type:      string(f.Type),
		Value:     f.Value,
		UpdatedAt: f.UpdatedAt,
	}
}

// List returns all workflow flags
func (h *FlagHandler) List(c *gin.Context) {
	all, err := h.flags.FindAll(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	responses := make([]FlagResponse, 0, len(all))
	for i := range all {
		responses = append(responses, toFlagResponse(&all[i]))
	}

	h.Success(c, responses)
}

// Get returns a single flag by key
func (h *FlagHandler) Get(c *gin.Context) {
	flag, err := h.flags.FindByKey(c.Request.Context(), c.Param("key"))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toFlagResponse(flag))
}

// Set creates or updates a flag by key
func (h *FlagHandler) Set(c *gin.Context) {
	var req SetFlagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	key := c.Param("key")
	flag, err := h.flags.FindByKey(c.Request.Context(), key)
	switch {
	case err == nil:
		flag.Type = flags.FlagType(req.Type)
		flag.SetValue(req.Value)
	case errors.Is(err, shared.ErrNotFound):
		flag, err = flags.NewFlag(key, flags.FlagType(req.Type), req.Value)
		if err != nil {
			h.HandleError(c, err)
			return
		}
	default:
		h.HandleError(c, err)
		return
	}

	if err := h.flags.Save(c.Request.Context(), flag); err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toFlagResponse(flag))
}

// RegisterRoutes registers flag routes
func (h *FlagHandler) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group("/flags")
	{
		group.GET("", h.List)
		group.GET("/:key", h.Get)
		group.PUT("/:key", h.Set)
	}
}
