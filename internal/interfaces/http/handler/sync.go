package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	orderingapp "github.com/fulfillment/backend/internal/application/ordering"
	reconcileapp "github.com/fulfillment/backend/internal/application/reconcile"
)

// SyncHandler exposes the sync workflows for manual triggering and
// inspection. The scheduler runs the same passes on a timer; these
// endpoints exist for operators.
type SyncHandler struct {
	BaseHandler
	uploader   *orderingapp.UploadService
	reconciler *reconcileapp.Service
}

// NewSyncHandler creates a new SyncHandler
func NewSyncHandler(uploader *orderingapp.UploadService, reconciler *reconcileapp.Service) *SyncHandler {
	return &SyncHandler{
		uploader:   uploader,
		reconciler: reconciler,
	}
}

// UploadPassResponse represents the outcome of one upload pass
type UploadPassResponse struct {
	Total              int      `json:"total"`
	Uploaded           int      `json:"uploaded"`
	Skipped            int      `json:"skipped"`
	Failed             int      `json:"failed"`
	FailedOrderNumbers []string `json:"failed_order_numbers,omitempty"`
}

// ReconcilePassResponse represents the outcome of one reconcile pass
type ReconcilePassResponse struct {
	Skipped    bool `json:"skipped"`
	Processed  int  `json:"processed"`
	Mirrored   int  `json:"mirrored"`
	Backfilled int  `json:"backfilled"`
	Violations int  `json:"violations"`
	Failed     int  `json:"failed"`
}

// WatermarkResponse represents the reconciler's progress watermark
type WatermarkResponse struct {
	Workflow        string    `json:"workflow"`
	LastProcessedAt time.Time `json:"last_processed_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// RunUpload triggers one upload pass synchronously
func (h *SyncHandler) RunUpload(c *gin.Context) {
	result, err := h.uploader.RunUploadPass(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, UploadPassResponse{
		Total:              result.Total,
		Uploaded:           result.Uploaded,
		Skipped:            result.Skipped,
		Failed:             result.Failed,
		FailedOrderNumbers: result.FailedOrderNumbers,
	})
}

// RunReconcile triggers one reconcile pass synchronously
func (h *SyncHandler) RunReconcile(c *gin.Context) {
	result, err := h.reconciler.RunReconcilePass(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, ReconcilePassResponse{
		Skipped:    result.Skipped,
		Processed:  result.Processed,
		Mirrored:   result.Mirrored,
		Backfilled: result.Backfilled,
		Violations: result.Violations,
		Failed:     result.Failed,
	})
}

// Watermark returns the reconciler's current watermark
func (h *SyncHandler) Watermark(c *gin.Context) {
	watermark, err := h.reconciler.Watermark(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, WatermarkResponse{
		Workflow:        watermark.Workflow,
		LastProcessedAt: watermark.LastProcessedAt,
		UpdatedAt:       watermark.UpdatedAt,
	})
}

// RegisterRoutes registers sync routes
func (h *SyncHandler) RegisterRoutes(rg *gin.RouterGroup) {
	sync := rg.Group("/sync")
	{
		sync.POST("/upload/run", h.RunUpload)
		sync.POST("/reconcile/run", h.RunReconcile)
		sync.GET("/watermark", h.Watermark)
	}
}
