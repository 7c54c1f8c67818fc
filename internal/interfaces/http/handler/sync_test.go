package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	orderingapp "github.com/fulfillment/backend/internal/application/ordering"
	reconcileapp "github.com/fulfillment/backend/internal/application/reconcile"
	"github.com/fulfillment/backend/internal/domain/ordering"
	"github.com/fulfillment/backend/internal/domain/shipping"
	"github.com/fulfillment/backend/internal/interfaces/http/dto"
)

func setupSyncRouter(t *testing.T) (*gin.Engine, *fakeOrderRepo, *fakePlatform) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	orders := newFakeOrderRepo()
	platform := &fakePlatform{}

	uploader, err := orderingapp.NewUploadService(
		orders,
		newFakeBundleRepo(),
		newFakeLotResolver(),
		platform,
		orderingapp.DefaultUploadServiceConfig(),
		nil,
	)
	require.NoError(t, err)

	reconciler, err := reconcileapp.NewService(
		orders,
		platform,
		newFakeWatermarkRepo(),
		newFakeViolationRepo(),
		shipping.DefaultRuleSet(),
		reconcileapp.DefaultServiceConfig(),
		nil,
	)
	require.NoError(t, err)

	engine := gin.New()
	api := engine.Group("/api/v1")
	NewSyncHandler(uploader, reconciler).RegisterRoutes(api)
	return engine, orders, platform
}

func TestSyncHandler_RunUpload(t *testing.T) {
	engine, orders, platform := setupSyncRouter(t)
	storedOrder(t, orders, "ORD-1001", ordering.OrderStatusPending)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/sync/upload/run", nil)
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, float64(1), data["total"])
	assert.Equal(t, float64(1), data["uploaded"])
	assert.Equal(t, float64(0), data["failed"])

	require.Len(t, platform.remote, 1)
	assert.Equal(t, "ORD-1001", platform.remote[0].OrderNumber)
}

func TestSyncHandler_Watermark_NotFoundBeforeFirstPass(t *testing.T) {
	engine, _, _ := setupSyncRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/sync/watermark", nil)
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSyncHandler_RunReconcile_AdvancesWatermark(t *testing.T) {
	engine, orders, _ := setupSyncRouter(t)
	storedOrder(t, orders, "ORD-1001", ordering.OrderStatusPending)

	// Upload first so the remote side has something to reconcile against.
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/sync/upload/run", nil)
	engine.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/v1/sync/reconcile/run", nil)
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, false, data["skipped"])
	assert.Equal(t, float64(1), data["processed"])

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/v1/sync/watermark", nil)
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data = resp.Data.(map[string]interface{})
	assert.NotEmpty(t, data["workflow"])
	assert.NotEmpty(t, data["last_processed_at"])
}
