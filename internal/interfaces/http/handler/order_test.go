package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	orderingapp "github.com/fulfillment/backend/internal/application/ordering"
	"github.com/fulfillment/backend/internal/domain/integration"
	"github.com/fulfillment/backend/internal/domain/ordering"
	"github.com/fulfillment/backend/internal/domain/shared/valueobject"
	"github.com/fulfillment/backend/internal/interfaces/http/dto"
)

func setupOrderRouter(t *testing.T) (*gin.Engine, *fakeOrderRepo, *fakePlatform) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo := newFakeOrderRepo()
	platform := &fakePlatform{}
	service := orderingapp.NewOrderService(repo, platform, nil)

	engine := gin.New()
	api := engine.Group("/api/v1")
	NewOrderHandler(service).RegisterRoutes(api)
	return engine, repo, platform
}

func intakeBody(orderNumber string) string {
	return `{
		"order_number": "` + orderNumber + `",
		"ship_to": {
			"name": "Dana Reeves",
			"street1": "400 Commerce Dr",
			"city": "Columbus",
			"state": "OH",
			"postal_code": "43004",
			"country_code": "US"
		},
		"carrier_code": "ups",
		"service_code": "ups_ground",
		"items": [
			{"product_code": "SKU-17612", "quantity": "2", "unit_price": "19.99"}
		]
	}`
}

func storedOrder(t *testing.T, repo *fakeOrderRepo, orderNumber string, status ordering.OrderStatus) *ordering.Order {
	t.Helper()
	order, err := ordering.NewOrder(orderNumber, time.Now(), valueobject.Address{
		Name:        "Dana Reeves",
		Street1:     "400 Commerce Dr",
		City:        "Columbus",
		State:       "OH",
		PostalCode:  "43004",
		CountryCode: "US",
	})
	require.NoError(t, err)
	item, err := ordering.NewOrderLineItem(order.ID, "SKU-17612", decimal.NewFromInt(2), decimal.NewFromFloat(19.99))
	require.NoError(t, err)
	order.Items = []ordering.OrderLineItem{*item}
	order.Status = status
	require.NoError(t, repo.Save(context.Background(), order))
	return order
}

func TestOrderHandler_Intake(t *testing.T) {
	engine, repo, _ := setupOrderRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(intakeBody("ORD-1001")))
	req.Header.Set("Content-Type", "application/json")
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)

	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "ORD-1001", data["order_number"])
	assert.Equal(t, "PENDING", data["status"])
	assert.Len(t, data["items"], 1)

	stored, err := repo.FindByOrderNumber(context.Background(), "ORD-1001")
	require.NoError(t, err)
	assert.Equal(t, ordering.OrderStatusPending, stored.Status)
}

func TestOrderHandler_Intake_Duplicate(t *testing.T) {
	engine, repo, _ := setupOrderRouter(t)
	storedOrder(t, repo, "ORD-1001", ordering.OrderStatusPending)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(intakeBody("ORD-1001")))
	req.Header.Set("Content-Type", "application/json")
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, dto.ErrCodeAlreadyExists, resp.Error.Code)
}

func TestOrderHandler_Intake_MissingItems(t *testing.T) {
	engine, _, _ := setupOrderRouter(t)

	body := `{"order_number": "ORD-1002", "ship_to": {"name": "Dana Reeves", "street1": "400 Commerce Dr", "city": "Columbus", "postal_code": "43004", "country_code": "US"}, "items": []}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOrderHandler_Get(t *testing.T) {
	engine, repo, _ := setupOrderRouter(t)
	storedOrder(t, repo, "ORD-1001", ordering.OrderStatusPending)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/ORD-1001", nil)
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "ORD-1001", data["order_number"])
}

func TestOrderHandler_Get_NotFound(t *testing.T) {
	engine, _, _ := setupOrderRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/ORD-MISSING", nil)
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, dto.ErrCodeNotFound, resp.Error.Code)
}

func TestOrderHandler_List_StatusFilter(t *testing.T) {
	engine, repo, _ := setupOrderRouter(t)
	storedOrder(t, repo, "ORD-1001", ordering.OrderStatusPending)
	storedOrder(t, repo, "ORD-1002", ordering.OrderStatusFailed)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders?status=FAILED", nil)
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Meta)
	assert.Equal(t, int64(1), resp.Meta.Total)
	assert.Equal(t, 1, resp.Meta.Page)
	assert.Equal(t, 20, resp.Meta.PageSize)

	orders := resp.Data.([]interface{})
	require.Len(t, orders, 1)
	assert.Equal(t, "ORD-1002", orders[0].(map[string]interface{})["order_number"])
}

func TestOrderHandler_List_RejectsUnknownStatus(t *testing.T) {
	engine, _, _ := setupOrderRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders?status=bogus", nil)
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOrderHandler_Retry(t *testing.T) {
	engine, repo, _ := setupOrderRouter(t)
	order := storedOrder(t, repo, "ORD-1001", ordering.OrderStatusFailed)
	order.FailureReason = "bundle not found"
	require.NoError(t, repo.Save(context.Background(), order))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/ORD-1001/retry", nil)
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	stored, err := repo.FindByOrderNumber(context.Background(), "ORD-1001")
	require.NoError(t, err)
	assert.Equal(t, ordering.OrderStatusPending, stored.Status)
	assert.Empty(t, stored.FailureReason)
}

func TestOrderHandler_Retry_InvalidState(t *testing.T) {
	engine, repo, _ := setupOrderRouter(t)
	storedOrder(t, repo, "ORD-1001", ordering.OrderStatusShipped)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/ORD-1001/retry", nil)
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, dto.ErrCodeInvalidState, resp.Error.Code)
}

func TestOrderHandler_Cancel_Remote(t *testing.T) {
	engine, repo, platform := setupOrderRouter(t)
	order := storedOrder(t, repo, "ORD-1001", ordering.OrderStatusPending)
	require.NoError(t, order.MarkUploaded("r-42"))
	require.NoError(t, repo.Save(context.Background(), order))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/ORD-1001/cancel", nil)
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, []string{"r-42"}, platform.cancelled)
}

func TestOrderHandler_Cancel_PlatformDown(t *testing.T) {
	engine, repo, platform := setupOrderRouter(t)
	order := storedOrder(t, repo, "ORD-1001", ordering.OrderStatusPending)
	require.NoError(t, order.MarkUploaded("r-42"))
	require.NoError(t, repo.Save(context.Background(), order))
	platform.cancelErr = integration.ErrPlatformUnavailable

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/ORD-1001/cancel", nil)
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadGateway, w.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, dto.ErrCodeUpstreamUnavailable, resp.Error.Code)
}
