package shipstation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/fulfillment/backend/internal/domain/integration"
)

// maxResponseSize limits the response body size to prevent memory exhaustion
const maxResponseSize = 10 * 1024 * 1024 // 10MB max response

// Adapter implements the ShippingPlatform interface for ShipStation
type Adapter struct {
	config     *Config
	httpClient *http.Client
}

// NewAdapter creates a new ShipStation adapter with the given configuration
func NewAdapter(config *Config) (*Adapter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &Adapter{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}, nil
}

// ListOrders lists remote orders modified since the given bound, paginated
func (a *Adapter) ListOrders(ctx context.Context, req *integration.OrderListRequest) (*integration.OrderListPage, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("modifyDateStart", formatTime(req.ModifiedSince))
	query.Set("page", strconv.Itoa(req.Page))
	query.Set("pageSize", strconv.Itoa(req.PageSize))
	query.Set("sortBy", "ModifyDate")
	query.Set("sortDir", "ASC")

	respBody, err := a.doRequest(ctx, http.MethodGet, "/orders", query, nil)
	if err != nil {
		return nil, err
	}

	var resp listOrdersResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", integration.ErrPlatformInvalidResponse, err)
	}

	orders := make([]integration.RemoteOrder, 0, len(resp.Orders))
	for i := range resp.Orders {
		orders = append(orders, resp.Orders[i].toRemoteOrder())
	}

	page := &integration.OrderListPage{
		Orders:     orders,
		TotalCount: resp.Total,
		HasMore:    resp.Page < resp.Pages,
	}
	if page.HasMore {
		page.NextPage = resp.Page + 1
	}
	return page, nil
}

// CreateOrUpdateOrder uploads an order. ShipStation keys orders on
// (orderNumber, orderKey) so re-uploading the same payload updates in place
// rather than duplicating.
func (a *Adapter) CreateOrUpdateOrder(ctx context.Context, payload *integration.OrderPayload) (*integration.RemoteOrder, error) {
	if err := payload.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", integration.ErrOrderInvalidPayload, err)
	}

	body := newCreateOrderRequest(payload)
	respBody, err := a.doRequest(ctx, http.MethodPost, "/orders/createorder", nil, body)
	if err != nil {
		return nil, err
	}

	var created apiOrder
	if err := json.Unmarshal(respBody, &created); err != nil {
		return nil, fmt.Errorf("%w: %v", integration.ErrPlatformInvalidResponse, err)
	}
	if created.OrderID == 0 {
		return nil, fmt.Errorf("%w: missing order id", integration.ErrPlatformInvalidResponse)
	}

	remote := created.toRemoteOrder()
	return &remote, nil
}

// CancelOrder cancels an order by remote id
func (a *Adapter) CancelOrder(ctx context.Context, remoteID string) error {
	if remoteID == "" {
		return integration.ErrOrderNotFound
	}

	_, err := a.doRequest(ctx, http.MethodDelete, "/orders/"+url.PathEscape(remoteID), nil, nil)
	return err
}

// ---------------------------------------------------------------------------
// HTTP plumbing
// ---------------------------------------------------------------------------

// doRequest performs an HTTP request with basic auth and bounded
// exponential backoff on transient failures
func (a *Adapter) doRequest(ctx context.Context, method, path string, query url.Values, body any) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= a.config.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := a.config.RetryDelay * (1 << (attempt - 1))
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		respBody, err := a.do(ctx, method, path, query, body)
		if err == nil {
			return respBody, nil
		}
		lastErr = err

		if !integration.IsTransient(err) || ctx.Err() != nil {
			return nil, err
		}
	}
	return nil, lastErr
}

// do performs a single HTTP request
func (a *Adapter) do(ctx context.Context, method, path string, query url.Values, body any) ([]byte, error) {
	requestURL := a.config.BaseURL + path
	if len(query) > 0 {
		requestURL += "?" + query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("shipstation: failed to marshal request: %w", err)
		}
		reqBody = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, requestURL, reqBody)
	if err != nil {
		return nil, fmt.Errorf("shipstation: failed to create request: %w", err)
	}

	req.SetBasicAuth(a.config.APIKey, a.config.APISecret)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", integration.ErrPlatformUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", integration.ErrPlatformInvalidResponse, err)
	}

	if resp.StatusCode >= 400 {
		return nil, statusError(resp.StatusCode, respBody)
	}
	return respBody, nil
}

// statusError maps an HTTP error status to a platform error
func statusError(status int, body []byte) error {
	detail := errorDetail(body)

	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return fmt.Errorf("%w: HTTP %d%s", integration.ErrPlatformAuthFailed, status, detail)
	case status == http.StatusNotFound:
		return fmt.Errorf("%w: HTTP %d%s", integration.ErrOrderNotFound, status, detail)
	case status == http.StatusTooManyRequests:
		return fmt.Errorf("%w: HTTP %d%s", integration.ErrPlatformRateLimited, status, detail)
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return fmt.Errorf("%w: HTTP %d%s", integration.ErrOrderInvalidPayload, status, detail)
	case status >= 500:
		return fmt.Errorf("%w: HTTP %d%s", integration.ErrPlatformUnavailable, status, detail)
	default:
		return fmt.Errorf("%w: HTTP %d%s", integration.ErrPlatformRequestFailed, status, detail)
	}
}

// errorDetail extracts the API error message for diagnostics
func errorDetail(body []byte) string {
	var e apiError
	if err := json.Unmarshal(body, &e); err != nil {
		return ""
	}
	if e.ExceptionMsg != "" {
		return ": " + e.ExceptionMsg
	}
	if e.Message != "" {
		return ": " + e.Message
	}
	return ""
}

// Ensure Adapter implements ShippingPlatform
var _ integration.ShippingPlatform = (*Adapter)(nil)
