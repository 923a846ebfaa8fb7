package payu

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// orderStatusCompleted captures an authorized order.
const orderStatusCompleted = "COMPLETED"

// CreateOrder submits a new order. PayU answers 302 by default, with the
// customer redirect in the JSON body, so 200, 201 and 302 are all success.
func (c *Client) CreateOrder(ctx context.Context, req OrderRequest) (OrderCreateResponse, error) {
	var out OrderCreateResponse
	if strings.TrimSpace(req.MerchantPosID) == "" {
		req.MerchantPosID = c.cfg.PosID
	}
	if err := c.validate.Struct(req); err != nil {
		return out, fmt.Errorf("payu: invalid order request: %w", err)
	}
	err := c.do(ctx, "create_order", http.MethodPost, c.baseURL+ordersPath, req, &out, func(status int) bool {
		return status == http.StatusOK || status == http.StatusCreated || status == http.StatusFound
	})
	return out, err
}

// CaptureOrder completes an authorized order, triggering settlement.
func (c *Client) CaptureOrder(ctx context.Context, orderID string) (OrderStatusUpdateResponse, error) {
	var out OrderStatusUpdateResponse
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return out, errors.New("payu: order id is required")
	}
	body := OrderStatusUpdateRequest{OrderID: orderID, OrderStatus: orderStatusCompleted}
	err := c.do(ctx, "capture_order", http.MethodPut, c.orderURL(orderID)+"/status", body, &out, accept2xx)
	return out, err
}

// CancelOrder cancels an order that has not been captured yet.
func (c *Client) CancelOrder(ctx context.Context, orderID string) (OrderCancelResponse, error) {
	var out OrderCancelResponse
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return out, errors.New("payu: order id is required")
	}
	err := c.do(ctx, "cancel_order", http.MethodDelete, c.orderURL(orderID), nil, &out, accept2xx)
	return out, err
}

// RefundOrder creates a refund against a captured order. An empty amount in
// the request refunds the full remaining order value.
func (c *Client) RefundOrder(ctx context.Context, orderID string, req RefundRequest) (RefundResponse, error) {
	var out RefundResponse
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return out, errors.New("payu: order id is required")
	}
	if err := c.validate.Struct(req); err != nil {
		return out, fmt.Errorf("payu: invalid refund request: %w", err)
	}
	err := c.do(ctx, "refund_order", http.MethodPost, c.orderURL(orderID)+"/refund", req, &out, accept2xx)
	return out, err
}

// GetOrder retrieves the provider-side view of an order.
func (c *Client) GetOrder(ctx context.Context, orderID string) (OrderRetrieveResponse, error) {
	var out OrderRetrieveResponse
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return out, errors.New("payu: order id is required")
	}
	err := c.do(ctx, "get_order", http.MethodGet, c.orderURL(orderID), nil, &out, accept2xx)
	return out, err
}

// GetOrderTransactions lists the payment attempts recorded against an order.
func (c *Client) GetOrderTransactions(ctx context.Context, orderID string) (TransactionsResponse, error) {
	var out TransactionsResponse
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return out, errors.New("payu: order id is required")
	}
	err := c.do(ctx, "get_transactions", http.MethodGet, c.orderURL(orderID)+"/transactions", nil, &out, accept2xx)
	return out, err
}

func (c *Client) orderURL(orderID string) string {
	return c.baseURL + ordersPath + "/" + orderID
}

func accept2xx(status int) bool {
	return status >= 200 && status < 300
}

// do performs one authorized API round trip. There is no retry: a transport
// failure propagates unchanged and only the caller's next invocation attempts
// again.
func (c *Client) do(ctx context.Context, operation, method, url string, body, out any, accepted func(int) bool) error {
	ctx, span := otel.Tracer("payu.Client").Start(ctx, "Client."+operation)
	defer span.End()
	span.SetAttributes(
		attribute.String("payu.operation", operation),
		attribute.String("http.method", method),
	)

	start := time.Now()
	result := "error"
	defer func() {
		if APIRequestTotal != nil {
			APIRequestTotal.WithLabelValues(operation, result).Inc()
		}
		c.logger.Debug().
			Str("operation", operation).
			Str("result", result).
			Int64("duration_ms", time.Since(start).Milliseconds()).
			Msg("payu_api_call")
	}()

	token, err := c.tokens.Token(ctx)
	if err != nil {
		span.RecordError(err)
		result = "auth_error"
		return err
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			span.RecordError(err)
			return fmt.Errorf("payu: encode %s request: %w", operation, err)
		}
		reader = bytes.NewReader(encoded)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		span.RecordError(err)
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		span.RecordError(err)
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		span.RecordError(err)
		return err
	}
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if !accepted(resp.StatusCode) {
		apiErr := &Error{HTTPStatus: resp.StatusCode}
		var envelope struct {
			Status Status `json:"status"`
		}
		if jsonErr := json.Unmarshal(respBody, &envelope); jsonErr == nil {
			apiErr.StatusCode = envelope.Status.StatusCode
			apiErr.Code = envelope.Status.Code
			apiErr.CodeLiteral = envelope.Status.CodeLiteral
			apiErr.StatusDesc = envelope.Status.StatusDesc
		}
		span.RecordError(apiErr)
		result = "rejected"
		return apiErr
	}

	// Accepted statuses are success regardless of body shape; a body the
	// response types cannot hold is not an error.
	if out != nil && len(respBody) > 0 {
		_ = json.Unmarshal(respBody, out)
	}
	result = "success"
	return nil
}
