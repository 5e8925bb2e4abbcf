package checkout

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

	"storefront/internal/model"

	"github.com/google/uuid"
)

// APIError is a non-2xx answer from the storefront API.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("storefront API %d %s: %s", e.StatusCode, e.Code, e.Message)
}

// Is lets callers match API errors against the domain sentinels, e.g. model.ErrCouponExpired.
func (e *APIError) Is(target error) bool {
	var de *model.DomainError
	if errors.As(target, &de) {
		return de.Code == e.Code
	}
	return false
}

var _ API = (*Client)(nil)

// Client calls the storefront HTTP API on behalf of one shopper.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// ClientOption customises a Client.
type ClientOption func(*Client)

// WithToken sets the bearer token sent on authenticated routes.
func WithToken(token string) ClientOption {
	return func(c *Client) { c.token = token }
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.http = hc }
}

// NewClient creates a client for the API served at baseURL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// QuoteShipping asks for the shipping options available for the cart at a postal code.
func (c *Client) QuoteShipping(ctx context.Context, req *model.ShippingQuoteRequest) ([]model.ShippingOption, error) {
	var out []model.ShippingOption
	if err := c.do(ctx, http.MethodPost, "/api/shipping/quote", req, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ValidateCoupon checks a code against the cart subtotal before it is applied.
func (c *Client) ValidateCoupon(ctx context.Context, code string, cart *Cart) (*model.ValidCoupon, error) {
	var out model.ValidCoupon
	req := model.CouponValidationRequest{Code: code, Subtotal: cart.Subtotal()}
	if err := c.do(ctx, http.MethodPost, "/api/coupons/validate", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateOrder places the order for the signed-in shopper.
func (c *Client) CreateOrder(ctx context.Context, req *model.CreateOrderRequest) (*model.CreateOrderResponse, error) {
	var out model.CreateOrderResponse
	if err := c.do(ctx, http.MethodPost, "/api/checkout/orders", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreatePaymentPreference opens a gateway checkout session for an order.
func (c *Client) CreatePaymentPreference(ctx context.Context, orderID uuid.UUID) (*model.PaymentPreference, error) {
	var out model.PaymentPreference
	req := model.PaymentPreferenceRequest{OrderID: orderID.String()}
	if err := c.do(ctx, http.MethodPost, "/api/payments/preference", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetOrder fetches one of the shopper's orders with its items.
func (c *Client) GetOrder(ctx context.Context, orderID uuid.UUID) (*model.OrderResponse, error) {
	var out model.OrderResponse
	if err := c.do(ctx, http.MethodGet, "/api/orders/"+orderID.String(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var e model.ErrorResponse
		if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&e); err == nil {
			apiErr.Code, apiErr.Message = e.Error, e.Message
		}
		if apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		return apiErr
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s %s response: %w", method, path, err)
	}
	return nil
}
