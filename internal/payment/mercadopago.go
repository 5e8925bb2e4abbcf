package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"storefront/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const defaultTimeout = 10 * time.Second

// Config holds the Mercado Pago credentials.
type Config struct {
	BaseURL     string
	AccessToken string
	Timeout     time.Duration
}

type mercadoPago struct {
	baseURL string
	token   string
	http    *http.Client
	logger  zerolog.Logger
}

// NewMercadoPago creates a Mercado Pago gateway client.
func NewMercadoPago(cfg Config, logger zerolog.Logger) Gateway {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &mercadoPago{
		baseURL: strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		token:   cfg.AccessToken,
		http:    &http.Client{Timeout: timeout},
		logger:  logger.With().Str("component", "mercadopago").Logger(),
	}
}

type preferenceItem struct {
	ID         string          `json:"id"`
	Title      string          `json:"title"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	CurrencyID string          `json:"currency_id"`
}

type backURLs struct {
	Success string `json:"success,omitempty"`
	Failure string `json:"failure,omitempty"`
	Pending string `json:"pending,omitempty"`
}

type shipments struct {
	Cost decimal.Decimal `json:"cost"`
	Mode string          `json:"mode"`
}

type preferenceBody struct {
	Items             []preferenceItem `json:"items"`
	ExternalReference string           `json:"external_reference"`
	BackURLs          backURLs         `json:"back_urls"`
	AutoReturn        string           `json:"auto_return,omitempty"`
	NotificationURL   string           `json:"notification_url,omitempty"`
	Shipments         *shipments       `json:"shipments,omitempty"`
}

type preferenceResponse struct {
	ID                string `json:"id"`
	InitPoint         string `json:"init_point"`
	SandboxInitPoint  string `json:"sandbox_init_point"`
	ExternalReference string `json:"external_reference"`
}

type paymentResponse struct {
	ID                model.FlexibleID `json:"id"`
	Status            string           `json:"status"`
	StatusDetail      string           `json:"status_detail"`
	ExternalReference string           `json:"external_reference"`
	TransactionAmount decimal.Decimal  `json:"transaction_amount"`
}

// CreatePreference opens a checkout session for an order.
func (g *mercadoPago) CreatePreference(ctx context.Context, req PreferenceRequest) (*Preference, error) {
	body := preferenceBody{
		Items:             make([]preferenceItem, 0, len(req.Items)),
		ExternalReference: req.ExternalReference,
		BackURLs: backURLs{
			Success: req.SuccessURL,
			Failure: req.FailureURL,
			Pending: req.PendingURL,
		},
		NotificationURL: req.NotificationURL,
	}
	for _, item := range req.Items {
		body.Items = append(body.Items, preferenceItem(item))
	}
	if req.SuccessURL != "" {
		body.AutoReturn = "approved"
	}
	if req.ShippingCost.IsPositive() {
		body.Shipments = &shipments{Cost: req.ShippingCost, Mode: "not_specified"}
	}

	idempotencyKey := req.IdempotencyKey
	if idempotencyKey == "" {
		idempotencyKey = uuid.NewString()
	}

	var out preferenceResponse
	if err := g.do(ctx, http.MethodPost, []string{"checkout", "preferences"}, body, idempotencyKey, &out); err != nil {
		return nil, err
	}
	if out.ID == "" || out.InitPoint == "" {
		return nil, fmt.Errorf("%w: preference response missing id or init_point", ErrGateway)
	}

	g.logger.Info().
		Str("preference_id", out.ID).
		Str("order_id", req.ExternalReference).
		Msg("payment preference created")

	return &Preference{
		ID:                out.ID,
		InitPoint:         out.InitPoint,
		SandboxInitPoint:  out.SandboxInitPoint,
		ExternalReference: out.ExternalReference,
	}, nil
}

// GetPayment fetches a payment by id.
func (g *mercadoPago) GetPayment(ctx context.Context, paymentID string) (*Payment, error) {
	paymentID = strings.TrimSpace(paymentID)
	if paymentID == "" {
		return nil, fmt.Errorf("%w: payment id is required", ErrGateway)
	}

	var out paymentResponse
	if err := g.do(ctx, http.MethodGet, []string{"v1", "payments", paymentID}, nil, "", &out); err != nil {
		return nil, err
	}

	return &Payment{
		ID:                string(out.ID),
		Status:            out.Status,
		StatusDetail:      out.StatusDetail,
		ExternalReference: out.ExternalReference,
		TransactionAmount: out.TransactionAmount,
	}, nil
}

func (g *mercadoPago) do(ctx context.Context, method string, path []string, in any, idempotencyKey string, out any) error {
	endpoint, err := url.JoinPath(g.baseURL, path...)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrGateway, err)
	}

	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode gateway request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrGateway, err)
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+g.token)
	if in != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if idempotencyKey != "" {
		httpReq.Header.Set("X-Idempotency-Key", idempotencyKey)
	}

	resp, err := g.http.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrGateway, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		g.logger.Warn().
			Int("status", resp.StatusCode).
			Str("method", method).
			Str("path", strings.Join(path, "/")).
			Msg("gateway returned an error")
		return fmt.Errorf("%w: status %d: %s", ErrGateway, resp.StatusCode, drainError(resp.Body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: malformed response: %v", ErrGateway, err)
	}
	return nil
}

func drainError(r io.Reader) string {
	if r == nil {
		return ""
	}
	b, _ := io.ReadAll(io.LimitReader(r, 256))
	return strings.TrimSpace(string(b))
}
