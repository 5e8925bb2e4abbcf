// Package carrier quotes parcel delivery through the Melhor Envio rate API.
package carrier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"storefront/internal/model"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Fixed package dimensions in centimetres; the store ships everything in one box size.
const (
	packageWidthCM  = 15
	packageHeightCM = 5
	packageLengthCM = 20
)

// MaxOptions is the number of carrier services offered to the shopper.
const MaxOptions = 2

// ErrUnavailable wraps every failure to obtain usable rates from the carrier.
var ErrUnavailable = errors.New("carrier: rates unavailable")

// Client quotes shipping rates.
type Client interface {
	// Quote returns at most MaxOptions non-errored services for the package, in carrier order.
	Quote(ctx context.Context, req QuoteRequest) ([]model.ShippingOption, error)
}

// QuoteRequest describes the package to be quoted.
type QuoteRequest struct {
	OriginPostalCode      string
	DestinationPostalCode string
	WeightG               int
}

// Config holds the carrier API settings.
type Config struct {
	BaseURL   string
	Token     string
	UserAgent string
	Timeout   time.Duration
}

type melhorEnvioClient struct {
	endpoint  string
	token     string
	userAgent string
	http      *http.Client
	logger    zerolog.Logger
}

// NewClient creates a Melhor Envio client.
func NewClient(cfg Config, logger zerolog.Logger) (Client, error) {
	endpoint, err := url.JoinPath(strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"), "api", "v2", "me", "shipment", "calculate")
	if err != nil {
		return nil, fmt.Errorf("invalid carrier base URL: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &melhorEnvioClient{
		endpoint:  endpoint,
		token:     cfg.Token,
		userAgent: cfg.UserAgent,
		http:      &http.Client{Timeout: timeout},
		logger:    logger.With().Str("component", "carrier").Logger(),
	}, nil
}

type calculateRequest struct {
	From    postalCode     `json:"from"`
	To      postalCode     `json:"to"`
	Package packagePayload `json:"package"`
}

type postalCode struct {
	PostalCode string `json:"postal_code"`
}

type packagePayload struct {
	Weight string `json:"weight"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Length int    `json:"length"`
}

type servicePayload struct {
	ID           model.FlexibleID `json:"id"`
	Name         string           `json:"name"`
	Price        *decimal.Decimal `json:"price"`
	DeliveryTime json.Number      `json:"delivery_time"`
	Error        string           `json:"error"`
}

// Quote calls the carrier once; callers decide how to degrade on error.
func (c *melhorEnvioClient) Quote(ctx context.Context, req QuoteRequest) ([]model.ShippingOption, error) {
	body := calculateRequest{
		From: postalCode{PostalCode: req.OriginPostalCode},
		To:   postalCode{PostalCode: req.DestinationPostalCode},
		Package: packagePayload{
			Weight: WeightKG(req.WeightG),
			Width:  packageWidthCM,
			Height: packageHeightCM,
			Length: packageLengthCM,
		},
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode carrier request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build carrier request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.token)
	if c.userAgent != "" {
		httpReq.Header.Set("User-Agent", c.userAgent)
	}

	started := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	c.logger.Debug().
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(started)).
		Str("postal_code", req.DestinationPostalCode).
		Int("weight_g", req.WeightG).
		Msg("carrier responded")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: status %d: %s", ErrUnavailable, resp.StatusCode, drainError(resp.Body))
	}

	var services []servicePayload
	if err := json.NewDecoder(resp.Body).Decode(&services); err != nil {
		return nil, fmt.Errorf("%w: malformed response: %v", ErrUnavailable, err)
	}

	return toOptions(services), nil
}

func toOptions(services []servicePayload) []model.ShippingOption {
	options := make([]model.ShippingOption, 0, MaxOptions)
	for _, s := range services {
		if s.Error != "" || s.Price == nil || s.Price.IsNegative() || s.ID == "" {
			continue
		}
		days, err := s.DeliveryTime.Int64()
		if err != nil || days < 0 {
			days = 0
		}
		options = append(options, model.ShippingOption{
			ID:               string(s.ID),
			Name:             s.Name,
			Price:            *s.Price,
			DeliveryTimeDays: int(days),
		})
		if len(options) == MaxOptions {
			break
		}
	}
	return options
}

// WeightKG renders grams as kilograms with two decimal places.
func WeightKG(grams int) string {
	return decimal.New(int64(grams), -3).StringFixed(2)
}

func drainError(r io.Reader) string {
	if r == nil {
		return ""
	}
	b, _ := io.ReadAll(io.LimitReader(r, 256))
	return strings.TrimSpace(string(b))
}
