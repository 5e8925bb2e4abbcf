package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"storefront/internal/model"
	"storefront/internal/payment"
	"storefront/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const webhookPath = "/api/payments/webhook"

// StoreURLs builds the gateway callback targets from the deployed base URL.
type StoreURLs struct {
	BaseURL     string
	SuccessPath string // formatted with the order id
	FailurePath string
	Currency    string
}

func (u StoreURLs) success(orderID uuid.UUID) string {
	path := u.SuccessPath
	if strings.Contains(path, "%s") {
		path = fmt.Sprintf(path, orderID.String())
	}
	return u.BaseURL + path
}

func (u StoreURLs) failure() string {
	return u.BaseURL + u.FailurePath
}

func (u StoreURLs) notification() string {
	return u.BaseURL + webhookPath
}

type paymentService struct {
	orderRepo repository.OrderRepository
	gateway   payment.Gateway
	urls      StoreURLs
	logger    zerolog.Logger
}

// NewPaymentService creates a payment preference service.
func NewPaymentService(
	orderRepo repository.OrderRepository,
	gateway payment.Gateway,
	urls StoreURLs,
	logger zerolog.Logger,
) PaymentService {
	urls.BaseURL = strings.TrimRight(urls.BaseURL, "/")
	if urls.Currency == "" {
		urls.Currency = "BRL"
	}
	return &paymentService{
		orderRepo: orderRepo,
		gateway:   gateway,
		urls:      urls,
		logger:    logger.With().Str("service", "payment").Logger(),
	}
}

// CreatePreference opens a checkout session for the order. Each call opens a new session.
func (s *paymentService) CreatePreference(ctx context.Context, userID string, orderID uuid.UUID) (*model.PaymentPreference, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, model.ErrUnauthorised
	}

	order, items, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", orderID.String()).Msg("failed to load order")
		return nil, fmt.Errorf("failed to create payment preference: %w", err)
	}
	if order == nil || order.UserID != userID {
		return nil, model.ErrOrderNotFound
	}

	lines, shippingCost := s.lineItems(order, items)
	req := payment.PreferenceRequest{
		Items:             lines,
		ExternalReference: order.ID.String(),
		SuccessURL:        s.urls.success(order.ID),
		FailureURL:        s.urls.failure(),
		PendingURL:        s.urls.success(order.ID),
		NotificationURL:   s.urls.notification(),
		ShippingCost:      shippingCost,
		IdempotencyKey:    order.ID.String() + ":" + uuid.NewString(),
	}

	pref, err := s.gateway.CreatePreference(ctx, req)
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", orderID.String()).Msg("payment gateway rejected preference")
		if errors.Is(err, payment.ErrGateway) {
			return nil, model.ErrUpstreamFailed
		}
		return nil, fmt.Errorf("failed to create payment preference: %w", err)
	}

	s.logger.Info().
		Str("order_id", orderID.String()).
		Str("preference_id", pref.ID).
		Msg("payment preference created")

	return &model.PaymentPreference{
		PreferenceID:      pref.ID,
		InitPoint:         pref.InitPoint,
		SandboxInitPoint:  pref.SandboxInitPoint,
		ExternalReference: order.ID.String(),
	}, nil
}

// lineItems maps order items to gateway lines and returns the shipping cost to send alongside.
// A discounted order is collapsed into one line so the gateway charges exactly the order total.
func (s *paymentService) lineItems(order *model.Order, items []model.OrderItem) ([]payment.Item, decimal.Decimal) {
	if order.DiscountTotal.IsPositive() {
		price, shipping := order.TotalPaid.Sub(order.ShippingCost), order.ShippingCost
		if !price.IsPositive() {
			price, shipping = order.TotalPaid, decimal.Zero
		}
		return []payment.Item{{
			ID:         order.ID.String(),
			Title:      "Pedido " + order.ID.String(),
			Quantity:   1,
			UnitPrice:  price,
			CurrencyID: s.urls.Currency,
		}}, shipping
	}

	lines := make([]payment.Item, len(items))
	for i, item := range items {
		lines[i] = payment.Item{
			ID:         strconv.FormatInt(item.VariantID, 10),
			Title:      item.NameSnapshot,
			Quantity:   item.Quantity,
			UnitPrice:  item.UnitPrice,
			CurrencyID: s.urls.Currency,
		}
	}
	return lines, order.ShippingCost
}
