package service

import (
	"context"

	"storefront/internal/model"

	"github.com/google/uuid"
)

// ShippingService quotes delivery options for a cart.
type ShippingService interface {
	// Quote returns local-rule options followed by carrier options for the destination.
	Quote(ctx context.Context, req *model.ShippingQuoteRequest) ([]model.ShippingOption, error)
}

// OrderService defines operations for order management.
type OrderService interface {
	// CreateOrder atomically creates an order with item snapshots for the user.
	CreateOrder(ctx context.Context, userID string, req *model.CreateOrderRequest) (*model.CreateOrderResponse, error)

	// GetOrder retrieves an order owned by the user.
	GetOrder(ctx context.Context, userID string, orderID uuid.UUID) (*model.OrderResponse, error)
}

// PaymentService opens gateway checkout sessions for orders.
type PaymentService interface {
	// CreatePreference opens a new session for an order owned by the user. It is not idempotent.
	CreatePreference(ctx context.Context, userID string, orderID uuid.UUID) (*model.PaymentPreference, error)
}

// WebhookService reconciles gateway notifications into order state.
type WebhookService interface {
	// HandleNotification processes one notification. Errors are for logging only;
	// the gateway is always acknowledged.
	HandleNotification(ctx context.Context, n *model.WebhookNotification) error
}
