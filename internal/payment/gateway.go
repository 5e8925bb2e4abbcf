// Package payment talks to the Mercado Pago REST API and verifies its webhook signatures.
package payment

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

// ErrGateway wraps every failed call to the payment gateway.
var ErrGateway = errors.New("payment: gateway request failed")

// Gateway is the subset of the payment provider the checkout uses.
type Gateway interface {
	// CreatePreference opens a hosted checkout session. Calling it twice creates two sessions.
	CreatePreference(ctx context.Context, req PreferenceRequest) (*Preference, error)

	// GetPayment fetches the authoritative payment record by id.
	GetPayment(ctx context.Context, paymentID string) (*Payment, error)
}

// Item is one line of a checkout session.
type Item struct {
	ID         string
	Title      string
	Quantity   int
	UnitPrice  decimal.Decimal
	CurrencyID string
}

// PreferenceRequest carries everything the gateway needs to open a session for an order.
type PreferenceRequest struct {
	Items             []Item
	ExternalReference string
	SuccessURL        string
	FailureURL        string
	PendingURL        string
	NotificationURL   string
	ShippingCost      decimal.Decimal
	IdempotencyKey    string // generated when empty
}

// Preference is the session the gateway created.
type Preference struct {
	ID                string
	InitPoint         string
	SandboxInitPoint  string
	ExternalReference string
}

// Payment is the gateway's view of a payment.
type Payment struct {
	ID                string
	Status            string
	StatusDetail      string
	ExternalReference string
	TransactionAmount decimal.Decimal
}
