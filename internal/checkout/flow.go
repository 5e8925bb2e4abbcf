package checkout

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"storefront/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Flow errors that keep the flow at its current step.
var (
	ErrEmptyCart             = errors.New("checkout: cart is empty")
	ErrNoShippingSelected    = errors.New("checkout: no shipping option selected")
	ErrUnknownShippingOption = errors.New("checkout: shipping option was not offered")
	ErrPaymentNotConfirmed   = errors.New("checkout: payment not approved yet")
)

// API is the part of the storefront API the checkout calls.
type API interface {
	QuoteShipping(ctx context.Context, req *model.ShippingQuoteRequest) ([]model.ShippingOption, error)
	ValidateCoupon(ctx context.Context, code string, cart *Cart) (*model.ValidCoupon, error)
	CreateOrder(ctx context.Context, req *model.CreateOrderRequest) (*model.CreateOrderResponse, error)
	CreatePaymentPreference(ctx context.Context, orderID uuid.UUID) (*model.PaymentPreference, error)
	GetOrder(ctx context.Context, orderID uuid.UUID) (*model.OrderResponse, error)
}

// Flow is one checkout session: Address, then Shipping, then Payment.
// Step state is local to the session and is never shared with the server.
type Flow struct {
	api    API
	store  CartStore
	logger zerolog.Logger

	mu         sync.Mutex
	step       Step
	address    *model.Address
	options    []model.ShippingOption
	selected   *model.ShippingOption
	orderID    uuid.UUID
	preference *model.PaymentPreference
	submitted  bool
}

// NewFlow starts a checkout at the Address step.
func NewFlow(api API, store CartStore, logger zerolog.Logger) *Flow {
	return &Flow{
		api:    api,
		store:  store,
		logger: logger.With().Str("component", "checkout").Logger(),
		step:   StepAddress,
	}
}

// Step returns the current step.
func (f *Flow) Step() Step {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.step
}

// Address returns the submitted delivery address, or nil before one is accepted.
func (f *Flow) Address() *model.Address {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.address
}

// Options returns the shipping options offered for the submitted address.
func (f *Flow) Options() []model.ShippingOption {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.options)
}

// OrderID returns the order created on leaving the Shipping step, or uuid.Nil.
func (f *Flow) OrderID() uuid.UUID {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.orderID
}

// Preference returns the payment session opened for the order, if any.
func (f *Flow) Preference() *model.PaymentPreference {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.preference
}

// Submitted reports whether the shopper signalled that the payment form was sent.
func (f *Flow) Submitted() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.submitted
}

// ApplyCoupon checks a code against the current cart and stores it on the cart when
// the server accepts it. A blank code removes the coupon without a server call.
// Coupons can change only until the order is placed.
func (f *Flow) ApplyCoupon(ctx context.Context, code string) (*model.ValidCoupon, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.step == StepPayment {
		return nil, fmt.Errorf("%w: coupon cannot change at step %s", ErrInvalidTransition, f.step)
	}

	cart, err := f.store.Get(ctx)
	if err != nil {
		return nil, err
	}

	if model.CanonicalCouponCode(code) == "" {
		cart.ApplyCoupon("")
		return nil, f.store.Set(ctx, cart)
	}
	if cart.IsEmpty() {
		return nil, ErrEmptyCart
	}

	coupon, err := f.api.ValidateCoupon(ctx, code, cart)
	if err != nil {
		f.logger.Info().Err(err).Str("coupon_code", code).Msg("coupon rejected")
		return nil, err
	}

	cart.ApplyCoupon(coupon.Code)
	if err := f.store.Set(ctx, cart); err != nil {
		return nil, err
	}
	return coupon, nil
}

// SubmitAddress validates the address, enters Shipping and requests a quote.
// When the quote fails the flow reverts to Address and the error is returned.
func (f *Flow) SubmitAddress(ctx context.Context, addr model.Address) ([]model.ShippingOption, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.step.expect(StepAddress); err != nil {
		return nil, err
	}
	if err := addr.Validate(); err != nil {
		return nil, err
	}

	cart, err := f.store.Get(ctx)
	if err != nil {
		return nil, err
	}
	if cart.IsEmpty() {
		return nil, ErrEmptyCart
	}

	if f.step, err = f.step.transition(StepShipping); err != nil {
		return nil, err
	}
	f.address = &addr
	f.options = nil
	f.selected = nil

	options, err := f.api.QuoteShipping(ctx, &model.ShippingQuoteRequest{
		PostalCode: addr.PostalCode,
		Items:      cart.QuoteItems(),
	})
	if err != nil {
		f.logger.Warn().Err(err).Str("postal_code", addr.PostalCode).Msg("shipping quote failed, back to address")
		f.step, _ = f.step.transition(StepAddress)
		return nil, err
	}

	f.options = options
	return slices.Clone(options), nil
}

// SelectShipping records the shopper's explicit choice among the offered options.
func (f *Flow) SelectShipping(optionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.step.expect(StepShipping); err != nil {
		return err
	}
	for _, o := range f.options {
		if o.ID == optionID {
			selected := o
			f.selected = &selected
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrUnknownShippingOption, optionID)
}

// ConfirmShipping creates the order and then its payment session. Any failure leaves
// the flow at Shipping so the step can be retried.
func (f *Flow) ConfirmShipping(ctx context.Context) (*model.PaymentPreference, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.step.expect(StepShipping); err != nil {
		return nil, err
	}
	if f.selected == nil {
		return nil, ErrNoShippingSelected
	}

	cart, err := f.store.Get(ctx)
	if err != nil {
		return nil, err
	}
	if cart.IsEmpty() {
		return nil, ErrEmptyCart
	}

	req := &model.CreateOrderRequest{
		Items:        cart.Items,
		ShippingCost: f.selected.Price,
	}
	if cart.hasCoupon() {
		req.CouponCode = cart.CouponCode
	}

	order, err := f.api.CreateOrder(ctx, req)
	if err != nil {
		f.logger.Warn().Err(err).Msg("order creation failed")
		return nil, err
	}

	pref, err := f.api.CreatePaymentPreference(ctx, order.OrderID)
	if err != nil {
		f.logger.Warn().Err(err).Str("order_id", order.OrderID.String()).Msg("payment preference failed")
		return nil, err
	}

	if f.step, err = f.step.transition(StepPayment); err != nil {
		return nil, err
	}
	f.orderID = order.OrderID
	f.preference = pref

	f.logger.Info().
		Str("order_id", order.OrderID.String()).
		Str("preference_id", pref.PreferenceID).
		Msg("checkout reached payment")
	return pref, nil
}

// PaymentSubmitted records the shopper's "payment sent" signal. It is advisory only;
// the order is settled by the gateway notification, not by this call.
func (f *Flow) PaymentSubmitted() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.step.expect(StepPayment); err != nil {
		return err
	}
	f.submitted = true
	return nil
}

// ConfirmPayment polls the order and clears the cart once the payment is approved.
// It returns ErrPaymentNotConfirmed, with the current payment status, while it is not.
func (f *Flow) ConfirmPayment(ctx context.Context) (model.PaymentStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.step.expect(StepPayment); err != nil {
		return "", err
	}

	order, err := f.api.GetOrder(ctx, f.orderID)
	if err != nil {
		return "", err
	}
	if order.PaymentStatus != model.PaymentStatusApproved {
		return order.PaymentStatus, ErrPaymentNotConfirmed
	}

	if err := f.store.Clear(ctx); err != nil {
		return order.PaymentStatus, err
	}
	f.logger.Info().Str("order_id", f.orderID.String()).Msg("payment approved, cart cleared")
	return order.PaymentStatus, nil
}

// Abandon discards the session and returns to Address. Orders already created stay on the server.
func (f *Flow) Abandon() {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.orderID != uuid.Nil {
		f.logger.Debug().Str("order_id", f.orderID.String()).Msg("checkout abandoned with unpaid order")
	}
	f.step = StepAddress
	f.address = nil
	f.options = nil
	f.selected = nil
	f.orderID = uuid.Nil
	f.preference = nil
	f.submitted = false
}

