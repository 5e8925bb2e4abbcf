package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus is the fulfilment-facing state of an order.
type OrderStatus string

const (
	OrderStatusCreated         OrderStatus = "created"
	OrderStatusAwaitingPayment OrderStatus = "awaiting_payment"
	OrderStatusPaid            OrderStatus = "paid"
	OrderStatusSeparating      OrderStatus = "separating"
	OrderStatusShipped         OrderStatus = "shipped"
	OrderStatusDelivered       OrderStatus = "delivered"
	OrderStatusCanceled        OrderStatus = "canceled"
	OrderStatusRefunded        OrderStatus = "refunded"
)

// PaymentStatus is the payment-facing state of an order, driven by the gateway.
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusApproved PaymentStatus = "approved"
	PaymentStatusRejected PaymentStatus = "rejected"
	PaymentStatusRefunded PaymentStatus = "refunded"
	PaymentStatusExpired  PaymentStatus = "expired"
)

// Order represents a customer order.
type Order struct {
	ID            uuid.UUID       `json:"id" db:"id"`
	UserID        string          `json:"user_id" db:"user_id"`
	Status        OrderStatus     `json:"status" db:"status"`
	PaymentStatus PaymentStatus   `json:"payment_status" db:"payment_status"`
	Subtotal      decimal.Decimal `json:"subtotal" db:"subtotal"`
	ShippingCost  decimal.Decimal `json:"shipping_cost" db:"shipping_cost"`
	DiscountTotal decimal.Decimal `json:"discount_total" db:"discount_total"`
	TotalPaid     decimal.Decimal `json:"total_paid" db:"total_paid"`
	CouponCode    *string         `json:"coupon_code,omitempty" db:"coupon_code"`
	PaymentID     *string         `json:"payment_id,omitempty" db:"payment_id"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at" db:"updated_at"`
}

// OrderItem is the frozen copy of a cart line stored with the order.
type OrderItem struct {
	ID           uuid.UUID       `json:"id" db:"id"`
	OrderID      uuid.UUID       `json:"-" db:"order_id"`
	VariantID    int64           `json:"variant_id" db:"variant_id"`
	ProductID    int64           `json:"product_id" db:"product_id"`
	NameSnapshot string          `json:"name_snapshot" db:"name_snapshot"`
	Color        string          `json:"color" db:"color"`
	Size         string          `json:"size" db:"size"`
	UnitPrice    decimal.Decimal `json:"unit_price" db:"unit_price"`
	Quantity     int             `json:"quantity" db:"quantity"`
}

// CreateOrderRequest represents the request payload for creating an order.
type CreateOrderRequest struct {
	Items        []CartLine      `json:"items"`
	ShippingCost decimal.Decimal `json:"shipping_cost"`
	CouponCode   *string         `json:"coupon_code,omitempty"`
}

// CreateOrderResponse carries the identifier of the new order.
type CreateOrderResponse struct {
	OrderID uuid.UUID `json:"order_id"`
}

// OrderResponse is an order with its item snapshots.
type OrderResponse struct {
	Order
	Items []OrderItem `json:"items"`
}

// OrderState pairs the two status fields the reconciler moves together.
type OrderState struct {
	Status        OrderStatus
	PaymentStatus PaymentStatus
}

// NextOrderState applies an authoritative payment status to the current state.
// The second result is false when the update must leave the order untouched,
// either because it is a replay or because it would move a settled order backwards.
func NextOrderState(current OrderState, incoming PaymentStatus) (OrderState, bool) {
	unpaid := current.Status == OrderStatusCreated || current.Status == OrderStatusAwaitingPayment

	var next OrderState
	switch incoming {
	case PaymentStatusApproved:
		switch current.Status {
		case OrderStatusCreated, OrderStatusAwaitingPayment, OrderStatusCanceled:
			next = OrderState{Status: OrderStatusPaid, PaymentStatus: PaymentStatusApproved}
		case OrderStatusPaid, OrderStatusSeparating, OrderStatusShipped, OrderStatusDelivered:
			next = OrderState{Status: current.Status, PaymentStatus: PaymentStatusApproved}
		default:
			return current, false
		}
	case PaymentStatusPending, PaymentStatusRejected:
		if !unpaid {
			return current, false
		}
		next = OrderState{Status: OrderStatusAwaitingPayment, PaymentStatus: incoming}
	case PaymentStatusExpired:
		if !unpaid {
			return current, false
		}
		next = OrderState{Status: OrderStatusCanceled, PaymentStatus: PaymentStatusExpired}
	case PaymentStatusRefunded:
		switch current.Status {
		case OrderStatusPaid, OrderStatusSeparating, OrderStatusShipped, OrderStatusDelivered:
			next = OrderState{Status: OrderStatusRefunded, PaymentStatus: PaymentStatusRefunded}
		default:
			return current, false
		}
	default:
		return current, false
	}

	if next == current {
		return current, false
	}
	return next, true
}
