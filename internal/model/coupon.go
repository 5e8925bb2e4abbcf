package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CouponType enumerates how a coupon discounts an order.
type CouponType string

const (
	CouponTypePercent      CouponType = "percent"
	CouponTypeFixed        CouponType = "fixed"
	CouponTypeFreeShipping CouponType = "free_shipping"
)

// Valid reports whether t is a known coupon type.
func (t CouponType) Valid() bool {
	switch t {
	case CouponTypePercent, CouponTypeFixed, CouponTypeFreeShipping:
		return true
	}
	return false
}

// Coupon is a persisted discount code. It is read-only to checkout.
type Coupon struct {
	ID          uuid.UUID       `json:"id" db:"id"`
	Code        string          `json:"code" db:"code"`
	Type        CouponType      `json:"type" db:"type"`
	Value       decimal.Decimal `json:"value" db:"value"`
	MinSubtotal decimal.Decimal `json:"min_subtotal" db:"min_subtotal"`
	MaxUses     int             `json:"max_uses" db:"max_uses"`
	UsedCount   int             `json:"used_count" db:"used_count"`
	EndsAt      *time.Time      `json:"ends_at,omitempty" db:"ends_at"`
	IsActive    bool            `json:"is_active" db:"is_active"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
}

// ValidCoupon is the projection returned to shoppers; usage bookkeeping and expiry are stripped.
type ValidCoupon struct {
	ID          uuid.UUID       `json:"id"`
	Code        string          `json:"code"`
	Type        CouponType      `json:"type"`
	Value       decimal.Decimal `json:"value"`
	MinSubtotal decimal.Decimal `json:"min_subtotal"`
	IsActive    bool            `json:"is_active"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Sanitise drops the internal bookkeeping fields.
func (c *Coupon) Sanitise() *ValidCoupon {
	return &ValidCoupon{
		ID:          c.ID,
		Code:        c.Code,
		Type:        c.Type,
		Value:       c.Value,
		MinSubtotal: c.MinSubtotal,
		IsActive:    c.IsActive,
		CreatedAt:   c.CreatedAt,
	}
}

// CanonicalCouponCode upper-cases and trims a shopper-entered code.
func CanonicalCouponCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// CouponValidationRequest is the payload of the coupon validation endpoint.
type CouponValidationRequest struct {
	Code     string          `json:"coupon_code"`
	Subtotal decimal.Decimal `json:"subtotal"`
}
