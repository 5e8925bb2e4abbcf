package coupon

import (
	"context"

	"storefront/internal/model"

	"github.com/shopspring/decimal"
)

// Validator checks a shopper-entered coupon code against a candidate subtotal.
type Validator interface {
	// Validate returns the sanitised coupon when every rule passes, or the first rule that fails:
	// inactive, expired, exhausted, below minimum. Validation never mutates the coupon.
	Validate(ctx context.Context, code string, subtotal decimal.Decimal) (*model.ValidCoupon, error)
}

// Loader defines the interface for loading coupon catalog files.
type Loader interface {
	// Load reads a gzipped JSON-lines coupon catalog and returns it keyed by canonical code.
	Load(ctx context.Context, filePath string) (*Catalog, error)
}

var hundred = decimal.NewFromInt(100)

// Discount returns the amount a valid coupon takes off an order, never more than what it applies to.
func Discount(c *model.ValidCoupon, subtotal, shippingCost decimal.Decimal) decimal.Decimal {
	if c == nil {
		return decimal.Zero
	}

	var d decimal.Decimal
	switch c.Type {
	case model.CouponTypePercent:
		d = subtotal.Mul(c.Value).Div(hundred).Round(2)
		if d.GreaterThan(subtotal) {
			d = subtotal
		}
	case model.CouponTypeFixed:
		d = decimal.Min(c.Value, subtotal)
	case model.CouponTypeFreeShipping:
		d = shippingCost
	}

	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
