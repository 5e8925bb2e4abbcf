package checkout

import (
	"slices"
	"strings"

	"storefront/internal/model"

	"github.com/shopspring/decimal"
)

// Cart is the shopper's pending purchase. It lives on the client until an order is placed.
type Cart struct {
	Items      []model.CartLine `json:"items"`
	CouponCode *string          `json:"coupon_code,omitempty"`
}

// Add puts a line in the cart, merging quantities with an existing line for the same variant.
func (c *Cart) Add(line model.CartLine) {
	if line.Quantity < 1 {
		line.Quantity = 1
	}
	for i := range c.Items {
		if c.Items[i].VariantID == line.VariantID {
			c.Items[i].Quantity += line.Quantity
			return
		}
	}
	c.Items = append(c.Items, line)
}

// Remove drops the line for variantID, if present.
func (c *Cart) Remove(variantID int64) {
	c.Items = slices.DeleteFunc(c.Items, func(l model.CartLine) bool {
		return l.VariantID == variantID
	})
}

// UpdateQuantity sets the quantity of a line; zero or less removes it.
func (c *Cart) UpdateQuantity(variantID int64, quantity int) {
	if quantity <= 0 {
		c.Remove(variantID)
		return
	}
	for i := range c.Items {
		if c.Items[i].VariantID == variantID {
			c.Items[i].Quantity = quantity
			return
		}
	}
}

// ApplyCoupon remembers a coupon code for the order; a blank code removes it.
// The server validates the code when the order is placed.
func (c *Cart) ApplyCoupon(code string) {
	code = model.CanonicalCouponCode(code)
	if code == "" {
		c.CouponCode = nil
		return
	}
	c.CouponCode = &code
}

// Clear empties the cart and forgets the coupon.
func (c *Cart) Clear() {
	c.Items = nil
	c.CouponCode = nil
}

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// Subtotal sums price × quantity over all lines.
func (c *Cart) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.Items {
		total = total.Add(l.LineTotal())
	}
	return total
}

// QuoteItems returns the (variant, quantity) pairs a shipping quote needs.
func (c *Cart) QuoteItems() []model.ShippingQuoteItem {
	items := make([]model.ShippingQuoteItem, len(c.Items))
	for i, l := range c.Items {
		items[i] = model.ShippingQuoteItem{VariantID: l.VariantID, Quantity: l.Quantity}
	}
	return items
}

func (c *Cart) hasCoupon() bool {
	return c.CouponCode != nil && strings.TrimSpace(*c.CouponCode) != ""
}
