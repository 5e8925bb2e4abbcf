package model

import "github.com/shopspring/decimal"

// CartLine is one variant plus a quantity, held client-side until an order is placed.
type CartLine struct {
	VariantID int64           `json:"variant_id"`
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name"`
	ImageURL  *string         `json:"image_url"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	Color     string          `json:"color"`
	Size      string          `json:"size"`
}

// LineTotal returns price × quantity.
func (l CartLine) LineTotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Variant is the slice of catalog data the checkout needs: price and shipping weight.
type Variant struct {
	ID        int64           `json:"id" db:"id"`
	ProductID int64           `json:"product_id" db:"product_id"`
	Price     decimal.Decimal `json:"price" db:"price"`
	WeightG   *int            `json:"weight_g,omitempty" db:"weight_g"`
}
