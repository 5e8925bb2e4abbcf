package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Synthetic shipping option identifiers produced by local rules.
const (
	ShippingOptionPickup = "pickup"
	ShippingOptionFree   = "free"
)

// DefaultItemWeightG is applied per unit when a variant has no recorded weight.
const DefaultItemWeightG = 100

// ShippingOption is a priced, timed delivery estimate.
type ShippingOption struct {
	ID               string          `json:"id"`
	Name             string          `json:"name"`
	Price            decimal.Decimal `json:"price"`
	DeliveryTimeDays int             `json:"delivery_time_days"`
}

// ShippingQuoteRequest is the payload of the shipping quote endpoint.
type ShippingQuoteRequest struct {
	PostalCode string              `json:"cep"`
	Items      []ShippingQuoteItem `json:"items"`
}

// ShippingQuoteItem is a (variant, quantity) pair to be shipped.
type ShippingQuoteItem struct {
	VariantID int64 `json:"variant_id"`
	Quantity  int   `json:"quantity"`
}

// ShippingQuoteCacheEntry holds carrier options for a destination/weight pair.
type ShippingQuoteCacheEntry struct {
	PostalCode   string           `json:"cep"`
	TotalWeightG int              `json:"total_weight_g"`
	Options      []ShippingOption `json:"quotes"`
	CreatedAt    time.Time        `json:"created_at"`
}

// IsFresh reports whether the entry is younger than ttl at now.
func (e *ShippingQuoteCacheEntry) IsFresh(now time.Time, ttl time.Duration) bool {
	if e == nil {
		return false
	}
	return now.Sub(e.CreatedAt) < ttl
}
