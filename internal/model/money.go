package model

import "github.com/shopspring/decimal"

func init() {
	// Prices travel as JSON numbers, matching what storefront clients send.
	decimal.MarshalJSONWithoutQuotes = true
}

// FormatBRL renders an amount the way it is shown to shoppers, e.g. "R$ 100.00".
func FormatBRL(amount decimal.Decimal) string {
	return "R$ " + amount.StringFixed(2)
}
