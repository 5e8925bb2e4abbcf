package coupon

import (
	"context"
	"strings"
	"testing"

	"storefront/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalog_AddAndGet(t *testing.T) {
	catalog := NewCatalog(4)

	catalog.Add(model.Coupon{Code: " bemvindo10 ", Type: model.CouponTypePercent, Value: decimal.NewFromInt(10)})
	catalog.Add(model.Coupon{Code: "FRETE", Type: model.CouponTypeFreeShipping})

	assert.Equal(t, 2, catalog.Size())

	c, ok := catalog.Get("BemVindo10")
	require.True(t, ok)
	assert.Equal(t, "BEMVINDO10", c.Code)

	_, ok = catalog.Get("missing")
	assert.False(t, ok)
}

func TestCatalog_LaterEntryWins(t *testing.T) {
	catalog := NewCatalog(1)

	catalog.Add(model.Coupon{Code: "DUP", Type: model.CouponTypeFixed, Value: decimal.NewFromInt(5)})
	catalog.Add(model.Coupon{Code: "dup", Type: model.CouponTypeFixed, Value: decimal.NewFromInt(7)})

	assert.Equal(t, 1, catalog.Size())
	c, _ := catalog.Get("DUP")
	assert.True(t, decimal.NewFromInt(7).Equal(c.Value))
}

func TestCatalog_CouponsSorted(t *testing.T) {
	catalog := NewCatalog(3)
	for _, code := range []string{"ZETA", "ALFA", "MEIO"} {
		catalog.Add(model.Coupon{Code: code, Type: model.CouponTypeFixed})
	}

	var codes []string
	for _, c := range catalog.Coupons() {
		codes = append(codes, c.Code)
	}
	assert.Equal(t, []string{"ALFA", "MEIO", "ZETA"}, codes)
}

func TestCatalog_Select(t *testing.T) {
	catalog := NewCatalog(3)
	for _, code := range []string{"ZETA", "ALFA", "MEIO"} {
		catalog.Add(model.Coupon{Code: code, Type: model.CouponTypeFixed})
	}

	subset, missing := catalog.Select([]string{"alfa", " zeta ", "", "nada"})

	assert.Equal(t, 2, subset.Size())
	_, ok := subset.Get("MEIO")
	assert.False(t, ok)
	assert.Equal(t, []string{"NADA"}, missing)
	assert.Equal(t, 3, catalog.Size())
}

func TestReadCatalog(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		size     int
		errMatch string
	}{
		{
			name: "Valid lines with blanks",
			input: `{"code":"bemvindo10","type":"percent","value":10,"min_subtotal":100,"max_uses":50}

{"code":"FRETEGRATIS","type":"free_shipping","ends_at":"2030-01-01T00:00:00Z"}
{"code":"DESC20","type":"fixed","value":"20.00","is_active":false}
`,
			size: 3,
		},
		{
			name:     "Malformed JSON",
			input:    "{\"code\":\"A\",\"type\":\"percent\"}\nnot json\n",
			errMatch: "line 2",
		},
		{
			name:     "Unknown type",
			input:    `{"code":"A","type":"bogus"}`,
			errMatch: "unknown type",
		},
		{
			name:     "Missing code",
			input:    `{"type":"fixed","value":5}`,
			errMatch: "coupon code is required",
		},
		{
			name:     "Percent over one hundred",
			input:    `{"code":"ALL","type":"percent","value":150}`,
			errMatch: "exceeds 100 percent",
		},
		{
			name:     "Negative value",
			input:    `{"code":"NEG","type":"fixed","value":-1}`,
			errMatch: "negative terms",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			catalog, err := readCatalog(context.Background(), strings.NewReader(tt.input))
			if tt.errMatch != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMatch)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.size, catalog.Size())
		})
	}
}

func TestReadCatalog_Defaults(t *testing.T) {
	catalog, err := readCatalog(context.Background(), strings.NewReader(
		`{"code":"desc20","type":"FIXED","value":20}`+"\n"+`{"code":"off","type":"fixed","value":5,"is_active":false}`,
	))
	require.NoError(t, err)

	c, ok := catalog.Get("DESC20")
	require.True(t, ok)
	assert.Equal(t, model.CouponTypeFixed, c.Type)
	assert.True(t, c.IsActive)
	assert.Nil(t, c.EndsAt)
	assert.Zero(t, c.MaxUses)

	off, ok := catalog.Get("OFF")
	require.True(t, ok)
	assert.False(t, off.IsActive)
}

func TestReadCatalog_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := readCatalog(ctx, strings.NewReader(`{"code":"A","type":"fixed"}`))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDiscount(t *testing.T) {
	d := decimal.RequireFromString

	tests := []struct {
		name     string
		coupon   *model.ValidCoupon
		subtotal string
		shipping string
		expected string
	}{
		{
			name:     "Percent of subtotal",
			coupon:   &model.ValidCoupon{Type: model.CouponTypePercent, Value: d("10")},
			subtotal: "179.80",
			shipping: "22.50",
			expected: "17.98",
		},
		{
			name:     "Percent rounds to cents",
			coupon:   &model.ValidCoupon{Type: model.CouponTypePercent, Value: d("15")},
			subtotal: "33.33",
			shipping: "0",
			expected: "5",
		},
		{
			name:     "Fixed below subtotal",
			coupon:   &model.ValidCoupon{Type: model.CouponTypeFixed, Value: d("20")},
			subtotal: "100",
			shipping: "10",
			expected: "20",
		},
		{
			name:     "Fixed capped at subtotal",
			coupon:   &model.ValidCoupon{Type: model.CouponTypeFixed, Value: d("50")},
			subtotal: "30",
			shipping: "10",
			expected: "30",
		},
		{
			name:     "Free shipping covers shipping",
			coupon:   &model.ValidCoupon{Type: model.CouponTypeFreeShipping},
			subtotal: "100",
			shipping: "22.50",
			expected: "22.5",
		},
		{
			name:     "No coupon",
			subtotal: "100",
			shipping: "10",
			expected: "0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Discount(tt.coupon, d(tt.subtotal), d(tt.shipping))
			assert.True(t, d(tt.expected).Equal(got), "got %s", got)
		})
	}
}
