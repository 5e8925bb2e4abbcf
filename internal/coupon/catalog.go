package coupon

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"storefront/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Catalog is an in-memory set of coupons keyed by canonical code.
type Catalog struct {
	coupons map[string]model.Coupon
}

// NewCatalog creates an empty catalog.
func NewCatalog(capacity int) *Catalog {
	return &Catalog{
		coupons: make(map[string]model.Coupon, capacity),
	}
}

// Add inserts or replaces a coupon. Later entries for the same code win.
func (c *Catalog) Add(coupon model.Coupon) {
	coupon.Code = model.CanonicalCouponCode(coupon.Code)
	c.coupons[coupon.Code] = coupon
}

// Get looks a coupon up by code, case-insensitively.
func (c *Catalog) Get(code string) (model.Coupon, bool) {
	coupon, ok := c.coupons[model.CanonicalCouponCode(code)]
	return coupon, ok
}

// Select returns a catalog holding only the given codes, plus the codes that were
// not found. Blank codes are ignored.
func (c *Catalog) Select(codes []string) (*Catalog, []string) {
	out := NewCatalog(len(codes))
	var missing []string
	for _, code := range codes {
		if strings.TrimSpace(code) == "" {
			continue
		}
		coupon, ok := c.Get(code)
		if !ok {
			missing = append(missing, model.CanonicalCouponCode(code))
			continue
		}
		out.Add(coupon)
	}
	return out, missing
}

// Size returns the number of coupons in the catalog.
func (c *Catalog) Size() int {
	return len(c.coupons)
}

// Coupons returns the catalog contents ordered by code.
func (c *Catalog) Coupons() []model.Coupon {
	out := make([]model.Coupon, 0, len(c.coupons))
	for _, coupon := range c.coupons {
		out = append(out, coupon)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// catalogRecord is one line of a coupon catalog file.
type catalogRecord struct {
	Code        string          `json:"code"`
	Type        string          `json:"type"`
	Value       decimal.Decimal `json:"value"`
	MinSubtotal decimal.Decimal `json:"min_subtotal"`
	MaxUses     int             `json:"max_uses"`
	EndsAt      *time.Time      `json:"ends_at"`
	IsActive    *bool           `json:"is_active"`
}

func (r catalogRecord) toCoupon(now time.Time) (model.Coupon, error) {
	code := model.CanonicalCouponCode(r.Code)
	if code == "" {
		return model.Coupon{}, fmt.Errorf("coupon code is required")
	}
	typ := model.CouponType(strings.ToLower(strings.TrimSpace(r.Type)))
	if !typ.Valid() {
		return model.Coupon{}, fmt.Errorf("coupon %s has unknown type %q", code, r.Type)
	}
	if r.Value.IsNegative() || r.MinSubtotal.IsNegative() || r.MaxUses < 0 {
		return model.Coupon{}, fmt.Errorf("coupon %s has negative terms", code)
	}
	if typ == model.CouponTypePercent && r.Value.GreaterThan(hundred) {
		return model.Coupon{}, fmt.Errorf("coupon %s exceeds 100 percent", code)
	}

	active := true
	if r.IsActive != nil {
		active = *r.IsActive
	}

	return model.Coupon{
		ID:          uuid.New(),
		Code:        code,
		Type:        typ,
		Value:       r.Value,
		MinSubtotal: r.MinSubtotal,
		MaxUses:     r.MaxUses,
		EndsAt:      r.EndsAt,
		IsActive:    active,
		CreatedAt:   now,
	}, nil
}

// readCatalog decodes an uncompressed JSON-lines stream. Blank lines are skipped;
// any malformed line fails the whole load.
func readCatalog(ctx context.Context, r io.Reader) (*Catalog, error) {
	catalog := NewCatalog(1024)
	now := time.Now().UTC()

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if lineNo%10_000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var rec catalogRecord
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		coupon, err := rec.toCoupon(now)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		catalog.Add(coupon)
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return catalog, nil
}
