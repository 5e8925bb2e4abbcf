package repository

import (
	"context"

	"storefront/internal/model"

	"github.com/google/uuid"
)

// VariantRepository defines read access to the sellable variants of the catalog.
type VariantRepository interface {
	// GetByIDs retrieves the variants with the given IDs. Missing IDs are simply absent from the result.
	GetByIDs(ctx context.Context, ids []int64) ([]model.Variant, error)
}

// CouponRepository defines the interface for coupon data access operations.
type CouponRepository interface {
	// GetByCode retrieves a coupon by its canonical code. Returns nil when no coupon matches.
	GetByCode(ctx context.Context, code string) (*model.Coupon, error)

	// Upsert inserts or replaces coupons keyed by code and returns how many rows were written.
	Upsert(ctx context.Context, coupons []model.Coupon) (int, error)
}

// OrderRepository defines the interface for order data access operations.
type OrderRepository interface {
	// CreateWithItems inserts the order and all of its items in a single transaction.
	CreateWithItems(ctx context.Context, order *model.Order, items []model.OrderItem) error

	// GetByID retrieves an order by its ID along with its items. Returns nil when the order does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Order, []model.OrderItem, error)

	// ApplyPaymentUpdate moves the order to the state implied by the gateway's payment status.
	// The boolean result reports whether the row changed.
	ApplyPaymentUpdate(ctx context.Context, update model.PaymentUpdate) (*model.Order, bool, error)
}

// QuoteCache stores carrier quote batches keyed by destination postal code and package weight.
type QuoteCache interface {
	// Get returns the cached entry or nil on a miss. Freshness is left to the caller.
	Get(ctx context.Context, postalCode string, totalWeightG int) (*model.ShippingQuoteCacheEntry, error)

	// Put overwrites the entry for its key.
	Put(ctx context.Context, entry *model.ShippingQuoteCacheEntry) error
}
