package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"storefront/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOrder(userID string) (*model.Order, []model.OrderItem) {
	now := time.Now().UTC().Truncate(time.Microsecond)
	orderID := uuid.New()
	order := &model.Order{
		ID:            orderID,
		UserID:        userID,
		Status:        model.OrderStatusCreated,
		PaymentStatus: model.PaymentStatusPending,
		Subtotal:      decimal.RequireFromString("179.80"),
		ShippingCost:  decimal.RequireFromString("22.50"),
		DiscountTotal: decimal.Zero,
		TotalPaid:     decimal.RequireFromString("202.30"),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	items := []model.OrderItem{
		{
			ID:           uuid.New(),
			OrderID:      orderID,
			VariantID:    1,
			ProductID:    10,
			NameSnapshot: "Camiseta Básica",
			Color:        "Preto",
			Size:         "M",
			UnitPrice:    decimal.RequireFromString("89.90"),
			Quantity:     2,
		},
	}
	return order, items
}

func insertOrder(t *testing.T, repo OrderRepository, userID string) *model.Order {
	t.Helper()
	order, items := newTestOrder(userID)
	require.NoError(t, repo.CreateWithItems(context.Background(), order, items))
	return order
}

func countOrders(t *testing.T, pool *pgxpool.Pool) (orders, items int) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM orders`).Scan(&orders))
	require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM order_items`).Scan(&items))
	return orders, items
}

func TestOrderRepository_CreateWithItems(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	repo := NewOrderRepository(pool, zerolog.Nop())

	order, items := newTestOrder("user-1")
	coupon := "BEMVINDO10"
	order.CouponCode = &coupon

	require.NoError(t, repo.CreateWithItems(ctx, order, items))

	got, gotItems, err := repo.GetByID(ctx, order.ID)
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, "user-1", got.UserID)
	assert.Equal(t, model.OrderStatusCreated, got.Status)
	assert.Equal(t, model.PaymentStatusPending, got.PaymentStatus)
	assert.True(t, order.TotalPaid.Equal(got.TotalPaid))
	require.NotNil(t, got.CouponCode)
	assert.Equal(t, coupon, *got.CouponCode)
	assert.Nil(t, got.PaymentID)

	require.Len(t, gotItems, 1)
	assert.Equal(t, "Camiseta Básica", gotItems[0].NameSnapshot)
	assert.Equal(t, 2, gotItems[0].Quantity)
	assert.True(t, decimal.RequireFromString("89.90").Equal(gotItems[0].UnitPrice))
}

func TestOrderRepository_CreateWithItems_IsAtomic(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	repo := NewOrderRepository(pool, zerolog.Nop())

	order, items := newTestOrder("user-1")
	bad := items[0]
	bad.ID = uuid.New()
	bad.Quantity = 0 // violates the CHECK constraint
	items = append(items, bad)

	err := repo.CreateWithItems(ctx, order, items)
	require.Error(t, err)

	orders, orderItems := countOrders(t, pool)
	assert.Zero(t, orders)
	assert.Zero(t, orderItems)
}

func TestOrderRepository_GetByID_NotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewOrderRepository(pool, zerolog.Nop())

	order, items, err := repo.GetByID(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Nil(t, order)
	assert.Nil(t, items)
}

func TestOrderRepository_ApplyPaymentUpdate(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	repo := NewOrderRepository(pool, zerolog.Nop())

	t.Run("Approved payment marks the order paid", func(t *testing.T) {
		order := insertOrder(t, repo, "user-1")

		updated, changed, err := repo.ApplyPaymentUpdate(ctx, model.PaymentUpdate{
			PaymentID: "123456",
			OrderID:   order.ID,
			Status:    model.PaymentStatusApproved,
		})
		require.NoError(t, err)
		assert.True(t, changed)
		assert.Equal(t, model.OrderStatusPaid, updated.Status)

		got, _, err := repo.GetByID(ctx, order.ID)
		require.NoError(t, err)
		assert.Equal(t, model.OrderStatusPaid, got.Status)
		assert.Equal(t, model.PaymentStatusApproved, got.PaymentStatus)
		require.NotNil(t, got.PaymentID)
		assert.Equal(t, "123456", *got.PaymentID)
	})

	t.Run("Replayed notification is a no-op", func(t *testing.T) {
		order := insertOrder(t, repo, "user-1")
		update := model.PaymentUpdate{PaymentID: "1", OrderID: order.ID, Status: model.PaymentStatusApproved}

		_, changed, err := repo.ApplyPaymentUpdate(ctx, update)
		require.NoError(t, err)
		require.True(t, changed)

		_, changed, err = repo.ApplyPaymentUpdate(ctx, update)
		require.NoError(t, err)
		assert.False(t, changed)
	})

	t.Run("Stale pending notification does not regress a paid order", func(t *testing.T) {
		order := insertOrder(t, repo, "user-1")

		_, _, err := repo.ApplyPaymentUpdate(ctx, model.PaymentUpdate{PaymentID: "1", OrderID: order.ID, Status: model.PaymentStatusApproved})
		require.NoError(t, err)

		_, changed, err := repo.ApplyPaymentUpdate(ctx, model.PaymentUpdate{PaymentID: "1", OrderID: order.ID, Status: model.PaymentStatusPending})
		require.NoError(t, err)
		assert.False(t, changed)

		got, _, err := repo.GetByID(ctx, order.ID)
		require.NoError(t, err)
		assert.Equal(t, model.OrderStatusPaid, got.Status)
	})

	t.Run("Unknown order", func(t *testing.T) {
		_, _, err := repo.ApplyPaymentUpdate(ctx, model.PaymentUpdate{PaymentID: "1", OrderID: uuid.New(), Status: model.PaymentStatusApproved})
		assert.ErrorIs(t, err, model.ErrOrderNotFound)
	})

	t.Run("Concurrent identical updates apply once", func(t *testing.T) {
		order := insertOrder(t, repo, "user-1")
		update := model.PaymentUpdate{PaymentID: "9", OrderID: order.ID, Status: model.PaymentStatusApproved}

		const workers = 8
		var (
			wg      sync.WaitGroup
			mu      sync.Mutex
			applied int
		)
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, changed, err := repo.ApplyPaymentUpdate(ctx, update)
				assert.NoError(t, err)
				if changed {
					mu.Lock()
					applied++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, 1, applied)
	})
}
