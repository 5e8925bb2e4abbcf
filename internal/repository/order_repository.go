package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// orderRepository implements the OrderRepository interface using PostgreSQL.
type orderRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
	now    func() time.Time
}

// NewOrderRepository creates a new PostgreSQL-backed order repository.
func NewOrderRepository(pool *pgxpool.Pool, logger zerolog.Logger) OrderRepository {
	return &orderRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "order").Logger(),
		now:    time.Now,
	}
}

const orderColumns = `id, user_id, status, payment_status, subtotal, shipping_cost, discount_total,
		total_paid, coupon_code, payment_id, created_at, updated_at`

// CreateWithItems inserts the order and its items atomically.
func (r *orderRepository) CreateWithItems(ctx context.Context, order *model.Order, items []model.OrderItem) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to begin transaction")
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := r.createOrder(ctx, tx, order); err != nil {
		return err
	}

	if err := r.createOrderItems(ctx, tx, items); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		r.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to commit order")
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	r.logger.Debug().
		Str("order_id", order.ID.String()).
		Int("items", len(items)).
		Msg("order created successfully")

	return nil
}

func (r *orderRepository) createOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error {
	query := `
		INSERT INTO orders (` + orderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := tx.Exec(ctx, query,
		order.ID,
		order.UserID,
		order.Status,
		order.PaymentStatus,
		order.Subtotal,
		order.ShippingCost,
		order.DiscountTotal,
		order.TotalPaid,
		order.CouponCode,
		order.PaymentID,
		order.CreatedAt,
		order.UpdatedAt,
	)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("order_id", order.ID.String()).
			Msg("failed to create order")
		return fmt.Errorf("failed to create order: %w", err)
	}

	return nil
}

func (r *orderRepository) createOrderItems(ctx context.Context, tx pgx.Tx, items []model.OrderItem) error {
	if len(items) == 0 {
		return nil
	}

	query := `
		INSERT INTO order_items (id, order_id, variant_id, product_id, name_snapshot, color, size, unit_price, quantity)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	batch := &pgx.Batch{}
	for _, item := range items {
		batch.Queue(query,
			item.ID,
			item.OrderID,
			item.VariantID,
			item.ProductID,
			item.NameSnapshot,
			item.Color,
			item.Size,
			item.UnitPrice,
			item.Quantity,
		)
	}

	results := tx.SendBatch(ctx, batch)
	defer results.Close()

	for i := range items {
		if _, err := results.Exec(); err != nil {
			r.logger.Error().
				Err(err).
				Str("order_id", items[i].OrderID.String()).
				Int64("variant_id", items[i].VariantID).
				Msg("failed to create order item")
			return fmt.Errorf("failed to create order item: %w", err)
		}
	}

	return nil
}

// GetByID retrieves an order by its ID along with its items.
func (r *orderRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, []model.OrderItem, error) {
	order, err := scanOrder(r.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Str("order_id", id.String()).Msg("order not found")
			return nil, nil, nil
		}
		r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to query order")
		return nil, nil, fmt.Errorf("failed to query order: %w", err)
	}

	itemsQuery := `
		SELECT id, order_id, variant_id, product_id, name_snapshot, color, size, unit_price, quantity
		FROM order_items
		WHERE order_id = $1
		ORDER BY name_snapshot, id
	`

	rows, err := r.pool.Query(ctx, itemsQuery, id)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("order_id", id.String()).
			Msg("failed to query order items")
		return nil, nil, fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	var items []model.OrderItem
	for rows.Next() {
		var item model.OrderItem
		err := rows.Scan(
			&item.ID,
			&item.OrderID,
			&item.VariantID,
			&item.ProductID,
			&item.NameSnapshot,
			&item.Color,
			&item.Size,
			&item.UnitPrice,
			&item.Quantity,
		)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan order item row")
			return nil, nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating order item rows")
		return nil, nil, fmt.Errorf("error iterating order items: %w", err)
	}

	return order, items, nil
}

// ApplyPaymentUpdate locks the order row, computes the next state and persists it in one transaction.
func (r *orderRepository) ApplyPaymentUpdate(ctx context.Context, update model.PaymentUpdate) (*model.Order, bool, error) {
	log := r.logger.With().
		Str("order_id", update.OrderID.String()).
		Str("payment_id", update.PaymentID).
		Str("payment_status", string(update.Status)).
		Logger()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		log.Error().Err(err).Msg("failed to begin transaction")
		return nil, false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	order, err := scanOrder(tx.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1 FOR UPDATE`, update.OrderID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			log.Warn().Msg("payment update for unknown order")
			return nil, false, model.ErrOrderNotFound
		}
		log.Error().Err(err).Msg("failed to lock order")
		return nil, false, fmt.Errorf("failed to lock order: %w", err)
	}

	current := model.OrderState{Status: order.Status, PaymentStatus: order.PaymentStatus}
	next, changed := model.NextOrderState(current, update.Status)
	if !changed {
		log.Info().
			Str("status", string(order.Status)).
			Msg("payment update leaves order unchanged")
		return order, false, nil
	}

	now := r.now().UTC()
	paymentID := update.PaymentID
	_, err = tx.Exec(ctx, `
		UPDATE orders
		SET status = $2, payment_status = $3, payment_id = $4, updated_at = $5
		WHERE id = $1
	`, order.ID, next.Status, next.PaymentStatus, paymentID, now)
	if err != nil {
		log.Error().Err(err).Msg("failed to update order status")
		return nil, false, fmt.Errorf("failed to update order status: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		log.Error().Err(err).Msg("failed to commit order status")
		return nil, false, fmt.Errorf("failed to commit transaction: %w", err)
	}

	order.Status = next.Status
	order.PaymentStatus = next.PaymentStatus
	order.PaymentID = &paymentID
	order.UpdatedAt = now

	log.Info().
		Str("from", string(current.Status)).
		Str("to", string(next.Status)).
		Msg("order status transitioned")

	return order, true, nil
}

func scanOrder(row pgx.Row) (*model.Order, error) {
	var o model.Order
	err := row.Scan(
		&o.ID,
		&o.UserID,
		&o.Status,
		&o.PaymentStatus,
		&o.Subtotal,
		&o.ShippingCost,
		&o.DiscountTotal,
		&o.TotalPaid,
		&o.CouponCode,
		&o.PaymentID,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}
