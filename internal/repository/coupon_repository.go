package repository

import (
	"context"
	"errors"
	"fmt"

	"storefront/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// couponRepository implements the CouponRepository interface using PostgreSQL.
type couponRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewCouponRepository creates a new PostgreSQL-backed coupon repository.
func NewCouponRepository(pool *pgxpool.Pool, logger zerolog.Logger) CouponRepository {
	return &couponRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "coupon").Logger(),
	}
}

// GetByCode retrieves a coupon by its canonical code.
func (r *couponRepository) GetByCode(ctx context.Context, code string) (*model.Coupon, error) {
	query := `
		SELECT id, code, type, value, min_subtotal, max_uses, used_count, ends_at, is_active, created_at
		FROM coupons
		WHERE code = $1
	`

	var c model.Coupon
	err := r.pool.QueryRow(ctx, query, model.CanonicalCouponCode(code)).Scan(
		&c.ID,
		&c.Code,
		&c.Type,
		&c.Value,
		&c.MinSubtotal,
		&c.MaxUses,
		&c.UsedCount,
		&c.EndsAt,
		&c.IsActive,
		&c.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Str("coupon_code", code).Msg("coupon not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("coupon_code", code).Msg("failed to query coupon")
		return nil, fmt.Errorf("failed to query coupon: %w", err)
	}

	return &c, nil
}

// Upsert inserts or replaces coupons keyed by code. Usage counts of existing rows are preserved.
func (r *couponRepository) Upsert(ctx context.Context, coupons []model.Coupon) (int, error) {
	if len(coupons) == 0 {
		return 0, nil
	}

	query := `
		INSERT INTO coupons (id, code, type, value, min_subtotal, max_uses, used_count, ends_at, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (code) DO UPDATE SET
			type = EXCLUDED.type,
			value = EXCLUDED.value,
			min_subtotal = EXCLUDED.min_subtotal,
			max_uses = EXCLUDED.max_uses,
			ends_at = EXCLUDED.ends_at,
			is_active = EXCLUDED.is_active
	`

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to begin transaction")
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, c := range coupons {
		batch.Queue(query,
			c.ID,
			model.CanonicalCouponCode(c.Code),
			c.Type,
			c.Value,
			c.MinSubtotal,
			c.MaxUses,
			c.UsedCount,
			c.EndsAt,
			c.IsActive,
			c.CreatedAt,
		)
	}

	results := tx.SendBatch(ctx, batch)
	for i := range coupons {
		if _, err := results.Exec(); err != nil {
			results.Close()
			r.logger.Error().Err(err).Str("coupon_code", coupons[i].Code).Msg("failed to upsert coupon")
			return 0, fmt.Errorf("failed to upsert coupon %s: %w", coupons[i].Code, err)
		}
	}
	if err := results.Close(); err != nil {
		return 0, fmt.Errorf("failed to close batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		r.logger.Error().Err(err).Msg("failed to commit coupon upsert")
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	r.logger.Info().Int("count", len(coupons)).Msg("coupons upserted")

	return len(coupons), nil
}
