package repository

import (
	"context"
	"fmt"

	"storefront/internal/model"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// variantRepository implements the VariantRepository interface using PostgreSQL.
type variantRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewVariantRepository creates a new PostgreSQL-backed variant repository.
func NewVariantRepository(pool *pgxpool.Pool, logger zerolog.Logger) VariantRepository {
	return &variantRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "variant").Logger(),
	}
}

// GetByIDs retrieves multiple variants by their IDs.
func (r *variantRepository) GetByIDs(ctx context.Context, ids []int64) ([]model.Variant, error) {
	if len(ids) == 0 {
		return []model.Variant{}, nil
	}

	query := `
		SELECT id, product_id, price, weight_g
		FROM variants
		WHERE id = ANY($1)
		ORDER BY id
	`

	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		r.logger.Error().Err(err).Int("count", len(ids)).Msg("failed to query variants by IDs")
		return nil, fmt.Errorf("failed to query variants by IDs: %w", err)
	}
	defer rows.Close()

	variants := make([]model.Variant, 0, len(ids))
	for rows.Next() {
		var v model.Variant
		if err := rows.Scan(&v.ID, &v.ProductID, &v.Price, &v.WeightG); err != nil {
			r.logger.Error().Err(err).Msg("failed to scan variant row")
			return nil, fmt.Errorf("failed to scan variant: %w", err)
		}
		variants = append(variants, v)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating variant rows")
		return nil, fmt.Errorf("error iterating variants: %w", err)
	}

	return variants, nil
}
