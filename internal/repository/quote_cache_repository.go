package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"storefront/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// quoteCacheRepository implements QuoteCache on the shipping_quotes table.
type quoteCacheRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewQuoteCacheRepository creates a PostgreSQL-backed shipping quote cache.
func NewQuoteCacheRepository(pool *pgxpool.Pool, logger zerolog.Logger) QuoteCache {
	return &quoteCacheRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "shipping_quote").Logger(),
	}
}

// Get retrieves the cached quotes for the key.
func (r *quoteCacheRepository) Get(ctx context.Context, postalCode string, totalWeightG int) (*model.ShippingQuoteCacheEntry, error) {
	query := `
		SELECT cep, total_weight_g, quotes, created_at
		FROM shipping_quotes
		WHERE cep = $1 AND total_weight_g = $2
	`

	var (
		entry model.ShippingQuoteCacheEntry
		raw   []byte
	)
	err := r.pool.QueryRow(ctx, query, postalCode, totalWeightG).Scan(
		&entry.PostalCode,
		&entry.TotalWeightG,
		&raw,
		&entry.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).Str("postal_code", postalCode).Msg("failed to query shipping quotes")
		return nil, fmt.Errorf("failed to query shipping quotes: %w", err)
	}

	if err := json.Unmarshal(raw, &entry.Options); err != nil {
		return nil, fmt.Errorf("failed to decode cached shipping quotes: %w", err)
	}

	return &entry, nil
}

// Put upserts the entry; concurrent writers for the same key overwrite each other.
func (r *quoteCacheRepository) Put(ctx context.Context, entry *model.ShippingQuoteCacheEntry) error {
	raw, err := json.Marshal(entry.Options)
	if err != nil {
		return fmt.Errorf("failed to encode shipping quotes: %w", err)
	}

	query := `
		INSERT INTO shipping_quotes (cep, total_weight_g, quotes, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (cep, total_weight_g) DO UPDATE SET
			quotes = EXCLUDED.quotes,
			created_at = EXCLUDED.created_at
	`

	if _, err := r.pool.Exec(ctx, query, entry.PostalCode, entry.TotalWeightG, raw, entry.CreatedAt); err != nil {
		r.logger.Error().Err(err).Str("postal_code", entry.PostalCode).Msg("failed to upsert shipping quotes")
		return fmt.Errorf("failed to upsert shipping quotes: %w", err)
	}

	return nil
}
