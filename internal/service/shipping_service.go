package service

import (
	"context"
	"fmt"
	"slices"
	"time"

	"storefront/internal/carrier"
	"storefront/internal/model"
	"storefront/internal/repository"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const freeShippingDays = 5

// ShippingRules are the store-local shipping settings.
type ShippingRules struct {
	OriginPostalCode  string
	PickupPostalCodes []string
	FreeThreshold     decimal.Decimal
	CacheTTL          time.Duration
}

type shippingService struct {
	variants repository.VariantRepository
	cache    repository.QuoteCache
	carrier  carrier.Client
	rules    ShippingRules
	now      func() time.Time
	logger   zerolog.Logger
}

// NewShippingService creates a shipping quote service.
func NewShippingService(
	variants repository.VariantRepository,
	cache repository.QuoteCache,
	carrierClient carrier.Client,
	rules ShippingRules,
	logger zerolog.Logger,
) ShippingService {
	return NewShippingServiceWithClock(variants, cache, carrierClient, rules, time.Now, logger)
}

// NewShippingServiceWithClock is NewShippingService with an injected clock for cache freshness.
func NewShippingServiceWithClock(
	variants repository.VariantRepository,
	cache repository.QuoteCache,
	carrierClient carrier.Client,
	rules ShippingRules,
	now func() time.Time,
	logger zerolog.Logger,
) ShippingService {
	if rules.CacheTTL <= 0 {
		rules.CacheTTL = 30 * time.Minute
	}
	return &shippingService{
		variants: variants,
		cache:    cache,
		carrier:  carrierClient,
		rules:    rules,
		now:      now,
		logger:   logger.With().Str("service", "shipping").Logger(),
	}
}

// Quote returns the local options followed by carrier options. A carrier failure degrades to local options only.
func (s *shippingService) Quote(ctx context.Context, req *model.ShippingQuoteRequest) ([]model.ShippingOption, error) {
	if err := validateQuoteRequest(req); err != nil {
		return nil, err
	}
	postalCode := req.PostalCode

	subtotal, weightG, err := s.measureCart(ctx, req.Items)
	if err != nil {
		return nil, err
	}

	options := make([]model.ShippingOption, 0, 2+carrier.MaxOptions)
	if slices.Contains(s.rules.PickupPostalCodes, postalCode) {
		options = append(options, model.ShippingOption{
			ID:   model.ShippingOptionPickup,
			Name: "Retirada em Loja",
		})
	}

	if subtotal.GreaterThanOrEqual(s.rules.FreeThreshold) {
		options = append(options, model.ShippingOption{
			ID:               model.ShippingOptionFree,
			Name:             "Frete Grátis",
			DeliveryTimeDays: freeShippingDays,
		})
		return options, nil
	}

	if cached := s.cachedOptions(ctx, postalCode, weightG); cached != nil {
		return append(options, cached...), nil
	}

	quoted, err := s.carrier.Quote(ctx, carrier.QuoteRequest{
		OriginPostalCode:      s.rules.OriginPostalCode,
		DestinationPostalCode: postalCode,
		WeightG:               weightG,
	})
	if err != nil {
		s.logger.Warn().
			Err(err).
			Str("postal_code", postalCode).
			Int("weight_g", weightG).
			Msg("carrier unavailable, returning local options only")
		return options, nil
	}

	entry := &model.ShippingQuoteCacheEntry{
		PostalCode:   postalCode,
		TotalWeightG: weightG,
		Options:      quoted,
		CreatedAt:    s.now(),
	}
	if err := s.cache.Put(ctx, entry); err != nil {
		s.logger.Error().
			Err(err).
			Str("postal_code", postalCode).
			Int("weight_g", weightG).
			Msg("failed to cache shipping quotes")
	}

	return append(options, quoted...), nil
}

// measureCart prices and weighs the cart from catalog data.
func (s *shippingService) measureCart(ctx context.Context, items []model.ShippingQuoteItem) (decimal.Decimal, int, error) {
	ids := distinctVariantIDs(items)
	variants, err := s.variants.GetByIDs(ctx, ids)
	if err != nil {
		s.logger.Error().Err(err).Int("variant_count", len(ids)).Msg("failed to load variants")
		return decimal.Zero, 0, fmt.Errorf("failed to quote shipping: %w", err)
	}

	byID := make(map[int64]model.Variant, len(variants))
	for _, v := range variants {
		byID[v.ID] = v
	}

	subtotal := decimal.Zero
	weightG := 0
	for _, item := range items {
		v, ok := byID[item.VariantID]
		if !ok {
			s.logger.Warn().Int64("variant_id", item.VariantID).Msg("variant not found")
			return decimal.Zero, 0, model.ErrVariantNotFound
		}

		subtotal = subtotal.Add(v.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))

		unitWeight := model.DefaultItemWeightG
		if v.WeightG != nil {
			unitWeight = *v.WeightG
		}
		weightG += unitWeight * item.Quantity
	}

	return subtotal, weightG, nil
}

// cachedOptions returns fresh cached carrier options, or nil. Read errors count as a miss.
func (s *shippingService) cachedOptions(ctx context.Context, postalCode string, weightG int) []model.ShippingOption {
	entry, err := s.cache.Get(ctx, postalCode, weightG)
	if err != nil {
		s.logger.Warn().Err(err).Str("postal_code", postalCode).Msg("shipping quote cache read failed")
		return nil
	}
	if !entry.IsFresh(s.now(), s.rules.CacheTTL) {
		return nil
	}

	s.logger.Debug().Str("postal_code", postalCode).Int("weight_g", weightG).Msg("shipping quote cache hit")
	if entry.Options == nil {
		return []model.ShippingOption{}
	}
	return entry.Options
}

func validateQuoteRequest(req *model.ShippingQuoteRequest) error {
	if req == nil {
		return model.ErrValidationFailed
	}

	if !model.ValidPostalCode(req.PostalCode) {
		return model.Validationf("postal code must be exactly 8 digits")
	}

	if len(req.Items) == 0 {
		return model.Validationf("at least one item is required")
	}

	for i, item := range req.Items {
		if item.VariantID <= 0 {
			return model.Validationf("item %d: variant_id is required", i)
		}
		if item.Quantity < 1 {
			return model.Validationf("item %d: quantity must be at least 1", i)
		}
	}

	return nil
}

func distinctVariantIDs(items []model.ShippingQuoteItem) []int64 {
	seen := make(map[int64]struct{}, len(items))
	ids := make([]int64, 0, len(items))
	for _, item := range items {
		if _, ok := seen[item.VariantID]; ok {
			continue
		}
		seen[item.VariantID] = struct{}{}
		ids = append(ids, item.VariantID)
	}
	return ids
}

