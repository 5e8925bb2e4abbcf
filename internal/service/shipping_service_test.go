package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"storefront/internal/carrier"
	"storefront/internal/model"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockQuoteCache is a mock implementation of QuoteCache.
type MockQuoteCache struct {
	mock.Mock
}

func (m *MockQuoteCache) Get(ctx context.Context, postalCode string, totalWeightG int) (*model.ShippingQuoteCacheEntry, error) {
	args := m.Called(ctx, postalCode, totalWeightG)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ShippingQuoteCacheEntry), args.Error(1)
}

func (m *MockQuoteCache) Put(ctx context.Context, entry *model.ShippingQuoteCacheEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

// MockCarrier is a mock implementation of carrier.Client.
type MockCarrier struct {
	mock.Mock
}

func (m *MockCarrier) Quote(ctx context.Context, req carrier.QuoteRequest) ([]model.ShippingOption, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ShippingOption), args.Error(1)
}

var shippingNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func testRules() ShippingRules {
	return ShippingRules{
		OriginPostalCode:  "01001000",
		PickupPostalCodes: []string{"88010000"},
		FreeThreshold:     dec("299.00"),
		CacheTTL:          30 * time.Minute,
	}
}

func carrierOptions() []model.ShippingOption {
	return []model.ShippingOption{
		{ID: "1", Name: "PAC", Price: dec("22.50"), DeliveryTimeDays: 8},
		{ID: "2", Name: "SEDEX", Price: dec("41.90"), DeliveryTimeDays: 3},
	}
}

type shippingFixture struct {
	variants *MockVariantRepository
	cache    *MockQuoteCache
	carrier  *MockCarrier
	service  ShippingService
}

func newShippingFixture(rules ShippingRules) *shippingFixture {
	f := &shippingFixture{
		variants: new(MockVariantRepository),
		cache:    new(MockQuoteCache),
		carrier:  new(MockCarrier),
	}
	f.service = NewShippingServiceWithClock(f.variants, f.cache, f.carrier, rules,
		func() time.Time { return shippingNow }, zerolog.Nop())
	return f
}

func weight(g int) *int { return &g }

func quoteRequest(cep string, items ...model.ShippingQuoteItem) *model.ShippingQuoteRequest {
	return &model.ShippingQuoteRequest{PostalCode: cep, Items: items}
}

func TestShippingService_Quote_CarrierMissPopulatesCache(t *testing.T) {
	ctx := context.Background()
	f := newShippingFixture(testRules())

	f.variants.On("GetByIDs", ctx, []int64{1, 2}).Return([]model.Variant{
		{ID: 1, Price: dec("50.00"), WeightG: weight(300)},
		{ID: 2, Price: dec("20.00")},
	}, nil)
	// 300*2 + 100 (default) = 700 g
	f.cache.On("Get", ctx, "30140071", 700).Return(nil, nil)
	f.carrier.On("Quote", ctx, carrier.QuoteRequest{
		OriginPostalCode:      "01001000",
		DestinationPostalCode: "30140071",
		WeightG:               700,
	}).Return(carrierOptions(), nil)
	f.cache.On("Put", ctx, mock.MatchedBy(func(e *model.ShippingQuoteCacheEntry) bool {
		return e.PostalCode == "30140071" && e.TotalWeightG == 700 && len(e.Options) == 2 && e.CreatedAt.Equal(shippingNow)
	})).Return(nil)

	options, err := f.service.Quote(ctx, quoteRequest("30140071",
		model.ShippingQuoteItem{VariantID: 1, Quantity: 2},
		model.ShippingQuoteItem{VariantID: 2, Quantity: 1},
	))

	require.NoError(t, err)
	assert.Equal(t, carrierOptions(), options)
	f.variants.AssertExpectations(t)
	f.cache.AssertExpectations(t)
	f.carrier.AssertExpectations(t)
}

func TestShippingService_Quote_DuplicateVariantsQueriedOnce(t *testing.T) {
	ctx := context.Background()
	f := newShippingFixture(testRules())

	f.variants.On("GetByIDs", ctx, []int64{1}).Return([]model.Variant{{ID: 1, Price: dec("10.00")}}, nil)
	f.cache.On("Get", ctx, "30140071", 300).Return(nil, nil)
	f.carrier.On("Quote", ctx, mock.Anything).Return(carrierOptions(), nil)
	f.cache.On("Put", ctx, mock.Anything).Return(nil)

	_, err := f.service.Quote(ctx, quoteRequest("30140071",
		model.ShippingQuoteItem{VariantID: 1, Quantity: 1},
		model.ShippingQuoteItem{VariantID: 1, Quantity: 2},
	))

	require.NoError(t, err)
	f.variants.AssertNumberOfCalls(t, "GetByIDs", 1)
}

func TestShippingService_Quote_FreshCacheSkipsCarrier(t *testing.T) {
	ctx := context.Background()
	f := newShippingFixture(testRules())

	f.variants.On("GetByIDs", ctx, []int64{1}).Return([]model.Variant{{ID: 1, Price: dec("10.00")}}, nil)
	f.cache.On("Get", ctx, "30140071", 100).Return(&model.ShippingQuoteCacheEntry{
		PostalCode:   "30140071",
		TotalWeightG: 100,
		Options:      carrierOptions(),
		CreatedAt:    shippingNow.Add(-29 * time.Minute),
	}, nil)

	options, err := f.service.Quote(ctx, quoteRequest("30140071", model.ShippingQuoteItem{VariantID: 1, Quantity: 1}))

	require.NoError(t, err)
	assert.Equal(t, carrierOptions(), options)
	f.carrier.AssertNotCalled(t, "Quote", mock.Anything, mock.Anything)
	f.cache.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
}

func TestShippingService_Quote_StaleCacheRefreshes(t *testing.T) {
	ctx := context.Background()
	f := newShippingFixture(testRules())

	stale := []model.ShippingOption{{ID: "9", Name: "Old", Price: dec("99.00"), DeliveryTimeDays: 20}}

	f.variants.On("GetByIDs", ctx, []int64{1}).Return([]model.Variant{{ID: 1, Price: dec("10.00")}}, nil)
	f.cache.On("Get", ctx, "30140071", 100).Return(&model.ShippingQuoteCacheEntry{
		PostalCode:   "30140071",
		TotalWeightG: 100,
		Options:      stale,
		CreatedAt:    shippingNow.Add(-30 * time.Minute),
	}, nil)
	f.carrier.On("Quote", ctx, mock.Anything).Return(carrierOptions(), nil)
	f.cache.On("Put", ctx, mock.Anything).Return(nil)

	options, err := f.service.Quote(ctx, quoteRequest("30140071", model.ShippingQuoteItem{VariantID: 1, Quantity: 1}))

	require.NoError(t, err)
	assert.Equal(t, carrierOptions(), options)
	f.carrier.AssertExpectations(t)
}

func TestShippingService_Quote_CacheErrorsAreNotFatal(t *testing.T) {
	ctx := context.Background()
	f := newShippingFixture(testRules())

	f.variants.On("GetByIDs", ctx, []int64{1}).Return([]model.Variant{{ID: 1, Price: dec("10.00")}}, nil)
	f.cache.On("Get", ctx, "30140071", 100).Return(nil, errors.New("connection refused"))
	f.carrier.On("Quote", ctx, mock.Anything).Return(carrierOptions(), nil)
	f.cache.On("Put", ctx, mock.Anything).Return(errors.New("connection refused"))

	options, err := f.service.Quote(ctx, quoteRequest("30140071", model.ShippingQuoteItem{VariantID: 1, Quantity: 1}))

	require.NoError(t, err)
	assert.Equal(t, carrierOptions(), options)
}

func TestShippingService_Quote_PickupAndCarrierDegraded(t *testing.T) {
	ctx := context.Background()
	f := newShippingFixture(testRules())

	f.variants.On("GetByIDs", ctx, []int64{1}).Return([]model.Variant{{ID: 1, Price: dec("10.00")}}, nil)
	f.cache.On("Get", ctx, "88010000", 100).Return(nil, nil)
	f.carrier.On("Quote", ctx, mock.Anything).Return(nil, fmt.Errorf("%w: status 503", carrier.ErrUnavailable))

	options, err := f.service.Quote(ctx, quoteRequest("88010000", model.ShippingQuoteItem{VariantID: 1, Quantity: 1}))

	require.NoError(t, err)
	require.Len(t, options, 1)
	assert.Equal(t, model.ShippingOptionPickup, options[0].ID)
	assert.True(t, options[0].Price.IsZero())
	assert.Equal(t, 0, options[0].DeliveryTimeDays)
	f.cache.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
}

func TestShippingService_Quote_CarrierDownNoLocalOptions(t *testing.T) {
	ctx := context.Background()
	f := newShippingFixture(testRules())

	f.variants.On("GetByIDs", ctx, []int64{1}).Return([]model.Variant{{ID: 1, Price: dec("10.00")}}, nil)
	f.cache.On("Get", ctx, "30140071", 100).Return(nil, nil)
	f.carrier.On("Quote", ctx, mock.Anything).Return(nil, carrier.ErrUnavailable)

	options, err := f.service.Quote(ctx, quoteRequest("30140071", model.ShippingQuoteItem{VariantID: 1, Quantity: 1}))

	require.NoError(t, err)
	assert.Empty(t, options)
}

func TestShippingService_Quote_FreeShippingShortCircuits(t *testing.T) {
	ctx := context.Background()
	f := newShippingFixture(testRules())

	f.variants.On("GetByIDs", ctx, []int64{1}).Return([]model.Variant{{ID: 1, Price: dec("149.50")}}, nil)

	options, err := f.service.Quote(ctx, quoteRequest("88010000", model.ShippingQuoteItem{VariantID: 1, Quantity: 2}))

	require.NoError(t, err)
	require.Len(t, options, 2)
	assert.Equal(t, model.ShippingOptionPickup, options[0].ID)
	assert.Equal(t, model.ShippingOptionFree, options[1].ID)
	assert.Equal(t, 5, options[1].DeliveryTimeDays)
	assert.True(t, options[1].Price.IsZero())
	f.cache.AssertNotCalled(t, "Get", mock.Anything, mock.Anything, mock.Anything)
	f.carrier.AssertNotCalled(t, "Quote", mock.Anything, mock.Anything)
}

func TestShippingService_Quote_VariantNotFound(t *testing.T) {
	ctx := context.Background()
	f := newShippingFixture(testRules())

	f.variants.On("GetByIDs", ctx, []int64{1, 2}).Return([]model.Variant{{ID: 1, Price: dec("10.00")}}, nil)

	options, err := f.service.Quote(ctx, quoteRequest("30140071",
		model.ShippingQuoteItem{VariantID: 1, Quantity: 1},
		model.ShippingQuoteItem{VariantID: 2, Quantity: 1},
	))

	assert.ErrorIs(t, err, model.ErrVariantNotFound)
	assert.Nil(t, options)
	f.carrier.AssertNotCalled(t, "Quote", mock.Anything, mock.Anything)
}

func TestShippingService_Quote_RepositoryError(t *testing.T) {
	ctx := context.Background()
	f := newShippingFixture(testRules())

	f.variants.On("GetByIDs", ctx, []int64{1}).Return(nil, errors.New("database error"))

	_, err := f.service.Quote(ctx, quoteRequest("30140071", model.ShippingQuoteItem{VariantID: 1, Quantity: 1}))

	require.Error(t, err)
	_, isDomain := model.AsDomainError(err)
	assert.False(t, isDomain)
}

func TestShippingService_Quote_Validation(t *testing.T) {
	ctx := context.Background()
	f := newShippingFixture(testRules())

	tests := []struct {
		name string
		req  *model.ShippingQuoteRequest
	}{
		{name: "nil request", req: nil},
		{name: "short postal code", req: quoteRequest("1234567", model.ShippingQuoteItem{VariantID: 1, Quantity: 1})},
		{name: "letters in postal code", req: quoteRequest("3014007a", model.ShippingQuoteItem{VariantID: 1, Quantity: 1})},
		{name: "hyphenated postal code", req: quoteRequest("30140-071", model.ShippingQuoteItem{VariantID: 1, Quantity: 1})},
		{name: "hyphens between every digit", req: quoteRequest("0-1-3-1-0-0-0-0", model.ShippingQuoteItem{VariantID: 1, Quantity: 1})},
		{name: "padded postal code", req: quoteRequest(" 01310000 ", model.ShippingQuoteItem{VariantID: 1, Quantity: 1})},
		{name: "no items", req: quoteRequest("30140071")},
		{name: "zero quantity", req: quoteRequest("30140071", model.ShippingQuoteItem{VariantID: 1, Quantity: 0})},
		{name: "missing variant", req: quoteRequest("30140071", model.ShippingQuoteItem{Quantity: 1})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var before string
			if tt.req != nil {
				before = tt.req.PostalCode
			}

			options, err := f.service.Quote(ctx, tt.req)
			assert.ErrorIs(t, err, model.ErrValidationFailed)
			assert.Nil(t, options)
			if tt.req != nil {
				assert.Equal(t, before, tt.req.PostalCode)
			}
		})
	}

	f.variants.AssertNotCalled(t, "GetByIDs", mock.Anything, mock.Anything)
}
