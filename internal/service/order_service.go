package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"storefront/internal/coupon"
	"storefront/internal/model"
	"storefront/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// orderService implements OrderService.
type orderService struct {
	orderRepo   repository.OrderRepository
	variantRepo repository.VariantRepository
	validator   coupon.Validator
	now         func() time.Time
	logger      zerolog.Logger
}

// NewOrderService creates a new order service.
func NewOrderService(
	orderRepo repository.OrderRepository,
	variantRepo repository.VariantRepository,
	validator coupon.Validator,
	logger zerolog.Logger,
) OrderService {
	return &orderService{
		orderRepo:   orderRepo,
		variantRepo: variantRepo,
		validator:   validator,
		now:         time.Now,
		logger:      logger.With().Str("service", "order").Logger(),
	}
}

// CreateOrder snapshots the cart into a new order owned by userID.
// Prices come from the catalog and any coupon is re-validated against the catalog subtotal.
func (s *orderService) CreateOrder(ctx context.Context, userID string, req *model.CreateOrderRequest) (*model.CreateOrderResponse, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, model.ErrUnauthorised
	}

	if err := s.validateOrderRequest(req); err != nil {
		return nil, err
	}

	prices, err := s.catalogPrices(ctx, req.Items)
	if err != nil {
		return nil, err
	}

	orderID := uuid.New()
	items := make([]model.OrderItem, len(req.Items))
	subtotal := decimal.Zero
	for i, line := range req.Items {
		price := prices[line.VariantID]
		if !price.Equal(line.Price) {
			s.logger.Warn().
				Int64("variant_id", line.VariantID).
				Str("cart_price", line.Price.String()).
				Str("catalog_price", price.String()).
				Msg("cart price differs from catalog, using catalog price")
		}

		items[i] = model.OrderItem{
			ID:           uuid.New(),
			OrderID:      orderID,
			VariantID:    line.VariantID,
			ProductID:    line.ProductID,
			NameSnapshot: strings.TrimSpace(line.Name),
			Color:        line.Color,
			Size:         line.Size,
			UnitPrice:    price,
			Quantity:     line.Quantity,
		}
		subtotal = subtotal.Add(price.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}

	var couponCode *string
	discount := decimal.Zero
	if req.CouponCode != nil && strings.TrimSpace(*req.CouponCode) != "" {
		valid, err := s.validator.Validate(ctx, *req.CouponCode, subtotal)
		if err != nil {
			s.logger.Warn().
				Str("coupon_code", *req.CouponCode).
				Err(err).
				Msg("invalid coupon code")
			return nil, err
		}
		couponCode = &valid.Code
		discount = coupon.Discount(valid, subtotal, req.ShippingCost)
		s.logger.Debug().Str("coupon_code", valid.Code).Str("discount", discount.String()).Msg("coupon applied")
	}

	total := subtotal.Add(req.ShippingCost).Sub(discount)
	if total.IsNegative() {
		total = decimal.Zero
	}

	now := s.now()
	order := &model.Order{
		ID:            orderID,
		UserID:        userID,
		Status:        model.OrderStatusCreated,
		PaymentStatus: model.PaymentStatusPending,
		Subtotal:      subtotal,
		ShippingCost:  req.ShippingCost,
		DiscountTotal: discount,
		TotalPaid:     total,
		CouponCode:    couponCode,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.orderRepo.CreateWithItems(ctx, order, items); err != nil {
		s.logger.Error().
			Err(err).
			Str("order_id", orderID.String()).
			Str("user_id", userID).
			Msg("order creation failed")
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	s.logger.Info().
		Str("order_id", orderID.String()).
		Int("item_count", len(items)).
		Str("total", total.String()).
		Msg("order created successfully")

	return &model.CreateOrderResponse{OrderID: orderID}, nil
}

// GetOrder retrieves an order with its items. Orders of other users are reported as not found.
func (s *orderService) GetOrder(ctx context.Context, userID string, orderID uuid.UUID) (*model.OrderResponse, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, model.ErrUnauthorised
	}

	order, items, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", orderID.String()).Msg("failed to get order")
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	if order == nil || order.UserID != userID {
		s.logger.Debug().Str("order_id", orderID.String()).Msg("order not found")
		return nil, model.ErrOrderNotFound
	}

	return &model.OrderResponse{Order: *order, Items: items}, nil
}

// catalogPrices returns the current price of every variant in the cart.
func (s *orderService) catalogPrices(ctx context.Context, lines []model.CartLine) (map[int64]decimal.Decimal, error) {
	ids := make([]int64, 0, len(lines))
	seen := make(map[int64]struct{}, len(lines))
	for _, line := range lines {
		if _, ok := seen[line.VariantID]; ok {
			continue
		}
		seen[line.VariantID] = struct{}{}
		ids = append(ids, line.VariantID)
	}

	variants, err := s.variantRepo.GetByIDs(ctx, ids)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to load variants")
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	prices := make(map[int64]decimal.Decimal, len(variants))
	for _, v := range variants {
		prices[v.ID] = v.Price
	}

	for _, id := range ids {
		if _, ok := prices[id]; !ok {
			s.logger.Warn().Int64("variant_id", id).Msg("variant not found")
			return nil, model.ErrVariantNotFound
		}
	}

	return prices, nil
}

// validateOrderRequest validates the order request.
func (s *orderService) validateOrderRequest(req *model.CreateOrderRequest) error {
	if req == nil {
		return model.ErrValidationFailed
	}

	if len(req.Items) == 0 {
		return model.Validationf("order must contain at least one item")
	}

	if req.ShippingCost.IsNegative() {
		return model.Validationf("shipping cost cannot be negative")
	}

	for i, item := range req.Items {
		if item.VariantID <= 0 || item.ProductID <= 0 {
			return model.Validationf("item %d: variant_id and product_id are required", i)
		}

		if strings.TrimSpace(item.Name) == "" {
			return model.Validationf("item %d: name is required", i)
		}

		if item.Price.IsNegative() {
			return model.Validationf("item %d: price cannot be negative", i)
		}

		if item.Quantity < 1 {
			s.logger.Warn().
				Int("item_index", i).
				Int64("variant_id", item.VariantID).
				Int("quantity", item.Quantity).
				Msg("invalid quantity")
			return model.Validationf("item %d: quantity must be at least 1", i)
		}
	}

	return nil
}
