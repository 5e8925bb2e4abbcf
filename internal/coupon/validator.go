package coupon

import (
	"context"
	"fmt"
	"strings"
	"time"

	"storefront/internal/model"
	"storefront/internal/repository"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// validator implements Validator against the coupon repository.
type validator struct {
	repo   repository.CouponRepository
	now    func() time.Time
	logger zerolog.Logger
}

// NewValidator creates a new coupon validator.
func NewValidator(repo repository.CouponRepository, logger zerolog.Logger) Validator {
	return NewValidatorWithClock(repo, time.Now, logger)
}

// NewValidatorWithClock creates a coupon validator that evaluates expiry against now.
func NewValidatorWithClock(repo repository.CouponRepository, now func() time.Time, logger zerolog.Logger) Validator {
	return &validator{
		repo:   repo,
		now:    now,
		logger: logger.With().Str("component", "coupon-validator").Logger(),
	}
}

// Validate runs the coupon rules in order; the first failure wins.
func (v *validator) Validate(ctx context.Context, code string, subtotal decimal.Decimal) (*model.ValidCoupon, error) {
	if strings.TrimSpace(code) == "" {
		return nil, model.Validationf("coupon code is required")
	}
	if !subtotal.IsPositive() {
		return nil, model.Validationf("subtotal must be greater than zero")
	}

	canonical := model.CanonicalCouponCode(code)

	c, err := v.repo.GetByCode(ctx, canonical)
	if err != nil {
		return nil, fmt.Errorf("failed to look up coupon: %w", err)
	}
	if c == nil {
		v.logger.Debug().Str("coupon_code", canonical).Msg("coupon not found")
		return nil, model.ErrCouponNotFound
	}

	if err := v.check(c, subtotal); err != nil {
		v.logger.Debug().
			Str("coupon_code", canonical).
			Str("reason", err.Error()).
			Msg("coupon rejected")
		return nil, err
	}

	return c.Sanitise(), nil
}

func (v *validator) check(c *model.Coupon, subtotal decimal.Decimal) error {
	if !c.IsActive {
		return model.ErrCouponInactive
	}
	if c.EndsAt != nil && c.EndsAt.Before(v.now()) {
		return model.ErrCouponExpired
	}
	if c.MaxUses > 0 && c.UsedCount >= c.MaxUses {
		return model.ErrCouponExhausted
	}
	if c.MinSubtotal.IsPositive() && subtotal.LessThan(c.MinSubtotal) {
		return model.NewDomainError(
			model.ErrCodeCouponBelowMinimum,
			fmt.Sprintf("this coupon requires a minimum subtotal of %s", model.FormatBRL(c.MinSubtotal)),
		)
	}
	return nil
}
