package handler

import (
	"net/http"

	"storefront/internal/coupon"
	"storefront/internal/model"

	"github.com/rs/zerolog"
)

// CouponHandler handles coupon validation requests.
type CouponHandler struct {
	validator coupon.Validator
	logger    zerolog.Logger
}

// NewCouponHandler creates a new coupon handler.
func NewCouponHandler(validator coupon.Validator, logger zerolog.Logger) *CouponHandler {
	return &CouponHandler{
		validator: validator,
		logger:    logger.With().Str("handler", "coupon").Logger(),
	}
}

// Validate handles POST /api/coupons/validate requests.
func (h *CouponHandler) Validate(w http.ResponseWriter, r *http.Request) {
	var req model.CouponValidationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err, h.logger)
		return
	}

	valid, err := h.validator.Validate(r.Context(), req.Code, req.Subtotal)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, valid)
}
