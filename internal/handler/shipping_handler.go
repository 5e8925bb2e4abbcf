package handler

import (
	"net/http"

	"storefront/internal/model"
	"storefront/internal/service"

	"github.com/rs/zerolog"
)

// ShippingHandler handles shipping quote requests.
type ShippingHandler struct {
	service service.ShippingService
	logger  zerolog.Logger
}

// NewShippingHandler creates a new shipping handler.
func NewShippingHandler(service service.ShippingService, logger zerolog.Logger) *ShippingHandler {
	return &ShippingHandler{
		service: service,
		logger:  logger.With().Str("handler", "shipping").Logger(),
	}
}

// Quote handles POST /api/shipping/quote requests.
func (h *ShippingHandler) Quote(w http.ResponseWriter, r *http.Request) {
	var req model.ShippingQuoteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err, h.logger)
		return
	}

	options, err := h.service.Quote(r.Context(), &req)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, options)
}
