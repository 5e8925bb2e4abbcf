package handler

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"storefront/internal/middleware"
	"storefront/internal/model"
	"storefront/internal/payment"
	"storefront/internal/service"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// PaymentHandler handles payment preference creation and gateway notifications.
type PaymentHandler struct {
	payments service.PaymentService
	webhooks service.WebhookService
	verifier *payment.SignatureVerifier
	logger   zerolog.Logger
}

// NewPaymentHandler creates a new payment handler. A nil verifier accepts unsigned notifications.
func NewPaymentHandler(
	payments service.PaymentService,
	webhooks service.WebhookService,
	verifier *payment.SignatureVerifier,
	logger zerolog.Logger,
) *PaymentHandler {
	return &PaymentHandler{
		payments: payments,
		webhooks: webhooks,
		verifier: verifier,
		logger:   logger.With().Str("handler", "payment").Logger(),
	}
}

// CreatePreference handles POST /api/payments/preference requests.
func (h *PaymentHandler) CreatePreference(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == "" {
		writeError(w, model.ErrUnauthorised, h.logger)
		return
	}

	var req model.PaymentPreferenceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err, h.logger)
		return
	}

	orderID, err := uuid.Parse(strings.TrimSpace(req.OrderID))
	if err != nil {
		writeError(w, model.Validationf("order_id must be a valid order identifier"), h.logger)
		return
	}

	pref, err := h.payments.CreatePreference(r.Context(), userID, orderID)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, pref)
}

// Webhook handles POST /api/payments/webhook notifications. Once a notification is
// well-formed and authentic it is always acknowledged, whatever the outcome of processing.
func (h *PaymentHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, model.NewDomainError(model.ErrCodeInvalidJSON, "request body could not be read"), h.logger)
		return
	}

	var n model.WebhookNotification
	if err := unmarshalBody(body, &n); err != nil {
		writeError(w, err, h.logger)
		return
	}
	if err := n.Validate(); err != nil {
		writeError(w, err, h.logger)
		return
	}

	// The gateway signs the data.id query parameter; the body id is the fallback.
	dataID := string(n.Data.ID)
	if q := r.URL.Query().Get("data.id"); q != "" && q != dataID {
		writeError(w, model.Validationf("data.id query parameter does not match the notification"), h.logger)
		return
	}

	if err := h.verifier.Verify(r.Header.Get("X-Signature"), r.Header.Get("X-Request-Id"), dataID); err != nil {
		h.logger.Warn().
			Err(err).
			Str("payment_id", string(n.Data.ID)).
			Bool("expired", errors.Is(err, payment.ErrSignatureExpired)).
			Msg("rejected webhook signature")
		writeError(w, model.ErrInvalidSignature, h.logger)
		return
	}

	if err := h.webhooks.HandleNotification(r.Context(), &n); err != nil {
		h.logger.Error().
			Err(err).
			Str("payment_id", string(n.Data.ID)).
			Msg("webhook processing failed, acknowledging anyway")
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "received"})
}
