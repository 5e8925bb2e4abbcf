package service

import (
	"context"
	"fmt"
	"strings"

	"storefront/internal/model"
	"storefront/internal/payment"
	"storefront/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type webhookService struct {
	orderRepo repository.OrderRepository
	gateway   payment.Gateway
	logger    zerolog.Logger
}

// NewWebhookService creates the payment webhook reconciler.
func NewWebhookService(orderRepo repository.OrderRepository, gateway payment.Gateway, logger zerolog.Logger) WebhookService {
	return &webhookService{
		orderRepo: orderRepo,
		gateway:   gateway,
		logger:    logger.With().Str("service", "webhook").Logger(),
	}
}

// HandleNotification re-fetches the payment named by the notification and applies its status
// to the referenced order. Nothing in the notification body other than the payment id is trusted.
func (s *webhookService) HandleNotification(ctx context.Context, n *model.WebhookNotification) error {
	if !n.Relevant() {
		s.logger.Debug().
			Str("type", n.Type).
			Str("action", n.Action).
			Msg("ignoring webhook notification")
		return nil
	}

	paymentID := string(n.Data.ID)
	log := s.logger.With().Str("payment_id", paymentID).Logger()

	p, err := s.gateway.GetPayment(ctx, paymentID)
	if err != nil {
		log.Error().Err(err).Msg("failed to fetch payment")
		return fmt.Errorf("failed to fetch payment: %w", err)
	}

	status, ok := model.GatewayPaymentStatus(p.Status)
	if !ok {
		log.Warn().Str("gateway_status", p.Status).Msg("unmapped payment status, ignoring")
		return nil
	}

	orderID, err := uuid.Parse(strings.TrimSpace(p.ExternalReference))
	if err != nil {
		log.Error().Str("external_reference", p.ExternalReference).Msg("payment does not reference an order")
		return fmt.Errorf("invalid external reference %q: %w", p.ExternalReference, err)
	}

	if p.ID == "" {
		p.ID = paymentID
	}

	order, changed, err := s.orderRepo.ApplyPaymentUpdate(ctx, model.PaymentUpdate{
		PaymentID: p.ID,
		OrderID:   orderID,
		Status:    status,
	})
	if err != nil {
		log.Error().Err(err).Str("order_id", orderID.String()).Msg("failed to apply payment update")
		return fmt.Errorf("failed to apply payment update: %w", err)
	}

	if !changed {
		log.Info().
			Str("order_id", orderID.String()).
			Str("payment_status", string(status)).
			Msg("payment update left order unchanged")
		return nil
	}

	log.Info().
		Str("order_id", orderID.String()).
		Str("status", string(order.Status)).
		Str("payment_status", string(order.PaymentStatus)).
		Msg("order payment state updated")
	return nil
}
