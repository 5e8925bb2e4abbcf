package model

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/google/uuid"
)

// PaymentPreference is the gateway checkout session created for an order.
type PaymentPreference struct {
	PreferenceID      string `json:"preference_id"`
	InitPoint         string `json:"init_point"`
	SandboxInitPoint  string `json:"sandbox_init_point,omitempty"`
	ExternalReference string `json:"-"`
}

// PaymentPreferenceRequest is the payload of the payment preference endpoint.
type PaymentPreferenceRequest struct {
	OrderID string `json:"order_id"`
}

// PaymentUpdate is the authoritative payment state fetched back from the gateway.
type PaymentUpdate struct {
	PaymentID string
	OrderID   uuid.UUID
	Status    PaymentStatus
}

// WebhookNotification is the notification body the gateway posts.
type WebhookNotification struct {
	Action string      `json:"action"`
	Type   string      `json:"type"`
	Data   WebhookData `json:"data"`
}

// WebhookData carries the resource id of a notification.
type WebhookData struct {
	ID FlexibleID `json:"id"`
}

// FlexibleID accepts an identifier sent either as a JSON string or a JSON number.
type FlexibleID string

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexibleID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexibleID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = FlexibleID(n.String())
	return nil
}

// Webhook event kinds the reconciler acts on.
const (
	WebhookTypePayment          = "payment"
	WebhookActionPaymentUpdated = "payment.updated"
)

// Relevant reports whether the notification should trigger reconciliation.
func (n *WebhookNotification) Relevant() bool {
	return n.Type == WebhookTypePayment && n.Action == WebhookActionPaymentUpdated
}

// Validate checks the notification carries the fields the reconciler relies on.
func (n *WebhookNotification) Validate() error {
	if strings.TrimSpace(n.Action) == "" || strings.TrimSpace(n.Type) == "" {
		return Validationf("notification action and type are required")
	}
	if n.Data.ID == "" {
		return Validationf("notification data.id is required")
	}
	return nil
}

// GatewayPaymentStatus maps the gateway's payment status vocabulary onto PaymentStatus.
func GatewayPaymentStatus(status string) (PaymentStatus, bool) {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "approved":
		return PaymentStatusApproved, true
	case "pending", "authorized", "in_process", "in_mediation":
		return PaymentStatusPending, true
	case "rejected":
		return PaymentStatusRejected, true
	case "cancelled":
		return PaymentStatusExpired, true
	case "refunded", "charged_back":
		return PaymentStatusRefunded, true
	}
	return "", false
}
