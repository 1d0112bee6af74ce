package toss

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"

	"go.uber.org/zap"

	"github.com/wekeepgrowing/paygate/internal/domain/provider"
)

// Sign returns the hex HMAC-SHA256 of payload, the value expected in
// X-Toss-Signature.
func Sign(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func (t *TossProvider) verifySignature(payload []byte, signature string) bool {
	signature = strings.TrimPrefix(strings.TrimSpace(signature), "v1:")
	got, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}
	want, _ := hex.DecodeString(Sign(t.webhookSecret, payload))
	return hmac.Equal(got, want)
}

// HandleWebhook verifies a Toss delivery when a webhook secret is configured
// and extracts the host payment id from metadata or, failing that, the order id.
func (t *TossProvider) HandleWebhook(ctx context.Context, payload []byte, signature string) *provider.WebhookResult {
	if t.webhookSecret != "" {
		if signature == "" {
			return provider.WebhookFailed("Missing Toss signature header", false)
		}
		if !t.verifySignature(payload, signature) {
			t.logger.Warn("Toss webhook signature verification failed")
			return provider.WebhookFailed("Invalid signature", false)
		}
	}

	var event WebhookPayload
	if err := json.Unmarshal(payload, &event); err != nil {
		t.logger.Error("Failed to parse Toss webhook payload", zap.Error(err))
		return provider.WebhookFailed("Invalid webhook payload: "+err.Error(), true)
	}

	data := event.Data
	paymentID := provider.CoercePaymentID(data.Metadata["payment_id"])
	if paymentID == nil {
		paymentID = paymentIDFromOrderID(data.OrderID)
	}

	// Toss deliveries carry no event id; the transaction key is unique per
	// state change, otherwise fall back to key+status+timestamp.
	eventID := data.LastTransactionKey
	if eventID == "" {
		eventID = strings.Join([]string{data.PaymentKey, data.Status, event.CreatedAt}, ":")
	}

	t.logger.Info("Toss webhook received",
		zap.String("event_type", event.EventType),
		zap.String("order_id", data.OrderID),
		zap.String("payment_key", data.PaymentKey),
		zap.String("status", data.Status))

	return &provider.WebhookResult{
		Success:   true,
		EventID:   eventID,
		EventType: event.EventType,
		PaymentID: paymentID,
	}
}
