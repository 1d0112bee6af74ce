package stripe

import (
	"context"
	"errors"
	"strconv"
	"strings"

	stripe "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
	"go.uber.org/zap"

	"github.com/wekeepgrowing/paygate/internal/config"
	"github.com/wekeepgrowing/paygate/internal/domain/provider"
)

// SignatureHeader carries the Stripe webhook signature.
const SignatureHeader = "Stripe-Signature"

// PaymentIntentHolder is implemented by host payments that store the Stripe
// PaymentIntent id. CreateRefund falls back to it when no id is passed.
type PaymentIntentHolder interface {
	StripePaymentIntentID() string
}

// successStatuses are PaymentIntent states treated as paid. "processing"
// counts because the funds are committed and only settlement is pending.
var successStatuses = map[stripe.PaymentIntentStatus]bool{
	stripe.PaymentIntentStatusSucceeded:  true,
	stripe.PaymentIntentStatusProcessing: true,
}

// refundReasons maps host reason codes to Stripe's vocabulary.
var refundReasons = map[string]stripe.RefundReason{
	provider.RefundReasonCustomerRequested: stripe.RefundReasonRequestedByCustomer,
	provider.RefundReasonDuplicate:         stripe.RefundReasonDuplicate,
	provider.RefundReasonFraudulent:        stripe.RefundReasonFraudulent,
}

// StripeProvider implements provider.PaymentProvider on Stripe PaymentIntents.
type StripeProvider struct {
	gateway       gateway
	webhookSecret string
	logger        *zap.Logger
}

var _ provider.PaymentProvider = (*StripeProvider)(nil)

// NewStripeProvider never fails; missing keys are logged and surface as
// failed results on first use.
func NewStripeProvider(cfg config.StripeConfig, logger *zap.Logger) *StripeProvider {
	logger = logger.With(zap.String("provider", string(provider.ProviderTypeStripe)))
	if cfg.SecretKey == "" {
		logger.Warn("Stripe secret key not configured")
	}
	if cfg.WebhookSecret == "" {
		logger.Warn("Stripe webhook secret not configured")
	}

	return newStripeProvider(&clientGateway{client: stripe.NewClient(cfg.SecretKey)}, cfg.WebhookSecret, logger)
}

func newStripeProvider(gw gateway, webhookSecret string, logger *zap.Logger) *StripeProvider {
	return &StripeProvider{
		gateway:       gw,
		webhookSecret: webhookSecret,
		logger:        logger,
	}
}

func (s *StripeProvider) Name() string {
	return string(provider.ProviderTypeStripe)
}

func (s *StripeProvider) SignatureHeader() string { return SignatureHeader }

// CreatePayment creates a PaymentIntent and returns its client secret.
func (s *StripeProvider) CreatePayment(ctx context.Context, payment provider.Payment, opts provider.CreatePaymentOptions) *provider.PaymentResult {
	currency := opts.ResolveCurrency(payment)
	paymentID := strconv.FormatInt(payment.GetID(), 10)

	params := &stripe.PaymentIntentCreateParams{
		Amount:   stripe.Int64(provider.ToMinorUnits(payment.GetAmount(), currency)),
		Currency: stripe.String(strings.ToLower(currency)),
		AutomaticPaymentMethods: &stripe.PaymentIntentCreateAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
		Metadata: map[string]string{"payment_id": paymentID},
	}
	for k, v := range opts.Metadata {
		if k != "payment_id" {
			params.Metadata[k] = v
		}
	}
	if buyer, ok := provider.ResolveBuyerInfo(opts.Buyer); ok {
		params.ReceiptEmail = stripe.String(buyer.Email)
	}
	if opts.Description != "" {
		params.Description = stripe.String(opts.Description)
	}

	intent, err := s.gateway.CreatePaymentIntent(ctx, params)
	if err != nil {
		s.logger.Error("Failed to create payment intent",
			zap.String("payment_id", paymentID),
			zap.Error(err))
		return provider.PaymentFailed(errorMessage(err))
	}

	s.logger.Info("Payment intent created",
		zap.String("payment_id", paymentID),
		zap.String("payment_intent_id", intent.ID),
		zap.String("status", string(intent.Status)))

	return &provider.PaymentResult{
		Success:           true,
		ProviderPaymentID: intent.ID,
		ClientSecret:      intent.ClientSecret,
		Status:            string(intent.Status),
	}
}

// ConfirmPayment retrieves the PaymentIntent; confirmation itself happens client-side.
func (s *StripeProvider) ConfirmPayment(ctx context.Context, providerPaymentID string) *provider.PaymentResult {
	intent, err := s.gateway.RetrievePaymentIntent(ctx, providerPaymentID)
	if err != nil {
		s.logger.Error("Failed to retrieve payment intent",
			zap.String("payment_intent_id", providerPaymentID),
			zap.Error(err))
		return provider.PaymentFailed(errorMessage(err))
	}

	result := &provider.PaymentResult{
		Success:           successStatuses[intent.Status],
		ProviderPaymentID: intent.ID,
		ClientSecret:      intent.ClientSecret,
		Status:            string(intent.Status),
	}
	if !result.Success {
		result.ErrorMessage = "Payment not completed. Status: " + string(intent.Status)
	}
	return result
}

func (s *StripeProvider) CreateRefund(ctx context.Context, payment provider.Payment, opts provider.RefundOptions) *provider.RefundResult {
	intentID := opts.ProviderPaymentID
	if intentID == "" {
		if holder, ok := payment.(PaymentIntentHolder); ok {
			intentID = holder.StripePaymentIntentID()
		}
	}
	if intentID == "" {
		return provider.RefundFailed("No Stripe payment intent ID found for payment " + strconv.FormatInt(payment.GetID(), 10))
	}

	params := &stripe.RefundCreateParams{
		PaymentIntent: stripe.String(intentID),
	}
	if opts.Amount != nil {
		params.Amount = stripe.Int64(*opts.Amount)
	}
	if reason, ok := refundReasons[opts.Reason]; ok {
		params.Reason = stripe.String(string(reason))
	} else if opts.Reason != "" {
		s.logger.Debug("Dropping refund reason unknown to Stripe", zap.String("reason", opts.Reason))
	}
	if len(opts.Metadata) > 0 {
		params.Metadata = opts.Metadata
	}

	refund, err := s.gateway.CreateRefund(ctx, params)
	if err != nil {
		s.logger.Error("Failed to create refund",
			zap.Int64("payment_id", payment.GetID()),
			zap.String("payment_intent_id", intentID),
			zap.Error(err))
		return provider.RefundFailed(errorMessage(err))
	}

	s.logger.Info("Refund created",
		zap.Int64("payment_id", payment.GetID()),
		zap.String("refund_id", refund.ID),
		zap.Int64("amount", refund.Amount))

	amount := refund.Amount
	return &provider.RefundResult{
		Success:          true,
		ProviderRefundID: refund.ID,
		Amount:           &amount,
		Status:           string(refund.Status),
	}
}

func (s *StripeProvider) HandleWebhook(ctx context.Context, payload []byte, signature string) *provider.WebhookResult {
	if signature == "" {
		return provider.WebhookFailed("Missing Stripe signature header", false)
	}

	event, err := webhook.ConstructEventWithOptions(payload, signature, s.webhookSecret,
		webhook.ConstructEventOptions{
			Tolerance:                webhook.DefaultTolerance,
			IgnoreAPIVersionMismatch: true,
		})
	if err != nil {
		if isSignatureError(err) {
			s.logger.Warn("Stripe webhook signature verification failed", zap.Error(err))
			return provider.WebhookFailed("Invalid signature", false)
		}
		s.logger.Error("Failed to process Stripe webhook", zap.Error(err))
		return provider.WebhookFailed(err.Error(), true)
	}

	var paymentID interface{}
	if event.Data != nil {
		if metadata, ok := event.Data.Object["metadata"].(map[string]interface{}); ok {
			paymentID = provider.CoercePaymentID(metadata["payment_id"])
		}
	}

	s.logger.Info("Stripe webhook verified",
		zap.String("event_id", event.ID),
		zap.String("event_type", string(event.Type)),
		zap.Any("payment_id", paymentID))

	return &provider.WebhookResult{
		Success:   true,
		EventID:   event.ID,
		EventType: string(event.Type),
		PaymentID: paymentID,
	}
}

func (s *StripeProvider) GetPaymentStatus(ctx context.Context, providerPaymentID string) (string, error) {
	intent, err := s.gateway.RetrievePaymentIntent(ctx, providerPaymentID)
	if err != nil {
		return "", err
	}
	return string(intent.Status), nil
}

func (s *StripeProvider) SupportsCheckoutForm() bool  { return true }
func (s *StripeProvider) SupportsRedirect() bool      { return true }
func (s *StripeProvider) SupportsSubscriptions() bool { return true }

func isSignatureError(err error) bool {
	return errors.Is(err, webhook.ErrNotSigned) ||
		errors.Is(err, webhook.ErrNoValidSignature) ||
		errors.Is(err, webhook.ErrInvalidHeader) ||
		errors.Is(err, webhook.ErrTooOld)
}

// errorMessage prefers the human message Stripe returns over the JSON error dump.
func errorMessage(err error) string {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) && stripeErr.Msg != "" {
		return stripeErr.Msg
	}
	return err.Error()
}
