package provider

import (
	"context"
)

// PaymentProvider is the contract every gateway adapter implements.
//
// CreatePayment, ConfirmPayment, CreateRefund and HandleWebhook never return
// an error: gateway failures, network failures and bad input are reported on
// the result with Success=false and an ErrorMessage.
type PaymentProvider interface {
	// Name is the lower-case registry name (e.g. "stripe").
	Name() string

	// CreatePayment opens a payment at the gateway for a host payment.
	CreatePayment(ctx context.Context, payment Payment, opts CreatePaymentOptions) *PaymentResult

	// ConfirmPayment re-reads a gateway payment and reports whether it counts as paid.
	ConfirmPayment(ctx context.Context, providerPaymentID string) *PaymentResult

	// CreateRefund refunds all of a payment when opts.Amount is nil, otherwise part of it.
	CreateRefund(ctx context.Context, payment Payment, opts RefundOptions) *RefundResult

	// HandleWebhook verifies and parses a raw webhook delivery.
	HandleWebhook(ctx context.Context, payload []byte, signature string) *WebhookResult

	// GetPaymentStatus returns the gateway-native status string.
	GetPaymentStatus(ctx context.Context, providerPaymentID string) (string, error)

	SupportsCheckoutForm() bool
	SupportsRedirect() bool
	SupportsSubscriptions() bool
}

// SignatureHeaderProvider is implemented by adapters whose webhooks carry a
// signature in a request header.
type SignatureHeaderProvider interface {
	SignatureHeader() string
}

// ProviderType represents the type of payment provider
type ProviderType string

const (
	ProviderTypeStripe ProviderType = "stripe"
	ProviderTypeToss   ProviderType = "toss"
)

func (t ProviderType) String() string { return string(t) }

// Capabilities is a serializable summary of the Supports* flags.
type Capabilities struct {
	Name          string `json:"name"`
	CheckoutForm  bool   `json:"checkout_form"`
	Redirect      bool   `json:"redirect"`
	Subscriptions bool   `json:"subscriptions"`
}

func CapabilitiesOf(p PaymentProvider) Capabilities {
	return Capabilities{
		Name:          p.Name(),
		CheckoutForm:  p.SupportsCheckoutForm(),
		Redirect:      p.SupportsRedirect(),
		Subscriptions: p.SupportsSubscriptions(),
	}
}

// ProviderError is the error value adapters use internally before folding a
// failure into a result.
type ProviderError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
	// Temporary marks failures worth retrying (timeouts, 5xx).
	Temporary bool `json:"-"`
}

func (e *ProviderError) Error() string {
	if e.Details != "" {
		return e.Message + ": " + e.Details
	}
	return e.Message
}

const (
	ErrCodeMarshal  = "MARSHAL_ERROR"
	ErrCodeRequest  = "REQUEST_ERROR"
	ErrCodeAPI      = "API_ERROR"
	ErrCodeResponse = "RESPONSE_ERROR"
	ErrCodeParse    = "PARSE_ERROR"
	ErrCodeCurrency = "UNSUPPORTED_CURRENCY"
)
