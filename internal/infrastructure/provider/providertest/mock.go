// Package providertest provides an in-memory payment provider and helpers
// for testing code that depends on provider.PaymentProvider.
package providertest

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/wekeepgrowing/paygate/internal/domain/provider"
)

// Call is one recorded invocation on MockProvider.
type Call struct {
	Method string
	Args   []interface{}
}

// MockProvider is a configurable fake gateway. The zero value succeeds on
// every call; set the *Result fields to script other outcomes.
type MockProvider struct {
	ProviderName string

	PaymentResult *provider.PaymentResult
	ConfirmResult *provider.PaymentResult
	RefundResult  *provider.RefundResult
	WebhookResult *provider.WebhookResult
	Status        string
	StatusErr     error

	CheckoutForm  bool
	Redirect      bool
	Subscriptions bool

	mu    sync.Mutex
	calls []Call
}

// NewMockProvider returns a fake registered under name that supports every capability.
func NewMockProvider(name string) *MockProvider {
	return &MockProvider{
		ProviderName:  name,
		CheckoutForm:  true,
		Redirect:      true,
		Subscriptions: true,
	}
}

func (m *MockProvider) record(method string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, Call{Method: method, Args: args})
}

// Calls returns a copy of the recorded calls, optionally filtered by method.
func (m *MockProvider) Calls(method ...string) []Call {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []Call
	for _, c := range m.calls {
		if len(method) == 0 || c.Method == method[0] {
			out = append(out, c)
		}
	}
	return out
}

func (m *MockProvider) Reset() {
	m.mu.Lock()
	m.calls = nil
	m.mu.Unlock()
}

func (m *MockProvider) Name() string {
	if m.ProviderName == "" {
		return "mock"
	}
	return m.ProviderName
}

func (m *MockProvider) CreatePayment(_ context.Context, payment provider.Payment, opts provider.CreatePaymentOptions) *provider.PaymentResult {
	m.record("CreatePayment", payment, opts)
	if m.PaymentResult != nil {
		return m.PaymentResult
	}
	return &provider.PaymentResult{
		Success:           true,
		ProviderPaymentID: "mock_" + uuid.NewString(),
		ClientSecret:      fmt.Sprintf("mock_secret_%d", payment.GetID()),
		Status:            "pending",
	}
}

func (m *MockProvider) ConfirmPayment(_ context.Context, providerPaymentID string) *provider.PaymentResult {
	m.record("ConfirmPayment", providerPaymentID)
	if m.ConfirmResult != nil {
		return m.ConfirmResult
	}
	return &provider.PaymentResult{Success: true, ProviderPaymentID: providerPaymentID, Status: "succeeded"}
}

func (m *MockProvider) CreateRefund(_ context.Context, payment provider.Payment, opts provider.RefundOptions) *provider.RefundResult {
	m.record("CreateRefund", payment, opts)
	if m.RefundResult != nil {
		return m.RefundResult
	}
	amount := opts.Amount
	if amount == nil {
		full := provider.ToMinorUnits(payment.GetAmount(), payment.GetCurrency())
		amount = &full
	}
	return &provider.RefundResult{
		Success:          true,
		ProviderRefundID: "mock_refund_" + uuid.NewString(),
		Amount:           amount,
		Status:           "succeeded",
	}
}

func (m *MockProvider) HandleWebhook(_ context.Context, payload []byte, signature string) *provider.WebhookResult {
	m.record("HandleWebhook", payload, signature)
	if m.WebhookResult != nil {
		return m.WebhookResult
	}
	return &provider.WebhookResult{Success: true, EventID: "evt_mock", EventType: "payment.succeeded"}
}

func (m *MockProvider) GetPaymentStatus(_ context.Context, providerPaymentID string) (string, error) {
	m.record("GetPaymentStatus", providerPaymentID)
	if m.StatusErr != nil {
		return "", m.StatusErr
	}
	if m.Status == "" {
		return "succeeded", nil
	}
	return m.Status, nil
}

func (m *MockProvider) SupportsCheckoutForm() bool  { return m.CheckoutForm }
func (m *MockProvider) SupportsRedirect() bool      { return m.Redirect }
func (m *MockProvider) SupportsSubscriptions() bool { return m.Subscriptions }
