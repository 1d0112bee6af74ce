package providertest

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/wekeepgrowing/paygate/internal/domain/provider"
)

// TestPayment satisfies provider.Payment plus the gateway id lookups used by
// the Stripe and Toss adapters.
type TestPayment struct {
	ID              int64
	Amount          decimal.Decimal
	Currency        string
	PaymentIntentID string
	PaymentKey      string
}

func (p *TestPayment) GetID() int64                  { return p.ID }
func (p *TestPayment) GetAmount() decimal.Decimal    { return p.Amount }
func (p *TestPayment) GetCurrency() string           { return p.Currency }
func (p *TestPayment) StripePaymentIntentID() string { return p.PaymentIntentID }
func (p *TestPayment) TossPaymentKey() string        { return p.PaymentKey }

// NewTestPayment returns payment 1 for 100.00 TRY.
func NewTestPayment(opts ...func(*TestPayment)) *TestPayment {
	p := &TestPayment{
		ID:       1,
		Amount:   decimal.RequireFromString("100.00"),
		Currency: "TRY",
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func NewTestBuyerInfo() provider.BuyerInfo {
	return provider.BuyerInfo{
		Email:          "test@example.com",
		Name:           "Test",
		Surname:        "User",
		Phone:          "+905350000000",
		Address:        "Test Address",
		City:           "Istanbul",
		Country:        "Turkey",
		ZipCode:        "34000",
		IdentityNumber: "11111111111",
	}
}

func AssertPaymentSuccess(t testing.TB, result *provider.PaymentResult) bool {
	t.Helper()
	if !assert.NotNil(t, result) {
		return false
	}
	return assert.True(t, result.Success, "payment failed: %s", result.ErrorMessage) &&
		assert.NotEmpty(t, result.ProviderPaymentID)
}

// AssertPaymentFailed checks failure and, when given, a substring of the message.
func AssertPaymentFailed(t testing.TB, result *provider.PaymentResult, contains ...string) bool {
	t.Helper()
	if !assert.NotNil(t, result) || !assert.False(t, result.Success) {
		return false
	}
	ok := assert.NotEmpty(t, result.ErrorMessage)
	for _, s := range contains {
		ok = assert.Contains(t, result.ErrorMessage, s) && ok
	}
	return ok
}
