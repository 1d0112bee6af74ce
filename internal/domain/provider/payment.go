package provider

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultCurrency applies when neither the call nor the payment names one.
const DefaultCurrency = "TRY"

// Payment is the host payment record as seen by adapters. Gateway-specific
// identifiers are discovered through optional interfaces declared by each
// adapter package.
type Payment interface {
	GetID() int64
	// GetAmount is in major units (e.g. 100.50).
	GetAmount() decimal.Decimal
	// GetCurrency may be empty.
	GetCurrency() string
}

// CreatePaymentOptions carries the optional inputs of CreatePayment.
type CreatePaymentOptions struct {
	// Buyer is a BuyerInfo, *BuyerInfo, or a map with at least "email".
	Buyer       interface{}
	Currency    string
	CallbackURL string
	Description string
	Metadata    map[string]string
}

// ResolveCurrency picks the call currency, then the payment's, then DefaultCurrency.
func (o CreatePaymentOptions) ResolveCurrency(p Payment) string {
	if o.Currency != "" {
		return strings.ToUpper(o.Currency)
	}
	if p != nil && p.GetCurrency() != "" {
		return strings.ToUpper(p.GetCurrency())
	}
	return DefaultCurrency
}

// Refund reason codes understood by every adapter.
const (
	RefundReasonCustomerRequested = "customer_requested"
	RefundReasonDuplicate         = "duplicate"
	RefundReasonFraudulent        = "fraudulent"
)

// RefundOptions carries the optional inputs of CreateRefund.
type RefundOptions struct {
	// Amount in minor units; nil refunds the full payment.
	Amount *int64
	Reason string
	// ProviderPaymentID overrides the id stored on the payment.
	ProviderPaymentID string
	Metadata          map[string]string
}

var zeroDecimalCurrencies = map[string]bool{
	"KRW": true,
	"JPY": true,
	"VND": true,
	"CLP": true,
}

// IsZeroDecimal reports whether the currency has no minor unit.
func IsZeroDecimal(currency string) bool {
	return zeroDecimalCurrencies[strings.ToUpper(currency)]
}

// ToMinorUnits converts a major-unit amount, rounding half away from zero.
func ToMinorUnits(amount decimal.Decimal, currency string) int64 {
	if IsZeroDecimal(currency) {
		return amount.Round(0).IntPart()
	}
	return amount.Shift(2).Round(0).IntPart()
}

// CoercePaymentID normalizes a payment id read back from gateway metadata.
// Numeric strings and whole JSON numbers become int64; anything else is
// returned unchanged so the host can still see what the gateway sent.
func CoercePaymentID(v interface{}) interface{} {
	switch id := v.(type) {
	case nil:
		return nil
	case string:
		if n, err := strconv.ParseInt(strings.TrimSpace(id), 10, 64); err == nil {
			return n
		}
		return id
	case float64:
		if id == math.Trunc(id) && math.Abs(id) < 1<<53 {
			return int64(id)
		}
		return id
	case json.Number:
		if n, err := id.Int64(); err == nil {
			return n
		}
		return id.String()
	case int:
		return int64(id)
	case int64:
		return id
	default:
		return v
	}
}
