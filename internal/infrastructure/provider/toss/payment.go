package toss

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wekeepgrowing/paygate/internal/domain/provider"
)

// PaymentKeyHolder is implemented by host payments that store the Toss
// paymentKey. CreateRefund falls back to it when no id is passed.
type PaymentKeyHolder interface {
	TossPaymentKey() string
}

// successStatuses are Toss payment states treated as paid. Virtual account
// payments sit in WAITING_FOR_DEPOSIT until the transfer lands.
var successStatuses = map[string]bool{
	"DONE":                true,
	"IN_PROGRESS":         true,
	"WAITING_FOR_DEPOSIT": true,
}

var cancelReasons = map[string]string{
	provider.RefundReasonCustomerRequested: "고객 요청에 의한 취소",
	provider.RefundReasonDuplicate:         "중복 결제",
	provider.RefundReasonFraudulent:        "부정 거래 의심",
}

const orderIDPrefix = "pay-"

// orderID embeds the host payment id so webhooks without metadata can
// still be matched: pay-<id>-<random>.
func orderID(paymentID int64) string {
	return fmt.Sprintf("%s%d-%s", orderIDPrefix, paymentID, strings.ReplaceAll(uuid.NewString(), "-", "")[:12])
}

func paymentIDFromOrderID(id string) interface{} {
	rest, ok := strings.CutPrefix(id, orderIDPrefix)
	if !ok {
		return nil
	}
	head, _, _ := strings.Cut(rest, "-")
	if n, err := strconv.ParseInt(head, 10, 64); err == nil {
		return n
	}
	return nil
}

func withQuery(raw, key, value string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set(key, value)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// CreatePayment opens a Toss checkout window and returns its URL.
func (t *TossProvider) CreatePayment(ctx context.Context, payment provider.Payment, opts provider.CreatePaymentOptions) *provider.PaymentResult {
	currency := Currency
	if opts.Currency != "" || payment.GetCurrency() != "" {
		currency = opts.ResolveCurrency(payment)
	}
	if currency != Currency {
		return provider.PaymentFailed(fmt.Sprintf("Toss Payments only supports %s, got %s", Currency, currency))
	}
	if opts.CallbackURL == "" {
		return provider.PaymentFailed("Callback URL is required for Toss Payments")
	}

	successURL, err := withQuery(opts.CallbackURL, "status", "success")
	if err != nil {
		return provider.PaymentFailed("Invalid callback URL: " + err.Error())
	}
	failURL, _ := withQuery(opts.CallbackURL, "status", "fail")

	orderName := opts.Description
	if orderName == "" {
		orderName = fmt.Sprintf("Payment #%d", payment.GetID())
	}

	metadata := map[string]string{"payment_id": strconv.FormatInt(payment.GetID(), 10)}
	for k, v := range opts.Metadata {
		if k != "payment_id" {
			metadata[k] = v
		}
	}

	body := map[string]interface{}{
		"method":     "CARD",
		"amount":     provider.ToMinorUnits(payment.GetAmount(), Currency),
		"orderId":    orderID(payment.GetID()),
		"orderName":  orderName,
		"successUrl": successURL,
		"failUrl":    failURL,
		"metadata":   metadata,
	}
	if buyer, ok := provider.ResolveBuyerInfo(opts.Buyer); ok {
		body["customerEmail"] = buyer.Email
		if name := buyer.FullName(); name != "" {
			body["customerName"] = name
		}
		if buyer.Phone != "" {
			body["customerMobilePhone"] = buyer.Phone
		}
	}

	var resp Payment
	if err := t.call(ctx, t.client, http.MethodPost, "/payments", body, &resp); err != nil {
		t.logger.Error("Failed to create Toss payment",
			zap.Int64("payment_id", payment.GetID()),
			zap.Error(err))
		return provider.PaymentFailed(errorMessage(err))
	}

	result := &provider.PaymentResult{
		Success:           true,
		ProviderPaymentID: resp.PaymentKey,
		Status:            resp.Status,
		ProviderData:      map[string]interface{}{"order_id": resp.OrderID},
	}
	if resp.Checkout != nil {
		result.RedirectURL = resp.Checkout.URL
	}

	t.logger.Info("Toss payment created",
		zap.Int64("payment_id", payment.GetID()),
		zap.String("order_id", resp.OrderID),
		zap.String("payment_key", resp.PaymentKey))

	return result
}

func (t *TossProvider) getPayment(ctx context.Context, paymentKey string) (*Payment, error) {
	var resp Payment
	if err := t.call(ctx, t.client, http.MethodGet, "/payments/"+url.PathEscape(paymentKey), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (t *TossProvider) ConfirmPayment(ctx context.Context, providerPaymentID string) *provider.PaymentResult {
	payment, err := t.getPayment(ctx, providerPaymentID)
	if err != nil {
		return provider.PaymentFailed(errorMessage(err))
	}

	result := &provider.PaymentResult{
		Success:           successStatuses[payment.Status],
		ProviderPaymentID: payment.PaymentKey,
		Status:            payment.Status,
		ProviderData: map[string]interface{}{
			"order_id":     payment.OrderID,
			"total_amount": payment.TotalAmount,
		},
	}
	if !result.Success {
		result.ErrorMessage = "Payment not completed. Status: " + payment.Status
	}
	return result
}

func (t *TossProvider) GetPaymentStatus(ctx context.Context, providerPaymentID string) (string, error) {
	payment, err := t.getPayment(ctx, providerPaymentID)
	if err != nil {
		return "", err
	}
	return payment.Status, nil
}

// CreateRefund cancels all or part of a Toss payment.
func (t *TossProvider) CreateRefund(ctx context.Context, payment provider.Payment, opts provider.RefundOptions) *provider.RefundResult {
	paymentKey := opts.ProviderPaymentID
	if paymentKey == "" {
		if holder, ok := payment.(PaymentKeyHolder); ok {
			paymentKey = holder.TossPaymentKey()
		}
	}
	if paymentKey == "" {
		return provider.RefundFailed(fmt.Sprintf("No Toss payment key found for payment %d", payment.GetID()))
	}

	// Toss takes free text; unknown codes pass through as written.
	reason := opts.Reason
	if mapped, ok := cancelReasons[reason]; ok {
		reason = mapped
	} else if reason == "" {
		reason = "Refund requested"
	}

	body := map[string]interface{}{"cancelReason": reason}
	if opts.Amount != nil {
		body["cancelAmount"] = *opts.Amount
	}

	var resp Payment
	path := "/payments/" + url.PathEscape(paymentKey) + "/cancel"
	if err := t.call(ctx, t.client, http.MethodPost, path, body, &resp); err != nil {
		t.logger.Error("Failed to cancel Toss payment",
			zap.Int64("payment_id", payment.GetID()),
			zap.String("payment_key", paymentKey),
			zap.Error(err))
		return provider.RefundFailed(errorMessage(err))
	}

	result := &provider.RefundResult{Success: true, Status: resp.Status}
	if n := len(resp.Cancels); n > 0 {
		last := resp.Cancels[n-1]
		amount := last.CancelAmount
		result.ProviderRefundID = last.TransactionKey
		result.Amount = &amount
		if last.CancelStatus != "" {
			result.Status = last.CancelStatus
		}
	}

	t.logger.Info("Toss payment canceled",
		zap.Int64("payment_id", payment.GetID()),
		zap.String("payment_key", paymentKey),
		zap.String("transaction_key", result.ProviderRefundID))

	return result
}
