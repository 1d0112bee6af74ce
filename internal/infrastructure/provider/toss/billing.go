package toss

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
)

// IssueBillingKey exchanges a card authKey for a reusable billing key.
// POST /v1/billing/authorizations/issue
func (t *TossProvider) IssueBillingKey(ctx context.Context, req *IssueBillingKeyRequest) (*IssueBillingKeyResponse, error) {
	t.logger.Info("Issuing Toss billing key", zap.String("customer_key", req.CustomerKey))

	var resp IssueBillingKeyResponse
	if err := t.call(ctx, t.client, http.MethodPost, "/billing/authorizations/issue", req, &resp); err != nil {
		t.logger.Error("Billing key issue failed",
			zap.String("customer_key", req.CustomerKey),
			zap.Error(err))
		return nil, err
	}

	t.logger.Info("Billing key issued",
		zap.String("customer_key", resp.CustomerKey),
		zap.String("card_company", resp.CardCompany))

	return &resp, nil
}

// ChargeBillingKey charges a stored billing key.
// POST /v1/billing/{billingKey}
func (t *TossProvider) ChargeBillingKey(ctx context.Context, req *ChargeBillingKeyRequest) (*ChargeBillingKeyResponse, error) {
	t.logger.Info("Charging Toss billing key",
		zap.String("order_id", req.OrderID),
		zap.Int64("amount", req.Amount))

	var payment Payment
	path := "/billing/" + url.PathEscape(req.BillingKey)
	if err := t.call(ctx, t.billingClient, http.MethodPost, path, req, &payment); err != nil {
		t.logger.Error("Billing charge failed",
			zap.String("order_id", req.OrderID),
			zap.Error(err))
		return nil, err
	}

	result := &ChargeBillingKeyResponse{
		PaymentKey:     payment.PaymentKey,
		OrderID:        payment.OrderID,
		Status:         payment.Status,
		Amount:         payment.TotalAmount,
		TransactionKey: payment.LastTransactionKey,
	}
	if payment.ApprovedAt != "" {
		if parsed, err := time.Parse(time.RFC3339, payment.ApprovedAt); err == nil {
			result.ApprovedAt = &parsed
		}
	}

	t.logger.Info("Billing charge successful",
		zap.String("order_id", result.OrderID),
		zap.String("payment_key", result.PaymentKey))

	return result, nil
}
