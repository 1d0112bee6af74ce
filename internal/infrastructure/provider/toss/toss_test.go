package toss

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/wekeepgrowing/paygate/internal/config"
	"github.com/wekeepgrowing/paygate/internal/domain/provider"
	"github.com/wekeepgrowing/paygate/internal/infrastructure/provider/providertest"
)

const testWebhookSecret = "toss_whsec"

type recordedRequest struct {
	Method string
	Path   string
	Auth   string
	Body   map[string]interface{}
}

// newTestServer answers with status/body and records the last request.
func newTestServer(t *testing.T, status int, body string) (*httptest.Server, *recordedRequest) {
	t.Helper()
	rec := &recordedRequest{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.Method = r.Method
		rec.Path = r.URL.Path
		rec.Auth = r.Header.Get("Authorization")
		raw, _ := io.ReadAll(r.Body)
		rec.Body = nil
		if len(raw) > 0 {
			require.NoError(t, json.Unmarshal(raw, &rec.Body))
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, rec
}

func newTestProvider(srv *httptest.Server) *TossProvider {
	return NewTossProvider(config.TossConfig{
		SecretKey:     "test_sk",
		ClientKey:     "test_ck",
		WebhookSecret: testWebhookSecret,
	}, zap.NewNop(), WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))
}

func krwPayment() *providertest.TestPayment {
	return providertest.NewTestPayment(func(p *providertest.TestPayment) {
		p.ID = 42
		p.Amount = decimal.NewFromInt(15000)
		p.Currency = "KRW"
	})
}

func TestTossProvider_Capabilities(t *testing.T) {
	p := NewTossProvider(config.TossConfig{ClientKey: "ck"}, zap.NewNop())

	assert.Equal(t, "toss", p.Name())
	assert.Equal(t, "ck", p.ClientKey())
	assert.Equal(t, SignatureHeader, p.SignatureHeader())
	assert.True(t, p.SupportsCheckoutForm())
	assert.True(t, p.SupportsRedirect())
	assert.True(t, p.SupportsSubscriptions())
}

func TestTossProvider_CreatePayment(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		srv, rec := newTestServer(t, http.StatusOK, `{
			"paymentKey": "pk_123", "orderId": "pay-42-abc", "status": "READY",
			"checkout": {"url": "https://pay.toss.im/checkout/pk_123"}
		}`)
		p := newTestProvider(srv)

		result := p.CreatePayment(context.Background(), krwPayment(), provider.CreatePaymentOptions{
			Buyer:       providertest.NewTestBuyerInfo(),
			CallbackURL: "https://shop.example.com/payments/42/return",
		})

		providertest.AssertPaymentSuccess(t, result)
		assert.Equal(t, "pk_123", result.ProviderPaymentID)
		assert.Equal(t, "https://pay.toss.im/checkout/pk_123", result.RedirectURL)
		assert.Equal(t, "READY", result.Status)

		assert.Equal(t, http.MethodPost, rec.Method)
		assert.Equal(t, "/v1/payments", rec.Path)
		assert.Equal(t, "Basic "+base64.StdEncoding.EncodeToString([]byte("test_sk:")), rec.Auth)
		assert.Equal(t, float64(15000), rec.Body["amount"])
		assert.Equal(t, "test@example.com", rec.Body["customerEmail"])
		assert.Equal(t, "Test User", rec.Body["customerName"])
		assert.True(t, strings.HasPrefix(rec.Body["orderId"].(string), "pay-42-"))
		assert.Equal(t, map[string]interface{}{"payment_id": "42"}, rec.Body["metadata"])

		success, err := url.Parse(rec.Body["successUrl"].(string))
		require.NoError(t, err)
		assert.Equal(t, "success", success.Query().Get("status"))
	})

	t.Run("non KRW currency", func(t *testing.T) {
		srv, rec := newTestServer(t, http.StatusOK, `{}`)
		p := newTestProvider(srv)

		result := p.CreatePayment(context.Background(), providertest.NewTestPayment(), provider.CreatePaymentOptions{
			CallbackURL: "https://shop.example.com/return",
		})

		providertest.AssertPaymentFailed(t, result, "KRW")
		assert.Empty(t, rec.Method)
	})

	t.Run("missing callback url", func(t *testing.T) {
		srv, _ := newTestServer(t, http.StatusOK, `{}`)
		p := newTestProvider(srv)

		result := p.CreatePayment(context.Background(), krwPayment(), provider.CreatePaymentOptions{})

		providertest.AssertPaymentFailed(t, result, "Callback URL")
	})

	t.Run("api error", func(t *testing.T) {
		srv, _ := newTestServer(t, http.StatusBadRequest, `{"code": "INVALID_REQUEST", "message": "잘못된 요청입니다."}`)
		p := newTestProvider(srv)

		result := p.CreatePayment(context.Background(), krwPayment(), provider.CreatePaymentOptions{
			CallbackURL: "https://shop.example.com/return",
		})

		providertest.AssertPaymentFailed(t, result, "INVALID_REQUEST", "잘못된 요청입니다.")
	})
}

func TestTossProvider_ConfirmPayment(t *testing.T) {
	tests := []struct {
		status      string
		wantSuccess bool
	}{
		{"DONE", true},
		{"IN_PROGRESS", true},
		{"WAITING_FOR_DEPOSIT", true},
		{"READY", false},
		{"CANCELED", false},
		{"ABORTED", false},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			srv, rec := newTestServer(t, http.StatusOK,
				`{"paymentKey": "pk_123", "orderId": "pay-1-x", "status": "`+tt.status+`", "totalAmount": 15000}`)
			p := newTestProvider(srv)

			result := p.ConfirmPayment(context.Background(), "pk_123")

			assert.Equal(t, tt.wantSuccess, result.Success)
			assert.Equal(t, tt.status, result.Status)
			assert.Equal(t, http.MethodGet, rec.Method)
			assert.Equal(t, "/v1/payments/pk_123", rec.Path)
		})
	}

	t.Run("not found", func(t *testing.T) {
		srv, _ := newTestServer(t, http.StatusNotFound, `{"code": "NOT_FOUND_PAYMENT", "message": "존재하지 않는 결제 정보 입니다."}`)
		p := newTestProvider(srv)

		result := p.ConfirmPayment(context.Background(), "pk_missing")
		providertest.AssertPaymentFailed(t, result, "NOT_FOUND_PAYMENT")

		_, err := p.GetPaymentStatus(context.Background(), "pk_missing")
		assert.Error(t, err)
	})
}

func TestTossProvider_GetPaymentStatus(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusOK, `{"paymentKey": "pk_123", "status": "DONE"}`)
	p := newTestProvider(srv)

	status, err := p.GetPaymentStatus(context.Background(), "pk_123")
	require.NoError(t, err)
	assert.Equal(t, "DONE", status)
}

func TestTossProvider_CreateRefund(t *testing.T) {
	cancelResponse := `{
		"paymentKey": "pk_123", "status": "PARTIAL_CANCELED",
		"cancels": [
			{"transactionKey": "tx_1", "cancelAmount": 1000, "cancelStatus": "DONE"},
			{"transactionKey": "tx_2", "cancelAmount": 5000, "cancelStatus": "DONE"}
		]
	}`

	t.Run("partial cancel with stored key", func(t *testing.T) {
		srv, rec := newTestServer(t, http.StatusOK, cancelResponse)
		p := newTestProvider(srv)
		payment := krwPayment()
		payment.PaymentKey = "pk_123"
		amount := int64(5000)

		result := p.CreateRefund(context.Background(), payment, provider.RefundOptions{
			Amount: &amount,
			Reason: provider.RefundReasonDuplicate,
		})

		assert.True(t, result.Success)
		assert.Equal(t, "tx_2", result.ProviderRefundID)
		assert.Equal(t, int64(5000), *result.Amount)
		assert.Equal(t, "DONE", result.Status)
		assert.Equal(t, "/v1/payments/pk_123/cancel", rec.Path)
		assert.Equal(t, float64(5000), rec.Body["cancelAmount"])
		assert.Equal(t, "중복 결제", rec.Body["cancelReason"])
	})

	t.Run("full cancel with explicit key and free text reason", func(t *testing.T) {
		srv, rec := newTestServer(t, http.StatusOK, cancelResponse)
		p := newTestProvider(srv)

		result := p.CreateRefund(context.Background(), krwPayment(), provider.RefundOptions{
			ProviderPaymentID: "pk_999",
			Reason:            "단순 변심",
		})

		assert.True(t, result.Success)
		assert.Equal(t, "/v1/payments/pk_999/cancel", rec.Path)
		assert.NotContains(t, rec.Body, "cancelAmount")
		assert.Equal(t, "단순 변심", rec.Body["cancelReason"])
	})

	t.Run("missing payment key", func(t *testing.T) {
		srv, rec := newTestServer(t, http.StatusOK, cancelResponse)
		p := newTestProvider(srv)

		result := p.CreateRefund(context.Background(), krwPayment(), provider.RefundOptions{})

		assert.False(t, result.Success)
		assert.Contains(t, result.ErrorMessage, "No Toss payment key")
		assert.Empty(t, rec.Method)
	})

	t.Run("already canceled", func(t *testing.T) {
		srv, _ := newTestServer(t, http.StatusBadRequest, `{"code": "ALREADY_CANCELED_PAYMENT", "message": "이미 취소된 결제 입니다."}`)
		p := newTestProvider(srv)

		result := p.CreateRefund(context.Background(), krwPayment(), provider.RefundOptions{ProviderPaymentID: "pk_123"})

		assert.False(t, result.Success)
		assert.Contains(t, result.ErrorMessage, "ALREADY_CANCELED_PAYMENT")
	})
}

func TestTossProvider_HandleWebhook(t *testing.T) {
	payload := []byte(`{
		"eventType": "PAYMENT_STATUS_CHANGED",
		"createdAt": "2024-05-01T10:00:00.000000",
		"data": {
			"paymentKey": "pk_123", "orderId": "pay-77-abc", "status": "DONE",
			"lastTransactionKey": "tx_abc", "metadata": {"payment_id": "456"}
		}
	}`)
	noMetadata := []byte(`{"eventType": "PAYMENT_STATUS_CHANGED", "createdAt": "2024-05-01", "data": {"paymentKey": "pk_1", "orderId": "pay-77-abc", "status": "DONE"}}`)
	foreignOrder := []byte(`{"eventType": "PAYMENT_STATUS_CHANGED", "createdAt": "2024-05-01", "data": {"paymentKey": "pk_2", "orderId": "shop-order-991", "status": "DONE"}}`)
	malformedOrder := []byte(`{"eventType": "PAYMENT_STATUS_CHANGED", "createdAt": "2024-05-01", "data": {"paymentKey": "pk_3", "orderId": "pay-abc-def", "status": "DONE", "metadata": {"payment_id": null}}}`)

	tests := []struct {
		name          string
		payload       []byte
		signature     string
		wantSuccess   bool
		wantRetry     bool
		wantEventID   string
		wantPaymentID interface{}
		wantError     string
	}{
		{
			name:          "valid signature",
			payload:       payload,
			signature:     Sign(testWebhookSecret, payload),
			wantSuccess:   true,
			wantEventID:   "tx_abc",
			wantPaymentID: int64(456),
		},
		{
			name:          "versioned signature",
			payload:       payload,
			signature:     "v1:" + Sign(testWebhookSecret, payload),
			wantSuccess:   true,
			wantEventID:   "tx_abc",
			wantPaymentID: int64(456),
		},
		{
			name:          "payment id from order id",
			payload:       noMetadata,
			signature:     Sign(testWebhookSecret, noMetadata),
			wantSuccess:   true,
			wantEventID:   "pk_1:DONE:2024-05-01",
			wantPaymentID: int64(77),
		},
		{
			name:          "order id not issued here leaves payment id nil",
			payload:       foreignOrder,
			signature:     Sign(testWebhookSecret, foreignOrder),
			wantSuccess:   true,
			wantEventID:   "pk_2:DONE:2024-05-01",
			wantPaymentID: nil,
		},
		{
			name:          "null metadata and malformed order id leave payment id nil",
			payload:       malformedOrder,
			signature:     Sign(testWebhookSecret, malformedOrder),
			wantSuccess:   true,
			wantEventID:   "pk_3:DONE:2024-05-01",
			wantPaymentID: nil,
		},
		{
			name:      "missing signature",
			payload:   payload,
			wantError: "Missing Toss signature",
		},
		{
			name:      "wrong signature",
			payload:   payload,
			signature: Sign("other", payload),
			wantError: "Invalid signature",
		},
		{
			name:      "garbage signature",
			payload:   payload,
			signature: "zz-not-hex",
			wantError: "Invalid signature",
		},
		{
			name:      "unparseable body",
			payload:   []byte(`{`),
			signature: Sign(testWebhookSecret, []byte(`{`)),
			wantRetry: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newTestServer(t, http.StatusOK, `{}`)
			p := newTestProvider(srv)

			result := p.HandleWebhook(context.Background(), tt.payload, tt.signature)

			assert.Equal(t, tt.wantSuccess, result.Success)
			assert.Equal(t, tt.wantRetry, result.ShouldRetry)
			if tt.wantSuccess {
				assert.Equal(t, "PAYMENT_STATUS_CHANGED", result.EventType)
				assert.Equal(t, tt.wantEventID, result.EventID)
				assert.Equal(t, tt.wantPaymentID, result.PaymentID)
			}
			if tt.wantError != "" {
				assert.Contains(t, result.ErrorMessage, tt.wantError)
			}
		})
	}

	t.Run("no secret configured skips verification", func(t *testing.T) {
		p := NewTossProvider(config.TossConfig{SecretKey: "sk"}, zap.NewNop())

		result := p.HandleWebhook(context.Background(), payload, "")

		assert.True(t, result.Success)
	})
}

func TestTossProvider_CircuitBreaker(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()
	p := newTestProvider(srv)

	for i := 0; i < 5; i++ {
		_, err := p.GetPaymentStatus(context.Background(), "pk_123")
		require.Error(t, err)
	}

	_, err := p.GetPaymentStatus(context.Background(), "pk_123")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "temporarily unavailable")
	assert.Equal(t, int32(5), atomic.LoadInt32(&hits))
}

func TestTossProvider_ClientErrorsDoNotTripBreaker(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusNotFound, `{"code": "NOT_FOUND_PAYMENT", "message": "not found"}`)
	p := newTestProvider(srv)

	for i := 0; i < 10; i++ {
		_, err := p.GetPaymentStatus(context.Background(), "pk_missing")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not found")
	}
}

func TestTossProvider_Billing(t *testing.T) {
	t.Run("issue billing key", func(t *testing.T) {
		srv, rec := newTestServer(t, http.StatusOK, `{
			"mId": "tosspayments", "customerKey": "cust_1", "billingKey": "bk_123",
			"cardCompany": "현대", "cardNumber": "433012******1234", "method": "카드"
		}`)
		p := newTestProvider(srv)

		resp, err := p.IssueBillingKey(context.Background(), &IssueBillingKeyRequest{AuthKey: "auth_1", CustomerKey: "cust_1"})

		require.NoError(t, err)
		assert.Equal(t, "bk_123", resp.BillingKey)
		assert.Equal(t, "현대", resp.CardCompany)
		assert.Equal(t, "/v1/billing/authorizations/issue", rec.Path)
		assert.Equal(t, "auth_1", rec.Body["authKey"])
	})

	t.Run("charge billing key", func(t *testing.T) {
		srv, rec := newTestServer(t, http.StatusOK, `{
			"paymentKey": "pk_b", "orderId": "sub-1", "status": "DONE", "totalAmount": 9900,
			"lastTransactionKey": "tx_b", "approvedAt": "2024-05-01T10:00:00+09:00"
		}`)
		p := newTestProvider(srv)

		resp, err := p.ChargeBillingKey(context.Background(), &ChargeBillingKeyRequest{
			BillingKey:  "bk_123",
			CustomerKey: "cust_1",
			Amount:      9900,
			OrderID:     "sub-1",
			OrderName:   "Monthly plan",
		})

		require.NoError(t, err)
		assert.Equal(t, "pk_b", resp.PaymentKey)
		assert.Equal(t, int64(9900), resp.Amount)
		assert.Equal(t, "tx_b", resp.TransactionKey)
		require.NotNil(t, resp.ApprovedAt)
		assert.Equal(t, "/v1/billing/bk_123", rec.Path)
		assert.NotContains(t, rec.Body, "BillingKey")
	})

	t.Run("charge rejected", func(t *testing.T) {
		srv, _ := newTestServer(t, http.StatusForbidden, `{"code": "REJECT_CARD_PAYMENT", "message": "한도초과"}`)
		p := newTestProvider(srv)

		_, err := p.ChargeBillingKey(context.Background(), &ChargeBillingKeyRequest{BillingKey: "bk_123"})

		var pe *provider.ProviderError
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, "REJECT_CARD_PAYMENT", pe.Code)
		assert.False(t, pe.Temporary)
	})
}
