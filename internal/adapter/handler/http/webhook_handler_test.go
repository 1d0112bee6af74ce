package http_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	handlers "github.com/wekeepgrowing/paygate/internal/adapter/handler/http"
	"github.com/wekeepgrowing/paygate/internal/domain/provider"
	"github.com/wekeepgrowing/paygate/internal/infrastructure/provider/providertest"
	"github.com/wekeepgrowing/paygate/internal/registry"
	"github.com/wekeepgrowing/paygate/internal/usecase"
)

func newWebhookHandler(fake *providertest.MockProvider) *handlers.WebhookHandler {
	reg := registry.New(zap.NewNop())
	reg.Register("mock", func() provider.PaymentProvider { return fake })
	service := usecase.NewWebhookService(reg, nil, nil, nil, "", zap.NewNop())
	return handlers.NewWebhookHandler(service, zap.NewNop())
}

func postWebhook(t *testing.T, h *handlers.WebhookHandler, providerName, body, signature string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/"+providerName, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if signature != "" {
		req.Header.Set(usecase.DefaultSignatureHeader, signature)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("provider")
	c.SetParamValues(providerName)

	require.NoError(t, h.HandleWebhook(c))
	return rec
}

func TestWebhookHandler_HandleWebhook(t *testing.T) {
	tests := []struct {
		name       string
		provider   string
		result     *provider.WebhookResult
		wantStatus int
		wantError  string
	}{
		{
			name:       "verified delivery",
			provider:   "mock",
			wantStatus: http.StatusOK,
		},
		{
			name:       "bad signature is not retried",
			provider:   "mock",
			result:     provider.WebhookFailed("Invalid signature", false),
			wantStatus: http.StatusBadRequest,
			wantError:  "Invalid signature",
		},
		{
			name:       "transient failure asks for retry",
			provider:   "mock",
			result:     provider.WebhookFailed("Processing error", true),
			wantStatus: http.StatusInternalServerError,
			wantError:  "Processing error",
		},
		{
			name:       "unknown provider",
			provider:   "paypal",
			wantStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := providertest.NewMockProvider("mock")
			fake.WebhookResult = tt.result

			rec := postWebhook(t, newWebhookHandler(fake), tt.provider, `{"id":"evt_mock"}`, "t=1,v1=abc")

			assert.Equal(t, tt.wantStatus, rec.Code)
			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			if tt.wantError != "" {
				assert.Equal(t, tt.wantError, body["error"])
			}
		})
	}
}

func TestWebhookHandler_PassesSignatureAndBody(t *testing.T) {
	fake := providertest.NewMockProvider("mock")

	rec := postWebhook(t, newWebhookHandler(fake), "mock", `{"id":"evt_mock"}`, "sig-123")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"received":true,"event_id":"evt_mock","duplicate":false}`, rec.Body.String())

	calls := fake.Calls("HandleWebhook")
	require.Len(t, calls, 1)
	assert.Equal(t, []byte(`{"id":"evt_mock"}`), calls[0].Args[0])
	assert.Equal(t, "sig-123", calls[0].Args[1])
}

func TestWebhookHandler_BuildsAdapterOncePerDelivery(t *testing.T) {
	fake := providertest.NewMockProvider("mock")
	built := 0
	reg := registry.New(zap.NewNop())
	reg.Register("mock", func() provider.PaymentProvider {
		built++
		return fake
	})
	h := handlers.NewWebhookHandler(usecase.NewWebhookService(reg, nil, nil, nil, "", zap.NewNop()), zap.NewNop())

	rec := postWebhook(t, h, "mock", `{"id":"evt_mock"}`, "sig-123")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, built)
}
