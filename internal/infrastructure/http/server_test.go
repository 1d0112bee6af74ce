package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/wekeepgrowing/paygate/internal/config"
	"github.com/wekeepgrowing/paygate/internal/domain/model"
	"github.com/wekeepgrowing/paygate/internal/domain/provider"
	"github.com/wekeepgrowing/paygate/internal/eft"
	"github.com/wekeepgrowing/paygate/internal/infrastructure/provider/providertest"
	"github.com/wekeepgrowing/paygate/internal/registry"
	"github.com/wekeepgrowing/paygate/internal/usecase"
)

const testSecret = "server-test-secret"

// stubReviews approves everything and lists nothing.
type stubReviews struct{}

func (stubReviews) Submit(context.Context, usecase.SubmitEFTInput) (*model.EFTPayment, error) {
	return &model.EFTPayment{ID: 1}, nil
}

func (stubReviews) ListPending(context.Context, int) ([]*model.EFTPayment, error) {
	return []*model.EFTPayment{}, nil
}

func (stubReviews) Approve(_ context.Context, id int64, _ eft.User, _ ...eft.ActionOption) (eft.ApprovalResult, error) {
	return eft.ApprovalResult{Success: true, PaymentID: id, Action: eft.ActionApproved}, nil
}

func (stubReviews) Reject(_ context.Context, id int64, _ eft.User, _ string, _ ...eft.ActionOption) (eft.ApprovalResult, error) {
	return eft.ApprovalResult{Success: true, PaymentID: id, Action: eft.ActionRejected}, nil
}

func (stubReviews) BulkApprove(context.Context, []int64, eft.User, ...eft.ActionOption) ([]eft.ApprovalResult, error) {
	return nil, nil
}

func (stubReviews) BulkReject(context.Context, []int64, eft.User, string, ...eft.ActionOption) ([]eft.ApprovalResult, error) {
	return nil, nil
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := &config.Config{
		Service: config.ServiceConfig{Name: "payment"},
		JWT:     config.JWTConfig{Secret: testSecret, ReviewerRole: "admin"},
	}

	reg := registry.New(zap.NewNop(), registry.WithDefaultProvider("mock"))
	reg.Register("mock", func() provider.PaymentProvider { return providertest.NewMockProvider("mock") })

	return NewServer(cfg, zap.NewNop(), Services{
		Webhooks:  usecase.NewWebhookService(reg, nil, nil, nil, "", zap.NewNop()),
		Reviews:   stubReviews{},
		Providers: reg,
	})
}

func bearer(t *testing.T, role string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   "user-1",
		"email": "ops@example.com",
		"role":  role,
		"exp":   time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return "Bearer " + token
}

func TestServerRoutes(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		auth       string
		wantStatus int
	}{
		{"health", http.MethodGet, "/health", "", "", http.StatusOK},
		{"providers are public", http.MethodGet, "/api/v1/providers", "", "", http.StatusOK},
		{"webhook for registered provider", http.MethodPost, "/webhooks/mock", `{}`, "", http.StatusOK},
		{"webhook for unknown provider", http.MethodPost, "/webhooks/paypal", `{}`, "", http.StatusNotFound},
		{"review needs a token", http.MethodGet, "/api/v1/eft/pending", "", "", http.StatusUnauthorized},
		{"review needs the reviewer role", http.MethodGet, "/api/v1/eft/pending", "", bearer(t, "member"), http.StatusForbidden},
		{"reviewer lists pending", http.MethodGet, "/api/v1/eft/pending", "", bearer(t, "admin"), http.StatusOK},
		{"reviewer approves", http.MethodPost, "/api/v1/eft/12/approve", "", bearer(t, "admin"), http.StatusOK},
		{"reviewer rejects", http.MethodPost, "/api/v1/eft/12/reject", `{"reason":"Wrong amount"}`, bearer(t, "admin"), http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			if tt.body != "" {
				req.Header.Set("Content-Type", "application/json")
			}
			if tt.auth != "" {
				req.Header.Set("Authorization", tt.auth)
			}
			rec := httptest.NewRecorder()

			s.Handler().ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
		})
	}
}
