package usecase_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/wekeepgrowing/paygate/internal/domain/model"
	"github.com/wekeepgrowing/paygate/internal/domain/provider"
	domainRepo "github.com/wekeepgrowing/paygate/internal/domain/repository"
	"github.com/wekeepgrowing/paygate/internal/infrastructure/cache"
	"github.com/wekeepgrowing/paygate/internal/infrastructure/provider/providertest"
	"github.com/wekeepgrowing/paygate/internal/registry"
	"github.com/wekeepgrowing/paygate/internal/usecase"
)

// headerProvider names its own signature header.
type headerProvider struct {
	*providertest.MockProvider
}

func (headerProvider) SignatureHeader() string { return "X-Toss-Signature" }

func signed(signature string) http.Header {
	h := http.Header{}
	if signature != "" {
		h.Set(usecase.DefaultSignatureHeader, signature)
	}
	return h
}

type MockWebhookRepository struct {
	mock.Mock
}

func (m *MockWebhookRepository) SaveEvent(ctx context.Context, in domainRepo.WebhookEventInput) error {
	return m.Called(ctx, in).Error(0)
}

func (m *MockWebhookRepository) GetEvent(ctx context.Context, providerName, eventID string) (*model.WebhookEvent, error) {
	args := m.Called(ctx, providerName, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.WebhookEvent), args.Error(1)
}

func (m *MockWebhookRepository) MarkProcessed(ctx context.Context, providerName, eventID string) error {
	return m.Called(ctx, providerName, eventID).Error(0)
}

func (m *MockWebhookRepository) MarkFailed(ctx context.Context, providerName, eventID string, err error) error {
	return m.Called(ctx, providerName, eventID, err).Error(0)
}

func (m *MockWebhookRepository) GetPendingEvents(ctx context.Context, limit int) ([]*model.WebhookEvent, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]*model.WebhookEvent), args.Error(1)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, channel string, message interface{}) error {
	return m.Called(ctx, channel, message).Error(0)
}

type webhookFixture struct {
	service   *usecase.WebhookService
	provider  *providertest.MockProvider
	events    *MockWebhookRepository
	publisher *MockPublisher
	redis     *miniredis.Miniredis
}

func newWebhookFixture(t *testing.T) *webhookFixture {
	t.Helper()

	fake := providertest.NewMockProvider("mock")
	fake.WebhookResult = &provider.WebhookResult{
		Success:   true,
		EventID:   "evt_1",
		EventType: "payment_intent.succeeded",
		PaymentID: int64(42),
	}
	reg := registry.New(zap.NewNop())
	reg.Register("mock", func() provider.PaymentProvider { return fake })

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	events := new(MockWebhookRepository)
	publisher := new(MockPublisher)

	return &webhookFixture{
		service:   usecase.NewWebhookService(reg, cache.NewRedisStore(client, time.Hour), events, publisher, "payments.webhooks", zap.NewNop()),
		provider:  fake,
		events:    events,
		publisher: publisher,
		redis:     mr,
	}
}

var expectedMessage = usecase.WebhookMessage{
	Provider:  "mock",
	EventID:   "evt_1",
	EventType: "payment_intent.succeeded",
	PaymentID: "42",
}

func TestWebhookService_HandleDelivery(t *testing.T) {
	ctx := context.Background()
	payload := []byte(`{"id":"evt_1"}`)

	t.Run("records and publishes verified event", func(t *testing.T) {
		f := newWebhookFixture(t)
		f.events.On("SaveEvent", ctx, domainRepo.WebhookEventInput{
			Provider:  "mock",
			EventID:   "evt_1",
			EventType: "payment_intent.succeeded",
			PaymentID: "42",
			Data:      payload,
		}).Return(nil)
		f.publisher.On("Publish", ctx, "payments.webhooks", expectedMessage).Return(nil)
		f.events.On("MarkProcessed", ctx, "mock", "evt_1").Return(nil)

		outcome, err := f.service.HandleDelivery(ctx, "mock", payload, signed("sig"))

		require.NoError(t, err)
		assert.True(t, outcome.Result.Success)
		assert.False(t, outcome.Duplicate)
		v, _ := f.redis.Get("webhook:mock:evt_1")
		assert.Equal(t, cache.StatusCompleted, v)
		f.events.AssertExpectations(t)
		f.publisher.AssertExpectations(t)

		calls := f.provider.Calls("HandleWebhook")
		require.Len(t, calls, 1)
		assert.Equal(t, "sig", calls[0].Args[1])
	})

	t.Run("second delivery is a duplicate", func(t *testing.T) {
		f := newWebhookFixture(t)
		f.events.On("SaveEvent", mock.Anything, mock.Anything).Return(nil).Once()
		f.publisher.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()
		f.events.On("MarkProcessed", mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()

		_, err := f.service.HandleDelivery(ctx, "mock", payload, signed("sig"))
		require.NoError(t, err)
		outcome, err := f.service.HandleDelivery(ctx, "mock", payload, signed("sig"))

		require.NoError(t, err)
		assert.True(t, outcome.Duplicate)
		assert.True(t, outcome.Result.Success)
		f.events.AssertNumberOfCalls(t, "SaveEvent", 1)
	})

	t.Run("concurrent delivery asks for retry", func(t *testing.T) {
		f := newWebhookFixture(t)
		require.NoError(t, f.redis.Set("webhook:mock:evt_1", cache.StatusInProgress))

		outcome, err := f.service.HandleDelivery(ctx, "mock", payload, signed("sig"))

		require.NoError(t, err)
		assert.False(t, outcome.Result.Success)
		assert.True(t, outcome.Result.ShouldRetry)
		f.events.AssertNotCalled(t, "SaveEvent", mock.Anything, mock.Anything)
	})

	t.Run("verification failure is returned as result", func(t *testing.T) {
		f := newWebhookFixture(t)
		f.provider.WebhookResult = provider.WebhookFailed("Invalid signature", false)

		outcome, err := f.service.HandleDelivery(ctx, "mock", payload, signed("bad"))

		require.NoError(t, err)
		assert.False(t, outcome.Result.Success)
		assert.False(t, outcome.Result.ShouldRetry)
		assert.Equal(t, "Invalid signature", outcome.Result.ErrorMessage)
		f.events.AssertNotCalled(t, "SaveEvent", mock.Anything, mock.Anything)
	})

	t.Run("unknown provider", func(t *testing.T) {
		f := newWebhookFixture(t)

		_, err := f.service.HandleDelivery(ctx, "paypal", payload, signed("sig"))

		assert.ErrorIs(t, err, registry.ErrUnknownProvider)
	})

	t.Run("storage failure releases claim", func(t *testing.T) {
		f := newWebhookFixture(t)
		f.events.On("SaveEvent", mock.Anything, mock.Anything).Return(errors.New("DB error"))

		_, err := f.service.HandleDelivery(ctx, "mock", payload, signed("sig"))

		require.Error(t, err)
		assert.Contains(t, err.Error(), "DB error")
		assert.False(t, f.redis.Exists("webhook:mock:evt_1"))
		f.publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("publish failure marks event failed", func(t *testing.T) {
		f := newWebhookFixture(t)
		publishErr := errors.New("redis down")
		f.events.On("SaveEvent", mock.Anything, mock.Anything).Return(nil)
		f.publisher.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(publishErr)
		f.events.On("MarkFailed", mock.Anything, "mock", "evt_1", publishErr).Return(nil)

		outcome, err := f.service.HandleDelivery(ctx, "mock", payload, signed("sig"))

		require.NoError(t, err)
		assert.True(t, outcome.Result.Success)
		f.events.AssertExpectations(t)
	})
}

func TestWebhookService_RetryPending(t *testing.T) {
	ctx := context.Background()
	f := newWebhookFixture(t)

	paymentID := "42"
	later := time.Now().Add(time.Hour)
	f.events.On("GetPendingEvents", ctx, 50).Return([]*model.WebhookEvent{
		{Provider: "mock", EventID: "evt_1", EventType: "payment_intent.succeeded", PaymentID: &paymentID, Status: model.WebhookStatusPending},
		{Provider: "toss", EventID: "tx_9", EventType: "PAYMENT_STATUS_CHANGED", Status: model.WebhookStatusFailed},
		{Provider: "toss", EventID: "tx_10", Status: model.WebhookStatusFailed, NextRetryAt: &later},
		{Provider: "toss", EventID: "tx_11", Status: model.WebhookStatusCompleted},
	}, nil)
	f.publisher.On("Publish", ctx, "payments.webhooks", expectedMessage).Return(nil)
	f.publisher.On("Publish", ctx, "payments.webhooks", usecase.WebhookMessage{
		Provider: "toss", EventID: "tx_9", EventType: "PAYMENT_STATUS_CHANGED",
	}).Return(errors.New("redis down"))
	f.events.On("MarkProcessed", ctx, "mock", "evt_1").Return(nil)
	f.events.On("MarkFailed", ctx, "toss", "tx_9", mock.Anything).Return(nil)

	published, err := f.service.RetryPending(ctx, 50)

	require.NoError(t, err)
	assert.Equal(t, 1, published)
	f.events.AssertExpectations(t)
	f.publisher.AssertExpectations(t)
}

func TestWebhookService_WithoutCollaborators(t *testing.T) {
	reg := registry.New(zap.NewNop())
	fake := providertest.NewMockProvider("mock")
	reg.Register("mock", func() provider.PaymentProvider { return fake })
	service := usecase.NewWebhookService(reg, nil, nil, nil, "", zap.NewNop())

	outcome, err := service.HandleDelivery(context.Background(), "MOCK", []byte(`{}`), signed(""))

	require.NoError(t, err)
	assert.True(t, outcome.Result.Success)
	assert.Equal(t, "evt_mock", outcome.Result.EventID)

	n, err := service.RetryPending(context.Background(), 10)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSignatureHeaderOf(t *testing.T) {
	tests := []struct {
		name string
		p    provider.PaymentProvider
		want string
	}{
		{"adapter without own header", providertest.NewMockProvider("mock"), usecase.DefaultSignatureHeader},
		{"adapter naming its header", headerProvider{providertest.NewMockProvider("toss")}, "X-Toss-Signature"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, usecase.SignatureHeaderOf(tt.p))
		})
	}
}

func TestWebhookService_ResolvesProviderOnce(t *testing.T) {
	fake := providertest.NewMockProvider("toss")
	built := 0
	reg := registry.New(zap.NewNop())
	reg.Register("toss", func() provider.PaymentProvider {
		built++
		return headerProvider{fake}
	})
	service := usecase.NewWebhookService(reg, nil, nil, nil, "", zap.NewNop())

	headers := http.Header{}
	headers.Set("X-Toss-Signature", "v1:abc")
	headers.Set(usecase.DefaultSignatureHeader, "ignored")
	outcome, err := service.HandleDelivery(context.Background(), "toss", []byte(`{}`), headers)

	require.NoError(t, err)
	assert.True(t, outcome.Result.Success)
	assert.Equal(t, 1, built)
	calls := fake.Calls("HandleWebhook")
	require.Len(t, calls, 1)
	assert.Equal(t, "v1:abc", calls[0].Args[1])
}
