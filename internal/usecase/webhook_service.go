package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/wekeepgrowing/paygate/internal/domain/provider"
	domainRepo "github.com/wekeepgrowing/paygate/internal/domain/repository"
	"github.com/wekeepgrowing/paygate/internal/infrastructure/cache"
	"github.com/wekeepgrowing/paygate/pkg/messaging"
)

// DefaultSignatureHeader is read for adapters that do not name their own.
const DefaultSignatureHeader = "X-Webhook-Signature"

// ProviderResolver looks adapters up by name.
type ProviderResolver interface {
	Get(name string) (provider.PaymentProvider, error)
}

// WebhookMessage is published for every verified gateway event.
type WebhookMessage struct {
	Provider  string `json:"provider"`
	EventID   string `json:"event_id"`
	EventType string `json:"event_type"`
	PaymentID string `json:"payment_id,omitempty"`
}

// WebhookOutcome is the adapter result plus whether the delivery was a repeat.
type WebhookOutcome struct {
	Result    *provider.WebhookResult
	Duplicate bool
}

// WebhookService verifies gateway deliveries, records them once and
// forwards them to downstream consumers.
type WebhookService struct {
	providers ProviderResolver
	store     cache.IdempotencyStore
	events    domainRepo.WebhookRepository
	publisher messaging.Publisher
	channel   string
	logger    *zap.Logger
}

// NewWebhookService creates a webhook service. store, events and publisher
// may be nil, which disables deduplication, persistence or fan-out.
func NewWebhookService(
	providers ProviderResolver,
	store cache.IdempotencyStore,
	events domainRepo.WebhookRepository,
	publisher messaging.Publisher,
	channel string,
	logger *zap.Logger,
) *WebhookService {
	return &WebhookService{
		providers: providers,
		store:     store,
		events:    events,
		publisher: publisher,
		channel:   channel,
		logger:    logger.Named("webhook"),
	}
}

// SignatureHeaderOf names the request header carrying p's webhook signature.
func SignatureHeaderOf(p provider.PaymentProvider) string {
	if h, ok := p.(provider.SignatureHeaderProvider); ok {
		return h.SignatureHeader()
	}
	return DefaultSignatureHeader
}

// HandleDelivery returns an error only when the provider is unknown or the
// event could not be recorded; verification failures come back as results.
// The adapter is resolved once and also names the signature header.
func (s *WebhookService) HandleDelivery(ctx context.Context, providerName string, payload []byte, headers http.Header) (*WebhookOutcome, error) {
	p, err := s.providers.Get(providerName)
	if err != nil {
		return nil, err
	}
	signature := headers.Get(SignatureHeaderOf(p))
	name := p.Name()

	result := p.HandleWebhook(ctx, payload, signature)
	if !result.Success {
		s.logger.Warn("Webhook rejected by provider",
			zap.String("provider", name),
			zap.String("error", result.ErrorMessage),
			zap.Bool("should_retry", result.ShouldRetry))
		return &WebhookOutcome{Result: result}, nil
	}

	claimed := false
	if s.store != nil && result.EventID != "" {
		dup, err := s.store.CheckOrSetInProgress(ctx, name, result.EventID)
		switch {
		case errors.Is(err, cache.ErrInProgress):
			// The gateway retries later and the first handler has finished by then.
			return &WebhookOutcome{Result: provider.WebhookFailed("Delivery already in progress", true)}, nil
		case err != nil:
			s.logger.Warn("Idempotency store unavailable, processing without dedupe",
				zap.String("provider", name),
				zap.String("event_id", result.EventID),
				zap.Error(err))
		case dup:
			s.logger.Info("Duplicate webhook delivery ignored",
				zap.String("provider", name),
				zap.String("event_id", result.EventID))
			return &WebhookOutcome{Result: result, Duplicate: true}, nil
		default:
			claimed = true
		}
	}

	msg := WebhookMessage{
		Provider:  name,
		EventID:   result.EventID,
		EventType: result.EventType,
		PaymentID: formatPaymentID(result.PaymentID),
	}

	if s.events != nil {
		if err := s.events.SaveEvent(ctx, domainRepo.WebhookEventInput{
			Provider:  name,
			EventID:   msg.EventID,
			EventType: msg.EventType,
			PaymentID: msg.PaymentID,
			Data:      payload,
		}); err != nil {
			if claimed {
				if relErr := s.store.Release(ctx, name, result.EventID); relErr != nil {
					s.logger.Warn("Failed to release webhook claim", zap.Error(relErr))
				}
			}
			return nil, fmt.Errorf("record %s webhook %s: %w", name, result.EventID, err)
		}
	}

	s.dispatch(ctx, msg)

	if claimed {
		if err := s.store.SetCompleted(ctx, name, result.EventID); err != nil {
			s.logger.Warn("Failed to mark webhook completed", zap.String("event_id", result.EventID), zap.Error(err))
		}
	}

	s.logger.Info("Webhook processed",
		zap.String("provider", name),
		zap.String("event_id", msg.EventID),
		zap.String("event_type", msg.EventType),
		zap.String("payment_id", msg.PaymentID))

	return &WebhookOutcome{Result: result}, nil
}

// dispatch publishes msg and records the outcome; a failed publish is left
// for RetryPending.
func (s *WebhookService) dispatch(ctx context.Context, msg WebhookMessage) {
	if s.publisher == nil {
		s.mark(ctx, msg, nil)
		return
	}
	err := s.publisher.Publish(ctx, s.channel, msg)
	if err != nil {
		s.logger.Error("Failed to publish webhook event",
			zap.String("provider", msg.Provider),
			zap.String("event_id", msg.EventID),
			zap.Error(err))
	}
	s.mark(ctx, msg, err)
}

func (s *WebhookService) mark(ctx context.Context, msg WebhookMessage, publishErr error) {
	if s.events == nil || msg.EventID == "" {
		return
	}
	var err error
	if publishErr != nil {
		err = s.events.MarkFailed(ctx, msg.Provider, msg.EventID, publishErr)
	} else {
		err = s.events.MarkProcessed(ctx, msg.Provider, msg.EventID)
	}
	if err != nil {
		s.logger.Warn("Failed to update webhook status",
			zap.String("provider", msg.Provider),
			zap.String("event_id", msg.EventID),
			zap.Error(err))
	}
}

// RetryPending republishes stored events that were never dispatched or are
// due for another attempt. It returns how many were published.
func (s *WebhookService) RetryPending(ctx context.Context, limit int) (int, error) {
	if s.events == nil || s.publisher == nil {
		return 0, nil
	}

	events, err := s.events.GetPendingEvents(ctx, limit)
	if err != nil {
		return 0, err
	}

	published := 0
	now := time.Now()
	for _, event := range events {
		if !event.Due(now) {
			continue
		}
		msg := WebhookMessage{
			Provider:  event.Provider,
			EventID:   event.EventID,
			EventType: event.EventType,
			PaymentID: event.PaymentRef(),
		}

		err := s.publisher.Publish(ctx, s.channel, msg)
		s.mark(ctx, msg, err)
		if err == nil {
			published++
		}
	}

	if len(events) > 0 {
		s.logger.Info("Webhook retry pass finished",
			zap.Int("pending", len(events)),
			zap.Int("published", published))
	}
	return published, nil
}

func formatPaymentID(id interface{}) string {
	if id == nil {
		return ""
	}
	return fmt.Sprint(id)
}
