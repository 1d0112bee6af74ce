package repository

import (
	"context"
	"encoding/json"

	"github.com/wekeepgrowing/paygate/internal/domain/model"
)

// WebhookEventInput describes a verified delivery to persist.
type WebhookEventInput struct {
	Provider  string
	EventID   string
	EventType string
	PaymentID string
	Data      json.RawMessage
}

// WebhookRepository handles webhook event storage and processing
type WebhookRepository interface {
	// SaveEvent stores the event once; a repeated provider/event id pair is ignored.
	SaveEvent(ctx context.Context, in WebhookEventInput) error
	GetEvent(ctx context.Context, providerName, eventID string) (*model.WebhookEvent, error)
	MarkProcessed(ctx context.Context, providerName, eventID string) error
	MarkFailed(ctx context.Context, providerName, eventID string, err error) error
	GetPendingEvents(ctx context.Context, limit int) ([]*model.WebhookEvent, error)
}
