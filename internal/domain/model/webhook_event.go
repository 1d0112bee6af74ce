package model

import "time"

// WebhookStatus is stored as the webhook_status postgres enum.
type WebhookStatus string

const (
	WebhookStatusPending    WebhookStatus = "pending"
	WebhookStatusProcessing WebhookStatus = "processing"
	WebhookStatusCompleted  WebhookStatus = "completed"
	WebhookStatusFailed     WebhookStatus = "failed"
)

// Retryable reports whether the retry loop should pick up an event in this state.
func (s WebhookStatus) Retryable() bool {
	return s == WebhookStatusPending || s == WebhookStatusFailed
}

// WebhookEvent is a verified gateway notification. Provider and EventID
// together identify a delivery.
type WebhookEvent struct {
	ID        int64         `gorm:"primaryKey;autoIncrement" json:"id"`
	Provider  string        `gorm:"not null;size:50;uniqueIndex:idx_webhook_provider_event" json:"provider"`
	EventID   string        `gorm:"not null;size:255;uniqueIndex:idx_webhook_provider_event" json:"event_id"`
	EventType string        `gorm:"not null;size:100;index" json:"event_type"`
	PaymentID *string       `gorm:"size:100;index" json:"payment_id,omitempty"`
	Status    WebhookStatus `gorm:"type:webhook_status;default:'pending';index" json:"status"`
	Data      JSONB         `gorm:"type:jsonb;not null" json:"data"`

	ProcessingAttempts int        `gorm:"default:0" json:"processing_attempts"`
	LastError          *string    `json:"last_error,omitempty"`
	NextRetryAt        *time.Time `json:"next_retry_at,omitempty"`
	ProcessedAt        *time.Time `json:"processed_at,omitempty"`
	CreatedAt          time.Time  `gorm:"default:now()" json:"created_at"`
}

func (WebhookEvent) TableName() string {
	return "webhook_events"
}

// PaymentRef is the host payment id carried by the event, or "".
func (e *WebhookEvent) PaymentRef() string {
	if e.PaymentID == nil {
		return ""
	}
	return *e.PaymentID
}

// Due reports whether a retryable event may be attempted at now.
func (e *WebhookEvent) Due(now time.Time) bool {
	return e.Status.Retryable() && (e.NextRetryAt == nil || !e.NextRetryAt.After(now))
}
