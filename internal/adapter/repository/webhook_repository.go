package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/wekeepgrowing/paygate/internal/domain/model"
	domainRepo "github.com/wekeepgrowing/paygate/internal/domain/repository"
	"github.com/wekeepgrowing/paygate/internal/infrastructure/database"
)

const maxRetryDelay = 24 * time.Hour

type webhookRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewWebhookRepository creates a new webhook repository
func NewWebhookRepository(db *gorm.DB, logger *zap.Logger) domainRepo.WebhookRepository {
	return &webhookRepository{
		db:     db,
		logger: logger,
	}
}

// SaveEvent saves a new webhook event
func (r *webhookRepository) SaveEvent(ctx context.Context, in domainRepo.WebhookEventInput) error {
	var eventData map[string]interface{}
	if len(in.Data) > 0 {
		if err := json.Unmarshal(in.Data, &eventData); err != nil {
			r.logger.Warn("Failed to parse event data",
				zap.String("provider", in.Provider),
				zap.String("event_id", in.EventID),
				zap.Error(err))
		}
	}
	if eventData == nil {
		eventData = map[string]interface{}{}
	}

	event := &model.WebhookEvent{
		Provider:  in.Provider,
		EventID:   in.EventID,
		EventType: in.EventType,
		Status:    model.WebhookStatusPending,
		Data:      model.JSONB(eventData),
	}
	if in.PaymentID != "" {
		event.PaymentID = &in.PaymentID
	}

	// Use ON CONFLICT to handle duplicate deliveries
	err := database.DB(ctx, r.db).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(event).Error
	if err != nil {
		r.logger.Error("Failed to save webhook event",
			zap.String("provider", in.Provider),
			zap.String("event_id", in.EventID),
			zap.String("event_type", in.EventType),
			zap.Error(err))
		return fmt.Errorf("failed to save webhook event: %w", err)
	}

	return nil
}

// GetEvent returns nil without error when the event is unknown
func (r *webhookRepository) GetEvent(ctx context.Context, providerName, eventID string) (*model.WebhookEvent, error) {
	var event model.WebhookEvent

	err := database.DB(ctx, r.db).
		Where("provider = ? AND event_id = ?", providerName, eventID).
		First(&event).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get webhook event: %w", err)
	}

	return &event, nil
}

func (r *webhookRepository) MarkProcessed(ctx context.Context, providerName, eventID string) error {
	now := time.Now()

	result := database.DB(ctx, r.db).
		Model(&model.WebhookEvent{}).
		Where("provider = ? AND event_id = ?", providerName, eventID).
		Updates(map[string]interface{}{
			"status":       model.WebhookStatusCompleted,
			"processed_at": &now,
			"last_error":   nil,
		})
	if result.Error != nil {
		r.logger.Error("Failed to mark webhook as processed",
			zap.String("provider", providerName),
			zap.String("event_id", eventID),
			zap.Error(result.Error))
		return fmt.Errorf("failed to mark webhook as processed: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return fmt.Errorf("webhook event not found: %s/%s", providerName, eventID)
	}

	return nil
}

// MarkFailed schedules the next attempt with exponential backoff
func (r *webhookRepository) MarkFailed(ctx context.Context, providerName, eventID string, cause error) error {
	db := database.DB(ctx, r.db)

	var event model.WebhookEvent
	if err := db.Where("provider = ? AND event_id = ?", providerName, eventID).First(&event).Error; err != nil {
		return fmt.Errorf("failed to get webhook event: %w", err)
	}

	attempts := event.ProcessingAttempts + 1
	nextRetry := time.Now().Add(nextRetryDelay(attempts))
	errorMsg := cause.Error()

	result := db.Model(&model.WebhookEvent{}).
		Where("id = ?", event.ID).
		Updates(map[string]interface{}{
			"status":              model.WebhookStatusFailed,
			"processing_attempts": attempts,
			"last_error":          &errorMsg,
			"next_retry_at":       &nextRetry,
		})
	if result.Error != nil {
		r.logger.Error("Failed to mark webhook as failed",
			zap.String("provider", providerName),
			zap.String("event_id", eventID),
			zap.Error(result.Error))
		return fmt.Errorf("failed to mark webhook as failed: %w", result.Error)
	}

	return nil
}

// nextRetryDelay doubles from 10 minutes per attempt, capped at a day.
func nextRetryDelay(attempts int) time.Duration {
	if attempts > 10 {
		return maxRetryDelay
	}
	delay := time.Duration(5*(1<<attempts)) * time.Minute
	if delay > maxRetryDelay {
		return maxRetryDelay
	}
	return delay
}

// GetPendingEvents returns pending and due failed events, oldest first
func (r *webhookRepository) GetPendingEvents(ctx context.Context, limit int) ([]*model.WebhookEvent, error) {
	var events []*model.WebhookEvent

	query := database.DB(ctx, r.db).
		Where("status IN (?, ?) AND (next_retry_at IS NULL OR next_retry_at <= ?)",
			model.WebhookStatusPending,
			model.WebhookStatusFailed,
			time.Now()).
		Order("created_at ASC")

	if limit > 0 {
		query = query.Limit(limit)
	}

	if err := query.Find(&events).Error; err != nil {
		r.logger.Error("Failed to get pending webhook events", zap.Error(err))
		return nil, fmt.Errorf("failed to get pending webhook events: %w", err)
	}

	return events, nil
}
