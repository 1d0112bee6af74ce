package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	StatusInProgress = "IN_PROGRESS"
	StatusCompleted  = "COMPLETED"

	// InProgressExpiry bounds how long a crashed handler can block redelivery.
	InProgressExpiry       = 30 * time.Second
	DefaultCompletedExpiry = 24 * time.Hour

	keyPrefix = "webhook:"
)

// ErrInProgress means another request is processing the same delivery.
var ErrInProgress = errors.New("webhook delivery already in progress")

// IdempotencyStore remembers webhook deliveries by provider and event id.
type IdempotencyStore interface {
	// CheckOrSetInProgress returns true when the delivery was already
	// completed or is being handled (with ErrInProgress). A false result
	// claims the delivery for the caller.
	CheckOrSetInProgress(ctx context.Context, provider, eventID string) (bool, error)
	SetCompleted(ctx context.Context, provider, eventID string) error
	// Release drops an in-progress claim so the gateway's retry is processed.
	Release(ctx context.Context, provider, eventID string) error
}

type RedisStore struct {
	client          redis.UniversalClient
	completedExpiry time.Duration
}

// NewRedisStore wraps an existing client; connection lifecycle stays with the caller.
func NewRedisStore(client redis.UniversalClient, completedExpiry time.Duration) *RedisStore {
	if completedExpiry <= 0 {
		completedExpiry = DefaultCompletedExpiry
	}
	return &RedisStore{client: client, completedExpiry: completedExpiry}
}

func key(provider, eventID string) string {
	return fmt.Sprintf("%s%s:%s", keyPrefix, provider, eventID)
}

func (r *RedisStore) CheckOrSetInProgress(ctx context.Context, provider, eventID string) (bool, error) {
	k := key(provider, eventID)

	status, err := r.client.Get(ctx, k).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return false, fmt.Errorf("redis GET error: %w", err)
	}
	if status == StatusCompleted {
		return true, nil
	}

	set, err := r.client.SetNX(ctx, k, StatusInProgress, InProgressExpiry).Result()
	if err != nil {
		return false, fmt.Errorf("redis SETNX error: %w", err)
	}
	if !set {
		return true, ErrInProgress
	}
	return false, nil
}

func (r *RedisStore) SetCompleted(ctx context.Context, provider, eventID string) error {
	return r.client.Set(ctx, key(provider, eventID), StatusCompleted, r.completedExpiry).Err()
}

// Release only deletes an in-progress marker; completed deliveries stay.
func (r *RedisStore) Release(ctx context.Context, provider, eventID string) error {
	k := key(provider, eventID)
	status, err := r.client.Get(ctx, k).Result()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("redis GET error: %w", err)
	}
	if status != StatusInProgress {
		return nil
	}
	return r.client.Del(ctx, k).Err()
}
