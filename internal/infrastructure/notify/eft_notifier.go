package notify

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/wekeepgrowing/paygate/internal/eft"
	"github.com/wekeepgrowing/paygate/pkg/messaging"
)

// EFTEvent is published after an EFT decision commits.
type EFTEvent struct {
	Action          string    `json:"action"`
	PaymentID       int64     `json:"payment_id"`
	ReferenceNumber string    `json:"reference_number"`
	Reviewer        string    `json:"reviewer"`
	Reason          string    `json:"reason,omitempty"`
	OccurredAt      time.Time `json:"occurred_at"`
}

// EFTPublisher fans EFT decisions out on a redis channel so downstream
// services (receipts, fulfilment) can react.
type EFTPublisher struct {
	publisher messaging.Publisher
	channel   string
	logger    *zap.Logger
	now       func() time.Time
}

var _ eft.Notifier = (*EFTPublisher)(nil)

func NewEFTPublisher(publisher messaging.Publisher, channel string, logger *zap.Logger) *EFTPublisher {
	return &EFTPublisher{
		publisher: publisher,
		channel:   channel,
		logger:    logger.Named("eft_notifier"),
		now:       time.Now,
	}
}

func (n *EFTPublisher) OnApproved(ctx context.Context, payment eft.Payment, user eft.User) error {
	return n.publish(ctx, EFTEvent{
		Action:          eft.ActionApproved,
		PaymentID:       payment.GetID(),
		ReferenceNumber: payment.EFTReferenceNumber(),
		Reviewer:        user.GetUserID(),
		OccurredAt:      n.now().UTC(),
	})
}

func (n *EFTPublisher) OnRejected(ctx context.Context, payment eft.Payment, user eft.User, reason string) error {
	return n.publish(ctx, EFTEvent{
		Action:          eft.ActionRejected,
		PaymentID:       payment.GetID(),
		ReferenceNumber: payment.EFTReferenceNumber(),
		Reviewer:        user.GetUserID(),
		Reason:          reason,
		OccurredAt:      n.now().UTC(),
	})
}

func (n *EFTPublisher) publish(ctx context.Context, event EFTEvent) error {
	if err := n.publisher.Publish(ctx, n.channel, event); err != nil {
		return fmt.Errorf("publish EFT %s event for payment %d: %w", event.Action, event.PaymentID, err)
	}
	n.logger.Debug("EFT event published",
		zap.String("channel", n.channel),
		zap.String("action", event.Action),
		zap.Int64("payment_id", event.PaymentID))
	return nil
}
