package eft

import (
	"context"
	"fmt"

	"github.com/samber/lo"
	"go.uber.org/zap"
)

// ApprovalService approves and rejects EFT payments. Each decision runs in
// its own transaction; the notifier is called only after it commits.
type ApprovalService struct {
	tx       Transactor
	notifier Notifier
	logger   *zap.Logger
}

type Option func(*ApprovalService)

func WithTransactor(tx Transactor) Option {
	return func(s *ApprovalService) {
		if tx != nil {
			s.tx = tx
		}
	}
}

func WithNotifier(n Notifier) Option {
	return func(s *ApprovalService) {
		if n != nil {
			s.notifier = n
		}
	}
}

func NewApprovalService(logger *zap.Logger, opts ...Option) *ApprovalService {
	s := &ApprovalService{
		tx:       NoopTransactor{},
		notifier: NopNotifier{},
		logger:   logger.Named("eft"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type actionOptions struct {
	notify bool
}

// ActionOption tunes a single approve or reject call.
type ActionOption func(*actionOptions)

// WithNotify controls whether the notifier runs after commit. Defaults to true.
func WithNotify(notify bool) ActionOption {
	return func(o *actionOptions) { o.notify = notify }
}

func resolveActionOptions(opts []ActionOption) actionOptions {
	o := actionOptions{notify: true}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// ApprovePayment marks payment approved. Preconditions are checked in order:
// a reference number must exist, then the payment must not already be approved.
func (s *ApprovalService) ApprovePayment(ctx context.Context, payment Payment, user User, opts ...ActionOption) ApprovalResult {
	o := resolveActionOptions(opts)
	id := payment.GetID()

	if payment.EFTReferenceNumber() == "" {
		return s.fail(id, ActionApproved, fmt.Sprintf("Payment %d has no EFT reference number", id))
	}
	if payment.ApprovedAt() != nil {
		return s.fail(id, ActionApproved, fmt.Sprintf("Payment %d is already approved", id))
	}

	if err := s.atomically(ctx, func(ctx context.Context) error {
		return payment.Approve(ctx, user)
	}); err != nil {
		s.logger.Error("Failed to approve EFT payment",
			zap.Int64("payment_id", id),
			zap.String("reviewer", user.GetUserID()),
			zap.Error(err))
		return s.fail(id, ActionApproved, err.Error())
	}

	s.logger.Info("EFT payment approved",
		zap.Int64("payment_id", id),
		zap.String("reference_number", payment.EFTReferenceNumber()),
		zap.String("reviewer", user.GetUserID()))

	if o.notify {
		if err := s.notifier.OnApproved(ctx, payment, user); err != nil {
			s.logger.Warn("EFT approval notification failed", zap.Int64("payment_id", id), zap.Error(err))
		}
	}

	return ApprovalResult{Success: true, PaymentID: id, Action: ActionApproved}
}

// RejectPayment marks payment rejected with reason. The reason is stored as
// given, empty included.
func (s *ApprovalService) RejectPayment(ctx context.Context, payment Payment, user User, reason string, opts ...ActionOption) ApprovalResult {
	o := resolveActionOptions(opts)
	id := payment.GetID()

	// Rejection does not require a reference number.
	if payment.RejectedAt() != nil {
		return s.fail(id, ActionRejected, fmt.Sprintf("Payment %d is already rejected", id))
	}

	if err := s.atomically(ctx, func(ctx context.Context) error {
		return payment.Reject(ctx, user, reason)
	}); err != nil {
		s.logger.Error("Failed to reject EFT payment",
			zap.Int64("payment_id", id),
			zap.String("reviewer", user.GetUserID()),
			zap.Error(err))
		return s.fail(id, ActionRejected, err.Error())
	}

	s.logger.Info("EFT payment rejected",
		zap.Int64("payment_id", id),
		zap.String("reference_number", payment.EFTReferenceNumber()),
		zap.String("reviewer", user.GetUserID()),
		zap.String("reason", reason))

	if o.notify {
		if err := s.notifier.OnRejected(ctx, payment, user, reason); err != nil {
			s.logger.Warn("EFT rejection notification failed", zap.Int64("payment_id", id), zap.Error(err))
		}
	}

	return ApprovalResult{Success: true, PaymentID: id, Action: ActionRejected}
}

// BulkApprove approves each payment independently; one failure does not stop
// the rest. Results follow input order.
func (s *ApprovalService) BulkApprove(ctx context.Context, payments []Payment, user User, opts ...ActionOption) []ApprovalResult {
	results := make([]ApprovalResult, 0, len(payments))
	for _, p := range payments {
		results = append(results, s.ApprovePayment(ctx, p, user, opts...))
	}
	s.logBulk(ActionApproved, results)
	return results
}

// BulkReject rejects each payment with the same reason.
func (s *ApprovalService) BulkReject(ctx context.Context, payments []Payment, user User, reason string, opts ...ActionOption) []ApprovalResult {
	results := make([]ApprovalResult, 0, len(payments))
	for _, p := range payments {
		results = append(results, s.RejectPayment(ctx, p, user, reason, opts...))
	}
	s.logBulk(ActionRejected, results)
	return results
}

// atomically runs fn in a transaction. A panic inside fn rolls back and is
// reported as an error. AfterCommit hooks registered by fn run only when the
// transactor reports success, commit included.
func (s *ApprovalService) atomically(ctx context.Context, fn func(ctx context.Context) error) error {
	hooks := &afterCommitHooks{}
	ctx = context.WithValue(ctx, afterCommitKey{}, hooks)

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("%v", r)
			}
		}()
		return fn(ctx)
	})
	if err != nil {
		return err
	}
	for _, fn := range hooks.fns {
		fn()
	}
	return nil
}

func (s *ApprovalService) fail(id int64, action, msg string) ApprovalResult {
	s.logger.Warn("EFT review refused",
		zap.Int64("payment_id", id),
		zap.String("action", action),
		zap.String("reason", msg))
	return ApprovalResult{Success: false, PaymentID: id, Action: action, Error: msg}
}

func (s *ApprovalService) logBulk(action string, results []ApprovalResult) {
	succeeded := lo.CountBy(results, func(r ApprovalResult) bool { return r.Success })
	s.logger.Info("Bulk EFT review finished",
		zap.String("action", action),
		zap.Int("total", len(results)),
		zap.Int("succeeded", succeeded))
}
