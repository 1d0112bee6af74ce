package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/wekeepgrowing/paygate/internal/domain/model"
	"github.com/wekeepgrowing/paygate/internal/domain/provider"
	domainRepo "github.com/wekeepgrowing/paygate/internal/domain/repository"
	"github.com/wekeepgrowing/paygate/internal/eft"
	"github.com/wekeepgrowing/paygate/internal/infrastructure/crypto"
	pkgErrors "github.com/wekeepgrowing/paygate/pkg/errors"
)

const defaultPendingLimit = 100

// SubmitEFTInput is a bank transfer reported by a buyer.
type SubmitEFTInput struct {
	Amount          decimal.Decimal
	Currency        string
	ReferenceNumber string
	BankName        string
	SenderName      string
	SenderIBAN      string
	TransferDate    *time.Time
}

// EFTReviewService loads EFT records and runs them through the approval
// service. Lookup problems are errors; review outcomes are ApprovalResults.
type EFTReviewService struct {
	repo      domainRepo.EFTPaymentRepository
	approvals *eft.ApprovalService
	cipher    crypto.EncryptionService
	logger    *zap.Logger
}

// NewEFTReviewService creates the review service. cipher may be nil, in
// which case submissions carrying an IBAN are refused.
func NewEFTReviewService(
	repo domainRepo.EFTPaymentRepository,
	approvals *eft.ApprovalService,
	cipher crypto.EncryptionService,
	logger *zap.Logger,
) *EFTReviewService {
	return &EFTReviewService{
		repo:      repo,
		approvals: approvals,
		cipher:    cipher,
		logger:    logger.Named("eft_review"),
	}
}

// Submit records a reported transfer in the pending state.
func (s *EFTReviewService) Submit(ctx context.Context, in SubmitEFTInput) (*model.EFTPayment, error) {
	ref := strings.TrimSpace(in.ReferenceNumber)
	if ref == "" {
		return nil, pkgErrors.Newf(pkgErrors.ErrInvalidArgument, "EFT reference number is required")
	}
	if !in.Amount.IsPositive() {
		return nil, pkgErrors.Newf(pkgErrors.ErrInvalidArgument, "amount must be positive")
	}

	currency := strings.ToUpper(strings.TrimSpace(in.Currency))
	if currency == "" {
		currency = provider.DefaultCurrency
	}

	payment := &model.EFTPayment{
		Amount:             in.Amount,
		Currency:           currency,
		EFTReferenceNumber: &ref,
		EFTBankName:        strings.TrimSpace(in.BankName),
		EFTSenderName:      strings.TrimSpace(in.SenderName),
		EFTTransferDate:    in.TransferDate,
	}

	if in.SenderIBAN != "" {
		if err := crypto.ValidateIBAN(in.SenderIBAN); err != nil {
			return nil, pkgErrors.NewAppError(pkgErrors.ErrInvalidArgument, "sender IBAN is invalid", err)
		}
		if s.cipher == nil {
			return nil, pkgErrors.Newf(pkgErrors.ErrInternal, "IBAN encryption is not configured")
		}
		ct, iv, err := s.cipher.Encrypt(crypto.NormalizeIBAN(in.SenderIBAN))
		if err != nil {
			return nil, pkgErrors.NewAppError(pkgErrors.ErrInternal, "failed to encrypt sender IBAN", err)
		}
		payment.SenderIBAN, payment.SenderIBANIV = ct, iv
	}

	if err := s.repo.Create(ctx, payment); err != nil {
		return nil, err
	}

	s.logger.Info("EFT payment submitted",
		zap.Int64("payment_id", payment.ID),
		zap.String("reference_number", ref),
		zap.String("amount", payment.Amount.StringFixed(2)),
		zap.String("currency", currency),
		zap.String("sender_iban", crypto.MaskIBAN(in.SenderIBAN)))

	return payment, nil
}

// ListPending returns payments awaiting review, oldest first.
func (s *EFTReviewService) ListPending(ctx context.Context, limit int) ([]*model.EFTPayment, error) {
	if limit <= 0 {
		limit = defaultPendingLimit
	}
	return eft.PendingPayments(s.repo.Query()).Limit(limit).Find(ctx)
}

func (s *EFTReviewService) Approve(ctx context.Context, id int64, user eft.User, opts ...eft.ActionOption) (eft.ApprovalResult, error) {
	record, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return eft.ApprovalResult{}, err
	}
	return s.approvals.ApprovePayment(ctx, s.repo.Bind(record), user, opts...), nil
}

func (s *EFTReviewService) Reject(ctx context.Context, id int64, user eft.User, reason string, opts ...eft.ActionOption) (eft.ApprovalResult, error) {
	record, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return eft.ApprovalResult{}, err
	}
	return s.approvals.RejectPayment(ctx, s.repo.Bind(record), user, reason, opts...), nil
}

// BulkApprove fails as a whole only when an id cannot be loaded.
func (s *EFTReviewService) BulkApprove(ctx context.Context, ids []int64, user eft.User, opts ...eft.ActionOption) ([]eft.ApprovalResult, error) {
	payments, err := s.load(ctx, ids)
	if err != nil {
		return nil, err
	}
	return s.approvals.BulkApprove(ctx, payments, user, opts...), nil
}

func (s *EFTReviewService) BulkReject(ctx context.Context, ids []int64, user eft.User, reason string, opts ...eft.ActionOption) ([]eft.ApprovalResult, error) {
	payments, err := s.load(ctx, ids)
	if err != nil {
		return nil, err
	}
	return s.approvals.BulkReject(ctx, payments, user, reason, opts...), nil
}

func (s *EFTReviewService) load(ctx context.Context, ids []int64) ([]eft.Payment, error) {
	records, err := s.repo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	return lo.Map(records, func(r *model.EFTPayment, _ int) eft.Payment {
		return s.repo.Bind(r)
	}), nil
}
