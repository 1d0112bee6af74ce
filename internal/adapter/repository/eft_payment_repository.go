package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/wekeepgrowing/paygate/internal/domain/model"
	domainRepo "github.com/wekeepgrowing/paygate/internal/domain/repository"
	"github.com/wekeepgrowing/paygate/internal/eft"
	"github.com/wekeepgrowing/paygate/internal/infrastructure/database"
	pkgErrors "github.com/wekeepgrowing/paygate/pkg/errors"
)

type eftPaymentRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewEFTPaymentRepository creates a new EFT payment repository
func NewEFTPaymentRepository(db *gorm.DB, logger *zap.Logger) domainRepo.EFTPaymentRepository {
	return &eftPaymentRepository{
		db:     db,
		logger: logger,
	}
}

func (r *eftPaymentRepository) Create(ctx context.Context, payment *model.EFTPayment) error {
	if err := database.DB(ctx, r.db).Create(payment).Error; err != nil {
		r.logger.Error("Failed to create EFT payment",
			zap.String("reference_number", payment.ReferenceNumber()),
			zap.Error(err))
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return pkgErrors.NewAppError(pkgErrors.ErrConflict, "EFT reference number already submitted", err)
		}
		return fmt.Errorf("failed to create EFT payment: %w", err)
	}
	return nil
}

func (r *eftPaymentRepository) GetByID(ctx context.Context, id int64) (*model.EFTPayment, error) {
	var payment model.EFTPayment
	err := database.DB(ctx, r.db).First(&payment, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgErrors.Newf(pkgErrors.ErrNotFound, "EFT payment %d not found", id)
		}
		return nil, fmt.Errorf("failed to get EFT payment: %w", err)
	}
	return &payment, nil
}

func (r *eftPaymentRepository) GetByIDs(ctx context.Context, ids []int64) ([]*model.EFTPayment, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var found []*model.EFTPayment
	if err := database.DB(ctx, r.db).Where("id IN ?", lo.Uniq(ids)).Find(&found).Error; err != nil {
		return nil, fmt.Errorf("failed to get EFT payments: %w", err)
	}
	return orderByIDs(ids, found)
}

// orderByIDs returns found rearranged to match ids, duplicates included.
func orderByIDs(ids []int64, found []*model.EFTPayment) ([]*model.EFTPayment, error) {
	byID := lo.KeyBy(found, func(p *model.EFTPayment) int64 { return p.ID })
	out := make([]*model.EFTPayment, 0, len(ids))
	for _, id := range ids {
		p, ok := byID[id]
		if !ok {
			return nil, pkgErrors.Newf(pkgErrors.ErrNotFound, "EFT payment %d not found", id)
		}
		out = append(out, p)
	}
	return out, nil
}

func (r *eftPaymentRepository) Save(ctx context.Context, payment *model.EFTPayment) error {
	if err := database.DB(ctx, r.db).Save(payment).Error; err != nil {
		r.logger.Error("Failed to save EFT payment",
			zap.Int64("payment_id", payment.ID),
			zap.Error(err))
		return fmt.Errorf("failed to save EFT payment: %w", err)
	}
	return nil
}

func (r *eftPaymentRepository) Query() domainRepo.EFTQuery {
	return &eftQuery{db: r.db}
}

func (r *eftPaymentRepository) Bind(payment *model.EFTPayment) eft.Payment {
	return &boundEFTPayment{record: payment, writer: r}
}

// eftQuery accumulates scopes and only touches the database in Find/Count.
type eftQuery struct {
	db     *gorm.DB
	scopes []func(*gorm.DB) *gorm.DB
}

func (q *eftQuery) with(scope func(*gorm.DB) *gorm.DB) *eftQuery {
	scopes := make([]func(*gorm.DB) *gorm.DB, len(q.scopes), len(q.scopes)+1)
	copy(scopes, q.scopes)
	return &eftQuery{db: q.db, scopes: append(scopes, scope)}
}

func (q *eftQuery) Filter(f eft.Filter) domainRepo.EFTQuery {
	return q.with(func(db *gorm.DB) *gorm.DB {
		if f.HasReferenceNumber {
			db = db.Where("eft_reference_number IS NOT NULL AND eft_reference_number <> ''")
		}
		if f.NotApproved {
			db = db.Where("approved_at IS NULL")
		}
		if f.NotRejected {
			db = db.Where("rejected_at IS NULL")
		}
		return db
	})
}

func (q *eftQuery) Limit(n int) domainRepo.EFTQuery {
	return q.with(func(db *gorm.DB) *gorm.DB { return db.Limit(n) })
}

func (q *eftQuery) apply(db *gorm.DB) *gorm.DB {
	return db.Model(&model.EFTPayment{}).Scopes(q.scopes...)
}

func (q *eftQuery) Find(ctx context.Context) ([]*model.EFTPayment, error) {
	var payments []*model.EFTPayment
	if err := q.apply(database.DB(ctx, q.db)).Order("created_at ASC").Find(&payments).Error; err != nil {
		return nil, fmt.Errorf("failed to query EFT payments: %w", err)
	}
	return payments, nil
}

func (q *eftQuery) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := q.apply(database.DB(ctx, q.db)).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count EFT payments: %w", err)
	}
	return n, nil
}

// reviewWriter persists a review decision together with its audit entry.
type reviewWriter interface {
	SaveReview(ctx context.Context, payment *model.EFTPayment, entry *model.AuditLog) error
}

// SaveReview writes payment and entry through the transaction in ctx, so
// both land or neither does.
func (r *eftPaymentRepository) SaveReview(ctx context.Context, payment *model.EFTPayment, entry *model.AuditLog) error {
	db := database.DB(ctx, r.db)
	if err := db.Save(payment).Error; err != nil {
		r.logger.Error("Failed to save EFT review", zap.Int64("payment_id", payment.ID), zap.Error(err))
		return fmt.Errorf("failed to save EFT payment: %w", err)
	}
	if err := db.Create(entry).Error; err != nil {
		r.logger.Error("Failed to write EFT audit entry", zap.Int64("payment_id", payment.ID), zap.Error(err))
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}

// boundEFTPayment adapts a stored record to eft.Payment. The record is only
// updated in memory once the surrounding transaction commits.
type boundEFTPayment struct {
	record *model.EFTPayment
	writer reviewWriter
}

func (b *boundEFTPayment) GetID() int64                { return b.record.ID }
func (b *boundEFTPayment) EFTReferenceNumber() string  { return b.record.ReferenceNumber() }
func (b *boundEFTPayment) EFTBankName() string         { return b.record.EFTBankName }
func (b *boundEFTPayment) EFTTransferDate() *time.Time { return b.record.EFTTransferDate }
func (b *boundEFTPayment) EFTSenderName() string       { return b.record.EFTSenderName }
func (b *boundEFTPayment) ApprovedAt() *time.Time      { return b.record.ApprovedAt }
func (b *boundEFTPayment) ApprovedBy() string          { return lo.FromPtr(b.record.ApprovedBy) }
func (b *boundEFTPayment) RejectedAt() *time.Time      { return b.record.RejectedAt }
func (b *boundEFTPayment) RejectedBy() string          { return lo.FromPtr(b.record.RejectedBy) }
func (b *boundEFTPayment) RejectionReason() string     { return lo.FromPtr(b.record.RejectionReason) }

// Record returns the underlying model.
func (b *boundEFTPayment) Record() *model.EFTPayment { return b.record }

func (b *boundEFTPayment) Approve(ctx context.Context, user eft.User) error {
	next := *b.record
	next.MarkApproved(user.GetUserID(), time.Now().UTC())
	return b.commit(ctx, &next, user, eft.ActionApproved, nil)
}

func (b *boundEFTPayment) Reject(ctx context.Context, user eft.User, reason string) error {
	next := *b.record
	next.MarkRejected(user.GetUserID(), reason, time.Now().UTC())
	return b.commit(ctx, &next, user, eft.ActionRejected, model.JSONB{"reason": reason})
}

func (b *boundEFTPayment) commit(ctx context.Context, next *model.EFTPayment, user eft.User, action string, metadata model.JSONB) error {
	if metadata == nil {
		metadata = model.JSONB{}
	}
	metadata["reference_number"] = next.ReferenceNumber()

	entry := &model.AuditLog{
		Actor:     user.GetUserID(),
		Action:    auditActionPrefix + action,
		Table:     next.TableName(),
		RecordID:  lo.ToPtr(next.ID),
		OldValues: b.record.ReviewState(),
		NewValues: next.ReviewState(),
		Metadata:  metadata,
	}
	if err := b.writer.SaveReview(ctx, next, entry); err != nil {
		return err
	}
	eft.AfterCommit(ctx, func() { *b.record = *next })
	return nil
}

const auditActionPrefix = "eft."
