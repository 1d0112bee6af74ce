package repository

import (
	"context"

	"github.com/wekeepgrowing/paygate/internal/domain/model"
	"github.com/wekeepgrowing/paygate/internal/eft"
)

// EFTQuery is a narrowing query over EFT payments. Filters are translated to
// SQL; nothing is filtered in memory.
type EFTQuery interface {
	Filter(f eft.Filter) EFTQuery
	Limit(n int) EFTQuery
	Find(ctx context.Context) ([]*model.EFTPayment, error)
	Count(ctx context.Context) (int64, error)
}

type EFTPaymentRepository interface {
	Create(ctx context.Context, payment *model.EFTPayment) error
	GetByID(ctx context.Context, id int64) (*model.EFTPayment, error)
	// GetByIDs returns the records in the order of ids; unknown ids are an error.
	GetByIDs(ctx context.Context, ids []int64) ([]*model.EFTPayment, error)
	Save(ctx context.Context, payment *model.EFTPayment) error
	Query() EFTQuery
	// Bind exposes payment to the approval service. Mutations are written
	// through the transaction carried by ctx.
	Bind(payment *model.EFTPayment) eft.Payment
}
