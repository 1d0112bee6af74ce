package http

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/wekeepgrowing/paygate/internal/domain/provider"
	"github.com/wekeepgrowing/paygate/internal/eft"
	"github.com/wekeepgrowing/paygate/internal/usecase"
)

type SubmitEFTRequest struct {
	Amount          decimal.Decimal `json:"amount"`
	Currency        string          `json:"currency" validate:"omitempty,len=3,alpha"`
	ReferenceNumber string          `json:"reference_number" validate:"required,max=64"`
	BankName        string          `json:"bank_name" validate:"omitempty,max=128"`
	SenderName      string          `json:"sender_name" validate:"omitempty,max=128"`
	SenderIBAN      string          `json:"sender_iban" validate:"omitempty,max=42"`
	TransferDate    *time.Time      `json:"transfer_date"`
}

func (r *SubmitEFTRequest) Validate() error {
	return validator.New().Struct(r)
}

func (r *SubmitEFTRequest) ToInput() usecase.SubmitEFTInput {
	return usecase.SubmitEFTInput{
		Amount:          r.Amount,
		Currency:        r.Currency,
		ReferenceNumber: r.ReferenceNumber,
		BankName:        r.BankName,
		SenderName:      r.SenderName,
		SenderIBAN:      r.SenderIBAN,
		TransferDate:    r.TransferDate,
	}
}

// ReviewRequest is the optional body of the approve endpoint. Notify
// defaults to true when omitted.
type ReviewRequest struct {
	Notify *bool `json:"notify"`
}

type RejectRequest struct {
	Reason string `json:"reason" validate:"max=500"`
	Notify *bool  `json:"notify"`
}

func (r *RejectRequest) Validate() error {
	return validator.New().Struct(r)
}

type BulkReviewRequest struct {
	IDs    []int64 `json:"ids" validate:"required,min=1,max=500,dive,gt=0"`
	Reason string  `json:"reason" validate:"max=500"`
	Notify *bool   `json:"notify"`
}

func (r *BulkReviewRequest) Validate() error {
	return validator.New().Struct(r)
}

type ProvidersResponse struct {
	Default   string                  `json:"default"`
	Providers []provider.Capabilities `json:"providers"`
}

type BulkReviewResponse struct {
	Results   []eft.ApprovalResult `json:"results"`
	Succeeded int                  `json:"succeeded"`
	Failed    int                  `json:"failed"`
}
