package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// EFTPayment represents a bank transfer awaiting manual reconciliation
type EFTPayment struct {
	ID                 int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	Amount             decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"amount"`
	Currency           string          `gorm:"size:3;default:'TRY'" json:"currency"`
	EFTReferenceNumber *string         `gorm:"column:eft_reference_number;unique;size:100" json:"eft_reference_number,omitempty"`
	EFTBankName        string          `gorm:"column:eft_bank_name;size:100" json:"eft_bank_name,omitempty"`
	EFTTransferDate    *time.Time      `gorm:"column:eft_transfer_date" json:"eft_transfer_date,omitempty"`
	EFTSenderName      string          `gorm:"column:eft_sender_name;size:200" json:"eft_sender_name,omitempty"`
	SenderIBAN         string          `gorm:"column:sender_iban_encrypted" json:"-"`
	SenderIBANIV       string          `gorm:"column:sender_iban_iv;size:64" json:"-"`
	ApprovedAt         *time.Time      `gorm:"index" json:"approved_at,omitempty"`
	ApprovedBy         *string         `gorm:"size:100" json:"approved_by,omitempty"`
	RejectedAt         *time.Time      `gorm:"index" json:"rejected_at,omitempty"`
	RejectedBy         *string         `gorm:"size:100" json:"rejected_by,omitempty"`
	RejectionReason    *string         `json:"rejection_reason,omitempty"`
	CreatedAt          time.Time       `gorm:"default:now()" json:"created_at"`
	UpdatedAt          time.Time       `gorm:"default:now()" json:"updated_at"`
}

// TableName specifies the table name for GORM
func (EFTPayment) TableName() string {
	return "eft_payments"
}

func (p *EFTPayment) GetID() int64               { return p.ID }
func (p *EFTPayment) GetAmount() decimal.Decimal { return p.Amount }
func (p *EFTPayment) GetCurrency() string        { return p.Currency }

// ReferenceNumber returns the bank reference or "" when none was recorded.
func (p *EFTPayment) ReferenceNumber() string {
	if p.EFTReferenceNumber == nil {
		return ""
	}
	return *p.EFTReferenceNumber
}

// MarkApproved records the approval and clears any earlier rejection.
func (p *EFTPayment) MarkApproved(by string, at time.Time) {
	p.ApprovedAt = &at
	p.ApprovedBy = &by
	p.RejectedAt = nil
	p.RejectedBy = nil
	p.RejectionReason = nil
}

// MarkRejected records the rejection and clears any earlier approval.
func (p *EFTPayment) MarkRejected(by, reason string, at time.Time) {
	p.RejectedAt = &at
	p.RejectedBy = &by
	p.RejectionReason = &reason
	p.ApprovedAt = nil
	p.ApprovedBy = nil
}

// ReviewState is the part of an EFTPayment a review decision changes.
func (p *EFTPayment) ReviewState() JSONB {
	return JSONB{
		"approved_at":      p.ApprovedAt,
		"approved_by":      p.ApprovedBy,
		"rejected_at":      p.RejectedAt,
		"rejected_by":      p.RejectedBy,
		"rejection_reason": p.RejectionReason,
	}
}
