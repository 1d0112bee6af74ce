// Package eft implements the review workflow for manual bank transfers.
//
// An EFT payment is Pending until a reviewer approves or rejects it. The
// state is derived only from ApprovedAt and RejectedAt; the record's own
// mutators keep the two mutually exclusive.
package eft

import (
	"context"
	"time"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

var statusLabels = map[Status]string{
	StatusPending:  "Pending Review",
	StatusApproved: "Approved",
	StatusRejected: "Rejected",
}

// Label is the human-readable status shown to reviewers.
func (s Status) Label() string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return string(s)
}

func StatusOf(p Payment) Status {
	switch {
	case p.ApprovedAt() != nil:
		return StatusApproved
	case p.RejectedAt() != nil:
		return StatusRejected
	default:
		return StatusPending
	}
}

// User is the acting reviewer.
type User interface {
	GetUserID() string
}

// Payment is the host's bank-transfer record. The service only reads it and
// calls Approve/Reject; persistence is the implementation's concern.
type Payment interface {
	GetID() int64
	EFTReferenceNumber() string
	EFTBankName() string
	EFTTransferDate() *time.Time
	EFTSenderName() string

	ApprovedAt() *time.Time
	ApprovedBy() string
	RejectedAt() *time.Time
	RejectedBy() string
	RejectionReason() string

	// Approve marks the payment approved by user and clears any rejection.
	Approve(ctx context.Context, user User) error
	// Reject marks the payment rejected by user and clears any approval.
	Reject(ctx context.Context, user User, reason string) error
}

const (
	ActionApproved = "approved"
	ActionRejected = "rejected"
)

// ApprovalResult reports one approve or reject attempt. Failures are
// reported here and never returned as errors.
type ApprovalResult struct {
	Success   bool   `json:"success"`
	PaymentID int64  `json:"payment_id"`
	Action    string `json:"action"`
	Error     string `json:"error,omitempty"`
}
