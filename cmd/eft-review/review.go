package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/pflag"

	"github.com/wekeepgrowing/paygate/internal/domain/model"
	"github.com/wekeepgrowing/paygate/internal/eft"
)

// Reviewer is the part of the review service the CLI drives.
type Reviewer interface {
	ListPending(ctx context.Context, limit int) ([]*model.EFTPayment, error)
	BulkApprove(ctx context.Context, ids []int64, user eft.User, opts ...eft.ActionOption) ([]eft.ApprovalResult, error)
	BulkReject(ctx context.Context, ids []int64, user eft.User, reason string, opts ...eft.ActionOption) ([]eft.ApprovalResult, error)
}

type operator string

func (o operator) GetUserID() string { return string(o) }

type options struct {
	list     bool
	limit    int
	approve  []int64
	reject   []int64
	reason   string
	reviewer string
	notify   bool
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	fs := pflag.NewFlagSet("eft-review", pflag.ContinueOnError)
	fs.SetOutput(stderr)

	o := &options{}
	fs.BoolVar(&o.list, "list", false, "list EFT payments awaiting review")
	fs.IntVar(&o.limit, "limit", 0, "maximum payments to list")
	fs.Int64SliceVar(&o.approve, "approve", nil, "comma separated payment ids to approve")
	fs.Int64SliceVar(&o.reject, "reject", nil, "comma separated payment ids to reject")
	fs.StringVar(&o.reason, "reason", "", "rejection reason")
	fs.StringVar(&o.reviewer, "reviewer", "", "identity recorded as approver or rejecter")
	fs.BoolVar(&o.notify, "notify", true, "publish the decision to downstream consumers")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	actions := 0
	for _, set := range []bool{o.list, len(o.approve) > 0, len(o.reject) > 0} {
		if set {
			actions++
		}
	}
	switch {
	case actions != 1:
		return nil, errors.New("exactly one of --list, --approve or --reject is required")
	case !o.list && strings.TrimSpace(o.reviewer) == "":
		return nil, errors.New("--reviewer is required to approve or reject")
	}
	return o, nil
}

// run executes one CLI invocation and returns the process exit code: 0 when
// every item succeeded, 1 when any review was refused, 2 on usage or
// lookup errors.
func run(ctx context.Context, args []string, reviews Reviewer, stdout, stderr io.Writer) int {
	o, err := parseFlags(args, stderr)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}

	if o.list {
		payments, err := reviews.ListPending(ctx, o.limit)
		if err != nil {
			fmt.Fprintln(stderr, err)
			return 2
		}
		for _, p := range payments {
			fmt.Fprintf(stdout, "%d\t%s\t%s %s\t%s\t%s\n",
				p.ID, p.ReferenceNumber(), p.Amount.StringFixed(2), p.Currency, p.EFTBankName, p.EFTSenderName)
		}
		return 0
	}

	user := operator(strings.TrimSpace(o.reviewer))
	var results []eft.ApprovalResult
	if len(o.approve) > 0 {
		results, err = reviews.BulkApprove(ctx, o.approve, user, eft.WithNotify(o.notify))
	} else {
		results, err = reviews.BulkReject(ctx, o.reject, user, o.reason, eft.WithNotify(o.notify))
	}
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}

	code := 0
	for _, r := range results {
		fmt.Fprintln(stdout, formatResult(r))
		if !r.Success {
			code = 1
		}
	}
	return code
}

func formatResult(r eft.ApprovalResult) string {
	if r.Success {
		return fmt.Sprintf("ok\tpayment=%d\t%s", r.PaymentID, r.Action)
	}
	return fmt.Sprintf("failed\tpayment=%d\t%s\t%s", r.PaymentID, r.Action, r.Error)
}
