package eft

import "context"

// Notifier receives committed transitions. Errors are logged and never
// undo the transition.
type Notifier interface {
	OnApproved(ctx context.Context, payment Payment, user User) error
	OnRejected(ctx context.Context, payment Payment, user User, reason string) error
}

type NopNotifier struct{}

func (NopNotifier) OnApproved(context.Context, Payment, User) error { return nil }

func (NopNotifier) OnRejected(context.Context, Payment, User, string) error { return nil }

// NotifierFuncs builds a Notifier from optional callbacks.
type NotifierFuncs struct {
	Approved func(ctx context.Context, payment Payment, user User) error
	Rejected func(ctx context.Context, payment Payment, user User, reason string) error
}

func (n NotifierFuncs) OnApproved(ctx context.Context, payment Payment, user User) error {
	if n.Approved == nil {
		return nil
	}
	return n.Approved(ctx, payment, user)
}

func (n NotifierFuncs) OnRejected(ctx context.Context, payment Payment, user User, reason string) error {
	if n.Rejected == nil {
		return nil
	}
	return n.Rejected(ctx, payment, user, reason)
}

// MultiNotifier fans out to every notifier in order and returns the first error.
type MultiNotifier []Notifier

func (m MultiNotifier) OnApproved(ctx context.Context, payment Payment, user User) error {
	var first error
	for _, n := range m {
		if err := n.OnApproved(ctx, payment, user); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (m MultiNotifier) OnRejected(ctx context.Context, payment Payment, user User, reason string) error {
	var first error
	for _, n := range m {
		if err := n.OnRejected(ctx, payment, user, reason); err != nil && first == nil {
			first = err
		}
	}
	return first
}
