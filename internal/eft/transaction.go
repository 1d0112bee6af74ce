package eft

import "context"

// Transactor runs fn atomically. Writes made through the ctx passed to fn
// are committed when fn returns nil and discarded otherwise.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// TransactorFunc adapts a function to Transactor.
type TransactorFunc func(ctx context.Context, fn func(ctx context.Context) error) error

func (f TransactorFunc) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return f(ctx, fn)
}

// NoopTransactor runs fn directly, for records without a backing store.
type NoopTransactor struct{}

func (NoopTransactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type afterCommitKey struct{}

type afterCommitHooks struct {
	fns []func()
}

// AfterCommit defers fn until the approval transaction carried by ctx has
// committed. Without one, fn runs immediately. Payment implementations use it
// to publish new state to their in-memory record only once it is durable.
func AfterCommit(ctx context.Context, fn func()) {
	if hooks, ok := ctx.Value(afterCommitKey{}).(*afterCommitHooks); ok {
		hooks.fns = append(hooks.fns, fn)
		return
	}
	fn()
}
