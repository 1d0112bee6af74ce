package eft

// Filter is a storage-agnostic predicate over EFT payments. The host's query
// layer translates it; the service never filters in memory.
type Filter struct {
	HasReferenceNumber bool
	NotApproved        bool
	NotRejected        bool
}

// PendingFilter selects payments with a reference number that nobody has
// reviewed yet.
var PendingFilter = Filter{
	HasReferenceNumber: true,
	NotApproved:        true,
	NotRejected:        true,
}

// Filterable is a host query that can be narrowed by a Filter.
type Filterable[Q any] interface {
	Filter(f Filter) Q
}

// PendingPayments narrows q to payments awaiting review.
func PendingPayments[Q Filterable[Q]](q Q) Q {
	return q.Filter(PendingFilter)
}
