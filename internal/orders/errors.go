package orders

import "errors"

var (
	// ErrNotFound: no order for the identifier, or payment not confirmed yet.
	ErrNotFound = errors.New("order not found")

	// ErrNotEntitled is the generic denial for every failed gate precondition
	// (wrong owner, expired, quota exhausted). The specific cause is logged,
	// never returned.
	ErrNotEntitled = errors.New("download not permitted")

	// ErrFileUnavailable: entitlement valid but no asset on disk. The
	// download counter must not move in this case.
	ErrFileUnavailable = errors.New("file unavailable")
)
