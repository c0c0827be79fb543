package payments

import (
	"context"
	"errors"
)

// ErrSessionNotFound: the processor has no session under that identifier.
var ErrSessionNotFound = errors.New("checkout session not found")

// CheckoutSession is the slice of processor session state reconciliation
// reads. Everything else about the processor stays opaque.
type CheckoutSession struct {
	ID            string
	Paid          bool
	CustomerEmail string
	CustomerName  string
	AmountCents   int64
	Currency      string
	Metadata      map[string]string
}

type Provider interface {
	CheckoutSession(ctx context.Context, id string) (*CheckoutSession, error)
}
