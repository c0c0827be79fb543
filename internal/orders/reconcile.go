package orders

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/dkellner/modelstore/internal/payments"
)

// SessionStore is the slice of the order store reconciliation needs.
type SessionStore interface {
	FindBySession(ctx context.Context, sessionID string) (*Order, error)
	Insert(ctx context.Context, o *Order) (inserted bool, err error)
	BackfillExpiry(ctx context.Context, id string, expires time.Time) error
}

// Reconciler turns a checkout-session identifier into a durable order.
// Idempotent: re-invocation for a known session returns the existing row.
type Reconciler struct {
	Store        SessionStore
	Payments     payments.Provider
	Window       time.Duration
	MaxDownloads int
	Log          logrus.FieldLogger

	now func() time.Time // test hook
}

func (r *Reconciler) clock() time.Time {
	if r.now != nil {
		return r.now()
	}
	return time.Now().UTC()
}

// Reconcile returns the order for sessionID, materializing it from the
// payment session on first sight. created reports whether this call inserted
// the row.
func (r *Reconciler) Reconcile(ctx context.Context, sessionID string) (o *Order, created bool, err error) {
	existing, err := r.Store.FindBySession(ctx, sessionID)
	if err == nil {
		return existing, false, r.ensureExpiry(ctx, existing)
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, false, err
	}

	sess, err := r.Payments.CheckoutSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, payments.ErrSessionNotFound) {
			return nil, false, ErrNotFound
		}
		return nil, false, err
	}
	if !sess.Paid {
		// Payment not confirmed yet: the order is simply not available.
		return nil, false, ErrNotFound
	}

	now := r.clock()
	expires := now.Add(r.Window)
	fresh := &Order{
		ID:              uuid.NewString(),
		StripeSessionID: sessionID,
		CustomerEmail:   sess.CustomerEmail,
		CustomerName:    sess.CustomerName,
		ModelID:         sess.Metadata["modelId"],
		ModelTitle:      metaOr(sess.Metadata, "modelTitle", "Unknown Model"),
		ModelSlug:       sess.Metadata["modelSlug"],
		AmountCents:     sess.AmountCents,
		Amount:          float64(sess.AmountCents) / 100,
		Currency:        defaultStr(sess.Currency, "usd"),
		Status:          StatusCompleted,
		PaymentStatus:   "paid",
		DownloadExpires: &expires,
		DownloadCount:   0,
		MaxDownloads:    r.MaxDownloads,
		Metadata:        sess.Metadata,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	inserted, err := r.Store.Insert(ctx, fresh)
	if err != nil {
		return nil, false, err
	}
	if !inserted {
		// Lost the race against a concurrent reconciliation of the same
		// session. The winner's row is the order.
		won, err := r.Store.FindBySession(ctx, sessionID)
		if err != nil {
			return nil, false, err
		}
		return won, false, r.ensureExpiry(ctx, won)
	}

	r.Log.WithFields(logrus.Fields{
		"order_id":   fresh.ID,
		"session_id": sessionID,
		"email":      fresh.CustomerEmail,
		"model_slug": fresh.ModelSlug,
	}).Info("order reconciled")
	return fresh, true, nil
}

func (r *Reconciler) ensureExpiry(ctx context.Context, o *Order) error {
	if o.DownloadExpires != nil {
		return nil
	}
	expires := r.clock().Add(r.Window)
	if err := r.Store.BackfillExpiry(ctx, o.ID, expires); err != nil {
		return err
	}
	o.DownloadExpires = &expires
	return nil
}

func metaOr(m map[string]string, key, def string) string {
	if v := m[key]; v != "" {
		return v
	}
	return def
}

func defaultStr(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
