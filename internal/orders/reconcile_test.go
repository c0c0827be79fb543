package orders

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/dkellner/modelstore/internal/payments"
)

func testLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

type fakeSessionStore struct {
	bySession map[string]*Order
	backfills int

	// insertConflict simulates losing the unique-constraint race: the insert
	// reports no row written and plants the winner's order instead.
	insertConflict *Order
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{bySession: map[string]*Order{}}
}

func (s *fakeSessionStore) FindBySession(ctx context.Context, sessionID string) (*Order, error) {
	if o, ok := s.bySession[sessionID]; ok {
		return o, nil
	}
	return nil, ErrNotFound
}

func (s *fakeSessionStore) Insert(ctx context.Context, o *Order) (bool, error) {
	if s.insertConflict != nil {
		s.bySession[o.StripeSessionID] = s.insertConflict
		return false, nil
	}
	if _, ok := s.bySession[o.StripeSessionID]; ok {
		return false, nil
	}
	s.bySession[o.StripeSessionID] = o
	return true, nil
}

func (s *fakeSessionStore) BackfillExpiry(ctx context.Context, id string, expires time.Time) error {
	s.backfills++
	for _, o := range s.bySession {
		if o.ID == id && o.DownloadExpires == nil {
			t := expires
			o.DownloadExpires = &t
		}
	}
	return nil
}

type fakeProvider struct {
	sessions map[string]*payments.CheckoutSession
}

func (p *fakeProvider) CheckoutSession(ctx context.Context, id string) (*payments.CheckoutSession, error) {
	if s, ok := p.sessions[id]; ok {
		return s, nil
	}
	return nil, payments.ErrSessionNotFound
}

func paidSession() *payments.CheckoutSession {
	return &payments.CheckoutSession{
		ID:            "sess_123",
		Paid:          true,
		CustomerEmail: "jane@example.com",
		AmountCents:   498500,
		Currency:      "usd",
		Metadata: map[string]string{
			"modelId":    "7",
			"modelTitle": "Multifamily Model",
			"modelSlug":  "multifamily",
		},
	}
}

func newReconciler(store SessionStore, prov payments.Provider, now time.Time) *Reconciler {
	return &Reconciler{
		Store:        store,
		Payments:     prov,
		Window:       30 * 24 * time.Hour,
		MaxDownloads: 5,
		Log:          testLogger(),
		now:          func() time.Time { return now },
	}
}

func TestReconcileCreatesOrder(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	store := newFakeSessionStore()
	r := newReconciler(store, &fakeProvider{sessions: map[string]*payments.CheckoutSession{"sess_123": paidSession()}}, now)

	o, created, err := r.Reconcile(context.Background(), "sess_123")
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if !created {
		t.Fatal("expected created=true on first reconciliation")
	}
	if o.ModelTitle != "Multifamily Model" || o.ModelSlug != "multifamily" || o.ModelID != "7" {
		t.Fatalf("model snapshot wrong: %+v", o)
	}
	if o.AmountCents != 498500 || o.Amount != 4985.00 {
		t.Fatalf("amount wrong: cents=%d amount=%v", o.AmountCents, o.Amount)
	}
	if o.Currency != "usd" || o.Status != StatusCompleted || o.PaymentStatus != "paid" {
		t.Fatalf("status fields wrong: %+v", o)
	}
	if o.DownloadCount != 0 || o.MaxDownloads != 5 {
		t.Fatalf("download quota wrong: %+v", o)
	}
	want := now.Add(30 * 24 * time.Hour)
	if o.DownloadExpires == nil || !o.DownloadExpires.Equal(want) {
		t.Fatalf("expiry = %v, want %v", o.DownloadExpires, want)
	}
}

func TestReconcileIdempotent(t *testing.T) {
	store := newFakeSessionStore()
	r := newReconciler(store, &fakeProvider{sessions: map[string]*payments.CheckoutSession{"sess_123": paidSession()}}, time.Now().UTC())

	first, created, err := r.Reconcile(context.Background(), "sess_123")
	if err != nil || !created {
		t.Fatalf("first reconcile: created=%v err=%v", created, err)
	}
	second, created, err := r.Reconcile(context.Background(), "sess_123")
	if err != nil {
		t.Fatalf("second reconcile: %v", err)
	}
	if created {
		t.Fatal("second reconciliation must not create a row")
	}
	if first.ID != second.ID {
		t.Fatalf("order ids differ: %s vs %s", first.ID, second.ID)
	}
	if len(store.bySession) != 1 {
		t.Fatalf("expected exactly one row, got %d", len(store.bySession))
	}
}

func TestReconcileUnpaidSession(t *testing.T) {
	store := newFakeSessionStore()
	sess := paidSession()
	sess.Paid = false
	r := newReconciler(store, &fakeProvider{sessions: map[string]*payments.CheckoutSession{"sess_123": sess}}, time.Now().UTC())

	_, _, err := r.Reconcile(context.Background(), "sess_123")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound for unpaid session, got %v", err)
	}
	if len(store.bySession) != 0 {
		t.Fatal("unpaid session must not create an order")
	}
}

func TestReconcileUnknownSession(t *testing.T) {
	r := newReconciler(newFakeSessionStore(), &fakeProvider{}, time.Now().UTC())
	_, _, err := r.Reconcile(context.Background(), "sess_nope")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestReconcileDefaults(t *testing.T) {
	sess := paidSession()
	sess.Metadata = map[string]string{}
	sess.Currency = ""
	sess.CustomerName = ""
	r := newReconciler(newFakeSessionStore(), &fakeProvider{sessions: map[string]*payments.CheckoutSession{"sess_123": sess}}, time.Now().UTC())

	o, _, err := r.Reconcile(context.Background(), "sess_123")
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if o.ModelTitle != "Unknown Model" {
		t.Fatalf("title default wrong: %q", o.ModelTitle)
	}
	if o.Currency != "usd" {
		t.Fatalf("currency default wrong: %q", o.Currency)
	}
	if o.CustomerName != "" {
		t.Fatalf("customer name should default to empty, got %q", o.CustomerName)
	}
}

func TestReconcileLostInsertRace(t *testing.T) {
	winner := &Order{ID: "winner", StripeSessionID: "sess_123", Status: StatusCompleted}
	exp := time.Now().Add(time.Hour)
	winner.DownloadExpires = &exp

	store := newFakeSessionStore()
	store.insertConflict = winner
	r := newReconciler(store, &fakeProvider{sessions: map[string]*payments.CheckoutSession{"sess_123": paidSession()}}, time.Now().UTC())

	o, created, err := r.Reconcile(context.Background(), "sess_123")
	if err != nil {
		t.Fatalf("losing the insert race must not error the caller: %v", err)
	}
	if created {
		t.Fatal("loser must report created=false")
	}
	if o.ID != "winner" {
		t.Fatalf("loser must return the winner's row, got %q", o.ID)
	}
}

func TestReconcileBackfillsLegacyExpiry(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	legacy := &Order{ID: "legacy", StripeSessionID: "sess_old", Status: StatusCompleted}
	store := newFakeSessionStore()
	store.bySession["sess_old"] = legacy
	r := newReconciler(store, &fakeProvider{}, now)

	o, _, err := r.Reconcile(context.Background(), "sess_old")
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	want := now.Add(30 * 24 * time.Hour)
	if o.DownloadExpires == nil || !o.DownloadExpires.Equal(want) {
		t.Fatalf("backfilled expiry = %v, want %v", o.DownloadExpires, want)
	}
	if store.backfills != 1 {
		t.Fatalf("backfill persisted %d times, want 1", store.backfills)
	}

	// second pass must not backfill again
	if _, _, err := r.Reconcile(context.Background(), "sess_old"); err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if store.backfills != 1 {
		t.Fatalf("backfill ran again: %d", store.backfills)
	}
}
