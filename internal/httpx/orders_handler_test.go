package httpx

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/dkellner/modelstore/internal/orders"
	"github.com/dkellner/modelstore/internal/payments"
)

func testLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

type memSessionStore struct {
	bySession map[string]*orders.Order
}

func (s *memSessionStore) FindBySession(ctx context.Context, id string) (*orders.Order, error) {
	if o, ok := s.bySession[id]; ok {
		return o, nil
	}
	return nil, orders.ErrNotFound
}

func (s *memSessionStore) Insert(ctx context.Context, o *orders.Order) (bool, error) {
	if _, ok := s.bySession[o.StripeSessionID]; ok {
		return false, nil
	}
	s.bySession[o.StripeSessionID] = o
	return true, nil
}

func (s *memSessionStore) BackfillExpiry(ctx context.Context, id string, expires time.Time) error {
	return nil
}

type memProvider struct {
	sessions map[string]*payments.CheckoutSession
}

func (p *memProvider) CheckoutSession(ctx context.Context, id string) (*payments.CheckoutSession, error) {
	if s, ok := p.sessions[id]; ok {
		return s, nil
	}
	return nil, payments.ErrSessionNotFound
}

func newOrdersRouter(prov payments.Provider) *chi.Mux {
	h := &OrdersHandler{
		Reconciler: &orders.Reconciler{
			Store:        &memSessionStore{bySession: map[string]*orders.Order{}},
			Payments:     prov,
			Window:       30 * 24 * time.Hour,
			MaxDownloads: 5,
			Log:          testLogger(),
		},
		Log: testLogger(),
	}
	r := chi.NewRouter()
	h.Register(r)
	return r
}

func TestGetOrderBySession(t *testing.T) {
	prov := &memProvider{sessions: map[string]*payments.CheckoutSession{
		"sess_123": {
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
		},
	}}
	r := newOrdersRouter(prov)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/orders/session/sess_123", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rr.Code, rr.Body.String())
	}

	var got orders.Order
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Amount != 4985.00 || got.Currency != "usd" {
		t.Fatalf("amount/currency = %v/%s", got.Amount, got.Currency)
	}
	if got.ModelTitle != "Multifamily Model" || got.DownloadCount != 0 || got.MaxDownloads != 5 {
		t.Fatalf("order = %+v", got)
	}
	if got.DownloadExpires == nil {
		t.Fatal("expiry not set")
	}

	// idempotent re-read
	rr2 := httptest.NewRecorder()
	r.ServeHTTP(rr2, httptest.NewRequest(http.MethodGet, "/api/orders/session/sess_123", nil))
	if rr2.Code != http.StatusOK {
		t.Fatalf("second read status = %d", rr2.Code)
	}
	var again orders.Order
	if err := json.Unmarshal(rr2.Body.Bytes(), &again); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if again.ID != got.ID {
		t.Fatalf("ids differ across reads: %s vs %s", got.ID, again.ID)
	}
}

func TestGetOrderUnpaidSession(t *testing.T) {
	prov := &memProvider{sessions: map[string]*payments.CheckoutSession{
		"sess_pending": {ID: "sess_pending", Paid: false},
	}}
	r := newOrdersRouter(prov)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/orders/session/sess_pending", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rr.Code)
	}
}

func TestGetOrderUnknownSession(t *testing.T) {
	r := newOrdersRouter(&memProvider{})
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/orders/session/sess_nope", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rr.Code)
	}
}
