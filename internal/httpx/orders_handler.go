package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"

	kafkax "github.com/dkellner/modelstore/internal/kafka"
	"github.com/dkellner/modelstore/internal/orders"
	"github.com/dkellner/modelstore/internal/redisx"
)

// OrdersHandler serves order reconciliation lookups. Redis fronts the read;
// the database stays the truth.
type OrdersHandler struct {
	Reconciler *orders.Reconciler
	Redis      *redis.Client
	Producer   *kafkax.Producer
	Service    string
	Production bool
	Log        logrus.FieldLogger
}

func (h *OrdersHandler) Register(r chi.Router) {
	r.Get("/api/orders/session/{sessionID}", h.getBySession)
}

func (h *OrdersHandler) getBySession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "missing session id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	cacheKey := fmt.Sprintf(redisx.KeyOrderBySession, sessionID)
	if h.Redis != nil {
		if s, err := h.Redis.Get(ctx, cacheKey).Result(); err == nil && s != "" {
			writeJSON(w, http.StatusOK, json.RawMessage(s))
			return
		}
	}

	order, created, err := h.Reconciler.Reconcile(ctx, sessionID)
	if err != nil {
		if errors.Is(err, orders.ErrNotFound) {
			writeError(w, http.StatusNotFound, "order not found")
			return
		}
		h.Log.WithError(err).WithField("session_id", sessionID).Error("reconcile failed")
		writeInternal(w, err, h.Production)
		return
	}

	body, err := json.Marshal(order)
	if err != nil {
		writeInternal(w, err, h.Production)
		return
	}
	if h.Redis != nil {
		_ = h.Redis.Set(ctx, cacheKey, body, redisx.TTLOrderCache).Err()
	}
	if created {
		h.publishCompleted(r, order)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func (h *OrdersHandler) publishCompleted(r *http.Request, o *orders.Order) {
	if h.Producer == nil {
		return
	}
	ev := orders.Envelope{
		EventID:       uuid.NewString(),
		EventType:     orders.EventOrderCompleted,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      h.Service,
		TraceID:       r.Header.Get("X-Request-Id"),
		CorrelationID: o.ID,
		Payload: kafkax.MustMarshal(orders.OrderCompletedPayload{
			OrderID:         o.ID,
			StripeSessionID: o.StripeSessionID,
			CustomerEmail:   o.CustomerEmail,
			ModelID:         o.ModelID,
			ModelSlug:       o.ModelSlug,
			AmountCents:     o.AmountCents,
			Currency:        o.Currency,
		}),
	}
	h.Producer.Publish(orders.PartitionKey(o.ID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(orders.EventOrderCompleted)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}
