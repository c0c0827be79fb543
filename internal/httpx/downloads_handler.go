package httpx

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"

	kafkax "github.com/dkellner/modelstore/internal/kafka"
	"github.com/dkellner/modelstore/internal/orders"
)

// DownloadsHandler streams purchased workbooks to their owners.
type DownloadsHandler struct {
	Gate     *orders.Gate
	Producer *kafkax.Producer
	Service  string
	Log      logrus.FieldLogger
}

func (h *DownloadsHandler) Register(r chi.Router, auth *SessionAuth) {
	r.With(auth.RequireUser).Get("/api/downloads/{orderID}", h.download)
}

func (h *DownloadsHandler) download(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderID")
	ident, _ := IdentityFrom(r.Context())

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	grant, err := h.Gate.Authorize(ctx, ident.Email, orderID)
	if err != nil {
		switch {
		case errors.Is(err, orders.ErrNotEntitled):
			writeError(w, http.StatusNotFound, "order not found")
		case errors.Is(err, orders.ErrFileUnavailable):
			writeError(w, http.StatusNotFound, "file unavailable")
		default:
			h.Log.WithError(err).WithField("order_id", orderID).Error("download failed")
			writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	f, err := os.Open(grant.Path)
	if err != nil {
		h.Log.WithError(err).WithField("path", grant.Path).Error("asset open failed")
		writeError(w, http.StatusNotFound, "file unavailable")
		return
	}
	defer f.Close()

	if info, err := f.Stat(); err == nil {
		w.Header().Set("Content-Length", strconv.FormatInt(info.Size(), 10))
	}
	w.Header().Set("Content-Type", grant.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, grant.Filename))
	w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate")
	w.Header().Set("Pragma", "no-cache")
	w.WriteHeader(http.StatusOK)

	// Client going away mid-stream just abandons the copy; the claimed slot
	// stays consumed.
	_, _ = io.Copy(w, f)

	h.publishDownloaded(r, grant.Order)
}

func (h *DownloadsHandler) publishDownloaded(r *http.Request, o *orders.Order) {
	if h.Producer == nil {
		return
	}
	ev := orders.Envelope{
		EventID:       uuid.NewString(),
		EventType:     orders.EventAssetDownloaded,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      h.Service,
		TraceID:       r.Header.Get("X-Request-Id"),
		CorrelationID: o.ID,
		Payload: kafkax.MustMarshal(orders.AssetDownloadedPayload{
			OrderID:       o.ID,
			CustomerEmail: o.CustomerEmail,
			ModelSlug:     o.ModelSlug,
			DownloadCount: o.DownloadCount,
			MaxDownloads:  o.MaxDownloads,
		}),
	}
	h.Producer.Publish(orders.PartitionKey(o.ID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(orders.EventAssetDownloaded)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}
