package httpx

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/dkellner/modelstore/internal/catalog"
)

type CatalogHandler struct {
	Repo       *catalog.Repo
	Production bool
	Log        logrus.FieldLogger
}

func (h *CatalogHandler) Register(r chi.Router) {
	r.Get("/api/models", h.list)
	r.Get("/api/models/{slug}", h.get)
}

func (h *CatalogHandler) list(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	models, err := h.Repo.ListActive(ctx)
	if err != nil {
		h.Log.WithError(err).Error("model list failed")
		writeInternal(w, err, h.Production)
		return
	}
	writeJSON(w, http.StatusOK, models)
}

func (h *CatalogHandler) get(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	m, err := h.Repo.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			writeError(w, http.StatusNotFound, "model not found")
			return
		}
		h.Log.WithError(err).WithField("slug", slug).Error("model lookup failed")
		writeInternal(w, err, h.Production)
		return
	}
	writeJSON(w, http.StatusOK, m)
}
