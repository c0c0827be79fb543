package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/dkellner/modelstore/internal/marketing"
)

type LeadsHandler struct {
	Repo       *marketing.Repo
	Production bool
	Log        logrus.FieldLogger
}

type leadReq struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Company  string `json:"company"`
	Interest string `json:"interest"`
}

func (h *LeadsHandler) Register(r chi.Router) {
	r.Post("/api/leads", h.create)
}

func (h *LeadsHandler) create(w http.ResponseWriter, r *http.Request) {
	// Strict schema: unknown fields are rejected, not silently dropped.
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	var req leadReq
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		writeError(w, http.StatusBadRequest, "valid email required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	lead := &marketing.Lead{
		Email:    req.Email,
		Name:     req.Name,
		Company:  req.Company,
		Interest: req.Interest,
	}
	if err := h.Repo.InsertLead(ctx, lead); err != nil {
		h.Log.WithError(err).Error("lead insert failed")
		writeInternal(w, err, h.Production)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": lead.ID})
}
