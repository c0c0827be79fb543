package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/dkellner/modelstore/internal/accounts"
)

type AuthHandler struct {
	Users      *accounts.Repo
	Auth       *SessionAuth
	Production bool
	Log        logrus.FieldLogger
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Register(r chi.Router) {
	r.Post("/api/auth/login", h.login)
	r.Post("/api/auth/logout", h.logout)
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	var req loginReq
	if err := dec.Decode(&req); err != nil || req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.Authenticate(ctx, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, accounts.ErrNotFound) || errors.Is(err, accounts.ErrBadPassword) {
			writeError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		h.Log.WithError(err).Error("login failed")
		writeInternal(w, err, h.Production)
		return
	}

	if err := h.Auth.Login(w, r, u); err != nil {
		writeInternal(w, err, h.Production)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"email": u.Email, "role": u.Role})
}

func (h *AuthHandler) logout(w http.ResponseWriter, r *http.Request) {
	h.Auth.Logout(w, r)
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
