package httpx

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/dkellner/modelstore/internal/assets"
)

// UploadsHandler accepts model workbook uploads from admins.
type UploadsHandler struct {
	Assets     *assets.Store
	Production bool
	Log        logrus.FieldLogger
}

func (h *UploadsHandler) Register(r chi.Router, auth *SessionAuth) {
	r.With(auth.RequireAdmin).Post("/api/admin/uploads/excel", h.upload)
}

func (h *UploadsHandler) upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(50 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "no valid file")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "no valid file")
		return
	}
	defer file.Close()

	stored, err := h.Assets.SaveSpreadsheet(header.Filename, header.Header.Get("Content-Type"), file)
	if err != nil {
		if errors.Is(err, assets.ErrInvalidType) {
			writeError(w, http.StatusBadRequest, "unsupported file type")
			return
		}
		h.Log.WithError(err).WithField("file", header.Filename).Error("upload failed")
		writeInternal(w, err, h.Production)
		return
	}

	ident, _ := IdentityFrom(r.Context())
	h.Log.WithFields(logrus.Fields{
		"email": ident.Email,
		"file":  stored.Name,
		"size":  stored.Size,
	}).Info("workbook uploaded")

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "file uploaded",
		"file":    stored,
	})
}
