package httpx

import (
	"encoding/json"
	"net/http"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

// writeInternal maps unexpected failures to 500. Detail only leaves the
// process outside production.
func writeInternal(w http.ResponseWriter, err error, production bool) {
	if production {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusInternalServerError, map[string]string{
		"error":  "internal error",
		"detail": err.Error(),
	})
}
