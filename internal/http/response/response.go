// Package response holds the JSON encoding helpers shared by all HTTP handlers.
package response

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// ErrorBody is the wire shape of every non-2xx response.
type ErrorBody struct {
	Detail string `json:"detail"`
}

// JSON writes payload with the given status. A nil payload writes headers only.
func JSON(w http.ResponseWriter, r *http.Request, status int, payload any) {
	if payload == nil {
		w.WriteHeader(status)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.ErrorContext(r.Context(), "encode response", "error", err, "path", r.URL.Path)
	}
}

// Error writes a non-2xx response carrying a single human readable detail string.
func Error(w http.ResponseWriter, r *http.Request, status int, detail string) {
	JSON(w, r, status, ErrorBody{Detail: detail})
}
