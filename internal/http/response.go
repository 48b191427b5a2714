package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// envelope is the JSON body of every API response: success plus either one
// payload key or error/details.
type envelope map[string]any

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("Failed to encode response", "error", err, "status_code", status)
	}
}

func writeSuccess(w http.ResponseWriter, status int, key string, payload any) {
	writeJSON(w, status, envelope{"success": true, key: payload})
}

// writeError writes {success:false, error, details?}. Empty details are omitted.
func writeError(w http.ResponseWriter, status int, msg, details string) {
	body := envelope{"success": false, "error": msg}
	if details != "" {
		body["details"] = details
	}
	writeJSON(w, status, body)
}
