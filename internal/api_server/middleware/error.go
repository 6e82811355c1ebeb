package middleware

import (
	"encoding/json"
	"net/http"
)

// WriteJSONError writes an error body in the same shape the REST layer uses,
// for requests rejected before they reach it.
func WriteJSONError(w http.ResponseWriter, code int, errType string, reason string) {
	cause := map[string]any{
		"type":   errType,
		"reason": reason,
	}
	body := map[string]any{
		"error": map[string]any{
			"type":       errType,
			"reason":     reason,
			"root_cause": []any{cause},
		},
		"status": code,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}
