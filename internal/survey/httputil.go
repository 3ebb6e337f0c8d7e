package survey

import (
	"encoding/json"
	"net/http"
)

// Field apps built against the original API inspect the "status" field of
// the body rather than the HTTP code, so every outcome uses this envelope.
func respondJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, code int, message string) {
	respondJSON(w, code, map[string]string{"status": "error", "message": message})
}
