// internal/app/features/shared/respond.go
// Package shared holds the small JSON helpers every feature handler uses.
package shared

import (
	"encoding/json"
	"net/http"

	"github.com/dalemusser/teamline/internal/app/system/apperrors"
)

// RespondJSON writes v as JSON with the given status.
func RespondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// DecodeJSON decodes the request body into v. Returns false after writing
// a 400 when the body is not valid JSON.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		RespondJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return false
	}
	return true
}

// RespondError maps a taxonomy error to its status and writes it.
func RespondError(w http.ResponseWriter, err error) {
	apperrors.WriteJSON(w, err)
}
