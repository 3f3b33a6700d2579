package handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/freighthos/eld-engine/internal/domain"
)

// respondJSON writes v as the JSON response body with the given status.
// Encoding failures are unrecoverable at this point (the status line has
// been written), so they are swallowed.
func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		json.NewEncoder(w).Encode(v) //nolint:errcheck
	}
}

// decodeJSON decodes the request body into dst, rejecting unknown fields so
// client typos surface as 400s instead of silently dropped data.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: malformed request body: %s", domain.ErrValidation, err)
	}
	return nil
}

// listResponse is the envelope for paginated collections.
type listResponse struct {
	Items any   `json:"items"`
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
}
