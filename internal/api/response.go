package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"libris/internal/store"
)

// jsonResponse writes a JSON response with the given status code.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			log.Error().Err(err).Msg("encoding response")
		}
	}
}

// jsonError writes a JSON error response.
func jsonError(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]string{"error": message})
}

// decodeJSON decodes a JSON request body into the given target.
func decodeJSON(r *http.Request, target any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(target)
}

// storeError maps a store error kind to its response. Every kind gets a
// distinct, stable status so clients can decide what is retryable; only a
// genuinely unknown error falls through to 500.
func storeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrBookNotFound):
		jsonError(w, http.StatusNotFound, "book not found")
	case errors.Is(err, store.ErrLoanNotFound):
		jsonError(w, http.StatusNotFound, "loan not found")
	case errors.Is(err, store.ErrBookUnavailable):
		jsonError(w, http.StatusConflict, "book not available")
	case errors.Is(err, store.ErrForbidden):
		jsonError(w, http.StatusForbidden, "loan belongs to another user")
	case errors.Is(err, store.ErrAlreadyReturned):
		jsonError(w, http.StatusConflict, "loan already returned")
	case errors.Is(err, store.ErrConflict):
		jsonError(w, http.StatusConflict, "catalog conflict")
	case errors.Is(err, store.ErrInvariant):
		jsonError(w, http.StatusInternalServerError, "inventory accounting error")
	case errors.Is(err, store.ErrInfrastructure):
		jsonError(w, http.StatusServiceUnavailable, "storage unavailable")
	default:
		log.Error().Err(err).Msg("unclassified store error")
		jsonError(w, http.StatusInternalServerError, "internal error")
	}
}
