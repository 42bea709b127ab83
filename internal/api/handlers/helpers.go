package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/lmoren/listly-be/internal/apperr"
)

// respondJSON writes v as the JSON response body.
func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// respondError maps a service error to an HTTP status. Typed domain errors
// carry their own message; anything else is an infrastructure failure and is
// reported with the handler's fallback text.
func respondError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case apperr.IsValidation(err):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case apperr.IsNotFound(err):
		http.Error(w, err.Error(), http.StatusNotFound)
	case apperr.IsDuplicate(err), apperr.IsConflict(err):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, fallback+": "+err.Error(), http.StatusInternalServerError)
	}
}
