package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/abhinavmusrif/kinetic-os/internal/domain"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeDomainError maps the shared error taxonomy onto HTTP statuses.
// ErrConsolidationActive is handled by the cognitive handler separately
// because a concurrent trigger is a no-op, not a failure.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, domain.ErrStorageUnavailable):
		writeError(w, http.StatusServiceUnavailable, "storage unavailable")
	case errors.Is(err, domain.ErrConsolidationAborted):
		writeError(w, http.StatusInternalServerError, "consolidation aborted")
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
