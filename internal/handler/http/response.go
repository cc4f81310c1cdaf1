package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"shortlink/internal/domain"
)

// ErrorResponse is the wire shape for failures. Kind is the
// machine-readable classification clients branch on.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

func respondJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Headers are already written; nothing sensible left to send.
		return
	}
}

func respondError(w http.ResponseWriter, statusCode int, kind, message string) {
	respondJSON(w, statusCode, ErrorResponse{Error: message, Kind: kind})
}

// respondDomainError maps the domain error taxonomy onto HTTP statuses:
// validation failures are 400s with a specific kind, absence is 404, and
// everything else (storage included) is a 500.
func respondDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidURL):
		respondError(w, http.StatusBadRequest, "invalid_url", "Invalid URL")
	case errors.Is(err, domain.ErrInvalidDomain):
		respondError(w, http.StatusBadRequest, "invalid_domain", "Invalid domain")
	case errors.Is(err, domain.ErrInvalidCode):
		respondError(w, http.StatusBadRequest, "invalid_code", "Invalid short code")
	case errors.Is(err, domain.ErrDuplicateCode):
		respondError(w, http.StatusBadRequest, "duplicate_code", "Short code already in use for this domain")
	case errors.Is(err, domain.ErrNotFound):
		respondError(w, http.StatusNotFound, "not_found", "Not found")
	case errors.Is(err, domain.ErrGenerationExhausted):
		respondError(w, http.StatusInternalServerError, "generation_exhausted", "Could not allocate a short code")
	default:
		respondError(w, http.StatusInternalServerError, "internal", "Internal server error")
	}
}
