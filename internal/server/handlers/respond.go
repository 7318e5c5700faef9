// internal/server/handlers/respond.go

package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"iwitness/internal/domain/criteria"
	"iwitness/internal/service/result"
	"iwitness/pkg/validator"
)

type errorResponse struct {
	Error  string   `json:"error"`
	Errors []string `json:"errors,omitempty"`
}

// Helper for JSON responses
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("Failed to marshal response"))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

// Helper for error responses
func respondWithError(w http.ResponseWriter, code int, message string, err error) {
	if err != nil && code >= 500 {
		slog.Error("http error", slog.Int("code", code), slog.String("message", message), slog.Any("error", err))
	}

	respondWithJSON(w, code, errorResponse{Error: message})
}

// respondWithServiceError maps domain errors onto HTTP statuses
func respondWithServiceError(w http.ResponseWriter, message string, err error) {
	var verr *criteria.ValidationError
	switch {
	case errors.As(err, &verr):
		respondWithJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: criteria.ErrInvalidCriteria.Error(), Errors: verr.Messages})
	case errors.Is(err, criteria.ErrSessionNotFound):
		respondWithError(w, http.StatusNotFound, "Session not found", nil)
	case errors.Is(err, criteria.ErrSearchNotFound):
		respondWithError(w, http.StatusNotFound, "Search not found", nil)
	case errors.Is(err, criteria.ErrUnparsableTime):
		respondWithError(w, http.StatusBadRequest, err.Error(), nil)
	case errors.Is(err, criteria.ErrTooManySessions):
		respondWithError(w, http.StatusServiceUnavailable, "Too many active sessions", nil)
	case errors.Is(err, result.ErrFetcherDisabled):
		respondWithError(w, http.StatusServiceUnavailable, "Result source is not configured", nil)
	default:
		respondWithError(w, http.StatusInternalServerError, message, err)
	}
}

// decodeAndValidate reads a JSON body into dst and runs its validate tags.
// An empty body leaves dst at its zero value.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", nil)
		return false
	}
	if err := validator.ValidateStruct(dst); err != nil {
		respondWithJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid request", Errors: validator.Messages(err)})
		return false
	}
	return true
}
