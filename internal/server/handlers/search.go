// internal/server/handlers/search.go

package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"iwitness/internal/domain/criteria"
)

// SearchHandler serves the search history
type SearchHandler struct {
	store criteria.SearchStore
}

// NewSearchHandler creates a new search history handler
func NewSearchHandler(store criteria.SearchStore) *SearchHandler {
	return &SearchHandler{
		store: store,
	}
}

// ListSearches returns executed searches, newest first
func (h *SearchHandler) ListSearches(w http.ResponseWriter, r *http.Request) {
	filter := criteria.SearchFilter{
		SessionID: r.URL.Query().Get("session_id"),
		Keyword:   r.URL.Query().Get("keyword"),
	}

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit < 0 {
			respondWithError(w, http.StatusBadRequest, "Invalid limit", nil)
			return
		}
		filter.Limit = limit
	}

	if sinceStr := r.URL.Query().Get("since"); sinceStr != "" {
		since, err := time.Parse(time.RFC3339, sinceStr)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid since, expected RFC3339", nil)
			return
		}
		filter.Since = since
	}

	records, err := h.store.FindSearches(r.Context(), filter)
	if err != nil {
		respondWithServiceError(w, "Failed to list searches", err)
		return
	}
	if records == nil {
		records = []criteria.SearchRecord{}
	}

	respondWithJSON(w, http.StatusOK, records)
}

// GetSearch returns one executed search
func (h *SearchHandler) GetSearch(w http.ResponseWriter, r *http.Request) {
	record, err := h.store.GetSearch(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondWithServiceError(w, "Failed to get search", err)
		return
	}

	respondWithJSON(w, http.StatusOK, record)
}
