// internal/server/handlers/result.go

package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/g8rswimmer/go-twitter/v2"
	"github.com/go-chi/chi/v5"

	"iwitness/internal/domain/criteria"
	"iwitness/internal/domain/result"
	criteriaService "iwitness/internal/service/criteria"
	resultService "iwitness/internal/service/result"
)

// ResultFetcher runs a session's search against a result source
type ResultFetcher interface {
	Fetch(ctx context.Context, params criteria.SearchParams, radiusKm int, center criteria.LatLng, nextToken string) (result.Page, error)
}

// ResultHandler serves the results matching a session's criteria
type ResultHandler struct {
	sessions SessionService
	twitter  ResultFetcher
}

// NewResultHandler creates a new result handler
func NewResultHandler(sessions SessionService, twitter ResultFetcher) *ResultHandler {
	return &ResultHandler{
		sessions: sessions,
		twitter:  twitter,
	}
}

// FetchTwitter searches Twitter with the session's criteria
func (h *ResultHandler) FetchTwitter(w http.ResponseWriter, r *http.Request) {
	snap, err := h.sessions.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondWithServiceError(w, "Failed to get session", err)
		return
	}
	if !snap.IsValid {
		respondWithServiceError(w, "", &criteria.ValidationError{Messages: snap.Errors})
		return
	}
	if snap.Center == nil {
		respondWithServiceError(w, "", &criteria.ValidationError{Messages: []string{criteriaService.MsgSelectLocation}})
		return
	}

	page, err := h.twitter.Fetch(r.Context(), snap.SearchParams, snap.Radius, *snap.Center, r.URL.Query().Get("next_token"))
	if err != nil {
		respondWithServiceError(w, "Failed to fetch results", err)
		return
	}

	respondWithJSON(w, http.StatusOK, page)
}

// ProjectTwitter turns a Twitter API v2 payload posted by the client into
// results, keeping only those that fit the session's criteria
func (h *ResultHandler) ProjectTwitter(w http.ResponseWriter, r *http.Request) {
	snap, err := h.sessions.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondWithServiceError(w, "Failed to get session", err)
		return
	}

	var raw twitter.TweetRaw
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid tweet payload", nil)
		return
	}

	page := result.Page{
		Results: resultService.Filter(resultService.FromTweets(&raw), snap.SearchParams),
	}

	respondWithJSON(w, http.StatusOK, page)
}
