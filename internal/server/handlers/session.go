// internal/server/handlers/session.go

package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"iwitness/internal/domain/criteria"
	criteriaService "iwitness/internal/service/criteria"
)

// SessionService is the session manager as seen by the HTTP layer
type SessionService interface {
	Create(ctx context.Context, opts criteriaService.CreateOptions) (criteria.Snapshot, error)
	Get(ctx context.Context, id string) (criteria.Snapshot, error)
	Update(ctx context.Context, id string, u criteriaService.Update) (criteria.Snapshot, error)
	ZoomIn(ctx context.Context, id string) (criteria.Snapshot, error)
	ZoomOut(ctx context.Context, id string) (criteria.Snapshot, error)
	ResolveDefaultCenter(ctx context.Context, id string) (criteria.Snapshot, error)
	Search(ctx context.Context, id string) (*criteria.SearchRecord, error)
	Close(ctx context.Context, id string) error
	SessionSubjects(sessionID string) string
}

// SessionHandler handles search session HTTP requests
type SessionHandler struct {
	sessions SessionService
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(sessions SessionService) *SessionHandler {
	return &SessionHandler{
		sessions: sessions,
	}
}

type createSessionRequest struct {
	Timezone        string `json:"timezone" validate:"omitempty,timezone"`
	UseLocalTime    *bool  `json:"useLocalTime"`
	Stream          *bool  `json:"stream"`
	ResolveLocation *bool  `json:"resolveLocation"`
}

type updateSessionRequest struct {
	StartDateString *string          `json:"startDateString" validate:"omitempty,max=32"`
	StartTimeString *string          `json:"startTimeString" validate:"omitempty,max=32"`
	EndDateString   *string          `json:"endDateString" validate:"omitempty,max=32"`
	EndTimeString   *string          `json:"endTimeString" validate:"omitempty,max=32"`
	RawStart        *string          `json:"rawStart" validate:"omitempty,max=64"`
	RawEnd          *string          `json:"rawEnd" validate:"omitempty,max=64"`
	UseLocalTime    *bool            `json:"useLocalTime"`
	Timezone        *string          `json:"timezone" validate:"omitempty,timezone"`
	Center          *criteria.LatLng `json:"center" validate:"omitempty,latlng"`
	NorthEast       *criteria.LatLng `json:"northEast" validate:"omitempty,latlng"`
	SouthWest       *criteria.LatLng `json:"southWest" validate:"omitempty,latlng"`
	ClearCenter     bool             `json:"clearCenter"`
	ClearBounds     bool             `json:"clearBounds"`
	Zoom            *int             `json:"zoom"`
	Keyword         *string          `json:"keyword" validate:"omitempty,max=500"`
	Stream          *bool            `json:"stream"`
}

// CreateSession starts a new search session
func (h *SessionHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	opts := criteriaService.CreateOptions{
		UseLocalTime:    req.UseLocalTime,
		Stream:          req.Stream,
		ResolveLocation: req.ResolveLocation == nil || *req.ResolveLocation,
	}
	if req.Timezone != "" {
		loc, err := time.LoadLocation(req.Timezone)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid timezone", nil)
			return
		}
		opts.Location = loc
	}

	snap, err := h.sessions.Create(r.Context(), opts)
	if err != nil {
		respondWithServiceError(w, "Failed to create session", err)
		return
	}

	respondWithJSON(w, http.StatusCreated, snap)
}

// GetSession returns the current criteria of a session
func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	snap, err := h.sessions.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondWithServiceError(w, "Failed to get session", err)
		return
	}

	respondWithJSON(w, http.StatusOK, snap)
}

// UpdateSession applies a partial change to a session
func (h *SessionHandler) UpdateSession(w http.ResponseWriter, r *http.Request) {
	var req updateSessionRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	update := criteriaService.Update{
		StartDateString: req.StartDateString,
		StartTimeString: req.StartTimeString,
		EndDateString:   req.EndDateString,
		EndTimeString:   req.EndTimeString,
		RawStart:        req.RawStart,
		RawEnd:          req.RawEnd,
		UseLocalTime:    req.UseLocalTime,
		Center:          req.Center,
		NorthEast:       req.NorthEast,
		SouthWest:       req.SouthWest,
		ClearCenter:     req.ClearCenter,
		ClearNorthEast:  req.ClearBounds,
		ClearSouthWest:  req.ClearBounds,
		Zoom:            req.Zoom,
		Keyword:         req.Keyword,
		Stream:          req.Stream,
	}
	if req.Timezone != nil {
		loc, err := time.LoadLocation(*req.Timezone)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid timezone", nil)
			return
		}
		update.Location = loc
	}

	snap, err := h.sessions.Update(r.Context(), chi.URLParam(r, "id"), update)
	if err != nil {
		respondWithServiceError(w, "Failed to update session", err)
		return
	}

	respondWithJSON(w, http.StatusOK, snap)
}

// DeleteSession closes a session
func (h *SessionHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Close(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondWithServiceError(w, "Failed to close session", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ZoomIn moves the session's map one level closer
func (h *SessionHandler) ZoomIn(w http.ResponseWriter, r *http.Request) {
	h.respondWithSnapshot(w, r, h.sessions.ZoomIn)
}

// ZoomOut moves the session's map one level out
func (h *SessionHandler) ZoomOut(w http.ResponseWriter, r *http.Request) {
	h.respondWithSnapshot(w, r, h.sessions.ZoomOut)
}

// DefaultCenter resolves the viewer's location into the session
func (h *SessionHandler) DefaultCenter(w http.ResponseWriter, r *http.Request) {
	h.respondWithSnapshot(w, r, h.sessions.ResolveDefaultCenter)
}

// Search validates the session and records the search
func (h *SessionHandler) Search(w http.ResponseWriter, r *http.Request) {
	record, err := h.sessions.Search(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondWithServiceError(w, "Failed to run search", err)
		return
	}

	respondWithJSON(w, http.StatusCreated, record)
}

func (h *SessionHandler) respondWithSnapshot(
	w http.ResponseWriter,
	r *http.Request,
	op func(ctx context.Context, id string) (criteria.Snapshot, error),
) {
	snap, err := op(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondWithServiceError(w, "Failed to update session", err)
		return
	}

	respondWithJSON(w, http.StatusOK, snap)
}
