// internal/server/handlers/geo.go

package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"iwitness/internal/domain/criteria"
)

// LocationResolver picks a default map location for the caller
type LocationResolver interface {
	Resolve(ctx context.Context) criteria.Location
}

// GeoHandler handles geospatial-related HTTP requests
type GeoHandler struct {
	resolver LocationResolver
	offsets  criteria.OffsetService
}

// NewGeoHandler creates a new geo handler
func NewGeoHandler(resolver LocationResolver, offsets criteria.OffsetService) *GeoHandler {
	return &GeoHandler{
		resolver: resolver,
		offsets:  offsets,
	}
}

type offsetResponse struct {
	Lat           float64   `json:"lat"`
	Lng           float64   `json:"lng"`
	At            time.Time `json:"at"`
	OffsetMinutes int       `json:"offsetMinutes"`
}

// Locate returns the default map location for the caller's IP
func (h *GeoHandler) Locate(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, h.resolver.Resolve(r.Context()))
}

// GetOffset returns the UTC offset in effect at a point on the map
func (h *GeoHandler) GetOffset(w http.ResponseWriter, r *http.Request) {
	latStr := r.URL.Query().Get("lat")
	lngStr := r.URL.Query().Get("lng")

	if latStr == "" || lngStr == "" {
		respondWithError(w, http.StatusBadRequest, "Missing location parameters", nil)
		return
	}

	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil || lat < -90 || lat > 90 {
		respondWithError(w, http.StatusBadRequest, "Invalid latitude", nil)
		return
	}

	lng, err := strconv.ParseFloat(lngStr, 64)
	if err != nil || lng < -180 || lng > 180 {
		respondWithError(w, http.StatusBadRequest, "Invalid longitude", nil)
		return
	}

	at := time.Now().UTC()
	if atStr := r.URL.Query().Get("at"); atStr != "" {
		if at, err = time.Parse(time.RFC3339, atStr); err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid time, expected RFC3339", nil)
			return
		}
	}

	if h.offsets == nil {
		respondWithError(w, http.StatusServiceUnavailable, "Timezone lookup is not configured", nil)
		return
	}

	minutes, err := h.offsets.UTCOffset(r.Context(), lat, lng, at)
	if err != nil {
		respondWithError(w, http.StatusBadGateway, "Failed to look up timezone offset", err)
		return
	}

	respondWithJSON(w, http.StatusOK, offsetResponse{Lat: lat, Lng: lng, At: at, OffsetMinutes: minutes})
}
