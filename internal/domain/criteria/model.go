// internal/domain/criteria/model.go

package criteria

import (
	"strconv"
	"time"
)

// LatLng is a [latitude, longitude] pair
type LatLng [2]float64

// Lat returns the latitude
func (p LatLng) Lat() float64 { return p[0] }

// Lng returns the longitude
func (p LatLng) Lng() float64 { return p[1] }

// String joins the pair the way the search backend expects it: "lat,lng"
func (p LatLng) String() string {
	return strconv.FormatFloat(p[0], 'f', -1, 64) + "," + strconv.FormatFloat(p[1], 'f', -1, 64)
}

// Location is a map center and zoom level
type Location struct {
	Center LatLng `json:"center"`
	Zoom   int    `json:"zoom"`
}

// Geolocation is the payload of a geolocation lookup.
// Either coordinate may be missing when the service has nothing useful to say.
type Geolocation struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// Usable reports whether both coordinates are present
func (g *Geolocation) Usable() bool {
	return g != nil && g.Latitude != nil && g.Longitude != nil
}

// SearchParams is the read-only projection handed to the result fetchers
type SearchParams struct {
	Location  string     `json:"location"`
	Keyword   string     `json:"keyword"`
	Start     *time.Time `json:"start,omitempty"`
	End       *time.Time `json:"end,omitempty"`
	NorthEast *LatLng    `json:"northEast,omitempty"`
	SouthWest *LatLng    `json:"southWest,omitempty"`
	Stream    bool       `json:"stream"`
}

// Snapshot is the full observable state of a criteria model
type Snapshot struct {
	SessionID       string       `json:"sessionId,omitempty"`
	StartDateString string       `json:"startDateString"`
	StartTimeString string       `json:"startTimeString"`
	EndDateString   string       `json:"endDateString"`
	EndTimeString   string       `json:"endTimeString"`
	UseLocalTime    bool         `json:"useLocalTime"`
	Timezone        string       `json:"timezone"`
	Center          *LatLng      `json:"center,omitempty"`
	NorthEast       *LatLng      `json:"northEast,omitempty"`
	SouthWest       *LatLng      `json:"southWest,omitempty"`
	Zoom            int          `json:"zoom"`
	Keyword         string       `json:"keyword"`
	Stream          bool         `json:"stream"`
	Start           *time.Time   `json:"start,omitempty"`
	End             *time.Time   `json:"end,omitempty"`
	Radius          int          `json:"radius"`
	TimeError       string       `json:"timeError,omitempty"`
	MapError        string       `json:"mapError,omitempty"`
	Errors          []string     `json:"errors"`
	IsValid         bool         `json:"isValid"`
	SearchParams    SearchParams `json:"searchParams"`
}

// SearchRecord is an executed search kept in the history store
type SearchRecord struct {
	ID        string       `json:"id"`
	SessionID string       `json:"sessionId"`
	Params    SearchParams `json:"params"`
	RadiusKm  int          `json:"radiusKm"`
	Center    LatLng       `json:"center"`
	CreatedAt time.Time    `json:"createdAt"`
}

// SearchFilter narrows a search history query
type SearchFilter struct {
	SessionID string
	Keyword   string
	Since     time.Time
	Limit     int
}

// EventType names what happened to a session
type EventType string

const (
	EventCreated EventType = "created"
	EventUpdated EventType = "updated"
	EventSearch  EventType = "search"
	EventClosed  EventType = "closed"
)

// Event is published on the event bus whenever a session changes
type Event struct {
	Type      EventType     `json:"type"`
	SessionID string        `json:"sessionId"`
	Snapshot  *Snapshot     `json:"snapshot,omitempty"`
	Search    *SearchRecord `json:"search,omitempty"`
	Time      time.Time     `json:"time"`
}
