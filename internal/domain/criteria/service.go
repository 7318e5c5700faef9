// internal/domain/criteria/service.go

package criteria

import (
	"context"
	"time"
)

//go:generate mockgen -source=service.go -destination=mocks/mock_service.go -package=mocks

// Geolocator resolves the viewer's approximate position
type Geolocator interface {
	// Locate returns the viewer's coordinates; an empty payload is not an error
	Locate(ctx context.Context) (*Geolocation, error)
}

// OffsetService resolves the UTC offset of a place at a given instant
type OffsetService interface {
	// UTCOffset returns the offset in minutes, negative west of Greenwich
	UTCOffset(ctx context.Context, lat, lng float64, at time.Time) (int, error)
}

// DistanceFunc returns the geodesic distance between two points in meters
type DistanceFunc func(a, b LatLng) float64

// SearchStore persists executed searches
type SearchStore interface {
	// SaveSearch saves a search record
	SaveSearch(ctx context.Context, record SearchRecord) error

	// GetSearch retrieves a search record by ID
	GetSearch(ctx context.Context, id string) (*SearchRecord, error)

	// FindSearches lists search records matching the filter, newest first
	FindSearches(ctx context.Context, filter SearchFilter) ([]SearchRecord, error)
}

// EventPublisher publishes raw messages on a subject. *nats.Conn satisfies it.
type EventPublisher interface {
	Publish(subject string, data []byte) error
}
