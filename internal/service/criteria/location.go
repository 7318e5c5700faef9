// internal/service/criteria/location.go

package criteria

import (
	"context"
	"log/slog"
	"time"

	"iwitness/internal/domain/criteria"
)

// FallbackLocation is San Francisco, used whenever geolocation gives nothing usable
var FallbackLocation = criteria.Location{
	Center: criteria.LatLng{37.75771992816863, -122.43760000000003},
	Zoom:   11,
}

// LocatedZoom is the zoom applied around a successfully geolocated viewer
const LocatedZoom = 9

// LocationResolverConfig contains configuration for the default location resolver
type LocationResolverConfig struct {
	LocatedZoom int
	Fallback    criteria.Location
	Timeout     time.Duration
}

// LocationResolver picks the initial map center and zoom
type LocationResolver struct {
	geolocator criteria.Geolocator
	config     LocationResolverConfig
	logger     *slog.Logger
}

// NewLocationResolver creates a new default location resolver
func NewLocationResolver(geolocator criteria.Geolocator, config LocationResolverConfig, logger *slog.Logger) *LocationResolver {
	if config.LocatedZoom == 0 {
		config.LocatedZoom = LocatedZoom
	}
	if config.Fallback == (criteria.Location{}) {
		config.Fallback = FallbackLocation
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &LocationResolver{
		geolocator: geolocator,
		config:     config,
		logger:     logger,
	}
}

// Resolve asks the geolocator for the viewer's position. It never fails:
// errors, timeouts and empty payloads all yield the fallback location.
func (r *LocationResolver) Resolve(ctx context.Context) criteria.Location {
	if r.geolocator == nil {
		return r.config.Fallback
	}

	if r.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.config.Timeout)
		defer cancel()
	}

	geo, err := r.geolocator.Locate(ctx)
	if err != nil {
		r.logger.Warn("geolocation lookup failed, using fallback", slog.Any("error", err))
		return r.config.Fallback
	}
	if !geo.Usable() {
		r.logger.Info("geolocation returned no coordinates, using fallback")
		return r.config.Fallback
	}

	return criteria.Location{
		Center: criteria.LatLng{*geo.Latitude, *geo.Longitude},
		Zoom:   r.config.LocatedZoom,
	}
}
