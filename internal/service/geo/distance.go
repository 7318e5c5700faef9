// internal/service/geo/distance.go

package geo

import (
	"github.com/golang/geo/r1"
	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
	"github.com/paulmach/orb"
	orbgeo "github.com/paulmach/orb/geo"

	"iwitness/internal/domain/criteria"
)

// Distance returns the great-circle distance between two points in meters.
// It satisfies criteria.DistanceFunc.
func Distance(a, b criteria.LatLng) float64 {
	// orb.Point is [lng, lat]
	return orbgeo.DistanceHaversine(orb.Point{a.Lng(), a.Lat()}, orb.Point{b.Lng(), b.Lat()})
}

// Viewport is the visible map rectangle between a south-west and a
// north-east corner. It may span the antimeridian.
type Viewport struct {
	rect s2.Rect
}

// NewViewport creates a viewport from its corners
func NewViewport(southWest, northEast criteria.LatLng) Viewport {
	return Viewport{
		rect: s2.Rect{
			Lat: r1.Interval{Lo: radians(southWest.Lat()), Hi: radians(northEast.Lat())},
			Lng: s1.IntervalFromEndpoints(radians(southWest.Lng()), radians(northEast.Lng())),
		},
	}
}

// Contains reports whether p lies inside the viewport, edges included
func (v Viewport) Contains(p criteria.LatLng) bool {
	return v.rect.ContainsLatLng(s2.LatLngFromDegrees(p.Lat(), p.Lng()))
}

// Center returns the midpoint of the viewport
func (v Viewport) Center() criteria.LatLng {
	c := v.rect.Center()
	return criteria.LatLng{c.Lat.Degrees(), c.Lng.Degrees()}
}

func radians(d float64) float64 {
	return (s1.Angle(d) * s1.Degree).Radians()
}
