// internal/service/criteria/bounds.go

package criteria

import (
	"math"
	"strconv"

	"iwitness/internal/domain/criteria"
)

// TopPoint is the corner projected onto the meridian through the center:
// the corner's latitude at the center's longitude
func TopPoint(center, corner criteria.LatLng) criteria.LatLng {
	return criteria.LatLng{corner.Lat(), center.Lng()}
}

// RadiusKm converts a distance in meters to whole kilometers, rounding up
func RadiusKm(meters float64) int {
	return int(math.Ceil(meters / 1000))
}

// Radius is the search radius in whole kilometers, or 0 when the center or
// the north-east corner is unset
func (m *Model) Radius() int {
	if m.isFresh(nodeRadius) {
		return m.radius
	}

	m.radius = 0
	if m.center != nil && m.northEast != nil && m.distance != nil {
		meters := m.distance(*m.center, TopPoint(*m.center, *m.northEast))
		if meters > 0 {
			m.radius = RadiusKm(meters)
		}
	}

	m.markFresh(nodeRadius)
	return m.radius
}

// Location renders the center and radius as "lat,lng,Rkm"
func (m *Model) Location() string {
	if m.center == nil {
		return ""
	}
	return m.center.String() + "," + strconv.Itoa(m.Radius()) + "km"
}
