package domain

import (
	"fmt"

	"github.com/paulmach/orb"
)

// Footprint construction. The two metadata families encode the ground polygon
// differently: user products carry one flat list of lat,lon pairs, inventory
// metadata carries separate latitude and longitude element lists. Both axis
// conventions are preserved here per source; points are always emitted as
// lon,lat.

// FootprintFromPosList builds a single-ring polygon footprint from a flat
// coordinate list in document order (lat, lon, lat, lon, ...).
func FootprintFromPosList(coords []float64) (*orb.Polygon, error) {
	if len(coords)%2 != 0 {
		return nil, fmt.Errorf("footprint: odd coordinate count %d: %w", len(coords), ErrInvalidInput)
	}
	ring := make(orb.Ring, 0, len(coords)/2+1)
	for i := 0; i+1 < len(coords); i += 2 {
		ring = append(ring, orb.Point{coords[i+1], coords[i]})
	}
	return footprintFromRing(ring)
}

// FootprintFromLatLonLists builds a single-ring polygon footprint from
// separate latitude and longitude lists of equal length.
func FootprintFromLatLonLists(latitudes, longitudes []float64) (*orb.Polygon, error) {
	if len(latitudes) != len(longitudes) {
		return nil, fmt.Errorf("footprint: %d latitudes vs %d longitudes: %w",
			len(latitudes), len(longitudes), ErrInvalidInput)
	}
	ring := make(orb.Ring, 0, len(latitudes)+1)
	for i := range latitudes {
		ring = append(ring, orb.Point{longitudes[i], latitudes[i]})
	}
	return footprintFromRing(ring)
}

func footprintFromRing(ring orb.Ring) (*orb.Polygon, error) {
	if len(ring) < 3 {
		return nil, fmt.Errorf("footprint: %d points, need at least 3: %w", len(ring), ErrInvalidInput)
	}
	if !ring.Closed() {
		ring = append(ring, ring[0])
	}
	polygon := orb.Polygon{ring}
	return &polygon, nil
}
