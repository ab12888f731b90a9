package utils

import (
	"encoding/json"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// Coordinate is a geographic point with latitude and longitude.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Geofence is a polygonal boundary around a store, stored as JSON on the
// store record.
type Geofence struct {
	Coordinates []Coordinate `json:"coordinates"`
	Name        string       `json:"name,omitempty"`
}

// ParseGeofence decodes a store's geofence JSON column. An empty value is
// a valid absent geofence.
func ParseGeofence(geofenceJSON []byte) (*Geofence, error) {
	if len(geofenceJSON) == 0 {
		return nil, nil
	}
	var gf Geofence
	if err := json.Unmarshal(geofenceJSON, &gf); err != nil {
		return nil, fmt.Errorf("invalid geofence JSON format: %w", err)
	}
	if len(gf.Coordinates) < 3 {
		return nil, fmt.Errorf("geofence needs at least 3 coordinates, got %d", len(gf.Coordinates))
	}
	return &gf, nil
}

// ContainsPoint reports whether the point lies inside the geofence polygon.
func (gf *Geofence) ContainsPoint(p Coordinate) bool {
	ring := make(orb.Ring, 0, len(gf.Coordinates)+1)
	for _, c := range gf.Coordinates {
		ring = append(ring, orb.Point{c.Lng, c.Lat})
	}
	// Close the ring if the input polygon is open.
	if len(ring) > 0 && ring[0] != ring[len(ring)-1] {
		ring = append(ring, ring[0])
	}
	return planar.PolygonContains(orb.Polygon{ring}, orb.Point{p.Lng, p.Lat})
}

// StoreContainsPoint validates a scan coordinate against a store's
// geofence JSON. A store without a geofence accepts any coordinate.
func StoreContainsPoint(geofenceJSON []byte, p Coordinate) (bool, error) {
	gf, err := ParseGeofence(geofenceJSON)
	if err != nil {
		return false, err
	}
	if gf == nil {
		return true, nil
	}
	return gf.ContainsPoint(p), nil
}
