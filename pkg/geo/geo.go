// Package geo provides geographic types and spherical-earth geometry
// shared by every component: great-circle distance, destination-point
// projection, and radius ring sampling.
package geo

import (
	"fmt"
	"math"
)

// EarthRadiusMeters is the mean Earth radius used by all formulas in this
// package. Using a single constant keeps distance and projection results
// consistent with each other.
const EarthRadiusMeters = 6371000.0

// DefaultRingSegments is the number of segments used by Ring when the
// caller does not specify one.
const DefaultRingSegments = 120

// Location represents a geographic coordinate pair.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Validate checks that the location is within valid ranges.
// Latitude and longitude are validated jointly: a location is either
// fully valid or invalid, never partially valid.
func (l Location) Validate() error {
	if l.Latitude < -90 || l.Latitude > 90 {
		return fmt.Errorf("latitude out of range: %f", l.Latitude)
	}
	if l.Longitude < -180 || l.Longitude > 180 {
		return fmt.Errorf("longitude out of range: %f", l.Longitude)
	}
	return nil
}

// String returns the location as "lat,lon" with six decimal places.
func (l Location) String() string {
	return fmt.Sprintf("%.6f,%.6f", l.Latitude, l.Longitude)
}

// Distance returns the haversine great-circle distance between two
// locations in meters. The result is symmetric in its arguments.
func Distance(a, b Location) float64 {
	lat1 := a.Latitude * math.Pi / 180
	lat2 := b.Latitude * math.Pi / 180
	dLat := (b.Latitude - a.Latitude) * math.Pi / 180
	dLon := (b.Longitude - a.Longitude) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)

	return EarthRadiusMeters * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// DestinationPoint returns the location reached by traveling
// distanceMeters from origin along the given bearing, using the spherical
// direct geodesic formula. The bearing is measured in degrees clockwise
// from true north, so 90 is due east. NaN inputs propagate to the result.
func DestinationPoint(origin Location, distanceMeters, bearingDegrees float64) Location {
	delta := distanceMeters / EarthRadiusMeters
	theta := bearingDegrees * math.Pi / 180
	lat1 := origin.Latitude * math.Pi / 180
	lon1 := origin.Longitude * math.Pi / 180

	lat2 := math.Asin(math.Sin(lat1)*math.Cos(delta) +
		math.Cos(lat1)*math.Sin(delta)*math.Cos(theta))
	lon2 := lon1 + math.Atan2(
		math.Sin(theta)*math.Sin(delta)*math.Cos(lat1),
		math.Cos(delta)-math.Sin(lat1)*math.Sin(lat2))

	return Location{
		Latitude:  lat2 * 180 / math.Pi,
		Longitude: normalizeLongitude(lon2 * 180 / math.Pi),
	}
}

// Ring samples DestinationPoint at equally spaced bearings spanning a full
// circle, producing a closed polygon approximating a circle of the given
// radius. The result has segments+1 points: the final point closes the
// loop at bearing 360. A non-positive segment count falls back to
// DefaultRingSegments. Ring(center, r, 4) yields the four cardinal
// bearings, used for distance-label placement.
func Ring(center Location, radiusMeters float64, segments int) []Location {
	if segments <= 0 {
		segments = DefaultRingSegments
	}

	points := make([]Location, 0, segments+1)
	step := 360.0 / float64(segments)
	for i := 0; i <= segments; i++ {
		points = append(points, DestinationPoint(center, radiusMeters, float64(i)*step))
	}
	return points
}

// normalizeLongitude wraps a longitude into [-180, 180].
func normalizeLongitude(lon float64) float64 {
	lon = math.Mod(lon+540, 360)
	if lon < 0 {
		lon += 360
	}
	return lon - 180
}
