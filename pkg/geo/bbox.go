package geo

// BoundingBox represents a rectangular geographic area.
type BoundingBox struct {
	MinLat float64 `json:"minLat"`
	MinLon float64 `json:"minLon"`
	MaxLat float64 `json:"maxLat"`
	MaxLon float64 `json:"maxLon"`
}

// NewBoundingBox returns a bounding box containing the single given point.
func NewBoundingBox(loc Location) BoundingBox {
	return BoundingBox{
		MinLat: loc.Latitude,
		MinLon: loc.Longitude,
		MaxLat: loc.Latitude,
		MaxLon: loc.Longitude,
	}
}

// ExtendWithPoint grows the box to include the given point.
func (b *BoundingBox) ExtendWithPoint(loc Location) {
	if loc.Latitude < b.MinLat {
		b.MinLat = loc.Latitude
	}
	if loc.Latitude > b.MaxLat {
		b.MaxLat = loc.Latitude
	}
	if loc.Longitude < b.MinLon {
		b.MinLon = loc.Longitude
	}
	if loc.Longitude > b.MaxLon {
		b.MaxLon = loc.Longitude
	}
}

// Center returns the midpoint of the box.
func (b BoundingBox) Center() Location {
	return Location{
		Latitude:  (b.MinLat + b.MaxLat) / 2,
		Longitude: (b.MinLon + b.MaxLon) / 2,
	}
}

// Centroid returns the arithmetic mean of the given points. An empty
// slice yields the zero location.
func Centroid(points []Location) Location {
	if len(points) == 0 {
		return Location{}
	}

	var sumLat, sumLon float64
	for _, p := range points {
		sumLat += p.Latitude
		sumLon += p.Longitude
	}
	return Location{
		Latitude:  sumLat / float64(len(points)),
		Longitude: sumLon / float64(len(points)),
	}
}
