package core

import (
	"fmt"
	"strings"

	"github.com/NERVsystems/geoscout/pkg/geo"
)

// OverpassBuilder provides a fluent interface for building Overpass QL
// queries, e.g.
//
//	NewOverpassBuilder().
//		WithCenter(13.7563, 100.5018, 500).
//		WithNode(Tag("amenity")).
//		WithNode(Tag("railway", "station")).
//		Build()
type OverpassBuilder struct {
	outFormat      string
	timeout        int
	bbox           *geo.BoundingBox
	center         *LocationRadius
	globalTags     []TagFilter
	elementFilters []ElementFilter
}

// LocationRadius represents a center point with a radius in meters
type LocationRadius struct {
	Lat    float64
	Lon    float64
	Radius float64
}

// TagFilter represents a tag filter for Overpass queries
type TagFilter struct {
	Key     string
	Values  []string
	Exclude bool
}

// ElementFilter represents a filter with tags for a specific element type
type ElementFilter struct {
	ElementType string // "node", "way", "relation"
	Tags        []TagFilter
	BBox        *geo.BoundingBox // Optional bounding box
	Around      *LocationRadius  // Optional around filter
}

// NewOverpassBuilder creates a new builder with default settings
func NewOverpassBuilder() *OverpassBuilder {
	return &OverpassBuilder{
		outFormat: "json",
		timeout:   25, // Default timeout in seconds
	}
}

// WithTimeout sets the query timeout
func (b *OverpassBuilder) WithTimeout(seconds int) *OverpassBuilder {
	b.timeout = seconds
	return b
}

// WithOutputFormat sets the output format
func (b *OverpassBuilder) WithOutputFormat(format string) *OverpassBuilder {
	b.outFormat = format
	return b
}

// WithBoundingBox sets a bounding box filter for subsequent elements
func (b *OverpassBuilder) WithBoundingBox(minLat, minLon, maxLat, maxLon float64) *OverpassBuilder {
	b.bbox = &geo.BoundingBox{
		MinLat: minLat,
		MinLon: minLon,
		MaxLat: maxLat,
		MaxLon: maxLon,
	}
	return b
}

// WithCenter sets a center point and radius for subsequent elements
func (b *OverpassBuilder) WithCenter(lat, lon, radius float64) *OverpassBuilder {
	b.center = &LocationRadius{
		Lat:    lat,
		Lon:    lon,
		Radius: radius,
	}
	return b
}

// WithTag adds a global tag filter applied when no element filters exist
func (b *OverpassBuilder) WithTag(key string, values ...string) *OverpassBuilder {
	b.globalTags = append(b.globalTags, TagFilter{
		Key:    key,
		Values: values,
	})
	return b
}

// WithExcludeTag adds a global exclude tag filter
func (b *OverpassBuilder) WithExcludeTag(key string, values ...string) *OverpassBuilder {
	b.globalTags = append(b.globalTags, TagFilter{
		Key:     key,
		Values:  values,
		Exclude: true,
	})
	return b
}

// WithNode adds a node filter
func (b *OverpassBuilder) WithNode(tags ...TagFilter) *OverpassBuilder {
	b.elementFilters = append(b.elementFilters, ElementFilter{
		ElementType: "node",
		Tags:        tags,
		BBox:        b.bbox,
		Around:      b.center,
	})
	return b
}

// WithWay adds a way filter
func (b *OverpassBuilder) WithWay(tags ...TagFilter) *OverpassBuilder {
	b.elementFilters = append(b.elementFilters, ElementFilter{
		ElementType: "way",
		Tags:        tags,
		BBox:        b.bbox,
		Around:      b.center,
	})
	return b
}

// WithRelation adds a relation filter
func (b *OverpassBuilder) WithRelation(tags ...TagFilter) *OverpassBuilder {
	b.elementFilters = append(b.elementFilters, ElementFilter{
		ElementType: "relation",
		Tags:        tags,
		BBox:        b.bbox,
		Around:      b.center,
	})
	return b
}

// Tag creates a TagFilter for a key with optional values
func Tag(key string, values ...string) TagFilter {
	return TagFilter{
		Key:    key,
		Values: values,
	}
}

// NotTag creates an excluding TagFilter
func NotTag(key string, values ...string) TagFilter {
	return TagFilter{
		Key:     key,
		Values:  values,
		Exclude: true,
	}
}

// Build generates the Overpass query string
func (b *OverpassBuilder) Build() string {
	var query strings.Builder

	query.WriteString(fmt.Sprintf("[out:%s][timeout:%d];", b.outFormat, b.timeout))

	query.WriteString("(")

	needsCenter := false
	for _, filter := range b.elementFilters {
		query.WriteString(b.buildElementFilter(filter))
		if filter.ElementType != "node" {
			needsCenter = true
		}
	}

	// With only global tags, filter every element type.
	if len(b.elementFilters) == 0 && len(b.globalTags) > 0 {
		defaultTypes := []string{"node", "way", "relation"}
		for _, elementType := range defaultTypes {
			filter := ElementFilter{
				ElementType: elementType,
				Tags:        b.globalTags,
				BBox:        b.bbox,
				Around:      b.center,
			}
			query.WriteString(b.buildElementFilter(filter))
		}
		needsCenter = true
	}

	query.WriteString(");out body;")

	// Ways and relations have no coordinates of their own; ask the API
	// to compute centers for them. Node-only queries skip this.
	if needsCenter && b.outFormat == "json" {
		query.WriteString(">;out center;")
	}

	return query.String()
}

// buildElementFilter generates the query part for a specific element filter
func (b *OverpassBuilder) buildElementFilter(filter ElementFilter) string {
	var elementQuery strings.Builder

	elementQuery.WriteString(filter.ElementType)

	if filter.Around != nil {
		elementQuery.WriteString(fmt.Sprintf("(around:%.1f,%.6f,%.6f)",
			filter.Around.Radius, filter.Around.Lat, filter.Around.Lon))
	} else if filter.BBox != nil {
		elementQuery.WriteString(fmt.Sprintf("(%.6f,%.6f,%.6f,%.6f)",
			filter.BBox.MinLat, filter.BBox.MinLon, filter.BBox.MaxLat, filter.BBox.MaxLon))
	}

	tagFilters := filter.Tags
	if len(tagFilters) == 0 {
		tagFilters = b.globalTags
	}

	for _, tag := range tagFilters {
		elementQuery.WriteString(b.buildTagFilter(tag))
	}

	elementQuery.WriteString(";")
	return elementQuery.String()
}

// buildTagFilter generates the query part for a tag filter
func (b *OverpassBuilder) buildTagFilter(filter TagFilter) string {
	// No values means existence (or absence) of the key.
	if len(filter.Values) == 0 {
		if filter.Exclude {
			return fmt.Sprintf("[!%s]", filter.Key)
		}
		return fmt.Sprintf("[%s]", filter.Key)
	}

	if len(filter.Values) == 1 {
		// "*" means any value, same as a bare key filter.
		if filter.Values[0] == "*" {
			if filter.Exclude {
				return fmt.Sprintf("[!%s]", filter.Key)
			}
			return fmt.Sprintf("[%s]", filter.Key)
		}

		if filter.Exclude {
			return fmt.Sprintf("[%s!=%s]", filter.Key, filter.Values[0])
		}
		return fmt.Sprintf("[%s=%s]", filter.Key, filter.Values[0])
	}

	// Multiple values become a regex alternation.
	values := strings.Join(filter.Values, "|")
	if filter.Exclude {
		return fmt.Sprintf("[%s!~\"%s\"]", filter.Key, values)
	}
	return fmt.Sprintf("[%s~\"%s\"]", filter.Key, values)
}
