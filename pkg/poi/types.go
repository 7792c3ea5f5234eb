// Package poi analyzes the area around a point: it retrieves nearby
// places from one of two interchangeable backends and classifies them
// into seven fixed categories with formatted distances.
package poi

import (
	"context"
	"errors"

	"github.com/NERVsystems/geoscout/pkg/geo"
)

// Category names, also the JSON keys of AnalysisResult.
const (
	CategoryResidential   = "residential"
	CategoryConvenience   = "convenience"
	CategoryShopping      = "shopping"
	CategoryFood          = "food"
	CategoryTransport     = "transport"
	CategoryRecreation    = "recreation"
	CategoryPublicService = "public_service"
)

// Categories lists the seven category names in output order.
var Categories = []string{
	CategoryResidential,
	CategoryConvenience,
	CategoryShopping,
	CategoryFood,
	CategoryTransport,
	CategoryRecreation,
	CategoryPublicService,
}

// DefaultMaxPerCategory caps each category sequence.
const DefaultMaxPerCategory = 10

// DefaultPopularity is assigned when no external popularity signal
// exists.
const DefaultPopularity = 0.5

// ErrAnalysisFailed is the single user-facing failure of an analysis.
// The underlying cause is logged, never propagated.
var ErrAnalysisFailed = errors.New("analysis failed")

// Place is one classified point of interest.
type Place struct {
	Name       string  `json:"name"`
	Distance   string  `json:"distance"`
	Latitude   float64 `json:"latitude,omitempty"`
	Longitude  float64 `json:"longitude,omitempty"`
	Popularity float64 `json:"popularity,omitempty"`
	Rating     float64 `json:"rating,omitempty"`
	Reviews    int     `json:"reviews,omitempty"`
	Source     string  `json:"source,omitempty"`
}

// AnalysisResult carries the classified places around a center. All
// seven category slices are present in every result, possibly empty,
// in discovery order and capped per category.
type AnalysisResult struct {
	LocationName  string  `json:"location_name"`
	Summary       string  `json:"summary"`
	Residential   []Place `json:"residential"`
	Convenience   []Place `json:"convenience"`
	Shopping      []Place `json:"shopping"`
	Food          []Place `json:"food"`
	Transport     []Place `json:"transport"`
	Recreation    []Place `json:"recreation"`
	PublicService []Place `json:"public_service"`
}

// NewAnalysisResult returns a result with all seven category slices
// allocated, so empty categories marshal as [] rather than null.
func NewAnalysisResult() *AnalysisResult {
	return &AnalysisResult{
		Residential:   []Place{},
		Convenience:   []Place{},
		Shopping:      []Place{},
		Food:          []Place{},
		Transport:     []Place{},
		Recreation:    []Place{},
		PublicService: []Place{},
	}
}

// category returns the slice for a category name.
func (r *AnalysisResult) category(name string) *[]Place {
	switch name {
	case CategoryResidential:
		return &r.Residential
	case CategoryConvenience:
		return &r.Convenience
	case CategoryShopping:
		return &r.Shopping
	case CategoryFood:
		return &r.Food
	case CategoryTransport:
		return &r.Transport
	case CategoryRecreation:
		return &r.Recreation
	case CategoryPublicService:
		return &r.PublicService
	}
	return nil
}

// add appends a place to a category unless the category is unknown or
// already holds max entries. Insertion order is preserved.
func (r *AnalysisResult) add(category string, p Place, max int) bool {
	seq := r.category(category)
	if seq == nil || len(*seq) >= max {
		return false
	}
	*seq = append(*seq, p)
	return true
}

// Count returns the total number of places across all categories.
func (r *AnalysisResult) Count() int {
	n := 0
	for _, name := range Categories {
		n += len(*r.category(name))
	}
	return n
}

// Analyzer produces an area analysis. The two implementations (open
// OSM data, generative model) are interchangeable; callers must not
// depend on which one is active.
type Analyzer interface {
	Analyze(ctx context.Context, center geo.Location, radiusMeters float64) (*AnalysisResult, error)
}

// clamp01 bounds popularity values into [0, 1].
func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
