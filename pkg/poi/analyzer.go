package poi

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/NERVsystems/geoscout/pkg/core"
	"github.com/NERVsystems/geoscout/pkg/geo"
	"github.com/NERVsystems/geoscout/pkg/osm"
)

// OverpassAnalyzer surveys an area by fetching tagged OSM nodes from the
// Overpass API and classifying them locally. It issues exactly one query
// per analysis and never retries; transient Overpass failures surface as
// ErrAnalysisFailed.
//
// OSM carries no popularity signal, so every place gets the configured
// default popularity.
type OverpassAnalyzer struct {
	locale            string
	defaultPopularity float64
	maxPerCategory    int
	logger            *slog.Logger
}

// NewOverpassAnalyzer returns an analyzer that labels places in the given
// locale. A zero defaultPopularity or maxPerCategory selects the package
// default.
func NewOverpassAnalyzer(locale string, defaultPopularity float64, maxPerCategory int) *OverpassAnalyzer {
	if locale == "" {
		locale = "en"
	}
	if defaultPopularity <= 0 {
		defaultPopularity = DefaultPopularity
	}
	if maxPerCategory <= 0 {
		maxPerCategory = DefaultMaxPerCategory
	}
	return &OverpassAnalyzer{
		locale:            locale,
		defaultPopularity: defaultPopularity,
		maxPerCategory:    maxPerCategory,
		logger:            slog.Default().With("component", "poi.overpass"),
	}
}

// buildQuery assembles the single Overpass query covering every tag family
// the classifier understands. Broad keys (amenity, shop, leisure,
// public_transport) are fetched unvalued; the classifier decides which
// values count.
func (a *OverpassAnalyzer) buildQuery(center geo.Location, radiusMeters float64) string {
	return core.NewOverpassBuilder().
		WithTimeout(25).
		WithCenter(center.Latitude, center.Longitude, radiusMeters).
		WithNode(core.Tag("amenity")).
		WithNode(core.Tag("shop")).
		WithNode(core.Tag("leisure")).
		WithNode(core.Tag("public_transport")).
		WithNode(core.Tag("railway", "station")).
		WithNode(core.Tag("highway", "bus_stop")).
		WithNode(core.Tag("office", "government")).
		WithNode(core.Tag("landuse", "residential")).
		WithNode(core.Tag("building", "apartments")).
		Build()
}

// Analyze fetches the nodes around center and buckets them into categories.
func (a *OverpassAnalyzer) Analyze(ctx context.Context, center geo.Location, radiusMeters float64) (*AnalysisResult, error) {
	if err := center.Validate(); err != nil {
		return nil, err
	}
	if radiusMeters <= 0 {
		return nil, fmt.Errorf("radius must be positive, got %g", radiusMeters)
	}

	logger := a.logger.With("center", center.String(), "radius_m", radiusMeters)
	query := a.buildQuery(center, radiusMeters)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, osm.OverpassBaseURL,
		strings.NewReader("data="+url.QueryEscape(query)))
	if err != nil {
		logger.Error("failed to create overpass request", "error", err)
		return nil, ErrAnalysisFailed
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := osm.DoRequest(ctx, req)
	if err != nil {
		logger.Error("overpass request failed", "error", err)
		return nil, ErrAnalysisFailed
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		logger.Error("overpass returned error status", "status", resp.StatusCode)
		return nil, ErrAnalysisFailed
	}

	var overpass osm.OverpassResponse
	if err := json.NewDecoder(resp.Body).Decode(&overpass); err != nil {
		logger.Error("failed to decode overpass response", "error", err)
		return nil, ErrAnalysisFailed
	}

	result := NewAnalysisResult()
	for _, element := range overpass.Elements {
		lat, lon, ok := element.Location()
		if !ok {
			continue
		}
		// Classification sees the raw resolved name so chain matching
		// works; the display fallback is applied afterwards.
		category := Classify(element.Tags, element.Name(a.locale))
		if category == "" {
			continue
		}
		meters := geo.Distance(center, geo.Location{Latitude: lat, Longitude: lon})
		result.add(category, Place{
			Name:       DisplayName(element, a.locale),
			Distance:   geo.FormatDistance(meters),
			Latitude:   lat,
			Longitude:  lon,
			Popularity: a.defaultPopularity,
			Source:     "osm",
		}, a.maxPerCategory)
	}

	bundle := labelsFor(a.locale)
	result.LocationName = bundle.locationName
	result.Summary = fmt.Sprintf(bundle.summary, result.Count(), geo.FormatDistance(radiusMeters))

	logger.Debug("analysis complete", "elements", len(overpass.Elements), "places", result.Count())
	return result, nil
}
