package poi

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/NERVsystems/geoscout/pkg/genai"
	"github.com/NERVsystems/geoscout/pkg/geo"
)

// Completer produces a text completion for a prompt. *genai.Client
// satisfies it; tests substitute a local fake.
type Completer interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// GenerativeAnalyzer asks a language model to describe the area instead of
// querying OSM. The model's answer is untrusted: items are dropped unless
// they carry a name and valid coordinates, and numeric fields are clamped
// to their documented ranges. Distances are always recomputed from the
// returned coordinates, never taken from the model.
type GenerativeAnalyzer struct {
	completer         Completer
	locale            string
	defaultPopularity float64
	maxPerCategory    int
	logger            *slog.Logger
}

// NewGenerativeAnalyzer returns an analyzer backed by the given completer.
// A zero defaultPopularity or maxPerCategory selects the package default.
func NewGenerativeAnalyzer(completer Completer, locale string, defaultPopularity float64, maxPerCategory int) *GenerativeAnalyzer {
	if locale == "" {
		locale = "en"
	}
	if defaultPopularity <= 0 {
		defaultPopularity = DefaultPopularity
	}
	if maxPerCategory <= 0 {
		maxPerCategory = DefaultMaxPerCategory
	}
	return &GenerativeAnalyzer{
		completer:         completer,
		locale:            locale,
		defaultPopularity: defaultPopularity,
		maxPerCategory:    maxPerCategory,
		logger:            slog.Default().With("component", "poi.generative"),
	}
}

const generativeSystemPrompt = `You are a local-area guide with detailed knowledge of real places.
You answer with a single JSON document and nothing else: no prose, no markdown fences.`

const generativePromptTemplate = `Describe the area within %s of latitude %.6f, longitude %.6f.

Return JSON with exactly this shape:
{
  "location_name": "short name of the area or neighborhood",
  "summary": "one or two sentences about the area",
  "categories": {
    "residential": [], "convenience": [], "shopping": [], "food": [],
    "transport": [], "recreation": [], "public_service": []
  }
}

Each category array holds up to %d place objects:
{"name": "...", "latitude": 0.0, "longitude": 0.0, "popularity": 0.0, "rating": 0.0, "reviews": 0}

Rules:
- Only include real places you are confident exist at those coordinates.
- Write names, location_name and summary in the language with code %q.
- popularity is 0.0 to 1.0; rating is 1.0 to 5.0; reviews is a count. Omit any you do not know.
- Leave a category empty rather than inventing places.`

// Analyze prompts the model for places around center and validates the
// structured answer.
func (a *GenerativeAnalyzer) Analyze(ctx context.Context, center geo.Location, radiusMeters float64) (*AnalysisResult, error) {
	if err := center.Validate(); err != nil {
		return nil, err
	}
	if radiusMeters <= 0 {
		return nil, fmt.Errorf("radius must be positive, got %g", radiusMeters)
	}

	logger := a.logger.With("center", center.String(), "radius_m", radiusMeters)

	prompt := fmt.Sprintf(generativePromptTemplate,
		geo.FormatDistance(radiusMeters), center.Latitude, center.Longitude,
		a.maxPerCategory, a.locale)

	raw, err := a.completer.Complete(ctx, generativeSystemPrompt, prompt)
	if err != nil {
		logger.Error("completion failed", "error", err)
		return nil, ErrAnalysisFailed
	}

	doc := genai.ExtractJSON(raw)
	if !gjson.Valid(doc) {
		logger.Error("model returned invalid JSON", "length", len(raw))
		return nil, ErrAnalysisFailed
	}
	root := gjson.Parse(doc)

	result := NewAnalysisResult()
	dropped := 0
	for _, cat := range Categories {
		category := cat
		root.Get("categories." + category).ForEach(func(_, item gjson.Result) bool {
			place, ok := a.placeFrom(item, center)
			if !ok {
				dropped++
				return true
			}
			result.add(category, place, a.maxPerCategory)
			return true
		})
	}

	bundle := labelsFor(a.locale)
	result.LocationName = strings.TrimSpace(root.Get("location_name").String())
	if result.LocationName == "" {
		result.LocationName = bundle.locationName
	}
	result.Summary = strings.TrimSpace(root.Get("summary").String())
	if result.Summary == "" {
		result.Summary = fmt.Sprintf(bundle.summary, result.Count(), geo.FormatDistance(radiusMeters))
	}

	logger.Debug("analysis complete", "places", result.Count(), "dropped", dropped)
	return result, nil
}

// placeFrom validates one model-described item. Items without a name or
// without in-range coordinates are unusable: the distance field cannot be
// computed for them, so they are dropped rather than guessed at.
func (a *GenerativeAnalyzer) placeFrom(item gjson.Result, center geo.Location) (Place, bool) {
	name := strings.TrimSpace(item.Get("name").String())
	latField := item.Get("latitude")
	lonField := item.Get("longitude")
	if name == "" || !latField.Exists() || !lonField.Exists() {
		return Place{}, false
	}
	loc := geo.Location{Latitude: latField.Float(), Longitude: lonField.Float()}
	if err := loc.Validate(); err != nil {
		return Place{}, false
	}

	place := Place{
		Name:       name,
		Distance:   geo.FormatDistance(geo.Distance(center, loc)),
		Latitude:   loc.Latitude,
		Longitude:  loc.Longitude,
		Popularity: a.defaultPopularity,
		Source:     "ai",
	}
	if p := item.Get("popularity"); p.Exists() {
		place.Popularity = clamp01(p.Float())
	}
	if r := item.Get("rating"); r.Exists() {
		if v := r.Float(); v >= 1 && v <= 5 {
			place.Rating = v
		}
	}
	if rv := item.Get("reviews"); rv.Exists() {
		if n := rv.Int(); n > 0 {
			place.Reviews = int(n)
		}
	}
	return place, true
}
