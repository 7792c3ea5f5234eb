package route

import (
	"context"
	"fmt"
	"log/slog"
	"math"
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

// TransitPlanner asks a language model for multi-modal trip options,
// preferring public transit with a taxi fallback where coverage is
// poor. The model's answer is untrusted: steps without instructions
// and options without steps are dropped, modes outside the known set
// are cleared, and at most one option stays recommended.
type TransitPlanner struct {
	completer Completer
	locale    string
	pricing   Pricing
	logger    *slog.Logger
}

// NewTransitPlanner returns a planner backed by the given completer.
// Zero-value pricing selects the defaults.
func NewTransitPlanner(completer Completer, locale string, pricing Pricing) *TransitPlanner {
	if locale == "" {
		locale = "en"
	}
	return &TransitPlanner{
		completer: completer,
		locale:    locale,
		pricing:   pricing.orDefault(),
		logger:    slog.Default().With("component", "route.transit"),
	}
}

const transitSystemPrompt = `You are a transit routing assistant with detailed knowledge of real public transport networks.
You answer with a single JSON document and nothing else: no prose, no markdown fences.`

const transitPromptTemplate = `Plan how to travel from latitude %.6f, longitude %.6f to latitude %.6f, longitude %.6f.

Return JSON with exactly this shape:
{
  "options": [
    {
      "title": "short label for this option",
      "duration_minutes": 0,
      "distance_km": 0.0,
      "cost": 0,
      "recommended": false,
      "steps": [
        {"instruction": "...", "mode": "walk", "distance_km": 0.0, "duration_minutes": 0}
      ]
    }
  ]
}

Rules:
- Offer 2 or 3 ranked options, best first, preferring real public transit.
- When transit coverage is poor, include a taxi or ride-hailing option as the fallback.
- mode is one of "walk", "bus", "train", "car", "motorcycle".
- Mark exactly one option "recommended": true.
- cost is the estimated fare in whole local currency units.
- Write titles and instructions in the language with code %q.`

// Plan prompts the model for trip options and validates the answer.
func (p *TransitPlanner) Plan(ctx context.Context, origin, destination geo.Location) ([]Option, error) {
	if err := origin.Validate(); err != nil {
		return nil, err
	}
	if err := destination.Validate(); err != nil {
		return nil, err
	}

	logger := p.logger.With("origin", origin.String(), "destination", destination.String())

	prompt := fmt.Sprintf(transitPromptTemplate,
		origin.Latitude, origin.Longitude,
		destination.Latitude, destination.Longitude,
		p.locale)

	raw, err := p.completer.Complete(ctx, transitSystemPrompt, prompt)
	if err != nil {
		logger.Error("completion failed", "error", err)
		return nil, ErrRoutingFailed
	}

	doc := genai.ExtractJSON(raw)
	if !gjson.Valid(doc) {
		logger.Error("model returned invalid JSON", "length", len(raw))
		return nil, ErrRoutingFailed
	}

	var options []Option
	gjson.Parse(doc).Get("options").ForEach(func(_, item gjson.Result) bool {
		if len(options) == 3 {
			return false
		}
		option, ok := p.optionFrom(item, len(options)+1)
		if !ok {
			return true
		}
		options = append(options, option)
		return true
	})
	if len(options) == 0 {
		logger.Error("model returned no usable options")
		return nil, ErrRoutingFailed
	}

	// At most one recommendation survives; when the model marks none,
	// the top-ranked option takes it.
	flagged := -1
	for i := range options {
		if !options[i].Recommended {
			continue
		}
		if flagged == -1 {
			flagged = i
		} else {
			options[i].Recommended = false
		}
	}
	if flagged == -1 {
		options[0].Recommended = true
	}

	logger.Debug("transit plan complete", "options", len(options))
	return options, nil
}

// optionFrom validates one model-described option. Options without any
// usable step are dropped.
func (p *TransitPlanner) optionFrom(item gjson.Result, ordinal int) (Option, bool) {
	var steps []Step
	item.Get("steps").ForEach(func(_, s gjson.Result) bool {
		instruction := strings.TrimSpace(s.Get("instruction").String())
		if instruction == "" {
			return true
		}
		step := Step{Instruction: instruction}
		if mode := s.Get("mode").String(); validMode(mode) {
			step.Mode = mode
		}
		if km := s.Get("distance_km").Float(); km > 0 {
			step.Distance = geo.FormatDistance(km * 1000)
		}
		if minutes := s.Get("duration_minutes").Float(); minutes > 0 {
			step.Duration = geo.FormatDuration(minutes * 60)
		}
		steps = append(steps, step)
		return true
	})
	if len(steps) == 0 {
		return Option{}, false
	}

	title := strings.TrimSpace(item.Get("title").String())
	if title == "" {
		title = fmt.Sprintf("Option %d", ordinal)
	}

	option := Option{
		ID:          fmt.Sprintf("option-%d", ordinal),
		Title:       title,
		Steps:       steps,
		Recommended: item.Get("recommended").Bool(),
	}
	if minutes := item.Get("duration_minutes").Float(); minutes > 0 {
		option.TotalDuration = geo.FormatDuration(minutes * 60)
	}
	distanceMeters := item.Get("distance_km").Float() * 1000
	if distanceMeters > 0 {
		option.TotalDistance = geo.FormatDistance(distanceMeters)
	}
	switch cost := item.Get("cost").Float(); {
	case cost > 0:
		option.TotalCost = p.pricing.Format(int(math.Ceil(cost)))
	case distanceMeters > 0:
		option.TotalCost = p.pricing.FormatEstimate(distanceMeters)
	}
	return option, true
}
