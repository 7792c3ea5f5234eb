package route

import (
	"context"
	"log/slog"

	"github.com/NERVsystems/geoscout/pkg/core"
	"github.com/NERVsystems/geoscout/pkg/geo"
)

// OSRMPlanner plans single-mode road routes through OSRM. It issues one
// request per plan and returns exactly one option, marked recommended.
type OSRMPlanner struct {
	profile string
	mode    string
	catalog *Catalog
	pricing Pricing
	logger  *slog.Logger
}

// NewOSRMPlanner returns a planner for an OSRM profile ("car" or
// "foot"). An empty profile means car; zero-value pricing selects the
// defaults.
func NewOSRMPlanner(profile, locale string, pricing Pricing) *OSRMPlanner {
	if profile == "" {
		profile = "car"
	}
	return &OSRMPlanner{
		profile: profile,
		mode:    modeForProfile(profile),
		catalog: CatalogFor(locale),
		pricing: pricing.orDefault(),
		logger:  slog.Default().With("component", "route.osrm"),
	}
}

// modeForProfile maps an OSRM profile to the step transport mode.
func modeForProfile(profile string) string {
	switch profile {
	case "foot", "walking":
		return ModeWalk
	case "motorcycle":
		return ModeMotorcycle
	default:
		return ModeCar
	}
}

// Plan requests a route and translates it into one localized option.
func (p *OSRMPlanner) Plan(ctx context.Context, origin, destination geo.Location) ([]Option, error) {
	if err := origin.Validate(); err != nil {
		return nil, err
	}
	if err := destination.Validate(); err != nil {
		return nil, err
	}

	logger := p.logger.With("origin", origin.String(), "destination", destination.String())

	options := core.DefaultOSRMOptions()
	options.Profile = p.profile

	// OSRM takes and returns coordinates in (lng, lat) order.
	coordinates := [][]float64{
		{origin.Longitude, origin.Latitude},
		{destination.Longitude, destination.Latitude},
	}

	result, err := core.GetRoute(ctx, coordinates, options)
	if err != nil {
		logger.Error("route request failed", "error", err)
		return nil, ErrRoutingFailed
	}
	if len(result.Routes) == 0 {
		logger.Error("routing engine returned no routes")
		return nil, ErrRoutingFailed
	}
	best := result.Routes[0]

	var steps []Step
	for _, leg := range best.Legs {
		for _, s := range leg.Steps {
			step := Step{
				Instruction: p.catalog.Instruction(s.Maneuver.Type, s.Maneuver.Modifier, s.Name, s.Maneuver.Exit),
				Mode:        p.mode,
			}
			// Arrival steps have no extent; leave their labels off.
			if s.Distance > 0 {
				step.Distance = geo.FormatDistance(s.Distance)
			}
			if s.Duration > 0 {
				step.Duration = geo.FormatDuration(s.Duration)
			}
			steps = append(steps, step)
		}
	}

	// Downstream consumers want (lat, lng) pairs.
	path := make([][]float64, 0, len(best.Geometry.Coordinates))
	for _, pair := range best.Geometry.Coordinates {
		if len(pair) < 2 {
			continue
		}
		path = append(path, []float64{pair[1], pair[0]})
	}

	option := Option{
		ID:            "option-1",
		Title:         p.catalog.Title(p.mode),
		TotalDuration: geo.FormatDuration(best.Duration),
		TotalDistance: geo.FormatDistance(best.Distance),
		TotalCost:     p.pricing.FormatEstimate(best.Distance),
		Steps:         steps,
		Recommended:   true,
		Coordinates:   path,
	}

	logger.Debug("route planned", "steps", len(steps), "distance_m", best.Distance)
	return []Option{option}, nil
}
