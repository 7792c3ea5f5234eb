// Package geocode resolves free-text place queries to coordinates.
//
// Resolution first attempts direct coordinate extraction, which costs
// no network call, then walks a fixed-priority chain of external
// providers strictly sequentially. The first provider returning a
// usable candidate wins; later providers are never consulted and
// providers are never raced. Provider failures are absorbed here and
// surface only as ErrNotFound once the whole chain is exhausted.
package geocode

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/NERVsystems/geoscout/pkg/coords"
	"github.com/NERVsystems/geoscout/pkg/geo"
)

// ErrNotFound is returned when no coordinate can be determined for a
// query.
var ErrNotFound = errors.New("location not found")

// ErrNoResult is returned by a provider whose response was well-formed
// but carried no candidates.
var ErrNoResult = errors.New("no result")

// Provider looks up coordinates for a free-text query against one
// external geocoding service. Implementations perform exactly one
// request per call and do not retry.
type Provider interface {
	Name() string
	Lookup(ctx context.Context, query string) (geo.Location, error)
}

// Resolver resolves queries through direct parsing and an ordered
// provider chain. It keeps no state between calls and never caches
// results.
type Resolver struct {
	providers []Provider
	logger    *slog.Logger
}

// NewResolver returns a resolver over the given providers, consulted
// in the order given.
func NewResolver(providers ...Provider) *Resolver {
	return &Resolver{
		providers: providers,
		logger:    slog.Default().With("component", "geocode"),
	}
}

// DefaultProviders returns the production chain: the ArcGIS address
// candidate service, then Photon fuzzy search, then Nominatim.
func DefaultProviders() []Provider {
	return []Provider{
		&ArcGISProvider{},
		&PhotonProvider{},
		&NominatimProvider{},
	}
}

// Resolve turns a query into a coordinate pair. Queries that already
// contain coordinates (decimal, DMS, UTM, MGRS) resolve locally;
// everything else goes through the provider chain.
func (r *Resolver) Resolve(ctx context.Context, query string) (geo.Location, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return geo.Location{}, fmt.Errorf("%w: empty query", ErrNotFound)
	}

	if parsed, err := coords.Parse(query); err == nil {
		r.logger.Debug("resolved by direct parse",
			"query", query,
			"format", parsed.Format.String(),
		)
		return parsed.Location, nil
	}

	for _, p := range r.providers {
		loc, err := p.Lookup(ctx, query)
		if err != nil {
			// A failing provider never aborts the chain.
			r.logger.Debug("provider lookup failed",
				"provider", p.Name(),
				"query", query,
				"error", err,
			)
			continue
		}
		if err := loc.Validate(); err != nil {
			r.logger.Warn("provider returned out-of-range coordinates",
				"provider", p.Name(),
				"query", query,
				"error", err,
			)
			continue
		}
		r.logger.Debug("resolved by provider", "provider", p.Name(), "query", query)
		return loc, nil
	}

	return geo.Location{}, fmt.Errorf("%w: %s", ErrNotFound, query)
}
