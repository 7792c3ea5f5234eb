package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/NERVsystems/geoscout/pkg/geo"
	"github.com/NERVsystems/geoscout/pkg/osm"
)

// PhotonProvider queries the komoot Photon API, a typo-tolerant
// OSM-backed search. Second in the chain.
type PhotonProvider struct{}

func (p *PhotonProvider) Name() string { return "photon" }

func (p *PhotonProvider) Lookup(ctx context.Context, query string) (geo.Location, error) {
	reqURL, err := url.Parse(osm.PhotonBaseURL + "/api")
	if err != nil {
		return geo.Location{}, err
	}

	q := reqURL.Query()
	q.Set("q", query)
	q.Set("limit", "1")
	reqURL.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return geo.Location{}, err
	}

	resp, err := osm.DoRequest(ctx, req)
	if err != nil {
		return geo.Location{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return geo.Location{}, fmt.Errorf("photon returned status %d", resp.StatusCode)
	}

	var out struct {
		Features []struct {
			Geometry struct {
				Coordinates []float64 `json:"coordinates"`
			} `json:"geometry"`
		} `json:"features"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return geo.Location{}, fmt.Errorf("decode photon response: %w", err)
	}

	if len(out.Features) == 0 {
		return geo.Location{}, ErrNoResult
	}

	// GeoJSON coordinates are [longitude, latitude].
	pt := out.Features[0].Geometry.Coordinates
	if len(pt) < 2 {
		return geo.Location{}, fmt.Errorf("photon feature has malformed geometry")
	}
	return geo.Location{Latitude: pt[1], Longitude: pt[0]}, nil
}
