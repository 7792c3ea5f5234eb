package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/NERVsystems/geoscout/pkg/geo"
	"github.com/NERVsystems/geoscout/pkg/osm"
)

// NominatimProvider queries the OSM Nominatim search endpoint. Last in
// the chain: strictest matching, strictest usage policy.
type NominatimProvider struct{}

func (p *NominatimProvider) Name() string { return "nominatim" }

func (p *NominatimProvider) Lookup(ctx context.Context, query string) (geo.Location, error) {
	reqURL, err := url.Parse(osm.NominatimBaseURL + "/search")
	if err != nil {
		return geo.Location{}, err
	}

	q := reqURL.Query()
	q.Set("q", query)
	q.Set("format", "json")
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
		return geo.Location{}, fmt.Errorf("nominatim returned status %d", resp.StatusCode)
	}

	// Nominatim serializes coordinates as decimal strings.
	var out []struct {
		Lat         string `json:"lat"`
		Lon         string `json:"lon"`
		DisplayName string `json:"display_name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return geo.Location{}, fmt.Errorf("decode nominatim response: %w", err)
	}

	if len(out) == 0 {
		return geo.Location{}, ErrNoResult
	}

	lat, err := strconv.ParseFloat(out[0].Lat, 64)
	if err != nil {
		return geo.Location{}, fmt.Errorf("parse nominatim latitude: %w", err)
	}
	lon, err := strconv.ParseFloat(out[0].Lon, 64)
	if err != nil {
		return geo.Location{}, fmt.Errorf("parse nominatim longitude: %w", err)
	}

	return geo.Location{Latitude: lat, Longitude: lon}, nil
}
