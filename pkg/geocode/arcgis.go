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

// ArcGISProvider queries the ArcGIS World Geocoder's address candidate
// endpoint. It ranks first in the chain because its candidate scoring
// handles partial addresses well.
type ArcGISProvider struct{}

func (p *ArcGISProvider) Name() string { return "arcgis" }

func (p *ArcGISProvider) Lookup(ctx context.Context, query string) (geo.Location, error) {
	reqURL, err := url.Parse(osm.ArcGISBaseURL)
	if err != nil {
		return geo.Location{}, err
	}

	q := reqURL.Query()
	q.Set("f", "json")
	q.Set("singleLine", query)
	q.Set("maxLocations", "1")
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
		return geo.Location{}, fmt.Errorf("arcgis returned status %d", resp.StatusCode)
	}

	var out struct {
		Candidates []struct {
			Address  string `json:"address"`
			Location struct {
				X float64 `json:"x"`
				Y float64 `json:"y"`
			} `json:"location"`
		} `json:"candidates"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return geo.Location{}, fmt.Errorf("decode arcgis response: %w", err)
	}

	if len(out.Candidates) == 0 {
		return geo.Location{}, ErrNoResult
	}

	// ArcGIS puts latitude in y and longitude in x.
	top := out.Candidates[0].Location
	return geo.Location{Latitude: top.Y, Longitude: top.X}, nil
}
