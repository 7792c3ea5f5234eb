package osm

// OverpassResponse is the envelope returned by the Overpass API.
type OverpassResponse struct {
	Elements []OverpassElement `json:"elements"`
}

// OverpassElement represents an element returned from the Overpass API
type OverpassElement struct {
	ID     int64   `json:"id"`
	Type   string  `json:"type"`
	Lat    float64 `json:"lat,omitempty"`
	Lon    float64 `json:"lon,omitempty"`
	Center *struct {
		Lat float64 `json:"lat"`
		Lon float64 `json:"lon"`
	} `json:"center,omitempty"`
	Tags    map[string]string `json:"tags,omitempty"`
	Nodes   []int64           `json:"nodes,omitempty"` // For ways, list of node IDs
	Members []struct {
		Type string `json:"type"`
		Ref  int64  `json:"ref"`
		Role string `json:"role"`
	} `json:"members,omitempty"` // For relations
}

// Name returns the element's name tag, preferring the localized name
// for lang ("name:<lang>"), then the generic name, then any
// international name. Unnamed elements return "".
func (e OverpassElement) Name(lang string) string {
	if e.Tags == nil {
		return ""
	}
	if lang != "" {
		if name := e.Tags["name:"+lang]; name != "" {
			return name
		}
	}
	if name := e.Tags["name"]; name != "" {
		return name
	}
	return e.Tags["name:en"]
}

// Location returns the element's coordinates. Nodes carry their own
// lat/lon; ways and relations fall back to the computed center.
func (e OverpassElement) Location() (lat, lon float64, ok bool) {
	if e.Lat != 0 || e.Lon != 0 {
		return e.Lat, e.Lon, true
	}
	if e.Center != nil {
		return e.Center.Lat, e.Center.Lon, true
	}
	return 0, 0, false
}
