package osm

import (
	"net/url"

	"github.com/NERVsystems/geoscout/pkg/tracing"
)

// Base URLs for the upstream services. These are variables so deployments
// can point at self-hosted instances; override them before serving traffic.
var (
	NominatimBaseURL = "https://nominatim.openstreetmap.org"
	PhotonBaseURL    = "https://photon.komoot.io"
	ArcGISBaseURL    = "https://geocode.arcgis.com/arcgis/rest/services/World/GeocodeServer/findAddressCandidates"
	OverpassBaseURL  = "https://overpass-api.de/api/interpreter"
	OSRMBaseURL      = "https://router.project-osrm.org"
)

// ServiceFor maps a request host to the upstream service name used for
// rate limiting and metric labels. Unknown hosts return "".
func ServiceFor(host string) string {
	switch host {
	case hostFromURL(NominatimBaseURL):
		return tracing.ServiceNominatim
	case hostFromURL(PhotonBaseURL):
		return tracing.ServicePhoton
	case hostFromURL(ArcGISBaseURL):
		return tracing.ServiceArcGIS
	case hostFromURL(OverpassBaseURL):
		return tracing.ServiceOverpass
	case hostFromURL(OSRMBaseURL):
		return tracing.ServiceOSRM
	default:
		return ""
	}
}

// hostFromURL extracts the host from a URL string
func hostFromURL(urlStr string) string {
	u, err := url.Parse(urlStr)
	if err != nil {
		return ""
	}
	return u.Host
}
