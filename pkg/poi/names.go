package poi

import "github.com/NERVsystems/geoscout/pkg/osm"

// labels holds the locale-dependent strings of the open-data backend.
type labels struct {
	unnamedPlace string
	locationName string
	// summary takes the place count and the formatted radius
	summary string
}

var labelBundles = map[string]labels{
	"en": {
		unnamedPlace: "Unnamed place",
		locationName: "Selected area",
		summary:      "%d places found within %s.",
	},
	"th": {
		unnamedPlace: "สถานที่ไม่มีชื่อ",
		locationName: "พื้นที่ที่เลือก",
		summary:      "พบ %d แห่งในรัศมี %s",
	},
}

// labelsFor returns the bundle for a locale, falling back to English.
func labelsFor(locale string) labels {
	if l, ok := labelBundles[locale]; ok {
		return l
	}
	return labelBundles["en"]
}

// DisplayName resolves a feature's name using the fixed preference
// order: localized name, generic name, English name, then the
// locale's "unnamed place" fallback.
func DisplayName(e osm.OverpassElement, locale string) string {
	if name := e.Name(locale); name != "" {
		return name
	}
	return labelsFor(locale).unnamedPlace
}
