// Package coords parses coordinates in the formats field users actually
// type: decimal degrees, degrees-minutes-seconds, MGRS grid references,
// and UTM. Every parser normalizes to decimal degrees (WGS84) so the
// rest of the pipeline only deals with geo.Location.
//
// Supported formats:
//   - Decimal degrees: "19.856, 99.816" or "19.856 99.816"
//   - DMS: "19°51'22\"N 99°48'59\"E" or "19d51m22sN 99d48m59sE"
//   - MGRS: "47QNB8598697460"
//   - UTM: "47N 485986 2197460"
package coords

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/NERVsystems/geoscout/pkg/geo"
)

// Format identifies which coordinate notation an input matched.
type Format int

const (
	FormatUnknown Format = iota
	FormatDecimal        // Decimal degrees (lat, lon)
	FormatDMS            // Degrees Minutes Seconds
	FormatMGRS           // Military Grid Reference System
	FormatUTM            // Universal Transverse Mercator
)

// String returns the format name
func (f Format) String() string {
	switch f {
	case FormatDecimal:
		return "decimal"
	case FormatDMS:
		return "dms"
	case FormatMGRS:
		return "mgrs"
	case FormatUTM:
		return "utm"
	default:
		return "unknown"
	}
}

// ParseResult is a parsed coordinate plus metadata about how it was read.
type ParseResult struct {
	Location geo.Location // Normalized lat/lon
	Format   Format       // Notation the input matched
	Original string       // Input as given (trimmed)
}

var (
	// MGRS: grid zone (1-60) + latitude band (C-X, no I/O) + 100km square
	// (two letters, no I/O) + an even run of 2-10 digits.
	mgrsRegex = regexp.MustCompile(`(?i)^(\d{1,2})([C-HJ-NP-X])([A-HJ-NP-Z]{2})(\d{2,10})$`)

	// UTM: zone + band letter + easting + northing, space separated.
	utmRegex = regexp.MustCompile(`(?i)^(\d{1,2})([A-Z])\s+(\d+)\s+(\d+)$`)

	// DMS: degree/minute/second triples with N/S and E/W markers. Accepts
	// symbol (°'"), letter (dms) and bare-space separators.
	dmsRegex = regexp.MustCompile(`(?i)^(-?\d+)[°d\s]+(\d+)[′'m\s]+(\d+(?:\.\d+)?)[″"s]?\s*([NS])[\s,]+(-?\d+)[°d\s]+(\d+)[′'m\s]+(\d+(?:\.\d+)?)[″"s]?\s*([EW])$`)

	// Decimal degrees: two signed numbers split by comma and/or spaces.
	decimalRegex = regexp.MustCompile(`^(-?\d+\.?\d*)[,\s]+(-?\d+\.?\d*)$`)
)

// Parse detects the notation of input and converts it to decimal degrees.
// Formats are tried from most to least specific so that an MGRS string is
// never misread as a bare number pair. Returns an error when no format
// matches or the matched values are out of range.
func Parse(input string) (*ParseResult, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, fmt.Errorf("empty coordinate string")
	}

	if result, err := ParseMGRS(input); err == nil {
		return result, nil
	}

	if result, err := ParseUTM(input); err == nil {
		return result, nil
	}

	if result, err := ParseDMS(input); err == nil {
		return result, nil
	}

	if result, err := ParseDecimal(input); err == nil {
		return result, nil
	}

	return nil, fmt.Errorf("unrecognized coordinate format: %q", input)
}

// IsCoordinate reports whether input looks like a coordinate in any
// supported notation. It only checks the shape, not the value ranges,
// so "91, 200" is a coordinate-shaped string that Parse will reject.
func IsCoordinate(input string) bool {
	return DetectFormat(input) != FormatUnknown
}

// DetectFormat returns the notation input appears to use, without
// converting it.
func DetectFormat(input string) Format {
	input = strings.TrimSpace(input)
	if input == "" {
		return FormatUnknown
	}

	switch {
	case mgrsRegex.MatchString(input):
		return FormatMGRS
	case utmRegex.MatchString(input):
		return FormatUTM
	case dmsRegex.MatchString(input):
		return FormatDMS
	case decimalRegex.MatchString(input):
		return FormatDecimal
	default:
		return FormatUnknown
	}
}

// ParseDMS parses a degrees-minutes-seconds pair such as
// 19°51'22"N 99°48'59"E. Minutes and seconds must be below 60;
// S and W directions negate the value.
func ParseDMS(input string) (*ParseResult, error) {
	input = strings.TrimSpace(input)

	matches := dmsRegex.FindStringSubmatch(input)
	if matches == nil {
		return nil, fmt.Errorf("invalid DMS format: %q", input)
	}

	latDeg, _ := strconv.ParseFloat(matches[1], 64)
	latMin, _ := strconv.ParseFloat(matches[2], 64)
	latSec, _ := strconv.ParseFloat(matches[3], 64)
	latDir := strings.ToUpper(matches[4])

	lonDeg, _ := strconv.ParseFloat(matches[5], 64)
	lonMin, _ := strconv.ParseFloat(matches[6], 64)
	lonSec, _ := strconv.ParseFloat(matches[7], 64)
	lonDir := strings.ToUpper(matches[8])

	if latDeg > 90 || latMin >= 60 || latSec >= 60 {
		return nil, fmt.Errorf("invalid latitude values: %s", input)
	}
	if lonDeg > 180 || lonMin >= 60 || lonSec >= 60 {
		return nil, fmt.Errorf("invalid longitude values: %s", input)
	}

	lat := latDeg + latMin/60 + latSec/3600
	lon := lonDeg + lonMin/60 + lonSec/3600

	if latDir == "S" {
		lat = -lat
	}
	if lonDir == "W" {
		lon = -lon
	}

	return &ParseResult{
		Location: geo.Location{
			Latitude:  lat,
			Longitude: lon,
		},
		Format:   FormatDMS,
		Original: input,
	}, nil
}

// ParseDecimal parses a "lat, lon" pair of decimal degrees. Values
// outside [-90,90] / [-180,180] are rejected rather than clamped, so
// strings like "999, 999" fall through to place-name resolution.
func ParseDecimal(input string) (*ParseResult, error) {
	input = strings.TrimSpace(input)

	matches := decimalRegex.FindStringSubmatch(input)
	if matches == nil {
		return nil, fmt.Errorf("invalid decimal format: %q", input)
	}

	lat, err := strconv.ParseFloat(matches[1], 64)
	if err != nil {
		return nil, fmt.Errorf("invalid latitude: %s", matches[1])
	}

	lon, err := strconv.ParseFloat(matches[2], 64)
	if err != nil {
		return nil, fmt.Errorf("invalid longitude: %s", matches[2])
	}

	if lat < -90 || lat > 90 {
		return nil, fmt.Errorf("latitude out of range: %f", lat)
	}
	if lon < -180 || lon > 180 {
		return nil, fmt.Errorf("longitude out of range: %f", lon)
	}

	return &ParseResult{
		Location: geo.Location{
			Latitude:  lat,
			Longitude: lon,
		},
		Format:   FormatDecimal,
		Original: input,
	}, nil
}
