package coords

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/NERVsystems/geoscout/pkg/geo"
	"github.com/akhenakh/mgrs"
)

// ParseMGRS parses a Military Grid Reference System string such as
// 47QNB8598697460. The digit count sets the precision: 10 digits is
// 1m, 8 is 10m, down to 2 digits for 10km squares.
func ParseMGRS(input string) (*ParseResult, error) {
	input = strings.TrimSpace(strings.ToUpper(input))

	if !mgrsRegex.MatchString(input) {
		return nil, fmt.Errorf("invalid MGRS format: %q", input)
	}

	lat, lon, err := mgrs.MGRSToLatLng(input)
	if err != nil {
		return nil, fmt.Errorf("MGRS conversion failed: %w", err)
	}

	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return nil, fmt.Errorf("MGRS conversion produced invalid coordinates: lat=%f, lon=%f", lat, lon)
	}

	return &ParseResult{
		Location: geo.Location{
			Latitude:  lat,
			Longitude: lon,
		},
		Format:   FormatMGRS,
		Original: input,
	}, nil
}

// ToMGRS converts a lat/lon to an MGRS string. Precision is 1-5 digits
// per axis, i.e. 10km down to 1m; out-of-range precision defaults to 5.
func ToMGRS(lat, lon float64, precision int) (string, error) {
	if precision < 1 || precision > 5 {
		precision = 5
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return "", fmt.Errorf("coordinates out of range: lat=%f, lon=%f", lat, lon)
	}

	result, err := mgrs.LatLngToMGRS(lat, lon, precision)
	if err != nil {
		return "", fmt.Errorf("MGRS conversion failed: %w", err)
	}
	return result, nil
}

// ParseUTM parses a UTM coordinate such as "47N 485986 2197460".
// The band letter only decides the hemisphere: C-M is southern,
// N-X is northern.
func ParseUTM(input string) (*ParseResult, error) {
	input = strings.TrimSpace(strings.ToUpper(input))

	matches := utmRegex.FindStringSubmatch(input)
	if matches == nil {
		return nil, fmt.Errorf("invalid UTM format: %q", input)
	}

	zone, err := strconv.Atoi(matches[1])
	if err != nil || zone < 1 || zone > 60 {
		return nil, fmt.Errorf("invalid UTM zone: %s", matches[1])
	}

	band := matches[2][0]
	easting, err := strconv.ParseFloat(matches[3], 64)
	if err != nil {
		return nil, fmt.Errorf("invalid UTM easting: %s", matches[3])
	}

	northing, err := strconv.ParseFloat(matches[4], 64)
	if err != nil {
		return nil, fmt.Errorf("invalid UTM northing: %s", matches[4])
	}

	isNorthern := band >= 'N'

	lat, lon := utmToLatLon(zone, easting, northing, isNorthern)

	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return nil, fmt.Errorf("UTM conversion produced invalid coordinates: lat=%f, lon=%f", lat, lon)
	}

	return &ParseResult{
		Location: geo.Location{
			Latitude:  lat,
			Longitude: lon,
		},
		Format:   FormatUTM,
		Original: input,
	}, nil
}

// utmToLatLon is the inverse transverse Mercator projection on the
// WGS84 ellipsoid, using the standard series expansion about the
// footpoint latitude.
func utmToLatLon(zone int, easting, northing float64, isNorthern bool) (lat, lon float64) {
	const (
		a  = 6378137.0         // Semi-major axis (meters)
		f  = 1 / 298.257223563 // Flattening
		k0 = 0.9996            // Scale factor
	)

	b := a * (1 - f)
	e2 := (a*a - b*b) / (a * a)  // First eccentricity squared
	ep2 := (a*a - b*b) / (b * b) // Second eccentricity squared
	e1 := (1 - math.Sqrt(1-e2)) / (1 + math.Sqrt(1-e2))

	// Remove false easting and, in the south, false northing.
	x := easting - 500000.0
	y := northing
	if !isNorthern {
		y = y - 10000000.0
	}

	// Central meridian of the zone
	lon0 := float64((zone-1)*6-180+3) * math.Pi / 180.0

	// Footpoint latitude
	m := y / k0
	mu := m / (a * (1 - e2/4 - 3*e2*e2/64 - 5*e2*e2*e2/256))

	phi1 := mu +
		(3*e1/2-27*e1*e1*e1/32)*math.Sin(2*mu) +
		(21*e1*e1/16-55*e1*e1*e1*e1/32)*math.Sin(4*mu) +
		(151*e1*e1*e1/96)*math.Sin(6*mu) +
		(1097*e1*e1*e1*e1/512)*math.Sin(8*mu)

	sinPhi1 := math.Sin(phi1)
	cosPhi1 := math.Cos(phi1)
	tanPhi1 := math.Tan(phi1)

	n1 := a / math.Sqrt(1-e2*sinPhi1*sinPhi1)
	t1 := tanPhi1 * tanPhi1
	c1 := ep2 * cosPhi1 * cosPhi1
	r1 := a * (1 - e2) / math.Pow(1-e2*sinPhi1*sinPhi1, 1.5)
	d := x / (n1 * k0)

	lat = phi1 - (n1*tanPhi1/r1)*(d*d/2-
		(5+3*t1+10*c1-4*c1*c1-9*ep2)*d*d*d*d/24+
		(61+90*t1+298*c1+45*t1*t1-252*ep2-3*c1*c1)*d*d*d*d*d*d/720)

	lon = lon0 + (d-
		(1+2*t1+c1)*d*d*d/6+
		(5-2*c1+28*t1-3*c1*c1+8*ep2+24*t1*t1)*d*d*d*d*d/120)/cosPhi1

	lat = lat * 180 / math.Pi
	lon = lon * 180 / math.Pi

	return lat, lon
}
