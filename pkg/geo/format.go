package geo

import (
	"fmt"
	"math"
)

// FormatDistance renders a distance in meters for display. Values below
// 1000 m render as integer meters ("999 m"); values of 1000 m and above
// render as kilometers with one decimal place ("1.0 km"). Both the POI
// analyzer and the route translator format through this one function so
// their output is identical.
func FormatDistance(meters float64) string {
	if meters >= 1000 {
		return fmt.Sprintf("%.1f km", meters/1000)
	}
	return fmt.Sprintf("%d m", int(meters))
}

// FormatDuration renders a duration in seconds for display, rounded up to
// the next whole minute. Durations of an hour or more render as hours and
// minutes.
func FormatDuration(seconds float64) string {
	minutes := int(math.Ceil(seconds / 60))
	if minutes < 60 {
		return fmt.Sprintf("%d min", minutes)
	}
	if minutes%60 == 0 {
		return fmt.Sprintf("%d hr", minutes/60)
	}
	return fmt.Sprintf("%d hr %d min", minutes/60, minutes%60)
}
