package route

import (
	"fmt"
	"math"
)

// Pricing is the linear trip-cost model: ceil(BaseFare + PerKm × km).
// The reference values approximate Bangkok taxi fares, but they are
// configuration, not business rules.
type Pricing struct {
	BaseFare float64
	PerKm    float64
	Currency string
}

// DefaultPricing is used when no pricing is configured.
var DefaultPricing = Pricing{BaseFare: 35, PerKm: 6, Currency: "฿"}

// Estimate returns the whole-unit cost for a trip distance in meters,
// rounded up.
func (p Pricing) Estimate(distanceMeters float64) int {
	return int(math.Ceil(p.BaseFare + p.PerKm*distanceMeters/1000))
}

// Format renders a whole-unit cost with the currency symbol.
func (p Pricing) Format(cost int) string {
	return fmt.Sprintf("%s%d", p.Currency, cost)
}

// FormatEstimate combines Estimate and Format.
func (p Pricing) FormatEstimate(distanceMeters float64) string {
	return p.Format(p.Estimate(distanceMeters))
}

// orDefault fills in zero-value pricing fields.
func (p Pricing) orDefault() Pricing {
	if p.BaseFare == 0 && p.PerKm == 0 {
		p.BaseFare = DefaultPricing.BaseFare
		p.PerKm = DefaultPricing.PerKm
	}
	if p.Currency == "" {
		p.Currency = DefaultPricing.Currency
	}
	return p
}
