package route

import "testing"

func TestPricingEstimate(t *testing.T) {
	p := DefaultPricing

	tests := []struct {
		name           string
		distanceMeters float64
		want           int
	}{
		{"ten kilometers", 10000, 95},
		{"zero distance still charges base fare", 0, 35},
		{"fractional cost rounds up", 4200, 61},
		{"short hop", 500, 38},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.Estimate(tt.distanceMeters); got != tt.want {
				t.Errorf("Estimate(%g) = %d, want %d", tt.distanceMeters, got, tt.want)
			}
		})
	}
}

func TestPricingFormat(t *testing.T) {
	if got := DefaultPricing.Format(95); got != "฿95" {
		t.Errorf("Format(95) = %q, want ฿95", got)
	}
	usd := Pricing{BaseFare: 2, PerKm: 1.5, Currency: "$"}
	if got := usd.FormatEstimate(10000); got != "$17" {
		t.Errorf("FormatEstimate(10000) = %q, want $17", got)
	}
}

func TestPricingOrDefault(t *testing.T) {
	filled := Pricing{}.orDefault()
	if filled != DefaultPricing {
		t.Errorf("zero pricing orDefault() = %+v, want %+v", filled, DefaultPricing)
	}

	custom := Pricing{BaseFare: 40, PerKm: 7, Currency: "฿"}
	if got := custom.orDefault(); got != custom {
		t.Errorf("configured pricing was overwritten: %+v", got)
	}

	// A deliberate flat fare (per-km zero) survives.
	flat := Pricing{BaseFare: 50, Currency: "฿"}.orDefault()
	if flat.BaseFare != 50 || flat.PerKm != 0 {
		t.Errorf("flat fare orDefault() = %+v", flat)
	}
}
