// Package config loads runtime configuration from defaults, an
// optional geoscout.yaml, and GEOSCOUT_* environment variables.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	// UserAgent overrides the default upstream User-Agent when set.
	UserAgent string `mapstructure:"user_agent"`

	// Locale selects the instruction and label language ("en", "th").
	Locale string `mapstructure:"locale"`

	Endpoints EndpointsConfig `mapstructure:"endpoints"`
	Rate      RateConfig      `mapstructure:"rate"`
	POI       POIConfig       `mapstructure:"poi"`
	Pricing   PricingConfig   `mapstructure:"pricing"`
	Analyzer  BackendConfig   `mapstructure:"analyzer"`
	Planner   BackendConfig   `mapstructure:"planner"`
	Anthropic AnthropicConfig `mapstructure:"anthropic"`
}

// EndpointsConfig overrides upstream base URLs. Empty fields keep the
// public instances.
type EndpointsConfig struct {
	Nominatim string `mapstructure:"nominatim"`
	Photon    string `mapstructure:"photon"`
	ArcGIS    string `mapstructure:"arcgis"`
	Overpass  string `mapstructure:"overpass"`
	OSRM      string `mapstructure:"osrm"`
}

// ServiceRate is a token-bucket configuration for one upstream service.
type ServiceRate struct {
	RPS   float64 `mapstructure:"rps"`
	Burst int     `mapstructure:"burst"`
}

type RateConfig struct {
	Nominatim ServiceRate `mapstructure:"nominatim"`
	Photon    ServiceRate `mapstructure:"photon"`
	ArcGIS    ServiceRate `mapstructure:"arcgis"`
	Overpass  ServiceRate `mapstructure:"overpass"`
	OSRM      ServiceRate `mapstructure:"osrm"`
}

type POIConfig struct {
	// DefaultPopularity is assigned when no external popularity signal
	// exists. Must lie in [0, 1].
	DefaultPopularity float64 `mapstructure:"default_popularity"`

	// MaxPerCategory caps each category sequence.
	MaxPerCategory int `mapstructure:"max_per_category"`
}

// PricingConfig parameterizes the trip cost model
// cost = ceil(base_fare + per_km * distance_km).
type PricingConfig struct {
	BaseFare float64 `mapstructure:"base_fare"`
	PerKm    float64 `mapstructure:"per_km"`
	Currency string  `mapstructure:"currency"`
}

type BackendConfig struct {
	Backend string `mapstructure:"backend"`
}

type AnthropicConfig struct {
	APIKey    string `mapstructure:"api_key"`
	Model     string `mapstructure:"model"`
	MaxTokens int    `mapstructure:"max_tokens"`
}

// Load reads configuration from defaults, an optional geoscout.yaml,
// and environment variables.
func Load() (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("user_agent", "")
	v.SetDefault("locale", "en")
	v.SetDefault("endpoints.nominatim", "")
	v.SetDefault("endpoints.photon", "")
	v.SetDefault("endpoints.arcgis", "")
	v.SetDefault("endpoints.overpass", "")
	v.SetDefault("endpoints.osrm", "")
	for _, service := range []string{"nominatim", "photon", "arcgis", "overpass", "osrm"} {
		v.SetDefault("rate."+service+".rps", 1.0)
		v.SetDefault("rate."+service+".burst", 1)
	}
	v.SetDefault("poi.default_popularity", 0.5)
	v.SetDefault("poi.max_per_category", 10)
	v.SetDefault("pricing.base_fare", 35.0)
	v.SetDefault("pricing.per_km", 6.0)
	v.SetDefault("pricing.currency", "฿")
	v.SetDefault("analyzer.backend", "overpass")
	v.SetDefault("planner.backend", "osrm")
	v.SetDefault("anthropic.api_key", "")
	v.SetDefault("anthropic.model", "claude-sonnet-4-20250514")
	v.SetDefault("anthropic.max_tokens", 2048)

	// Config file (optional)
	v.SetConfigName("geoscout")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig() // OK if missing

	// Environment variables: GEOSCOUT_PRICING_BASE_FARE → pricing.base_fare
	v.SetEnvPrefix("GEOSCOUT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// The SDK-conventional variable works too.
	_ = v.BindEnv("anthropic.api_key", "GEOSCOUT_ANTHROPIC_API_KEY", "ANTHROPIC_API_KEY")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that configuration fields are present and sane.
func (c *Config) Validate() error {
	var errs []string

	if c.Locale == "" {
		errs = append(errs, "locale is required")
	}
	if c.POI.DefaultPopularity < 0 || c.POI.DefaultPopularity > 1 {
		errs = append(errs, fmt.Sprintf("poi.default_popularity must be in [0,1], got %g", c.POI.DefaultPopularity))
	}
	if c.POI.MaxPerCategory < 1 {
		errs = append(errs, fmt.Sprintf("poi.max_per_category must be positive, got %d", c.POI.MaxPerCategory))
	}
	if c.Pricing.BaseFare < 0 {
		errs = append(errs, fmt.Sprintf("pricing.base_fare must not be negative, got %g", c.Pricing.BaseFare))
	}
	if c.Pricing.PerKm < 0 {
		errs = append(errs, fmt.Sprintf("pricing.per_km must not be negative, got %g", c.Pricing.PerKm))
	}
	switch c.Analyzer.Backend {
	case "overpass", "generative":
	default:
		errs = append(errs, fmt.Sprintf("analyzer.backend must be overpass or generative, got %q", c.Analyzer.Backend))
	}
	switch c.Planner.Backend {
	case "osrm", "transit":
	default:
		errs = append(errs, fmt.Sprintf("planner.backend must be osrm or transit, got %q", c.Planner.Backend))
	}
	if c.Analyzer.Backend == "generative" || c.Planner.Backend == "transit" {
		if c.Anthropic.APIKey == "" {
			errs = append(errs, "anthropic.api_key is required for generative backends")
		}
	}
	if c.Anthropic.MaxTokens < 1 {
		errs = append(errs, fmt.Sprintf("anthropic.max_tokens must be positive, got %d", c.Anthropic.MaxTokens))
	}
	for _, sr := range []struct {
		service string
		rate    ServiceRate
	}{
		{"nominatim", c.Rate.Nominatim},
		{"photon", c.Rate.Photon},
		{"arcgis", c.Rate.ArcGIS},
		{"overpass", c.Rate.Overpass},
		{"osrm", c.Rate.OSRM},
	} {
		if sr.rate.RPS <= 0 {
			errs = append(errs, fmt.Sprintf("rate.%s.rps must be positive, got %g", sr.service, sr.rate.RPS))
		}
		if sr.rate.Burst < 1 {
			errs = append(errs, fmt.Sprintf("rate.%s.burst must be positive, got %d", sr.service, sr.rate.Burst))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
