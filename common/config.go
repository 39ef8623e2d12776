package common

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// AnalyticsConfigPrefix environment variables are read as MOOD_ANALYTICS_<NAME>
const AnalyticsConfigPrefix = "MOOD_ANALYTICS"

// AnalyticsConfig settings of the analytics computations and of the export storage
type AnalyticsConfig struct {
	// Timezone reference timezone for calendar days (IANA name)
	Timezone        string        `envconfig:"TIMEZONE" default:"UTC"`
	FetchTimeout    time.Duration `envconfig:"FETCH_TIMEOUT" default:"10s"`
	DashboardDays   int           `envconfig:"DASHBOARD_DAYS" default:"365"`
	CorrelationDays int           `envconfig:"CORRELATION_DAYS" default:"90"`
	// ExportBucket empty disables the asynchronous S3 export
	ExportBucket  string `envconfig:"EXPORT_BUCKET"`
	AWSRegion     string `envconfig:"AWS_REGION" default:"eu-west-1"`
	S3EndpointURL string `envconfig:"S3_ENDPOINT_URL"`
	APISecret     string `envconfig:"API_SECRET" required:"true"`

	location *time.Location
}

// LoadAnalyticsConfig reads and validates the configuration from the environment
func LoadAnalyticsConfig() (*AnalyticsConfig, error) {
	var cfg AnalyticsConfig
	if err := envconfig.Process(AnalyticsConfigPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the values and resolves the timezone
func (c *AnalyticsConfig) Validate() error {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return fmt.Errorf("invalid %s_TIMEZONE %q: %w", AnalyticsConfigPrefix, c.Timezone, err)
	}
	if c.FetchTimeout <= 0 {
		return fmt.Errorf("invalid %s_FETCH_TIMEOUT %v: must be positive", AnalyticsConfigPrefix, c.FetchTimeout)
	}
	if c.DashboardDays <= 0 || c.CorrelationDays <= 0 {
		return fmt.Errorf("invalid day windows dashboard=%d correlation=%d: must be positive", c.DashboardDays, c.CorrelationDays)
	}
	c.location = loc
	return nil
}

// Location reference timezone, UTC until Validate succeeded
func (c *AnalyticsConfig) Location() *time.Location {
	if c == nil || c.location == nil {
		return time.UTC
	}
	return c.location
}
