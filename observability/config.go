package observability

import (
	"fmt"
	"time"
)

// Config configures telemetry export.
type Config struct {
	Enabled    bool          `yaml:"enabled" mapstructure:"enabled"`
	Endpoint   string        `yaml:"endpoint" mapstructure:"endpoint"`
	Insecure   bool          `yaml:"insecure" mapstructure:"insecure"`
	SampleRate float64       `yaml:"sample_rate" mapstructure:"sample_rate"`
	Interval   time.Duration `yaml:"interval" mapstructure:"interval"`
}

// ApplyDefaults fills unset fields with development defaults.
func (c *Config) ApplyDefaults() {
	if c.Endpoint == "" {
		c.Endpoint = "localhost:4318"
		c.Insecure = true
	}
	if c.SampleRate == 0 {
		c.SampleRate = 1.0
	}
	if c.Interval == 0 {
		c.Interval = 15 * time.Second
	}
}

// Validate validates telemetry configuration.
func (c *Config) Validate() error {
	if c.SampleRate < 0 || c.SampleRate > 1 {
		return fmt.Errorf("telemetry.sample_rate must be between 0 and 1 (got: %v)", c.SampleRate)
	}
	if c.Enabled && c.Endpoint == "" {
		return fmt.Errorf("telemetry.endpoint is required when telemetry is enabled")
	}
	return nil
}
