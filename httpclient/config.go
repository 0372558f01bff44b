package httpclient

import (
	"fmt"
	"net/url"
	"time"

	"github.com/kbukum/chatstream/resilience"
)

const (
	defaultTimeout = 30 * time.Second

	// maxErrorBody bounds how much of a failure response is kept.
	maxErrorBody = 64 << 10
)

// Config configures the HTTP client.
type Config struct {
	// BaseURL is prepended to relative request paths.
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`

	// Timeout bounds non-streaming requests. Streaming requests are bounded
	// by their context only.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`

	// Headers are sent with every request. Request headers override them.
	Headers map[string]string `yaml:"headers" mapstructure:"headers"`

	TLS *TLSConfig `yaml:"tls" mapstructure:"tls"`

	// Auth is applied to every request that does not set its own.
	Auth *AuthConfig `yaml:"-" mapstructure:"-"`

	// Retry enables retries for Do. Nil disables them.
	Retry *resilience.RetryConfig `yaml:"-" mapstructure:"-"`
}

// ApplyDefaults fills in zero-value fields.
func (c *Config) ApplyDefaults() {
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("httpclient: timeout must be positive")
	}
	if c.BaseURL != "" {
		u, err := url.Parse(c.BaseURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("httpclient: invalid base_url %q", c.BaseURL)
		}
	}
	return c.TLS.Validate()
}

// DefaultRetryConfig returns a retry config that only retries errors
// classified as retryable.
func DefaultRetryConfig() *resilience.RetryConfig {
	cfg := resilience.DefaultRetryConfig()
	cfg.RetryIf = IsRetryable
	return &cfg
}
