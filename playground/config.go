package playground

import (
	"time"

	"github.com/kbukum/chatstream/validation"
)

// Config configures a Client.
type Config struct {
	BaseURL string        `yaml:"base_url" mapstructure:"base_url" validate:"required,url"`
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
	// Token is a bearer token from an earlier login.
	Token string `yaml:"token" mapstructure:"token"`
	// AgentID is the default agent for StreamRun.
	AgentID string            `yaml:"agent_id" mapstructure:"agent_id"`
	Headers map[string]string `yaml:"headers" mapstructure:"headers"`
}

// ApplyDefaults fills in zero-value fields.
func (c *Config) ApplyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = "http://localhost:8000"
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	return validation.Validate(c)
}
