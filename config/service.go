package config

import (
	"fmt"
	"slices"

	"github.com/kbukum/chatstream/logger"
)

// ServiceConfig holds the fields every chatstream binary needs. Binaries
// embed it in their own config struct:
//
//	type AppConfig struct {
//	    config.ServiceConfig `yaml:",inline" mapstructure:",squash"`
//	    Playground playground.Config `yaml:"playground" mapstructure:"playground"`
//	}
type ServiceConfig struct {
	Name        string        `yaml:"name" mapstructure:"name"`
	Environment string        `yaml:"environment" mapstructure:"environment"`
	Debug       bool          `yaml:"debug" mapstructure:"debug"`
	Logging     logger.Config `yaml:"logging" mapstructure:"logging"`
}

// ApplyDefaults applies default values. Embedding structs call it first
// from their own ApplyDefaults.
func (c *ServiceConfig) ApplyDefaults() {
	if c.Name == "" {
		c.Name = "chatstream"
	}
	if c.Environment == "" {
		c.Environment = "development"
	}
	if c.Debug && c.Logging.Level == "" {
		c.Logging.Level = "debug"
	}
	c.Logging.ApplyDefaults()
}

// Validate validates the base fields.
func (c *ServiceConfig) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("config.name is required")
	}
	validEnvs := []string{"development", "staging", "production"}
	if !slices.Contains(validEnvs, c.Environment) {
		return fmt.Errorf("config.environment must be one of %v (got: %s)", validEnvs, c.Environment)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("config.logging: %w", err)
	}
	return nil
}
