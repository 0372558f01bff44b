package main

import (
	"fmt"

	"github.com/kbukum/chatstream/config"
	"github.com/kbukum/chatstream/internal/mockserver"
	"github.com/kbukum/chatstream/observability"
	"github.com/kbukum/chatstream/playground"
	"github.com/kbukum/chatstream/stream"
	"github.com/kbukum/chatstream/validation"
)

const serviceName = "chatstream"

// AppConfig is the CLI configuration, read from config.yml, .env and
// CHATSTREAM_* variables.
type AppConfig struct {
	config.ServiceConfig `mapstructure:",squash"`

	Playground playground.Config    `yaml:"playground" mapstructure:"playground"`
	Stream     stream.Config        `yaml:"stream" mapstructure:"stream"`
	Telemetry  observability.Config `yaml:"telemetry" mapstructure:"telemetry"`
	Mock       mockserver.Config    `yaml:"mock" mapstructure:"mock"`
}

// ApplyDefaults fills in zero-value fields.
func (c *AppConfig) ApplyDefaults() {
	c.ServiceConfig.ApplyDefaults()
	c.Playground.ApplyDefaults()
	c.Telemetry.ApplyDefaults()
	c.Mock.ApplyDefaults()
}

// Validate checks every section.
func (c *AppConfig) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	if err := validation.Validate(c); err != nil {
		return err
	}
	if _, err := c.Stream.Options(); err != nil {
		return fmt.Errorf("config.stream: %w", err)
	}
	if err := c.Telemetry.Validate(); err != nil {
		return fmt.Errorf("config.telemetry: %w", err)
	}
	if err := c.Mock.Validate(); err != nil {
		return fmt.Errorf("config.mock: %w", err)
	}
	return nil
}

func loadConfig(file string) (*AppConfig, error) {
	var opts []config.LoaderOption
	if file != "" {
		opts = append(opts, config.WithConfigFile(file))
	}
	cfg := &AppConfig{}
	if err := config.LoadConfig(serviceName, cfg, opts...); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	return cfg, nil
}
