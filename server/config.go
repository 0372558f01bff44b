package server

import (
	"fmt"

	"github.com/kbukum/chatstream/server/middleware"
)

// Config holds HTTP server configuration.
type Config struct {
	Host         string                `yaml:"host" mapstructure:"host"`
	Port         int                   `yaml:"port" mapstructure:"port"`
	ReadTimeout  int                   `yaml:"read_timeout" mapstructure:"read_timeout"`   // seconds
	WriteTimeout int                   `yaml:"write_timeout" mapstructure:"write_timeout"` // seconds, 0 disables
	IdleTimeout  int                   `yaml:"idle_timeout" mapstructure:"idle_timeout"`   // seconds
	MaxBodyBytes int64                 `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	CORS         middleware.CORSConfig `yaml:"cors" mapstructure:"cors"`
}

// ApplyDefaults sets default values for unset fields. Streaming responses
// can outlive any fixed write deadline, so WriteTimeout stays 0.
func (c *Config) ApplyDefaults() {
	if c.Host == "" {
		c.Host = "127.0.0.1"
	}
	if c.Port == 0 {
		c.Port = 8000
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 15
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = 60
	}
	if c.MaxBodyBytes == 0 {
		c.MaxBodyBytes = 10 << 20
	}
	if len(c.CORS.AllowedOrigins) == 0 {
		c.CORS.AllowedOrigins = []string{"http://localhost:3000"}
	}
	if len(c.CORS.AllowedMethods) == 0 {
		c.CORS.AllowedMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	}
	if len(c.CORS.AllowedHeaders) == 0 {
		c.CORS.AllowedHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.HeaderRequestID}
	}
	if len(c.CORS.ExposedHeaders) == 0 {
		c.CORS.ExposedHeaders = []string{middleware.HeaderRequestID}
	}
	if c.CORS.MaxAge == 0 {
		c.CORS.MaxAge = 600
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("server.port must be between 0 and 65535 (got: %d)", c.Port)
	}
	if c.ReadTimeout < 0 {
		return fmt.Errorf("server.read_timeout must be non-negative (got: %d)", c.ReadTimeout)
	}
	if c.WriteTimeout < 0 {
		return fmt.Errorf("server.write_timeout must be non-negative (got: %d)", c.WriteTimeout)
	}
	if c.IdleTimeout < 0 {
		return fmt.Errorf("server.idle_timeout must be non-negative (got: %d)", c.IdleTimeout)
	}
	if c.MaxBodyBytes < 0 {
		return fmt.Errorf("server.max_body_bytes must be non-negative (got: %d)", c.MaxBodyBytes)
	}
	return nil
}
