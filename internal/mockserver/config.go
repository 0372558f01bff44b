package mockserver

import (
	"fmt"
	"time"

	"github.com/kbukum/chatstream/auth"
	"github.com/kbukum/chatstream/server"
)

// Config configures the mock backend.
type Config struct {
	Server server.Config    `yaml:"server" mapstructure:"server"`
	Token  auth.TokenConfig `yaml:"token" mapstructure:"token"`

	// ChunkBytes is the write size of streamed runs. 0 writes each object
	// whole.
	ChunkBytes int `yaml:"chunk_bytes" mapstructure:"chunk_bytes"`
	// ChunkDelay is the pause between streamed writes.
	ChunkDelay time.Duration `yaml:"chunk_delay" mapstructure:"chunk_delay"`

	// BcryptCost is the cost used to hash seeded passwords.
	BcryptCost int `yaml:"bcrypt_cost" mapstructure:"bcrypt_cost"`
	// SeedUsers adds the default playground users.
	SeedUsers bool `yaml:"seed_users" mapstructure:"seed_users"`
}

// ApplyDefaults fills in zero-value fields.
func (c *Config) ApplyDefaults() {
	c.Server.ApplyDefaults()
	if c.Token.Secret == "" {
		c.Token.Secret = "chatstream-mock-secret"
	}
	c.Token.ApplyDefaults()
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return err
	}
	if err := c.Token.Validate(); err != nil {
		return err
	}
	if c.ChunkBytes < 0 {
		return fmt.Errorf("mockserver: chunk_bytes must be non-negative (got: %d)", c.ChunkBytes)
	}
	if c.ChunkDelay < 0 {
		return fmt.Errorf("mockserver: chunk_delay must be non-negative (got: %s)", c.ChunkDelay)
	}
	return nil
}
