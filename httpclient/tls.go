package httpclient

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
)

// TLSConfig holds client TLS settings.
type TLSConfig struct {
	// SkipVerify disables server certificate verification.
	SkipVerify bool   `yaml:"skip_verify" mapstructure:"skip_verify"`
	CAFile     string `yaml:"ca_file" mapstructure:"ca_file"`
	CertFile   string `yaml:"cert_file" mapstructure:"cert_file"`
	KeyFile    string `yaml:"key_file" mapstructure:"key_file"`
	ServerName string `yaml:"server_name" mapstructure:"server_name"`
}

// Build creates a *tls.Config, or nil when nothing is configured.
func (c *TLSConfig) Build() (*tls.Config, error) {
	if !c.IsEnabled() {
		return nil, nil
	}
	cfg := &tls.Config{
		InsecureSkipVerify: c.SkipVerify, //nolint:gosec // opt-in for local backends
		ServerName:         c.ServerName,
		MinVersion:         tls.VersionTLS12,
	}
	if c.CAFile != "" {
		ca, err := os.ReadFile(c.CAFile)
		if err != nil {
			return nil, fmt.Errorf("httpclient: read CA file: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(ca) {
			return nil, fmt.Errorf("httpclient: no certificates in CA file %s", c.CAFile)
		}
		cfg.RootCAs = pool
	}
	if c.CertFile != "" {
		cert, err := tls.LoadX509KeyPair(c.CertFile, c.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("httpclient: load client certificate: %w", err)
		}
		cfg.Certificates = []tls.Certificate{cert}
	}
	return cfg, nil
}

// Validate checks that the TLS configuration is consistent.
func (c *TLSConfig) Validate() error {
	if c == nil {
		return nil
	}
	if (c.CertFile != "") != (c.KeyFile != "") {
		return fmt.Errorf("httpclient: tls cert_file and key_file must be set together")
	}
	return nil
}

// IsEnabled reports whether any TLS setting is configured.
func (c *TLSConfig) IsEnabled() bool {
	if c == nil {
		return false
	}
	return c.SkipVerify || c.CAFile != "" || c.CertFile != "" || c.ServerName != ""
}
