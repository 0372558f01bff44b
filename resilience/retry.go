package resilience

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// RetryConfig configures retry behavior.
type RetryConfig struct {
	// MaxAttempts counts the first call. Zero means 3.
	MaxAttempts    int           `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoff time.Duration `yaml:"initial_backoff" mapstructure:"initial_backoff"`
	MaxBackoff     time.Duration `yaml:"max_backoff" mapstructure:"max_backoff"`
	BackoffFactor  float64       `yaml:"backoff_factor" mapstructure:"backoff_factor"`
	// Jitter is the randomization factor, 0 to 1.
	Jitter float64 `yaml:"jitter" mapstructure:"jitter"`

	// RetryIf decides whether err is worth another attempt.
	RetryIf func(error) bool `yaml:"-" mapstructure:"-"`
	// OnRetry is called before waiting for the next attempt.
	OnRetry func(attempt int, err error, wait time.Duration) `yaml:"-" mapstructure:"-"`
}

// DefaultRetryConfig returns the defaults used by the playground client.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:    3,
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     5 * time.Second,
		BackoffFactor:  2.0,
		Jitter:         0.1,
		RetryIf:        DefaultRetryIf,
	}
}

// ApplyDefaults fills unset numeric fields.
func (c *RetryConfig) ApplyDefaults() {
	d := DefaultRetryConfig()
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = d.MaxAttempts
	}
	if c.InitialBackoff <= 0 {
		c.InitialBackoff = d.InitialBackoff
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = d.MaxBackoff
	}
	if c.BackoffFactor <= 0 {
		c.BackoffFactor = d.BackoffFactor
	}
	if c.RetryIf == nil {
		c.RetryIf = DefaultRetryIf
	}
}

// DefaultRetryIf retries everything except context errors.
func DefaultRetryIf(err error) bool {
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

// Retry calls fn until it succeeds, RetryIf rejects its error, attempts run
// out or ctx is done. It returns the last error.
func Retry[T any](ctx context.Context, cfg RetryConfig, fn func() (T, error)) (T, error) {
	cfg.ApplyDefaults()

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = cfg.InitialBackoff
	b.MaxInterval = cfg.MaxBackoff
	b.Multiplier = cfg.BackoffFactor
	b.RandomizationFactor = cfg.Jitter

	attempt := 0
	op := func() (T, error) {
		attempt++
		result, err := fn()
		if err != nil && !cfg.RetryIf(err) {
			return result, backoff.Permanent(err)
		}
		return result, err
	}

	opts := []backoff.RetryOption{
		backoff.WithBackOff(b),
		backoff.WithMaxTries(uint(cfg.MaxAttempts)),
	}
	if cfg.OnRetry != nil {
		opts = append(opts, backoff.WithNotify(func(err error, wait time.Duration) {
			cfg.OnRetry(attempt, err, wait)
		}))
	}
	return backoff.Retry(ctx, op, opts...)
}

// RetryFunc is Retry for functions that return only an error.
func RetryFunc(ctx context.Context, cfg RetryConfig, fn func() error) error {
	_, err := Retry(ctx, cfg, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}
