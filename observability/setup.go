package observability

import (
	"context"
	"errors"
)

// Setup installs tracing and metrics when cfg.Enabled is set. The returned
// function flushes and shuts both providers down; it is never nil.
func Setup(ctx context.Context, cfg Config, service, version string) (func(context.Context) error, error) {
	noop := func(context.Context) error { return nil }
	if !cfg.Enabled {
		return noop, nil
	}
	cfg.ApplyDefaults()

	tp, err := InitTracer(ctx, cfg, service, version)
	if err != nil {
		return noop, err
	}
	mp, err := InitMeter(ctx, cfg, service, version)
	if err != nil {
		_ = tp.Shutdown(ctx)
		return noop, err
	}
	return func(ctx context.Context) error {
		return errors.Join(tp.Shutdown(ctx), mp.Shutdown(ctx))
	}, nil
}
