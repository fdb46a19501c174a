package bpstrong

import "go.opentelemetry.io/otel/trace"

type Option func(*Selector) error

func WithLogger(logger Logger) Option {
	return func(s *Selector) error {
		s.logger = logger

		return nil
	}
}

// WithConfig replaces the default parameters. The configuration is
// validated before use.
func WithConfig(cfg Config) Option {
	return func(s *Selector) error {
		if err := cfg.Validate(); err != nil {
			return err
		}
		s.cfg = cfg

		return nil
	}
}

// WithTracerProvider sets the provider of the selector's tracer instead of
// the global one.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *Selector) error {
		s.tracer = tp.Tracer(tracerName)

		return nil
	}
}
