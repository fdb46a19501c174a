package lpsolve

type Option func(*Solver) error

// WithLogger redirects lp_solve's messages to logger.
func WithLogger(logger Logger) Option {
	return func(s *Solver) error {
		s.logger = logger

		return nil
	}
}
