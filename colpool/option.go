package colpool

import (
	"fmt"

	"github.com/costela/bpstrong"
	"github.com/costela/bpstrong/relax"
)

type Option func(*Solver) error

// WithBackend sets the LP solver of the master problem.
func WithBackend(b relax.Backend) Option {
	return func(s *Solver) error {
		if b == nil {
			return fmt.Errorf("colpool: nil backend")
		}
		s.backend = b
		return nil
	}
}

func WithConfig(cfg bpstrong.Config) Option {
	return func(s *Solver) error {
		s.cfg = cfg
		return nil
	}
}

// WithRule selects original or Ryan-Foster branching.
func WithRule(r bpstrong.Rule) Option {
	return func(s *Solver) error {
		s.rule = r
		return nil
	}
}

func WithLogger(l bpstrong.Logger) Option {
	return func(s *Solver) error {
		s.logger = l
		return nil
	}
}

// WithNodeLimit stops the search after n nodes; zero means no limit.
func WithNodeLimit(n int) Option {
	return func(s *Solver) error {
		s.nodeLimit = n
		return nil
	}
}

// WithSelectorOptions passes further options to the selector, applied
// after the configuration and the logger.
func WithSelectorOptions(opts ...bpstrong.Option) Option {
	return func(s *Solver) error {
		s.selOpts = append(s.selOpts, opts...)
		return nil
	}
}
