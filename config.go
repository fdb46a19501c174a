/*
Copyright © 2015-2022 Leo Antunes <leo@costela.net>

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with this program.  If not, see <http://www.gnu.org/licenses/>.
*/

package bpstrong

import (
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// HeuristicConfig selects the phase 0 heuristic. Pseudocosts take
// precedence over fractionality; with neither every candidate scores 1.
type HeuristicConfig struct {
	UsePseudocosts bool `yaml:"use_pseudocosts"`
	MostFractional bool `yaml:"most_fractional"`
}

// Config holds the strong branching parameters.
type Config struct {
	// Original configures the heuristic of original variable branching.
	Original HeuristicConfig `yaml:"original"`

	// RyanFoster configures the heuristic of Ryan-Foster pair branching.
	RyanFoster HeuristicConfig `yaml:"ryan_foster"`

	// StrongLite skips the probing of phase 1; its best input candidate
	// goes straight to phase 2.
	StrongLite bool `yaml:"strong_lite"`

	// ImmediateInfeasibility accepts a candidate with one infeasible child
	// as soon as it is found in phase 2.
	ImmediateInfeasibility bool `yaml:"immediate_infeasibility"`

	// ReevalAge is the number of tree edges over which a cached score
	// stays usable.
	ReevalAge int `yaml:"reeval_age"`

	// MinColGenCands is the minimum number of candidates for phase 1 to run.
	MinColGenCands int `yaml:"min_colgen_cands"`

	MinPhase0OutCands     int     `yaml:"min_phase0_out_cands"`
	MaxPhase0OutCands     int     `yaml:"max_phase0_out_cands"`
	MaxPhase0OutCandsFrac float64 `yaml:"max_phase0_out_cands_frac"`
	Phase1GapWeight       float64 `yaml:"phase1_gap_weight"`

	MinPhase1OutCands     int     `yaml:"min_phase1_out_cands"`
	MaxPhase1OutCands     int     `yaml:"max_phase1_out_cands"`
	MaxPhase1OutCandsFrac float64 `yaml:"max_phase1_out_cands_frac"`
	Phase2GapWeight       float64 `yaml:"phase2_gap_weight"`

	// HistWeight is the share of phase 0 slots given to candidates with a
	// historical strong branching score.
	HistWeight float64 `yaml:"hist_weight"`

	// MaxPricingRounds limits pricing in phase 2; -1 means no limit.
	MaxPricingRounds int `yaml:"max_pricing_rounds"`

	// ScoreFunction combines the two gains: "product" or "sum".
	ScoreFunction string `yaml:"score_function"`
	// ScoreFactor weighs the larger gain of the "sum" function.
	ScoreFactor float64 `yaml:"score_factor"`
}

const (
	ScoreProduct = "product"
	ScoreSum     = "sum"
)

// DefaultConfig returns the default parameters.
func DefaultConfig() Config {
	return Config{
		Original:               HeuristicConfig{UsePseudocosts: true},
		RyanFoster:             HeuristicConfig{UsePseudocosts: true},
		ImmediateInfeasibility: true,
		ReevalAge:              1,
		MinColGenCands:         4,
		MinPhase0OutCands:      10,
		MaxPhase0OutCands:      50,
		MaxPhase0OutCandsFrac:  0.7,
		Phase1GapWeight:        0.25,
		MinPhase1OutCands:      3,
		MaxPhase1OutCands:      20,
		MaxPhase1OutCandsFrac:  0.7,
		Phase2GapWeight:        1,
		HistWeight:             0.5,
		MaxPricingRounds:       -1,
		ScoreFunction:          ScoreProduct,
		ScoreFactor:            0.167,
	}
}

// LoadConfig reads a YAML configuration. Omitted keys keep their default
// values; unknown keys are rejected.
func LoadConfig(r io.Reader) (Config, error) {
	cfg := DefaultConfig()

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("decoding configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks the parameter ranges.
func (c Config) Validate() error {
	var errs []error

	checkInt := func(name string, v, lo, hi int) {
		if v < lo || v > hi {
			errs = append(errs, fmt.Errorf("%s must be in [%d,%d], got %d", name, lo, hi, v))
		}
	}
	checkFrac := func(name string, v float64) {
		if !(v >= 0 && v <= 1) {
			errs = append(errs, fmt.Errorf("%s must be in [0,1], got %g", name, v))
		}
	}

	checkInt("reeval_age", c.ReevalAge, 0, 100)
	checkInt("min_colgen_cands", c.MinColGenCands, 0, 100000)
	checkInt("min_phase0_out_cands", c.MinPhase0OutCands, 1, 100000)
	checkInt("max_phase0_out_cands", c.MaxPhase0OutCands, 1, 100000)
	checkInt("min_phase1_out_cands", c.MinPhase1OutCands, 1, 100000)
	checkInt("max_phase1_out_cands", c.MaxPhase1OutCands, 1, 100000)
	checkFrac("max_phase0_out_cands_frac", c.MaxPhase0OutCandsFrac)
	checkFrac("max_phase1_out_cands_frac", c.MaxPhase1OutCandsFrac)
	checkFrac("phase1_gap_weight", c.Phase1GapWeight)
	checkFrac("phase2_gap_weight", c.Phase2GapWeight)
	checkFrac("hist_weight", c.HistWeight)
	checkFrac("score_factor", c.ScoreFactor)

	if c.MinPhase0OutCands > c.MaxPhase0OutCands {
		errs = append(errs, fmt.Errorf("min_phase0_out_cands (%d) exceeds max_phase0_out_cands (%d)", c.MinPhase0OutCands, c.MaxPhase0OutCands))
	}
	if c.MinPhase1OutCands > c.MaxPhase1OutCands {
		errs = append(errs, fmt.Errorf("min_phase1_out_cands (%d) exceeds max_phase1_out_cands (%d)", c.MinPhase1OutCands, c.MaxPhase1OutCands))
	}
	if c.MaxPricingRounds < -1 {
		errs = append(errs, fmt.Errorf("max_pricing_rounds must be -1 or non-negative, got %d", c.MaxPricingRounds))
	}
	if c.ScoreFunction != ScoreProduct && c.ScoreFunction != ScoreSum {
		errs = append(errs, fmt.Errorf("unknown score_function %q", c.ScoreFunction))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

func (c Config) phase0() phaseParams {
	return phaseParams{c.MinPhase0OutCands, c.MaxPhase0OutCands, c.MaxPhase0OutCandsFrac, c.Phase1GapWeight}
}

func (c Config) phase1() phaseParams {
	return phaseParams{c.MinPhase1OutCands, c.MaxPhase1OutCands, c.MaxPhase1OutCandsFrac, c.Phase2GapWeight}
}

func (c Config) heuristic(rule Rule) HeuristicConfig {
	if rule == RuleRyanFoster {
		return c.RyanFoster
	}
	return c.Original
}

func (c Config) branchScore() BranchScoreFunc {
	if c.ScoreFunction == ScoreSum {
		return WeightedSumScore(c.ScoreFactor)
	}
	return ProductScore
}
