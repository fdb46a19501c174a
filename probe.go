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
	"context"
	"errors"
	"fmt"
	"math"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ProbingOutcome is the result of probing both children of a candidate.
// Down refers to the down child of a variable and to the differ child of
// a pair, Up to the up and same children.
type ProbingOutcome struct {
	Down, Up                     float64
	DownValid, UpValid           bool
	DownInfeasible, UpInfeasible bool
	// Error is set when an LP solve failed; no other field may then be
	// relied upon.
	Error bool
}

// bounds returns the dual bounds of both children, substituting the other
// child's bound for an invalid one and lpObj when neither is valid.
func (o ProbingOutcome) bounds(lpObj float64) (down, up float64) {
	switch {
	case o.DownValid && o.UpValid:
		return o.Down, o.Up
	case o.DownValid:
		return o.Down, o.Down
	case o.UpValid:
		return o.Up, o.Up
	default:
		return lpObj, lpObj
	}
}

type direction int

const (
	dirDown direction = iota
	dirUp
)

func (d direction) String() string {
	if d == dirUp {
		return "up"
	}
	return "down"
}

const feasEps = 1e-6

func feasFloor(x float64) float64 { return math.Floor(x + feasEps) }
func feasCeil(x float64) float64  { return math.Ceil(x - feasEps) }

// scope is one open probing node. The master side is only opened by
// mirror; close releases whatever was opened, master first, and may be
// called any number of times.
type scope struct {
	orig     OriginalProblem
	master   MasterProblem
	mirrored bool
	closed   bool
}

func openScope(orig OriginalProblem, master MasterProblem) (*scope, error) {
	if err := orig.OpenProbing(); err != nil {
		return nil, fmt.Errorf("%w: opening original probing: %w", ErrProbingUnbalanced, err)
	}

	sc := &scope{orig: orig, master: master}
	if err := orig.NewProbingNode(); err != nil {
		return nil, errors.Join(fmt.Errorf("%w: creating probing node: %w", ErrProbingUnbalanced, err), sc.close())
	}

	return sc, nil
}

func (sc *scope) mirror() error {
	if err := sc.master.OpenProbing(); err != nil {
		return fmt.Errorf("%w: opening master probing: %w", ErrProbingUnbalanced, err)
	}
	sc.mirrored = true

	return nil
}

func (sc *scope) close() error {
	if sc.closed {
		return nil
	}
	sc.closed = true

	var errs []error
	if sc.mirrored {
		if err := sc.master.CloseProbing(); err != nil {
			errs = append(errs, fmt.Errorf("%w: closing master probing: %w", ErrProbingUnbalanced, err))
		}
	}
	if err := sc.orig.CloseProbing(); err != nil {
		errs = append(errs, fmt.Errorf("%w: closing original probing: %w", ErrProbingUnbalanced, err))
	}

	return errors.Join(errs...)
}

// childResult is the outcome of probing one child.
type childResult struct {
	bound      float64
	valid      bool
	infeasible bool
	lpError    bool
	outcome    string
}

// probe evaluates both children of c. The returned error is only set when
// a probing scope could not be opened or closed.
func (s *Selector) probe(ctx context.Context, c Candidate, usePricing bool) (ProbingOutcome, error) {
	ctx, span := s.tracer.Start(ctx, "bpstrong.probe",
		trace.WithAttributes(
			attribute.String("candidate", c.String()),
			attribute.Bool("pricing", usePricing),
		),
	)
	defer span.End()

	var out ProbingOutcome
	for _, dir := range []direction{dirDown, dirUp} {
		res, err := s.probeChild(ctx, c, dir, usePricing)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "probing scope failure")
			return ProbingOutcome{Error: true}, err
		}
		recordProbe(dir, usePricing, res.outcome)

		if res.lpError {
			span.SetStatus(codes.Error, "LP failure")
			return ProbingOutcome{Error: true}, nil
		}

		if dir == dirDown {
			out.Down, out.DownValid, out.DownInfeasible = res.bound, res.valid, res.infeasible
		} else {
			out.Up, out.UpValid, out.UpInfeasible = res.bound, res.valid, res.infeasible
		}
	}

	span.SetAttributes(
		attribute.Float64("down", out.Down),
		attribute.Float64("up", out.Up),
		attribute.Bool("down_infeasible", out.DownInfeasible),
		attribute.Bool("up_infeasible", out.UpInfeasible),
	)

	return out, nil
}

func (s *Selector) probeChild(ctx context.Context, c Candidate, dir direction, usePricing bool) (res childResult, err error) {
	sc, err := openScope(s.env.Original, s.env.Master)
	if err != nil {
		return res, err
	}
	defer func() {
		if cerr := sc.close(); cerr != nil {
			err = errors.Join(err, cerr)
		}
	}()

	if err := s.applyChild(c, dir); err != nil {
		s.logger.Print(fmt.Sprintf("bpstrong: applying %s child of %s: %v", dir, c, err))
		return childResult{lpError: true, outcome: "error"}, nil
	}

	cutoff, perr := s.env.Original.Propagate()
	if perr != nil {
		s.logger.Print(fmt.Sprintf("bpstrong: propagating %s child of %s: %v", dir, c, perr))
		return childResult{lpError: true, outcome: "error"}, nil
	}
	if cutoff {
		return childResult{infeasible: usePricing, outcome: "cutoff"}, nil
	}

	if err := sc.mirror(); err != nil {
		return res, err
	}

	rel, serr := s.env.Master.SolveRelaxation(ctx, usePricing, s.cfg.MaxPricingRounds)
	if serr != nil || rel.Error {
		if serr != nil {
			s.logger.Print(fmt.Sprintf("bpstrong: solving %s child of %s: %v", dir, c, serr))
		}
		return childResult{lpError: true, outcome: "error"}, nil
	}

	res = childResult{
		bound:      rel.Objective,
		valid:      rel.Solved,
		infeasible: rel.Cutoff && usePricing,
	}
	switch {
	case res.infeasible:
		res.outcome = "infeasible"
	case res.valid:
		res.outcome = "valid"
	default:
		res.outcome = "unsolved"
	}

	return res, nil
}

// applyChild applies the branching change of one child inside the open
// probing node.
func (s *Selector) applyChild(c Candidate, dir direction) error {
	if c.IsPair() {
		sense := Differ
		if dir == dirUp {
			sense = Same
		}
		return s.env.Original.AddCouplingConstraint(c.Var1, c.Var2, sense)
	}

	if dir == dirDown {
		return s.env.Original.TightenBound(c.Var1, UpperBound, feasFloor(c.Sol1))
	}
	return s.env.Original.TightenBound(c.Var1, LowerBound, feasCeil(c.Sol1))
}
