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
	"fmt"
	"math"
	"sort"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/costela/bpstrong"

/* Types */

// Selector chooses branching candidates by strong branching. It keeps the
// candidate registry across calls and is meant to live for a whole solve.
// A Selector is not safe for concurrent use.
type Selector struct {
	env         Environment
	cfg         Config
	reg         *Registry
	logger      Logger
	tracer      trace.Tracer
	branchScore BranchScoreFunc

	// scan position of the next phase 2 evaluation
	lastCand int
}

// NewSelector returns a Selector driving the given collaborators.
func NewSelector(env Environment, opts ...Option) (*Selector, error) {
	s := &Selector{
		env:    env,
		cfg:    DefaultConfig(),
		reg:    NewRegistry(),
		logger: noopLogger{},
		tracer: otel.Tracer(tracerName),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, fmt.Errorf("applying selector option: %w", err)
		}
	}

	switch {
	case env.Tree == nil:
		return nil, fmt.Errorf("%w: missing tree", ErrNoEnvironment)
	case env.Original == nil:
		return nil, fmt.Errorf("%w: missing original problem", ErrNoEnvironment)
	case env.Master == nil:
		return nil, fmt.Errorf("%w: missing master problem", ErrNoEnvironment)
	case env.Heuristics == nil && (s.cfg.Original.UsePseudocosts || s.cfg.RyanFoster.UsePseudocosts):
		return nil, fmt.Errorf("%w: pseudocosts configured without heuristics", ErrNoEnvironment)
	}

	s.branchScore = s.cfg.branchScore()

	return s, nil
}

// Registry returns the candidate registry.
func (s *Selector) Registry() *Registry {
	return s.reg
}

// Config returns the parameters in use.
func (s *Selector) Config() Config {
	return s.cfg
}

// ranked is a candidate with its score of the current phase. pos is its
// position in the phase's input, used to break ties.
type ranked struct {
	evalCand
	scored
	pos int
}

func sortRanked(rs []ranked) {
	sort.SliceStable(rs, func(i, j int) bool {
		if rs[i].score != rs[j].score {
			return rs[i].score > rs[j].score
		}
		return rs[i].pos < rs[j].pos
	})
}

func candidatesOf(rs []ranked) []evalCand {
	out := make([]evalCand, len(rs))
	for i, r := range rs {
		out[i] = r.evalCand
	}
	return out
}

// scan scores cands in round-robin order starting at start. It stops after
// an LP error, which is not part of the result, or when stop returns true
// for a scored candidate. last is the position scanned last.
func scan(ctx context.Context, cands []evalCand, start int, score scoreFunc, stop func(ranked) bool) (rs []ranked, last int, lpFailed bool, err error) {
	n := len(cands)
	last = -1
	for i := 0; i < n; i++ {
		c := (start + i) % n
		last = c

		res, err := score(ctx, cands[c])
		if err != nil {
			return rs, last, false, err
		}
		if res.lpError {
			return rs, last, true, nil
		}

		r := ranked{evalCand: cands[c], scored: res, pos: c}
		rs = append(rs, r)
		if stop != nil && stop(r) {
			break
		}
	}
	return rs, last, false, nil
}

// Select picks the candidate to branch on at the current node.
//
// The returned error is only set for a misconfigured call or a broken
// probing contract; LP failures are reported through Decision.Err.
func (s *Selector) Select(ctx context.Context, rule Rule, cands []Candidate) (dec Decision, err error) {
	ctx, span := s.tracer.Start(ctx, "bpstrong.Selector.Select",
		trace.WithAttributes(
			attribute.String("rule", rule.String()),
			attribute.Int("candidates", len(cands)),
			attribute.Int64("node", s.env.Tree.CurrentNode()),
		),
	)
	defer span.End()

	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "selection failed")
			return
		}
		recordDecision(dec.Result)
		span.SetAttributes(
			attribute.String("result", dec.Result.String()),
			attribute.Int("phase0_survivors", dec.Survivors[0]),
			attribute.Int("phase1_survivors", dec.Survivors[1]),
		)
		if dec.Result == ResultBranched {
			span.SetAttributes(attribute.String("candidate", dec.Candidate.String()))
		}
		if dec.Err != nil {
			span.RecordError(dec.Err)
			span.SetStatus(codes.Error, "funnel cut short")
		}
	}()

	switch rule {
	case RuleOriginal:
		if s.env.Decomposition == nil {
			return Decision{}, fmt.Errorf("%w: original branching needs a decomposition", ErrNoEnvironment)
		}
	case RuleRyanFoster:
	default:
		return Decision{}, fmt.Errorf("%w: %d", ErrUnknownRule, int(rule))
	}

	for i, c := range cands {
		if c.Var1 == nil || (rule == RuleOriginal && c.Var2 != nil) || (rule == RuleRyanFoster && c.Var2 == nil) {
			return Decision{}, fmt.Errorf("candidate %d does not fit rule %s", i, rule)
		}
	}

	/* Init */

	ids := s.reg.Ensure(cands)
	tree := s.env.Tree
	gap := NodeGap(tree.NodeLowerBound(), tree.UpperBound())

	var working []evalCand
	if rule == RuleOriginal {
		working = s.classify(cands, ids)
	} else {
		working = make([]evalCand, len(cands))
		for i, c := range cands {
			working[i] = evalCand{Candidate: c, id: ids[i]}
		}
	}
	if len(working) == 0 {
		s.logger.Print("bpstrong: no candidate to branch on")
		return Decision{Result: ResultNoCandidate}, nil
	}

	/* Phase 0 */

	survivors, err := s.phase0(ctx, rule, working, s.cfg.phase0().ncands(gap, len(cands)))
	if err != nil {
		return Decision{}, err
	}
	dec.Survivors[0] = len(survivors)
	recordSurvivors(0, len(survivors))

	if err := ctx.Err(); err != nil {
		dec.Result = ResultDidNotRun
		dec.Err = err
		return dec, nil
	}

	/* Phase 1 */

	survivors, lpErr, err := s.phase1(ctx, survivors, gap)
	if err != nil {
		return Decision{}, err
	}
	dec.Survivors[1] = len(survivors)
	recordSurvivors(1, len(survivors))

	/* Phase 2 */

	rs, last, lpFailed, err := scan(ctx, survivors, s.lastCand%len(survivors), s.probingScorer(true), func(r ranked) bool {
		return (r.upInfeasible && r.downInfeasible) || (s.cfg.ImmediateInfeasibility && (r.upInfeasible || r.downInfeasible))
	})
	if err != nil {
		return Decision{}, err
	}
	s.lastCand = last + 1
	if lpFailed {
		lpErr = fmt.Errorf("%w: phase 2 stopped after %d of %d candidates", ErrLPFailure, len(rs), len(survivors))
	}

	if n := len(rs); n > 0 && rs[n-1].upInfeasible && rs[n-1].downInfeasible {
		s.reg.InvalidateAll()
		s.logger.Print(fmt.Sprintf("bpstrong: both children of %s are infeasible, node is cut off", rs[n-1].Candidate))

		dec.Result = ResultCutoff
		dec.UpInfeasible, dec.DownInfeasible = true, true
		dec.Survivors[2] = 0
		dec.Err = lpErr
		return dec, nil
	}

	best := -1
	maxScore := -1.0
	for i, r := range rs {
		if r.upInfeasible || r.downInfeasible {
			if s.cfg.ImmediateInfeasibility {
				best = i
				break
			}
		}
		if best < 0 || r.score > maxScore {
			best = i
			maxScore = r.score
		}
	}
	if best < 0 {
		dec.Result = ResultDidNotRun
		dec.Err = lpErr
		return dec, nil
	}

	winner := rs[best]
	dec.Result = ResultBranched
	dec.Candidate = winner.Candidate
	dec.Score = winner.score
	dec.UpInfeasible = winner.upInfeasible
	dec.DownInfeasible = winner.downInfeasible
	dec.Survivors[2] = 1
	dec.Err = lpErr
	recordSurvivors(2, 1)

	if dec.UpInfeasible || dec.DownInfeasible {
		s.logger.Print(fmt.Sprintf("bpstrong: selected %s, branching on which is infeasible in one direction", dec.Candidate))
	} else {
		s.reg.InvalidateAll()
		s.logger.Print(fmt.Sprintf("bpstrong: selected %s with score %g", dec.Candidate, dec.Score))
	}

	return dec, nil
}

// classify restricts original variable candidates to the ones in unique
// blocks, or to the master-only ones when there are none.
func (s *Selector) classify(cands []Candidate, ids []int) []evalCand {
	var unique, linking []evalCand
	for i, c := range cands {
		rec := s.reg.Record(ids[i])
		if rec.BlockClass == BlockUnknown {
			rec.BlockClass = s.blockClass(c.Var1)
		}
		switch rec.BlockClass {
		case BlockUnique:
			unique = append(unique, evalCand{Candidate: c, id: ids[i]})
		case BlockLinking:
			linking = append(linking, evalCand{Candidate: c, id: ids[i]})
		}
	}
	if len(unique) > 0 {
		return unique
	}
	return linking
}

func (s *Selector) blockClass(v Var) BlockClass {
	d := s.env.Decomposition

	switch block := d.Block(v); block {
	case NoBlock:
		return BlockLinking
	case LinkingBlock:
		for _, b := range d.LinkingBlocks(v) {
			if d.IdenticalBlocks(b) != 1 {
				return BlockNone
			}
		}
		return BlockUnique
	default:
		if d.IdenticalBlocks(block) != 1 {
			return BlockNone
		}
		return BlockUnique
	}
}

// phase0 ranks the candidates heuristically and keeps the best nNeeded,
// reserving leading slots for the best historically scored candidates.
func (s *Selector) phase0(ctx context.Context, rule Rule, working []evalCand, nNeeded int) ([]evalCand, error) {
	if nNeeded >= len(working) {
		return working, nil
	}

	var hist []evalCand
	for _, ec := range working {
		if s.reg.Record(ec.id).HasScore() {
			hist = append(hist, ec)
		}
	}

	rs, _, _, err := scan(ctx, working, 0, s.heuristicScorer(rule), nil)
	if err != nil {
		return nil, err
	}
	sortRanked(rs)

	nValid, nHist := float64(len(working)), float64(len(hist))
	nNeededHist := int(math.Round(math.Min(nHist/(nValid+nHist), s.cfg.HistWeight) * nValid))
	if nNeededHist > nNeeded {
		nNeededHist = nNeeded
	}
	if nNeededHist == 0 {
		return candidatesOf(rs[:nNeeded]), nil
	}

	hrs, _, _, err := scan(ctx, hist, 0, s.historicalScorer(), nil)
	if err != nil {
		return nil, err
	}
	sortRanked(hrs)

	out := make([]evalCand, 0, nNeeded)
	taken := make(map[int]bool, nNeeded)
	for _, r := range hrs[:nNeededHist] {
		out = append(out, r.evalCand)
		taken[r.id] = true
	}
	for _, r := range rs {
		if len(out) == nNeeded {
			break
		}
		if !taken[r.id] {
			out = append(out, r.evalCand)
		}
	}

	return out, nil
}

// phase1 probes the candidates without pricing and keeps the best ones.
// Without enough candidates for it, only the current best survives.
// An LP failure is returned as lpErr together with the candidates ranked
// before it; err is fatal.
func (s *Selector) phase1(ctx context.Context, cands []evalCand, gap float64) (survivors []evalCand, lpErr, err error) {
	nNeeded := s.cfg.phase1().ncands(gap, len(cands))
	if s.cfg.StrongLite || nNeeded < s.cfg.MinColGenCands || len(cands) < s.cfg.MinColGenCands {
		nNeeded = 1
	}
	if nNeeded >= len(cands) {
		return cands, nil, nil
	}
	if nNeeded == 1 {
		return cands[:1], nil, nil
	}

	rs, _, lpFailed, err := scan(ctx, cands, s.lastCand%len(cands), s.probingScorer(false), nil)
	if err != nil {
		return nil, nil, err
	}

	if lpFailed {
		lpErr = fmt.Errorf("%w: phase 1 stopped after %d of %d candidates", ErrLPFailure, len(rs), len(cands))
		s.logger.Print(fmt.Sprintf("bpstrong: %v", lpErr))
		if len(rs) == 0 {
			if nNeeded > len(cands) {
				nNeeded = len(cands)
			}
			return cands[:nNeeded], lpErr, nil
		}
	}

	sortRanked(rs)
	if nNeeded > len(rs) {
		nNeeded = len(rs)
	}

	return candidatesOf(rs[:nNeeded]), lpErr, nil
}
