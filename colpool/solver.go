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

package colpool

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/costela/bpstrong"
	"github.com/costela/bpstrong/relax"
)

var (
	ErrInfeasible = errors.New("colpool: problem is infeasible")
	ErrNodeLP     = errors.New("colpool: node LP failed")
)

// Status is the outcome of a search.
type Status int

const (
	StatusOptimal Status = iota
	StatusInfeasible
	StatusNodeLimit
)

func (s Status) String() string {
	switch s {
	case StatusOptimal:
		return "optimal"
	case StatusInfeasible:
		return "infeasible"
	case StatusNodeLimit:
		return "nodelimit"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Result is the outcome of Solver.Solve. Objective is in the sense of the
// model, X holds the incumbent for all variables.
type Result struct {
	Status    Status
	Objective float64
	X         []float64
	Nodes     int
	Decisions map[bpstrong.Result]int
}

// Solver runs branch-and-bound on a model, asking a strong branching
// selector for every branching decision.
type Solver struct {
	model     *Model
	backend   relax.Backend
	rule      bpstrong.Rule
	cfg       bpstrong.Config
	logger    bpstrong.Logger
	nodeLimit int
	selOpts   []bpstrong.Option

	tree   *Tree
	orig   *Original
	master *Master
	pc     *Pseudocosts
	sel    *bpstrong.Selector
}

// NewSolver returns a solver for m. The gonum backend is used unless
// another one is given.
func NewSolver(m *Model, opts ...Option) (*Solver, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}

	s := &Solver{
		model:   m,
		backend: relax.Gonum{},
		rule:    bpstrong.RuleOriginal,
		cfg:     bpstrong.DefaultConfig(),
		logger:  nopLogger{},
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	s.tree = NewTree()
	s.orig = NewOriginal(m)
	s.master = NewMaster(m, s.orig, s.backend, s.tree, s.logger)
	s.pc = NewPseudocosts(m.NumVars())

	selOpts := append([]bpstrong.Option{bpstrong.WithConfig(s.cfg), bpstrong.WithLogger(s.logger)}, s.selOpts...)
	sel, err := bpstrong.NewSelector(s.Environment(), selOpts...)
	if err != nil {
		return nil, err
	}
	s.sel = sel

	return s, nil
}

// Environment returns the collaborators driven by the selector.
func (s *Solver) Environment() bpstrong.Environment {
	return bpstrong.Environment{
		Tree:          s.tree,
		Original:      s.orig,
		Master:        s.master,
		Heuristics:    s.pc,
		Decomposition: NewDecomposition(s.model),
	}
}

// Selector returns the selector used for branching.
func (s *Solver) Selector() *bpstrong.Selector {
	return s.sel
}

// Master returns the master problem.
func (s *Solver) Master() *Master {
	return s.master
}

type node struct {
	id           int64
	lower, upper []float64
	couplings    []Coupling
	// bound is the LP objective of the parent
	bound float64

	// branching change leading to this node, for the pseudocosts
	pcVar   int
	pcDelta float64
}

func (s *Solver) root() node {
	lower, upper := NewOriginal(s.model).Domains()
	return node{lower: lower, upper: upper, bound: math.Inf(-1), pcVar: -1}
}

// evaluate propagates and solves node n. It returns false when the node
// is infeasible or cut off by the incumbent.
func (s *Solver) evaluate(ctx context.Context, n node) (bpstrong.Relaxation, bool, error) {
	if err := s.orig.SetNode(n.lower, n.upper, n.couplings); err != nil {
		return bpstrong.Relaxation{}, false, err
	}
	s.tree.Focus(n.id, n.bound)

	cutoff, err := s.orig.Propagate()
	if err != nil {
		return bpstrong.Relaxation{}, false, err
	}
	if cutoff {
		return bpstrong.Relaxation{}, false, nil
	}

	rel, err := s.master.SolveNode(ctx)
	if err != nil {
		return rel, false, err
	}
	if rel.Error || !rel.Solved {
		return rel, false, fmt.Errorf("%w: node %d", ErrNodeLP, n.id)
	}
	if n.pcVar >= 0 {
		s.pc.Update(n.pcVar, n.pcDelta, rel.Objective-n.bound)
	}
	if rel.Cutoff {
		return rel, false, nil
	}

	s.tree.SetLowerBound(rel.Objective)
	return rel, true, nil
}

// SelectRoot solves the root node and returns the selector's branching
// decision for it.
func (s *Solver) SelectRoot(ctx context.Context) (bpstrong.Decision, error) {
	_, ok, err := s.evaluate(ctx, s.root())
	if err != nil {
		return bpstrong.Decision{}, err
	}
	if !ok {
		return bpstrong.Decision{}, ErrInfeasible
	}

	cands := s.candidates(s.master.Solution())
	if len(cands) == 0 {
		return bpstrong.Decision{Result: bpstrong.ResultNoCandidate}, nil
	}
	return s.sel.Select(ctx, s.rule, cands)
}

// Solve runs a depth-first branch-and-bound search.
func (s *Solver) Solve(ctx context.Context) (*Result, error) {
	res := &Result{Status: StatusInfeasible, Decisions: map[bpstrong.Result]int{}}

	stack := []node{s.root()}
	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if s.nodeLimit > 0 && res.Nodes >= s.nodeLimit {
			s.logger.Print(fmt.Sprintf("colpool: node limit %d reached", s.nodeLimit))
			if res.X == nil {
				return nil, fmt.Errorf("colpool: node limit %d reached without a solution", s.nodeLimit)
			}
			res.Status = StatusNodeLimit
			break
		}

		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if n.bound >= s.tree.UpperBound()-feasTol {
			continue
		}
		res.Nodes++

		rel, ok, err := s.evaluate(ctx, n)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}

		x := s.master.Solution()
		cands := s.candidates(x)
		if len(cands) == 0 && s.fractional(x) < 0 {
			if s.tree.Improve(rel.Objective) {
				res.X = append([]float64(nil), x...)
				res.Status = StatusOptimal
				s.logger.Print(fmt.Sprintf("colpool: new incumbent %g at node %d", s.objective(rel.Objective), n.id))
			}
			continue
		}

		children, err := s.branch(ctx, n, rel.Objective, x, cands, res)
		if err != nil {
			return nil, err
		}
		stack = append(stack, children...)
	}

	if res.X != nil {
		res.Objective = s.objective(s.tree.UpperBound())
	}
	return res, nil
}

// branch asks the selector for a decision and returns the children to
// explore. Without a usable decision it branches on the most fractional
// variable.
func (s *Solver) branch(ctx context.Context, n node, obj float64, x []float64, cands []bpstrong.Candidate, res *Result) ([]node, error) {
	var dec bpstrong.Decision
	if len(cands) > 0 {
		var err error
		dec, err = s.sel.Select(ctx, s.rule, cands)
		if err != nil {
			return nil, err
		}
		res.Decisions[dec.Result]++
		if dec.Err != nil {
			s.logger.Print(fmt.Sprintf("colpool: selection at node %d: %v", n.id, dec.Err))
		}
	}

	switch dec.Result {
	case bpstrong.ResultCutoff:
		return nil, nil
	case bpstrong.ResultBranched:
		return s.children(n, obj, dec.Candidate, dec.DownInfeasible, dec.UpInfeasible), nil
	}

	j := s.fractional(x)
	if j < 0 {
		return nil, fmt.Errorf("colpool: no variable to branch on at node %d", n.id)
	}
	return s.children(n, obj, bpstrong.Candidate{Var1: s.model.Vars[j], Sol1: x[j]}, false, false), nil
}

// children builds the down and up children of c. They are returned in
// reverse order of exploration.
func (s *Solver) children(n node, obj float64, c bpstrong.Candidate, downInfeasible, upInfeasible bool) []node {
	child := func() node {
		return node{
			id:        s.tree.NewChild(n.id),
			lower:     append([]float64(nil), s.orig.lower...),
			upper:     append([]float64(nil), s.orig.upper...),
			couplings: s.orig.Couplings(),
			bound:     obj,
			pcVar:     -1,
		}
	}

	var out []node
	if !upInfeasible {
		up := child()
		if c.IsPair() {
			up.couplings = append(up.couplings, Coupling{A: c.Var1.Index(), B: c.Var2.Index(), Sense: bpstrong.Same})
		} else {
			j := c.Var1.Index()
			up.lower[j] = math.Max(up.lower[j], math.Ceil(c.Sol1-feasTol))
			up.pcVar, up.pcDelta = j, up.lower[j]-c.Sol1
		}
		out = append(out, up)
	}
	if !downInfeasible {
		down := child()
		if c.IsPair() {
			down.couplings = append(down.couplings, Coupling{A: c.Var1.Index(), B: c.Var2.Index(), Sense: bpstrong.Differ})
		} else {
			j := c.Var1.Index()
			down.upper[j] = math.Min(down.upper[j], math.Floor(c.Sol1+feasTol))
			down.pcVar, down.pcDelta = j, down.upper[j]-c.Sol1
		}
		out = append(out, down)
	}
	return out
}

func isFractional(x float64) bool {
	f := x - math.Floor(x)
	return f > feasTol && f < 1-feasTol
}

// fractional returns the integer variable farthest from integrality, or -1.
func (s *Solver) fractional(x []float64) int {
	best, bestFrac := -1, 0.0
	for j, v := range s.model.Vars {
		if !v.Integer || !isFractional(x[j]) {
			continue
		}
		f := x[j] - math.Floor(x[j])
		if f = math.Min(f, 1-f); f > bestFrac {
			best, bestFrac = j, f
		}
	}
	return best
}

// candidates lists the fractional integer variables for original branching,
// or the uncoupled pairs of fractional binary variables of a common block
// for Ryan-Foster branching.
func (s *Solver) candidates(x []float64) []bpstrong.Candidate {
	var frac []*Variable
	for j, v := range s.model.Vars {
		if v.Integer && isFractional(x[j]) {
			frac = append(frac, v)
		}
	}

	var cands []bpstrong.Candidate
	if s.rule == bpstrong.RuleOriginal {
		for _, v := range frac {
			cands = append(cands, bpstrong.Candidate{Var1: v, Sol1: x[v.index]})
		}
		return cands
	}

	coupled := map[[2]int]bool{}
	for _, c := range s.orig.couplings {
		coupled[[2]int{min(c.A, c.B), max(c.A, c.B)}] = true
	}
	for a := 0; a < len(frac); a++ {
		for b := a + 1; b < len(frac); b++ {
			va, vb := frac[a], frac[b]
			if va.Block != vb.Block || va.Block < 0 || !s.binary(va.index) || !s.binary(vb.index) {
				continue
			}
			if coupled[[2]int{va.index, vb.index}] {
				continue
			}
			cands = append(cands, bpstrong.Candidate{Var1: va, Var2: vb, Sol1: x[va.index], Sol2: x[vb.index], Block: va.Block})
		}
	}
	return cands
}

func (s *Solver) binary(j int) bool {
	v := s.model.Vars[j]
	return v.Integer && s.orig.lower[j] >= -feasTol && s.orig.upper[j] <= 1+feasTol
}

func (s *Solver) objective(v float64) float64 {
	if s.model.Maximize {
		return -v
	}
	return v
}

// Solve is a shorthand for NewSolver followed by Solver.Solve.
func Solve(ctx context.Context, m *Model, opts ...Option) (*Result, error) {
	s, err := NewSolver(m, opts...)
	if err != nil {
		return nil, err
	}
	return s.Solve(ctx)
}
