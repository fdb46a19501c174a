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
	"testing"

	"github.com/stretchr/testify/require"
)

const delta = 0.0000001 // acceptable numerical deviation for test results

type mockVar struct {
	index int
	name  string
}

func (v *mockVar) Index() int   { return v.index }
func (v *mockVar) Name() string { return v.name }

// child describes how the mock solvers answer for one child of a candidate.
type child struct {
	objective  float64
	lpCutoff   bool
	propCutoff bool
	propErr    bool
	lpError    bool
	solveErr   bool
	unsolved   bool
}

type probeCall struct {
	child   string
	pricing bool
}

// oracle is the shared state of the mock original and master solvers.
type oracle struct {
	lpObj    float64
	children map[string]child

	origOpens, origCloses     int
	masterOpens, masterCloses int
	origDepth, masterDepth    int
	nodes                     int

	failMasterOpen bool

	current   string
	probes    []probeCall
	couplings []Coupling
}

func newOracle() *oracle {
	return &oracle{lpObj: 10, children: map[string]child{}}
}

func (o *oracle) defaultChild() child {
	return child{objective: o.lpObj + 1}
}

func (o *oracle) answer() child {
	if c, ok := o.children[o.current]; ok {
		return c
	}
	return o.defaultChild()
}

// pricingProbes returns the children solved with pricing, in order.
func (o *oracle) pricingProbes() []string {
	var out []string
	for _, p := range o.probes {
		if p.pricing {
			out = append(out, p.child)
		}
	}
	return out
}

func (o *oracle) plainProbes() []string {
	var out []string
	for _, p := range o.probes {
		if !p.pricing {
			out = append(out, p.child)
		}
	}
	return out
}

func (o *oracle) requireBalanced(t *testing.T) {
	t.Helper()

	require.Equal(t, o.origOpens, o.origCloses, "original probing scopes")
	require.Equal(t, o.masterOpens, o.masterCloses, "master probing scopes")
	require.Zero(t, o.origDepth)
	require.Zero(t, o.masterDepth)
}

type mockOriginal struct{ *oracle }

func (m mockOriginal) OpenProbing() error {
	if m.origDepth != 0 {
		return errors.New("probing already open")
	}
	m.origOpens++
	m.origDepth++
	m.current = ""
	return nil
}

func (m mockOriginal) NewProbingNode() error {
	m.nodes++
	return nil
}

func (m mockOriginal) CloseProbing() error {
	if m.masterDepth != 0 {
		return errors.New("master probing still open")
	}
	m.origCloses++
	m.origDepth--
	return nil
}

func (m mockOriginal) TightenBound(v Var, side BoundSide, value float64) error {
	if side == UpperBound {
		m.current = v.Name() + "/down"
	} else {
		m.current = v.Name() + "/up"
	}
	return nil
}

func (m mockOriginal) AddCouplingConstraint(a, b Var, sense Coupling) error {
	m.couplings = append(m.couplings, sense)
	if sense == Differ {
		m.current = fmt.Sprintf("(%s,%s)/down", a.Name(), b.Name())
	} else {
		m.current = fmt.Sprintf("(%s,%s)/up", a.Name(), b.Name())
	}
	return nil
}

func (m mockOriginal) Propagate() (bool, error) {
	c := m.answer()
	if c.propErr {
		return false, errors.New("propagation failed")
	}
	return c.propCutoff, nil
}

type mockMaster struct{ *oracle }

func (m mockMaster) OpenProbing() error {
	if m.failMasterOpen {
		return errors.New("master refuses probing")
	}
	if m.origDepth != 1 {
		return errors.New("original problem is not probing")
	}
	m.masterOpens++
	m.masterDepth++
	return nil
}

func (m mockMaster) CloseProbing() error {
	m.masterCloses++
	m.masterDepth--
	return nil
}

func (m mockMaster) SolveRelaxation(_ context.Context, usePricing bool, _ int) (Relaxation, error) {
	if m.masterDepth != 1 {
		return Relaxation{}, errors.New("master is not probing")
	}
	m.probes = append(m.probes, probeCall{child: m.current, pricing: usePricing})

	c := m.answer()
	if c.solveErr {
		return Relaxation{}, errors.New("solver crashed")
	}
	return Relaxation{
		Objective: c.objective,
		Solved:    !c.unsolved && !c.lpError,
		Cutoff:    c.lpCutoff,
		Error:     c.lpError,
	}, nil
}

func (m mockMaster) LPObjective() float64 { return m.lpObj }

type mockTree struct {
	node         int64
	parents      map[int64]int64
	lower, upper float64
}

func (t *mockTree) CurrentNode() int64 { return t.node }

func (t *mockTree) Parent(node int64) (int64, bool) {
	p, ok := t.parents[node]
	return p, ok
}

func (t *mockTree) NodeLowerBound() float64 { return t.lower }
func (t *mockTree) UpperBound() float64     { return t.upper }

type mockHeuristics map[string]float64

func (h mockHeuristics) PseudocostScore(v Var, _ float64) float64 {
	if s, ok := h[v.Name()]; ok {
		return s
	}
	return 1
}

type mockDecomposition struct {
	blocks    map[string]int
	linking   map[string][]int
	identical map[int]int
}

func (d *mockDecomposition) Block(v Var) int {
	if b, ok := d.blocks[v.Name()]; ok {
		return b
	}
	return 0
}

func (d *mockDecomposition) LinkingBlocks(v Var) []int {
	return d.linking[v.Name()]
}

func (d *mockDecomposition) IdenticalBlocks(block int) int {
	if n, ok := d.identical[block]; ok {
		return n
	}
	return 1
}

// fixture bundles a selector with its mock environment.
type fixture struct {
	oracle *oracle
	tree   *mockTree
	pc     mockHeuristics
	decomp *mockDecomposition
	vars   map[string]*mockVar
}

func newFixture() *fixture {
	return &fixture{
		oracle: newOracle(),
		tree:   &mockTree{node: 1, parents: map[int64]int64{}, lower: 10, upper: 20},
		pc:     mockHeuristics{},
		decomp: &mockDecomposition{blocks: map[string]int{}, linking: map[string][]int{}, identical: map[int]int{}},
		vars:   map[string]*mockVar{},
	}
}

func (f *fixture) env() Environment {
	return Environment{
		Tree:          f.tree,
		Original:      mockOriginal{f.oracle},
		Master:        mockMaster{f.oracle},
		Heuristics:    f.pc,
		Decomposition: f.decomp,
	}
}

func (f *fixture) selector(t *testing.T, cfg Config, opts ...Option) *Selector {
	t.Helper()

	s, err := NewSelector(f.env(), append([]Option{WithConfig(cfg)}, opts...)...)
	require.NoError(t, err)

	return s
}

func (f *fixture) v(name string) *mockVar {
	if v, ok := f.vars[name]; ok {
		return v
	}
	v := &mockVar{index: len(f.vars), name: name}
	f.vars[name] = v
	return v
}

// singles returns fractional single variable candidates.
func (f *fixture) singles(names ...string) []Candidate {
	out := make([]Candidate, len(names))
	for i, n := range names {
		out[i] = Candidate{Var1: f.v(n), Sol1: 0.5}
	}
	return out
}

// evaluateAll returns a configuration in which phases 0 and 1 keep every
// candidate, so phase 2 sees the whole input.
func evaluateAll() Config {
	cfg := DefaultConfig()
	cfg.MinPhase0OutCands = 100
	cfg.MaxPhase0OutCands = 100
	cfg.MaxPhase0OutCandsFrac = 1
	cfg.MinPhase1OutCands = 100
	cfg.MaxPhase1OutCands = 100
	cfg.MaxPhase1OutCandsFrac = 1
	cfg.MinColGenCands = 0
	return cfg
}
