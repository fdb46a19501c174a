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
	"sort"

	"github.com/costela/bpstrong"
	"github.com/costela/bpstrong/relax"
)

// DefaultPricingBatch is the number of pool columns activated per pricing
// round.
const DefaultPricingBatch = 2

// Master is the restricted master problem over the active columns of a
// model. It solves its LPs through a relax.Backend.
type Master struct {
	model   *Model
	orig    *Original
	backend relax.Backend
	tree    *Tree
	logger  bpstrong.Logger

	// Batch overrides DefaultPricingBatch when positive.
	Batch int

	active      []bool
	saved       []bool
	probing     bool
	lpObjective float64
	solution    []float64
}

// NewMaster returns the master problem of m, mirroring the domains of
// orig. The tree provides the incumbent used to cut nodes off; it may be
// nil.
func NewMaster(m *Model, orig *Original, backend relax.Backend, tree *Tree, logger bpstrong.Logger) *Master {
	if logger == nil {
		logger = nopLogger{}
	}
	active := make([]bool, m.NumVars())
	for j, v := range m.Vars {
		active[j] = v.Active
	}
	return &Master{
		model:       m,
		orig:        orig,
		backend:     backend,
		tree:        tree,
		logger:      logger,
		active:      active,
		lpObjective: math.Inf(-1),
	}
}

// OpenProbing mirrors the probing node open in the original problem.
func (m *Master) OpenProbing() error {
	if m.probing {
		return ErrAlreadyProbing
	}
	if !m.orig.InProbingNode() {
		return fmt.Errorf("%w: original problem has no open probing node", ErrNotProbing)
	}
	m.saved = append(m.saved[:0], m.active...)
	m.probing = true
	return nil
}

// CloseProbing drops the columns activated while probing.
func (m *Master) CloseProbing() error {
	if !m.probing {
		return ErrNotProbing
	}
	copy(m.active, m.saved)
	m.probing = false
	return nil
}

// SolveRelaxation solves the master LP of the probing node.
func (m *Master) SolveRelaxation(ctx context.Context, usePricing bool, maxPricingRounds int) (bpstrong.Relaxation, error) {
	if !m.probing {
		return bpstrong.Relaxation{}, ErrNotProbing
	}
	rel, _, err := m.solve(ctx, usePricing, maxPricingRounds)
	return rel, err
}

// SolveNode solves the master LP of the current search node with unlimited
// pricing and remembers its objective and solution.
func (m *Master) SolveNode(ctx context.Context) (bpstrong.Relaxation, error) {
	if m.probing {
		return bpstrong.Relaxation{}, ErrAlreadyProbing
	}
	rel, x, err := m.solve(ctx, true, -1)
	if err != nil {
		return rel, err
	}
	m.lpObjective = rel.Objective
	m.solution = x
	return rel, nil
}

// LPObjective is the objective of the last node solved by SolveNode.
func (m *Master) LPObjective() float64 {
	return m.lpObjective
}

// Solution is the master LP solution of the last node solved by SolveNode,
// over all model variables. Inactive columns are zero.
func (m *Master) Solution() []float64 {
	return m.solution
}

// ActiveColumns returns the number of columns in the restricted master.
func (m *Master) ActiveColumns() int {
	n := 0
	for _, a := range m.active {
		if a {
			n++
		}
	}
	return n
}

func (m *Master) batch() int {
	if m.Batch > 0 {
		return m.Batch
	}
	return DefaultPricingBatch
}

// solve runs the restricted LP and, with pricing, the pricing rounds. The
// bound is only valid once the pool holds no further eligible column.
func (m *Master) solve(ctx context.Context, usePricing bool, maxRounds int) (bpstrong.Relaxation, []float64, error) {
	m.forceActivate()

	for round := 0; ; round++ {
		sol, err := m.backend.Solve(ctx, m.program())
		infeasible := errors.Is(err, relax.ErrInfeasible)
		if err != nil && !infeasible {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return bpstrong.Relaxation{}, nil, ctxErr
			}
			m.logger.Print(fmt.Sprintf("colpool: master LP failed: %v", err))
			return bpstrong.Relaxation{Error: true}, nil, nil
		}

		if !usePricing {
			if infeasible {
				return bpstrong.Relaxation{Objective: math.Inf(1)}, nil, nil
			}
			return bpstrong.Relaxation{Objective: sol.Objective, Solved: true}, m.expand(sol.X), nil
		}

		if maxRounds >= 0 && round >= maxRounds {
			return m.result(sol, infeasible, len(m.pool()) == 0)
		}
		if !m.price() {
			return m.result(sol, infeasible, true)
		}
	}
}

func (m *Master) result(sol *relax.Solution, infeasible, exhausted bool) (bpstrong.Relaxation, []float64, error) {
	if infeasible {
		return bpstrong.Relaxation{Objective: math.Inf(1), Solved: exhausted, Cutoff: exhausted}, nil, nil
	}

	rel := bpstrong.Relaxation{Objective: sol.Objective, Solved: exhausted}
	if exhausted && m.tree != nil && sol.Objective >= m.tree.UpperBound()-feasTol {
		rel.Cutoff = true
	}
	return rel, m.expand(sol.X), nil
}

// eligible reports whether column j may still be activated in the current
// domains.
func (m *Master) eligible(j int) bool {
	return !m.active[j] && !(m.orig.lower[j] == 0 && m.orig.upper[j] == 0)
}

func (m *Master) pool() []int {
	var pool []int
	for j := range m.active {
		if m.eligible(j) {
			pool = append(pool, j)
		}
	}
	return pool
}

// price activates the most attractive eligible columns and reports whether
// any was found.
func (m *Master) price() bool {
	pool := m.pool()
	if len(pool) == 0 {
		return false
	}

	sort.SliceStable(pool, func(a, b int) bool {
		return m.model.Vars[pool[a]].Objective < m.model.Vars[pool[b]].Objective
	})
	if len(pool) > m.batch() {
		pool = pool[:m.batch()]
	}
	for _, j := range pool {
		m.active[j] = true
	}
	return true
}

// forceActivate activates the columns whose domain excludes zero, which
// cannot be left out of the master.
func (m *Master) forceActivate() {
	for j := range m.active {
		if m.orig.lower[j] > 0 || m.orig.upper[j] < 0 {
			m.active[j] = true
		}
	}
}

// program builds the LP over the active columns. Rows keep their terms
// over active columns only.
func (m *Master) program() *relax.Program {
	col := make([]int, len(m.active))
	p := &relax.Program{}
	for j, a := range m.active {
		if !a {
			col[j] = -1
			continue
		}
		col[j] = len(p.Objective)
		p.Objective = append(p.Objective, m.model.Vars[j].Objective)
		p.Lower = append(p.Lower, m.orig.lower[j])
		p.Upper = append(p.Upper, m.orig.upper[j])
	}

	for _, r := range m.orig.rows() {
		row := relax.Row{Lower: r.Lower, Upper: r.Upper}
		for k, j := range r.Index {
			if col[j] >= 0 {
				row.Index = append(row.Index, col[j])
				row.Value = append(row.Value, r.Value[k])
			}
		}
		p.Rows = append(p.Rows, row)
	}
	return p
}

func (m *Master) expand(x []float64) []float64 {
	out := make([]float64, len(m.active))
	k := 0
	for j, a := range m.active {
		if a {
			out[j] = x[k]
			k++
		}
	}
	return out
}
