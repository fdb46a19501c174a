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
	"errors"
	"fmt"
	"math"

	"github.com/costela/bpstrong"
	"github.com/costela/bpstrong/relax"
)

var (
	ErrNotProbing     = errors.New("colpool: not in probing mode")
	ErrAlreadyProbing = errors.New("colpool: already in probing mode")
)

const (
	feasTol       = 1e-6
	maxPropRounds = 20
)

// Coupling is a Ryan-Foster constraint between two variables.
type Coupling struct {
	A, B  int
	Sense bpstrong.Coupling
}

// row returns the linear form of the coupling: x_a + x_b <= 1 for Differ,
// x_a - x_b = 0 for Same.
func (c Coupling) row() relax.Row {
	if c.Sense == bpstrong.Same {
		return relax.Row{Index: []int{c.A, c.B}, Value: []float64{1, -1}, Lower: 0, Upper: 0}
	}
	return relax.Row{Index: []int{c.A, c.B}, Value: []float64{1, 1}, Lower: math.Inf(-1), Upper: 1}
}

type frame struct {
	lower, upper []float64
	couplings    int
}

// Original holds the variable domains of the current node of the original
// problem. While probing, every probing node is a frame on a stack;
// CloseProbing returns to the state before OpenProbing.
type Original struct {
	model        *Model
	lower, upper []float64
	couplings    []Coupling

	probing bool
	frames  []frame
}

// NewOriginal returns the original problem at the root, with the model's
// bounds as domains.
func NewOriginal(m *Model) *Original {
	o := &Original{
		model: m,
		lower: make([]float64, m.NumVars()),
		upper: make([]float64, m.NumVars()),
	}
	for j, v := range m.Vars {
		o.lower[j], o.upper[j] = v.Lower, v.Upper
	}
	return o
}

// SetNode replaces the domains and the coupling constraints, as when moving
// to another node of the search tree.
func (o *Original) SetNode(lower, upper []float64, couplings []Coupling) error {
	if o.probing {
		return ErrAlreadyProbing
	}
	o.lower = append(o.lower[:0], lower...)
	o.upper = append(o.upper[:0], upper...)
	o.couplings = append(o.couplings[:0], couplings...)
	return nil
}

// Domains returns copies of the current lower and upper bounds.
func (o *Original) Domains() (lower, upper []float64) {
	return append([]float64(nil), o.lower...), append([]float64(nil), o.upper...)
}

// Couplings returns a copy of the active coupling constraints.
func (o *Original) Couplings() []Coupling {
	return append([]Coupling(nil), o.couplings...)
}

// InProbingNode reports whether a probing node is open.
func (o *Original) InProbingNode() bool {
	return o.probing && len(o.frames) > 1
}

func (o *Original) push() {
	o.frames = append(o.frames, frame{
		lower:     append([]float64(nil), o.lower...),
		upper:     append([]float64(nil), o.upper...),
		couplings: len(o.couplings),
	})
}

func (o *Original) OpenProbing() error {
	if o.probing {
		return ErrAlreadyProbing
	}
	o.probing = true
	o.push()
	return nil
}

func (o *Original) NewProbingNode() error {
	if !o.probing {
		return ErrNotProbing
	}
	o.push()
	return nil
}

func (o *Original) CloseProbing() error {
	if !o.probing {
		return ErrNotProbing
	}
	base := o.frames[0]
	o.lower, o.upper = base.lower, base.upper
	o.couplings = o.couplings[:base.couplings]
	o.frames = o.frames[:0]
	o.probing = false
	return nil
}

func (o *Original) TightenBound(v bpstrong.Var, side bpstrong.BoundSide, value float64) error {
	if !o.InProbingNode() {
		return ErrNotProbing
	}
	j := v.Index()
	if j < 0 || j >= len(o.lower) {
		return fmt.Errorf("colpool: unknown variable %s", v.Name())
	}
	if side == bpstrong.LowerBound {
		o.lower[j] = math.Max(o.lower[j], value)
	} else {
		o.upper[j] = math.Min(o.upper[j], value)
	}
	return nil
}

func (o *Original) AddCouplingConstraint(a, b bpstrong.Var, sense bpstrong.Coupling) error {
	if !o.InProbingNode() {
		return ErrNotProbing
	}
	o.couplings = append(o.couplings, Coupling{A: a.Index(), B: b.Index(), Sense: sense})
	return nil
}

// rows returns the model rows followed by the coupling rows.
func (o *Original) rows() []relax.Row {
	rows := make([]relax.Row, 0, len(o.model.Rows)+len(o.couplings))
	for _, r := range o.model.Rows {
		rows = append(rows, r.Row)
	}
	for _, c := range o.couplings {
		rows = append(rows, c.row())
	}
	return rows
}

// Propagate tightens the domains by activity bounds of all rows until a
// fixpoint or the round limit is reached. Integer bounds are rounded.
func (o *Original) Propagate() (bool, error) {
	rows := o.rows()
	for j := range o.lower {
		if o.infeasibleDomain(j) {
			return true, nil
		}
	}

	for round := 0; round < maxPropRounds; round++ {
		changed := false
		for _, r := range rows {
			c, cutoff := o.propagateRow(r)
			if cutoff {
				return true, nil
			}
			changed = changed || c
		}
		if !changed {
			break
		}
	}
	return false, nil
}

// activity sums the finite minimal or maximal contributions of a row and
// counts the infinite ones.
type activity struct {
	finite float64
	inf    int
}

func (a activity) without(contrib float64) (float64, bool) {
	switch {
	case math.IsInf(contrib, 0) && a.inf == 1:
		return a.finite, true
	case a.inf == 0:
		return a.finite - contrib, true
	default:
		return 0, false
	}
}

func (o *Original) contributions(coef float64, j int) (lo, hi float64) {
	if coef > 0 {
		return coef * o.lower[j], coef * o.upper[j]
	}
	return coef * o.upper[j], coef * o.lower[j]
}

func (o *Original) propagateRow(r relax.Row) (changed, cutoff bool) {
	var minAct, maxAct activity
	for k, j := range r.Index {
		lo, hi := o.contributions(r.Value[k], j)
		if math.IsInf(lo, 0) {
			minAct.inf++
		} else {
			minAct.finite += lo
		}
		if math.IsInf(hi, 0) {
			maxAct.inf++
		} else {
			maxAct.finite += hi
		}
	}

	if minAct.inf == 0 && minAct.finite > r.Upper+feasTol {
		return false, true
	}
	if maxAct.inf == 0 && maxAct.finite < r.Lower-feasTol {
		return false, true
	}

	for k, j := range r.Index {
		coef := r.Value[k]
		if coef == 0 {
			continue
		}
		lo, hi := o.contributions(coef, j)

		if !math.IsInf(r.Upper, 1) {
			if rest, ok := minAct.without(lo); ok {
				bound := (r.Upper - rest) / coef
				if coef > 0 {
					changed = o.tightenUpper(j, bound) || changed
				} else {
					changed = o.tightenLower(j, bound) || changed
				}
			}
		}
		if !math.IsInf(r.Lower, -1) {
			if rest, ok := maxAct.without(hi); ok {
				bound := (r.Lower - rest) / coef
				if coef > 0 {
					changed = o.tightenLower(j, bound) || changed
				} else {
					changed = o.tightenUpper(j, bound) || changed
				}
			}
		}
		if o.infeasibleDomain(j) {
			return changed, true
		}
	}
	return changed, false
}

func (o *Original) tightenUpper(j int, bound float64) bool {
	if o.model.Vars[j].Integer {
		bound = math.Floor(bound + feasTol)
	}
	if bound < o.upper[j]-feasTol {
		o.upper[j] = bound
		return true
	}
	return false
}

func (o *Original) tightenLower(j int, bound float64) bool {
	if o.model.Vars[j].Integer {
		bound = math.Ceil(bound - feasTol)
	}
	if bound > o.lower[j]+feasTol {
		o.lower[j] = bound
		return true
	}
	return false
}

func (o *Original) infeasibleDomain(j int) bool {
	return o.lower[j] > o.upper[j]+feasTol
}
