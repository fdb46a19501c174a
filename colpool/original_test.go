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
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/costela/bpstrong"
)

func TestOriginalProbingRestores(t *testing.T) {
	m := knapsack(t)
	o := NewOriginal(m)
	b, _ := m.Var("b")
	c, _ := m.Var("c")

	assert.ErrorIs(t, o.TightenBound(b, bpstrong.UpperBound, 0), ErrNotProbing)
	assert.ErrorIs(t, o.NewProbingNode(), ErrNotProbing)
	assert.ErrorIs(t, o.CloseProbing(), ErrNotProbing)

	require.NoError(t, o.OpenProbing())
	assert.ErrorIs(t, o.OpenProbing(), ErrAlreadyProbing)
	assert.False(t, o.InProbingNode())
	assert.ErrorIs(t, o.TightenBound(b, bpstrong.UpperBound, 0), ErrNotProbing)

	require.NoError(t, o.NewProbingNode())
	assert.True(t, o.InProbingNode())
	require.NoError(t, o.TightenBound(b, bpstrong.LowerBound, 1))
	require.NoError(t, o.AddCouplingConstraint(b, c, bpstrong.Differ))
	assert.ErrorIs(t, o.SetNode(nil, nil, nil), ErrAlreadyProbing)

	lower, _ := o.Domains()
	assert.Equal(t, 1.0, lower[1])
	assert.Len(t, o.Couplings(), 1)

	require.NoError(t, o.CloseProbing())
	lower, upper := o.Domains()
	assert.Equal(t, []float64{0, 0, 0}, lower)
	assert.Equal(t, []float64{1, 1, 1}, upper)
	assert.Empty(t, o.Couplings())
}

func TestOriginalTightenNeverRelaxes(t *testing.T) {
	m := knapsack(t)
	o := NewOriginal(m)
	a, _ := m.Var("a")

	require.NoError(t, o.OpenProbing())
	require.NoError(t, o.NewProbingNode())
	require.NoError(t, o.TightenBound(a, bpstrong.UpperBound, 5))
	require.NoError(t, o.TightenBound(a, bpstrong.LowerBound, -3))

	lower, upper := o.Domains()
	assert.Equal(t, 0.0, lower[0])
	assert.Equal(t, 1.0, upper[0])
}

func TestPropagateTightens(t *testing.T) {
	m := knapsack(t)
	o := NewOriginal(m)
	b, _ := m.Var("b")

	require.NoError(t, o.OpenProbing())
	require.NoError(t, o.NewProbingNode())
	require.NoError(t, o.TightenBound(b, bpstrong.LowerBound, 1))

	cutoff, err := o.Propagate()
	require.NoError(t, err)
	assert.False(t, cutoff)

	// 6 of the capacity are used, 4a+3c <= 4 leaves c in [0,1] and a in [0,1]
	_, upper := o.Domains()
	assert.Equal(t, []float64{1, 1, 1}, upper)
}

func TestPropagateIntegerRounding(t *testing.T) {
	m := NewModel()
	_, err := m.AddVar("x", 1, 0, 10, true)
	require.NoError(t, err)
	_, err = m.AddVar("y", 1, 2, 10, false)
	require.NoError(t, err)
	// 2x + y <= 7
	require.NoError(t, m.AddRow("r", map[string]float64{"x": 2, "y": 1}, math.Inf(-1), 7))

	o := NewOriginal(m)
	cutoff, err := o.Propagate()
	require.NoError(t, err)
	require.False(t, cutoff)

	_, upper := o.Domains()
	assert.Equal(t, 2.0, upper[0]) // floor(5/2)
	assert.Equal(t, 7.0, upper[1])
}

func TestPropagateCutoff(t *testing.T) {
	m := knapsack(t)
	o := NewOriginal(m)
	a, _ := m.Var("a")
	b, _ := m.Var("b")
	c, _ := m.Var("c")

	require.NoError(t, o.OpenProbing())
	require.NoError(t, o.NewProbingNode())
	for _, v := range []*Variable{a, b, c} {
		require.NoError(t, o.TightenBound(v, bpstrong.LowerBound, 1))
	}

	cutoff, err := o.Propagate()
	require.NoError(t, err)
	assert.True(t, cutoff)
}

func TestPropagateCoupling(t *testing.T) {
	m := knapsack(t)
	o := NewOriginal(m)
	a, _ := m.Var("a")
	b, _ := m.Var("b")
	c, _ := m.Var("c")

	require.NoError(t, o.OpenProbing())
	require.NoError(t, o.NewProbingNode())
	require.NoError(t, o.TightenBound(a, bpstrong.LowerBound, 1))
	require.NoError(t, o.AddCouplingConstraint(a, c, bpstrong.Differ))
	require.NoError(t, o.AddCouplingConstraint(a, b, bpstrong.Same))

	cutoff, err := o.Propagate()
	require.NoError(t, err)
	require.False(t, cutoff)

	lower, upper := o.Domains()
	assert.Equal(t, 0.0, upper[2], "differ forces c to zero")
	assert.Equal(t, 1.0, lower[1], "same forces b to one")
}
