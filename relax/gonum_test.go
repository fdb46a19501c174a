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

package relax

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const delta = 0.0000001 // acceptable numerical deviation for test results

var inf = math.Inf(1)

// the simplex example from the original golp tests, as a minimization
func simplexProgram() *Program {
	return &Program{
		Objective: []float64{-1, -2, 1},
		Lower:     []float64{0, 0, 0},
		Upper:     []float64{inf, inf, inf},
		Rows: []Row{
			{Index: []int{0, 1, 2}, Value: []float64{2, 1, 1}, Lower: 0, Upper: 14},
			{Index: []int{0, 1, 2}, Value: []float64{4, 2, 3}, Lower: 0, Upper: 28},
			{Index: []int{0, 1, 2}, Value: []float64{2, 5, 5}, Lower: 0, Upper: 30},
		},
	}
}

func TestGonumSolveSimplex(t *testing.T) {
	sol, err := Gonum{}.Solve(context.Background(), simplexProgram())
	require.NoError(t, err)

	assert.InDelta(t, -13, sol.Objective, delta)
	for i, x := range []float64{5, 4, 0} {
		assert.InDelta(t, x, sol.X[i], delta)
	}
}

func TestGonumShiftedAndFreeVariables(t *testing.T) {
	p := &Program{
		// x in [1,3], y <= 5, z free
		Objective: []float64{1, 1, -1},
		Lower:     []float64{1, math.Inf(-1), math.Inf(-1)},
		Upper:     []float64{3, 5, inf},
		Rows: []Row{
			{Index: []int{0, 1}, Value: []float64{1, 1}, Lower: 2, Upper: inf},
			{Index: []int{0, 2}, Value: []float64{1, 1}, Lower: math.Inf(-1), Upper: 4},
		},
	}

	sol, err := Gonum{}.Solve(context.Background(), p)
	require.NoError(t, err)

	// y = 2-x and z = 4-x at the optimum, leaving x-2
	assert.InDelta(t, -1, sol.Objective, delta)
	assert.InDelta(t, 1, sol.X[0], delta)
	assert.InDelta(t, 3, sol.X[2], delta)
}

func TestGonumInfeasible(t *testing.T) {
	p := &Program{
		Objective: []float64{1},
		Lower:     []float64{0},
		Upper:     []float64{1},
		Rows: []Row{
			{Index: []int{0}, Value: []float64{1}, Lower: 2, Upper: inf},
		},
	}

	_, err := Gonum{}.Solve(context.Background(), p)
	assert.ErrorIs(t, err, ErrInfeasible)
}

func TestGonumCrossedBounds(t *testing.T) {
	p := &Program{
		Objective: []float64{1},
		Lower:     []float64{3},
		Upper:     []float64{2},
	}

	_, err := Gonum{}.Solve(context.Background(), p)
	assert.ErrorIs(t, err, ErrInfeasible)
}

func TestGonumEmptyRow(t *testing.T) {
	p := &Program{
		Objective: []float64{1},
		Lower:     []float64{0},
		Upper:     []float64{1},
		Rows:      []Row{{Lower: 1, Upper: 2}},
	}

	_, err := Gonum{}.Solve(context.Background(), p)
	assert.ErrorIs(t, err, ErrInfeasible)
}

func TestGonumUnbounded(t *testing.T) {
	p := &Program{
		Objective: []float64{-1},
		Lower:     []float64{math.Inf(-1)},
		Upper:     []float64{inf},
	}

	_, err := Gonum{}.Solve(context.Background(), p)
	assert.ErrorIs(t, err, ErrUnbounded)
}

func TestGonumNoRows(t *testing.T) {
	p := &Program{
		Objective: []float64{2, 1},
		Lower:     []float64{1, -2},
		Upper:     []float64{inf, 0},
	}

	sol, err := Gonum{}.Solve(context.Background(), p)
	require.NoError(t, err)

	assert.InDelta(t, 0, sol.Objective, delta)
	assert.InDelta(t, 1, sol.X[0], delta)
	assert.InDelta(t, -2, sol.X[1], delta)
}

func TestGonumCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Gonum{}.Solve(ctx, simplexProgram())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCheck(t *testing.T) {
	p := &Program{
		Objective: []float64{1, 1},
		Lower:     []float64{0, 0},
		Upper:     []float64{1, 1},
		Rows:      []Row{{Index: []int{2}, Value: []float64{1}}},
	}
	assert.ErrorIs(t, p.Check(), ErrInvalidProgram)

	p.Rows = []Row{{Index: []int{0}, Value: []float64{1, 2}}}
	assert.ErrorIs(t, p.Check(), ErrInvalidProgram)

	p.Upper = []float64{1}
	assert.ErrorIs(t, p.Check(), ErrInvalidProgram)
}
