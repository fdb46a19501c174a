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

package lpsolve

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/costela/bpstrong/relax"
)

const (
	delta = 0.0000001 // acceptable numerical deviation for test results
)

var inf = math.Inf(1)

func newSolver(t *testing.T) *Solver {
	t.Helper()

	s, err := New()
	require.NoError(t, err)

	return s
}

func lpProgram() *relax.Program {
	return &relax.Program{
		Objective: []float64{-1, -2, 1},
		Lower:     []float64{0, 0, 0},
		Upper:     []float64{inf, inf, inf},
		Rows: []relax.Row{
			{Index: []int{0, 1, 2}, Value: []float64{2, 1, 1}, Lower: 0, Upper: 14},
			{Index: []int{0, 1, 2}, Value: []float64{4, 2, 3}, Lower: 0, Upper: 28},
			{Index: []int{0, 1, 2}, Value: []float64{2, 5, 5}, Lower: 0, Upper: 30},
		},
	}
}

func TestSolveLP(t *testing.T) {
	sol, err := newSolver(t).Solve(context.Background(), lpProgram())
	require.NoError(t, err)

	expected_xs := []float64{5, 4, 0}

	// ignore numerical inaccuracies
	assert.InDelta(t, -13.0, sol.Objective, delta)

	for i, x := range expected_xs {
		assert.InDelta(t, x, sol.X[i], delta)
	}
}

func TestSolveFreeAndUpperBounded(t *testing.T) {
	p := &relax.Program{
		Objective: []float64{1, 1, -1},
		Lower:     []float64{1, math.Inf(-1), math.Inf(-1)},
		Upper:     []float64{3, 5, inf},
		Rows: []relax.Row{
			{Index: []int{0, 1}, Value: []float64{1, 1}, Lower: 2, Upper: inf},
			{Index: []int{0, 2}, Value: []float64{1, 1}, Lower: math.Inf(-1), Upper: 4},
		},
	}

	sol, err := newSolver(t).Solve(context.Background(), p)
	require.NoError(t, err)

	assert.InDelta(t, -1.0, sol.Objective, delta)
	assert.InDelta(t, 3.0, sol.X[2], delta)
}

func TestSolveRangeRow(t *testing.T) {
	p := &relax.Program{
		Objective: []float64{-1},
		Lower:     []float64{0},
		Upper:     []float64{10},
		Rows: []relax.Row{
			{Index: []int{0}, Value: []float64{2}, Lower: 1, Upper: 7},
		},
	}

	sol, err := newSolver(t).Solve(context.Background(), p)
	require.NoError(t, err)

	assert.InDelta(t, 3.5, sol.X[0], delta)
}

func TestSolveInfeasible(t *testing.T) {
	p := &relax.Program{
		Objective: []float64{1},
		Lower:     []float64{0},
		Upper:     []float64{1},
		Rows: []relax.Row{
			{Index: []int{0}, Value: []float64{1}, Lower: 2, Upper: inf},
		},
	}

	_, err := newSolver(t).Solve(context.Background(), p)
	assert.ErrorIs(t, err, relax.ErrInfeasible)

	var solveErr SolveError
	require.True(t, errors.As(err, &solveErr))
	assert.Equal(t, ErrModelInfeasible, solveErr)
}

func TestSolveInfeasibleBounds(t *testing.T) {
	p := &relax.Program{
		Objective: []float64{1},
		Lower:     []float64{2},
		Upper:     []float64{1},
	}

	_, err := newSolver(t).Solve(context.Background(), p)
	assert.ErrorIs(t, err, relax.ErrInfeasible)
}

func TestSolveEmptyRow(t *testing.T) {
	p := &relax.Program{
		Objective: []float64{1},
		Lower:     []float64{0},
		Upper:     []float64{1},
		Rows:      []relax.Row{{Lower: math.Inf(-1), Upper: 0}},
	}

	sol, err := newSolver(t).Solve(context.Background(), p)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, sol.Objective, delta)

	p.Rows = []relax.Row{{Lower: 1, Upper: inf}}
	_, err = newSolver(t).Solve(context.Background(), p)
	assert.ErrorIs(t, err, relax.ErrInfeasible)
}

func TestSolveUnbounded(t *testing.T) {
	p := &relax.Program{
		Objective: []float64{-1, 0},
		Lower:     []float64{0, 0},
		Upper:     []float64{inf, 1},
		Rows: []relax.Row{
			{Index: []int{0, 1}, Value: []float64{1, -1}, Lower: 0, Upper: inf},
		},
	}

	_, err := newSolver(t).Solve(context.Background(), p)
	assert.ErrorIs(t, err, relax.ErrUnbounded)
}

func TestContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newSolver(t).Solve(ctx, lpProgram())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSolveErrorMessages(t *testing.T) {
	assert.Equal(t, "model is infeasible", ErrModelInfeasible.Error())
	assert.Contains(t, SolveError(-42).Error(), "-42")
	assert.ErrorIs(t, ErrNumericalFailure, relax.ErrNumerical)
	assert.NotErrorIs(t, ErrTimeout, relax.ErrInfeasible)
}

type recordingLogger struct {
	mu    sync.Mutex
	lines int
}

func (l *recordingLogger) Print(v ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines++
}

func TestWithLogger(t *testing.T) {
	logger := &recordingLogger{}
	s, err := New(WithLogger(logger))
	require.NoError(t, err)

	assert.Same(t, logger, s.logger)

	_, err = s.Solve(context.Background(), lpProgram())
	require.NoError(t, err)
}

// Try to detect non-reentrant code in underlying lib
func TestParallel(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test in short mode.")
	}

	s := newSolver(t)

	wg := sync.WaitGroup{}
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.Solve(context.Background(), lpProgram())
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
}
