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

/*
Package relax describes the linear programming relaxations solved while
probing and defines the Backend interface implemented by the LP solvers.

A Program is always a minimization:

	minimize    c·x
	subject to  Rows[i].Lower <= Rows[i]·x <= Rows[i].Upper
	            Lower[j] <= x[j] <= Upper[j]

Infinite bounds are expressed with math.Inf. Rows are sparse.
*/
package relax

import (
	"context"
	"errors"
	"fmt"
	"math"
)

var (
	ErrInfeasible     = errors.New("relax: program is infeasible")
	ErrUnbounded      = errors.New("relax: program is unbounded")
	ErrNumerical      = errors.New("relax: numerical failure while solving")
	ErrInvalidProgram = errors.New("relax: invalid program")
)

// Row is a sparse constraint Lower <= sum(Value[k]*x[Index[k]]) <= Upper.
type Row struct {
	Index []int
	Value []float64
	Lower float64
	Upper float64
}

// Activity returns the row's activity for the given point.
func (r Row) Activity(x []float64) float64 {
	var act float64
	for k, j := range r.Index {
		act += r.Value[k] * x[j]
	}
	return act
}

type Program struct {
	Objective []float64
	Lower     []float64
	Upper     []float64
	Rows      []Row
}

// NumVars returns the number of columns of the program.
func (p *Program) NumVars() int {
	return len(p.Objective)
}

// Check verifies that the program is well formed. It does not check
// feasibility.
func (p *Program) Check() error {
	n := len(p.Objective)
	if len(p.Lower) != n || len(p.Upper) != n {
		return fmt.Errorf("%w: %d objective coefficients but %d lower and %d upper bounds", ErrInvalidProgram, n, len(p.Lower), len(p.Upper))
	}
	for i, row := range p.Rows {
		if len(row.Index) != len(row.Value) {
			return fmt.Errorf("%w: row %d has %d indices and %d values", ErrInvalidProgram, i, len(row.Index), len(row.Value))
		}
		for _, j := range row.Index {
			if j < 0 || j >= n {
				return fmt.Errorf("%w: row %d references column %d of %d", ErrInvalidProgram, i, j, n)
			}
		}
		if math.IsNaN(row.Lower) || math.IsNaN(row.Upper) {
			return fmt.Errorf("%w: row %d has NaN bounds", ErrInvalidProgram, i)
		}
	}
	return nil
}

// Solution is an optimal point of a Program.
type Solution struct {
	Objective float64
	X         []float64
}

// Backend solves LP relaxations. Implementations return ErrInfeasible and
// ErrUnbounded (possibly wrapped) for the respective outcomes, the context's
// error when aborted, and any other error for a failed solve.
type Backend interface {
	Solve(ctx context.Context, p *Program) (*Solution, error)
}
