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
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"
)

const defaultTolerance = 1e-10

// Gonum is a pure Go Backend built on gonum's simplex implementation.
// The program is brought into standard form (x >= 0, A·x = b) by shifting
// bounded variables, splitting free ones and adding one slack per
// inequality.
type Gonum struct {
	// Tolerance passed to lp.Simplex; zero selects a default.
	Tolerance float64
}

// column describes how an original variable is expressed through the
// standard form columns: x = offset + sum(sign[k] * y[cols[k]]).
type column struct {
	offset float64
	cols   []int
	signs  []float64
}

type stdRow struct {
	coefs []float64 // over the structural standard form columns
	rhs   float64
	slack float64 // +1 for <=, -1 for >=, 0 for equality
}

func (g Gonum) Solve(ctx context.Context, p *Program) (*Solution, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := p.Check(); err != nil {
		return nil, err
	}

	n := p.NumVars()
	mapping := make([]column, n)
	ny := 0
	for j := 0; j < n; j++ {
		lo, up := p.Lower[j], p.Upper[j]
		if lo > up {
			return nil, ErrInfeasible
		}
		switch {
		case !math.IsInf(lo, -1):
			mapping[j] = column{offset: lo, cols: []int{ny}, signs: []float64{1}}
			ny++
		case !math.IsInf(up, 1):
			mapping[j] = column{offset: up, cols: []int{ny}, signs: []float64{-1}}
			ny++
		default:
			mapping[j] = column{cols: []int{ny, ny + 1}, signs: []float64{1, -1}}
			ny += 2
		}
	}

	cost := make([]float64, ny)
	for j, m := range mapping {
		for k, col := range m.cols {
			cost[col] += m.signs[k] * p.Objective[j]
		}
	}

	var rows []stdRow
	addRow := func(coefs []float64, constant, lo, up float64) error {
		empty := true
		for _, v := range coefs {
			if v != 0 {
				empty = false
				break
			}
		}
		if empty {
			if constant < lo-feasTol || constant > up+feasTol {
				return ErrInfeasible
			}
			return nil
		}
		switch {
		case lo == up:
			rows = append(rows, stdRow{coefs: coefs, rhs: up - constant})
		default:
			if !math.IsInf(up, 1) {
				rows = append(rows, stdRow{coefs: coefs, rhs: up - constant, slack: 1})
			}
			if !math.IsInf(lo, -1) {
				rows = append(rows, stdRow{coefs: coefs, rhs: lo - constant, slack: -1})
			}
		}
		return nil
	}

	for _, row := range p.Rows {
		coefs := make([]float64, ny)
		var constant float64
		for k, j := range row.Index {
			m := mapping[j]
			constant += row.Value[k] * m.offset
			for c, col := range m.cols {
				coefs[col] += row.Value[k] * m.signs[c]
			}
		}
		if err := addRow(coefs, constant, row.Lower, row.Upper); err != nil {
			return nil, err
		}
	}

	// the shifted column of a doubly bounded variable needs y <= up-lo
	for j, m := range mapping {
		lo, up := p.Lower[j], p.Upper[j]
		if len(m.cols) != 1 || math.IsInf(lo, -1) || math.IsInf(up, 1) {
			continue
		}
		coefs := make([]float64, ny)
		coefs[m.cols[0]] = 1
		rows = append(rows, stdRow{coefs: coefs, rhs: up - lo, slack: 1})
	}

	// columns absent from every row would make A rank deficient
	used := make([]bool, ny)
	for _, r := range rows {
		for col, v := range r.coefs {
			if v != 0 {
				used[col] = true
			}
		}
	}
	remap := make([]int, ny)
	nused := 0
	for col := range used {
		if !used[col] {
			if cost[col] < 0 {
				return nil, ErrUnbounded
			}
			remap[col] = -1
			continue
		}
		remap[col] = nused
		nused++
	}

	y := make([]float64, ny)
	if len(rows) > 0 {
		nslack := 0
		for _, r := range rows {
			if r.slack != 0 {
				nslack++
			}
		}
		m, ncols := len(rows), nused+nslack
		if m > ncols {
			return nil, fmt.Errorf("%w: %d equality rows over %d columns", ErrNumerical, m, ncols)
		}

		c := make([]float64, ncols)
		for col := range cost {
			if remap[col] >= 0 {
				c[remap[col]] = cost[col]
			}
		}
		A := mat.NewDense(m, ncols, nil)
		b := make([]float64, m)
		slack := nused
		for i, r := range rows {
			sign := 1.0
			if r.rhs < 0 {
				sign = -1
			}
			for col, v := range r.coefs {
				if v != 0 {
					A.Set(i, remap[col], sign*v)
				}
			}
			if r.slack != 0 {
				A.Set(i, slack, sign*r.slack)
				slack++
			}
			b[i] = sign * r.rhs
		}

		tol := g.Tolerance
		if tol == 0 {
			tol = defaultTolerance
		}
		_, optX, err := lp.Simplex(c, A, b, tol, nil)
		if err != nil {
			return nil, gonumError(err)
		}
		for col := range y {
			if remap[col] >= 0 {
				y[col] = optX[remap[col]]
			}
		}
	}

	sol := &Solution{X: make([]float64, n)}
	for j, m := range mapping {
		x := m.offset
		for k, col := range m.cols {
			x += m.signs[k] * y[col]
		}
		sol.X[j] = x
		sol.Objective += p.Objective[j] * x
	}

	return sol, nil
}

const feasTol = 1e-9

func gonumError(err error) error {
	switch {
	case errors.Is(err, lp.ErrInfeasible):
		return ErrInfeasible
	case errors.Is(err, lp.ErrUnbounded):
		return ErrUnbounded
	default:
		return fmt.Errorf("%w: %v", ErrNumerical, err)
	}
}
