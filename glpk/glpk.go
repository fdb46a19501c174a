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

// Package glpk implements relax.Backend with the simplex solver of GLPK.
package glpk

// #cgo LDFLAGS: -lglpk
// #include <glpk.h>
// #include <stdlib.h>
import "C"

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"time"

	"github.com/costela/bpstrong/relax"
)

// Solver solves relaxations with glp_simplex. The zero value is ready to
// use and safe for concurrent use.
type Solver struct {
	// Verbose enables GLPK's terminal output.
	Verbose bool
	// Dual selects the dual simplex method instead of the primal one.
	Dual bool
}

var _ relax.Backend = Solver{}

type BoundType C.int

const (
	NoBound     = BoundType(C.GLP_FR)
	UpperBound  = BoundType(C.GLP_UP)
	LowerBound  = BoundType(C.GLP_LO)
	DoubleBound = BoundType(C.GLP_DB)
	FixedBound  = BoundType(C.GLP_FX)
)

// boundType classifies a [lower,upper] interval the way glp_set_*_bnds
// expects it.
func boundType(lower, upper float64) BoundType {
	switch {
	case math.IsInf(lower, -1) && math.IsInf(upper, 1):
		return NoBound
	case math.IsInf(lower, -1):
		return UpperBound
	case math.IsInf(upper, 1):
		return LowerBound
	case upper == lower:
		return FixedBound
	default:
		return DoubleBound
	}
}

func finite(v float64) C.double {
	if math.IsInf(v, 0) {
		return 0
	}
	return C.double(v)
}

// Solve solves the program. See relax.Backend.
//
// GLPK keeps its environment in thread local storage, so the calling
// goroutine stays on its OS thread until the problem object is deleted.
func (s Solver) Solve(ctx context.Context, p *relax.Program) (*relax.Solution, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := p.Check(); err != nil {
		return nil, err
	}

	n := p.NumVars()
	for j := 0; j < n; j++ {
		if p.Lower[j] > p.Upper[j] {
			return nil, fmt.Errorf("%w: column %d has bounds [%g,%g]", relax.ErrInfeasible, j, p.Lower[j], p.Upper[j])
		}
	}
	if n == 0 {
		for i, r := range p.Rows {
			if r.Lower > 0 || r.Upper < 0 {
				return nil, fmt.Errorf("%w: empty row %d requires [%g,%g]", relax.ErrInfeasible, i, r.Lower, r.Upper)
			}
		}
		return &relax.Solution{X: []float64{}}, nil
	}

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	prob := C.glp_create_prob()
	defer C.glp_delete_prob(prob)

	C.glp_set_obj_dir(prob, C.GLP_MIN)

	C.glp_add_cols(prob, C.int(n))
	for j := 0; j < n; j++ {
		col := C.int(j + 1)
		C.glp_set_obj_coef(prob, col, C.double(p.Objective[j]))
		C.glp_set_col_bnds(prob, col, C.int(boundType(p.Lower[j], p.Upper[j])), finite(p.Lower[j]), finite(p.Upper[j]))
	}

	// glpk indices start at 1; index 0 is reserved
	ia := []C.int{0}
	ja := []C.int{0}
	ar := []C.double{0}

	rows := p.Rows
	if len(rows) == 0 {
		// glp_simplex rejects programs without rows
		rows = []relax.Row{{Lower: math.Inf(-1), Upper: math.Inf(1)}}
	}
	C.glp_add_rows(prob, C.int(len(rows)))
	for i, r := range rows {
		row := C.int(i + 1)
		C.glp_set_row_bnds(prob, row, C.int(boundType(r.Lower, r.Upper)), finite(r.Lower), finite(r.Upper))
		for k, j := range r.Index {
			ia = append(ia, row)
			ja = append(ja, C.int(j+1))
			ar = append(ar, C.double(r.Value[k]))
		}
	}
	C.glp_load_matrix(prob, C.int(len(ia)-1), &ia[0], &ja[0], &ar[0])

	var parm C.glp_smcp
	C.glp_init_smcp(&parm)

	if s.Verbose {
		parm.msg_lev = C.GLP_MSG_ON
	} else {
		parm.msg_lev = C.GLP_MSG_OFF
	}
	if s.Dual {
		parm.meth = C.GLP_DUALP
	}
	// presolve would hide the infeasibility status behind GLP_ENOPFS
	parm.presolve = C.GLP_OFF

	if deadline, ok := ctx.Deadline(); ok {
		ms := time.Until(deadline).Milliseconds()
		if ms < 1 {
			ms = 1
		}
		if ms < math.MaxInt32 {
			parm.tm_lim = C.int(ms)
		}
	}

	if err := glpkError(C.glp_simplex(prob, &parm)); err != nil {
		if err == ErrTimeLimit && ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	switch status := C.glp_get_status(prob); status {
	case C.GLP_OPT:
	case C.GLP_NOFEAS:
		return nil, relax.ErrInfeasible
	case C.GLP_UNBND:
		return nil, relax.ErrUnbounded
	default:
		return nil, fmt.Errorf("%w: simplex ended with status %d", relax.ErrNumerical, int(status))
	}

	sol := &relax.Solution{
		Objective: float64(C.glp_get_obj_val(prob)),
		X:         make([]float64, n),
	}
	for j := range sol.X {
		sol.X[j] = float64(C.glp_get_col_prim(prob, C.int(j+1)))
	}

	return sol, nil
}
