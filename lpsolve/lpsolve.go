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

Package lpsolve implements relax.Backend on top of lp_solve 5.5.

Every call to Solve builds a fresh lp_solve model from the program, so a
Solver may be shared between goroutines:

	solver, _ := lpsolve.New(lpsolve.WithLogger(log.Default()))
	sol, err := solver.Solve(ctx, program)
	if errors.Is(err, relax.ErrInfeasible) {
		// ...
	}

Solver output is redirected to the configured Logger. Cancelling ctx aborts
the solve through lp_solve's abort callback; a deadline also sets the
library's timeout.

*/
package lpsolve

// #cgo linux LDFLAGS: -llpsolve55
// #cgo darwin LDFLAGS: -L/usr/local/lib -llpsolve55
// #cgo darwin CFLAGS: -I/usr/local/include
// #include <lp_lib.h>
// #include <stdlib.h>
/*
// https://golang.org/issue/19837
extern int abortCallback(lprec *lp, void *userhandle);
extern void logCallback(lprec *lp, void *userhandle, char *buf);
*/
import "C"

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"
	"unsafe"

	"github.com/costela/bpstrong/relax"
)

// feasibility tolerance for rows without coefficients, which are checked
// here instead of being handed to lp_solve
const emptyRowTol = 1e-9

// Solver solves relaxations with lp_solve.
type Solver struct {
	logger Logger
}

var _ relax.Backend = (*Solver)(nil)

// New returns a Solver configured by the given options.
func New(opts ...Option) (*Solver, error) {
	s := &Solver{logger: noopLogger{}}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, fmt.Errorf("applying solver option: %w", err)
		}
	}

	return s, nil
}

// model is one lp_solve problem instance and the callback references
// registered for it.
type model struct {
	prob   *C.lprec
	n      int
	logger Logger
	logRef unsafe.Pointer
}

//export logCallback
func logCallback(prob *C.lprec, modelPtr unsafe.Pointer, msg *C.char) {
	m, ok := loadRef(modelPtr).(*model)
	if !ok {
		return
	}

	m.logger.Print(C.GoString(msg))
}

//export abortCallback
func abortCallback(prob *C.lprec, ctxPtr unsafe.Pointer) C.int {
	ctx, ok := loadRef(ctxPtr).(context.Context)
	if ok && ctx.Err() != nil {
		return C.TRUE
	}

	return C.FALSE
}

// Solve solves the program. See relax.Backend.
func (s *Solver) Solve(ctx context.Context, p *relax.Program) (*relax.Solution, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := p.Check(); err != nil {
		return nil, err
	}

	m, err := s.newModel(p)
	if err != nil {
		return nil, err
	}
	defer m.close()

	return m.solve(ctx)
}

func (s *Solver) newModel(p *relax.Program) (*model, error) {
	n := p.NumVars()

	for j := 0; j < n; j++ {
		if p.Lower[j] > p.Upper[j] {
			return nil, fmt.Errorf("%w: column %d has bounds [%g,%g]", relax.ErrInfeasible, j, p.Lower[j], p.Upper[j])
		}
	}

	prob := C.make_lp(0, C.int(n))
	if prob == nil {
		return nil, ErrNoMemory
	}

	m := &model{prob: prob, n: n, logger: s.logger}

	// disable stdout logging and redirect to our logger
	m.logRef = saveRef(m)
	C.put_logfunc(prob, (*C.lphandlestr_func)(C.logCallback), m.logRef)
	emptyName := C.CString("")
	defer C.free(unsafe.Pointer(emptyName))
	C.set_outputfile(prob, emptyName)

	C.set_minim(prob)

	if err := m.setColumns(p); err != nil {
		m.close()
		return nil, err
	}
	if err := m.addRows(p.Rows); err != nil {
		m.close()
		return nil, err
	}

	return m, nil
}

func (m *model) close() {
	if m.prob != nil {
		C.delete_lp(m.prob)
		m.prob = nil
	}
	releaseRef(m.logRef)
	m.logRef = nil
}

func (m *model) setColumns(p *relax.Program) error {
	if m.n == 0 {
		return nil
	}

	inf := float64(C.get_infinite(m.prob))
	clamp := func(v float64) C.REAL {
		return C.REAL(math.Max(-inf, math.Min(inf, v)))
	}

	row := make([]C.REAL, m.n)
	colno := make([]C.int, m.n)
	for j := 0; j < m.n; j++ {
		colno[j] = C.int(j + 1)
		row[j] = C.REAL(p.Objective[j])
	}
	if C.set_obj_fnex(m.prob, C.int(m.n), &row[0], &colno[0]) != C.TRUE {
		return fmt.Errorf("%w: setting objective", ErrNoMemory)
	}

	for j := 0; j < m.n; j++ {
		lo, up := p.Lower[j], p.Upper[j]
		col := C.int(j + 1)
		if math.IsInf(lo, -1) && math.IsInf(up, 1) {
			C.set_unbounded(m.prob, col)
			continue
		}
		C.set_bounds(m.prob, col, clamp(lo), clamp(up))
	}

	return nil
}

func (m *model) addRows(rows []relax.Row) error {
	C.set_add_rowmode(m.prob, C.TRUE)
	defer C.set_add_rowmode(m.prob, C.FALSE)

	for i, r := range rows {
		if len(r.Index) == 0 {
			if r.Lower > emptyRowTol || r.Upper < -emptyRowTol {
				return fmt.Errorf("%w: empty row %d requires [%g,%g]", relax.ErrInfeasible, i, r.Lower, r.Upper)
			}
			continue
		}

		row := make([]C.REAL, len(r.Index))
		colno := make([]C.int, len(r.Index))
		for k, j := range r.Index {
			colno[k] = C.int(j + 1)
			row[k] = C.REAL(r.Value[k])
		}
		count := C.int(len(r.Index))

		add := func(kind C.int, rh float64) error {
			if C.add_constraintex(m.prob, count, &row[0], &colno[0], kind, C.REAL(rh)) != C.TRUE {
				return fmt.Errorf("%w: adding row %d", ErrNoMemory, i)
			}
			return nil
		}

		var err error
		switch {
		case math.IsInf(r.Lower, -1) && math.IsInf(r.Upper, 1):
			// no constraint
		case math.IsInf(r.Lower, -1):
			err = add(C.LE, r.Upper)
		case math.IsInf(r.Upper, 1):
			err = add(C.GE, r.Lower)
		case r.Lower == r.Upper:
			err = add(C.EQ, r.Upper)
		default:
			if err = add(C.LE, r.Upper); err == nil {
				err = add(C.GE, r.Lower)
			}
		}
		if err != nil {
			return err
		}
	}

	return nil
}

func (m *model) solve(ctx context.Context) (*relax.Solution, error) {
	if m.n == 0 {
		return &relax.Solution{X: []float64{}}, nil
	}

	ctxRef := saveRef(ctx)
	defer releaseRef(ctxRef)
	C.put_abortfunc(m.prob, (*C.lphandle_intfunc)(C.abortCallback), ctxRef)
	defer C.put_abortfunc(m.prob, nil, nil)

	if deadline, ok := ctx.Deadline(); ok {
		secs := int64(math.Ceil(time.Until(deadline).Seconds()))
		if secs < 1 {
			secs = 1
		}
		C.set_timeout(m.prob, C.long(secs))
	}

	ret := C.solve(m.prob)

	switch ret {
	case C.OPTIMAL, C.SUBOPTIMAL:
	case C.INFEASIBLE, C.UNBOUNDED, C.DEGENERATE, C.NUMFAILURE,
		C.USERABORT, C.TIMEOUT, C.PROCFAIL, C.PROCBREAK, C.FEASFOUND,
		C.NOFEASFOUND, C.NOMEMORY:
		err := SolveError(ret)
		if (errors.Is(err, ErrUserAbort) || errors.Is(err, ErrTimeout)) && ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	default:
		return nil, fmt.Errorf("%w: unrecognized lp_solve result %d", relax.ErrNumerical, int(ret))
	}

	x := make([]C.REAL, m.n)
	if C.get_variables(m.prob, &x[0]) != C.TRUE {
		return nil, fmt.Errorf("%w: reading solution", relax.ErrNumerical)
	}

	sol := &relax.Solution{
		Objective: float64(C.get_objective(m.prob)),
		X:         make([]float64, m.n),
	}
	for j := range x {
		sol.X[j] = float64(x[j])
	}

	return sol, nil
}
