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

package glpk

// #include <glpk.h>
import "C"

import (
	"fmt"

	"github.com/costela/bpstrong/relax"
)

// SolveError is an error code returned by glp_simplex.
type SolveError C.int

const (
	ErrInvalidBasis   = SolveError(C.GLP_EBADB)
	ErrSingularBasis  = SolveError(C.GLP_ESING)
	ErrInvalidBounds  = SolveError(C.GLP_EBOUND)
	ErrEmptyProblem   = SolveError(C.GLP_EFAIL)
	ErrIterationLimit = SolveError(C.GLP_EITLIM)
	ErrTimeLimit      = SolveError(C.GLP_ETMLIM)
	ErrNoPrimalFeas   = SolveError(C.GLP_ENOPFS)
	ErrNoDualFeas     = SolveError(C.GLP_ENODFS)
)

func (e SolveError) Error() string {
	switch e {
	case ErrInvalidBasis:
		return "initial basis invalid"
	case ErrSingularBasis:
		return "initial basis is exactly singular"
	case ErrInvalidBounds:
		return "double-bounded (auxiliary or structural) variables has incorrect bounds"
	case ErrEmptyProblem:
		return "problem instance has no rows/columns"
	case ErrIterationLimit:
		return "simplex iteration limit exceeded"
	case ErrTimeLimit:
		return "time limit exceeded"
	case ErrNoPrimalFeas:
		return "problem has no primal feasible solution"
	case ErrNoDualFeas:
		return "problem has no dual feasible solution"
	default:
		return fmt.Sprintf("unknown glpk error: %d", int(e))
	}
}

// Is maps glpk outcomes onto the relax error kinds.
func (e SolveError) Is(target error) bool {
	switch target {
	case relax.ErrInfeasible:
		return e == ErrNoPrimalFeas
	case relax.ErrUnbounded:
		return e == ErrNoDualFeas
	case relax.ErrNumerical:
		return e == ErrInvalidBasis || e == ErrSingularBasis || e == ErrIterationLimit
	}
	return false
}

func glpkError(ret C.int) error {
	if ret == 0 {
		return nil
	}
	return SolveError(ret)
}
