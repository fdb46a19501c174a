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

package bpstrong

import "errors"

var (
	// ErrNoEnvironment is returned by NewSelector when a required
	// collaborator is missing.
	ErrNoEnvironment = errors.New("bpstrong: incomplete environment")
	ErrUnknownRule   = errors.New("bpstrong: unknown branching rule")
	ErrInvalidConfig = errors.New("bpstrong: invalid configuration")
	// ErrProbingUnbalanced reports a failure to open or close a probing
	// scope. The solvers are left in an undefined state.
	ErrProbingUnbalanced = errors.New("bpstrong: probing scope failure")
	// ErrLPFailure is wrapped in Decision.Err when an LP solve failed
	// during probing.
	ErrLPFailure = errors.New("bpstrong: LP failure during probing")
)
