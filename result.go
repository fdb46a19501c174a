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

/* Types */

// Rule is the branching rule a candidate list belongs to.
type Rule int

const (
	// RuleOriginal branches on single original variables.
	RuleOriginal Rule = iota
	// RuleRyanFoster branches on pairs of variables.
	RuleRyanFoster
)

func (r Rule) String() string {
	switch r {
	case RuleOriginal:
		return "original"
	case RuleRyanFoster:
		return "ryanfoster"
	default:
		return "unknown"
	}
}

// Result is the outcome of Selector.Select.
type Result int

const (
	// ResultDidNotRun: no decision could be taken, see Decision.Err.
	ResultDidNotRun Result = iota
	// ResultBranched: Decision.Candidate should be branched on.
	ResultBranched
	// ResultCutoff: both children of a candidate are infeasible, so the
	// node is.
	ResultCutoff
	// ResultNoCandidate: no candidate survived block classification.
	ResultNoCandidate
)

func (r Result) String() string {
	switch r {
	case ResultDidNotRun:
		return "didnotrun"
	case ResultBranched:
		return "branched"
	case ResultCutoff:
		return "cutoff"
	case ResultNoCandidate:
		return "nocandidate"
	default:
		return "unknown"
	}
}

// Decision is the branching decision of one Select call.
type Decision struct {
	Result    Result
	Candidate Candidate

	// UpInfeasible and DownInfeasible report children of Candidate proved
	// infeasible with pricing. The caller does not need to create them.
	UpInfeasible   bool
	DownInfeasible bool

	// Score is the winning candidate's score in the last phase it was
	// evaluated in.
	Score float64

	// Survivors holds the number of candidates kept after phases 0, 1
	// and 2.
	Survivors [3]int

	// Err is set when the funnel was cut short, with ResultDidNotRun or
	// with the best decision found before the failure.
	Err error
}
