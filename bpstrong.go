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

Package bpstrong selects branching candidates for a branch-and-price solver
by strong branching.

At each node the fractional candidates (single variables for original
branching, variable pairs for Ryan-Foster branching) pass through a funnel
of three phases:

    phase 0: rank by a cheap heuristic (pseudocosts or fractionality),
             blended with scores remembered from earlier strong branching
    phase 1: probe the survivors by solving the master LP without pricing
    phase 2: probe the best ones with pricing and pick the winner

The number of survivors of phases 0 and 1 shrinks with the node gap, so
nodes close to the incumbent are evaluated more thoroughly. Scores computed
with pricing are cached per candidate and reused at descendant nodes.

The solver itself is not part of this package; it is reached through the
interfaces bundled in Environment. A typical call looks like this:

	sel, err := bpstrong.NewSelector(bpstrong.Environment{
		Tree:          tree,
		Original:      orig,
		Master:        master,
		Heuristics:    pseudocosts,
		Decomposition: decomp,
	}, bpstrong.WithConfig(cfg))
	if err != nil {
		// ...
	}

	decision, err := sel.Select(ctx, bpstrong.RuleOriginal, candidates)
	if err != nil {
		// fatal: the solver broke the probing contract
	}

	switch decision.Result {
	case bpstrong.ResultBranched:
		// branch on decision.Candidate, skipping infeasible children
	case bpstrong.ResultCutoff:
		// the node is infeasible
	}

*/
package bpstrong

import "context"

// Var is a solver variable. Index must be stable for the lifetime of the
// solve and unique among all variables handed to a Selector.
type Var interface {
	Index() int
	Name() string
}

// BoundSide selects the bound changed by OriginalProblem.TightenBound.
type BoundSide int

const (
	LowerBound BoundSide = iota
	UpperBound
)

func (s BoundSide) String() string {
	if s == LowerBound {
		return "lower"
	}
	return "upper"
}

// Coupling is the sense of a Ryan-Foster coupling constraint.
type Coupling int

const (
	// Differ forbids both variables being one at the same time.
	Differ Coupling = iota
	// Same forces both variables to take the same value.
	Same
)

func (c Coupling) String() string {
	if c == Same {
		return "same"
	}
	return "differ"
}

// Block numbers returned by Decomposition.Block besides the pricing blocks.
const (
	NoBlock      = -1 // transferred directly to the master problem
	LinkingBlock = -2 // appears in several blocks
)

// Tree gives access to the branch-and-bound tree. Node numbers strictly
// increase from a parent to its children; the root has no parent.
type Tree interface {
	CurrentNode() int64
	Parent(node int64) (parent int64, ok bool)
	// NodeLowerBound is the dual bound of the current node.
	NodeLowerBound() float64
	// UpperBound is the global primal bound.
	UpperBound() float64
}

// OriginalProblem is the probing surface of the original problem's solver.
type OriginalProblem interface {
	OpenProbing() error
	NewProbingNode() error
	CloseProbing() error
	TightenBound(v Var, side BoundSide, value float64) error
	AddCouplingConstraint(a, b Var, sense Coupling) error
	// Propagate reports whether domain propagation proved the probing node
	// infeasible.
	Propagate() (cutoff bool, err error)
}

// Relaxation is the outcome of a master LP solve.
type Relaxation struct {
	Objective float64
	Solved    bool
	Cutoff    bool
	Error     bool
}

// MasterProblem is the probing surface of the master problem's solver.
// OpenProbing mirrors the probing node currently open in the original
// problem; it must only be called while one is.
type MasterProblem interface {
	OpenProbing() error
	CloseProbing() error
	// SolveRelaxation solves the master LP of the probing node. A negative
	// maxPricingRounds means no limit.
	SolveRelaxation(ctx context.Context, usePricing bool, maxPricingRounds int) (Relaxation, error)
	// LPObjective is the master LP objective of the current node.
	LPObjective() float64
}

// Heuristics provides pseudocost information.
type Heuristics interface {
	PseudocostScore(v Var, solVal float64) float64
}

// Decomposition describes the block structure of the original variables.
type Decomposition interface {
	// Block returns the pricing block of v, NoBlock or LinkingBlock.
	Block(v Var) int
	// LinkingBlocks returns the blocks a linking variable appears in.
	LinkingBlocks(v Var) []int
	// IdenticalBlocks returns the number of identical copies of a block.
	IdenticalBlocks(block int) int
}

// Environment bundles the solver collaborators a Selector drives.
// Decomposition is needed for RuleOriginal only, Heuristics only when
// pseudocosts are configured.
type Environment struct {
	Tree          Tree
	Original      OriginalProblem
	Master        MasterProblem
	Heuristics    Heuristics
	Decomposition Decomposition
}
