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

import (
	"context"
	"math"
)

// BranchScoreFunc combines the gains of the two children into one score.
type BranchScoreFunc func(downGain, upGain float64) float64

const minGain = 1e-6

// ProductScore multiplies the gains, each raised to at least 1e-6.
func ProductScore(downGain, upGain float64) float64 {
	return math.Max(downGain, minGain) * math.Max(upGain, minGain)
}

// WeightedSumScore returns (1-mu)*min + mu*max of the two gains. A term
// with zero weight is left out, so an infinite gain cannot turn the score
// into NaN.
func WeightedSumScore(mu float64) BranchScoreFunc {
	return func(downGain, upGain float64) float64 {
		lo, hi := math.Min(downGain, upGain), math.Max(downGain, upGain)
		var score float64
		if mu != 1 {
			score += (1 - mu) * lo
		}
		if mu != 0 {
			score += mu * hi
		}
		return score
	}
}

// IsKAncestor reports whether ancestor is node itself or one of its first
// k ancestors.
func IsKAncestor(tree Tree, ancestor, node int64, k int) bool {
	for i := 0; i <= k; i++ {
		if node < ancestor {
			return false
		}
		if node == ancestor {
			return true
		}
		parent, ok := tree.Parent(node)
		if !ok {
			return false
		}
		node = parent
	}
	return false
}

// fractionality is the distance of x to the nearest integer.
func fractionality(x float64) float64 {
	f := x - math.Floor(x)
	return math.Min(f, 1-f)
}

// evalCand is a candidate under evaluation together with its registry id.
type evalCand struct {
	Candidate
	id int
}

type scored struct {
	score          float64
	upInfeasible   bool
	downInfeasible bool
	// lpError stops the current phase
	lpError bool
	probed  bool
}

// scoreFunc is the signature shared by the three scoring strategies. A
// returned error is fatal.
type scoreFunc func(ctx context.Context, ec evalCand) (scored, error)

func (s *Selector) heuristicScorer(rule Rule) scoreFunc {
	h := s.cfg.heuristic(rule)

	return func(_ context.Context, ec evalCand) (scored, error) {
		var score float64
		switch {
		case h.UsePseudocosts:
			score = s.env.Heuristics.PseudocostScore(ec.Var1, ec.Sol1)
			if ec.IsPair() {
				score *= s.env.Heuristics.PseudocostScore(ec.Var2, ec.Sol2)
			}
		case h.MostFractional:
			score = fractionality(ec.Sol1)
			if ec.IsPair() {
				score *= fractionality(ec.Sol2)
			}
		default:
			score = 1
		}
		return scored{score: score}, nil
	}
}

func (s *Selector) historicalScorer() scoreFunc {
	return func(_ context.Context, ec evalCand) (scored, error) {
		return scored{score: s.reg.Record(ec.id).Score}, nil
	}
}

// probingScorer probes both children of a candidate. With pricing, a
// recent score computed at most ReevalAge edges above the current node is
// reused instead, and fully valid feasible results are stored.
func (s *Selector) probingScorer(usePricing bool) scoreFunc {
	return func(ctx context.Context, ec evalCand) (scored, error) {
		tree := s.env.Tree
		node := tree.CurrentNode()
		rec := s.reg.Record(ec.id)

		if usePricing && rec.IsRecent && IsKAncestor(tree, rec.LastEvalNode, node, s.cfg.ReevalAge) {
			recordCacheHit()
			return scored{score: rec.Score}, nil
		}

		out, err := s.probe(ctx, ec.Candidate, usePricing)
		if err != nil {
			return scored{}, err
		}
		if out.Error {
			return scored{lpError: true, probed: true}, nil
		}

		lpObj := s.env.Master.LPObjective()
		down, up := out.bounds(lpObj)
		score := s.branchScore(math.Max(down-lpObj, 0), math.Max(up-lpObj, 0))

		if usePricing && out.DownValid && out.UpValid && !out.DownInfeasible && !out.UpInfeasible {
			rec = s.reg.Record(ec.id)
			rec.Score = score
			rec.IsRecent = true
			rec.LastEvalNode = node
		}

		return scored{
			score:          score,
			upInfeasible:   out.UpInfeasible,
			downInfeasible: out.DownInfeasible,
			probed:         true,
		}, nil
	}
}
