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

import "math"

// NodeGap returns the normalized gap in [0,1] between the node's dual
// bound and the global primal bound. Bounds of different sign, infinite
// bounds and a zero denominator all count as the full gap.
func NodeGap(lower, upper float64) float64 {
	if (upper >= 0) != (lower >= 0) {
		return 1
	}
	if math.IsInf(lower, 0) || math.IsInf(upper, 0) || math.IsNaN(lower) || math.IsNaN(upper) {
		return 1
	}
	den := math.Min(math.Abs(upper), math.Abs(lower))
	if den == 0 {
		if upper == lower {
			return 0
		}
		return 1
	}
	return math.Min(math.Abs(upper-lower)/den, 1)
}

// CalculateNCands returns how many candidates should survive a phase with
// nInput candidates. The count moves from min towards max as the gap grows,
// gapWeight controlling how much the gap matters, and never exceeds
// candFrac*nInput. The result is at least one.
func CalculateNCands(min, max int, candFrac, gapWeight, gap float64, nInput int) int {
	dif := float64(max - min)
	inner := math.Min(dif, dif*gap*gapWeight+dif*(1-gapWeight))
	n := int(math.Min(candFrac*float64(nInput), float64(min)+math.Ceil(inner)))
	if n < 1 {
		return 1
	}
	return n
}

type phaseParams struct {
	min, max  int
	candFrac  float64
	gapWeight float64
}

func (p phaseParams) ncands(gap float64, nInput int) int {
	return CalculateNCands(p.min, p.max, p.candFrac, p.gapWeight, gap, nInput)
}
