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

package colpool

import (
	"math"

	"github.com/costela/bpstrong"
)

// Pseudocosts tracks the average objective gain per unit of change of each
// variable's value, separately for both branching directions.
type Pseudocosts struct {
	down, up           []float64
	downCount, upCount []int
}

func NewPseudocosts(n int) *Pseudocosts {
	return &Pseudocosts{
		down:      make([]float64, n),
		up:        make([]float64, n),
		downCount: make([]int, n),
		upCount:   make([]int, n),
	}
}

// Update records that moving variable j by delta (negative for the down
// child) changed the LP objective by gain.
func (p *Pseudocosts) Update(j int, delta, gain float64) {
	if delta == 0 || math.IsInf(gain, 0) || math.IsNaN(gain) {
		return
	}
	unit := math.Max(gain, 0) / math.Abs(delta)
	if delta < 0 {
		p.down[j] += unit
		p.downCount[j]++
	} else {
		p.up[j] += unit
		p.upCount[j]++
	}
}

// unit returns the average unit gains of j; one for a direction without
// observations.
func (p *Pseudocosts) unit(j int) (down, up float64) {
	down, up = 1, 1
	if p.downCount[j] > 0 {
		down = p.down[j] / float64(p.downCount[j])
	}
	if p.upCount[j] > 0 {
		up = p.up[j] / float64(p.upCount[j])
	}
	return down, up
}

// PseudocostScore is the product of the estimated gains of both children.
func (p *Pseudocosts) PseudocostScore(v bpstrong.Var, solVal float64) float64 {
	down, up := p.unit(v.Index())
	frac := solVal - math.Floor(solVal)
	return bpstrong.ProductScore(down*frac, up*(1-frac))
}
