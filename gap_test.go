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
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculateNCandsWorkedExample(t *testing.T) {
	assert.Equal(t, 4, CalculateNCands(2, 4, 0.7, 0.25, 0.5, 10))
}

func TestCalculateNCands(t *testing.T) {
	for _, tc := range []struct {
		min, max  int
		frac, gw  float64
		gap       float64
		n, expect int
	}{
		{10, 50, 0.7, 0.25, 1, 100, 50},
		{10, 50, 0.7, 0.25, 0, 100, 40},
		{10, 50, 0.7, 1, 0, 100, 10},
		{10, 50, 0.7, 0.25, 1, 6, 4},
		{3, 20, 0.7, 1, 0.5, 100, 12},
		{3, 20, 0.7, 1, 1, 1, 1},
		{1, 1, 0, 1, 1, 10, 1},
	} {
		got := CalculateNCands(tc.min, tc.max, tc.frac, tc.gw, tc.gap, tc.n)
		assert.Equal(t, tc.expect, got, "%+v", tc)
	}
}

func TestNCandsNeverExceedInput(t *testing.T) {
	cfg := DefaultConfig()
	for n := 1; n <= 200; n++ {
		for _, gap := range []float64{0, 0.1, 0.5, 1} {
			n0 := cfg.phase0().ncands(gap, n)
			assert.True(t, n0 >= 1 && n0 <= n, "n=%d gap=%g: %d", n, gap, n0)
		}
	}
}

func TestNodeGap(t *testing.T) {
	for _, tc := range []struct {
		lower, upper, expect float64
	}{
		{10, 20, 1},
		{10, 12, 0.2},
		{-12, -10, 0.2},
		{-1, 1, 1},
		{5, 5, 0},
		{0, 0, 0},
		{0, 3, 1},
		{10, math.Inf(1), 1},
	} {
		assert.InDelta(t, tc.expect, NodeGap(tc.lower, tc.upper), delta, "lower=%g upper=%g", tc.lower, tc.upper)
	}
}
