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
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/costela/bpstrong"
)

const delta = 0.0000001 // acceptable numerical deviation for test results

const knapsackYAML = `
maximize: true
variables:
  - {name: a, objective: 10, binary: true}
  - {name: b, objective: 13, binary: true}
  - {name: c, objective: 7, binary: true}
rows:
  - name: capacity
    coefs: {a: 4, b: 6, c: 3}
    upper: 10
`

// knapsack is max 10a+13b+7c s.t. 4a+6b+3c <= 10 over binaries, with
// optimum a=b=1 and value 23.
func knapsack(t *testing.T) *Model {
	t.Helper()

	m, err := LoadModel(strings.NewReader(knapsackYAML))
	require.NoError(t, err)

	return m
}

func TestLoadModel(t *testing.T) {
	m := knapsack(t)

	require.Equal(t, 3, m.NumVars())
	assert.True(t, m.Maximize)

	b, ok := m.Var("b")
	require.True(t, ok)
	assert.Equal(t, 1, b.Index())
	assert.Equal(t, -13.0, b.Objective)
	assert.Equal(t, 0.0, b.Lower)
	assert.Equal(t, 1.0, b.Upper)
	assert.True(t, b.Integer)
	assert.True(t, b.Active)

	require.Len(t, m.Rows, 1)
	assert.Equal(t, []int{0, 1, 2}, m.Rows[0].Index)
	assert.Equal(t, []float64{4, 6, 3}, m.Rows[0].Value)
	assert.True(t, math.IsInf(m.Rows[0].Lower, -1))
	assert.Equal(t, 10.0, m.Rows[0].Upper)
}

func TestLoadModelBlocks(t *testing.T) {
	m, err := LoadModel(strings.NewReader(`
variables:
  - {name: x, block: 0, inactive: true}
  - {name: y, block: -1}
  - {name: z, block: -2, linking: [0, 1], lower: -1, upper: 2, integer: true}
identical: {1: 3}
`))
	require.NoError(t, err)

	x, _ := m.Var("x")
	assert.False(t, x.Active)
	assert.True(t, math.IsInf(x.Upper, 1))

	d := NewDecomposition(m)
	z, _ := m.Var("z")
	y, _ := m.Var("y")
	assert.Equal(t, bpstrong.NoBlock, d.Block(y))
	assert.Equal(t, bpstrong.LinkingBlock, d.Block(z))
	assert.Equal(t, []int{0, 1}, d.LinkingBlocks(z))
	assert.Equal(t, 1, d.IdenticalBlocks(0))
	assert.Equal(t, 3, d.IdenticalBlocks(1))
}

func TestLoadModelErrors(t *testing.T) {
	for name, doc := range map[string]string{
		"unknown key":       "variables: [{name: x, cost: 1}]",
		"duplicate":         "variables: [{name: x}, {name: x}]",
		"unknown variable":  "variables: [{name: x}]\nrows: [{name: r, coefs: {y: 1}}]",
		"crossed bounds":    "variables: [{name: x, lower: 2, upper: 1}]",
		"linking no blocks": "variables: [{name: x, block: -2}]",
		"bad block":         "variables: [{name: x, block: -3}]",
		"identical":         "variables: [{name: x}]\nidentical: {0: 0}",
		"empty":             "",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := LoadModel(strings.NewReader(doc))
			assert.Error(t, err)
		})
	}
}

func TestModelValidateWraps(t *testing.T) {
	m := NewModel()
	v, err := m.AddVar("x", 1, 0, 1, false)
	require.NoError(t, err)
	v.Lower = 3

	assert.ErrorIs(t, m.Validate(), ErrInvalidModel)
}
