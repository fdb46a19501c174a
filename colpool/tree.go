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

import "math"

// Tree numbers the nodes of the search and records their parents, the dual
// bound of the current node and the incumbent value.
type Tree struct {
	parents map[int64]int64
	next    int64
	current int64
	lower   float64
	upper   float64
}

// NewTree returns a tree holding only the root, node 0.
func NewTree() *Tree {
	return &Tree{
		parents: map[int64]int64{},
		next:    1,
		lower:   math.Inf(-1),
		upper:   math.Inf(1),
	}
}

// NewChild creates a child of parent and returns its number.
func (t *Tree) NewChild(parent int64) int64 {
	id := t.next
	t.next++
	t.parents[id] = parent
	return id
}

// Focus makes node the current one with the given dual bound.
func (t *Tree) Focus(node int64, lower float64) {
	t.current = node
	t.lower = lower
}

// SetLowerBound updates the dual bound of the current node.
func (t *Tree) SetLowerBound(lower float64) {
	t.lower = lower
}

// Improve records a new incumbent value if it is better than the current
// one and reports whether it was.
func (t *Tree) Improve(value float64) bool {
	if value < t.upper {
		t.upper = value
		return true
	}
	return false
}

// Nodes returns the number of nodes created, the root included.
func (t *Tree) Nodes() int64 {
	return t.next
}

func (t *Tree) CurrentNode() int64 { return t.current }

func (t *Tree) Parent(node int64) (int64, bool) {
	p, ok := t.parents[node]
	return p, ok
}

func (t *Tree) NodeLowerBound() float64 { return t.lower }
func (t *Tree) UpperBound() float64     { return t.upper }
