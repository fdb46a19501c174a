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

import "fmt"

// Candidate is a branching candidate: a single variable (Var2 == nil) or a
// Ryan-Foster pair. Sol1 and Sol2 are the variables' values in the current
// relaxation solution; Block is the pricing block of a pair.
type Candidate struct {
	Var1  Var
	Var2  Var
	Sol1  float64
	Sol2  float64
	Block int
}

// IsPair reports whether the candidate is a Ryan-Foster pair.
func (c Candidate) IsPair() bool {
	return c.Var2 != nil
}

func (c Candidate) String() string {
	if c.Var1 == nil {
		return "<none>"
	}
	if c.Var2 == nil {
		return c.Var1.Name()
	}
	return fmt.Sprintf("(%s,%s)", c.Var1.Name(), c.Var2.Name())
}

// Key identifies a candidate independently of the order of a pair.
type Key struct {
	lo, hi int
}

// KeyOf returns the identity of a candidate.
func KeyOf(c Candidate) Key {
	if c.Var2 == nil {
		return Key{lo: c.Var1.Index(), hi: -1}
	}
	a, b := c.Var1.Index(), c.Var2.Index()
	if a > b {
		a, b = b, a
	}
	return Key{lo: a, hi: b}
}

// BlockClass caches the block classification of an original variable.
type BlockClass int

const (
	BlockUnknown BlockClass = iota
	// BlockUnique: the variable's block, or all blocks of a linking
	// variable, have exactly one identical copy.
	BlockUnique
	// BlockLinking: the variable belongs to no block and was transferred
	// directly to the master problem.
	BlockLinking
	BlockNone
)

func (b BlockClass) String() string {
	switch b {
	case BlockUnique:
		return "unique"
	case BlockLinking:
		return "linking"
	case BlockNone:
		return "none"
	default:
		return "unknown"
	}
}

const unsetScore = -1

// Record is the state kept per candidate across nodes.
type Record struct {
	Score        float64
	IsRecent     bool
	LastEvalNode int64
	BlockClass   BlockClass
}

// HasScore reports whether a strong branching score was ever stored.
func (r *Record) HasScore() bool {
	return r.Score != unsetScore
}

// Registry assigns dense ids to candidates and stores their records. Ids
// are never reused or removed.
type Registry struct {
	ids     map[Key]int
	records []Record
}

func NewRegistry() *Registry {
	return &Registry{ids: make(map[Key]int)}
}

// Ensure registers every candidate not seen before and returns the ids of
// all given candidates, in order.
func (r *Registry) Ensure(cands []Candidate) []int {
	ids := make([]int, len(cands))
	for i, c := range cands {
		key := KeyOf(c)
		id, ok := r.ids[key]
		if !ok {
			id = len(r.records)
			r.ids[key] = id
			r.records = append(r.records, Record{
				Score:        unsetScore,
				LastEvalNode: -1,
				BlockClass:   BlockUnknown,
			})
		}
		ids[i] = id
	}
	return ids
}

// Lookup returns the id of a registered candidate.
func (r *Registry) Lookup(key Key) (int, bool) {
	id, ok := r.ids[key]
	return id, ok
}

// Record returns the record of the given id. The pointer stays valid until
// the next call to Ensure.
func (r *Registry) Record(id int) *Record {
	return &r.records[id]
}

// Len returns the number of registered candidates.
func (r *Registry) Len() int {
	return len(r.records)
}

// InvalidateAll marks every cached score as stale.
func (r *Registry) InvalidateAll() {
	for i := range r.records {
		r.records[i].IsRecent = false
	}
}
