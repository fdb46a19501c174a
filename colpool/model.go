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
Package colpool is a compact branch-and-price environment for the strong
branching selector.

A Model is a mixed integer program whose variables double as the columns of
a restricted master problem. Only the active columns take part in the
master LP; pricing activates further columns from the pool until none is
left or the round limit is reached. Original keeps the variable domains and
the probing frames, Master solves the restricted LP through a relax.Backend
and Solver drives a depth-first branch-and-bound search that delegates its
branching decisions to a bpstrong.Selector.
*/
package colpool

import (
	"errors"
	"fmt"
	"io"
	"math"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/costela/bpstrong"
	"github.com/costela/bpstrong/relax"
)

var ErrInvalidModel = errors.New("colpool: invalid model")

// Variable is a column of the model. It implements bpstrong.Var.
type Variable struct {
	index int
	name  string

	Objective float64
	Lower     float64
	Upper     float64
	Integer   bool
	// Block is the pricing block, bpstrong.NoBlock or bpstrong.LinkingBlock.
	Block int
	// Linking lists the blocks of a linking variable.
	Linking []int
	// Active columns are part of the restricted master from the start.
	Active bool
}

func (v *Variable) Index() int   { return v.index }
func (v *Variable) Name() string { return v.name }

func (v *Variable) String() string { return v.name }

// Row is a named constraint over the model variables.
type Row struct {
	Name string
	relax.Row
}

// Model is a minimization problem. Maximize records that the objective was
// negated on loading; reported objective values are negated back.
type Model struct {
	Maximize bool

	Vars []*Variable
	Rows []Row
	// Identical maps a block to its number of identical copies; missing
	// blocks have one.
	Identical map[int]int

	byName map[string]*Variable
}

// NewModel returns an empty model.
func NewModel() *Model {
	return &Model{Identical: map[int]int{}, byName: map[string]*Variable{}}
}

// AddVar appends a variable with bounds [lower,upper] in block 0.
func (m *Model) AddVar(name string, objective, lower, upper float64, integer bool) (*Variable, error) {
	if _, ok := m.byName[name]; ok {
		return nil, fmt.Errorf("%w: duplicate variable %q", ErrInvalidModel, name)
	}
	v := &Variable{
		index:     len(m.Vars),
		name:      name,
		Objective: objective,
		Lower:     lower,
		Upper:     upper,
		Integer:   integer,
		Active:    true,
	}
	m.Vars = append(m.Vars, v)
	m.byName[name] = v
	return v, nil
}

// AddRow appends the constraint lower <= sum(coefs[name]*name) <= upper.
func (m *Model) AddRow(name string, coefs map[string]float64, lower, upper float64) error {
	row := Row{Name: name}
	row.Lower, row.Upper = lower, upper

	names := make([]string, 0, len(coefs))
	for n := range coefs {
		names = append(names, n)
	}
	sort.Slice(names, func(i, j int) bool {
		vi, vj := m.byName[names[i]], m.byName[names[j]]
		if vi == nil || vj == nil {
			return names[i] < names[j]
		}
		return vi.index < vj.index
	})

	for _, n := range names {
		v, ok := m.byName[n]
		if !ok {
			return fmt.Errorf("%w: row %q references unknown variable %q", ErrInvalidModel, name, n)
		}
		row.Index = append(row.Index, v.index)
		row.Value = append(row.Value, coefs[n])
	}
	m.Rows = append(m.Rows, row)

	return nil
}

// Var returns the variable with the given name.
func (m *Model) Var(name string) (*Variable, bool) {
	v, ok := m.byName[name]
	return v, ok
}

// NumVars returns the number of variables.
func (m *Model) NumVars() int {
	return len(m.Vars)
}

// Validate checks bounds and block references.
func (m *Model) Validate() error {
	var errs []error
	for _, v := range m.Vars {
		if math.IsNaN(v.Lower) || math.IsNaN(v.Upper) || v.Lower > v.Upper {
			errs = append(errs, fmt.Errorf("variable %q has bounds [%g,%g]", v.name, v.Lower, v.Upper))
		}
		if v.Block < bpstrong.LinkingBlock {
			errs = append(errs, fmt.Errorf("variable %q has block %d", v.name, v.Block))
		}
		if v.Block == bpstrong.LinkingBlock && len(v.Linking) == 0 {
			errs = append(errs, fmt.Errorf("linking variable %q lists no blocks", v.name))
		}
	}
	for b, n := range m.Identical {
		if n < 1 {
			errs = append(errs, fmt.Errorf("block %d has %d identical copies", b, n))
		}
	}
	p := relax.Program{
		Objective: make([]float64, len(m.Vars)),
		Lower:     make([]float64, len(m.Vars)),
		Upper:     make([]float64, len(m.Vars)),
	}
	for _, r := range m.Rows {
		p.Rows = append(p.Rows, r.Row)
	}
	if err := p.Check(); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidModel, errors.Join(errs...))
	}
	return nil
}

type yamlVar struct {
	Name      string   `yaml:"name"`
	Objective float64  `yaml:"objective"`
	Lower     *float64 `yaml:"lower"`
	Upper     *float64 `yaml:"upper"`
	Integer   bool     `yaml:"integer"`
	Binary    bool     `yaml:"binary"`
	Block     int      `yaml:"block"`
	Linking   []int    `yaml:"linking"`
	Inactive  bool     `yaml:"inactive"`
}

type yamlRow struct {
	Name  string             `yaml:"name"`
	Coefs map[string]float64 `yaml:"coefs"`
	Lower *float64           `yaml:"lower"`
	Upper *float64           `yaml:"upper"`
}

type yamlModel struct {
	Maximize  bool        `yaml:"maximize"`
	Variables []yamlVar   `yaml:"variables"`
	Rows      []yamlRow   `yaml:"rows"`
	Identical map[int]int `yaml:"identical"`
}

func orDefault(p *float64, def float64) float64 {
	if p == nil {
		return def
	}
	return *p
}

// LoadModel reads a YAML model. Variables default to [0,+inf), binary ones
// to [0,1]; rows default to (-inf,+inf). A maximization objective is
// negated.
func LoadModel(r io.Reader) (*Model, error) {
	var ym yamlModel
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&ym); err != nil {
		return nil, fmt.Errorf("decoding model: %w", err)
	}

	sign := 1.0
	if ym.Maximize {
		sign = -1
	}

	m := NewModel()
	m.Maximize = ym.Maximize
	for _, yv := range ym.Variables {
		upper := math.Inf(1)
		if yv.Binary {
			upper = 1
		}
		v, err := m.AddVar(yv.Name, sign*yv.Objective, orDefault(yv.Lower, 0), orDefault(yv.Upper, upper), yv.Integer || yv.Binary)
		if err != nil {
			return nil, err
		}
		v.Block = yv.Block
		v.Linking = yv.Linking
		v.Active = !yv.Inactive
	}
	for _, yr := range ym.Rows {
		if err := m.AddRow(yr.Name, yr.Coefs, orDefault(yr.Lower, math.Inf(-1)), orDefault(yr.Upper, math.Inf(1))); err != nil {
			return nil, err
		}
	}
	for b, n := range ym.Identical {
		m.Identical[b] = n
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// Decomposition exposes the block structure of a model.
type Decomposition struct {
	model *Model
}

func NewDecomposition(m *Model) *Decomposition {
	return &Decomposition{model: m}
}

func (d *Decomposition) Block(v bpstrong.Var) int {
	return d.model.Vars[v.Index()].Block
}

func (d *Decomposition) LinkingBlocks(v bpstrong.Var) []int {
	return d.model.Vars[v.Index()].Linking
}

func (d *Decomposition) IdenticalBlocks(block int) int {
	if n, ok := d.model.Identical[block]; ok {
		return n
	}
	return 1
}
