package relational

import (
	"github.com/leapstack-labs/leapgraph/pkg/graph"
	"github.com/leapstack-labs/leapgraph/pkg/source"
)

// Mapper is a compiled relational mapper. Transform holds the table
// rewrites it declares.
type Mapper struct {
	graph.Base
	path      string
	Databases map[*Database]string
	Schemas   map[*Schema]string
	Tables    map[*Table]string
	Transform *TransformationMap
}

// NewMapper creates a mapper with no rewrites.
func NewMapper(path string, loc *source.Info) *Mapper {
	return &Mapper{
		Base:      graph.NewBase(loc),
		path:      path,
		Databases: make(map[*Database]string),
		Schemas:   make(map[*Schema]string),
		Tables:    make(map[*Table]string),
		Transform: NewTransformationMap(),
	}
}

func (m *Mapper) Path() string { return m.path }
func (m *Mapper) Kind() string { return "relationalMapper" }

// Rewrite returns the pointer t maps to after applying, in order, the
// database, schema and table renames.
func (m *Mapper) Rewrite(t *Table) TablePtr {
	p := t.Ptr()
	if name, ok := m.Databases[t.Schema.Database]; ok {
		p.Database = name
	}
	if name, ok := m.Schemas[t.Schema]; ok {
		p.Schema = name
	}
	if name, ok := m.Tables[t]; ok {
		p.Table = name
	}
	return p
}

// Affected returns every table touched by at least one rename, databases
// first, then schemas, then tables, each in declaration order.
func (m *Mapper) Affected(databases []*Database, schemas []*Schema, tables []*Table) []*Table {
	seen := make(map[*Table]bool)
	var out []*Table
	add := func(t *Table) {
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	for _, d := range databases {
		for _, t := range d.Tables() {
			add(t)
		}
	}
	for _, s := range schemas {
		for _, t := range s.Tables {
			add(t)
		}
	}
	for _, t := range tables {
		add(t)
	}
	return out
}

// Apply fills Transform with the rewrite of every affected table.
func (m *Mapper) Apply(databases []*Database, schemas []*Schema, tables []*Table) {
	for _, t := range m.Affected(databases, schemas, tables) {
		m.Transform.AddMapping(t.Ptr(), m.Rewrite(t))
	}
}
