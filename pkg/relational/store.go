package relational

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/leapgraph/pkg/diag"
	"github.com/leapstack-labs/leapgraph/pkg/graph"
	"github.com/leapstack-labs/leapgraph/pkg/source"
)

// Database is a relational store element.
type Database struct {
	graph.Base
	graph.Annotations
	path           string
	IncludedStores []*Database
	Schemas        []*Schema
}

// NewDatabase creates an empty database.
func NewDatabase(path string, loc *source.Info) *Database {
	return &Database{Base: graph.NewBase(loc), path: path}
}

func (d *Database) Path() string { return d.path }
func (d *Database) Kind() string { return "database" }

// AddSchema appends a schema. It fails when the name is taken.
func (d *Database) AddSchema(name string, loc *source.Info) (*Schema, error) {
	for _, s := range d.Schemas {
		if s.Name == name {
			return nil, diag.Errorf(loc, "Duplicated schema '%s' in database '%s'", name, d.path)
		}
	}
	s := &Schema{Base: graph.NewBase(loc), Name: name, Database: d}
	d.Schemas = append(d.Schemas, s)
	return s, nil
}

// Schema looks up a schema declared by d or, depth first, by its included
// stores.
func (d *Database) Schema(name string) (*Schema, bool) {
	return d.schema(name, map[*Database]bool{})
}

func (d *Database) schema(name string, seen map[*Database]bool) (*Schema, bool) {
	if seen[d] {
		return nil, false
	}
	seen[d] = true
	for _, s := range d.Schemas {
		if s.Name == name {
			return s, true
		}
	}
	for _, inc := range d.IncludedStores {
		if s, ok := inc.schema(name, seen); ok {
			return s, true
		}
	}
	return nil, false
}

// Table looks up schema.table, following included stores.
func (d *Database) Table(schema, table string) (*Table, bool) {
	s, ok := d.Schema(schema)
	if !ok {
		return nil, false
	}
	return s.Table(table)
}

// Tables returns every table declared directly by d.
func (d *Database) Tables() []*Table {
	var out []*Table
	for _, s := range d.Schemas {
		out = append(out, s.Tables...)
	}
	return out
}

// Schema is a named group of tables.
type Schema struct {
	graph.Base
	Name     string
	Database *Database
	Tables   []*Table
}

// AddTable appends a table. It fails when the name is taken.
func (s *Schema) AddTable(name string, loc *source.Info) (*Table, error) {
	if _, ok := s.Table(name); ok {
		return nil, diag.Errorf(loc, "Duplicated table '%s' in schema '%s'", name, s.Name)
	}
	t := &Table{Base: graph.NewBase(loc), Name: name, Schema: s}
	s.Tables = append(s.Tables, t)
	return t, nil
}

// Table looks up a table by name.
func (s *Schema) Table(name string) (*Table, bool) {
	for _, t := range s.Tables {
		if t.Name == name {
			return t, true
		}
	}
	return nil, false
}

// Table is a relational table.
type Table struct {
	graph.Base
	Name       string
	Schema     *Schema
	Columns    []*Column
	PrimaryKey []*Column
}

// Ptr returns the value pointer of t.
func (t *Table) Ptr() TablePtr {
	return TablePtr{Database: t.Schema.Database.Path(), Schema: t.Schema.Name, Table: t.Name}
}

// AddColumn appends a column. It fails when the name is taken.
func (t *Table) AddColumn(name, typ string, nullable bool, loc *source.Info) (*Column, error) {
	if _, ok := t.Column(name); ok {
		return nil, diag.Errorf(loc, "Duplicated column '%s' in table '%s'", name, t.Name)
	}
	c := &Column{Base: graph.NewBase(loc), Name: name, Type: typ, Nullable: nullable, Table: t}
	t.Columns = append(t.Columns, c)
	return c, nil
}

// Column looks up a column by name.
func (t *Table) Column(name string) (*Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// RelationType projects the table's columns: nullable columns are [0..1],
// the others [1].
func (t *Table) RelationType(m *graph.Model) (*graph.RelationType, error) {
	cols := make([]graph.Column, 0, len(t.Columns))
	for _, c := range t.Columns {
		name, err := PrimitiveFor(c.Type)
		if err != nil {
			return nil, diag.Errorf(c.Location(), "%s", err)
		}
		prim, ok := m.Primitive(name)
		if !ok {
			return nil, diag.Errorf(c.Location(), "Can't find type '%s'", name)
		}
		mult := graph.PureOne
		if c.Nullable {
			mult = graph.ZeroOne
		}
		cols = append(cols, graph.Column{Name: c.Name, GenericType: graph.NewGenericType(prim), Multiplicity: mult})
	}
	return graph.NewRelationType(cols...)
}

// Column is a typed table column.
type Column struct {
	graph.Base
	Name     string
	Type     string
	Nullable bool
	Table    *Table
}

var sqlPrimitives = map[string]string{
	"CHAR":      graph.String,
	"VARCHAR":   graph.String,
	"TEXT":      graph.String,
	"INT":       graph.Integer,
	"INTEGER":   graph.Integer,
	"BIGINT":    graph.Integer,
	"SMALLINT":  graph.Integer,
	"TINYINT":   graph.Integer,
	"FLOAT":     graph.Float,
	"DOUBLE":    graph.Float,
	"REAL":      graph.Float,
	"DECIMAL":   graph.Decimal,
	"NUMERIC":   graph.Decimal,
	"BIT":       graph.Boolean,
	"BOOLEAN":   graph.Boolean,
	"DATE":      graph.StrictDate,
	"TIMESTAMP": graph.DateTime,
	"BINARY":    graph.Binary,
	"VARBINARY": graph.Binary,
}

// PrimitiveFor maps a column type such as VARCHAR(200) to a primitive type
// name. The size suffix and case are ignored.
func PrimitiveFor(sqlType string) (string, error) {
	base := strings.ToUpper(strings.TrimSpace(sqlType))
	if i := strings.IndexByte(base, '('); i >= 0 {
		base = strings.TrimSpace(base[:i])
	}
	if p, ok := sqlPrimitives[base]; ok {
		return p, nil
	}
	return "", fmt.Errorf("unsupported column type '%s'", sqlType)
}
