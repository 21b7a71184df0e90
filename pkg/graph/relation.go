package graph

import (
	"slices"

	"github.com/leapstack-labs/leapgraph/pkg/diag"
)

// Column is a named, typed slot in a relation type. Columns are identified by
// name and position within their relation and are not graph nodes.
type Column struct {
	Name         string
	GenericType  *GenericType
	Multiplicity Multiplicity
}

// RelationType is an ordered list of columns. It is synthetic.
type RelationType struct {
	node
	columns []Column
}

// NewRelationType builds a relation type, rejecting duplicate column names.
// Names are compared case-sensitively.
func NewRelationType(columns ...Column) (*RelationType, error) {
	seen := make(map[string]struct{}, len(columns))
	for _, c := range columns {
		if _, ok := seen[c.Name]; ok {
			return nil, diag.Errorf(nil, "Duplicate column '%s' in relation type", c.Name)
		}
		seen[c.Name] = struct{}{}
	}
	return &RelationType{node: newNode(nil), columns: slices.Clone(columns)}, nil
}

// Columns returns the columns in declaration order.
func (r *RelationType) Columns() []Column {
	return slices.Clone(r.columns)
}

// Column looks up a column by name.
func (r *RelationType) Column(name string) (Column, bool) {
	for _, c := range r.columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// Len returns the number of columns.
func (r *RelationType) Len() int { return len(r.columns) }
