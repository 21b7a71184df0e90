// Package relational holds the relational store nodes of the model graph and
// the table rewrite table used when compiling relational mappers.
package relational

import (
	"iter"
	"maps"

	"github.com/leapstack-labs/leapgraph/pkg/protocol"
)

// TablePtr names a table by value. Two pointers to the same table are equal
// regardless of where they were created.
type TablePtr struct {
	Database string `json:"database" msgpack:"database"`
	Schema   string `json:"schema" msgpack:"schema"`
	Table    string `json:"table" msgpack:"table"`
}

// PtrFrom drops the location of a protocol table pointer.
func PtrFrom(p protocol.TablePtr) TablePtr {
	return TablePtr{Database: p.Database, Schema: p.Schema, Table: p.Table}
}

func (p TablePtr) String() string {
	return p.Database + "." + p.Schema + "." + p.Table
}

// TransformationMap rewrites old table pointers to new ones. It is filled
// during one mapper compilation and read afterwards; it is not safe for
// concurrent writes.
type TransformationMap struct {
	m     map[TablePtr]TablePtr
	order []TablePtr
}

// NewTransformationMap returns an empty map.
func NewTransformationMap() *TransformationMap {
	return &TransformationMap{m: make(map[TablePtr]TablePtr)}
}

// AddMapping maps from to to, replacing any earlier mapping for from.
// Several pointers may map to the same target.
func (t *TransformationMap) AddMapping(from, to TablePtr) {
	if _, ok := t.m[from]; !ok {
		t.order = append(t.order, from)
	}
	t.m[from] = to
}

// Mappings returns a read-only view of the current mappings. Later calls to
// AddMapping do not show through an existing view.
func (t *TransformationMap) Mappings() Mappings {
	return Mappings{m: maps.Clone(t.m), order: append([]TablePtr(nil), t.order...)}
}

// Mappings is an immutable view over a TransformationMap.
type Mappings struct {
	m     map[TablePtr]TablePtr
	order []TablePtr
}

// Get returns the new pointer for old.
func (v Mappings) Get(old TablePtr) (TablePtr, bool) {
	p, ok := v.m[old]
	return p, ok
}

// Apply returns the new pointer for p, or p itself when unmapped.
func (v Mappings) Apply(p TablePtr) TablePtr {
	if n, ok := v.m[p]; ok {
		return n
	}
	return p
}

func (v Mappings) Len() int { return len(v.m) }

// All yields mappings in first-insertion order of the old pointer.
func (v Mappings) All() iter.Seq2[TablePtr, TablePtr] {
	return func(yield func(TablePtr, TablePtr) bool) {
		for _, old := range v.order {
			if !yield(old, v.m[old]) {
				return
			}
		}
	}
}
