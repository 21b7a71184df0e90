package compiler

import (
	"fmt"

	"fortio.org/safecast"

	"github.com/leapstack-labs/leapgraph/pkg/graph"
	"github.com/leapstack-labs/leapgraph/pkg/protocol"
)

// RelationTypeToProtocol projects a relation type to its protocol form,
// keeping column order, names, types and multiplicities. It does not
// validate; bounds are only narrowed to int.
func RelationTypeToProtocol(rt *graph.RelationType) (protocol.RelationType, error) {
	cols := rt.Columns()
	out := protocol.RelationType{Columns: make([]protocol.RelationColumn, 0, len(cols))}
	for _, c := range cols {
		mult, err := MultiplicityToProtocol(c.Multiplicity)
		if err != nil {
			return protocol.RelationType{}, fmt.Errorf("column %s: %w", c.Name, err)
		}
		out.Columns = append(out.Columns, protocol.RelationColumn{
			Name:         c.Name,
			GenericType:  GenericTypeToProtocol(c.GenericType),
			Multiplicity: mult,
		})
	}
	return out, nil
}

// GenericTypeToProtocol converts a generic type and its arguments.
func GenericTypeToProtocol(g *graph.GenericType) protocol.GenericType {
	out := protocol.GenericType{RawType: protocol.TypeRef{FullPath: g.RawType.Path()}}
	for _, a := range g.TypeArguments {
		out.TypeArguments = append(out.TypeArguments, GenericTypeToProtocol(a))
	}
	return out
}

// MultiplicityToProtocol reads the lower bound as an int and the upper bound
// as an int or nil.
func MultiplicityToProtocol(m graph.Multiplicity) (protocol.Multiplicity, error) {
	lower, err := safecast.Conv[int](m.Lower)
	if err != nil {
		return protocol.Multiplicity{}, fmt.Errorf("lower bound: %w", err)
	}
	out := protocol.Multiplicity{LowerBound: lower}
	if u, ok := m.UpperBound(); ok {
		upper, err := safecast.Conv[int](u)
		if err != nil {
			return protocol.Multiplicity{}, fmt.Errorf("upper bound: %w", err)
		}
		out.UpperBound = &upper
	}
	return out, nil
}
