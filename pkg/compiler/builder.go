package compiler

import (
	"github.com/leapstack-labs/leapgraph/pkg/graph"
	"github.com/leapstack-labs/leapgraph/pkg/protocol"
	"github.com/leapstack-labs/leapgraph/pkg/source"
)

// NewGenericType applies raw to args. It covers the bare, single-argument and
// list forms; argument order is kept and arity is not checked. The result is
// synthetic and has no location.
func NewGenericType(raw graph.Type, args ...*graph.GenericType) *graph.GenericType {
	return graph.NewGenericType(raw, args...)
}

// NewMultiplicity builds a graph multiplicity from its protocol form. The
// lower bound is taken verbatim and a missing upper bound stays unbounded.
func NewMultiplicity(m protocol.Multiplicity, loc *source.Info) (graph.Multiplicity, error) {
	var upper *int64
	if m.UpperBound != nil {
		u := int64(*m.UpperBound)
		upper = &u
	}
	return graph.NewMultiplicity(int64(m.LowerBound), upper, loc)
}

// Bounds returns the lower bound and the upper bound or nil.
func Bounds(m graph.Multiplicity) (lower int64, upper *int64) {
	if u, ok := m.UpperBound(); ok {
		return m.Lower, &u
	}
	return m.Lower, nil
}
