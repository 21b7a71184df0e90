package compiler

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapgraph/pkg/diag"
	"github.com/leapstack-labs/leapgraph/pkg/graph"
	"github.com/leapstack-labs/leapgraph/pkg/protocol"
)

func TestRelationTypeRoundTrip(t *testing.T) {
	ctx, _ := newTestContext(t)

	in := protocol.RelationType{Columns: []protocol.RelationColumn{
		{
			Name:         "id",
			GenericType:  protocol.GenericType{RawType: protocol.TypeRef{FullPath: graph.Integer}},
			Multiplicity: protocol.Multiplicity{LowerBound: 1},
		},
		{
			Name:         "tags",
			GenericType:  protocol.GenericType{RawType: protocol.TypeRef{FullPath: graph.String}},
			Multiplicity: protocol.Multiplicity{LowerBound: 0, UpperBound: intPtr(5)},
		},
	}}

	rt, err := ctx.BuildRelationType(in)
	require.NoError(t, err)
	require.Equal(t, 2, rt.Len())

	id, ok := rt.Column("id")
	require.True(t, ok)
	assert.True(t, id.Multiplicity.IsUnbounded(), "missing upper bound stays unbounded")
	assert.Equal(t, int64(1), id.Multiplicity.Lower)

	out, err := RelationTypeToProtocol(rt)
	require.NoError(t, err)
	require.Len(t, out.Columns, 2)

	assert.Equal(t, "id", out.Columns[0].Name)
	assert.Equal(t, graph.Integer, out.Columns[0].GenericType.RawType.FullPath)
	assert.Equal(t, 1, out.Columns[0].Multiplicity.LowerBound)
	assert.Nil(t, out.Columns[0].Multiplicity.UpperBound)

	assert.Equal(t, "tags", out.Columns[1].Name)
	assert.Equal(t, 0, out.Columns[1].Multiplicity.LowerBound)
	require.NotNil(t, out.Columns[1].Multiplicity.UpperBound)
	assert.Equal(t, 5, *out.Columns[1].Multiplicity.UpperBound)
}

func TestBuildRelationType_DuplicateColumn(t *testing.T) {
	ctx, _ := newTestContext(t)

	col := protocol.RelationColumn{
		Name:        "a",
		GenericType: protocol.GenericType{RawType: protocol.TypeRef{FullPath: graph.String}},
	}
	loc := at(3, 1, 20)
	_, err := ctx.BuildRelationType(protocol.RelationType{Columns: []protocol.RelationColumn{col, col}, SourceInformation: loc})
	require.Error(t, err)

	got, ok := diag.LocationOf(err)
	require.True(t, ok)
	assert.Equal(t, *loc, *got)
}

func TestBuildRelationType_UnknownColumnType(t *testing.T) {
	ctx, _ := newTestContext(t)

	_, err := ctx.BuildRelationType(protocol.RelationType{Columns: []protocol.RelationColumn{{
		Name:        "a",
		GenericType: protocol.GenericType{RawType: protocol.TypeRef{FullPath: "Nope"}},
	}}})
	assert.Error(t, err)
}

func TestMultiplicityToProtocol(t *testing.T) {
	tests := []struct {
		name  string
		in    graph.Multiplicity
		lower int
		upper *int
	}{
		{"one", graph.PureOne, 1, intPtr(1)},
		{"zero one", graph.ZeroOne, 0, intPtr(1)},
		{"many", graph.ZeroMany, 0, nil},
		{"one many", graph.OneMany, 1, nil},
		{"bounded", graph.Bounded(2, 7), 2, intPtr(7)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MultiplicityToProtocol(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.lower, got.LowerBound)
			assert.Equal(t, tt.upper, got.UpperBound)
		})
	}
}

func TestNewMultiplicity_Invalid(t *testing.T) {
	_, err := NewMultiplicity(protocol.Multiplicity{LowerBound: 3, UpperBound: intPtr(1)}, at(1, 1, 4))
	assert.Error(t, err)

	_, err = NewMultiplicity(protocol.Multiplicity{LowerBound: -1}, nil)
	assert.Error(t, err)
}

func TestBounds(t *testing.T) {
	lower, upper := Bounds(graph.ZeroMany)
	assert.Equal(t, int64(0), lower)
	assert.Nil(t, upper)

	lower, upper = Bounds(graph.Bounded(1, math.MaxInt32))
	assert.Equal(t, int64(1), lower)
	require.NotNil(t, upper)
	assert.Equal(t, int64(math.MaxInt32), *upper)
}

func TestGenericTypeToProtocol(t *testing.T) {
	m := graph.NewModel()
	str, _ := m.Primitive(graph.String)
	num, _ := m.Primitive(graph.Integer)
	person := graph.NewClass("example::Person", nil)

	g := NewGenericType(person, NewGenericType(str), NewGenericType(num))
	out := GenericTypeToProtocol(g)
	assert.Equal(t, "example::Person", out.RawType.FullPath)
	require.Len(t, out.TypeArguments, 2)
	assert.Equal(t, graph.String, out.TypeArguments[0].RawType.FullPath)
	assert.Equal(t, graph.Integer, out.TypeArguments[1].RawType.FullPath)
	assert.Equal(t, "example::Person<String, Integer>", g.String())
}
