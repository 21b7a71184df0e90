package relational

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapgraph/pkg/diag"
	"github.com/leapstack-labs/leapgraph/pkg/graph"
	"github.com/leapstack-labs/leapgraph/pkg/protocol"
	"github.com/leapstack-labs/leapgraph/pkg/source"
)

func TestTransformationMap_Overwrite(t *testing.T) {
	tm := NewTransformationMap()
	p1 := TablePtr{Database: "db", Schema: "s", Table: "a"}
	p2 := TablePtr{Database: "db", Schema: "s", Table: "b"}
	p3 := TablePtr{Database: "db", Schema: "s", Table: "c"}

	tm.AddMapping(p1, p2)
	tm.AddMapping(p1, p3)

	m := tm.Mappings()
	assert.Equal(t, 1, m.Len())
	got, ok := m.Get(p1)
	require.True(t, ok)
	assert.Equal(t, p3, got)
}

func TestTransformationMap_SharedTarget(t *testing.T) {
	tm := NewTransformationMap()
	target := TablePtr{Database: "db", Schema: "s", Table: "t"}
	tm.AddMapping(TablePtr{Database: "db", Schema: "s", Table: "a"}, target)
	tm.AddMapping(TablePtr{Database: "db", Schema: "s", Table: "b"}, target)

	assert.Equal(t, 2, tm.Mappings().Len())
}

func TestTransformationMap_StructuralKeys(t *testing.T) {
	tm := NewTransformationMap()
	tm.AddMapping(PtrFrom(protocol.TablePtr{Database: "db", Schema: "s", Table: "a", SourceInformation: &source.Info{StartLine: 1}}),
		TablePtr{Database: "db2", Schema: "s", Table: "a"})

	// an equal pointer created elsewhere finds the mapping
	got, ok := tm.Mappings().Get(TablePtr{Database: "db", Schema: "s", Table: "a"})
	require.True(t, ok)
	assert.Equal(t, "db2.s.a", got.String())
}

func TestMappings_View(t *testing.T) {
	tm := NewTransformationMap()
	a := TablePtr{Database: "db", Schema: "s", Table: "a"}
	b := TablePtr{Database: "db", Schema: "s", Table: "b"}
	tm.AddMapping(b, a)
	view := tm.Mappings()

	tm.AddMapping(a, b)
	assert.Equal(t, 1, view.Len(), "views are snapshots")
	assert.Equal(t, 2, tm.Mappings().Len())

	assert.Equal(t, a, view.Apply(b))
	assert.Equal(t, a, view.Apply(a), "unmapped pointers are returned unchanged")

	var keys []TablePtr
	for k := range tm.Mappings().All() {
		keys = append(keys, k)
	}
	assert.Equal(t, []TablePtr{b, a}, keys)
}

func testDatabase(t *testing.T) *Database {
	t.Helper()
	db := NewDatabase("store::DB", &source.Info{SourceID: "db.pure", StartLine: 1, StartColumn: 1, EndLine: 20, EndColumn: 1})
	s, err := db.AddSchema("app", nil)
	require.NoError(t, err)
	person, err := s.AddTable("person", nil)
	require.NoError(t, err)
	_, err = person.AddColumn("id", "INTEGER", false, nil)
	require.NoError(t, err)
	_, err = person.AddColumn("name", "VARCHAR(200)", true, nil)
	require.NoError(t, err)
	_, err = s.AddTable("firm", nil)
	require.NoError(t, err)
	other, err := db.AddSchema("audit", nil)
	require.NoError(t, err)
	_, err = other.AddTable("log", nil)
	require.NoError(t, err)
	return db
}

func TestDatabase_Lookup(t *testing.T) {
	db := testDatabase(t)

	tbl, ok := db.Table("app", "person")
	require.True(t, ok)
	assert.Equal(t, TablePtr{Database: "store::DB", Schema: "app", Table: "person"}, tbl.Ptr())

	_, ok = db.Table("app", "missing")
	assert.False(t, ok)
	assert.Len(t, db.Tables(), 3)

	_, err := db.AddSchema("app", nil)
	assert.ErrorIs(t, err, diag.ErrCompilation)
	_, err = tbl.AddColumn("id", "INT", false, nil)
	assert.Error(t, err)
}

func TestDatabase_IncludedStores(t *testing.T) {
	base := testDatabase(t)
	top := NewDatabase("store::Top", nil)
	top.IncludedStores = []*Database{base}
	base.IncludedStores = []*Database{top} // cycles terminate

	tbl, ok := top.Table("audit", "log")
	require.True(t, ok)
	assert.Equal(t, "store::DB", tbl.Ptr().Database)

	_, ok = top.Schema("nope")
	assert.False(t, ok)
}

func TestTable_RelationType(t *testing.T) {
	db := testDatabase(t)
	tbl, _ := db.Table("app", "person")

	rt, err := tbl.RelationType(graph.NewModel())
	require.NoError(t, err)
	cols := rt.Columns()
	require.Len(t, cols, 2)
	assert.Equal(t, graph.Integer, cols[0].GenericType.RawType.Path())
	assert.True(t, cols[0].Multiplicity.Equal(graph.PureOne))
	assert.Equal(t, graph.String, cols[1].GenericType.RawType.Path())
	assert.True(t, cols[1].Multiplicity.Equal(graph.ZeroOne))

	_, err = tbl.AddColumn("blob", "GEOMETRY", false, nil)
	require.NoError(t, err)
	_, err = tbl.RelationType(graph.NewModel())
	assert.ErrorContains(t, err, "unsupported column type 'GEOMETRY'")
}

func TestPrimitiveFor(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"VARCHAR(10)", graph.String},
		{"varchar ( 10 )", graph.String},
		{"BIGINT", graph.Integer},
		{"DECIMAL(10,2)", graph.Decimal},
		{"TIMESTAMP", graph.DateTime},
		{"DATE", graph.StrictDate},
		{"BIT", graph.Boolean},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := PrimitiveFor(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMapper_Apply(t *testing.T) {
	db := testDatabase(t)
	app, _ := db.Schema("app")
	audit, _ := db.Schema("audit")
	person, _ := db.Table("app", "person")

	m := NewMapper("store::Mapper", nil)
	m.Databases[db] = "PROD"
	m.Schemas[app] = "app_v2"
	m.Tables[person] = "people"
	m.Apply(nil, []*Schema{app, audit}, []*Table{person})

	view := m.Transform.Mappings()
	assert.Equal(t, 3, view.Len())
	assert.Equal(t, TablePtr{Database: "PROD", Schema: "app_v2", Table: "people"}, view.Apply(person.Ptr()))
	assert.Equal(t, TablePtr{Database: "PROD", Schema: "app_v2", Table: "firm"},
		view.Apply(TablePtr{Database: "store::DB", Schema: "app", Table: "firm"}))
	assert.Equal(t, TablePtr{Database: "PROD", Schema: "audit", Table: "log"},
		view.Apply(TablePtr{Database: "store::DB", Schema: "audit", Table: "log"}))
}
