package relational

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapgraph/internal/testutil"
	"github.com/leapstack-labs/leapgraph/pkg/compiler"
	"github.com/leapstack-labs/leapgraph/pkg/diag"
	"github.com/leapstack-labs/leapgraph/pkg/graph"
	"github.com/leapstack-labs/leapgraph/pkg/protocol"
	"github.com/leapstack-labs/leapgraph/pkg/relational"
	"github.com/leapstack-labs/leapgraph/pkg/source"
)

func newCompiler(t *testing.T) *compiler.Compiler {
	t.Helper()
	reg, err := compiler.NewRegistry([]compiler.Extension{Relational})
	require.NoError(t, err)
	return compiler.New(reg, compiler.Config{CollectReferences: true, Logger: testutil.NewTestLogger(t)})
}

func loadStore(t *testing.T) []protocol.Element {
	t.Helper()
	els, err := protocol.DecodeFile(filepath.Join("testdata", "store.yaml"), newCompiler(t).Registry())
	require.NoError(t, err)
	return els
}

func TestRegistered(t *testing.T) {
	ext, ok := compiler.LookupExtension(Name)
	require.True(t, ok)
	assert.Equal(t, []string{"Store", "Relational"}, ext.Group())
}

func TestCompileStore(t *testing.T) {
	res, err := newCompiler(t).Compile(context.Background(), loadStore(t))
	require.NoError(t, err)

	main, ok := graph.Lookup[*relational.Database](res.Model, "store::Main")
	require.True(t, ok)
	require.Len(t, main.IncludedStores, 1)

	country, ok := main.Table("ref", "country")
	require.True(t, ok, "tables of included stores are visible")
	assert.Equal(t, "store::Shared", country.Ptr().Database)

	code, _ := country.Column("code")
	assert.False(t, code.Nullable, "primary key columns are not nullable")

	person, ok := main.Table("app", "person")
	require.True(t, ok)
	rt, err := person.RelationType(res.Model)
	require.NoError(t, err)
	cols := rt.Columns()
	require.Len(t, cols, 3)
	assert.True(t, cols[0].Multiplicity.Equal(graph.PureOne))
	assert.True(t, cols[1].Multiplicity.Equal(graph.ZeroOne))
	assert.Equal(t, graph.StrictDate, cols[2].GenericType.RawType.Path())
	require.Len(t, person.PrimaryKey, 1)
	assert.Equal(t, "id", person.PrimaryKey[0].Name)
}

func TestCompileStore_Mapper(t *testing.T) {
	res, err := newCompiler(t).Compile(context.Background(), loadStore(t))
	require.NoError(t, err)

	m, ok := graph.Lookup[*relational.Mapper](res.Model, "store::ProdMapper")
	require.True(t, ok)

	view := m.Transform.Mappings()
	assert.Equal(t, 3, view.Len(), "every table of store::Main")

	ptr := func(db, schema, table string) relational.TablePtr {
		return relational.TablePtr{Database: db, Schema: schema, Table: table}
	}
	assert.Equal(t, ptr("PROD", "app_v2", "people"), view.Apply(ptr("store::Main", "app", "person")))
	assert.Equal(t, ptr("PROD", "app_v2", "firm"), view.Apply(ptr("store::Main", "app", "firm")))
	assert.Equal(t, ptr("PROD", "audit", "log"), view.Apply(ptr("store::Main", "audit", "log")))

	_, ok = view.Get(ptr("store::Shared", "ref", "country"))
	assert.False(t, ok, "included stores are not renamed")
}

func TestCompileStore_References(t *testing.T) {
	res, err := newCompiler(t).Compile(context.Background(), loadStore(t))
	require.NoError(t, err)
	refs, err := res.References()
	require.NoError(t, err)

	at := func(line, col, endCol int) source.Info { return source.New("store.pure", line, col, line, endCol) }

	shared, _ := graph.Lookup[*relational.Database](res.Model, "store::Shared")
	assert.Equal(t, []source.Info{at(12, 11, 23)}, refs[shared])

	main, _ := graph.Lookup[*relational.Database](res.Model, "store::Main")
	assert.Equal(t, []source.Info{at(34, 5, 15), at(36, 5, 26)}, refs[main])

	person, _ := main.Table("app", "person")
	assert.Equal(t, []source.Info{at(36, 5, 26)}, refs[person])
}

func TestCompileStore_Errors(t *testing.T) {
	db := func() *protocol.Database {
		return &protocol.Database{
			Packageable: protocol.Packageable{Package: "store", Name: "DB"},
			Schemas: []protocol.Schema{{Name: "s", Tables: []protocol.Table{{
				Name:    "t",
				Columns: []protocol.Column{{Name: "id", Type: "INT"}},
			}}}},
		}
	}
	mapper := func(m func(*protocol.RelationalMapper)) *protocol.RelationalMapper {
		out := &protocol.RelationalMapper{Packageable: protocol.Packageable{Package: "store", Name: "M"}}
		m(out)
		return out
	}

	tests := []struct {
		name     string
		elements []protocol.Element
		is       error
		contains string
	}{
		{
			name: "duplicated database mapper",
			elements: []protocol.Element{db(), mapper(func(m *protocol.RelationalMapper) {
				m.DatabaseMappers = []protocol.DatabaseMapper{
					{Name: "A", Databases: []protocol.ElementPointer{{Path: "store::DB"}}},
					{Name: "B", Databases: []protocol.ElementPointer{{Path: "store::DB"}}},
				}
			})},
			is:       diag.ErrCompilation,
			contains: "Found duplicated mappers for database 'store::DB'",
		},
		{
			name: "duplicated schema mapper",
			elements: []protocol.Element{db(), mapper(func(m *protocol.RelationalMapper) {
				ptr := protocol.SchemaPtr{Database: "store::DB", Schema: "s"}
				m.SchemaMappers = []protocol.SchemaMapper{{Name: "x", Schemas: []protocol.SchemaPtr{ptr, ptr}}}
			})},
			is:       diag.ErrCompilation,
			contains: "Found duplicated mappers for schema 'store::DB.s'",
		},
		{
			name: "duplicated table mapper",
			elements: []protocol.Element{db(), mapper(func(m *protocol.RelationalMapper) {
				ptr := protocol.TablePtr{Database: "store::DB", Schema: "s", Table: "t"}
				m.TableMappers = []protocol.TableMapper{{Name: "a", Table: ptr}, {Name: "b", Table: ptr}}
			})},
			is:       diag.ErrCompilation,
			contains: "Found duplicated mappers for table 'store::DB.s.t'",
		},
		{
			name: "unknown schema",
			elements: []protocol.Element{db(), mapper(func(m *protocol.RelationalMapper) {
				m.SchemaMappers = []protocol.SchemaMapper{{Name: "x", Schemas: []protocol.SchemaPtr{{Database: "store::DB", Schema: "nope"}}}}
			})},
			is:       diag.ErrUnresolved,
			contains: "Can't find schema 'nope' in database 'store::DB'",
		},
		{
			name: "unknown table",
			elements: []protocol.Element{db(), mapper(func(m *protocol.RelationalMapper) {
				m.TableMappers = []protocol.TableMapper{{Name: "x", Table: protocol.TablePtr{Database: "store::DB", Schema: "s", Table: "nope"}}}
			})},
			is:       diag.ErrUnresolved,
			contains: "Can't find table 'nope'",
		},
		{
			name: "unknown database",
			elements: []protocol.Element{mapper(func(m *protocol.RelationalMapper) {
				m.DatabaseMappers = []protocol.DatabaseMapper{{Name: "A", Databases: []protocol.ElementPointer{{Path: "store::Nope"}}}}
			})},
			is:       diag.ErrUnresolved,
			contains: "Can't find database 'store::Nope'",
		},
		{
			name: "bad primary key",
			elements: []protocol.Element{func() protocol.Element {
				d := db()
				d.Schemas[0].Tables[0].PrimaryKey = []string{"missing"}
				return d
			}()},
			is:       diag.ErrCompilation,
			contains: "Primary key column 'missing' not found",
		},
		{
			name: "unsupported column type",
			elements: []protocol.Element{func() protocol.Element {
				d := db()
				d.Schemas[0].Tables[0].Columns[0].Type = "GEOGRAPHY"
				return d
			}()},
			is:       diag.ErrCompilation,
			contains: "unsupported column type 'GEOGRAPHY'",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newCompiler(t).Compile(context.Background(), tt.elements)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.is)
			assert.Contains(t, err.Error(), tt.contains)
		})
	}
}
