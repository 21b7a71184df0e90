// Package relational provides the relational store extension: databases and
// relational mappers. Importing the package registers the extension.
package relational

import (
	"slices"

	"github.com/leapstack-labs/leapgraph/pkg/compiler"
	"github.com/leapstack-labs/leapgraph/pkg/diag"
	"github.com/leapstack-labs/leapgraph/pkg/protocol"
	"github.com/leapstack-labs/leapgraph/pkg/relational"
	"github.com/leapstack-labs/leapgraph/pkg/source"
)

func init() {
	compiler.RegisterExtension(Relational)
}

// Name of the extension.
const Name = "relational"

// Group orders relational processors after core ones.
var Group = []string{"Store", "Relational"}

// Relational is the relational store extension.
var Relational = compiler.NewExtension(Name, Group,
	Database.Processor(),
	Mapper.Processor(),
)

var Database = compiler.Handler[*protocol.Database, *relational.Database]{
	Kind: protocol.KindDatabase,
	New:  func() *protocol.Database { return &protocol.Database{} },
	Build: func(el *protocol.Database, _ *compiler.Context) (*relational.Database, error) {
		db := relational.NewDatabase(el.Path(), el.Location())
		for _, ps := range el.Schemas {
			s, err := db.AddSchema(ps.Name, ps.SourceInformation)
			if err != nil {
				return nil, err
			}
			for _, pt := range ps.Tables {
				if err := addTable(s, pt); err != nil {
					return nil, err
				}
			}
		}
		return db, nil
	},
	Link: func(el *protocol.Database, ctx *compiler.Context, db *relational.Database) error {
		ann, err := ctx.ResolveAnnotations(el.Annotated)
		if err != nil {
			return err
		}
		db.Annotations = ann
		for _, inc := range el.IncludedStores {
			store, err := resolveDatabase(ctx, inc.Path, inc.SourceInformation)
			if err != nil {
				return err
			}
			db.IncludedStores = append(db.IncludedStores, store)
		}
		return nil
	},
	Validate: func(_ *protocol.Database, ctx *compiler.Context, db *relational.Database) error {
		for _, t := range db.Tables() {
			if _, err := t.RelationType(ctx.Model()); err != nil {
				return err
			}
		}
		return nil
	},
}

func addTable(s *relational.Schema, pt protocol.Table) error {
	t, err := s.AddTable(pt.Name, pt.SourceInformation)
	if err != nil {
		return err
	}
	for _, pc := range pt.Columns {
		// primary key columns are never nullable; others default to nullable
		nullable := !slices.Contains(pt.PrimaryKey, pc.Name)
		if pc.Nullable != nil {
			nullable = nullable && *pc.Nullable
		}
		if _, err := t.AddColumn(pc.Name, pc.Type, nullable, pc.SourceInformation); err != nil {
			return err
		}
	}
	for _, name := range pt.PrimaryKey {
		c, ok := t.Column(name)
		if !ok {
			return diag.Errorf(pt.SourceInformation, "Primary key column '%s' not found in table '%s'", name, pt.Name)
		}
		t.PrimaryKey = append(t.PrimaryKey, c)
	}
	return nil
}

func resolveDatabase(ctx *compiler.Context, path string, loc *source.Info) (*relational.Database, error) {
	return compiler.Resolve[*relational.Database](ctx, path, "database", loc)
}

var Mapper = compiler.Handler[*protocol.RelationalMapper, *relational.Mapper]{
	Kind:          protocol.KindRelationalMapper,
	Prerequisites: []protocol.Kind{protocol.KindDatabase},
	New:           func() *protocol.RelationalMapper { return &protocol.RelationalMapper{} },
	Build: func(el *protocol.RelationalMapper, _ *compiler.Context) (*relational.Mapper, error) {
		return relational.NewMapper(el.Path(), el.Location()), nil
	},
	Link: func(el *protocol.RelationalMapper, ctx *compiler.Context, m *relational.Mapper) error {
		var (
			dbs     []*relational.Database
			schemas []*relational.Schema
			tables  []*relational.Table
		)
		for _, dm := range el.DatabaseMappers {
			for _, ptr := range dm.Databases {
				db, err := resolveDatabase(ctx, ptr.Path, ptr.SourceInformation)
				if err != nil {
					return err
				}
				if _, dup := m.Databases[db]; dup {
					return diag.Errorf(ptr.SourceInformation, "Found duplicated mappers for database '%s'", db.Path())
				}
				m.Databases[db] = dm.Name
				dbs = append(dbs, db)
			}
		}
		for _, sm := range el.SchemaMappers {
			for _, ptr := range sm.Schemas {
				s, err := resolveSchema(ctx, ptr.Database, ptr.Schema, ptr.SourceInformation)
				if err != nil {
					return err
				}
				if _, dup := m.Schemas[s]; dup {
					return diag.Errorf(ptr.SourceInformation, "Found duplicated mappers for schema '%s.%s'", ptr.Database, ptr.Schema)
				}
				m.Schemas[s] = sm.Name
				schemas = append(schemas, s)
			}
		}
		for _, tm := range el.TableMappers {
			ptr := tm.Table
			s, err := resolveSchema(ctx, ptr.Database, ptr.Schema, ptr.SourceInformation)
			if err != nil {
				return err
			}
			t, ok := s.Table(ptr.Table)
			if !ok {
				return &diag.UnresolvedReferenceError{Kind: "table", Path: ptr.Table, Owner: ptr.Database + "." + ptr.Schema, OwnerKind: "schema", Location: ptr.SourceInformation}
			}
			if _, dup := m.Tables[t]; dup {
				return diag.Errorf(ptr.SourceInformation, "Found duplicated mappers for table '%s'", relational.PtrFrom(ptr))
			}
			ctx.Ledger().Register(ptr.SourceInformation, t)
			m.Tables[t] = tm.Name
			tables = append(tables, t)
		}
		m.Apply(dbs, schemas, tables)
		return nil
	},
}

func resolveSchema(ctx *compiler.Context, dbPath, name string, loc *source.Info) (*relational.Schema, error) {
	db, err := resolveDatabase(ctx, dbPath, loc)
	if err != nil {
		return nil, err
	}
	s, ok := db.Schema(name)
	if !ok {
		return nil, &diag.UnresolvedReferenceError{Kind: "schema", Path: name, Owner: db.Path(), OwnerKind: "database", Location: loc}
	}
	return s, nil
}
