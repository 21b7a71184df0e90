package protocol

import "github.com/leapstack-labs/leapgraph/pkg/source"

// Column is a relational column declaration.
type Column struct {
	Name              string       `yaml:"name"`
	Type              string       `yaml:"type"`
	Nullable          *bool        `yaml:"nullable,omitempty"`
	SourceInformation *source.Info `yaml:"sourceInformation,omitempty"`
}

// Table is a relational table declaration.
type Table struct {
	Name              string       `yaml:"name"`
	Columns           []Column     `yaml:"columns"`
	PrimaryKey        []string     `yaml:"primaryKey,omitempty"`
	SourceInformation *source.Info `yaml:"sourceInformation,omitempty"`
}

// Schema is a named group of tables.
type Schema struct {
	Name              string       `yaml:"name"`
	Tables            []Table      `yaml:"tables"`
	SourceInformation *source.Info `yaml:"sourceInformation,omitempty"`
}

// Database declares a relational store.
type Database struct {
	Packageable    `yaml:",inline"`
	Annotated      `yaml:",inline"`
	IncludedStores []ElementPointer `yaml:"includedStores,omitempty"`
	Schemas        []Schema         `yaml:"schemas"`
}

func (*Database) Kind() Kind { return KindDatabase }

// TablePtr references a table of a database.
type TablePtr struct {
	Database          string       `yaml:"database"`
	Schema            string       `yaml:"schema"`
	Table             string       `yaml:"table"`
	SourceInformation *source.Info `yaml:"sourceInformation,omitempty"`
}

// SchemaPtr references a schema of a database.
type SchemaPtr struct {
	Database          string       `yaml:"database"`
	Schema            string       `yaml:"schema"`
	SourceInformation *source.Info `yaml:"sourceInformation,omitempty"`
}

// DatabaseMapper renames databases.
type DatabaseMapper struct {
	Name              string           `yaml:"name"`
	Databases         []ElementPointer `yaml:"databases"`
	SourceInformation *source.Info     `yaml:"sourceInformation,omitempty"`
}

// SchemaMapper renames schemas.
type SchemaMapper struct {
	Name              string       `yaml:"name"`
	Schemas           []SchemaPtr  `yaml:"schemas"`
	SourceInformation *source.Info `yaml:"sourceInformation,omitempty"`
}

// TableMapper renames one table.
type TableMapper struct {
	Name              string       `yaml:"name"`
	Table             TablePtr     `yaml:"table"`
	SourceInformation *source.Info `yaml:"sourceInformation,omitempty"`
}

// RelationalMapper rewrites physical table identities.
type RelationalMapper struct {
	Packageable     `yaml:",inline"`
	DatabaseMappers []DatabaseMapper `yaml:"databaseMappers,omitempty"`
	SchemaMappers   []SchemaMapper   `yaml:"schemaMappers,omitempty"`
	TableMappers    []TableMapper    `yaml:"tableMappers,omitempty"`
}

func (*RelationalMapper) Kind() Kind { return KindRelationalMapper }
