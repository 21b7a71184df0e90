package protocol

import "github.com/leapstack-labs/leapgraph/pkg/source"

// ElementPointer references another packageable element by path.
type ElementPointer struct {
	Type              string       `yaml:"type,omitempty"`
	Path              string       `yaml:"path"`
	SourceInformation *source.Info `yaml:"sourceInformation,omitempty"`
}

// TagPtr references a tag of a profile. SourceInformation spans the whole
// pointer; ProfileSourceInformation spans the profile path only.
type TagPtr struct {
	Profile                  string       `yaml:"profile"`
	Value                    string       `yaml:"value"`
	SourceInformation        *source.Info `yaml:"sourceInformation,omitempty"`
	ProfileSourceInformation *source.Info `yaml:"profileSourceInformation,omitempty"`
}

// StereotypePtr references a stereotype of a profile.
type StereotypePtr struct {
	Profile                  string       `yaml:"profile"`
	Value                    string       `yaml:"value"`
	SourceInformation        *source.Info `yaml:"sourceInformation,omitempty"`
	ProfileSourceInformation *source.Info `yaml:"profileSourceInformation,omitempty"`
}

// TaggedValue attaches a literal to a tag.
type TaggedValue struct {
	Tag               TagPtr       `yaml:"tag"`
	Value             string       `yaml:"value"`
	SourceInformation *source.Info `yaml:"sourceInformation,omitempty"`
}

// TypeRef names the raw type of a generic type.
type TypeRef struct {
	FullPath          string       `yaml:"fullPath"`
	SourceInformation *source.Info `yaml:"sourceInformation,omitempty"`
}

// GenericType is a raw type path with ordered type arguments.
type GenericType struct {
	RawType           TypeRef       `yaml:"rawType"`
	TypeArguments     []GenericType `yaml:"typeArguments,omitempty"`
	SourceInformation *source.Info  `yaml:"sourceInformation,omitempty"`
}

// Multiplicity is a lower bound and an optional upper bound; a nil
// UpperBound is unbounded.
type Multiplicity struct {
	LowerBound int  `yaml:"lowerBound"`
	UpperBound *int `yaml:"upperBound,omitempty"`
}

// RelationColumn is one column of a relation type.
type RelationColumn struct {
	Name         string       `yaml:"name"`
	GenericType  GenericType  `yaml:"genericType"`
	Multiplicity Multiplicity `yaml:"multiplicity"`
}

// RelationType is an ordered column list.
type RelationType struct {
	Columns           []RelationColumn `yaml:"columns"`
	SourceInformation *source.Info     `yaml:"sourceInformation,omitempty"`
}

// Annotated holds the stereotypes and tagged values any element may carry.
type Annotated struct {
	Stereotypes  []StereotypePtr `yaml:"stereotypes,omitempty"`
	TaggedValues []TaggedValue   `yaml:"taggedValues,omitempty"`
}
