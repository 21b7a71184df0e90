// Package protocol defines the declarative input tree the compiler consumes.
//
// Protocol elements are plain data. They carry unresolved pointers (qualified
// paths with their source locations) that the compiler turns into graph edges.
package protocol

import (
	"github.com/leapstack-labs/leapgraph/pkg/source"
)

// Kind identifies a protocol element type. It is the "_type" discriminator in
// serialized documents.
type Kind string

// Built-in element kinds.
const (
	KindSectionIndex     Kind = "sectionIndex"
	KindProfile          Kind = "profile"
	KindEnumeration      Kind = "enumeration"
	KindClass            Kind = "class"
	KindAssociation      Kind = "association"
	KindDatabase         Kind = "database"
	KindRelationalMapper Kind = "relationalMapper"
)

// Element is a packageable element of the input tree.
type Element interface {
	Kind() Kind
	Path() string
	Location() *source.Info
}

// PathSeparator joins package and name.
const PathSeparator = "::"

// Packageable holds the fields shared by every element.
type Packageable struct {
	Package           string       `yaml:"package,omitempty"`
	Name              string       `yaml:"name"`
	SourceInformation *source.Info `yaml:"sourceInformation,omitempty"`
}

// Path returns package::name, or just name for root elements.
func (p Packageable) Path() string {
	if p.Package == "" {
		return p.Name
	}
	return p.Package + PathSeparator + p.Name
}

// Location returns the element's declaring span.
func (p Packageable) Location() *source.Info { return p.SourceInformation }
