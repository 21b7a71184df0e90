package protocol

import "github.com/leapstack-labs/leapgraph/pkg/source"

// Section groups elements parsed by one parser under shared imports.
type Section struct {
	Parser            string       `yaml:"parserName"`
	Imports           []string     `yaml:"imports,omitempty"`
	Elements          []string     `yaml:"elements,omitempty"`
	SourceInformation *source.Info `yaml:"sourceInformation,omitempty"`
}

// SectionIndex lists the sections of one source.
type SectionIndex struct {
	Packageable `yaml:",inline"`
	Sections    []Section `yaml:"sections"`
}

func (*SectionIndex) Kind() Kind { return KindSectionIndex }

// ProfileValue is a tag or stereotype declaration.
type ProfileValue struct {
	Value             string       `yaml:"value"`
	SourceInformation *source.Info `yaml:"sourceInformation,omitempty"`
}

// Profile declares tags and stereotypes.
type Profile struct {
	Packageable `yaml:",inline"`
	Stereotypes []ProfileValue `yaml:"stereotypes,omitempty"`
	Tags        []ProfileValue `yaml:"tags,omitempty"`
}

func (*Profile) Kind() Kind { return KindProfile }

// EnumValue is one enumeration member.
type EnumValue struct {
	Annotated         `yaml:",inline"`
	Value             string       `yaml:"value"`
	SourceInformation *source.Info `yaml:"sourceInformation,omitempty"`
}

// Enumeration declares a closed set of values.
type Enumeration struct {
	Packageable `yaml:",inline"`
	Annotated   `yaml:",inline"`
	Values      []EnumValue `yaml:"values"`
}

func (*Enumeration) Kind() Kind { return KindEnumeration }

// Property is a member of a class or association.
type Property struct {
	Annotated         `yaml:",inline"`
	Name              string       `yaml:"name"`
	GenericType       GenericType  `yaml:"genericType"`
	Multiplicity      Multiplicity `yaml:"multiplicity"`
	SourceInformation *source.Info `yaml:"sourceInformation,omitempty"`
}

// Class declares a structured type.
type Class struct {
	Packageable `yaml:",inline"`
	Annotated   `yaml:",inline"`
	SuperTypes  []ElementPointer `yaml:"superTypes,omitempty"`
	Properties  []Property       `yaml:"properties,omitempty"`
}

func (*Class) Kind() Kind { return KindClass }

// Association links two classes.
type Association struct {
	Packageable `yaml:",inline"`
	Annotated   `yaml:",inline"`
	Properties  []Property `yaml:"properties"`
}

func (*Association) Kind() Kind { return KindAssociation }
