package graph

import (
	"github.com/leapstack-labs/leapgraph/pkg/source"
)

// Class is a user-defined structured type. It is registered during the build
// pass and populated by its own processor during linking.
type Class struct {
	node
	Annotations
	path       string
	SuperTypes []*GenericType
	Properties []*Property
}

// NewClass creates an empty class.
func NewClass(path string, loc *source.Info) *Class {
	return &Class{node: newNode(loc), path: path}
}

func (c *Class) Path() string { return c.path }
func (c *Class) Kind() string { return "class" }
func (c *Class) isType()      {}

// Property looks up an owned property by name.
func (c *Class) Property(name string) (*Property, bool) {
	for _, p := range c.Properties {
		if p.Name == name {
			return p, true
		}
	}
	return nil, false
}

// Property is a typed, multiplicity-bounded member of a class or association.
type Property struct {
	node
	Annotations
	Name         string
	Owner        Element
	GenericType  *GenericType
	Multiplicity Multiplicity
}

// NewProperty creates a property owned by owner.
func NewProperty(owner Element, name string, typ *GenericType, mult Multiplicity, loc *source.Info) *Property {
	return &Property{node: newNode(loc), Name: name, Owner: owner, GenericType: typ, Multiplicity: mult}
}

// Enumeration is a closed set of named values.
type Enumeration struct {
	node
	Annotations
	path   string
	Values []*EnumValue
}

// NewEnumeration creates an empty enumeration.
func NewEnumeration(path string, loc *source.Info) *Enumeration {
	return &Enumeration{node: newNode(loc), path: path}
}

func (e *Enumeration) Path() string { return e.path }
func (e *Enumeration) Kind() string { return "enumeration" }
func (e *Enumeration) isType()      {}

// Value looks up an enum value by name.
func (e *Enumeration) Value(name string) (*EnumValue, bool) {
	for _, v := range e.Values {
		if v.Name == name {
			return v, true
		}
	}
	return nil, false
}

// EnumValue is one member of an enumeration.
type EnumValue struct {
	node
	Annotations
	Name        string
	Enumeration *Enumeration
}

// AddValue appends a value. It returns false if the name is already taken.
func (e *Enumeration) AddValue(name string, loc *source.Info) (*EnumValue, bool) {
	if _, ok := e.Value(name); ok {
		return nil, false
	}
	v := &EnumValue{node: newNode(loc), Name: name, Enumeration: e}
	e.Values = append(e.Values, v)
	return v, true
}

// Association links two classes through a pair of properties.
type Association struct {
	node
	Annotations
	path       string
	Properties []*Property
}

// NewAssociation creates an association with no properties yet.
func NewAssociation(path string, loc *source.Info) *Association {
	return &Association{node: newNode(loc), path: path}
}

func (a *Association) Path() string { return a.path }
func (a *Association) Kind() string { return "association" }
