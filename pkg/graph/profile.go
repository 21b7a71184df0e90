package graph

import (
	"github.com/leapstack-labs/leapgraph/pkg/source"
)

// Profile owns a vocabulary of tags and stereotypes.
type Profile struct {
	node
	path        string
	tags        map[string]*Tag
	tagOrder    []*Tag
	stereotypes map[string]*Stereotype
	stOrder     []*Stereotype
}

// NewProfile creates an empty profile.
func NewProfile(path string, loc *source.Info) *Profile {
	return &Profile{
		node:        newNode(loc),
		path:        path,
		tags:        make(map[string]*Tag),
		stereotypes: make(map[string]*Stereotype),
	}
}

func (p *Profile) Path() string { return p.path }
func (p *Profile) Kind() string { return "profile" }

// AddTag adds a tag. It returns false if the value is already taken.
func (p *Profile) AddTag(value string, loc *source.Info) (*Tag, bool) {
	if _, ok := p.tags[value]; ok {
		return nil, false
	}
	t := &Tag{node: newNode(loc), Profile: p, Value: value}
	p.tags[value] = t
	p.tagOrder = append(p.tagOrder, t)
	return t, true
}

// AddStereotype adds a stereotype. It returns false if the value is already taken.
func (p *Profile) AddStereotype(value string, loc *source.Info) (*Stereotype, bool) {
	if _, ok := p.stereotypes[value]; ok {
		return nil, false
	}
	s := &Stereotype{node: newNode(loc), Profile: p, Value: value}
	p.stereotypes[value] = s
	p.stOrder = append(p.stOrder, s)
	return s, true
}

// Tag looks up a tag by value.
func (p *Profile) Tag(value string) (*Tag, bool) {
	t, ok := p.tags[value]
	return t, ok
}

// Stereotype looks up a stereotype by value.
func (p *Profile) Stereotype(value string) (*Stereotype, bool) {
	s, ok := p.stereotypes[value]
	return s, ok
}

// Tags returns tags in declaration order.
func (p *Profile) Tags() []*Tag { return p.tagOrder }

// Stereotypes returns stereotypes in declaration order.
func (p *Profile) Stereotypes() []*Stereotype { return p.stOrder }

// Tag is a named key within a profile.
type Tag struct {
	node
	Profile *Profile
	Value   string
}

func (t *Tag) String() string { return t.Profile.Path() + "." + t.Value }

// Stereotype is a named marker within a profile.
type Stereotype struct {
	node
	Profile *Profile
	Value   string
}

func (s *Stereotype) String() string { return "<<" + s.Profile.Path() + "." + s.Value + ">>" }

// TaggedValue pairs a resolved tag with a literal. It is owned by the element
// declaring it and has no location of its own.
type TaggedValue struct {
	Tag   *Tag
	Value string
}

// Annotations holds the stereotypes and tagged values attached to an element.
type Annotations struct {
	Stereotypes  []*Stereotype
	TaggedValues []*TaggedValue
}
