package core

import (
	"github.com/leapstack-labs/leapgraph/pkg/compiler"
	"github.com/leapstack-labs/leapgraph/pkg/diag"
	"github.com/leapstack-labs/leapgraph/pkg/graph"
	"github.com/leapstack-labs/leapgraph/pkg/protocol"
)

// SectionIndex records section imports for the elements it lists. It has no
// prerequisites, so it always runs in the first phase.
var SectionIndex = compiler.Handler[*protocol.SectionIndex, *graph.SectionIndex]{
	Kind: protocol.KindSectionIndex,
	New:  func() *protocol.SectionIndex { return &protocol.SectionIndex{} },
	Build: func(el *protocol.SectionIndex, ctx *compiler.Context) (*graph.SectionIndex, error) {
		sections := make([]graph.Section, 0, len(el.Sections))
		for _, s := range el.Sections {
			ctx.SetImports(s.Imports, s.Elements...)
			sections = append(sections, graph.Section{Parser: s.Parser, Imports: s.Imports, Elements: s.Elements})
		}
		return graph.NewSectionIndex(el.Path(), el.Location(), sections), nil
	},
}

var Profile = compiler.Handler[*protocol.Profile, *graph.Profile]{
	Kind: protocol.KindProfile,
	New:  func() *protocol.Profile { return &protocol.Profile{} },
	Build: func(el *protocol.Profile, _ *compiler.Context) (*graph.Profile, error) {
		p := graph.NewProfile(el.Path(), el.Location())
		for _, t := range el.Tags {
			if _, ok := p.AddTag(t.Value, t.SourceInformation); !ok {
				return nil, diag.Errorf(t.SourceInformation, "Duplicated tag '%s' in profile '%s'", t.Value, el.Path())
			}
		}
		for _, s := range el.Stereotypes {
			if _, ok := p.AddStereotype(s.Value, s.SourceInformation); !ok {
				return nil, diag.Errorf(s.SourceInformation, "Duplicated stereotype '%s' in profile '%s'", s.Value, el.Path())
			}
		}
		return p, nil
	},
}

var Enumeration = compiler.Handler[*protocol.Enumeration, *graph.Enumeration]{
	Kind:          protocol.KindEnumeration,
	Prerequisites: []protocol.Kind{protocol.KindProfile},
	New:           func() *protocol.Enumeration { return &protocol.Enumeration{} },
	Build: func(el *protocol.Enumeration, _ *compiler.Context) (*graph.Enumeration, error) {
		e := graph.NewEnumeration(el.Path(), el.Location())
		for _, v := range el.Values {
			if _, ok := e.AddValue(v.Value, v.SourceInformation); !ok {
				return nil, diag.Errorf(v.SourceInformation, "Duplicated value '%s' in enumeration '%s'", v.Value, el.Path())
			}
		}
		return e, nil
	},
	Link: func(el *protocol.Enumeration, ctx *compiler.Context, e *graph.Enumeration) error {
		ann, err := ctx.ResolveAnnotations(el.Annotated)
		if err != nil {
			return err
		}
		e.Annotations = ann
		for i, v := range el.Values {
			if e.Values[i].Annotations, err = ctx.ResolveAnnotations(v.Annotated); err != nil {
				return err
			}
		}
		return nil
	},
}

var Class = compiler.Handler[*protocol.Class, *graph.Class]{
	Kind:          protocol.KindClass,
	Prerequisites: []protocol.Kind{protocol.KindProfile, protocol.KindEnumeration},
	New:           func() *protocol.Class { return &protocol.Class{} },
	Build: func(el *protocol.Class, _ *compiler.Context) (*graph.Class, error) {
		return graph.NewClass(el.Path(), el.Location()), nil
	},
	Link: func(el *protocol.Class, ctx *compiler.Context, c *graph.Class) error {
		ann, err := ctx.ResolveAnnotations(el.Annotated)
		if err != nil {
			return err
		}
		c.Annotations = ann
		for _, sp := range el.SuperTypes {
			st, err := ctx.GetClass(sp.Path, sp.SourceInformation)
			if err != nil {
				return err
			}
			c.SuperTypes = append(c.SuperTypes, compiler.NewGenericType(st))
		}
		for _, p := range el.Properties {
			prop, err := newProperty(ctx, c, p)
			if err != nil {
				return err
			}
			c.Properties = append(c.Properties, prop)
		}
		return nil
	},
	Validate: func(el *protocol.Class, ctx *compiler.Context, c *graph.Class) error {
		seen := make(map[string]bool, len(c.Properties))
		for _, p := range c.Properties {
			if seen[p.Name] {
				return diag.Errorf(p.Location(), "Property '%s' is defined more than once in class '%s'", p.Name, c.Path())
			}
			seen[p.Name] = true
		}
		if superTypeCycle(c) {
			return diag.Errorf(c.Location(), "Cycle detected in class hierarchy of '%s'", c.Path())
		}
		if len(c.Properties) == 0 && len(c.SuperTypes) == 0 {
			ctx.Warn(c.Location(), "Class '%s' has no properties", c.Path())
		}
		return nil
	},
}

var Association = compiler.Handler[*protocol.Association, *graph.Association]{
	Kind:          protocol.KindAssociation,
	Prerequisites: []protocol.Kind{protocol.KindClass},
	New:           func() *protocol.Association { return &protocol.Association{} },
	Build: func(el *protocol.Association, _ *compiler.Context) (*graph.Association, error) {
		if len(el.Properties) != 2 {
			return nil, diag.Errorf(el.Location(), "Expected 2 properties for association '%s', found %d", el.Path(), len(el.Properties))
		}
		return graph.NewAssociation(el.Path(), el.Location()), nil
	},
	Link: func(el *protocol.Association, ctx *compiler.Context, a *graph.Association) error {
		ann, err := ctx.ResolveAnnotations(el.Annotated)
		if err != nil {
			return err
		}
		a.Annotations = ann
		for _, p := range el.Properties {
			prop, err := newProperty(ctx, a, p)
			if err != nil {
				return err
			}
			if _, ok := prop.GenericType.RawType.(*graph.Class); !ok {
				return diag.Errorf(p.SourceInformation, "Association '%s' can only be applied to classes, found '%s'", a.Path(), prop.GenericType)
			}
			a.Properties = append(a.Properties, prop)
		}
		return nil
	},
}

func newProperty(ctx *compiler.Context, owner graph.Element, p protocol.Property) (*graph.Property, error) {
	typ, err := ctx.BuildGenericType(p.GenericType)
	if err != nil {
		return nil, err
	}
	mult, err := compiler.NewMultiplicity(p.Multiplicity, p.SourceInformation)
	if err != nil {
		return nil, err
	}
	prop := graph.NewProperty(owner, p.Name, typ, mult, p.SourceInformation)
	if prop.Annotations, err = ctx.ResolveAnnotations(p.Annotated); err != nil {
		return nil, err
	}
	return prop, nil
}

// superTypeCycle reports whether c reaches itself through its super types.
func superTypeCycle(c *graph.Class) bool {
	seen := make(map[*graph.Class]bool)
	stack := []*graph.Class{c}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, st := range cur.SuperTypes {
			sc, ok := st.RawType.(*graph.Class)
			if !ok {
				continue
			}
			if sc == c {
				return true
			}
			if !seen[sc] {
				seen[sc] = true
				stack = append(stack, sc)
			}
		}
	}
	return false
}
