package compiler

import (
	"github.com/leapstack-labs/leapgraph/pkg/graph"
	"github.com/leapstack-labs/leapgraph/pkg/protocol"
	"github.com/leapstack-labs/leapgraph/pkg/source"
)

func at(line, col, endCol int) *source.Info {
	l := source.New("test.pure", line, col, line, endCol)
	return &l
}

func intPtr(v int) *int { return &v }

func testProfileProcessor() *Processor {
	return Handler[*protocol.Profile, *graph.Profile]{
		Kind: protocol.KindProfile,
		New:  func() *protocol.Profile { return &protocol.Profile{} },
		Build: func(p *protocol.Profile, _ *Context) (*graph.Profile, error) {
			gp := graph.NewProfile(p.Path(), p.Location())
			for _, t := range p.Tags {
				gp.AddTag(t.Value, t.SourceInformation)
			}
			for _, s := range p.Stereotypes {
				gp.AddStereotype(s.Value, s.SourceInformation)
			}
			return gp, nil
		},
	}.Processor()
}

func testClassProcessor() *Processor {
	return Handler[*protocol.Class, *graph.Class]{
		Kind:          protocol.KindClass,
		Prerequisites: []protocol.Kind{protocol.KindProfile},
		New:           func() *protocol.Class { return &protocol.Class{} },
		Build: func(c *protocol.Class, _ *Context) (*graph.Class, error) {
			return graph.NewClass(c.Path(), c.Location()), nil
		},
		Link: func(c *protocol.Class, ctx *Context, gc *graph.Class) error {
			ann, err := ctx.ResolveAnnotations(c.Annotated)
			if err != nil {
				return err
			}
			gc.Annotations = ann
			for _, sp := range c.SuperTypes {
				st, err := ctx.GetClass(sp.Path, sp.SourceInformation)
				if err != nil {
					return err
				}
				gc.SuperTypes = append(gc.SuperTypes, NewGenericType(st))
			}
			for _, p := range c.Properties {
				typ, err := ctx.BuildGenericType(p.GenericType)
				if err != nil {
					return err
				}
				mult, err := NewMultiplicity(p.Multiplicity, p.SourceInformation)
				if err != nil {
					return err
				}
				gc.Properties = append(gc.Properties, graph.NewProperty(gc, p.Name, typ, mult, p.SourceInformation))
			}
			return nil
		},
		Validate: func(c *protocol.Class, ctx *Context, gc *graph.Class) error {
			if len(gc.Properties) == 0 {
				ctx.Warn(c.Location(), "Class '%s' has no properties", c.Path())
			}
			return nil
		},
	}.Processor()
}

func testExtension() Extension {
	return NewExtension("test", []string{"Core"}, testProfileProcessor(), testClassProcessor())
}

func profile(pkg, name string, loc *source.Info, tags ...string) *protocol.Profile {
	p := &protocol.Profile{Packageable: protocol.Packageable{Package: pkg, Name: name, SourceInformation: loc}}
	for _, t := range tags {
		p.Tags = append(p.Tags, protocol.ProfileValue{Value: t})
	}
	return p
}

func class(pkg, name string, loc *source.Info) *protocol.Class {
	return &protocol.Class{Packageable: protocol.Packageable{Package: pkg, Name: name, SourceInformation: loc}}
}

func stringProperty(name string, lower int, upper *int, loc *source.Info) protocol.Property {
	return protocol.Property{
		Name:              name,
		GenericType:       protocol.GenericType{RawType: protocol.TypeRef{FullPath: graph.String, SourceInformation: loc}},
		Multiplicity:      protocol.Multiplicity{LowerBound: lower, UpperBound: upper},
		SourceInformation: loc,
	}
}
