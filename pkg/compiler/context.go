package compiler

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/leapstack-labs/leapgraph/pkg/diag"
	"github.com/leapstack-labs/leapgraph/pkg/graph"
	"github.com/leapstack-labs/leapgraph/pkg/ledger"
	"github.com/leapstack-labs/leapgraph/pkg/protocol"
	"github.com/leapstack-labs/leapgraph/pkg/source"
)

// DefaultAutoImports are searched for every unqualified path.
var DefaultAutoImports = []string{graph.BuiltinPackage}

// Context is the resolution facade handed to every processor. One pass shares
// one set of state; For returns a view scoped to a single element's imports.
//
// Every successful lookup that consumed a location reports (location, node)
// to the pass ledger before returning.
type Context struct {
	*pass
	element string
	imports []string
}

type pass struct {
	model       *graph.Model
	ledger      ledger.Ledger
	logger      *slog.Logger
	autoImports []string

	importsMu sync.RWMutex
	imports   map[string][]string // element path -> section imports

	warningsMu sync.Mutex
	warnings   []diag.Warning
}

// NewContext creates a root context over model. A nil ledger disables
// reference collection; a nil logger discards.
func NewContext(model *graph.Model, l ledger.Ledger, logger *slog.Logger) *Context {
	if l == nil {
		l = ledger.Disabled{}
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Context{pass: &pass{
		model:       model,
		ledger:      l,
		logger:      logger,
		autoImports: slices.Clone(DefaultAutoImports),
		imports:     make(map[string][]string),
	}}
}

// Model returns the graph being built.
func (c *Context) Model() *graph.Model { return c.model }

// Ledger returns the pass ledger.
func (c *Context) Ledger() ledger.Ledger { return c.ledger }

// Logger returns the pass logger.
func (c *Context) Logger() *slog.Logger { return c.logger }

// Element returns the path of the element this view is scoped to.
func (c *Context) Element() string { return c.element }

// SetImports records the section imports of the given elements.
func (c *Context) SetImports(imports []string, elements ...string) {
	c.importsMu.Lock()
	defer c.importsMu.Unlock()
	for _, el := range elements {
		c.pass.imports[el] = slices.Clone(imports)
	}
}

// For returns a view of c scoped to the imports of element path.
func (c *Context) For(path string) *Context {
	c.importsMu.RLock()
	imports := c.pass.imports[path]
	c.importsMu.RUnlock()
	return &Context{pass: c.pass, element: path, imports: imports}
}

// Warn records an advisory diagnostic.
func (c *Context) Warn(loc *source.Info, format string, args ...any) {
	w := diag.NewWarning(loc, fmt.Sprintf(format, args...))
	c.warningsMu.Lock()
	c.warnings = append(c.warnings, w)
	c.warningsMu.Unlock()
}

// Warnings returns the warnings recorded so far.
func (c *Context) Warnings() []diag.Warning {
	c.warningsMu.Lock()
	defer c.warningsMu.Unlock()
	return slices.Clone(c.warnings)
}

// register forwards a reference to the ledger.
func (c *Context) register(loc *source.Info, n graph.Node) {
	c.ledger.Register(loc, n)
}

// candidates expands path through the scope's imports. Qualified paths are
// returned unchanged.
func (c *Context) candidates(path string) []string {
	if strings.Contains(path, graph.PathSeparator) {
		return []string{path}
	}
	seen := make(map[string]struct{})
	var out []string
	for _, pkgs := range [][]string{c.imports, c.autoImports} {
		for _, pkg := range pkgs {
			full := pkg + graph.PathSeparator + path
			if _, ok := seen[full]; ok {
				continue
			}
			seen[full] = struct{}{}
			out = append(out, full)
		}
	}
	return out
}

// lookup finds path, directly or through imports, and reports ambiguity.
// It does not touch the ledger.
func lookup[T graph.Node](c *Context, path, kind string, loc *source.Info, find func(string) (T, bool)) (T, error) {
	var zero T
	if v, ok := find(path); ok {
		return v, nil
	}
	if strings.Contains(path, graph.PathSeparator) {
		return zero, diag.NewUnresolvedReferenceError(kind, path, loc)
	}

	var (
		matches []string
		found   T
	)
	for _, full := range c.candidates(path) {
		if v, ok := find(full); ok {
			matches = append(matches, full)
			found = v
		}
	}
	switch len(matches) {
	case 0:
		return zero, diag.NewUnresolvedReferenceError(kind, path, loc)
	case 1:
		return found, nil
	default:
		slices.Sort(matches)
		return zero, &diag.AmbiguousReferenceError{Path: path, Matches: matches, Location: loc}
	}
}

func elementFinder[T graph.Element](m *graph.Model) func(string) (T, bool) {
	return func(p string) (T, bool) { return graph.Lookup[T](m, p) }
}

// Resolve finds the element of type T at path and ledgers the reference.
// kind names the expected element in error messages.
func Resolve[T graph.Element](c *Context, path, kind string, loc *source.Info) (T, error) {
	v, err := lookup(c, path, kind, loc, elementFinder[T](c.model))
	if err != nil {
		return v, err
	}
	c.register(loc, v)
	return v, nil
}

// GetClass resolves a class by path.
func (c *Context) GetClass(path string, loc *source.Info) (*graph.Class, error) {
	return Resolve[*graph.Class](c, path, "class", loc)
}

// ResolveEnumeration resolves an enumeration by path.
func (c *Context) ResolveEnumeration(path string, loc *source.Info) (*graph.Enumeration, error) {
	return Resolve[*graph.Enumeration](c, path, "enumeration", loc)
}

// ResolveElement resolves any packageable element by path.
func (c *Context) ResolveElement(path string, loc *source.Info) (graph.Element, error) {
	return Resolve[graph.Element](c, path, "", loc)
}

// ResolveType resolves a primitive, class or enumeration by path.
func (c *Context) ResolveType(path string, loc *source.Info) (graph.Type, error) {
	t, err := lookup(c, path, "type", loc, c.model.Type)
	if err != nil {
		return nil, err
	}
	c.register(loc, t)
	return t, nil
}

// ResolveAssociation resolves an association by path.
func (c *Context) ResolveAssociation(path string, loc *source.Info) (*graph.Association, error) {
	return Resolve[*graph.Association](c, path, "association", loc)
}

// ResolveProperty finds name on class or, breadth first, on its linked super
// types. The property is ledgered at loc. Classes are populated during
// linking, so only processors in phases after the class phase may call it.
func (c *Context) ResolveProperty(class *graph.Class, name string, loc *source.Info) (*graph.Property, error) {
	seen := map[*graph.Class]bool{}
	queue := []*graph.Class{class}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if seen[cur] {
			continue
		}
		seen[cur] = true
		if p, ok := cur.Property(name); ok {
			c.register(loc, p)
			return p, nil
		}
		for _, st := range cur.SuperTypes {
			if sc, ok := st.RawType.(*graph.Class); ok {
				queue = append(queue, sc)
			}
		}
	}
	return nil, &diag.UnresolvedReferenceError{Kind: "property", Path: name, Owner: class.Path(), OwnerKind: "class", Location: loc}
}

// ResolveProfile resolves a profile by path.
func (c *Context) ResolveProfile(path string, loc *source.Info) (*graph.Profile, error) {
	return Resolve[*graph.Profile](c, path, "profile", loc)
}

func (c *Context) findProfile(profilePath string, usageLoc *source.Info) (*graph.Profile, error) {
	return lookup(c, profilePath, "profile", usageLoc, elementFinder[*graph.Profile](c.model))
}

// ResolveTag resolves value within the profile at profilePath. Both failure
// modes are located at usageLoc and leave the ledger untouched; on success
// the profile is ledgered at profileLoc and the tag at usageLoc.
func (c *Context) ResolveTag(profilePath, value string, profileLoc, usageLoc *source.Info) (*graph.Tag, error) {
	p, err := c.findProfile(profilePath, usageLoc)
	if err != nil {
		return nil, err
	}
	t, ok := p.Tag(value)
	if !ok {
		return nil, &diag.UnresolvedReferenceError{Kind: "tag", Path: value, Owner: p.Path(), Location: usageLoc}
	}
	c.register(profileLoc, p)
	c.register(usageLoc, t)
	return t, nil
}

// ResolveStereotype mirrors ResolveTag for stereotypes.
func (c *Context) ResolveStereotype(profilePath, value string, profileLoc, usageLoc *source.Info) (*graph.Stereotype, error) {
	p, err := c.findProfile(profilePath, usageLoc)
	if err != nil {
		return nil, err
	}
	s, ok := p.Stereotype(value)
	if !ok {
		return nil, &diag.UnresolvedReferenceError{Kind: "stereotype", Path: value, Owner: p.Path(), Location: usageLoc}
	}
	c.register(profileLoc, p)
	c.register(usageLoc, s)
	return s, nil
}

// NewTaggedValue resolves the tag of tv and pairs it with the literal.
// Tag resolution errors are returned unchanged.
func (c *Context) NewTaggedValue(tv protocol.TaggedValue) (*graph.TaggedValue, error) {
	tag, err := c.ResolveTag(tv.Tag.Profile, tv.Tag.Value, tv.Tag.ProfileSourceInformation, tv.Tag.SourceInformation)
	if err != nil {
		return nil, err
	}
	return &graph.TaggedValue{Tag: tag, Value: tv.Value}, nil
}

// ResolveAnnotations resolves every stereotype and tagged value of a.
func (c *Context) ResolveAnnotations(a protocol.Annotated) (graph.Annotations, error) {
	var out graph.Annotations
	for _, sp := range a.Stereotypes {
		s, err := c.ResolveStereotype(sp.Profile, sp.Value, sp.ProfileSourceInformation, sp.SourceInformation)
		if err != nil {
			return graph.Annotations{}, err
		}
		out.Stereotypes = append(out.Stereotypes, s)
	}
	for _, tv := range a.TaggedValues {
		v, err := c.NewTaggedValue(tv)
		if err != nil {
			return graph.Annotations{}, err
		}
		out.TaggedValues = append(out.TaggedValues, v)
	}
	return out, nil
}

// ResolveGenericType resolves the type at path and wraps it with no arguments.
func (c *Context) ResolveGenericType(path string, loc *source.Info) (*graph.GenericType, error) {
	raw, err := c.ResolveType(path, loc)
	if err != nil {
		return nil, err
	}
	return NewGenericType(raw), nil
}

// BuildGenericType resolves a protocol generic type and all of its arguments.
func (c *Context) BuildGenericType(g protocol.GenericType) (*graph.GenericType, error) {
	loc := g.RawType.SourceInformation
	if loc == nil {
		loc = g.SourceInformation
	}
	raw, err := c.ResolveType(g.RawType.FullPath, loc)
	if err != nil {
		return nil, err
	}
	args := make([]*graph.GenericType, 0, len(g.TypeArguments))
	for _, a := range g.TypeArguments {
		arg, err := c.BuildGenericType(a)
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}
	return NewGenericType(raw, args...), nil
}

// BuildRelationType resolves a protocol relation type.
func (c *Context) BuildRelationType(rt protocol.RelationType) (*graph.RelationType, error) {
	cols := make([]graph.Column, 0, len(rt.Columns))
	for _, pc := range rt.Columns {
		typ, err := c.BuildGenericType(pc.GenericType)
		if err != nil {
			return nil, err
		}
		mult, err := NewMultiplicity(pc.Multiplicity, rt.SourceInformation)
		if err != nil {
			return nil, err
		}
		cols = append(cols, graph.Column{Name: pc.Name, GenericType: typ, Multiplicity: mult})
	}
	out, err := graph.NewRelationType(cols...)
	if err != nil {
		var ce *diag.CompilationError
		if rt.SourceInformation != nil && errors.As(err, &ce) {
			ce.Location = rt.SourceInformation
		}
		return nil, err
	}
	return out, nil
}
