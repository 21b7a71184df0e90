package compiler

import (
	"fmt"
	"reflect"

	"github.com/leapstack-labs/leapgraph/pkg/graph"
	"github.com/leapstack-labs/leapgraph/pkg/protocol"
)

// BuildFunc creates the node for an element. It may only mutate the node it
// returns; other nodes are reached through Context resolution.
type BuildFunc func(el protocol.Element, ctx *Context) (graph.Node, error)

// LinkFunc completes a built node once every element of the pass exists.
type LinkFunc func(el protocol.Element, ctx *Context, node graph.Node) error

// Processor compiles one protocol element kind.
type Processor struct {
	Kind protocol.Kind
	// Prerequisites are kinds whose processors must run first.
	Prerequisites []protocol.Kind
	// New returns an empty element for decoding.
	New func() protocol.Element
	// Build runs in the first pass. A returned graph.Element is added to the
	// model under its path.
	Build BuildFunc
	// Link runs in the second pass, after every Build. Optional.
	Link LinkFunc
	// Validate runs last and may only warn or fail. Optional.
	Validate LinkFunc
}

// Handler is the typed form of a Processor for elements of type E producing
// nodes of type N.
type Handler[E protocol.Element, N graph.Node] struct {
	Kind          protocol.Kind
	Prerequisites []protocol.Kind
	New           func() E
	Build         func(el E, ctx *Context) (N, error)
	Link          func(el E, ctx *Context, node N) error
	Validate      func(el E, ctx *Context, node N) error
}

// Processor erases the handler's types.
func (h Handler[E, N]) Processor() *Processor {
	p := &Processor{
		Kind:          h.Kind,
		Prerequisites: h.Prerequisites,
		Build: func(el protocol.Element, ctx *Context) (graph.Node, error) {
			e, err := cast[E](h.Kind, el)
			if err != nil {
				return nil, err
			}
			n, err := h.Build(e, ctx)
			if err != nil {
				return nil, err
			}
			if isNil(n) {
				return nil, nil
			}
			return n, nil
		},
	}
	if h.New != nil {
		p.New = func() protocol.Element { return h.New() }
	}
	if h.Link != nil {
		p.Link = h.wrap(h.Link)
	}
	if h.Validate != nil {
		p.Validate = h.wrap(h.Validate)
	}
	return p
}

func (h Handler[E, N]) wrap(fn func(E, *Context, N) error) LinkFunc {
	return func(el protocol.Element, ctx *Context, node graph.Node) error {
		e, err := cast[E](h.Kind, el)
		if err != nil {
			return err
		}
		var n N
		if node != nil {
			var ok bool
			if n, ok = node.(N); !ok {
				return fmt.Errorf("processor %s: unexpected node type %T", h.Kind, node)
			}
		}
		return fn(e, ctx, n)
	}
}

// isNil also catches typed nils, which would otherwise reach the model as
// non-nil nodes.
func isNil(n graph.Node) bool {
	if n == nil {
		return true
	}
	switch v := reflect.ValueOf(n); v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func:
		return v.IsNil()
	default:
		return false
	}
}

func cast[E protocol.Element](kind protocol.Kind, el protocol.Element) (E, error) {
	e, ok := el.(E)
	if !ok {
		var zero E
		return zero, fmt.Errorf("processor %s: unexpected element type %T", kind, el)
	}
	return e, nil
}
