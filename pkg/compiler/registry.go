package compiler

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/leapstack-labs/leapgraph/internal/dag"
	"github.com/leapstack-labs/leapgraph/pkg/diag"
	"github.com/leapstack-labs/leapgraph/pkg/protocol"
)

// Phase is a set of kinds whose elements may be processed in parallel.
// Phases run strictly in order.
type Phase struct {
	Index int
	Group []string
	Kinds []protocol.Kind
}

type entry struct {
	processor *Processor
	extension string
	group     []string
}

// Registry is the immutable dispatch table built from a set of extensions.
type Registry struct {
	extensions []Extension
	processors map[protocol.Kind]entry
	phases     []Phase
}

type registryOptions struct {
	groupOrder []string
	fallback   []string
}

// RegistryOption configures NewRegistry.
type RegistryOption func(*registryOptions)

// WithGroupOrder ranks group labels explicitly. Labels not listed rank after
// the listed ones, in first-declaration order.
func WithGroupOrder(labels ...string) RegistryOption {
	return func(o *registryOptions) { o.groupOrder = labels }
}

// withFallbackOrder ranks labels after the explicit order and before
// first-declaration order.
func withFallbackOrder(labels ...string) RegistryOption {
	return func(o *registryOptions) { o.fallback = labels }
}

// NewRegistry indexes the processors of exts and plans the compile phases.
//
// Two processors for the same kind fail with *diag.DuplicateProcessorError.
// Groups are compared label by label; all processors of an earlier group run
// before any processor of a later one. Within a group, prerequisites split
// processors into successive phases; a prerequisite cycle, or a prerequisite
// on a later group, fails with *diag.OrderingError.
func NewRegistry(exts []Extension, opts ...RegistryOption) (*Registry, error) {
	var o registryOptions
	for _, opt := range opts {
		opt(&o)
	}

	r := &Registry{
		extensions: slices.Clone(exts),
		processors: make(map[protocol.Kind]entry),
	}
	for _, ext := range exts {
		group := ext.Group()
		for _, p := range ext.Processors() {
			if prev, ok := r.processors[p.Kind]; ok {
				return nil, &diag.DuplicateProcessorError{Kind: string(p.Kind), First: prev.extension, Second: ext.Name()}
			}
			r.processors[p.Kind] = entry{processor: p, extension: ext.Name(), group: group}
		}
	}

	phases, err := r.plan(rankLabels(exts, slices.Concat(o.groupOrder, o.fallback)))
	if err != nil {
		return nil, err
	}
	r.phases = phases
	return r, nil
}

// rankLabels numbers labels: explicit order first, then first declaration.
func rankLabels(exts []Extension, explicit []string) map[string]int {
	rank := make(map[string]int)
	for _, l := range explicit {
		if _, ok := rank[l]; !ok {
			rank[l] = len(rank)
		}
	}
	for _, ext := range exts {
		for _, l := range ext.Group() {
			if _, ok := rank[l]; !ok {
				rank[l] = len(rank)
			}
		}
	}
	return rank
}

func compareGroups(rank map[string]int, a, b []string) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if d := rank[a[i]] - rank[b[i]]; d != 0 {
			return d
		}
	}
	return len(a) - len(b)
}

func groupKey(g []string) string { return strings.Join(g, "/") }

func (r *Registry) plan(rank map[string]int) ([]Phase, error) {
	groups := make(map[string][]string)
	byGroup := make(map[string][]protocol.Kind)
	for kind, e := range r.processors {
		k := groupKey(e.group)
		groups[k] = e.group
		byGroup[k] = append(byGroup[k], kind)
	}

	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b string) int {
		if c := compareGroups(rank, groups[a], groups[b]); c != 0 {
			return c
		}
		return strings.Compare(a, b)
	})
	position := make(map[string]int, len(keys))
	for i, k := range keys {
		position[k] = i
	}

	var phases []Phase
	for i, k := range keys {
		g := dag.New[protocol.Kind]()
		for _, kind := range byGroup[k] {
			g.AddNode(kind)
		}
		for _, kind := range byGroup[k] {
			for _, pre := range r.processors[kind].processor.Prerequisites {
				dep, ok := r.processors[pre]
				if !ok {
					// optional: the providing extension is not loaded
					continue
				}
				switch depPos := position[groupKey(dep.group)]; {
				case depPos < i:
					continue
				case depPos > i:
					return nil, &diag.OrderingError{
						Kinds:  []string{string(kind), string(pre)},
						Reason: fmt.Sprintf("%s requires %s, which belongs to a later group", kind, pre),
					}
				}
				if err := g.AddEdge(pre, kind); err != nil {
					return nil, orderingError(err)
				}
			}
		}

		levels, err := g.Levels()
		if err != nil {
			return nil, orderingError(err)
		}
		for _, level := range levels {
			phases = append(phases, Phase{Index: len(phases), Group: slices.Clone(groups[k]), Kinds: level})
		}
	}
	return phases, nil
}

func orderingError(err error) error {
	var cycle *dag.CycleError[protocol.Kind]
	if errors.As(err, &cycle) {
		kinds := make([]string, len(cycle.Path))
		for i, k := range cycle.Path {
			kinds[i] = string(k)
		}
		return &diag.OrderingError{Kinds: kinds, Reason: "prerequisite cycle"}
	}
	return &diag.OrderingError{Reason: err.Error()}
}

// Phases returns the planned compile phases in execution order.
func (r *Registry) Phases() []Phase {
	out := make([]Phase, len(r.phases))
	for i, p := range r.phases {
		out[i] = Phase{Index: p.Index, Group: slices.Clone(p.Group), Kinds: slices.Clone(p.Kinds)}
	}
	return out
}

// Processor returns the processor registered for kind.
func (r *Registry) Processor(kind protocol.Kind) (*Processor, bool) {
	e, ok := r.processors[kind]
	return e.processor, ok
}

// ExtensionOf returns the name of the extension handling kind.
func (r *Registry) ExtensionOf(kind protocol.Kind) (string, bool) {
	e, ok := r.processors[kind]
	return e.extension, ok
}

// Extensions returns the extensions the registry was built from.
func (r *Registry) Extensions() []Extension {
	return slices.Clone(r.extensions)
}

// New implements protocol.Factory.
func (r *Registry) New(kind protocol.Kind) (protocol.Element, bool) {
	e, ok := r.processors[kind]
	if !ok || e.processor.New == nil {
		return nil, false
	}
	return e.processor.New(), true
}
