package compiler

import (
	"slices"
	"sort"
	"sync"
)

// Extension contributes processors for a set of element kinds. Group is an
// ordered list of category labels that places the extension's processors in
// the compile phase order.
type Extension interface {
	Name() string
	Group() []string
	Processors() []*Processor
}

type extension struct {
	name       string
	group      []string
	processors []*Processor
}

// NewExtension bundles processors under a name and group.
func NewExtension(name string, group []string, processors ...*Processor) Extension {
	return &extension{name: name, group: slices.Clone(group), processors: processors}
}

func (e *extension) Name() string             { return e.name }
func (e *extension) Group() []string          { return slices.Clone(e.group) }
func (e *extension) Processors() []*Processor { return e.processors }

var (
	extensionsMu sync.RWMutex
	extensions   = make(map[string]Extension)
)

// RegisterExtension makes an extension available to DefaultRegistry.
// Called by extension packages in their init() functions.
func RegisterExtension(ext Extension) {
	extensionsMu.Lock()
	defer extensionsMu.Unlock()
	extensions[ext.Name()] = ext
}

// LookupExtension returns a registered extension by name.
func LookupExtension(name string) (Extension, bool) {
	extensionsMu.RLock()
	defer extensionsMu.RUnlock()
	ext, ok := extensions[name]
	return ext, ok
}

// RegisteredExtensions returns every registered extension sorted by name.
func RegisteredExtensions() []Extension {
	extensionsMu.RLock()
	defer extensionsMu.RUnlock()
	out := make([]Extension, 0, len(extensions))
	for _, ext := range extensions {
		out = append(out, ext)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

// CoreGroup is the group label DefaultRegistry ranks right after any
// explicit group order.
const CoreGroup = "Core"

// DefaultRegistry builds a registry from every registered extension. Core
// ranks ahead of the other groups unless WithGroupOrder says otherwise.
func DefaultRegistry(opts ...RegistryOption) (*Registry, error) {
	opts = append(slices.Clone(opts), withFallbackOrder(CoreGroup))
	return NewRegistry(RegisteredExtensions(), opts...)
}
