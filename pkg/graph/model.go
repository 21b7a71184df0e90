package graph

import (
	"maps"
	"slices"
	"sync"
)

// Model is the type registry of a compiled graph. It maps qualified paths to
// elements and preloads the primitive types.
//
// Inserts happen during the build pass and may run concurrently; reads after
// the phase barrier see every insert of earlier phases.
type Model struct {
	mu sync.RWMutex

	// byPath maps qualified paths to elements: "model::Person" → *Class
	byPath map[string]Element

	// primitives maps primitive names to their types: "String" → *PrimitiveType
	primitives map[string]*PrimitiveType
}

// NewModel creates a model holding only the primitive types.
func NewModel() *Model {
	m := &Model{
		byPath:     make(map[string]Element),
		primitives: make(map[string]*PrimitiveType, len(PrimitiveNames)),
	}
	for _, name := range PrimitiveNames {
		m.primitives[name] = newPrimitive(name)
	}
	return m
}

// Add registers an element under its path. It returns the existing element
// and false when the path is already taken.
func (m *Model) Add(el Element) (Element, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.byPath[el.Path()]; ok {
		return existing, false
	}
	if _, ok := m.primitives[el.Path()]; ok {
		return m.primitives[el.Path()], false
	}
	m.byPath[el.Path()] = el
	return el, true
}

// Element returns the element at path.
func (m *Model) Element(path string) (Element, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	el, ok := m.byPath[path]
	return el, ok
}

// Primitive returns a built-in type by name.
func (m *Model) Primitive(name string) (*PrimitiveType, bool) {
	p, ok := m.primitives[name]
	return p, ok
}

// Type returns the primitive or element type at path.
func (m *Model) Type(path string) (Type, bool) {
	if p, ok := m.primitives[path]; ok {
		return p, true
	}
	el, ok := m.Element(path)
	if !ok {
		return nil, false
	}
	t, ok := el.(Type)
	return t, ok
}

// Contains reports whether path names a primitive or an element.
func (m *Model) Contains(path string) bool {
	if _, ok := m.primitives[path]; ok {
		return true
	}
	_, ok := m.Element(path)
	return ok
}

// Lookup returns the element at path if it has type T.
func Lookup[T Element](m *Model, path string) (T, bool) {
	var zero T
	el, ok := m.Element(path)
	if !ok {
		return zero, false
	}
	t, ok := el.(T)
	return t, ok
}

// Class returns the class at path.
func (m *Model) Class(path string) (*Class, bool) { return Lookup[*Class](m, path) }

// Profile returns the profile at path.
func (m *Model) Profile(path string) (*Profile, bool) { return Lookup[*Profile](m, path) }

// Enumeration returns the enumeration at path.
func (m *Model) Enumeration(path string) (*Enumeration, bool) {
	return Lookup[*Enumeration](m, path)
}

// Paths returns every element path in sorted order.
func (m *Model) Paths() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Sorted(maps.Keys(m.byPath))
}

// Elements returns every element ordered by path.
func (m *Model) Elements() []Element {
	paths := m.Paths()
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Element, 0, len(paths))
	for _, p := range paths {
		out = append(out, m.byPath[p])
	}
	return out
}

// Count returns the number of registered elements, excluding primitives.
func (m *Model) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.byPath)
}
