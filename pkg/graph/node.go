// Package graph contains the resolved, strongly typed model graph produced by
// the compiler.
//
// Node identity is by graph position: every node receives a process-unique ID
// when created and two nodes with identical content remain distinct. Nodes
// built during resolution (generic types, relation types) are synthetic and
// carry no source location.
package graph

import (
	"sync/atomic"

	"github.com/leapstack-labs/leapgraph/pkg/source"
)

var lastID atomic.Uint64

// Node is any entity in the model graph.
type Node interface {
	// ID is unique for the lifetime of the process.
	ID() uint64
	// Location is the declaring span, or nil for synthetic nodes.
	Location() *source.Info
}

// Element is a node addressable by its qualified path.
type Element interface {
	Node
	Path() string
	Kind() string
}

// Type is a node usable as the raw type of a GenericType.
type Type interface {
	Node
	Path() string
	isType()
}

type node struct {
	id  uint64
	loc *source.Info
}

func newNode(loc *source.Info) node {
	if loc != nil {
		l := *loc
		loc = &l
	}
	return node{id: lastID.Add(1), loc: loc}
}

func (n node) ID() uint64 { return n.id }

func (n node) Location() *source.Info { return n.loc }

// Base carries the identity and location of nodes declared outside this
// package. Embed it and create it with NewBase.
type Base struct {
	node
}

// NewBase assigns a fresh ID. loc is copied.
func NewBase(loc *source.Info) Base {
	return Base{node: newNode(loc)}
}

// PathSeparator joins package segments in qualified paths.
const PathSeparator = "::"

// Name returns the last segment of a qualified path.
func Name(path string) string {
	for i := len(path) - len(PathSeparator); i >= 0; i-- {
		if path[i:i+len(PathSeparator)] == PathSeparator {
			return path[i+len(PathSeparator):]
		}
	}
	return path
}

// Package returns everything before the last segment of a qualified path.
func Package(path string) string {
	name := Name(path)
	if len(name) == len(path) {
		return ""
	}
	return path[:len(path)-len(name)-len(PathSeparator)]
}
