// Package ledger records which source locations referenced which graph nodes
// during one compile pass.
//
// A Ledger is either a *Collector, which stores every reference, or
// Disabled, which drops them. Only a Collector can be read.
package ledger

import (
	"slices"
	"sync"

	"github.com/leapstack-labs/leapgraph/pkg/diag"
	"github.com/leapstack-labs/leapgraph/pkg/graph"
	"github.com/leapstack-labs/leapgraph/pkg/source"
)

// Ledger receives (location, node) references from the compile context.
type Ledger interface {
	// Register records that loc referenced node.
	Register(loc *source.Info, node graph.Node)
	// Enabled reports whether registrations are kept.
	Enabled() bool
}

// New returns a Collector when collect is true and Disabled otherwise.
func New(collect bool) Ledger {
	if collect {
		return NewCollector()
	}
	return Disabled{}
}

// Disabled ignores every registration.
type Disabled struct{}

// Register does nothing.
func (Disabled) Register(*source.Info, graph.Node) {}

// Enabled returns false.
func (Disabled) Enabled() bool { return false }

// References returns the snapshot of l. Reading a Disabled ledger fails with
// *diag.IllegalStateError.
func References(l Ledger) (map[graph.Node][]source.Info, error) {
	c, ok := l.(*Collector)
	if !ok || c == nil {
		return nil, &diag.IllegalStateError{
			Op:     "read references",
			Reason: "reference collection was not enabled for this compilation",
		}
	}
	return c.References(), nil
}

const shardCount = 32

type shard struct {
	mu   sync.Mutex
	refs map[graph.Node]map[source.Info]struct{}
}

// Collector is a lock-striped multimap from node to the set of locations that
// referenced it. It is safe for concurrent use.
type Collector struct {
	shards [shardCount]shard
}

// NewCollector creates an empty collector.
func NewCollector() *Collector {
	c := &Collector{}
	for i := range c.shards {
		c.shards[i].refs = make(map[graph.Node]map[source.Info]struct{})
	}
	return c
}

// Enabled returns true.
func (c *Collector) Enabled() bool { return true }

// Register records loc against node unless loc is nil or unknown, node has no
// declaring location, or loc equals the node's own declaring location.
// Locations are compared by value.
func (c *Collector) Register(loc *source.Info, node graph.Node) {
	if !source.IsKnownPtr(loc) || node == nil {
		return
	}
	decl := node.Location()
	if decl == nil || *decl == *loc {
		return
	}

	s := &c.shards[node.ID()%shardCount]
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.refs[node]
	if !ok {
		set = make(map[source.Info]struct{})
		s.refs[node] = set
	}
	set[*loc] = struct{}{}
}

// References returns a snapshot: each referenced node with its locations sorted.
func (c *Collector) References() map[graph.Node][]source.Info {
	out := make(map[graph.Node][]source.Info)
	for i := range c.shards {
		s := &c.shards[i]
		s.mu.Lock()
		for n, set := range s.refs {
			out[n] = sortedLocations(set)
		}
		s.mu.Unlock()
	}
	return out
}

// ReferencesTo returns the sorted locations referencing node.
func (c *Collector) ReferencesTo(node graph.Node) []source.Info {
	s := &c.shards[node.ID()%shardCount]
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortedLocations(s.refs[node])
}

// Len returns the total number of (node, location) pairs.
func (c *Collector) Len() int {
	n := 0
	for i := range c.shards {
		s := &c.shards[i]
		s.mu.Lock()
		for _, set := range s.refs {
			n += len(set)
		}
		s.mu.Unlock()
	}
	return n
}

func sortedLocations(set map[source.Info]struct{}) []source.Info {
	locs := make([]source.Info, 0, len(set))
	for l := range set {
		locs = append(locs, l)
	}
	slices.SortFunc(locs, source.Compare)
	return locs
}
