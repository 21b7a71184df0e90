// Package dag orders keyed items by their dependencies.
// It supports cycle detection, topological sorting and execution levels.
package dag

import (
	"cmp"
	"fmt"
	"slices"
)

// Graph is a directed graph whose edges point from a dependency to its
// dependents.
type Graph[K cmp.Ordered] struct {
	nodes   map[K]struct{}
	edges   map[K][]K // parent -> children (dependents)
	parents map[K][]K // child -> parents (dependencies)
}

// New creates an empty graph.
func New[K cmp.Ordered]() *Graph[K] {
	return &Graph[K]{
		nodes:   make(map[K]struct{}),
		edges:   make(map[K][]K),
		parents: make(map[K][]K),
	}
}

// AddNode adds a node. Adding an existing node is a no-op.
func (g *Graph[K]) AddNode(id K) {
	if _, exists := g.nodes[id]; exists {
		return
	}
	g.nodes[id] = struct{}{}
	g.edges[id] = nil
	g.parents[id] = nil
}

// Has reports whether id is a node.
func (g *Graph[K]) Has(id K) bool {
	_, ok := g.nodes[id]
	return ok
}

// AddEdge adds a directed edge from parent to child (child depends on parent).
func (g *Graph[K]) AddEdge(parentID, childID K) error {
	if !g.Has(parentID) {
		return fmt.Errorf("parent node %v does not exist", parentID)
	}
	if !g.Has(childID) {
		return fmt.Errorf("child node %v does not exist", childID)
	}
	if parentID == childID {
		return &CycleError[K]{Path: []K{parentID, parentID}}
	}

	if !slices.Contains(g.edges[parentID], childID) {
		g.edges[parentID] = append(g.edges[parentID], childID)
	}
	if !slices.Contains(g.parents[childID], parentID) {
		g.parents[childID] = append(g.parents[childID], parentID)
	}
	return nil
}

// Parents returns the dependencies of id.
func (g *Graph[K]) Parents(id K) []K {
	return slices.Clone(g.parents[id])
}

// Children returns the dependents of id.
func (g *Graph[K]) Children(id K) []K {
	return slices.Clone(g.edges[id])
}

// Nodes returns every node in sorted order.
func (g *Graph[K]) Nodes() []K {
	ids := make([]K, 0, len(g.nodes))
	for id := range g.nodes {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// NodeCount returns the number of nodes.
func (g *Graph[K]) NodeCount() int {
	return len(g.nodes)
}

// CycleError reports a dependency cycle. Path starts and ends on the same node.
type CycleError[K cmp.Ordered] struct {
	Path []K
}

func (e *CycleError[K]) Error() string {
	return fmt.Sprintf("cycle detected: %v", e.Path)
}

// FindCycle returns a cycle path, or nil if the graph is acyclic.
func (g *Graph[K]) FindCycle() []K {
	visited := make(map[K]bool)
	recStack := make(map[K]bool)
	path := make(map[K]K)

	var cyclePath []K

	var dfs func(id K) bool
	dfs = func(id K) bool {
		visited[id] = true
		recStack[id] = true

		for _, childID := range g.edges[id] {
			if !visited[childID] {
				path[childID] = id
				if dfs(childID) {
					return true
				}
			} else if recStack[childID] {
				cyclePath = []K{childID}
				for curr := id; curr != childID; curr = path[curr] {
					cyclePath = append([]K{curr}, cyclePath...)
				}
				cyclePath = append([]K{childID}, cyclePath...)
				return true
			}
		}

		recStack[id] = false
		return false
	}

	// sorted start order keeps the reported cycle stable
	for _, id := range g.Nodes() {
		if !visited[id] && dfs(id) {
			return cyclePath
		}
	}
	return nil
}

// TopologicalSort returns nodes with dependencies before dependents, breaking
// ties by key order.
func (g *Graph[K]) TopologicalSort() ([]K, error) {
	if cycle := g.FindCycle(); cycle != nil {
		return nil, &CycleError[K]{Path: cycle}
	}

	visited := make(map[K]bool)
	result := make([]K, 0, len(g.nodes))

	var visit func(id K)
	visit = func(id K) {
		if visited[id] {
			return
		}
		visited[id] = true
		parents := slices.Clone(g.parents[id])
		slices.Sort(parents)
		for _, parentID := range parents {
			visit(parentID)
		}
		result = append(result, id)
	}

	for _, id := range g.Nodes() {
		visit(id)
	}
	return result, nil
}

// Levels groups nodes so that every node sits one level after its deepest
// dependency. Level 0 holds nodes with no dependencies; each level is sorted.
func (g *Graph[K]) Levels() ([][]K, error) {
	if cycle := g.FindCycle(); cycle != nil {
		return nil, &CycleError[K]{Path: cycle}
	}

	assigned := make(map[K]int, len(g.nodes))

	var levelOf func(id K) int
	levelOf = func(id K) int {
		if level, ok := assigned[id]; ok {
			return level
		}
		level := 0
		for _, parentID := range g.parents[id] {
			level = max(level, levelOf(parentID)+1)
		}
		assigned[id] = level
		return level
	}

	maxLevel := -1
	for id := range g.nodes {
		maxLevel = max(maxLevel, levelOf(id))
	}

	levels := make([][]K, maxLevel+1)
	for id, level := range assigned {
		levels[level] = append(levels[level], id)
	}
	for i := range levels {
		slices.Sort(levels[i])
	}
	return levels, nil
}
