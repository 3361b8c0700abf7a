// Package graph implements the stat dependency graph: adjacency storage,
// deterministic topological ordering, and cycle detection. It operates on
// plain strings (the resolver converts StatID to/from its string form at the
// boundary) so this package stays free of an import cycle with the root
// rpgstat package.
package graph

import (
	"fmt"
	"sort"

	"github.com/iancoleman/orderedmap"
)

// CycleError reports a dependency cycle discovered while adding an edge or
// computing a topological order. Path is the cycle as traversed, closed by
// repeating its first element.
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	if len(e.Path) == 0 {
		return "graph: cycle detected (empty path)"
	}
	out := e.Path[0]
	for _, n := range e.Path[1:] {
		out += " -> " + n
	}
	return fmt.Sprintf("graph: cycle detected: %s", out)
}

type color uint8

const (
	white color = iota
	gray
	black
)

// Graph is a directed adjacency store: node -> set of nodes it depends on.
// Edges are recorded in an iteration-stable orderedmap.OrderedMap (the
// teacher's own dependency, already relied on elsewhere in this module for
// deterministic map iteration) rather than a plain Go map, so traversal
// order never depends on Go's randomized map iteration.
type Graph struct {
	nodes *orderedmap.OrderedMap // node -> struct{} (membership)
	edges *orderedmap.OrderedMap // node -> *orderedmap.OrderedMap (dep set)
}

// New returns an empty Graph.
func New() *Graph {
	return &Graph{
		nodes: orderedmap.New(),
		edges: orderedmap.New(),
	}
}

// AddNode ensures node exists in the graph, even if it has no edges.
func (g *Graph) AddNode(node string) {
	if _, ok := g.nodes.Get(node); !ok {
		g.nodes.Set(node, struct{}{})
	}
}

// AddEdge records that from depends on to (to must be resolved before
// from). Idempotent: adding the same edge twice has no additional effect.
func (g *Graph) AddEdge(from, to string) {
	g.AddNode(from)
	g.AddNode(to)

	raw, ok := g.edges.Get(from)
	var deps *orderedmap.OrderedMap
	if ok {
		deps = raw.(*orderedmap.OrderedMap)
	} else {
		deps = orderedmap.New()
		g.edges.Set(from, deps)
	}
	if _, exists := deps.Get(to); !exists {
		deps.Set(to, struct{}{})
	}
}

// RemoveEdge deletes the from->to dependency edge, if present.
func (g *Graph) RemoveEdge(from, to string) {
	raw, ok := g.edges.Get(from)
	if !ok {
		return
	}
	deps := raw.(*orderedmap.OrderedMap)
	deps.Delete(to)
}

// DependenciesOf returns the direct dependencies (predecessors in the
// resolution order) of node, in the order they were added.
func (g *Graph) DependenciesOf(node string) []string {
	raw, ok := g.edges.Get(node)
	if !ok {
		return nil
	}
	deps := raw.(*orderedmap.OrderedMap)
	return deps.Keys()
}

// Nodes returns every node registered in the graph, in insertion order.
func (g *Graph) Nodes() []string {
	return g.nodes.Keys()
}

// DependentsOf returns every node that directly depends on node (the
// from-side of a from->node edge), in the order those edges were added.
func (g *Graph) DependentsOf(node string) []string {
	var out []string
	for _, from := range g.edges.Keys() {
		raw, _ := g.edges.Get(from)
		deps := raw.(*orderedmap.OrderedMap)
		if _, ok := deps.Get(node); ok {
			out = append(out, from)
		}
	}
	return out
}

// dependents builds the reverse adjacency (node -> nodes that depend on it),
// used by invalidation walks.
func (g *Graph) dependents() map[string][]string {
	rev := make(map[string][]string)
	for _, from := range g.edges.Keys() {
		raw, _ := g.edges.Get(from)
		deps := raw.(*orderedmap.OrderedMap)
		for _, to := range deps.Keys() {
			rev[to] = append(rev[to], from)
		}
	}
	return rev
}

// Descendants returns every node transitively depending on node (node's
// dependents, their dependents, and so on), used to invalidate cache entries
// when node or its sources/transforms change. node itself is included.
func (g *Graph) Descendants(node string) []string {
	rev := g.dependents()
	seen := map[string]bool{node: true}
	queue := []string{node}
	order := []string{node}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, dep := range rev[cur] {
			if !seen[dep] {
				seen[dep] = true
				queue = append(queue, dep)
				order = append(order, dep)
			}
		}
	}
	return order
}

// DetectCycle runs a three-color DFS over the whole graph and reports the
// first cycle found (gray node revisited), or nil if the graph is acyclic.
func (g *Graph) DetectCycle() *CycleError {
	nodeKeys := g.nodes.Keys()
	colors := make(map[string]color, len(nodeKeys))
	for _, n := range nodeKeys {
		colors[n] = white
	}
	for _, n := range nodeKeys {
		if colors[n] == white {
			var path []string
			if cyc := g.dfsCycle(n, colors, &path); cyc != nil {
				return cyc
			}
		}
	}
	return nil
}

func (g *Graph) dfsCycle(node string, colors map[string]color, path *[]string) *CycleError {
	colors[node] = gray
	*path = append(*path, node)

	for _, next := range g.DependenciesOf(node) {
		switch colors[next] {
		case white:
			if cyc := g.dfsCycle(next, colors, path); cyc != nil {
				return cyc
			}
		case gray:
			start := indexOf(*path, next)
			var cyc []string
			if start >= 0 {
				cyc = append(append([]string(nil), (*path)[start:]...), next)
			} else {
				cyc = []string{node, next, next}
			}
			return &CycleError{Path: cyc}
		}
	}

	colors[node] = black
	*path = (*path)[:len(*path)-1]
	return nil
}

func indexOf(path []string, node string) int {
	for i, n := range path {
		if n == node {
			return i
		}
	}
	return -1
}

// TopoOrder returns the transitive closure of targets in dependency-respecting
// order (dependencies before dependents). The closure is walked in ascending
// node-name order and each node's dependencies in the order their edges were
// added, so the result is deterministic; nodes with no ordering constraint
// between them are not necessarily in ascending name order.
func (g *Graph) TopoOrder(targets []string) ([]string, *CycleError) {
	if cyc := g.DetectCycle(); cyc != nil {
		return nil, cyc
	}

	closure := make(map[string]bool)
	var collect func(string)
	collect = func(node string) {
		if closure[node] {
			return
		}
		closure[node] = true
		for _, dep := range g.DependenciesOf(node) {
			collect(dep)
		}
	}
	for _, t := range targets {
		collect(t)
	}

	nodes := make([]string, 0, len(closure))
	for n := range closure {
		nodes = append(nodes, n)
	}
	sort.Strings(nodes)

	colors := make(map[string]color, len(nodes))
	var order []string
	var visit func(string)
	visit = func(node string) {
		if colors[node] == black {
			return
		}
		colors[node] = gray
		for _, dep := range g.DependenciesOf(node) {
			if !closure[dep] {
				continue
			}
			visit(dep)
		}
		colors[node] = black
		order = append(order, node)
	}
	for _, n := range nodes {
		visit(n)
	}
	return order, nil
}
