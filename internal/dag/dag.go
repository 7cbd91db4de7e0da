// Package dag orders scripts by the objects they define and reference.
// A script that calls a procedure or reads a view depends on the script that
// creates it; the graph yields creation order, parallel levels and the set of
// scripts affected by a change.
package dag

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"
)

// ErrCycle is matched by every *CycleError.
var ErrCycle = errors.New("dependency cycle")

// CycleError reports a dependency cycle. Path starts and ends on the same node.
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("dependency cycle: %s", strings.Join(e.Path, " -> "))
}

// Is reports whether target is ErrCycle.
func (e *CycleError) Is(target error) bool {
	return target == ErrCycle
}

// Node is a graph node holding a value of type T.
type Node[T any] struct {
	ID   string
	Data T
}

// Graph is a directed graph where an edge parent -> child means the child
// depends on the parent.
type Graph[T any] struct {
	nodes    map[string]*Node[T]
	children map[string][]string
	parents  map[string][]string
}

// New creates an empty graph.
func New[T any]() *Graph[T] {
	return &Graph[T]{
		nodes:    make(map[string]*Node[T]),
		children: make(map[string][]string),
		parents:  make(map[string][]string),
	}
}

// AddNode adds a node, replacing the data of an existing node with the same ID.
func (g *Graph[T]) AddNode(id string, data T) {
	if n, ok := g.nodes[id]; ok {
		n.Data = data
		return
	}
	g.nodes[id] = &Node[T]{ID: id, Data: data}
}

// AddEdge records that child depends on parent.
func (g *Graph[T]) AddEdge(parent, child string) error {
	if _, ok := g.nodes[parent]; !ok {
		return fmt.Errorf("parent node %q does not exist", parent)
	}
	if _, ok := g.nodes[child]; !ok {
		return fmt.Errorf("child node %q does not exist", child)
	}
	if parent == child {
		return &CycleError{Path: []string{parent, parent}}
	}
	if !slices.Contains(g.children[parent], child) {
		g.children[parent] = append(g.children[parent], child)
	}
	if !slices.Contains(g.parents[child], parent) {
		g.parents[child] = append(g.parents[child], parent)
	}
	return nil
}

// Node returns the node with the given ID.
func (g *Graph[T]) Node(id string) (*Node[T], bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Parents returns the direct dependencies of id, sorted.
func (g *Graph[T]) Parents(id string) []string {
	return sorted(g.parents[id])
}

// Children returns the direct dependents of id, sorted.
func (g *Graph[T]) Children(id string) []string {
	return sorted(g.children[id])
}

// Nodes returns all nodes ordered by ID.
func (g *Graph[T]) Nodes() []*Node[T] {
	out := make([]*Node[T], 0, len(g.nodes))
	for _, id := range g.ids() {
		out = append(out, g.nodes[id])
	}
	return out
}

// Len returns the number of nodes.
func (g *Graph[T]) Len() int {
	return len(g.nodes)
}

// EdgeCount returns the number of edges.
func (g *Graph[T]) EdgeCount() int {
	n := 0
	for _, c := range g.children {
		n += len(c)
	}
	return n
}

// Cycle returns a *CycleError for the first cycle found, or nil. The search
// visits nodes in ID order so the reported path is stable.
func (g *Graph[T]) Cycle() error {
	const (
		unvisited = iota
		active
		done
	)
	state := make(map[string]int, len(g.nodes))
	var stack []string

	var visit func(id string) []string
	visit = func(id string) []string {
		state[id] = active
		stack = append(stack, id)
		for _, child := range sorted(g.children[id]) {
			switch state[child] {
			case active:
				i := slices.Index(stack, child)
				return append(slices.Clone(stack[i:]), child)
			case unvisited:
				if path := visit(child); path != nil {
					return path
				}
			}
		}
		stack = stack[:len(stack)-1]
		state[id] = done
		return nil
	}

	for _, id := range g.ids() {
		if state[id] == unvisited {
			if path := visit(id); path != nil {
				return &CycleError{Path: path}
			}
		}
	}
	return nil
}

// TopologicalSort returns nodes with every dependency ahead of its
// dependents. Ties are broken by ID.
func (g *Graph[T]) TopologicalSort() ([]*Node[T], error) {
	levels, err := g.Levels()
	if err != nil {
		return nil, err
	}
	out := make([]*Node[T], 0, len(g.nodes))
	for _, level := range levels {
		for _, id := range level {
			out = append(out, g.nodes[id])
		}
	}
	return out, nil
}

// Levels groups node IDs by depth. Level 0 holds nodes without dependencies;
// every node in level N depends only on nodes in earlier levels, so the
// members of one level can be processed in parallel.
func (g *Graph[T]) Levels() ([][]string, error) {
	if err := g.Cycle(); err != nil {
		return nil, err
	}

	depth := make(map[string]int, len(g.nodes))
	var level func(id string) int
	level = func(id string) int {
		if d, ok := depth[id]; ok {
			return d
		}
		d := 0
		for _, p := range g.parents[id] {
			d = max(d, level(p)+1)
		}
		depth[id] = d
		return d
	}

	var levels [][]string
	for _, id := range g.ids() {
		d := level(id)
		for len(levels) <= d {
			levels = append(levels, nil)
		}
		levels[d] = append(levels[d], id)
	}
	for _, l := range levels {
		sort.Strings(l)
	}
	return levels, nil
}

// Affected returns the given nodes and everything downstream of them, sorted.
// Unknown IDs are ignored.
func (g *Graph[T]) Affected(ids []string) []string {
	seen := make(map[string]bool)
	var mark func(id string)
	mark = func(id string) {
		if seen[id] {
			return
		}
		seen[id] = true
		for _, c := range g.children[id] {
			mark(c)
		}
	}
	for _, id := range ids {
		if _, ok := g.nodes[id]; ok {
			mark(id)
		}
	}
	return keys(seen)
}

// Upstream returns every transitive dependency of id, sorted.
func (g *Graph[T]) Upstream(id string) []string {
	seen := make(map[string]bool)
	var mark func(id string)
	mark = func(id string) {
		for _, p := range g.parents[id] {
			if !seen[p] {
				seen[p] = true
				mark(p)
			}
		}
	}
	mark(id)
	return keys(seen)
}

// Roots returns nodes without dependencies.
func (g *Graph[T]) Roots() []string {
	var out []string
	for _, id := range g.ids() {
		if len(g.parents[id]) == 0 {
			out = append(out, id)
		}
	}
	return out
}

// Leaves returns nodes nothing depends on.
func (g *Graph[T]) Leaves() []string {
	var out []string
	for _, id := range g.ids() {
		if len(g.children[id]) == 0 {
			out = append(out, id)
		}
	}
	return out
}

// Subgraph returns a graph holding only the given nodes and the edges
// between them.
func (g *Graph[T]) Subgraph(ids []string) *Graph[T] {
	sub := New[T]()
	for _, id := range ids {
		if n, ok := g.nodes[id]; ok {
			sub.AddNode(id, n.Data)
		}
	}
	for _, id := range ids {
		for _, c := range g.children[id] {
			if _, ok := sub.nodes[c]; ok {
				_ = sub.AddEdge(id, c)
			}
		}
	}
	return sub
}

func (g *Graph[T]) ids() []string {
	out := make([]string, 0, len(g.nodes))
	for id := range g.nodes {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func sorted(s []string) []string {
	out := slices.Clone(s)
	sort.Strings(out)
	return out
}

func keys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
