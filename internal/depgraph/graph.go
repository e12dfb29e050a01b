// Package depgraph builds the directed dependency graph over parsed job
// definitions: an edge u -> v exists iff v's condition references u.
//
// The graph is stored index-based (name -> canonical index, integer
// adjacency lists) so topological ordering and cycle detection are cheap
// and free of ownership cycles. It is immutable once built.
package depgraph

import (
	"container/heap"
	"sort"
	"strings"

	"github.com/vk/jilgraph/internal/jil"
)

// Node is one graph vertex. Synthetic nodes stand in for jobs referenced
// by a condition but absent from the definition set, so propagation stays
// well-defined over dangling references.
type Node struct {
	Name      string
	Job       *jil.Job // nil for synthetic nodes
	Synthetic bool
}

// Edge is an exported (From, To) name pair: To's condition references From.
type Edge struct {
	From string `json:"from" yaml:"from"`
	To   string `json:"to" yaml:"to"`
}

// Graph is an immutable, validated DAG over job names. It is safe for
// concurrent read access.
type Graph struct {
	nodes    []Node
	index    map[string]int // jil.Key(name) -> canonical index
	parents  [][]int        // sorted ascending
	children [][]int        // sorted ascending
	indeg    []int
}

// Len returns the number of nodes, synthetic ones included.
func (g *Graph) Len() int { return len(g.nodes) }

// Node returns the node at the given canonical index.
func (g *Graph) Node(i int) Node { return g.nodes[i] }

// Index resolves a job name (case-insensitively) to its canonical index.
func (g *Graph) Index(name string) (int, bool) {
	i, ok := g.index[jil.Key(name)]
	return i, ok
}

// Parents returns the canonical indices of the jobs referenced by node i's
// condition.
func (g *Graph) Parents(i int) []int { return g.parents[i] }

// Children returns the canonical indices of the jobs whose condition
// references node i.
func (g *Graph) Children(i int) []int { return g.children[i] }

// Edges returns every edge as a name pair, in canonical order.
func (g *Graph) Edges() []Edge {
	var out []Edge
	for from, tos := range g.children {
		for _, to := range tos {
			out = append(out, Edge{From: g.nodes[from].Name, To: g.nodes[to].Name})
		}
	}
	return out
}

// TopoOrder returns a deterministic topological ordering of canonical
// indices, ancestors before descendants. The ready set is a min-heap over
// canonical indices, so identical graphs always order identically.
func (g *Graph) TopoOrder() []int {
	indeg := make([]int, len(g.indeg))
	copy(indeg, g.indeg)

	ready := &intMinHeap{}
	heap.Init(ready)
	for i := range indeg {
		if indeg[i] == 0 {
			heap.Push(ready, i)
		}
	}

	out := make([]int, 0, len(indeg))
	for ready.Len() > 0 {
		u := heap.Pop(ready).(int)
		out = append(out, u)
		for _, v := range g.children[u] {
			indeg[v]--
			if indeg[v] == 0 {
				heap.Push(ready, v)
			}
		}
	}
	return out
}

// Descendants returns the canonical indices of every node transitively
// downstream of i, in ascending order.
func (g *Graph) Descendants(i int) []int {
	seen := make(map[int]struct{})
	stack := append([]int(nil), g.children[i]...)
	for len(stack) > 0 {
		u := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, dup := seen[u]; dup {
			continue
		}
		seen[u] = struct{}{}
		stack = append(stack, g.children[u]...)
	}

	out := make([]int, 0, len(seen))
	for u := range seen {
		out = append(out, u)
	}
	sort.Ints(out)
	return out
}

type intMinHeap []int

func (h intMinHeap) Len() int           { return len(h) }
func (h intMinHeap) Less(i, j int) bool { return h[i] < h[j] }
func (h intMinHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *intMinHeap) Push(x any)        { *h = append(*h, x.(int)) }
func (h *intMinHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// CycleError reports a dependency cycle by its job-name path, e.g.
// [P, Q, P]. A cyclic graph is rejected outright; propagation requires
// a DAG.
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	return "dependency cycle: " + strings.Join(e.Path, " -> ")
}
