package depgraph

import (
	"context"
	"sort"

	"github.com/vk/jilgraph/internal/condition"
	"github.com/vk/jilgraph/internal/ctxlog"
	"github.com/vk/jilgraph/internal/diag"
	"github.com/vk/jilgraph/internal/jil"
)

// Build constructs the dependency graph from the parsed job set.
//
// Dangling references are materialized as synthetic nodes and recorded as
// warnings; AND and OR are treated uniformly for edge purposes, since an
// edge represents potential influence, not guaranteed dependency. Any
// cycle (self-loops included) yields a *CycleError and no graph.
func Build(ctx context.Context, jobs map[string]*jil.Job) (*Graph, diag.List, error) {
	logger := ctxlog.FromContext(ctx)
	var diags diag.List

	// First pass: one node per defined job, plus a synthetic node for
	// every referenced name with no definition.
	names := make(map[string]Node, len(jobs))
	for key, job := range jobs {
		names[key] = Node{Name: job.Name, Job: job}
	}
	for _, job := range jobs {
		for _, ref := range condition.References(job.Condition) {
			key := jil.Key(ref)
			if _, known := names[key]; known {
				continue
			}
			names[key] = Node{Name: ref, Synthetic: true}
			diags.Add(diag.DanglingReference, job.Name,
				"condition references unknown job %q, substituting a synthetic node", ref)
			logger.Warn("Dangling reference in condition.", "job", job.Name, "reference", ref)
		}
	}

	// Canonical order: sorted case-insensitive keys, so identical inputs
	// always produce an identical graph.
	keys := make([]string, 0, len(names))
	for key := range names {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	g := &Graph{
		nodes:    make([]Node, len(keys)),
		index:    make(map[string]int, len(keys)),
		parents:  make([][]int, len(keys)),
		children: make([][]int, len(keys)),
		indeg:    make([]int, len(keys)),
	}
	for i, key := range keys {
		g.nodes[i] = names[key]
		g.index[key] = i
	}

	// Second pass: edges from each referenced job to the dependent job,
	// deduplicated per pair.
	type pair struct{ from, to int }
	seen := make(map[pair]struct{})
	for key, job := range jobs {
		to := g.index[key]
		for _, ref := range condition.References(job.Condition) {
			from := g.index[jil.Key(ref)]
			p := pair{from: from, to: to}
			if _, dup := seen[p]; dup {
				continue
			}
			seen[p] = struct{}{}
			g.children[from] = append(g.children[from], to)
			g.parents[to] = append(g.parents[to], from)
			g.indeg[to]++
		}
	}
	for i := range g.children {
		sort.Ints(g.children[i])
		sort.Ints(g.parents[i])
	}

	if path := g.findCycle(); path != nil {
		err := &CycleError{Path: path}
		diags.Add(diag.DependencyCycle, "", "%v", err)
		logger.Error("Dependency graph rejected.", "error", err)
		return nil, diags, err
	}

	logger.Debug("Dependency graph built.", "nodes", g.Len(), "edges", len(seen), "warnings", len(diags))
	return g, diags, nil
}

// findCycle runs a DFS over canonical indices with recursion-stack
// coloring and returns one cycle as a forward job-name path closed on its
// first node, or nil when the graph is acyclic.
func (g *Graph) findCycle() []string {
	const (
		white = iota
		gray
		black
	)

	color := make([]int, len(g.nodes))
	parent := make([]int, len(g.nodes))
	for i := range parent {
		parent[i] = -1
	}

	var cycle []int
	var dfs func(u int) bool
	dfs = func(u int) bool {
		color[u] = gray
		for _, v := range g.children[u] { // sorted, so the walk is deterministic
			switch color[v] {
			case white:
				parent[v] = u
				if dfs(v) {
					return true
				}
			case gray:
				// Back-edge u -> v closes a cycle v ... u -> v.
				cycle = append(cycle, v)
				for cur := u; cur != -1 && cur != v; cur = parent[cur] {
					cycle = append(cycle, cur)
				}
				cycle = append(cycle, v)
				return true
			}
		}
		color[u] = black
		return false
	}

	for i := range g.nodes {
		if color[i] == white && dfs(i) {
			break
		}
	}
	if cycle == nil {
		return nil
	}

	// The walk above collects the path backwards; reverse into forward order.
	out := make([]string, len(cycle))
	for i, idx := range cycle {
		out[len(cycle)-1-i] = g.nodes[idx].Name
	}
	return out
}
