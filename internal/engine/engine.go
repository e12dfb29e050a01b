// Package engine computes every job's derived display state from the
// dependency graph and the ingested status snapshot.
//
// The computation is one pass over the nodes in topological order, so no
// job's state ever depends on an unresolved node; this is why the builder
// rejects cyclic graphs. The engine is pure and reentrant: the same graph
// and statuses always produce the same snapshot, and nothing is retained
// between runs.
package engine

import (
	"context"

	"github.com/vk/jilgraph/internal/autorep"
	"github.com/vk/jilgraph/internal/condition"
	"github.com/vk/jilgraph/internal/ctxlog"
	"github.com/vk/jilgraph/internal/depgraph"
	"github.com/vk/jilgraph/internal/jil"
)

// Color is the derived display state of a job.
type Color string

const (
	// Green: the job itself completed successfully.
	Green Color = "GREEN"
	// Amber: the job is running, or is gated behind a running ancestor.
	Amber Color = "AMBER"
	// Red: the job itself failed or was terminated.
	Red Color = "RED"
	// Cyan: eligible or potentially eligible to run, waiting on the scheduler.
	Cyan Color = "CYAN"
	// Gray: permanently blocked, the condition can never become true.
	Gray Color = "GRAY"
)

// State is one job's derived display state. A propagation run produces a
// fresh, internally consistent State for every node; states are never
// partially mutated.
type State struct {
	JobName           string          `json:"jobName" yaml:"jobName"`
	ReportedStatus    autorep.Status  `json:"reportedStatus" yaml:"reportedStatus"`
	EffectiveColor    Color           `json:"effectiveColor" yaml:"effectiveColor"`
	ConditionTruth    condition.Truth `json:"conditionTruth" yaml:"conditionTruth"`
	BlockingAncestors []string        `json:"blockingAncestors,omitempty" yaml:"blockingAncestors,omitempty"`
}

// Propagate computes the derived state of every node, keyed by job name
// as written in the definitions.
func Propagate(ctx context.Context, g *depgraph.Graph, statuses map[string]autorep.Record) map[string]State {
	logger := ctxlog.FromContext(ctx)
	n := g.Len()

	reported := make([]autorep.Status, n)
	for i := 0; i < n; i++ {
		if rec, ok := statuses[jil.Key(g.Node(i).Name)]; ok {
			reported[i] = rec.Status
		} else {
			reported[i] = autorep.StatusNoData
		}
	}

	// resolve maps a predicate to its truth under the referenced job's own
	// reported status. References outside the graph cannot occur here: the
	// builder materializes synthetic nodes for them.
	resolve := func(p *condition.Predicate) condition.Truth {
		idx, ok := g.Index(p.JobRef)
		if !ok {
			return condition.Unknown
		}
		return predicateTruth(p.Kind, reported[idx])
	}

	truth := make([]condition.Truth, n)
	runningUpstream := make([]bool, n)
	states := make(map[string]State, n)

	for _, u := range g.TopoOrder() {
		node := g.Node(u)

		switch {
		case node.Job == nil:
			// Synthetic node: no condition, trivially true.
			truth[u] = condition.True
		case node.Job.ConditionErr != nil:
			// Malformed condition: excluded from evaluation, degraded to
			// UNKNOWN without blocking the rest of the graph.
			truth[u] = condition.Unknown
		default:
			truth[u] = condition.Eval(node.Job.Condition, resolve)
		}

		for _, p := range g.Parents(u) {
			if reported[p] == autorep.StatusRunning || runningUpstream[p] {
				runningUpstream[u] = true
				break
			}
		}

		var blockers []string
		if node.Job != nil && node.Job.ConditionErr == nil {
			blockers = condition.Blockers(node.Job.Condition, resolve)
		}

		states[node.Name] = State{
			JobName:           node.Name,
			ReportedStatus:    reported[u],
			EffectiveColor:    effectiveColor(reported[u], truth[u], runningUpstream[u]),
			ConditionTruth:    truth[u],
			BlockingAncestors: blockers,
		}
	}

	logger.Debug("Propagation complete.", "nodes", n)
	return states
}

// effectiveColor applies the own-status table for terminal and running
// jobs, and derives the color from the condition truth otherwise.
func effectiveColor(status autorep.Status, truth condition.Truth, runningUpstream bool) Color {
	switch status {
	case autorep.StatusSuccess:
		return Green
	case autorep.StatusFailure, autorep.StatusTerminated:
		return Red
	case autorep.StatusRunning:
		return Amber
	}

	// ACTIVATED, INACTIVE, ONICE, UNKNOWN, NO_DATA: the job has not run,
	// so its color reflects what its condition still allows.
	if truth == condition.False {
		return Gray
	}
	if runningUpstream {
		return Amber
	}
	return Cyan
}

// predicateTruth resolves one predicate kind against the referenced job's
// reported status under three-valued logic.
func predicateTruth(kind condition.PredicateKind, status autorep.Status) condition.Truth {
	switch kind {
	case condition.KindSuccess:
		switch status {
		case autorep.StatusSuccess:
			return condition.True
		case autorep.StatusFailure, autorep.StatusTerminated:
			return condition.False
		}
	case condition.KindFailure:
		switch status {
		case autorep.StatusFailure, autorep.StatusTerminated:
			return condition.True
		case autorep.StatusSuccess:
			return condition.False
		}
	case condition.KindDone:
		if status.Terminal() {
			return condition.True
		}
	case condition.KindTerminated:
		switch status {
		case autorep.StatusTerminated:
			return condition.True
		case autorep.StatusSuccess, autorep.StatusFailure:
			return condition.False
		}
	case condition.KindNotRunning:
		if status.Terminal() {
			return condition.True
		}
		if status == autorep.StatusRunning {
			return condition.False
		}
	}
	return condition.Unknown
}
