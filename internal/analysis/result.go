package analysis

import (
	"github.com/vk/jilgraph/internal/autorep"
	"github.com/vk/jilgraph/internal/depgraph"
	"github.com/vk/jilgraph/internal/diag"
	"github.com/vk/jilgraph/internal/engine"
)

// Result is the core's sole output to rendering collaborators: the graph,
// the derived state per job, and the consolidated diagnostics. Consumers
// read effectiveColor and blockingAncestors; they never recompute
// propagation themselves.
type Result struct {
	Jobs         map[string]JobInfo      `json:"jobs" yaml:"jobs"`
	Edges        []depgraph.Edge         `json:"edges" yaml:"edges"`
	States       map[string]engine.State `json:"states" yaml:"states"`
	StatusCounts map[autorep.Status]int  `json:"statusCounts" yaml:"statusCounts"`
	Diagnostics  diag.List               `json:"diagnostics,omitempty" yaml:"diagnostics,omitempty"`
}

// JobInfo is the per-job detail record: the definition's attributes plus
// the job's place in the graph and the downstream jobs its current status
// threatens.
type JobInfo struct {
	Name           string            `json:"name" yaml:"name"`
	Type           string            `json:"jobType,omitempty" yaml:"jobType,omitempty"`
	Attributes     map[string]string `json:"attributes,omitempty" yaml:"attributes,omitempty"`
	Condition      string            `json:"condition,omitempty" yaml:"condition,omitempty"`
	ConditionError string            `json:"conditionError,omitempty" yaml:"conditionError,omitempty"`
	Synthetic      bool              `json:"synthetic,omitempty" yaml:"synthetic,omitempty"`
	LastStart      string            `json:"lastStart,omitempty" yaml:"lastStart,omitempty"`
	LastEnd        string            `json:"lastEnd,omitempty" yaml:"lastEnd,omitempty"`
	DependsOn      []string          `json:"dependsOn,omitempty" yaml:"dependsOn,omitempty"`
	Dependents     []string          `json:"dependents,omitempty" yaml:"dependents,omitempty"`
	Impacted       []string          `json:"impacted,omitempty" yaml:"impacted,omitempty"`
}
