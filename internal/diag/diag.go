// Package diag defines the diagnostic values collected during analysis.
//
// Non-fatal problems (a malformed condition, a dangling reference, an
// unrecognized status code) degrade the precision of a single job and are
// collected here rather than raised mid-computation, so the caller receives
// one consolidated list beside the result. Only a dependency cycle is fatal.
package diag

import "fmt"

// Kind classifies a diagnostic.
type Kind string

const (
	// MalformedCondition marks a job whose condition string failed to parse.
	// The job is retained and its condition truth is treated as UNKNOWN.
	MalformedCondition Kind = "malformed_condition"

	// DanglingReference marks a condition predicate naming a job that does
	// not exist. A synthetic node is substituted so propagation stays
	// well-defined.
	DanglingReference Kind = "dangling_reference"

	// DependencyCycle marks a cycle in the dependency graph. This one is
	// fatal to propagation.
	DependencyCycle Kind = "dependency_cycle"

	// UnrecognizedStatus marks a status-report value outside the closed
	// status enumeration. The value is coerced to UNKNOWN.
	UnrecognizedStatus Kind = "unrecognized_status"
)

// Diagnostic is a single warning or error tied to a job (or to the graph
// as a whole when Job is empty).
type Diagnostic struct {
	Kind   Kind   `json:"kind" yaml:"kind"`
	Job    string `json:"job,omitempty" yaml:"job,omitempty"`
	Detail string `json:"detail" yaml:"detail"`
}

func (d Diagnostic) String() string {
	if d.Job == "" {
		return fmt.Sprintf("%s: %s", d.Kind, d.Detail)
	}
	return fmt.Sprintf("%s [%s]: %s", d.Kind, d.Job, d.Detail)
}

// List is an ordered collection of diagnostics.
type List []Diagnostic

// Add appends a diagnostic to the list.
func (l *List) Add(kind Kind, job, format string, args ...any) {
	*l = append(*l, Diagnostic{Kind: kind, Job: job, Detail: fmt.Sprintf(format, args...)})
}

// OfKind returns the diagnostics matching the given kind, in order.
func (l List) OfKind(kind Kind) List {
	var out List
	for _, d := range l {
		if d.Kind == kind {
			out = append(out, d)
		}
	}
	return out
}
