// Package analysis ties the pipeline together: definitions and report in,
// one immutable Result snapshot out. It owns nothing between runs; a
// reprocess simply discards the prior snapshot and produces a fresh one.
package analysis

import (
	"context"
	"sync"

	"github.com/vk/jilgraph/internal/autorep"
	"github.com/vk/jilgraph/internal/ctxlog"
	"github.com/vk/jilgraph/internal/depgraph"
	"github.com/vk/jilgraph/internal/diag"
	"github.com/vk/jilgraph/internal/engine"
	"github.com/vk/jilgraph/internal/jil"
)

// Session holds the parsed definitions and the validated graph so repeated
// status reports can be processed without re-reading the definition file.
type Session struct {
	ingestor *autorep.Ingestor
	graph    *depgraph.Graph
	baseDiag diag.List
}

// NewSession parses the definition text and builds the dependency graph.
// A dependency cycle is fatal: it returns the *depgraph.CycleError and no
// session, since propagation over a cyclic graph is undefined.
func NewSession(ctx context.Context, definitions string, statusCodes map[string]string) (*Session, error) {
	ingestor, err := autorep.NewIngestor(statusCodes)
	if err != nil {
		return nil, err
	}

	jobs, defDiags := jil.Parse(ctx, definitions)
	graph, graphDiags, err := depgraph.Build(ctx, jobs)
	if err != nil {
		return nil, err
	}

	return &Session{
		ingestor: ingestor,
		graph:    graph,
		baseDiag: append(defDiags, graphDiags...),
	}, nil
}

// Process ingests a status report and produces a complete Result snapshot.
// It may be called any number of times; each call is independent.
func (s *Session) Process(ctx context.Context, report string) *Result {
	records, repDiags := s.ingestor.Parse(ctx, report)
	return s.assemble(ctx, records, repDiags)
}

// Analyze runs the whole pipeline once. The two inputs are parsed
// concurrently; they are pure functions of their text and share nothing.
func Analyze(ctx context.Context, definitions, report string, statusCodes map[string]string) (*Result, error) {
	ingestor, err := autorep.NewIngestor(statusCodes)
	if err != nil {
		return nil, err
	}

	var (
		records  map[string]autorep.Record
		repDiags diag.List
		wg       sync.WaitGroup
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		records, repDiags = ingestor.Parse(ctx, report)
	}()

	jobs, defDiags := jil.Parse(ctx, definitions)
	graph, graphDiags, err := depgraph.Build(ctx, jobs)
	wg.Wait()
	if err != nil {
		return nil, err
	}

	s := &Session{
		ingestor: ingestor,
		graph:    graph,
		baseDiag: append(defDiags, graphDiags...),
	}
	return s.assemble(ctx, records, repDiags), nil
}

// assemble runs propagation and packages the snapshot.
func (s *Session) assemble(ctx context.Context, records map[string]autorep.Record, repDiags diag.List) *Result {
	logger := ctxlog.FromContext(ctx)
	states := engine.Propagate(ctx, s.graph, records)

	result := &Result{
		Jobs:         make(map[string]JobInfo, s.graph.Len()),
		Edges:        s.graph.Edges(),
		States:       states,
		StatusCounts: make(map[autorep.Status]int),
		Diagnostics:  append(append(diag.List{}, s.baseDiag...), repDiags...),
	}

	for i := 0; i < s.graph.Len(); i++ {
		node := s.graph.Node(i)
		info := JobInfo{Name: node.Name, Synthetic: node.Synthetic}
		if node.Job != nil {
			info.Type = node.Job.Type
			info.Attributes = node.Job.Attributes
			info.Condition = node.Job.ConditionRaw
			if node.Job.ConditionErr != nil {
				info.ConditionError = node.Job.ConditionErr.Error()
			}
		}
		for _, p := range s.graph.Parents(i) {
			info.DependsOn = append(info.DependsOn, s.graph.Node(p).Name)
		}
		for _, c := range s.graph.Children(i) {
			info.Dependents = append(info.Dependents, s.graph.Node(c).Name)
		}
		info.Impacted = s.impacted(i, states[node.Name].ReportedStatus)

		if rec, ok := records[jil.Key(node.Name)]; ok {
			info.LastStart = rec.LastStart
			info.LastEnd = rec.LastEnd
		}

		result.Jobs[node.Name] = info
		result.StatusCounts[states[node.Name].ReportedStatus]++
	}

	logger.Debug("Snapshot assembled.",
		"jobs", len(result.Jobs),
		"edges", len(result.Edges),
		"diagnostics", len(result.Diagnostics))
	return result
}

// impacted lists the downstream jobs a node's current status threatens: a
// failed or terminated job impacts every transitive descendant, a running
// job holds up its direct dependents.
func (s *Session) impacted(i int, status autorep.Status) []string {
	var indices []int
	switch status {
	case autorep.StatusFailure, autorep.StatusTerminated:
		indices = s.graph.Descendants(i)
	case autorep.StatusRunning:
		indices = s.graph.Children(i)
	default:
		return nil
	}

	out := make([]string, 0, len(indices))
	for _, idx := range indices {
		out = append(out, s.graph.Node(idx).Name)
	}
	return out
}
