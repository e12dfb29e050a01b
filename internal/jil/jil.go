// Package jil parses job-definition text in the scheduler's JIL format:
// blocks opened by an insert_job declaration followed by key: value
// attribute lines until the next declaration or end of input.
package jil

import (
	"bufio"
	"context"
	"strings"

	"github.com/vk/jilgraph/internal/condition"
	"github.com/vk/jilgraph/internal/ctxlog"
	"github.com/vk/jilgraph/internal/diag"
)

// Job is one parsed job definition. It is immutable after parsing; a
// later block with the same name replaces it wholesale (last definition
// wins, matching the source format's override semantics).
type Job struct {
	// Name as written in the definition. Jobs are keyed case-insensitively.
	Name string `json:"name" yaml:"name"`

	// Type is the job_type attribute (cmd, box, file watcher). Stored,
	// not interpreted.
	Type string `json:"jobType,omitempty" yaml:"jobType,omitempty"`

	// Attributes holds every declared key: value pair, opaque to the core.
	Attributes map[string]string `json:"attributes,omitempty" yaml:"attributes,omitempty"`

	// ConditionRaw is the unparsed condition attribute, empty for root jobs.
	ConditionRaw string `json:"condition,omitempty" yaml:"condition,omitempty"`

	// Condition is the parsed expression, nil when absent or malformed.
	Condition condition.Expr `json:"-" yaml:"-"`

	// ConditionErr is set when the condition attribute failed to parse.
	// The job is still usable; its condition truth degrades to UNKNOWN.
	ConditionErr error `json:"-" yaml:"-"`
}

// Key returns the case-insensitive map key for a job name.
func Key(name string) string { return strings.ToUpper(name) }

// Parse splits the definition text into job blocks and extracts each
// block's attributes. A malformed condition is attached to its job as a
// diagnostic rather than aborting the whole file.
func Parse(ctx context.Context, text string) (map[string]*Job, diag.List) {
	logger := ctxlog.FromContext(ctx)
	jobs := make(map[string]*Job)
	var diags diag.List

	var current *Job
	finish := func() {
		if current == nil {
			return
		}
		if prev, dup := jobs[Key(current.Name)]; dup {
			logger.Warn("Duplicate job definition found, it will be overwritten.", "job", prev.Name)
		}
		jobs[Key(current.Name)] = current
		current = nil
	}

	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "/*") {
			continue
		}

		if rest, ok := cutKeyword(line, "insert_job"); ok {
			finish()
			name, inline := splitInlineAttribute(rest)
			if name == "" {
				continue
			}
			current = &Job{Name: name, Attributes: make(map[string]string)}
			if inline != "" {
				applyAttribute(current, inline, &diags)
			}
			continue
		}

		if current == nil || !strings.Contains(line, ":") {
			continue
		}
		applyAttribute(current, line, &diags)
	}
	finish()

	logger.Debug("Job definitions parsed.", "jobs", len(jobs), "warnings", len(diags))
	return jobs, diags
}

// applyAttribute parses one "key: value" line into the job. The condition
// attribute is handed to the expression parser.
func applyAttribute(job *Job, line string, diags *diag.List) {
	key, value, ok := strings.Cut(line, ":")
	if !ok {
		return
	}
	key = strings.ToLower(strings.TrimSpace(key))
	value = strings.TrimSpace(value)
	if key == "" {
		return
	}
	job.Attributes[key] = value

	switch key {
	case "job_type":
		job.Type = value
	case "condition":
		job.ConditionRaw = value
		expr, err := condition.Parse(value)
		if err != nil {
			job.ConditionErr = err
			diags.Add(diag.MalformedCondition, job.Name, "%v", err)
			return
		}
		job.Condition = expr
	}
}

// cutKeyword strips a leading case-insensitive "keyword:" prefix.
func cutKeyword(line, keyword string) (string, bool) {
	if len(line) <= len(keyword) || !strings.EqualFold(line[:len(keyword)], keyword) {
		return "", false
	}
	rest := strings.TrimSpace(line[len(keyword):])
	if !strings.HasPrefix(rest, ":") {
		return "", false
	}
	return strings.TrimSpace(rest[1:]), true
}

// splitInlineAttribute separates the job name from an attribute declared
// on the same line, the common "insert_job: NAME   job_type: CMD" layout.
func splitInlineAttribute(rest string) (name, inline string) {
	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return "", ""
	}
	name = fields[0]
	remainder := strings.TrimSpace(strings.TrimPrefix(rest, name))
	if strings.Contains(remainder, ":") {
		return name, remainder
	}
	return name, ""
}
