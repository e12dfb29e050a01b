// Package autorep ingests job status reports produced by the scheduler's
// reporting command and maps them onto the closed status enumeration.
package autorep

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/vk/jilgraph/internal/ctxlog"
	"github.com/vk/jilgraph/internal/diag"
)

// Record is one job's reported status. Timestamps are carried through
// opaquely; the core never interprets them.
type Record struct {
	JobName   string `json:"jobName" yaml:"jobName"`
	Status    Status `json:"status" yaml:"status"`
	LastStart string `json:"lastStart,omitempty" yaml:"lastStart,omitempty"`
	LastEnd   string `json:"lastEnd,omitempty" yaml:"lastEnd,omitempty"`
}

// Ingestor parses report text. Its status-code table starts from the
// built-in two-letter codes and may be extended or overridden.
type Ingestor struct {
	codes map[string]Status
}

// NewIngestor returns an Ingestor whose code table is the default one
// extended by the given overrides (code → status name). An override whose
// status name is outside the closed enumeration is rejected.
func NewIngestor(overrides map[string]string) (*Ingestor, error) {
	codes := make(map[string]Status, len(defaultCodes)+len(overrides))
	for code, st := range defaultCodes {
		codes[code] = st
	}
	for code, name := range overrides {
		st := Status(strings.ToUpper(name))
		if !st.valid() {
			return nil, fmt.Errorf("status code %q maps to %q, not a valid status", code, name)
		}
		codes[strings.ToUpper(code)] = st
	}
	return &Ingestor{codes: codes}, nil
}

// Parse reads the report text and returns one Record per job, keyed by
// upper-cased job name. The latest occurrence of a duplicated job wins.
// Unrecognized status values never fail the ingestion; they are coerced
// to UNKNOWN and recorded as diagnostics.
func (in *Ingestor) Parse(ctx context.Context, text string) (map[string]Record, diag.List) {
	logger := ctxlog.FromContext(ctx)
	records := make(map[string]Record)
	var diags diag.List

	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if skipLine(line) {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		name := fields[0]

		rec := Record{JobName: name, Status: StatusUnknown}
		rest := fields[1:]
		rec.LastStart, rest = takeTimestamp(rest)
		rec.LastEnd, rest = takeTimestamp(rest)

		if len(rest) > 0 {
			st, known := in.mapStatus(rest[0])
			if !known {
				diags.Add(diag.UnrecognizedStatus, name, "unrecognized status value %q, treated as UNKNOWN", rest[0])
				logger.Warn("Unrecognized status value in report.", "job", name, "value", rest[0])
			}
			rec.Status = st
		} else {
			diags.Add(diag.UnrecognizedStatus, name, "report line has no status field, treated as UNKNOWN")
		}

		records[strings.ToUpper(name)] = rec
	}

	logger.Debug("Status report ingested.", "records", len(records), "warnings", len(diags))
	return records, diags
}

// mapStatus resolves a raw status token against the code table and the
// spelled-out forms. The second return is false when the token is outside
// the closed enumeration.
func (in *Ingestor) mapStatus(raw string) (Status, bool) {
	token := strings.ToUpper(strings.TrimSpace(raw))
	if st, ok := in.codes[token]; ok {
		return st, true
	}
	if st, ok := fullWords[token]; ok {
		return st, true
	}
	return StatusUnknown, false
}

// takeTimestamp consumes a timestamp column from the field list: either
// the "-----" placeholder (one token, empty result) or a date plus time
// pair. Anything else is left in place, so short report lines with a bare
// status field still parse.
func takeTimestamp(fields []string) (string, []string) {
	if len(fields) == 0 {
		return "", fields
	}
	if strings.HasPrefix(fields[0], "---") {
		return "", fields[1:]
	}
	if !strings.Contains(fields[0], "/") {
		return "", fields
	}
	if len(fields) >= 2 && looksLikeTime(fields[1]) {
		return fields[0] + " " + fields[1], fields[2:]
	}
	return fields[0], fields[1:]
}

// looksLikeTime matches the hh:mm:ss column of the report.
func looksLikeTime(s string) bool {
	return strings.Count(s, ":") == 2
}

// skipLine filters headers, separators and blank lines.
func skipLine(line string) bool {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return true
	}
	if strings.HasPrefix(trimmed, "Job Name") {
		return true
	}
	first := trimmed[0]
	return first == '_' || first == '-'
}
