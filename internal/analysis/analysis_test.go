package analysis

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/jilgraph/internal/autorep"
	"github.com/vk/jilgraph/internal/depgraph"
	"github.com/vk/jilgraph/internal/diag"
	"github.com/vk/jilgraph/internal/engine"
)

const testJIL = `
insert_job: JOB_A   job_type: CMD
command: /opt/batch/a.sh

insert_job: JOB_B   job_type: CMD
condition: success(JOB_A)

insert_job: JOB_F_FAILED   job_type: CMD
condition: success(JOB_A)

insert_job: JOB_G_IMPACTED   job_type: CMD
condition: success(JOB_F_FAILED)

insert_job: JOB_H_STANDALONE   job_type: CMD
`

const testReport = `
Job Name                                                     Last Start           Last End             ST
____________________________________________________________ ____________________ ____________________ __
JOB_A                                                        08/23/2025 10:00:00  08/23/2025 10:05:00  SU
JOB_B                                                        08/23/2025 10:05:30  -----                RU
JOB_F_FAILED                                                 08/23/2025 10:06:00  08/23/2025 10:06:10  FA
JOB_H_STANDALONE                                             08/23/2025 09:00:00  08/23/2025 09:01:00  SU
`

func TestAnalyzeEndToEnd(t *testing.T) {
	result, err := Analyze(context.Background(), testJIL, testReport, nil)
	require.NoError(t, err)

	require.Len(t, result.Jobs, 5)
	assert.Len(t, result.Edges, 3)
	assert.Empty(t, result.Diagnostics)

	assert.Equal(t, engine.Green, result.States["JOB_A"].EffectiveColor)
	assert.Equal(t, engine.Amber, result.States["JOB_B"].EffectiveColor)
	assert.Equal(t, engine.Red, result.States["JOB_F_FAILED"].EffectiveColor)
	assert.Equal(t, engine.Gray, result.States["JOB_G_IMPACTED"].EffectiveColor)
	assert.Equal(t, engine.Green, result.States["JOB_H_STANDALONE"].EffectiveColor)

	// Unreported jobs surface as NO_DATA.
	assert.Equal(t, autorep.StatusNoData, result.States["JOB_G_IMPACTED"].ReportedStatus)

	assert.Equal(t, 2, result.StatusCounts[autorep.StatusSuccess])
	assert.Equal(t, 1, result.StatusCounts[autorep.StatusRunning])
	assert.Equal(t, 1, result.StatusCounts[autorep.StatusFailure])
	assert.Equal(t, 1, result.StatusCounts[autorep.StatusNoData])
}

func TestAnalyzeJobInfoGraphNeighbourhood(t *testing.T) {
	result, err := Analyze(context.Background(), testJIL, testReport, nil)
	require.NoError(t, err)

	a := result.Jobs["JOB_A"]
	assert.Empty(t, a.DependsOn)
	assert.ElementsMatch(t, []string{"JOB_B", "JOB_F_FAILED"}, a.Dependents)
	assert.Equal(t, "CMD", a.Type)
	assert.Equal(t, "/opt/batch/a.sh", a.Attributes["command"])
	assert.Equal(t, "08/23/2025 10:00:00", a.LastStart)

	g := result.Jobs["JOB_G_IMPACTED"]
	assert.Equal(t, []string{"JOB_F_FAILED"}, g.DependsOn)
}

func TestAnalyzeImpactSets(t *testing.T) {
	result, err := Analyze(context.Background(), testJIL, testReport, nil)
	require.NoError(t, err)

	// A failed job impacts every transitive descendant.
	f := result.Jobs["JOB_F_FAILED"]
	assert.Equal(t, []string{"JOB_G_IMPACTED"}, f.Impacted)

	// A running job holds up its direct dependents only.
	b := result.Jobs["JOB_B"]
	assert.Empty(t, b.Impacted)

	// Healthy jobs impact nothing.
	assert.Empty(t, result.Jobs["JOB_A"].Impacted)
}

func TestAnalyzeCycleIsFatal(t *testing.T) {
	cyclic := `
insert_job: P   job_type: CMD
condition: success(Q)

insert_job: Q   job_type: CMD
condition: success(P)
`
	result, err := Analyze(context.Background(), cyclic, "", nil)
	assert.Nil(t, result)

	var cycleErr *depgraph.CycleError
	require.ErrorAs(t, err, &cycleErr)
}

func TestSessionReprocessReplacesSnapshot(t *testing.T) {
	ctx := context.Background()
	session, err := NewSession(ctx, testJIL, nil)
	require.NoError(t, err)

	first := session.Process(ctx, testReport)
	assert.Equal(t, engine.Amber, first.States["JOB_B"].EffectiveColor)

	// The long-running job finished; reprocessing the session with the
	// fresh report yields a new, consistent snapshot.
	updated := testReport + "JOB_B                                                        08/23/2025 10:05:30  08/23/2025 10:20:00  SU\n"
	second := session.Process(ctx, updated)
	assert.Equal(t, engine.Green, second.States["JOB_B"].EffectiveColor)

	// The first snapshot is untouched: runs are independent.
	assert.Equal(t, engine.Amber, first.States["JOB_B"].EffectiveColor)
}

func TestSessionProcessIsIdempotent(t *testing.T) {
	ctx := context.Background()
	session, err := NewSession(ctx, testJIL, nil)
	require.NoError(t, err)

	a, err := json.Marshal(session.Process(ctx, testReport))
	require.NoError(t, err)
	b, err := json.Marshal(session.Process(ctx, testReport))
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestAnalyzeCollectsAllDiagnosticKinds(t *testing.T) {
	text := `
insert_job: BROKEN   job_type: CMD
condition: nonsense(

insert_job: DANGLING   job_type: CMD
condition: success(NOWHERE)
`
	report := "DANGLING ----- ----- ZZ\n"

	result, err := Analyze(context.Background(), text, report, nil)
	require.NoError(t, err)

	assert.Len(t, result.Diagnostics.OfKind(diag.MalformedCondition), 1)
	assert.Len(t, result.Diagnostics.OfKind(diag.DanglingReference), 1)
	assert.Len(t, result.Diagnostics.OfKind(diag.UnrecognizedStatus), 1)
}
