package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/jilgraph/internal/analysis"
)

const serverJIL = `
insert_job: JOB_A   job_type: CMD

insert_job: JOB_B   job_type: CMD
condition: success(JOB_A)
`

const serverReport = `
JOB_A ----- ----- SU
JOB_B ----- ----- RU
`

func newTestServer(t *testing.T) *Server {
	t.Helper()
	ctx := context.Background()
	session, err := analysis.NewSession(ctx, serverJIL, nil)
	require.NoError(t, err)
	return New(session, session.Process(ctx, serverReport))
}

func doGet(t *testing.T, handler http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	rec := doGet(t, newTestServer(t).Router(), "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK\n", rec.Body.String())
}

func TestSnapshotEndpoint(t *testing.T) {
	rec := doGet(t, newTestServer(t).Router(), "/api/analysis")
	require.Equal(t, http.StatusOK, rec.Code)

	var snap analysis.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Len(t, snap.Jobs, 2)
	assert.Len(t, snap.Edges, 1)
	assert.Equal(t, "AMBER", string(snap.States["JOB_B"].EffectiveColor))
}

func TestStatesEndpoint(t *testing.T) {
	rec := doGet(t, newTestServer(t).Router(), "/api/analysis/states")
	require.Equal(t, http.StatusOK, rec.Code)

	var states map[string]struct {
		EffectiveColor string `json:"effectiveColor"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &states))
	assert.Equal(t, "GREEN", states["JOB_A"].EffectiveColor)
}

func TestJobEndpoint(t *testing.T) {
	router := newTestServer(t).Router()

	t.Run("found, case-insensitive", func(t *testing.T) {
		rec := doGet(t, router, "/api/analysis/jobs/job_b")
		require.Equal(t, http.StatusOK, rec.Code)

		var payload struct {
			Job struct {
				Name      string   `json:"name"`
				DependsOn []string `json:"dependsOn"`
			} `json:"job"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
		assert.Equal(t, "JOB_B", payload.Job.Name)
		assert.Equal(t, []string{"JOB_A"}, payload.Job.DependsOn)
	})

	t.Run("missing", func(t *testing.T) {
		rec := doGet(t, router, "/api/analysis/jobs/NOPE")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestReprocessSwapsSnapshot(t *testing.T) {
	srv := newTestServer(t)
	router := srv.Router()

	updated := "JOB_A ----- ----- SU\nJOB_B ----- ----- SU\n"
	req := httptest.NewRequest(http.MethodPost, "/api/analysis/report", strings.NewReader(updated))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	after := doGet(t, router, "/api/analysis/states")
	var states map[string]struct {
		EffectiveColor string `json:"effectiveColor"`
	}
	require.NoError(t, json.Unmarshal(after.Body.Bytes(), &states))
	assert.Equal(t, "GREEN", states["JOB_B"].EffectiveColor)
}

func TestDiagnosticsEndpoint(t *testing.T) {
	ctx := context.Background()
	session, err := analysis.NewSession(ctx, `
insert_job: X   job_type: CMD
condition: success(GHOST)
`, nil)
	require.NoError(t, err)
	srv := New(session, session.Process(ctx, ""))

	rec := doGet(t, srv.Router(), "/api/analysis/diagnostics")
	require.Equal(t, http.StatusOK, rec.Code)

	var diags []struct {
		Kind string `json:"kind"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &diags))
	require.Len(t, diags, 1)
	assert.Equal(t, "dangling_reference", diags[0].Kind)
}
