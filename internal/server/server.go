// Package server exposes the analysis snapshot over an HTTP JSON API for
// a dashboard collaborator. The server never recomputes propagation per
// request: it serves the current snapshot, and the reprocess endpoint
// swaps in a freshly computed one wholesale.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/vk/jilgraph/internal/analysis"
	"github.com/vk/jilgraph/internal/ctxlog"
)

// maxReportSize bounds the reprocess request body.
const maxReportSize = 16 << 20

// Server holds the session and the current snapshot.
type Server struct {
	session *analysis.Session

	mu       sync.RWMutex
	snapshot *analysis.Result

	httpServer *http.Server
}

// New returns a Server serving the given initial snapshot.
func New(session *analysis.Session, initial *analysis.Result) *Server {
	return &Server{session: session, snapshot: initial}
}

// current returns the snapshot under a read lock.
func (s *Server) current() *analysis.Result {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

// Router builds the chi route tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Route("/api/analysis", func(r chi.Router) {
		r.Get("/", s.handleSnapshot)
		r.Get("/graph", s.handleGraph)
		r.Get("/states", s.handleStates)
		r.Get("/diagnostics", s.handleDiagnostics)
		r.Get("/jobs/{name}", s.handleJob)
		r.Post("/report", s.handleReprocess)
	})
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	logger := ctxlog.FromContext(r.Context())
	logger.Debug("Health check endpoint hit.", "remote_addr", r.RemoteAddr)
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "OK")
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.current())
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	snap := s.current()
	writeJSON(w, http.StatusOK, map[string]any{
		"jobs":  snap.Jobs,
		"edges": snap.Edges,
	})
}

func (s *Server) handleStates(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.current().States)
}

func (s *Server) handleDiagnostics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.current().Diagnostics)
}

func (s *Server) handleJob(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	snap := s.current()

	// Job names are keyed case-insensitively; scan for the display name.
	for jobName, info := range snap.Jobs {
		if !strings.EqualFold(jobName, name) {
			continue
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"job":   info,
			"state": snap.States[jobName],
		})
		return
	}
	writeError(w, http.StatusNotFound, fmt.Sprintf("unknown job %q", name))
}

// handleReprocess ingests a fresh status report and atomically replaces
// the snapshot. The definitions are not re-read; the session keeps the
// validated graph.
func (s *Server) handleReprocess(w http.ResponseWriter, r *http.Request) {
	logger := ctxlog.FromContext(r.Context())

	body, err := io.ReadAll(io.LimitReader(r.Body, maxReportSize))
	if err != nil {
		writeError(w, http.StatusBadRequest, "cannot read request body")
		return
	}

	snapshot := s.session.Process(r.Context(), string(body))

	s.mu.Lock()
	s.snapshot = snapshot
	s.mu.Unlock()

	logger.Info("Snapshot reprocessed.", "jobs", len(snapshot.Jobs), "diagnostics", len(snapshot.Diagnostics))
	writeJSON(w, http.StatusOK, map[string]any{
		"jobs":        len(snapshot.Jobs),
		"diagnostics": snapshot.Diagnostics,
	})
}

// ListenAndServe runs the API server until the context is canceled, then
// shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	logger := ctxlog.FromContext(ctx)

	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: s.Router(),
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Analysis API server starting.", "address", addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	logger.Info("Shutting down analysis API server...")
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed.", "error", err)
		return err
	}
	logger.Debug("Server shut down gracefully.")
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
