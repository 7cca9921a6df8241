// Package httpapi exposes the job and pipeline-trigger HTTP surface,
// grounded on the teacher's internal/httpapi Server (a thin wrapper around
// http.ServeMux with Go 1.22+ method+path pattern routing).
package httpapi

import (
	"net/http"

	"synapse/internal/jobs"
	"synapse/internal/notestore"
	"synapse/internal/pipeline"
)

// Server exposes the job and insight-generation HTTP surface.
type Server struct {
	jobs  *jobs.Store
	store notestore.Store
	orch  *pipeline.Orchestrator
	mux   *http.ServeMux
}

// NewServer creates the HTTP API server wired to the job store, notes
// store, and pipeline orchestrator.
func NewServer(jobStore *jobs.Store, store notestore.Store, orch *pipeline.Orchestrator) *Server {
	s := &Server{jobs: jobStore, store: store, orch: orch, mux: http.NewServeMux()}
	s.registerRoutes()
	return s
}

// ServeHTTP satisfies http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("POST /generate-insights", s.handleGenerateInsights)
	s.mux.HandleFunc("GET /jobs/{id}", s.handleGetJob)
	s.mux.HandleFunc("POST /jobs/{id}/cancel", s.handleCancelJob)
	s.mux.HandleFunc("GET /jobs/{id}/events", s.handleJobEvents)
	s.mux.HandleFunc("POST /chunks/{id}", s.handleGetChunk)
}
