// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/io-m1/MLJResultsCompiler-sub002/internal/domain/types"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
// The compile service satisfies the whole bundle.
type Dependencies interface {
	JobService
	UploadService
	StatsProvider
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler  *HealthHandler
	statsHandler   *StatsHandler
	uploadsHandler *UploadsHandler
	jobsHandler    *JobsHandler
}

// NewServer creates a new API server with all handlers. maxUploadBytes
// bounds the multipart request body accepted by the uploads endpoint.
func NewServer(deps Dependencies, maxUploadBytes int64) *Server {
	return &Server{
		healthHandler:  NewHealthHandler(),
		statsHandler:   NewStatsHandler(deps),
		uploadsHandler: NewUploadsHandler(deps, maxUploadBytes),
		jobsHandler:    NewJobsHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	// Specific paths first (most specific to least specific)
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/metrics", MetricsMiddleware(s.healthHandler.HandleMetrics, "metrics"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/uploads", MetricsMiddleware(s.uploadsHandler.HandlePostUpload, "uploads"))
	mux.HandleFunc("/jobs", MetricsMiddleware(s.jobsHandler.HandleJobs, "jobs"))
	mux.HandleFunc("/jobs/", MetricsMiddleware(s.jobsHandler.HandleJob, "job"))
}

// submitRequest mirrors the OpenAPI schema for POST /jobs.
type submitRequest struct {
	Refs []string `json:"refs"`
}

func (req submitRequest) validate() error {
	if len(req.Refs) == 0 {
		return errors.New("missing refs")
	}
	for i, ref := range req.Refs {
		if strings.TrimSpace(ref) == "" {
			return fmt.Errorf("blank ref at position %d", i+1)
		}
	}
	return nil
}

// submitResponse acknowledges a job accepted for async compilation.
type submitResponse struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}

// uploadResponse mirrors the OpenAPI schema for POST /uploads. Ref is the
// stored reference to pass to POST /jobs; empty when validation failed.
type uploadResponse struct {
	Ref        string                 `json:"ref,omitempty"`
	Validation types.ValidationResult `json:"validation"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeServiceError maps a service error onto the wire via statusFor.
func writeServiceError(w http.ResponseWriter, err error) {
	status, code := statusFor(err)
	writeError(w, status, code, err)
}
