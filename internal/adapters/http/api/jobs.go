// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/io-m1/MLJResultsCompiler-sub002/internal/domain/types"
)

// xlsxContentType is the MIME type of the compiled report artifact.
const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// JobService defines the interface for job operations.
type JobService interface {
	Submit(ctx context.Context, refs []string) (string, error)
	Status(ctx context.Context, jobID string) (types.JobView, error)
	ListJobs(ctx context.Context) []types.JobView
	Report(ctx context.Context, jobID string) (io.ReadCloser, string, error)
}

// JobsHandler handles job submission, listing, status and report download.
type JobsHandler struct {
	deps JobService
}

// NewJobsHandler creates a new jobs handler.
func NewJobsHandler(deps JobService) *JobsHandler {
	return &JobsHandler{deps: deps}
}

// HandleJobs handles POST /jobs (submit) and GET /jobs (list) requests.
func (h *JobsHandler) HandleJobs(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.handleSubmit(w, r)
	case http.MethodGet:
		h.handleList(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (h *JobsHandler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: %s", ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: %s", ErrBadRequest, err))
		return
	}

	jobID, err := h.deps.Submit(r.Context(), req.Refs)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, submitResponse{JobID: jobID, Status: "processing"})
}

func (h *JobsHandler) handleList(w http.ResponseWriter, r *http.Request) {
	jobs := h.deps.ListJobs(r.Context())
	if jobs == nil {
		jobs = []types.JobView{}
	}
	writeJSON(w, http.StatusOK, jobs)
}

// HandleJob handles GET /jobs/{id} (status) and GET /jobs/{id}/report
// (artifact download) requests.
func (h *JobsHandler) HandleJob(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	// Extract path parameters after /jobs/
	path := strings.TrimPrefix(r.URL.Path, "/jobs/")
	id, wantReport := strings.CutSuffix(path, "/report")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}

	if wantReport {
		h.serveReport(w, r, id)
		return
	}

	view, err := h.deps.Status(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *JobsHandler) serveReport(w http.ResponseWriter, r *http.Request, id string) {
	rc, name, err := h.deps.Report(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	defer rc.Close() //nolint:errcheck

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	_, _ = io.Copy(w, rc)
}
