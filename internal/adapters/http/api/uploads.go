// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/io-m1/MLJResultsCompiler-sub002/internal/domain/types"
)

// multipartOverhead is the slack allowed on top of the per-file limit for
// multipart boundaries and part headers.
const multipartOverhead = 1 << 20

// UploadService defines the interface for sheet intake.
type UploadService interface {
	// SaveUpload stores one sheet and validates it. On a failed check the
	// returned ref is empty and the result carries the reason.
	SaveUpload(ctx context.Context, name string, r io.Reader) (types.ValidationResult, string, error)

	// Validate re-runs the intake check on an already stored ref.
	Validate(ctx context.Context, ref string) (types.ValidationResult, error)
}

// UploadsHandler handles sheet upload requests.
type UploadsHandler struct {
	deps     UploadService
	maxBytes int64
}

// NewUploadsHandler creates a new uploads handler.
func NewUploadsHandler(deps UploadService, maxBytes int64) *UploadsHandler {
	return &UploadsHandler{
		deps:     deps,
		maxBytes: maxBytes,
	}
}

// HandlePostUpload handles POST /uploads requests. The sheet travels as the
// multipart form field "file"; the stored ref comes back for use in POST /jobs.
func (h *UploadsHandler) HandlePostUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	// Cap the whole request body; the service enforces the per-file limit.
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes+multipartOverhead)
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request",
			fmt.Errorf("%w: multipart field \"file\" is required", ErrBadRequest))
		return
	}
	defer file.Close() //nolint:errcheck

	res, ref, err := h.deps.SaveUpload(r.Context(), header.Filename, file)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if !res.Valid {
		writeJSON(w, http.StatusBadRequest, uploadResponse{Validation: res})
		return
	}
	writeJSON(w, http.StatusCreated, uploadResponse{Ref: ref, Validation: res})
}
