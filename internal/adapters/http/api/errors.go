package api

import (
	"errors"
	"net/http"

	"github.com/io-m1/MLJResultsCompiler-sub002/internal/adapters/repository"
	service "github.com/io-m1/MLJResultsCompiler-sub002/internal/app"
)

// ErrBadRequest flags request-shape violations detected by the handlers
// themselves, before the service is involved.
var ErrBadRequest = errors.New("bad request")

// statusFor translates an error from the service layer into an HTTP status
// code and the stable error code carried in the response body.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, ErrBadRequest), errors.Is(err, service.ErrBadRequest):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, service.ErrNotReady):
		return http.StatusConflict, "not_ready"
	case errors.Is(err, service.ErrProcessing):
		return http.StatusConflict, "processing_failed"
	case errors.Is(err, service.ErrArtifactMissing):
		return http.StatusGone, "artifact_missing"
	case errors.Is(err, service.ErrBackpressure):
		return http.StatusTooManyRequests, "backpressure"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
