package service

import "errors"

// Sentinel kinds for orchestration errors.
var (
	ErrBadRequest      = errors.New("exactly five input files are required")
	ErrBackpressure    = errors.New("dispatch queue is full")
	ErrNotReady        = errors.New("job has not completed yet")
	ErrProcessing      = errors.New("job processing failed")
	ErrArtifactMissing = errors.New("report artifact is gone")
)
