// Package site handles the embedded web UI for uploading sheets and
// tracking compilation jobs.
package site

import (
	"context"
	"net/http"
)

// Register attaches the embedded UI routes to mux.
func Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}

	// Serve the embedded UI at root /. More specific API routes registered
	// on the same mux take precedence.
	files := http.FileServer(FS())
	mux.Handle("/", files)
}
