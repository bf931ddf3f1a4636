// Package validate checks input spreadsheets at intake, before any file
// is accepted into a submission.
package validate

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/io-m1/MLJResultsCompiler-sub002/internal/domain/sheet"
)

// defaultMaxBytes caps input files when no limit is configured.
const defaultMaxBytes = 10 << 20

// Option applies a configuration option to the FileChecker.
type Option func(*FileChecker)

// WithMaxBytes caps the accepted input file size.
func WithMaxBytes(n int64) Option {
	return func(c *FileChecker) {
		if n > 0 {
			c.maxBytes = n
		}
	}
}

// Checker validates one input file reference.
type Checker interface {
	// Check validates the file at path and returns its data row count.
	Check(ctx context.Context, path string) (int, error)
}

// FileChecker implements Checker against the local filesystem.
type FileChecker struct {
	maxBytes int64
}

// NewFileChecker creates a checker with configuration options.
func NewFileChecker(opts ...Option) *FileChecker {
	c := &FileChecker{
		maxBytes: defaultMaxBytes,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Check runs the three intake gates in order: size, readability, schema.
// It has no side effects beyond read access.
func (c *FileChecker) Check(ctx context.Context, path string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrFormat, err)
	}
	if info.Size() > c.maxBytes {
		return 0, fmt.Errorf("%w: %d bytes exceeds the %d byte limit", ErrTooLarge, info.Size(), c.maxBytes)
	}

	table, err := sheet.Read(path)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrFormat, err)
	}

	if _, missing := sheet.Resolve(table.Header); len(missing) > 0 {
		return 0, fmt.Errorf("%w: missing required column(s): %s", ErrSchema, strings.Join(missing, ", "))
	}
	return table.RowCount(), nil
}
