package validate

import (
	"errors"
)

// Sentinel error kinds for this package. Callers match with errors.Is.
var (
	// ErrFormat marks a file that cannot be read as a tabular spreadsheet.
	ErrFormat = errors.New("unreadable input format")
	// ErrTooLarge marks a file over the configured size limit.
	ErrTooLarge = errors.New("input exceeds size limit")
	// ErrSchema marks a header missing one of the required semantic fields.
	ErrSchema = errors.New("input schema invalid")
)
