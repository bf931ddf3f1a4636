package sheet

import (
	"errors"
)

// Sentinel error kinds for this package. Callers match with errors.Is.
var (
	ErrUnsupported = errors.New("unsupported sheet format")
	ErrEmpty       = errors.New("empty sheet")
)
