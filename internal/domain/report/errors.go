package report

import "errors"

// ErrWrite is returned when the workbook artifact cannot be produced.
var ErrWrite = errors.New("failed to write report")
