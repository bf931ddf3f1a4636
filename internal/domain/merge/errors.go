package merge

import "errors"

// ErrSourceCount is returned when the number of source tables differs
// from the five positions the roster is built from.
var ErrSourceCount = errors.New("merge requires exactly five sources")
