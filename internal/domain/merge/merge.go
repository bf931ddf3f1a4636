// Package merge consolidates the five positional source tables into a
// single roster, matching rows across sources by MergeKey.
package merge

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/io-m1/MLJResultsCompiler-sub002/internal/domain/mergekey"
	"github.com/io-m1/MLJResultsCompiler-sub002/internal/domain/model"
)

// Result carries the consolidated roster and merge statistics.
type Result struct {
	// Roster holds one entry per distinct MergeKey, in first-seen order.
	Roster []model.RosterEntry
	// Duplicates counts rows folded into an already-known participant.
	Duplicates int
}

// Consolidate folds the positional record lists into a roster. Sources
// are iterated in position order; the first row carrying a key fixes
// the participant's identity, and every row only writes the slot of the
// position it came from. Later rows with a known key never touch
// identity, and a duplicate key inside one source overwrites that
// source's slot. The operation is a pure function of its inputs.
func Consolidate(sources [][]model.SourceRecord) (Result, error) {
	if len(sources) != model.PositionCount {
		return Result{}, fmt.Errorf("%w: got %d", ErrSourceCount, len(sources))
	}

	index := make(map[string]int)
	var res Result
	for pos, records := range sources {
		for _, rec := range records {
			key := mergekey.From(rec.FullName)
			i, seen := index[key]
			if !seen {
				i = len(res.Roster)
				index[key] = i
				res.Roster = append(res.Roster, model.RosterEntry{
					FullName: rec.FullName,
					Email:    rec.Email,
				})
			} else {
				res.Duplicates++
			}
			res.Roster[i].Slots[pos] = parseResult(rec.RawResult)
		}
	}
	return res, nil
}

// parseResult converts a raw result cell to its numeric value. Blank
// and malformed cells degrade to 0 rather than failing the merge.
func parseResult(raw string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0
	}
	return v
}
