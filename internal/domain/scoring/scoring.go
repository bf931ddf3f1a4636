// Package scoring grades a consolidated roster with the composite
// score formula and the pass threshold of the compiled report.
package scoring

import (
	"math"

	"github.com/io-m1/MLJResultsCompiler-sub002/internal/domain/model"
)

// Composite scoring constants.
const (
	scoreOffset   = 0.8
	scoreFactor   = 16.6666
	passThreshold = 50.0
)

// Composite computes the reported score for a raw slot total as
// (total + 0.8) * 16.6666, truncated toward zero at two decimals.
// Truncation, not rounding: 10.0 maps to 179.99, never 180.00.
func Composite(total float64) float64 {
	raw := (total + scoreOffset) * scoreFactor
	return math.Trunc(raw*100) / 100
}

// Passes reports whether a truncated score clears the pass threshold.
func Passes(score float64) bool {
	return score >= passThreshold
}

// Grade fills Total, Score and Status on every roster entry in place
// and returns the tally for the job summary. Scores are uncapped; only
// the pass threshold is fixed.
func Grade(roster []model.RosterEntry) model.Summary {
	sum := model.Summary{Participants: len(roster)}
	for i := range roster {
		e := &roster[i]
		var total float64
		for _, v := range e.Slots {
			total += v
		}
		e.Total = total
		e.Score = Composite(total)
		if Passes(e.Score) {
			e.Status = model.GradePass
			sum.Passed++
		} else {
			e.Status = model.GradeFail
			sum.Failed++
		}
	}
	return sum
}
