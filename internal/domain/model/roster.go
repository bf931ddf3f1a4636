package model

// PositionCount is the fixed number of source sheets per job; each
// sheet owns one numeric slot per participant.
const PositionCount = 5

// Grade values assigned to a scored participant.
const (
	GradePass = "PASS"
	GradeFail = "FAIL"
)

// SourceRecord is one data row read from one input sheet: the three
// semantic cells, untouched. Consumed by the merge, then discarded.
type SourceRecord struct {
	FullName  string
	Email     string
	RawResult string
}

// RosterEntry is one participant consolidated across all sheets.
// Identity comes from the first sheet that mentioned the participant;
// slots hold the per-position results with absent positions left 0.
type RosterEntry struct {
	FullName string
	Email    string
	Slots    [PositionCount]float64
	Total    float64 // sum of slots; input to scoring, not reported
	Score    float64 // composite score, truncated to two decimals
	Status   string  // GradePass or GradeFail
}
