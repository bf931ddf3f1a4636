package sheet

import "strings"

// Semantic field names used in schema error messages.
const (
	FieldName   = "full name"
	FieldEmail  = "email"
	FieldResult = "result"
)

// Header candidates per semantic field. Matching is case-insensitive,
// exact first and substring second, so "Test Result" satisfies result
// without stealing an exact "Result" column.
var (
	nameCandidates   = []string{"full name", "fullname", "name", "participant"}
	emailCandidates  = []string{"email", "e-mail", "mail"}
	resultCandidates = []string{"result", "score", "mark"}
)

// Columns holds the resolved index of each semantic field, -1 when the
// header has no match.
type Columns struct {
	Name   int
	Email  int
	Result int
}

// Resolve locates the three semantic columns in a header and reports
// the fields that could not be found, in schema order.
func Resolve(header []string) (Columns, []string) {
	cols := Columns{
		Name:   findColumn(header, nameCandidates),
		Email:  findColumn(header, emailCandidates),
		Result: findColumn(header, resultCandidates),
	}

	var missing []string
	if cols.Name < 0 {
		missing = append(missing, FieldName)
	}
	if cols.Email < 0 {
		missing = append(missing, FieldEmail)
	}
	if cols.Result < 0 {
		missing = append(missing, FieldResult)
	}
	return cols, missing
}

// findColumn prefers an exact case-insensitive header match, then falls
// back to a substring match in header order.
func findColumn(header []string, candidates []string) int {
	for i, col := range header {
		for _, cand := range candidates {
			if strings.EqualFold(col, cand) {
				return i
			}
		}
	}
	for i, col := range header {
		lower := strings.ToLower(col)
		for _, cand := range candidates {
			if strings.Contains(lower, cand) {
				return i
			}
		}
	}
	return -1
}
