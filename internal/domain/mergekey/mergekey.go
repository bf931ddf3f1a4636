// Package mergekey derives participant identity keys from full names.
//
// Two rows belong to the same participant exactly when their names
// produce equal keys. The derivation folds the differences that show up
// between independently exported spreadsheets: Unicode compatibility
// forms, letter case, and stray whitespace.
package mergekey

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// From computes the identity key for a full-name cell: NFKC fold,
// lowercase, trim, and internal whitespace runs collapsed to single
// spaces. An empty or all-whitespace name yields the empty key; every
// such row shares one identity bucket.
func From(fullName string) string {
	s := norm.NFKC.String(fullName)
	s = strings.ToLower(s)
	return strings.Join(strings.Fields(s), " ")
}
