package calc

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Labeled is anything carrying a line item label.
type Labeled interface {
	RowLabel() string
}

// FindRows returns the indices of rows whose label contains pattern,
// ignoring case (Unicode case folding), in source order.
func FindRows[T Labeled](rows []T, pattern string) []int {
	// A Caser holds state and must not be shared between goroutines.
	folder := cases.Fold()
	needle := foldLabel(folder, pattern)

	var matches []int
	for i, r := range rows {
		if strings.Contains(foldLabel(folder, r.RowLabel()), needle) {
			matches = append(matches, i)
		}
	}
	return matches
}

// FirstMatch returns the index of the first row matching pattern.
func FirstMatch[T Labeled](rows []T, pattern string) (int, bool) {
	matches := FindRows(rows, pattern)
	if len(matches) == 0 {
		return -1, false
	}
	return matches[0], true
}

// foldLabel composes to NFC first: spreadsheets exported on macOS often store
// Vietnamese diacritics decomposed.
func foldLabel(folder cases.Caser, s string) string {
	return folder.String(norm.NFC.String(s))
}
