package report

import (
	"strings"
	"unicode"
)

const filenameSuffix = "_results.csv"

// SafeName replaces every rune that is not a letter, digit, '_' or '-' with '_'.
func SafeName(query string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '-' {
			return r
		}
		return '_'
	}, query)
}

// Filename is the download name of a CSV export for query.
func Filename(query string) string {
	return SafeName(query) + filenameSuffix
}
