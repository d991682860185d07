package textutil

import (
	"regexp"
	"strings"
	"unicode"
)

var innerWhitespace = regexp.MustCompile(`\s\s+`)

// Clean trims surrounding whitespace and collapses inner runs of
// whitespace into a single space.
func Clean(s string) string {
	s = strings.Trim(s, " \t\n")
	return innerWhitespace.ReplaceAllString(s, " ")
}

func RemoveNonPrintable(s string) string {
	newStr := strings.Builder{}
	for _, c := range s {
		if unicode.IsPrint(c) {
			newStr.WriteRune(c)
		}
	}
	return newStr.String()
}

// NumericString keeps only the characters a float parser understands.
func NumericString(s string) string {
	newStr := strings.Builder{}
	for _, c := range s {
		if (c >= '0' && c <= '9') || c == '.' || c == '-' {
			newStr.WriteRune(c)
		}
	}
	return newStr.String()
}
