package textutil

import (
	"regexp"
	"strings"
	"unicode"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)

// CleanCell normalizes text scraped out of a table cell: strips
// non-printable runes, collapses inner whitespace and trims the edges.
func CleanCell(s string) string {
	out := strings.Builder{}
	for _, c := range s {
		if unicode.IsSpace(c) {
			out.WriteRune(' ')
			continue
		}
		if unicode.IsPrint(c) {
			out.WriteRune(c)
		}
	}
	cleaned := whitespaceRegex.ReplaceAllString(out.String(), " ")
	return strings.Trim(cleaned, " ")
}

func NormalizeLabel(label string) string {
	label = strings.ToLower(label)
	label = strings.Trim(label, " \n\t:")
	label = whitespaceRegex.ReplaceAllString(label, "")
	return label
}
