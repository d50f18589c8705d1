package sources

import (
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/araddon/dateparse"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var whitespaceRe = regexp.MustCompile(`\s+`)

// CleanText collapses runs of whitespace and folds diacritics so keyword
// matching sees plain ASCII where possible.
func CleanText(s string) string {
	s = foldDiacritics(s)
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

// foldDiacritics strips combining marks: "café" becomes "cafe".
func foldDiacritics(s string) string {
	// Normalize unicode characters to NFD form (decomposed)
	t := transform.Chain(norm.NFD, transform.RemoveFunc(isMn), norm.NFC)
	result, _, _ := transform.String(t, s)
	return result
}

// isMn checks if a rune is a nonspacing mark (accents, diacritics)
func isMn(r rune) bool {
	return unicode.Is(unicode.Mn, r)
}

// ParseTimestamp parses the loose date formats seen across forums and
// feeds. Unparseable input yields nil rather than an error.
func ParseTimestamp(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	t, err := dateparse.ParseLocal(s)
	if err != nil {
		return nil
	}
	return &t
}
