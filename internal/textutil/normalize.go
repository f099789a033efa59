package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
)

var foldCaser = cases.Fold()

// NormalizeTitle produces the canonical comparison form of a title:
// case-folded, punctuation stripped, whitespace collapsed to single spaces.
func NormalizeTitle(title string) string {
	folded := foldCaser.String(strings.TrimSpace(title))
	var b strings.Builder
	prevSpace := false
	for _, r := range folded {
		switch {
		case unicode.IsLetter(r) || unicode.IsNumber(r):
			b.WriteRune(r)
			prevSpace = false
		case unicode.IsSpace(r) || r == '-' || r == '_' || r == '.' || r == ':':
			if !prevSpace && b.Len() > 0 {
				b.WriteRune(' ')
				prevSpace = true
			}
		}
	}
	return strings.TrimSpace(b.String())
}
