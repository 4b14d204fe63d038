package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var foldDiacritics = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Slug converts text into a lowercase token safe for filenames: diacritics
// folded, non-alphanumerics collapsed to single underscores, capped at
// maxLen bytes. Returns "untitled" when nothing survives.
func Slug(text string, maxLen int) string {
	folded, _, err := transform.String(foldDiacritics, text)
	if err != nil {
		folded = text
	}

	var b strings.Builder
	lastUnderscore := false
	for _, r := range strings.ToLower(folded) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore && b.Len() > 0 {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}

	out := strings.Trim(b.String(), "_")
	if maxLen > 0 && len(out) > maxLen {
		out = strings.Trim(out[:maxLen], "_")
	}
	if out == "" {
		return "untitled"
	}
	return out
}
