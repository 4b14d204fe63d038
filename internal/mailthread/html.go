package mailthread

import (
	"html"
	"regexp"
	"strings"
)

var (
	htmlBlockPattern  = regexp.MustCompile(`(?is)<(script|style|head)[^>]*>.*?</(script|style|head)>`)
	htmlBreakPattern  = regexp.MustCompile(`(?i)<(br\s*/?|/p|/div|/tr|/li|/h[1-6])>`)
	htmlTagPattern    = regexp.MustCompile(`(?s)<[^>]*>`)
	blankRunPattern   = regexp.MustCompile(`\n{3,}`)
	trailingWSPattern = regexp.MustCompile(`[ \t]+\n`)
)

// htmlToText reduces an HTML body to readable plain text: script/style/head
// blocks dropped, block-level closers become newlines, remaining tags
// stripped, entities unescaped, blank runs collapsed.
func htmlToText(input string) string {
	text := htmlBlockPattern.ReplaceAllString(input, "")
	text = htmlBreakPattern.ReplaceAllString(text, "\n")
	text = htmlTagPattern.ReplaceAllString(text, "")
	text = html.UnescapeString(text)
	text = trailingWSPattern.ReplaceAllString(text, "\n")
	text = blankRunPattern.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
