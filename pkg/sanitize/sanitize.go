// Package sanitize strips markdown-style markup from model output so it can
// be shown as plain text and embedded in reports.
package sanitize

import "strings"

// markupRunes covers emphasis (`*`, `**`), headings (runs of `#`),
// underscores and hyphens.
const markupRunes = "*#_-"

// StripMarkup removes every markup rune in a single pass. The result never
// contains a markup rune, so applying it twice is a no-op.
func StripMarkup(s string) string {
	if !strings.ContainsAny(s, markupRunes) {
		return s
	}
	return strings.Map(func(r rune) rune {
		if strings.ContainsRune(markupRunes, r) {
			return -1
		}
		return r
	}, s)
}
