package schedule

import (
	"html"
	"regexp"
	"strings"
)

// Entities are decoded before any tag handling, matching the source markup:
// entity-encoded delimiters become real tags and are stripped with the rest.
var (
	closingParagraphRe = regexp.MustCompile(`(?i)</p\s*>`)
	lineBreakRe        = regexp.MustCompile(`(?i)<br\s*/?>`)
	tagRe              = regexp.MustCompile(`<[^>]+>`)
)

// Normalize converts a raw HTML schedule fragment into trimmed, non-empty
// text lines in document order. Closing paragraph tags and line breaks are
// the only sources of line structure; every other tag is dropped without
// replacement. Malformed markup degrades to whatever text remains.
func Normalize(fragment string) []string {
	text := html.UnescapeString(fragment)

	text = closingParagraphRe.ReplaceAllString(text, "\n")
	text = lineBreakRe.ReplaceAllString(text, "\n")
	text = tagRe.ReplaceAllString(text, "")

	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}
