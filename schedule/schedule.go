// Package schedule turns LOE schedule markup into per-group notification
// messages: Normalize flattens the HTML fragment into text lines, Extract
// recovers the schedule fields for one group, and Render formats the
// notification body.
package schedule

import (
	"fmt"
	"regexp"
	"strings"

	"loe-notifier/pkg/notifier"
)

// Phrases marking the three line kinds in the published schedule text.
const (
	dateHeaderPhrase = "Графік погодинних відключень на"
	asOfPhrase       = "Інформація станом на"
	groupPhrase      = "Група "
)

var dateTokenRe = regexp.MustCompile(`на\s+(\d{2}\.\d{2}\.\d{4})`)

// Extract parses normalized schedule lines into a Schedule for the requested
// group. It is a pure function and never fails: missing fields stay empty and
// a missing group line is synthesized. Every line is tested against the three
// detectors in order, first detector per line wins, and later lines matching
// the same detector overwrite earlier ones.
//
// Group matching is a plain substring test on "Група <group>", so requesting
// group "1" also matches a "Група 1.1" line. That mirrors the published
// source. With strictGroup set, the group identifier must end at a token
// boundary.
func Extract(lines []string, group string, strictGroup bool) notifier.Schedule {
	rec := notifier.Schedule{}

	for _, line := range lines {
		switch {
		case strings.Contains(line, dateHeaderPhrase):
			if m := dateTokenRe.FindStringSubmatch(line); m != nil {
				rec.Date = m[1]
			} else {
				rec.Date = strings.TrimSpace(line)
			}
		case strings.Contains(line, asOfPhrase):
			rec.AsOf = strings.TrimSpace(strings.ReplaceAll(line, asOfPhrase, ""))
		case matchesGroup(line, group, strictGroup):
			rec.GroupLine = strings.TrimSpace(line)
		}
	}

	if rec.GroupLine == "" {
		rec.GroupLine = fmt.Sprintf("%s%s. Даних не знайдено.", groupPhrase, group)
	}

	return rec
}

// matchesGroup reports whether the line names the requested group.
func matchesGroup(line, group string, strict bool) bool {
	needle := groupPhrase + group
	idx := strings.Index(line, needle)
	if idx < 0 {
		return false
	}
	if !strict {
		return true
	}
	// Strict mode: the identifier must not continue, so "Група 1" does not
	// match a "Група 1.1" line.
	rest := line[idx+len(needle):]
	if rest == "" {
		return true
	}
	next := rest[0]
	return next != '.' && (next < '0' || next > '9')
}

// Render formats the canonical three-field notification body. Unknown date
// and as-of fields render as "?"; the group line is always present.
func Render(rec notifier.Schedule) string {
	date := rec.Date
	if date == "" {
		date = "?"
	}
	asOf := rec.AsOf
	if asOf == "" {
		asOf = "?"
	}

	return fmt.Sprintf("⚡ %s %s\n%s %s\n\n%s",
		dateHeaderPhrase, date,
		asOfPhrase, asOf,
		rec.GroupLine)
}
