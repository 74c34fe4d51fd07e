// internal/app/system/sanitize/sanitize.go

// Package sanitize cleans user-supplied board text (task titles,
// descriptions, room names) before it is stored or broadcast.
//
// The pipeline is: trim whitespace, strip all HTML via bluemonday's strict
// policy, then drop any stray angle brackets the policy let through as
// entities. The result is plain text, and the pipeline is idempotent:
// feeding its own output back in returns the same string.
package sanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strict = bluemonday.StrictPolicy()

// Text sanitizes one line or block of free text.
func Text(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	s = strict.Sanitize(s)
	// StrictPolicy escapes rather than removes bare brackets; unescape and
	// drop them so stored text is plain.
	s = html.UnescapeString(s)
	s = strings.Map(func(r rune) rune {
		if r == '<' || r == '>' {
			return -1
		}
		return r
	}, s)
	return strings.TrimSpace(s)
}
