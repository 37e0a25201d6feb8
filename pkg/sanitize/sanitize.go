package sanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var policy = bluemonday.StrictPolicy()

// Text strips markup from user supplied free text and normalises whitespace
// at both ends. Line breaks inside the text are kept.
func Text(s string) string {
	if s == "" {
		return s
	}
	s = strings.ReplaceAll(s, "<br>", "\n")
	s = strings.ReplaceAll(s, "</p>", "\n")
	return strings.TrimSpace(html.UnescapeString(policy.Sanitize(s)))
}
