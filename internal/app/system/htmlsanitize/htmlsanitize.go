// Package htmlsanitize cleans user-supplied free text before it is stored
// and echoed to other members (campaign stories, poll descriptions, audit
// activity strings built from user input).
package htmlsanitize

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strict = bluemonday.StrictPolicy()

// Plain strips all HTML, leaving text content only.
func Plain(s string) string {
	return strings.TrimSpace(strict.Sanitize(s))
}

// PlainAll applies Plain to every element of a slice, in place.
func PlainAll(ss []string) []string {
	for i, s := range ss {
		ss[i] = Plain(s)
	}
	return ss
}
