// internal/app/system/htmlsanitize/htmlsanitize.go
// Package htmlsanitize strips unsafe HTML from comment and message bodies
// before they are stored or broadcast.
package htmlsanitize

import (
	"github.com/microcosm-cc/bluemonday"
)

var policy = bluemonday.UGCPolicy()

// Sanitize removes scripts, event handlers, and unsafe URLs while keeping
// user-generated formatting (bold, links, lists).
func Sanitize(html string) string {
	return policy.Sanitize(html)
}
