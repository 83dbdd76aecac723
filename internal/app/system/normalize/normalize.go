// internal/app/system/normalize/normalize.go
// Package normalize trims and canonicalizes user-supplied input fields
// before validation and storage.
package normalize

import "strings"

// Email lowercases and trims an email address.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims a display name, preserving case.
func Name(s string) string {
	return strings.TrimSpace(s)
}

// Title trims a discussion/chat title, preserving case.
func Title(s string) string {
	return strings.TrimSpace(s)
}

// Hex trims an id string supplied in a form, query, or JSON body.
func Hex(s string) string {
	return strings.TrimSpace(s)
}
