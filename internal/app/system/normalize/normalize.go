// Package normalize canonicalizes identifiers and free-text fields before
// they are compared or stored.
package normalize

import "strings"

// Email lowercases and trims an email address.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims surrounding whitespace and collapses internal runs of spaces.
// Case is preserved.
func Name(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Account trims a student account identifier. Accounts are compared
// byte-for-byte, so case is preserved.
func Account(s string) string {
	return strings.TrimSpace(s)
}

// Group trims a group label. Labels are opaque and case sensitive.
func Group(s string) string {
	return strings.TrimSpace(s)
}

// Header lowercases a column header and strips spaces, dashes and
// underscores so "Student Account" and "student_account" compare equal.
func Header(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer(" ", "", "-", "", "_", "").Replace(s)
}
