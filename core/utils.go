package core

import "strings"

// CleanString trims leading and trailing whitespace.
func CleanString(s string) string {
	return strings.TrimSpace(s)
}

// CleanLower trims like CleanString and lowercases the result. Usernames,
// emails and role names are stored lowercased so lookups stay exact.
func CleanLower(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
