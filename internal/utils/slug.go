package utils

import (
	"regexp"
	"strings"
)

var nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)

// GenerateSlug lower-cases title, collapses every run of characters outside [a-z0-9]
// into a single '-', and trims leading/trailing '-'.
//
//	"Test Prompt" -> "test-prompt"
func GenerateSlug(title string) string {
	slug := nonSlugChars.ReplaceAllString(strings.ToLower(title), "-")
	return strings.Trim(slug, "-")
}
