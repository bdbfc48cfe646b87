package prompt

import (
	"regexp"
	"strings"
)

var (
	multiSpace = regexp.MustCompile(`\s+`)
	multiComma = regexp.MustCompile(`(,\s*)+`)
)

// Clean normalizes a prompt: collapses whitespace and repeated commas,
// trims stray separators, and drops empty tags
func Clean(prompt string) string {
	prompt = multiSpace.ReplaceAllString(prompt, " ")
	prompt = multiComma.ReplaceAllString(prompt, ", ")
	prompt = strings.Trim(prompt, " ,")

	tags := strings.Split(prompt, ",")
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag != "" {
			out = append(out, tag)
		}
	}
	return strings.Join(out, ", ")
}
