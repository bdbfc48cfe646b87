package prompt

import "strings"

// Combine joins multiple prompt fragments into one comma-separated
// prompt, dropping empties and duplicate tags while preserving order
func Combine(fragments ...string) string {
	seen := make(map[string]bool)
	var tags []string
	for _, fragment := range fragments {
		for _, tag := range strings.Split(fragment, ",") {
			tag = strings.TrimSpace(tag)
			if tag == "" {
				continue
			}
			key := strings.ToLower(tag)
			if seen[key] {
				continue
			}
			seen[key] = true
			tags = append(tags, tag)
		}
	}
	return strings.Join(tags, ", ")
}

// Prepend places a fragment ahead of an existing prompt, deduplicating
// against it
func Prepend(fragment, prompt string) string {
	return Combine(fragment, prompt)
}
