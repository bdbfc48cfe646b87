package prompt

import (
	"sort"
	"strings"
)

// Analysis is a summary of a prompt's structure
type Analysis struct {
	TagCount      int      `json:"tag_count"`
	WordCount     int      `json:"word_count"`
	WeightedTags  int      `json:"weighted_tags"`
	AverageWeight float64  `json:"average_weight"`
	DuplicateTags []string `json:"duplicate_tags,omitempty"`
}

// Analyze reports tag statistics for a prompt
func Analyze(promptText string) Analysis {
	var a Analysis
	cleaned := Clean(promptText)
	if cleaned == "" {
		return a
	}

	tags := strings.Split(cleaned, ",")
	seen := make(map[string]int)
	weightSum := 0.0

	for _, raw := range tags {
		raw = strings.TrimSpace(raw)
		text, w := ParseWeight(raw)
		a.TagCount++
		a.WordCount += len(strings.Fields(text))
		weightSum += w
		if w != 1.0 {
			a.WeightedTags++
		}
		seen[strings.ToLower(text)]++
	}

	if a.TagCount > 0 {
		a.AverageWeight = weightSum / float64(a.TagCount)
	}

	for tag, n := range seen {
		if n > 1 {
			a.DuplicateTags = append(a.DuplicateTags, tag)
		}
	}
	sort.Strings(a.DuplicateTags)
	return a
}
