package prompt

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// weightedTag matches the (tag:1.2) emphasis syntax
var weightedTag = regexp.MustCompile(`^\((.+):([0-9]*\.?[0-9]+)\)$`)

// ApplyWeight wraps a tag in emphasis syntax. Weight 1.0 strips any
// existing emphasis instead of writing a redundant one.
func ApplyWeight(tag string, weight float64) string {
	tag = strings.TrimSpace(tag)
	if m := weightedTag.FindStringSubmatch(tag); m != nil {
		tag = m[1]
	}
	if weight == 1.0 {
		return tag
	}
	return fmt.Sprintf("(%s:%.2f)", tag, weight)
}

// ParseWeight extracts the tag text and weight from a possibly
// emphasized tag. Unweighted tags report 1.0.
func ParseWeight(tag string) (string, float64) {
	tag = strings.TrimSpace(tag)
	m := weightedTag.FindStringSubmatch(tag)
	if m == nil {
		return tag, 1.0
	}
	w, err := strconv.ParseFloat(m[2], 64)
	if err != nil {
		return tag, 1.0
	}
	return m[1], w
}

// ScaleWeights multiplies every tag's weight in a prompt by factor,
// clamping to [0.1, 2.0] which is the range hosts render sensibly
func ScaleWeights(prompt string, factor float64) string {
	tags := strings.Split(prompt, ",")
	out := make([]string, 0, len(tags))
	for _, raw := range tags {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		text, w := ParseWeight(raw)
		scaled := w * factor
		if scaled < 0.1 {
			scaled = 0.1
		}
		if scaled > 2.0 {
			scaled = 2.0
		}
		out = append(out, ApplyWeight(text, scaled))
	}
	return strings.Join(out, ", ")
}
