package prompt

import "sort"

// styleLibrary maps style names to the tag fragments they append.
// Positive fragments lead the prompt, negative fragments extend the
// negative prompt.
var styleLibrary = map[string]struct {
	positive string
	negative string
}{
	"photorealistic": {
		positive: "photorealistic, natural lighting, sharp focus, detailed skin texture",
		negative: "illustration, painting, cartoon, 3d render",
	},
	"cinematic": {
		positive: "cinematic lighting, film grain, anamorphic, shallow depth of field",
		negative: "flat lighting, oversaturated",
	},
	"anime": {
		positive: "anime style, clean lineart, cel shading, vibrant colors",
		negative: "photorealistic, text, watermark",
	},
	"oil_painting": {
		positive: "oil painting, visible brushstrokes, impasto, canvas texture",
		negative: "photograph, digital art",
	},
	"low_poly": {
		positive: "low poly, geometric shapes, flat shading, isometric",
		negative: "realistic, detailed texture",
	},
}

// StyleNames lists the available styles in stable order
func StyleNames() []string {
	names := make([]string, 0, len(styleLibrary))
	for name := range styleLibrary {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ApplyStyle appends a named style's fragments to a positive/negative
// prompt pair. Unknown styles leave both prompts untouched.
func ApplyStyle(style, positive, negative string) (string, string) {
	s, ok := styleLibrary[style]
	if !ok {
		return positive, negative
	}
	return Combine(positive, s.positive), Combine(negative, s.negative)
}
