package sampler

// InputSpec describes one declared input of a public operation
type InputSpec struct {
	Name    string      `json:"name"`
	Type    string      `json:"type"`
	Default interface{} `json:"default,omitempty"`
	Min     interface{} `json:"min,omitempty"`
	Max     interface{} `json:"max,omitempty"`
	Options []string    `json:"options,omitempty"`
	Tooltip string      `json:"tooltip,omitempty"`
}

// Descriptor is the declarative inputs/outputs/metadata surface one
// operation exposes to the host's registration layer. Pure configuration
// data, no behavior.
type Descriptor struct {
	Name        string      `json:"name"`
	DisplayName string      `json:"display_name"`
	Category    string      `json:"category"`
	Inputs      []InputSpec `json:"inputs"`
	Outputs     []string    `json:"outputs"`
}

// Descriptors returns the registration metadata for the public operations
func Descriptors() []Descriptor {
	return []Descriptor{
		{
			Name:        "advanced_sampler",
			DisplayName: "Advanced Sampler (3 Variants)",
			Category:    "sampling",
			Inputs: []InputSpec{
				{Name: "model", Type: "MODEL", Tooltip: "Checkpoint to sample with"},
				{Name: "positive", Type: "CONDITIONING", Tooltip: "Positive conditioning"},
				{Name: "negative", Type: "CONDITIONING", Tooltip: "Negative conditioning"},
				{Name: "latent", Type: "LATENT", Tooltip: "Input latent image"},
				{Name: "seed", Type: "INT", Default: 0, Min: 0, Tooltip: "Sampling seed; ignored when randomize_seed is set"},
				{Name: "randomize_seed", Type: "BOOLEAN", Default: false},
				{Name: "steps", Type: "INT", Default: 25, Min: 1, Max: 150},
				{Name: "cfg", Type: "FLOAT", Default: 7.0, Min: 0.0, Max: 20.0},
				{Name: "denoise", Type: "FLOAT", Default: 1.0, Min: 0.0, Max: 1.0},
				{Name: "sampler", Type: "COMBO", Options: builtinSamplers, Default: "euler"},
				{Name: "scheduler", Type: "COMBO", Options: Schedulers, Default: "normal"},
				{Name: "learning_enabled", Type: "BOOLEAN", Default: true, Tooltip: "Bias future runs toward strategies you select"},
				{Name: "previous_selection", Type: "COMBO", Options: []string{"none", "quality", "speed", "creative"}, Default: "none", Tooltip: "Winner of the last run, recorded as feedback"},
				{Name: "quality_priority", Type: "FLOAT", Default: 0.4, Min: 0.0, Max: 1.0},
				{Name: "speed_priority", Type: "FLOAT", Default: 0.3, Min: 0.0, Max: 1.0},
				{Name: "creative_priority", Type: "FLOAT", Default: 0.3, Min: 0.0, Max: 1.0, Tooltip: "The three priorities must sum to 1.0"},
			},
			Outputs: []string{"quality_latent", "speed_latent", "creative_latent", "summary", "optimization_state", "selection_guide"},
		},
		{
			Name:        "variant_selector",
			DisplayName: "Variant Selector",
			Category:    "sampling",
			Inputs: []InputSpec{
				{Name: "quality_latent", Type: "LATENT"},
				{Name: "speed_latent", Type: "LATENT"},
				{Name: "creative_latent", Type: "LATENT"},
				{Name: "selection", Type: "COMBO", Options: []string{"quality", "speed", "creative"}, Default: "quality"},
				{Name: "quality_rating", Type: "INT", Default: 0, Min: 0, Max: 10, Tooltip: "Optional 1-10 rating; 0 skips"},
				{Name: "speed_rating", Type: "INT", Default: 0, Min: 0, Max: 10},
				{Name: "creative_rating", Type: "INT", Default: 0, Min: 0, Max: 10},
			},
			Outputs: []string{"selected_latent", "feedback", "ratings_summary"},
		},
	}
}
