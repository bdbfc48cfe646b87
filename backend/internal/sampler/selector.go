package sampler

import (
	"fmt"
	"strings"

	apperrors "triptych/backend/pkg/errors"
)

// Selection is the outcome of the operator picking a winner among the
// three variants
type Selection struct {
	Chosen         Variant `json:"chosen"`
	Feedback       string  `json:"feedback"`
	RatingsSummary string  `json:"ratings_summary"`
	Error          string  `json:"error,omitempty"`
}

// SelectVariant returns the chosen variant plus feedback and ratings
// summaries. It does not write the preference store: the chosen strategy
// name travels back through the next request's previous_selection, so the
// learning write path stays single-threaded through the orchestrator.
func SelectVariant(variants [3]Variant, chosen StrategyID, ratings map[StrategyID]int) Selection {
	if !KnownStrategy(chosen) {
		return Selection{Error: apperrors.NewUnknownStrategy(string(chosen)).Error()}
	}
	for id, r := range ratings {
		if !KnownStrategy(id) {
			return Selection{Error: apperrors.NewUnknownStrategy(string(id)).Error()}
		}
		if r < 1 || r > 10 {
			return Selection{Error: apperrors.NewInvalidRating(string(id), r).Error()}
		}
	}

	var pick *Variant
	for i := range variants {
		if variants[i].Strategy == chosen {
			pick = &variants[i]
			break
		}
	}
	if pick == nil {
		return Selection{Error: fmt.Sprintf("no variant produced for strategy %q", chosen)}
	}

	feedback := fmt.Sprintf(
		"Selected %s (steps=%d cfg=%.2f sampler=%s). Pass previous_selection=%q on the next run to reinforce it.",
		chosen, pick.Params.Steps, pick.Params.CFG, pick.Params.Sampler, chosen,
	)

	return Selection{
		Chosen:         *pick,
		Feedback:       feedback,
		RatingsSummary: ratingsSummary(chosen, ratings),
	}
}

// ratingsSummary reports the per-strategy ratings and the top scorer
func ratingsSummary(chosen StrategyID, ratings map[StrategyID]int) string {
	if len(ratings) == 0 {
		return "No ratings provided."
	}

	var b strings.Builder
	b.WriteString("Ratings:")
	var best StrategyID
	bestScore := 0
	for _, id := range StrategyOrder {
		r, ok := ratings[id]
		if !ok {
			continue
		}
		fmt.Fprintf(&b, " %s=%d", id, r)
		if r > bestScore {
			bestScore = r
			best = id
		}
	}
	fmt.Fprintf(&b, ". Highest rated: %s (%d).", best, bestScore)
	if best != chosen {
		fmt.Fprintf(&b, " Note: selection differs from highest rating.")
	}
	return b.String()
}
