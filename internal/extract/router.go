package extract

import (
	"fmt"
	"log"

	"doklado/internal/domain"
)

// Router picks the extraction fallback chain for one document.
type Router struct {
	table *TierTable
}

// NewRouter creates a router over a tier table.
func NewRouter(table *TierTable) *Router {
	return &Router{table: table}
}

// SelectChain returns the ordered tier chain for a document. The chain starts
// at the cheapest tier whose complexity-adjusted accuracy meets minConfidence
// and continues upward through every more capable tier as fallback, unless
// fallbacks are disabled. In budget_strict mode tiers the budget cannot cover
// are excluded up front and an empty ladder is an error.
func (r *Router) SelectChain(complexity domain.Complexity, opts domain.ProcessingOptions) ([]TierSpec, error) {
	tiers := r.table.Ordered()

	strict := opts.Mode == domain.ModeBudgetStrict
	if strict {
		affordable := make([]TierSpec, 0, len(tiers))
		for _, spec := range tiers {
			if spec.Config.CostPerCall <= opts.MaxCost {
				affordable = append(affordable, spec)
			}
		}
		if len(affordable) == 0 {
			return nil, fmt.Errorf("cheapest tier costs more than budget %.4f: %w",
				opts.MaxCost, domain.ErrBudgetExceeded)
		}
		tiers = affordable
	}

	start := r.startIndex(tiers, complexity, opts)
	if start < 0 {
		if strict {
			return nil, fmt.Errorf("no affordable tier reaches confidence %.2f for %s documents: %w",
				opts.MinConfidence, complexity, domain.ErrNoTierFitsConstraints)
		}
		// Best effort: take the most capable tier even though its expected
		// accuracy falls short.
		start = len(tiers) - 1
		log.Printf("extract.Router: no tier meets confidence %.2f for %s, starting at %s",
			opts.MinConfidence, complexity, tiers[start].ID)
	}

	chain := tiers[start:]
	if !opts.EnableFallbacks {
		chain = chain[:1]
	}
	return chain, nil
}

func (r *Router) startIndex(tiers []TierSpec, complexity domain.Complexity, opts domain.ProcessingOptions) int {
	switch opts.Mode {
	case domain.ModeAccuracyFirst:
		return len(tiers) - 1
	case domain.ModeSpeedFirst:
		return 0
	}

	// Documents in a language no tier was tuned for start one rung higher.
	bump := 0
	if opts.Language != "" && opts.Language != "cs" && opts.Language != "en" {
		bump = 1
	}

	for i, spec := range tiers {
		if accuracyFor(spec, complexity) >= opts.MinConfidence {
			if i+bump < len(tiers) {
				return i + bump
			}
			return i
		}
	}
	return -1
}
