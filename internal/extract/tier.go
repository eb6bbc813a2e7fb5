package extract

import (
	"doklado/internal/config"
	"doklado/internal/domain"
)

// TierSpec pairs a tier identity with its declared cost/accuracy/latency
// estimates. The router reasons over these estimates; the chain client
// tracks actual incurred cost separately.
type TierSpec struct {
	ID     domain.Tier
	Config config.TierConfig
}

// TierTable is the fixed tier ladder in increasing cost/capability order.
type TierTable struct {
	tiers []TierSpec
}

// NewTierTable builds the ladder from configuration.
func NewTierTable(cfg *config.ExtractConfig) *TierTable {
	return &TierTable{
		tiers: []TierSpec{
			{ID: domain.TierFast, Config: cfg.Fast},
			{ID: domain.TierBalanced, Config: cfg.Balanced},
			{ID: domain.TierPremium, Config: cfg.Premium},
		},
	}
}

// Ordered returns the tiers from cheapest to most capable.
func (t *TierTable) Ordered() []TierSpec {
	return t.tiers
}

// Get returns the spec for a tier ID.
func (t *TierTable) Get(id domain.Tier) (TierSpec, bool) {
	for _, spec := range t.tiers {
		if spec.ID == id {
			return spec, true
		}
	}
	return TierSpec{}, false
}

// accuracyFor discounts a tier's baseline accuracy by document complexity.
// The baseline is measured on medium documents; simple documents extract a
// little better, complex ones noticeably worse.
func accuracyFor(spec TierSpec, complexity domain.Complexity) float64 {
	acc := spec.Config.ExpectedAccuracy
	switch complexity {
	case domain.ComplexitySimple:
		acc += 0.05
	case domain.ComplexityComplex:
		acc -= 0.10
	}
	if acc > 1 {
		acc = 1
	}
	if acc < 0 {
		acc = 0
	}
	return acc
}
