package extract_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"doklado/internal/config"
	"doklado/internal/domain"
	"doklado/internal/extract"
)

func testExtractConfig() *config.ExtractConfig {
	return &config.ExtractConfig{
		Fast: config.TierConfig{
			Provider: "claude", Model: "fast-model",
			CostPerCall: 0.004, ExpectedAccuracy: 0.72,
			InputTokenPrice: 1.0, OutputTokenPrice: 5.0, TimeoutSecs: 60,
		},
		Balanced: config.TierConfig{
			Provider: "openai", Model: "balanced-model",
			CostPerCall: 0.02, ExpectedAccuracy: 0.83,
			InputTokenPrice: 2.5, OutputTokenPrice: 10.0, TimeoutSecs: 90,
		},
		Premium: config.TierConfig{
			Provider: "claude", Model: "premium-model",
			CostPerCall: 0.09, ExpectedAccuracy: 0.91,
			InputTokenPrice: 3.0, OutputTokenPrice: 15.0, TimeoutSecs: 120,
		},
	}
}

func testOptions() domain.ProcessingOptions {
	opts := domain.DefaultProcessingOptions()
	opts.MaxCost = 0.50
	opts.MinConfidence = 0.60
	return opts
}

func tierIDs(chain []extract.TierSpec) []domain.Tier {
	ids := make([]domain.Tier, 0, len(chain))
	for _, spec := range chain {
		ids = append(ids, spec.ID)
	}
	return ids
}

func TestSelectChain_CostOptimizedStartsCheap(t *testing.T) {
	r := extract.NewRouter(extract.NewTierTable(testExtractConfig()))

	chain, err := r.SelectChain(domain.ComplexityMedium, testOptions())

	require.NoError(t, err)
	assert.Equal(t, []domain.Tier{domain.TierFast, domain.TierBalanced, domain.TierPremium}, tierIDs(chain))
}

func TestSelectChain_ComplexDocumentSkipsWeakTier(t *testing.T) {
	r := extract.NewRouter(extract.NewTierTable(testExtractConfig()))
	opts := testOptions()
	opts.MinConfidence = 0.65

	// Complex documents discount accuracy by 0.10; fast drops to 0.62.
	chain, err := r.SelectChain(domain.ComplexityComplex, opts)

	require.NoError(t, err)
	assert.Equal(t, []domain.Tier{domain.TierBalanced, domain.TierPremium}, tierIDs(chain))
}

func TestSelectChain_AccuracyFirst(t *testing.T) {
	r := extract.NewRouter(extract.NewTierTable(testExtractConfig()))
	opts := testOptions()
	opts.Mode = domain.ModeAccuracyFirst

	chain, err := r.SelectChain(domain.ComplexityMedium, opts)

	require.NoError(t, err)
	assert.Equal(t, []domain.Tier{domain.TierPremium}, tierIDs(chain))
}

func TestSelectChain_SpeedFirst(t *testing.T) {
	r := extract.NewRouter(extract.NewTierTable(testExtractConfig()))
	opts := testOptions()
	opts.Mode = domain.ModeSpeedFirst
	opts.MinConfidence = 0.95

	chain, err := r.SelectChain(domain.ComplexityMedium, opts)

	require.NoError(t, err)
	assert.Equal(t, []domain.Tier{domain.TierFast, domain.TierBalanced, domain.TierPremium}, tierIDs(chain))
}

func TestSelectChain_FallbacksDisabled(t *testing.T) {
	r := extract.NewRouter(extract.NewTierTable(testExtractConfig()))
	opts := testOptions()
	opts.EnableFallbacks = false

	chain, err := r.SelectChain(domain.ComplexityMedium, opts)

	require.NoError(t, err)
	assert.Equal(t, []domain.Tier{domain.TierFast}, tierIDs(chain))
}

func TestSelectChain_ForeignLanguageBumpsStart(t *testing.T) {
	r := extract.NewRouter(extract.NewTierTable(testExtractConfig()))
	opts := testOptions()
	opts.Language = "de"

	chain, err := r.SelectChain(domain.ComplexityMedium, opts)

	require.NoError(t, err)
	assert.Equal(t, []domain.Tier{domain.TierBalanced, domain.TierPremium}, tierIDs(chain))
}

func TestSelectChain_BudgetStrictFiltersTiers(t *testing.T) {
	r := extract.NewRouter(extract.NewTierTable(testExtractConfig()))
	opts := testOptions()
	opts.Mode = domain.ModeBudgetStrict
	opts.MaxCost = 0.01

	chain, err := r.SelectChain(domain.ComplexityMedium, opts)

	require.NoError(t, err)
	assert.Equal(t, []domain.Tier{domain.TierFast}, tierIDs(chain))
}

func TestSelectChain_BudgetBelowCheapestTier(t *testing.T) {
	r := extract.NewRouter(extract.NewTierTable(testExtractConfig()))
	opts := testOptions()
	opts.Mode = domain.ModeBudgetStrict
	opts.MaxCost = 0.001

	_, err := r.SelectChain(domain.ComplexityMedium, opts)

	assert.ErrorIs(t, err, domain.ErrBudgetExceeded)
}

func TestSelectChain_BudgetStrictNoTierFits(t *testing.T) {
	r := extract.NewRouter(extract.NewTierTable(testExtractConfig()))
	opts := testOptions()
	opts.Mode = domain.ModeBudgetStrict
	opts.MaxCost = 0.01
	opts.MinConfidence = 0.95

	_, err := r.SelectChain(domain.ComplexityMedium, opts)

	assert.ErrorIs(t, err, domain.ErrNoTierFitsConstraints)
}

func TestSelectChain_BestEffortWhenNothingReachesTarget(t *testing.T) {
	r := extract.NewRouter(extract.NewTierTable(testExtractConfig()))
	opts := testOptions()
	opts.MinConfidence = 0.99

	chain, err := r.SelectChain(domain.ComplexityMedium, opts)

	require.NoError(t, err)
	assert.Equal(t, []domain.Tier{domain.TierPremium}, tierIDs(chain))
}
