package extract_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"doklado/internal/domain"
	"doklado/internal/extract"
	"doklado/internal/port"
	"doklado/mocks"
)

func TestExtract_Success(t *testing.T) {
	completer := new(mocks.MockCompleter)
	completer.On("Complete", mock.Anything, mock.Anything).Return(&port.CompleteOutput{
		RawText:      `{"document_type":"invoice"}`,
		ModelID:      "fast-model",
		InputTokens:  1000,
		OutputTokens: 500,
	}, nil)

	table := extract.NewTierTable(testExtractConfig())
	client := extract.NewChainClient(table, map[domain.Tier]port.Completer{
		domain.TierFast: completer,
	})

	attempt := client.Extract(context.Background(), domain.TierFast, "FAKTURA text")

	assert.True(t, attempt.Success)
	assert.Equal(t, domain.TierFast, attempt.Tier)
	assert.Equal(t, "fast-model", attempt.ModelID)
	assert.Equal(t, `{"document_type":"invoice"}`, attempt.RawOutput)
	// 1000 input tokens at $1/M plus 500 output tokens at $5/M.
	assert.InDelta(t, 0.0035, attempt.Cost, 1e-9)
}

func TestExtract_ProviderError(t *testing.T) {
	completer := new(mocks.MockCompleter)
	completer.On("Complete", mock.Anything, mock.Anything).
		Return(nil, errors.New("rate limited"))

	table := extract.NewTierTable(testExtractConfig())
	client := extract.NewChainClient(table, map[domain.Tier]port.Completer{
		domain.TierFast: completer,
	})

	attempt := client.Extract(context.Background(), domain.TierFast, "text")

	assert.False(t, attempt.Success)
	assert.Contains(t, attempt.Error, "rate limited")
	assert.Zero(t, attempt.Cost)
}

func TestExtract_UnknownTier(t *testing.T) {
	table := extract.NewTierTable(testExtractConfig())
	client := extract.NewChainClient(table, nil)

	attempt := client.Extract(context.Background(), domain.Tier("ultra"), "text")

	assert.False(t, attempt.Success)
	assert.Contains(t, attempt.Error, "unknown tier")
}

func TestExtract_MissingCompleter(t *testing.T) {
	table := extract.NewTierTable(testExtractConfig())
	client := extract.NewChainClient(table, map[domain.Tier]port.Completer{})

	attempt := client.Extract(context.Background(), domain.TierBalanced, "text")

	assert.False(t, attempt.Success)
	assert.Contains(t, attempt.Error, "no completer configured")
}

func TestEstimatedCost(t *testing.T) {
	table := extract.NewTierTable(testExtractConfig())
	client := extract.NewChainClient(table, nil)

	assert.InDelta(t, 0.004, client.EstimatedCost(domain.TierFast), 1e-9)
	assert.InDelta(t, 0.09, client.EstimatedCost(domain.TierPremium), 1e-9)
	assert.Zero(t, client.EstimatedCost(domain.Tier("ultra")))
}
