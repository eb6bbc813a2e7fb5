package extract

import (
	"context"
	"fmt"
	"time"

	"doklado/internal/domain"
	"doklado/internal/port"
)

const tokensPerMillion = 1_000_000.0

// ChainClient executes single extraction attempts against tiered completers.
// It never retries; the orchestrator walks the fallback chain.
type ChainClient struct {
	table      *TierTable
	completers map[domain.Tier]port.Completer
}

// NewChainClient creates a client over the tier table and one completer per tier.
func NewChainClient(table *TierTable, completers map[domain.Tier]port.Completer) *ChainClient {
	return &ChainClient{table: table, completers: completers}
}

// Extract runs one extraction attempt against the given tier. Transport and
// timeout errors are captured in the attempt, never returned raw; the attempt
// is always a complete record of what the call cost and produced.
func (c *ChainClient) Extract(ctx context.Context, tier domain.Tier, text string) domain.ExtractionAttempt {
	spec, ok := c.table.Get(tier)
	if !ok {
		return domain.ExtractionAttempt{
			Tier:    tier,
			Success: false,
			Error:   fmt.Sprintf("unknown tier %q", tier),
		}
	}
	completer, ok := c.completers[tier]
	if !ok {
		return domain.ExtractionAttempt{
			Tier:    tier,
			ModelID: spec.Config.Model,
			Success: false,
			Error:   fmt.Sprintf("no completer configured for tier %q", tier),
		}
	}

	timeout := time.Duration(spec.Config.TimeoutSecs) * time.Second
	if timeout == 0 {
		timeout = 120 * time.Second
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	out, err := completer.Complete(callCtx, port.CompleteInput{
		Prompt: BuildInvoicePrompt(),
		Text:   text,
	})
	latency := time.Since(start)

	if err != nil {
		return domain.ExtractionAttempt{
			Tier:    tier,
			ModelID: spec.Config.Model,
			Latency: latency,
			Success: false,
			Error:   err.Error(),
		}
	}

	cost := float64(out.InputTokens)*spec.Config.InputTokenPrice/tokensPerMillion +
		float64(out.OutputTokens)*spec.Config.OutputTokenPrice/tokensPerMillion

	return domain.ExtractionAttempt{
		Tier:      tier,
		ModelID:   out.ModelID,
		RawOutput: out.RawText,
		Cost:      cost,
		Latency:   latency,
		Success:   true,
	}
}

// EstimatedCost returns the router's per-call cost estimate for a tier.
func (c *ChainClient) EstimatedCost(tier domain.Tier) float64 {
	spec, ok := c.table.Get(tier)
	if !ok {
		return 0
	}
	return spec.Config.CostPerCall
}
