package port

import "context"

// CompleteInput carries one LLM extraction request.
type CompleteInput struct {
	Prompt string
	Text   string
}

// CompleteOutput is the raw model response plus token usage for cost tracking.
type CompleteOutput struct {
	RawText      string
	ModelID      string
	InputTokens  int
	OutputTokens int
}

// Completer abstracts one LLM provider. Implementations do not retry; the
// fallback chain owns retries.
type Completer interface {
	Complete(ctx context.Context, input CompleteInput) (*CompleteOutput, error)
}
