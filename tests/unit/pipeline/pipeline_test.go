package pipeline_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"doklado/internal/config"
	"doklado/internal/domain"
	"doklado/internal/extract"
	"doklado/internal/ocr"
	"doklado/internal/parse"
	"doklado/internal/pipeline"
	"doklado/internal/port"
	"doklado/internal/validate"
	"doklado/mocks"
)

const fakturaText = `FAKTURA č. 2024-001
Dodavatel: ABC s.r.o., IČO: 27082440
Datum vystavení: 21.3.2024
Celkem k úhradě: 1 000,00 Kč`

const goodModelOutput = `{
	"document_type": "invoice",
	"invoice_number": "2024-001",
	"issue_date": "2024-03-21",
	"currency": "CZK",
	"vendor": {"name": "ABC s.r.o.", "registry_id": "27082440"},
	"totals": {"total": 1000.00}
}`

func testExtractConfig() *config.ExtractConfig {
	return &config.ExtractConfig{
		Fast:     config.TierConfig{Provider: "claude", Model: "fast-model", CostPerCall: 0.004, ExpectedAccuracy: 0.72, InputTokenPrice: 1.0, OutputTokenPrice: 5.0, TimeoutSecs: 60},
		Balanced: config.TierConfig{Provider: "openai", Model: "balanced-model", CostPerCall: 0.02, ExpectedAccuracy: 0.83, InputTokenPrice: 2.5, OutputTokenPrice: 10.0, TimeoutSecs: 90},
		Premium:  config.TierConfig{Provider: "claude", Model: "premium-model", CostPerCall: 0.09, ExpectedAccuracy: 0.91, InputTokenPrice: 3.0, OutputTokenPrice: 15.0, TimeoutSecs: 120},
	}
}

func testValidateConfig() config.ValidateConfig {
	return config.ValidateConfig{
		AccuracyCeiling: 0.85,
		WeightAmount:    0.25,
		WeightVendor:    0.20,
		WeightDate:      0.20,
		WeightInvoiceNo: 0.15,
		WeightCurrency:  0.10,
		WeightDocType:   0.10,
		SumTolerance:    1.00,
	}
}

func recognizerReturning(text string) *mocks.MockRecognizer {
	rec := new(mocks.MockRecognizer)
	rec.On("ProviderID").Return("mock")
	rec.On("Recognize", mock.Anything, mock.Anything, mock.Anything).Return(&domain.OCRResult{
		ProviderID:   "mock",
		Text:         text,
		Confidence:   0.9,
		QualityScore: ocr.QualityScore(text),
		Preview:      ocr.BuildPreview(text),
	}, nil)
	return rec
}

func completerReturning(rawText string) *mocks.MockCompleter {
	completer := new(mocks.MockCompleter)
	completer.On("Complete", mock.Anything, mock.Anything).Return(&port.CompleteOutput{
		RawText:      rawText,
		ModelID:      "test-model",
		InputTokens:  1000,
		OutputTokens: 200,
	}, nil)
	return completer
}

func newPipeline(t *testing.T, rec port.Recognizer, completer port.Completer) *pipeline.Pipeline {
	t.Helper()

	fusion := ocr.NewFusion([]port.Recognizer{rec}, map[string]float64{"mock": 0.9}, time.Second)
	table := extract.NewTierTable(testExtractConfig())
	router := extract.NewRouter(table)
	client := extract.NewChainClient(table, map[domain.Tier]port.Completer{
		domain.TierFast:     completer,
		domain.TierBalanced: completer,
		domain.TierPremium:  completer,
	})
	parser, err := parse.NewParser()
	require.NoError(t, err)
	validator := validate.NewEngine(testValidateConfig())

	return pipeline.New(fusion, router, client, parser, validator, nil)
}

func defaultOptions() domain.ProcessingOptions {
	opts := domain.DefaultProcessingOptions()
	opts.EnableEnrichment = false
	return opts
}

func TestRun_SuccessOnFirstTier(t *testing.T) {
	p := newPipeline(t, recognizerReturning(fakturaText), completerReturning(goodModelOutput))

	var statuses []domain.JobStatus
	result := p.Run(context.Background(), []byte("img"), "image/png", defaultOptions(), func(s domain.JobStatus) {
		statuses = append(statuses, s)
	})

	assert.True(t, result.Success)
	assert.InDelta(t, 0.85, result.Confidence, 0.001)
	require.Len(t, result.Attempts, 1)
	assert.Equal(t, domain.TierFast, result.Attempts[0].Tier)
	assert.Equal(t, []string{"mock", "fast"}, result.ProviderChain)
	assert.Greater(t, result.Cost, 0.0)
	assert.Empty(t, result.Errors)
	assert.Equal(t, domain.JobStatusDone, statuses[len(statuses)-1])
	assert.Contains(t, statuses, domain.JobStatusExtracting)
	assert.Contains(t, statuses, domain.JobStatusValidating)
}

func TestRun_NoTextExtracted(t *testing.T) {
	rec := new(mocks.MockRecognizer)
	rec.On("ProviderID").Return("mock")
	rec.On("Recognize", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("scanner offline"))

	p := newPipeline(t, rec, completerReturning(goodModelOutput))
	result := p.Run(context.Background(), []byte("img"), "image/png", defaultOptions(), nil)

	assert.False(t, result.Success)
	require.NotEmpty(t, result.Errors)
	assert.Equal(t, domain.ErrCodeNoTextExtracted, result.Errors[0].Code)
	assert.Empty(t, result.Attempts)
}

func TestRun_ChainExhaustedKeepsLastPartial(t *testing.T) {
	// Model output never parses; the deterministic fallback recovers a thin
	// record that never clears the confidence bar.
	ocrText := "Celkem: 123,45 Kč"
	p := newPipeline(t, recognizerReturning(ocrText), completerReturning("sorry, no JSON today"))

	result := p.Run(context.Background(), []byte("img"), "image/png", defaultOptions(), nil)

	assert.False(t, result.Success)
	assert.Len(t, result.Attempts, 3)
	require.NotNil(t, result.Record)
	assert.InDelta(t, 123.45, *result.Record.Totals.Total, 0.001)
	assert.Less(t, result.Confidence, 0.60)
	require.NotEmpty(t, result.Errors)
	assert.Equal(t, domain.ErrCodeNoAcceptableExtraction, result.Errors[len(result.Errors)-1].Code)
}

func TestRun_NothingRecoverableAnywhere(t *testing.T) {
	ocrText := "jen prosty text bez vzoru"
	p := newPipeline(t, recognizerReturning(ocrText), completerReturning("sorry, no JSON today"))

	result := p.Run(context.Background(), []byte("img"), "image/png", defaultOptions(), nil)

	assert.False(t, result.Success)
	assert.Nil(t, result.Record)
	assert.Len(t, result.Attempts, 3)
	assert.Equal(t, domain.ErrCodeNoAcceptableExtraction, result.Errors[len(result.Errors)-1].Code)
}

func TestRun_CancellationKeepsBestPartial(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	// Cancel while the first tier is in flight; the thin record it parsed
	// must survive alongside the cancellation error.
	completer := new(mocks.MockCompleter)
	completer.On("Complete", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { cancel() }).
		Return(&port.CompleteOutput{
			RawText:      "sorry, no JSON today",
			ModelID:      "test-model",
			InputTokens:  1000,
			OutputTokens: 200,
		}, nil)

	p := newPipeline(t, recognizerReturning("Celkem: 123,45 Kč"), completer)
	result := p.Run(ctx, []byte("img"), "image/png", defaultOptions(), nil)

	assert.False(t, result.Success)
	assert.Len(t, result.Attempts, 1)
	require.NotNil(t, result.Record)
	assert.InDelta(t, 123.45, *result.Record.Totals.Total, 0.001)
	require.NotEmpty(t, result.Errors)
	assert.Equal(t, domain.ErrCodeCancelled, result.Errors[len(result.Errors)-1].Code)
}

func TestRun_BudgetBelowCheapestTier(t *testing.T) {
	opts := defaultOptions()
	opts.Mode = domain.ModeBudgetStrict
	opts.MaxCost = 0.001

	p := newPipeline(t, recognizerReturning(fakturaText), completerReturning(goodModelOutput))
	result := p.Run(context.Background(), []byte("img"), "image/png", opts, nil)

	assert.False(t, result.Success)
	require.NotEmpty(t, result.Errors)
	assert.Equal(t, domain.ErrCodeBudgetExceeded, result.Errors[0].Code)
	assert.Empty(t, result.Attempts)
}

func TestRun_FallbacksDisabledSingleAttempt(t *testing.T) {
	opts := defaultOptions()
	opts.EnableFallbacks = false

	p := newPipeline(t, recognizerReturning("jen prosty text bez vzoru"), completerReturning("sorry"))
	result := p.Run(context.Background(), []byte("img"), "image/png", opts, nil)

	assert.False(t, result.Success)
	assert.Len(t, result.Attempts, 1)
}

type stubEnricher struct {
	called bool
}

func (s *stubEnricher) Enrich(_ context.Context, record *domain.StructuredRecord) *domain.EnrichmentResult {
	s.called = true
	name := "ABC s.r.o. (z registru)"
	if record.Vendor.Name == nil {
		record.Vendor.Name = &name
	}
	return &domain.EnrichmentResult{Enriched: true, FieldsAdded: []string{"vendor.name"}}
}

func TestRun_EnrichmentApplied(t *testing.T) {
	rec := recognizerReturning(fakturaText)
	completer := completerReturning(goodModelOutput)

	fusion := ocr.NewFusion([]port.Recognizer{rec}, map[string]float64{"mock": 0.9}, time.Second)
	table := extract.NewTierTable(testExtractConfig())
	client := extract.NewChainClient(table, map[domain.Tier]port.Completer{
		domain.TierFast:     completer,
		domain.TierBalanced: completer,
		domain.TierPremium:  completer,
	})
	parser, err := parse.NewParser()
	require.NoError(t, err)

	enricher := &stubEnricher{}
	p := pipeline.New(fusion, extract.NewRouter(table), client, parser, validate.NewEngine(testValidateConfig()), enricher)

	opts := domain.DefaultProcessingOptions()
	result := p.Run(context.Background(), []byte("img"), "image/png", opts, nil)

	assert.True(t, result.Success)
	assert.True(t, enricher.called)
	require.NotNil(t, result.Enrichment)
	assert.True(t, result.Enrichment.Enriched)
}
