package pipeline

import (
	"context"
	"fmt"
	"log"
	"time"

	"doklado/internal/assess"
	"doklado/internal/domain"
	"doklado/internal/extract"
	"doklado/internal/ocr"
	"doklado/internal/parse"
	"doklado/internal/validate"
)

// Enricher is the enrichment stage contract. Enrichment is best-effort and
// never blocks completion.
type Enricher interface {
	Enrich(ctx context.Context, record *domain.StructuredRecord) *domain.EnrichmentResult
}

// StatusFunc observes state-machine transitions, typically to persist job
// status. May be nil.
type StatusFunc func(status domain.JobStatus)

// Pipeline sequences OCR fusion, routing, tiered extraction, parsing,
// validation and enrichment for one document. It always returns a
// PipelineResult, never a bare error: failures carry the best partial record
// with honest low confidence.
type Pipeline struct {
	fusion    *ocr.Fusion
	router    *extract.Router
	client    *extract.ChainClient
	parser    *parse.Parser
	validator *validate.Engine
	enricher  Enricher
}

// New creates a pipeline from its stage components.
func New(
	fusion *ocr.Fusion,
	router *extract.Router,
	client *extract.ChainClient,
	parser *parse.Parser,
	validator *validate.Engine,
	enricher Enricher,
) *Pipeline {
	return &Pipeline{
		fusion:    fusion,
		router:    router,
		client:    client,
		parser:    parser,
		validator: validator,
		enricher:  enricher,
	}
}

// run accumulates the state of one job as it moves through the machine.
type run struct {
	result  *domain.PipelineResult
	started time.Time
	status  StatusFunc
}

func (r *run) transition(status domain.JobStatus) {
	if r.status != nil {
		r.status(status)
	}
}

func (r *run) fail(code domain.ErrorCode, message string) *domain.PipelineResult {
	r.result.Success = false
	r.result.Errors = append(r.result.Errors, domain.PipelineError{Code: code, Message: message})
	r.result.ProcessingTime = time.Since(r.started)
	r.transition(domain.JobStatusFailed)
	return r.result
}

func (r *run) addError(code domain.ErrorCode, message string) {
	r.result.Errors = append(r.result.Errors, domain.PipelineError{Code: code, Message: message})
}

// Run processes one document end to end. The caller's context carries the
// overall deadline; on cancellation the best partial result accumulated so
// far is returned with success=false.
func (p *Pipeline) Run(ctx context.Context, fileBytes []byte, contentType string, opts domain.ProcessingOptions, status StatusFunc) *domain.PipelineResult {
	r := &run{
		result:  &domain.PipelineResult{},
		started: time.Now(),
		status:  status,
	}
	r.transition(domain.JobStatusReceived)

	// OCR
	r.transition(domain.JobStatusOCR)
	outcome := p.fusion.Run(ctx, fileBytes, contentType)
	r.result.ProviderChain = append(r.result.ProviderChain, outcome.Providers...)
	if outcome.Text == "" {
		return r.fail(domain.ErrCodeNoTextExtracted, "no OCR provider produced text")
	}

	// Routing
	r.transition(domain.JobStatusRouting)
	complexity := assess.Assess(outcome.Text)
	chain, err := p.router.SelectChain(complexity, opts)
	if err != nil {
		return r.fail(domain.ErrCodeBudgetExceeded, err.Error())
	}
	log.Printf("pipeline.Pipeline: %s document, chain %v", complexity, tierIDs(chain))

	// Extracting ⇄ Parsing ⇄ Validating over the fallback chain. The last
	// parsed record survives as the partial result even when no attempt
	// clears the confidence bar.
	var (
		record   *domain.StructuredRecord
		report   *domain.ValidationReport
		accepted bool
	)
	remaining := opts.MaxCost

	for _, spec := range chain {
		if ctx.Err() != nil {
			break
		}
		if opts.Mode == domain.ModeBudgetStrict && p.client.EstimatedCost(spec.ID) > remaining {
			r.addError(domain.ErrCodeBudgetExceeded,
				fmt.Sprintf("tier %s skipped: estimated cost exceeds remaining budget %.4f", spec.ID, remaining))
			continue
		}

		r.transition(domain.JobStatusExtracting)
		attempt := p.client.Extract(ctx, spec.ID, outcome.Text)
		r.result.Attempts = append(r.result.Attempts, attempt)
		r.result.Cost += attempt.Cost
		remaining -= attempt.Cost
		r.result.ProviderChain = append(r.result.ProviderChain, string(spec.ID))

		if !attempt.Success {
			r.addError(domain.ErrCodeProviderUnavailable,
				fmt.Sprintf("tier %s: %s", spec.ID, attempt.Error))
			continue
		}

		r.transition(domain.JobStatusParsing)
		parsed, stage, err := p.parser.Parse(attempt.RawOutput, outcome.Text)
		if err != nil {
			r.addError(domain.ErrCodeParseFailure,
				fmt.Sprintf("tier %s: %v", spec.ID, err))
			continue
		}
		log.Printf("pipeline.Pipeline: tier %s parsed via %s stage", spec.ID, stage)

		r.transition(domain.JobStatusValidating)
		parsedReport := p.validator.Validate(parsed, outcome.Text)
		record, report = parsed, parsedReport

		if parsedReport.Accuracy >= opts.MinConfidence {
			accepted = true
			break
		}
		r.addError(domain.ErrCodeValidationFailure,
			fmt.Sprintf("tier %s: accuracy %.2f below required %.2f", spec.ID, parsedReport.Accuracy, opts.MinConfidence))
	}

	// Enriching: best-effort, applies to partial results too.
	if record != nil && opts.EnableEnrichment && p.enricher != nil && ctx.Err() == nil {
		r.transition(domain.JobStatusEnriching)
		enrichment := p.enricher.Enrich(ctx, record)
		r.result.Enrichment = enrichment
		if !enrichment.Enriched && len(enrichment.SourceNotes) > 0 {
			r.addError(domain.ErrCodeEnrichmentUnavailable, enrichment.SourceNotes[0])
		}
	}

	r.result.Record = record
	r.result.Report = report
	if report != nil {
		r.result.Confidence = report.Accuracy
	}

	if ctx.Err() != nil {
		return r.fail(domain.ErrCodeCancelled, "processing cancelled before completion")
	}
	if !accepted {
		if record == nil && len(r.result.Attempts) == 0 {
			return r.fail(domain.ErrCodeBudgetExceeded, "no extraction attempt fit the budget")
		}
		return r.fail(domain.ErrCodeNoAcceptableExtraction,
			"extraction chain exhausted without reaching the confidence target")
	}

	r.result.Success = true
	r.result.ProcessingTime = time.Since(r.started)
	r.transition(domain.JobStatusDone)
	return r.result
}

func tierIDs(chain []extract.TierSpec) []domain.Tier {
	ids := make([]domain.Tier, 0, len(chain))
	for _, spec := range chain {
		ids = append(ids, spec.ID)
	}
	return ids
}
