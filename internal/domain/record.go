package domain

import "time"

// OCRResult is the normalized output of a single recognition backend.
// Never mutated after the adapter returns it.
type OCRResult struct {
	ProviderID     string            `json:"provider_id"`
	Text           string            `json:"text"`
	Confidence     float64           `json:"confidence"`
	ProcessingTime time.Duration     `json:"processing_time"`
	QualityScore   float64           `json:"quality_score"`
	Preview        StructuredPreview `json:"structured_preview"`
}

// StructuredPreview counts recognizable structured fields in raw OCR text.
// Filled by the adapter, consumed by the fusion scorer.
type StructuredPreview struct {
	DatesFound       int `json:"dates_found"`
	AmountsFound     int `json:"amounts_found"`
	IdentifiersFound int `json:"identifiers_found"`
}

// FusionOutcome is the single OCR-stage output passed downstream. It is a
// deterministic function of the contributing OCRResult set.
type FusionOutcome struct {
	Text        string   `json:"chosen_text"`
	Confidence  float64  `json:"consensus_confidence"`
	Providers   []string `json:"contributing_providers"`
	FusionNotes []string `json:"fusion_notes"`
}

// ExtractionAttempt records one call in the extraction fallback chain.
type ExtractionAttempt struct {
	Tier      Tier          `json:"tier"`
	ModelID   string        `json:"model_id"`
	RawOutput string        `json:"raw_output,omitempty"`
	Cost      float64       `json:"cost"`
	Latency   time.Duration `json:"latency"`
	Success   bool          `json:"success"`
	Error     string        `json:"error,omitempty"`
}

// Party is an invoice counterpart (vendor or customer). Nil pointers mean
// "not found", distinct from "found empty".
type Party struct {
	Name       *string `json:"name,omitempty"`
	RegistryID *string `json:"registry_id,omitempty"`
	TaxID      *string `json:"tax_id,omitempty"`
	Address    *string `json:"address,omitempty"`
}

// LineItem is a single invoice line.
type LineItem struct {
	Description *string  `json:"description,omitempty"`
	Quantity    *float64 `json:"quantity,omitempty"`
	UnitPrice   *float64 `json:"unit_price,omitempty"`
	Total       *float64 `json:"total,omitempty"`
	TaxRate     *float64 `json:"tax_rate,omitempty"`
}

// TaxLine is one row of the per-rate tax breakdown.
type TaxLine struct {
	Rate   float64  `json:"rate"`
	Base   *float64 `json:"base,omitempty"`
	Amount *float64 `json:"amount,omitempty"`
}

// Totals holds document-level amounts.
type Totals struct {
	Subtotal     *float64  `json:"subtotal,omitempty"`
	TaxTotal     *float64  `json:"tax_total,omitempty"`
	Total        *float64  `json:"total,omitempty"`
	TaxBreakdown []TaxLine `json:"tax_breakdown,omitempty"`
}

// Payment holds payment metadata found on the document.
type Payment struct {
	BankAccount    *string `json:"bank_account,omitempty"`
	IBAN           *string `json:"iban,omitempty"`
	VariableSymbol *string `json:"variable_symbol,omitempty"`
	PaymentMethod  *string `json:"payment_method,omitempty"`
}

// StructuredRecord is the canonical extracted invoice/receipt shape.
// Provenance maps field paths (e.g. "vendor.name") to the source that
// produced the value: "llm", "regex" or "enrichment:<source>".
type StructuredRecord struct {
	DocumentType  *string           `json:"document_type,omitempty"`
	InvoiceNumber *string           `json:"invoice_number,omitempty"`
	IssueDate     *string           `json:"issue_date,omitempty"`
	DueDate       *string           `json:"due_date,omitempty"`
	Vendor        Party             `json:"vendor"`
	Customer      Party             `json:"customer"`
	LineItems     []LineItem        `json:"line_items,omitempty"`
	Totals        Totals            `json:"totals"`
	Payment       Payment           `json:"payment"`
	Currency      *string           `json:"currency,omitempty"`
	Provenance    map[string]string `json:"provenance,omitempty"`
}

// SetProvenance records the source of a field path, allocating the map lazily.
func (r *StructuredRecord) SetProvenance(fieldPath, source string) {
	if r.Provenance == nil {
		r.Provenance = make(map[string]string)
	}
	r.Provenance[fieldPath] = source
}

// IsEmpty reports whether nothing at all was extracted.
func (r *StructuredRecord) IsEmpty() bool {
	return r.DocumentType == nil && r.InvoiceNumber == nil && r.IssueDate == nil &&
		r.DueDate == nil && r.Currency == nil &&
		r.Vendor == (Party{}) && r.Customer == (Party{}) &&
		len(r.LineItems) == 0 &&
		r.Totals.Subtotal == nil && r.Totals.TaxTotal == nil && r.Totals.Total == nil
}

// FieldCheck is the outcome of one field-level validator.
type FieldCheck struct {
	Valid  bool   `json:"valid"`
	Reason string `json:"reason,omitempty"`
}

// ValidationReport carries per-field validity plus the overall weighted
// accuracy. Accuracy is always within [0, ceiling]; the ceiling is
// configuration, never 1.0.
type ValidationReport struct {
	Accuracy float64               `json:"accuracy"`
	Fields   map[string]FieldCheck `json:"fields"`
	Notes    []string              `json:"notes,omitempty"`
}

// EnrichmentResult describes what the registry lookup added.
type EnrichmentResult struct {
	Enriched    bool     `json:"enriched"`
	FieldsAdded []string `json:"fields_added,omitempty"`
	SourceNotes []string `json:"source_notes,omitempty"`
}

// PipelineError is one entry in the result envelope's error list.
type PipelineError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// PipelineResult is the externally visible envelope for one DocumentJob run.
// Created once per job, immutable after return. This shape is a stable
// contract for the persistence layer and API surface.
type PipelineResult struct {
	Success        bool               `json:"success"`
	Record         *StructuredRecord  `json:"structured_record,omitempty"`
	Report         *ValidationReport  `json:"validation_report,omitempty"`
	Confidence     float64            `json:"confidence"`
	Cost           float64            `json:"cost"`
	ProcessingTime time.Duration      `json:"processing_time"`
	ProviderChain  []string           `json:"provider_chain_used,omitempty"`
	Attempts       []ExtractionAttempt `json:"attempts,omitempty"`
	Enrichment     *EnrichmentResult  `json:"enrichment,omitempty"`
	Errors         []PipelineError    `json:"errors,omitempty"`
}

// Str returns a pointer to s. Convenience for building optional fields.
func Str(s string) *string { return &s }

// F64 returns a pointer to f.
func F64(f float64) *float64 { return &f }
