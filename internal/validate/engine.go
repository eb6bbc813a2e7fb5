package validate

import (
	"fmt"
	"strings"

	"doklado/internal/config"
	"doklado/internal/domain"
	"doklado/internal/ocr"
)

// untraceablePenalty multiplies a field group's sub-score when one of its
// literals cannot be traced back to the source text.
const untraceablePenalty = 0.3

// crossFieldPenalty is deducted from the overall score per failed arithmetic
// consistency check.
const crossFieldPenalty = 0.05

// lowQualityThreshold marks source text whose recognition quality is too poor
// to trust any extraction from it.
const lowQualityThreshold = 0.4

// Engine scores an extracted record against the source OCR text. The weights
// and the accuracy ceiling come from configuration; the ceiling exists
// because no automated extraction should claim near-certainty.
type Engine struct {
	cfg config.ValidateConfig
}

// NewEngine creates a validation engine with the given tuning.
func NewEngine(cfg config.ValidateConfig) *Engine {
	return &Engine{cfg: cfg}
}

// Validate runs all field validators, the arithmetic consistency checks and
// the anti-hallucination cross-reference, and produces the weighted report.
// Accuracy is always within [0, ceiling]; an empty record scores 0.
func (e *Engine) Validate(record *domain.StructuredRecord, ocrText string) *domain.ValidationReport {
	report := &domain.ValidationReport{
		Fields: make(map[string]domain.FieldCheck),
	}

	if record == nil || record.IsEmpty() {
		report.Notes = append(report.Notes, "no fields extracted")
		return report
	}

	sourceNorm := normalizeForMatch(ocrText)

	score := e.cfg.WeightAmount*e.amountScore(record, sourceNorm, report) +
		e.cfg.WeightVendor*e.vendorScore(record, sourceNorm, report) +
		e.cfg.WeightDate*e.dateScore(record, report) +
		e.cfg.WeightInvoiceNo*e.invoiceNoScore(record, sourceNorm, report) +
		e.cfg.WeightCurrency*e.currencyScore(record, report) +
		e.cfg.WeightDocType*e.docTypeScore(record, report)

	for _, issue := range checkCrossField(record, e.cfg.SumTolerance) {
		report.Fields[issue.field] = domain.FieldCheck{Valid: false, Reason: issue.reason}
		report.Notes = append(report.Notes, issue.reason)
		score -= crossFieldPenalty
	}

	if ocr.QualityScore(ocrText) < lowQualityThreshold {
		report.Notes = append(report.Notes, "source OCR text quality is poor, extraction is unreliable")
		score *= 0.5
	}

	if score < 0 {
		score = 0
	}
	if score > e.cfg.AccuracyCeiling {
		score = e.cfg.AccuracyCeiling
	}
	report.Accuracy = score
	return report
}

// enrichmentSourced reports whether a field was filled from the registry.
// Enriched values are legitimately absent from the source text, so the
// cross-reference check does not apply to them.
func enrichmentSourced(record *domain.StructuredRecord, path string) bool {
	return strings.HasPrefix(record.Provenance[path], "enrichment:")
}

func (e *Engine) amountScore(r *domain.StructuredRecord, sourceNorm string, report *domain.ValidationReport) float64 {
	type amt struct {
		path  string
		value *float64
	}
	amounts := []amt{
		{"totals.total", r.Totals.Total},
		{"totals.subtotal", r.Totals.Subtotal},
		{"totals.tax_total", r.Totals.TaxTotal},
	}

	present, valid := 0, 0.0
	for _, a := range amounts {
		if a.value == nil {
			continue
		}
		present++
		check := checkAmount(a.path, *a.value)
		if check.Valid && !traceableAmount(sourceNorm, *a.value) {
			check = domain.FieldCheck{Valid: false, Reason: fmt.Sprintf("%s not found in source text", a.path)}
			report.Notes = append(report.Notes, check.Reason)
			report.Fields[a.path] = check
			valid += untraceablePenalty
			continue
		}
		report.Fields[a.path] = check
		if check.Valid {
			valid++
		} else {
			report.Notes = append(report.Notes, check.Reason)
		}
	}
	if present == 0 {
		return 0
	}
	return valid / float64(present)
}

func (e *Engine) vendorScore(r *domain.StructuredRecord, sourceNorm string, report *domain.ValidationReport) float64 {
	score := 0.0

	if r.Vendor.Name != nil && strings.TrimSpace(*r.Vendor.Name) != "" {
		check := domain.FieldCheck{Valid: true}
		if !enrichmentSourced(r, "vendor.name") && !traceable(sourceNorm, *r.Vendor.Name) {
			check = domain.FieldCheck{Valid: false, Reason: "vendor name not found in source text"}
			report.Notes = append(report.Notes, check.Reason)
			report.Fields["vendor.name"] = check
			score += 0.5 * untraceablePenalty
		} else {
			report.Fields["vendor.name"] = check
			score += 0.5
		}
	}

	switch {
	case r.Vendor.RegistryID != nil:
		check := checkRegistryID(*r.Vendor.RegistryID)
		report.Fields["vendor.registry_id"] = check
		if check.Valid {
			score += 0.5
		} else {
			report.Notes = append(report.Notes, check.Reason)
		}
	case r.Vendor.TaxID != nil:
		check := checkTaxID(*r.Vendor.TaxID)
		report.Fields["vendor.tax_id"] = check
		if check.Valid {
			score += 0.5
		} else {
			report.Notes = append(report.Notes, check.Reason)
		}
	default:
		// A vendor identified only by name is weaker evidence but not wrong.
		if r.Vendor.Name != nil {
			score += 0.25
		}
	}

	if score > 1 {
		score = 1
	}
	return score
}

func (e *Engine) dateScore(r *domain.StructuredRecord, report *domain.ValidationReport) float64 {
	present, valid := 0, 0
	if r.IssueDate != nil {
		present++
		check := checkDate("issue_date", *r.IssueDate)
		report.Fields["issue_date"] = check
		if check.Valid {
			valid++
		} else {
			report.Notes = append(report.Notes, check.Reason)
		}
	}
	if r.DueDate != nil {
		present++
		check := checkDate("due_date", *r.DueDate)
		report.Fields["due_date"] = check
		if check.Valid {
			valid++
		} else {
			report.Notes = append(report.Notes, check.Reason)
		}
	}
	if present == 0 {
		return 0
	}
	return float64(valid) / float64(present)
}

func (e *Engine) invoiceNoScore(r *domain.StructuredRecord, sourceNorm string, report *domain.ValidationReport) float64 {
	if r.InvoiceNumber == nil {
		return 0
	}
	check := checkInvoiceNumber(*r.InvoiceNumber)
	if check.Valid && !traceable(sourceNorm, *r.InvoiceNumber) {
		check = domain.FieldCheck{Valid: false, Reason: "invoice number not found in source text"}
		report.Fields["invoice_number"] = check
		report.Notes = append(report.Notes, check.Reason)
		return untraceablePenalty
	}
	report.Fields["invoice_number"] = check
	if !check.Valid {
		report.Notes = append(report.Notes, check.Reason)
		return 0.3
	}
	return 1
}

func (e *Engine) currencyScore(r *domain.StructuredRecord, report *domain.ValidationReport) float64 {
	if r.Currency == nil {
		return 0
	}
	check := checkCurrency(*r.Currency)
	report.Fields["currency"] = check
	if !check.Valid {
		report.Notes = append(report.Notes, check.Reason)
		return 0
	}
	return 1
}

func (e *Engine) docTypeScore(r *domain.StructuredRecord, report *domain.ValidationReport) float64 {
	if r.DocumentType == nil {
		return 0
	}
	check := checkDocumentType(*r.DocumentType)
	report.Fields["document_type"] = check
	if !check.Valid {
		report.Notes = append(report.Notes, check.Reason)
		return 0
	}
	return 1
}
