package parse

import (
	"regexp"
	"strings"

	"doklado/internal/czech"
	"doklado/internal/domain"
)

// sourceRegex tags fields recovered by the deterministic extractor.
const sourceRegex = "regex"

const amountPattern = `((?:\d{1,3}(?:[ .]\d{3})+|\d+)[,.]\d{2})`

var (
	reDocInvoice    = regexp.MustCompile(`(?i)\bfaktura\b`)
	reDocReceipt    = regexp.MustCompile(`(?i)\b(účtenka|paragon)\b`)
	reDocCreditNote = regexp.MustCompile(`(?i)\bdobropis\b`)

	reInvoiceNo = regexp.MustCompile(`(?i)\b(?:faktura|invoice)(?:\s*(?:č\.|číslo|no\.?|#))?\s*[:#]?\s*([A-Z0-9][A-Z0-9/-]{2,})`)

	reIssueDate = regexp.MustCompile(`(?i)(?:datum\s+vystavení|vystaveno|date\s+of\s+issue)\s*[:.]?\s*(\d{1,2}[./-]\s?\d{1,2}[./-]\s?\d{4}|\d{4}-\d{2}-\d{2})`)
	reDueDate   = regexp.MustCompile(`(?i)(?:datum\s+)?splatnost[i]?\s*[:.]?\s*(\d{1,2}[./-]\s?\d{1,2}[./-]\s?\d{4}|\d{4}-\d{2}-\d{2})`)
	reAnyDate   = regexp.MustCompile(`\b(\d{1,2}[./-]\s?\d{1,2}[./-]\s?\d{4}|\d{4}-\d{2}-\d{2})\b`)

	reICOLabeled = regexp.MustCompile(`(?i)\bIČO?\s*[:.]?\s*(\d[\d ]{6,10}\d)`)
	reICOBare    = regexp.MustCompile(`\b(\d{8})\b`)
	reDICLabeled = regexp.MustCompile(`(?i)\bDIČ\s*[:.]?\s*(CZ\s?\d{8,10})`)

	reVendorLine   = regexp.MustCompile(`(?im)^\s*dodavatel\s*:?\s*(.+)$`)
	reCustomerLine = regexp.MustCompile(`(?im)^\s*odběratel\s*:?\s*(.+)$`)
	rePartyTrim    = regexp.MustCompile(`(?i),\s*(?:IČO?|DIČ)\b.*$`)

	reTotal    = regexp.MustCompile(`(?i)\bcelkem(?:\s+k\s+úhradě)?\s*[:.]?\s*` + amountPattern)
	reSubtotal = regexp.MustCompile(`(?i)\b(?:základ(?:\s+daně)?|bez\s+DPH|mezisoučet)\s*[:.]?\s*` + amountPattern)
	reTaxTotal = regexp.MustCompile(`(?i)\bDPH\s*(?:\d{1,2}\s*%)?\s*[:.]?\s*` + amountPattern)

	reCurrencyCode = regexp.MustCompile(`\b(CZK|EUR|USD)\b`)
	reCurrencyKc   = regexp.MustCompile(`\bKč\b`)

	reIBAN        = regexp.MustCompile(`\bCZ\d{2}(?:\s?\d{4}){5}\b`)
	reBankAccount = regexp.MustCompile(`\b(?:\d{2,6}-)?\d{2,10}/\d{4}\b`)
	reVarSymbol   = regexp.MustCompile(`(?i)(?:variabilní\s+symbol|\bVS)\s*[:.]?\s*(\d{1,10})`)
)

// ExtractFromText recovers whatever structured fields a fixed pattern library
// can find in raw OCR text. It runs entirely independently of model output and
// is the parser's last resort. Deterministic and side-effect-free.
func ExtractFromText(text string) *domain.StructuredRecord {
	r := &domain.StructuredRecord{}

	set := func(path, value string, dst **string) {
		if value == "" {
			return
		}
		v := value
		*dst = &v
		r.SetProvenance(path, sourceRegex)
	}

	switch {
	case reDocCreditNote.MatchString(text):
		set("document_type", "credit_note", &r.DocumentType)
	case reDocInvoice.MatchString(text):
		set("document_type", "invoice", &r.DocumentType)
	case reDocReceipt.MatchString(text):
		set("document_type", "receipt", &r.DocumentType)
	}

	if m := reInvoiceNo.FindStringSubmatch(text); m != nil {
		set("invoice_number", m[1], &r.InvoiceNumber)
	}

	extractDates(text, r)
	extractParties(text, r)
	extractTotals(text, r)
	extractPayment(text, r)

	if m := reCurrencyCode.FindStringSubmatch(text); m != nil {
		set("currency", m[1], &r.Currency)
	} else if reCurrencyKc.MatchString(text) {
		set("currency", "CZK", &r.Currency)
	}

	return r
}

func extractDates(text string, r *domain.StructuredRecord) {
	if m := reIssueDate.FindStringSubmatch(text); m != nil {
		if d, err := czech.NormalizeDate(m[1]); err == nil {
			r.IssueDate = &d
			r.SetProvenance("issue_date", sourceRegex)
		}
	}
	if m := reDueDate.FindStringSubmatch(text); m != nil {
		if d, err := czech.NormalizeDate(m[1]); err == nil {
			r.DueDate = &d
			r.SetProvenance("due_date", sourceRegex)
		}
	}
	// An unlabeled date is taken as the issue date when no label matched.
	if r.IssueDate == nil {
		if m := reAnyDate.FindStringSubmatch(text); m != nil {
			if d, err := czech.NormalizeDate(m[1]); err == nil {
				r.IssueDate = &d
				r.SetProvenance("issue_date", sourceRegex)
			}
		}
	}
}

func extractParties(text string, r *domain.StructuredRecord) {
	if m := reVendorLine.FindStringSubmatch(text); m != nil {
		name := strings.TrimSpace(rePartyTrim.ReplaceAllString(m[1], ""))
		if name != "" {
			r.Vendor.Name = &name
			r.SetProvenance("vendor.name", sourceRegex)
		}
	}
	if m := reCustomerLine.FindStringSubmatch(text); m != nil {
		name := strings.TrimSpace(rePartyTrim.ReplaceAllString(m[1], ""))
		if name != "" {
			r.Customer.Name = &name
			r.SetProvenance("customer.name", sourceRegex)
		}
	}

	// Labeled identifiers are trusted as written even when the checksum
	// fails; the validator scores them later. The first occurrence belongs
	// to the vendor, the second to the customer.
	icos := reICOLabeled.FindAllStringSubmatch(text, -1)
	if len(icos) > 0 {
		ico := czech.NormalizeICO(icos[0][1])
		r.Vendor.RegistryID = &ico
		r.SetProvenance("vendor.registry_id", sourceRegex)
	}
	if len(icos) > 1 {
		ico := czech.NormalizeICO(icos[1][1])
		r.Customer.RegistryID = &ico
		r.SetProvenance("customer.registry_id", sourceRegex)
	}
	// Unlabeled 8-digit candidates are accepted only with a valid checksum.
	if r.Vendor.RegistryID == nil {
		for _, m := range reICOBare.FindAllStringSubmatch(text, -1) {
			if czech.ValidICO(m[1]) {
				ico := m[1]
				r.Vendor.RegistryID = &ico
				r.SetProvenance("vendor.registry_id", sourceRegex)
				break
			}
		}
	}

	dics := reDICLabeled.FindAllStringSubmatch(text, -1)
	if len(dics) > 0 {
		dic := czech.NormalizeDIC(dics[0][1])
		r.Vendor.TaxID = &dic
		r.SetProvenance("vendor.tax_id", sourceRegex)
	}
	if len(dics) > 1 {
		dic := czech.NormalizeDIC(dics[1][1])
		r.Customer.TaxID = &dic
		r.SetProvenance("customer.tax_id", sourceRegex)
	}
}

func extractTotals(text string, r *domain.StructuredRecord) {
	setAmount := func(path, raw string, dst **float64) {
		v, err := czech.ParseAmountFloat(raw)
		if err != nil {
			return
		}
		*dst = &v
		r.SetProvenance(path, sourceRegex)
	}

	if m := reTotal.FindStringSubmatch(text); m != nil {
		setAmount("totals.total", m[1], &r.Totals.Total)
	}
	if m := reSubtotal.FindStringSubmatch(text); m != nil {
		setAmount("totals.subtotal", m[1], &r.Totals.Subtotal)
	}
	if m := reTaxTotal.FindStringSubmatch(text); m != nil {
		setAmount("totals.tax_total", m[1], &r.Totals.TaxTotal)
	}
}

func extractPayment(text string, r *domain.StructuredRecord) {
	if m := reIBAN.FindString(text); m != "" {
		iban := strings.ReplaceAll(m, " ", "")
		r.Payment.IBAN = &iban
		r.SetProvenance("payment.iban", sourceRegex)
	}
	if m := reBankAccount.FindString(text); m != "" {
		account := m
		r.Payment.BankAccount = &account
		r.SetProvenance("payment.bank_account", sourceRegex)
	}
	if m := reVarSymbol.FindStringSubmatch(text); m != nil {
		vs := m[1]
		r.Payment.VariableSymbol = &vs
		r.SetProvenance("payment.variable_symbol", sourceRegex)
	}
}
