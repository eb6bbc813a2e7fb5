package validate

import (
	"fmt"
	"regexp"
	"time"

	"doklado/internal/czech"
	"doklado/internal/domain"
)

var (
	invoiceNoPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9/_-]{1,31}$`)
)

// Known ISO 4217 currency codes (common subset for Czech documents).
var knownCurrencies = map[string]bool{
	"CZK": true, "EUR": true, "USD": true, "GBP": true, "PLN": true,
	"HUF": true, "CHF": true, "SEK": true, "NOK": true, "DKK": true,
}

var knownDocumentTypes = map[string]bool{
	"invoice": true, "receipt": true, "credit_note": true,
}

// maxPlausibleAmount bounds single-document totals; anything above it is
// treated as a recognition artifact rather than a real figure.
const maxPlausibleAmount = 100_000_000.0

func checkRegistryID(ico string) domain.FieldCheck {
	if !czech.ValidICO(ico) {
		return domain.FieldCheck{Valid: false, Reason: fmt.Sprintf("IČO %q fails modulus-11 checksum", ico)}
	}
	return domain.FieldCheck{Valid: true}
}

func checkTaxID(dic string) domain.FieldCheck {
	if !czech.ValidDIC(dic) {
		return domain.FieldCheck{Valid: false, Reason: fmt.Sprintf("DIČ %q does not match CZ format", dic)}
	}
	return domain.FieldCheck{Valid: true}
}

func checkAmount(path string, v float64) domain.FieldCheck {
	if v < 0 {
		return domain.FieldCheck{Valid: false, Reason: fmt.Sprintf("%s is negative", path)}
	}
	if v > maxPlausibleAmount {
		return domain.FieldCheck{Valid: false, Reason: fmt.Sprintf("%s exceeds plausible range", path)}
	}
	return domain.FieldCheck{Valid: true}
}

func checkDate(path, value string) domain.FieldCheck {
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return domain.FieldCheck{Valid: false, Reason: fmt.Sprintf("%s %q is not a normalized date", path, value)}
	}
	// Invoices older than 2000 or dated far into the future are recognition
	// errors, not documents this system processes.
	if t.Year() < 2000 || t.After(time.Now().AddDate(2, 0, 0)) {
		return domain.FieldCheck{Valid: false, Reason: fmt.Sprintf("%s %q is outside the plausible calendar range", path, value)}
	}
	return domain.FieldCheck{Valid: true}
}

func checkInvoiceNumber(value string) domain.FieldCheck {
	if !invoiceNoPattern.MatchString(value) {
		return domain.FieldCheck{Valid: false, Reason: fmt.Sprintf("invoice number %q has unexpected format", value)}
	}
	return domain.FieldCheck{Valid: true}
}

func checkCurrency(value string) domain.FieldCheck {
	if !knownCurrencies[value] {
		return domain.FieldCheck{Valid: false, Reason: fmt.Sprintf("unknown currency code %q", value)}
	}
	return domain.FieldCheck{Valid: true}
}

func checkDocumentType(value string) domain.FieldCheck {
	if !knownDocumentTypes[value] {
		return domain.FieldCheck{Valid: false, Reason: fmt.Sprintf("unknown document type %q", value)}
	}
	return domain.FieldCheck{Valid: true}
}
