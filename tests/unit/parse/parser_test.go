package parse_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"doklado/internal/parse"
)

const fakturaText = `FAKTURA č. 2024-001
Dodavatel: ABC s.r.o., IČO: 27082440
Odběratel: XYZ a.s., IČO: 12345678
Datum vystavení: 21.3.2024
Splatnost: 4.4.2024
Celkem k úhradě: 1 000,00 Kč`

func newParser(t *testing.T) *parse.Parser {
	t.Helper()
	p, err := parse.NewParser()
	require.NoError(t, err)
	return p
}

func TestParse_StrictJSON(t *testing.T) {
	p := newParser(t)
	raw := `{
		"document_type": "invoice",
		"invoice_number": "FV-2024-001",
		"issue_date": "21.3.2024",
		"currency": "czk",
		"vendor": {"name": "ABC s.r.o.", "registry_id": "27082440"},
		"totals": {"total": "1 234,56"}
	}`

	record, stage, err := p.Parse(raw, fakturaText)

	require.NoError(t, err)
	assert.Equal(t, parse.StageStrict, stage)
	assert.Equal(t, "invoice", *record.DocumentType)
	assert.Equal(t, "FV-2024-001", *record.InvoiceNumber)
	assert.Equal(t, "2024-03-21", *record.IssueDate)
	assert.Equal(t, "CZK", *record.Currency)
	assert.Equal(t, "ABC s.r.o.", *record.Vendor.Name)
	assert.Equal(t, "27082440", *record.Vendor.RegistryID)
	assert.InDelta(t, 1234.56, *record.Totals.Total, 0.001)
	assert.Equal(t, "llm", record.Provenance["invoice_number"])
}

func TestParse_FencedJSON(t *testing.T) {
	p := newParser(t)
	raw := "Here is the extraction:\n```json\n{\"invoice_number\": \"FV-7\"}\n```\n"

	record, stage, err := p.Parse(raw, fakturaText)

	require.NoError(t, err)
	assert.Equal(t, parse.StageStrict, stage)
	assert.Equal(t, "FV-7", *record.InvoiceNumber)
}

func TestParse_TrailingCommaRepaired(t *testing.T) {
	p := newParser(t)
	raw := `{"invoice_number": "FV-8", "currency": "CZK",}`

	record, stage, err := p.Parse(raw, fakturaText)

	require.NoError(t, err)
	assert.Equal(t, parse.StageRepaired, stage)
	assert.Equal(t, "FV-8", *record.InvoiceNumber)
	assert.Equal(t, "CZK", *record.Currency)
}

func TestParse_TruncatedOutputRepaired(t *testing.T) {
	p := newParser(t)
	raw := `{"invoice_number": "FV-9", "vendor": {"name": "ABC s.r.o.`

	record, stage, err := p.Parse(raw, fakturaText)

	require.NoError(t, err)
	assert.Equal(t, parse.StageRepaired, stage)
	assert.Equal(t, "FV-9", *record.InvoiceNumber)
	assert.Equal(t, "ABC s.r.o.", *record.Vendor.Name)
}

func TestParse_ObjectBuriedInProse(t *testing.T) {
	p := newParser(t)
	raw := `The extracted data follows: {"invoice_number": "FV-10"} and I hope it helps.`

	record, stage, err := p.Parse(raw, fakturaText)

	require.NoError(t, err)
	assert.Equal(t, parse.StageExtract, stage)
	assert.Equal(t, "FV-10", *record.InvoiceNumber)
}

func TestParse_MinimalScrape(t *testing.T) {
	p := newParser(t)
	raw := `status partial *** "invoice_number": "FV-99", "currency": "CZK" *** {{{`

	record, stage, err := p.Parse(raw, fakturaText)

	require.NoError(t, err)
	assert.Equal(t, parse.StageMinimal, stage)
	assert.Equal(t, "FV-99", *record.InvoiceNumber)
	assert.Equal(t, "CZK", *record.Currency)
}

func TestParse_UnknownKeysFallThroughToRegex(t *testing.T) {
	p := newParser(t)
	raw := `{"verdict": "looks fine"}`

	record, stage, err := p.Parse(raw, fakturaText)

	require.NoError(t, err)
	assert.Equal(t, parse.StageRegex, stage)
	assert.Equal(t, "2024-001", *record.InvoiceNumber)
}

func TestParse_RegexFallbackRecoversInvoice(t *testing.T) {
	p := newParser(t)

	record, stage, err := p.Parse("sorry, I could not comply", fakturaText)

	require.NoError(t, err)
	assert.Equal(t, parse.StageRegex, stage)
	assert.Equal(t, "invoice", *record.DocumentType)
	assert.Equal(t, "2024-001", *record.InvoiceNumber)
	assert.Equal(t, "2024-03-21", *record.IssueDate)
	assert.Equal(t, "2024-04-04", *record.DueDate)
	assert.Equal(t, "ABC s.r.o.", *record.Vendor.Name)
	assert.Equal(t, "27082440", *record.Vendor.RegistryID)
	assert.Equal(t, "XYZ a.s.", *record.Customer.Name)
	assert.Equal(t, "12345678", *record.Customer.RegistryID)
	assert.InDelta(t, 1000.00, *record.Totals.Total, 0.001)
	assert.Equal(t, "CZK", *record.Currency)
	assert.Equal(t, "regex", record.Provenance["invoice_number"])
}

func TestParse_NothingRecoverable(t *testing.T) {
	p := newParser(t)

	record, stage, err := p.Parse("", "žádná data")

	assert.Nil(t, record)
	assert.Equal(t, parse.StageRegex, stage)
	assert.ErrorIs(t, err, parse.ErrUnrecoverable)
}

func TestExtractFromText_Payment(t *testing.T) {
	text := `FAKTURA č. 2024-002
Bankovní účet: 123456789/0800
Variabilní symbol: 20240002
Celkem: 500,00 CZK`

	record := parse.ExtractFromText(text)

	assert.Equal(t, "123456789/0800", *record.Payment.BankAccount)
	assert.Equal(t, "20240002", *record.Payment.VariableSymbol)
	assert.Equal(t, "CZK", *record.Currency)
	assert.InDelta(t, 500.00, *record.Totals.Total, 0.001)
}
