package parse

import (
	"encoding/json"
	"strconv"
	"strings"

	"doklado/internal/czech"
	"doklado/internal/domain"
)

// flexFloat decodes a JSON number or a numeric string, including Czech
// amount notation. Models are inconsistent about quoting numbers.
type flexFloat struct {
	value float64
	set   bool
}

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" || s == `""` {
		return nil
	}
	if s[0] == '"' {
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil
		}
		if v, err := czech.ParseAmountFloat(raw); err == nil {
			f.value, f.set = v, true
		}
		return nil
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		f.value, f.set = v, true
	}
	return nil
}

func (f *flexFloat) ptr() *float64 {
	if !f.set {
		return nil
	}
	v := f.value
	return &v
}

type wireParty struct {
	Name       string `json:"name"`
	RegistryID string `json:"registry_id"`
	TaxID      string `json:"tax_id"`
	Address    string `json:"address"`
}

type wireLineItem struct {
	Description string    `json:"description"`
	Quantity    flexFloat `json:"quantity"`
	UnitPrice   flexFloat `json:"unit_price"`
	Total       flexFloat `json:"total"`
	TaxRate     flexFloat `json:"tax_rate"`
}

type wireTaxLine struct {
	Rate   flexFloat `json:"rate"`
	Base   flexFloat `json:"base"`
	Amount flexFloat `json:"amount"`
}

type wireTotals struct {
	Subtotal     flexFloat     `json:"subtotal"`
	TaxTotal     flexFloat     `json:"tax_total"`
	Total        flexFloat     `json:"total"`
	TaxBreakdown []wireTaxLine `json:"tax_breakdown"`
}

type wirePayment struct {
	BankAccount    string `json:"bank_account"`
	IBAN           string `json:"iban"`
	VariableSymbol string `json:"variable_symbol"`
	PaymentMethod  string `json:"payment_method"`
}

// wireRecord is the lenient decode target for model output.
type wireRecord struct {
	DocumentType  string         `json:"document_type"`
	InvoiceNumber string         `json:"invoice_number"`
	IssueDate     string         `json:"issue_date"`
	DueDate       string         `json:"due_date"`
	Currency      string         `json:"currency"`
	Vendor        wireParty      `json:"vendor"`
	Customer      wireParty      `json:"customer"`
	LineItems     []wireLineItem `json:"line_items"`
	Totals        wireTotals     `json:"totals"`
	Payment       wirePayment    `json:"payment"`
}

// toDomain converts a decoded wire record into the canonical shape, tagging
// every populated field with the given provenance source.
func (w *wireRecord) toDomain(source string) *domain.StructuredRecord {
	r := &domain.StructuredRecord{}

	setStr := func(path, raw string, dst **string) {
		s := strings.TrimSpace(raw)
		if s == "" {
			return
		}
		*dst = &s
		r.SetProvenance(path, source)
	}
	setDate := func(path, raw string, dst **string) {
		s := strings.TrimSpace(raw)
		if s == "" {
			return
		}
		if norm, err := czech.NormalizeDate(s); err == nil {
			s = norm
		}
		*dst = &s
		r.SetProvenance(path, source)
	}
	setF := func(path string, f flexFloat, dst **float64) {
		if p := f.ptr(); p != nil {
			*dst = p
			r.SetProvenance(path, source)
		}
	}

	setStr("document_type", w.DocumentType, &r.DocumentType)
	setStr("invoice_number", w.InvoiceNumber, &r.InvoiceNumber)
	setDate("issue_date", w.IssueDate, &r.IssueDate)
	setDate("due_date", w.DueDate, &r.DueDate)
	if c := strings.ToUpper(strings.TrimSpace(w.Currency)); c != "" {
		r.Currency = &c
		r.SetProvenance("currency", source)
	}

	setStr("vendor.name", w.Vendor.Name, &r.Vendor.Name)
	setStr("vendor.registry_id", czech.NormalizeICO(w.Vendor.RegistryID), &r.Vendor.RegistryID)
	setStr("vendor.tax_id", czech.NormalizeDIC(w.Vendor.TaxID), &r.Vendor.TaxID)
	setStr("vendor.address", w.Vendor.Address, &r.Vendor.Address)
	setStr("customer.name", w.Customer.Name, &r.Customer.Name)
	setStr("customer.registry_id", czech.NormalizeICO(w.Customer.RegistryID), &r.Customer.RegistryID)
	setStr("customer.tax_id", czech.NormalizeDIC(w.Customer.TaxID), &r.Customer.TaxID)
	setStr("customer.address", w.Customer.Address, &r.Customer.Address)

	for _, wi := range w.LineItems {
		var item domain.LineItem
		desc := strings.TrimSpace(wi.Description)
		if desc != "" {
			item.Description = &desc
		}
		item.Quantity = wi.Quantity.ptr()
		item.UnitPrice = wi.UnitPrice.ptr()
		item.Total = wi.Total.ptr()
		item.TaxRate = wi.TaxRate.ptr()
		if item != (domain.LineItem{}) {
			r.LineItems = append(r.LineItems, item)
		}
	}
	if len(r.LineItems) > 0 {
		r.SetProvenance("line_items", source)
	}

	setF("totals.subtotal", w.Totals.Subtotal, &r.Totals.Subtotal)
	setF("totals.tax_total", w.Totals.TaxTotal, &r.Totals.TaxTotal)
	setF("totals.total", w.Totals.Total, &r.Totals.Total)
	for _, wt := range w.Totals.TaxBreakdown {
		rate := wt.Rate.ptr()
		if rate == nil {
			continue
		}
		r.Totals.TaxBreakdown = append(r.Totals.TaxBreakdown, domain.TaxLine{
			Rate:   *rate,
			Base:   wt.Base.ptr(),
			Amount: wt.Amount.ptr(),
		})
	}

	setStr("payment.bank_account", w.Payment.BankAccount, &r.Payment.BankAccount)
	setStr("payment.iban", w.Payment.IBAN, &r.Payment.IBAN)
	setStr("payment.variable_symbol", w.Payment.VariableSymbol, &r.Payment.VariableSymbol)
	setStr("payment.payment_method", w.Payment.PaymentMethod, &r.Payment.PaymentMethod)

	return r
}
