package validate

import (
	"fmt"

	"github.com/shopspring/decimal"

	"doklado/internal/domain"
)

// crossFieldIssue is one failed arithmetic consistency check.
type crossFieldIssue struct {
	field  string
	reason string
}

// checkCrossField verifies the document's arithmetic: line items sum to the
// subtotal, tax lines match base times rate, and the grand total is subtotal
// plus tax. Checks only run over fields that are actually present; tolerance
// absorbs rounding differences.
func checkCrossField(r *domain.StructuredRecord, tolerance float64) []crossFieldIssue {
	tol := decimal.NewFromFloat(tolerance)
	var issues []crossFieldIssue

	if len(r.LineItems) > 0 && r.Totals.Subtotal != nil {
		sum := decimal.Zero
		counted := 0
		for _, item := range r.LineItems {
			if item.Total != nil {
				sum = sum.Add(decimal.NewFromFloat(*item.Total))
				counted++
			}
		}
		if counted == len(r.LineItems) {
			subtotal := decimal.NewFromFloat(*r.Totals.Subtotal)
			if sum.Sub(subtotal).Abs().GreaterThan(tol) {
				issues = append(issues, crossFieldIssue{
					field: "totals.subtotal",
					reason: fmt.Sprintf("line items sum to %s but subtotal is %s",
						sum.StringFixed(2), subtotal.StringFixed(2)),
				})
			}
		}
	}

	for i, line := range r.Totals.TaxBreakdown {
		if line.Base == nil || line.Amount == nil {
			continue
		}
		expected := decimal.NewFromFloat(*line.Base).
			Mul(decimal.NewFromFloat(line.Rate)).
			Div(decimal.NewFromInt(100))
		actual := decimal.NewFromFloat(*line.Amount)
		if expected.Sub(actual).Abs().GreaterThan(tol) {
			issues = append(issues, crossFieldIssue{
				field: fmt.Sprintf("totals.tax_breakdown[%d]", i),
				reason: fmt.Sprintf("tax at %.0f%% of %s should be %s, document says %s",
					line.Rate, decimal.NewFromFloat(*line.Base).StringFixed(2),
					expected.StringFixed(2), actual.StringFixed(2)),
			})
		}
	}

	if r.Totals.Subtotal != nil && r.Totals.TaxTotal != nil && r.Totals.Total != nil {
		expected := decimal.NewFromFloat(*r.Totals.Subtotal).Add(decimal.NewFromFloat(*r.Totals.TaxTotal))
		actual := decimal.NewFromFloat(*r.Totals.Total)
		if expected.Sub(actual).Abs().GreaterThan(tol) {
			issues = append(issues, crossFieldIssue{
				field: "totals.total",
				reason: fmt.Sprintf("subtotal plus tax is %s but total is %s",
					expected.StringFixed(2), actual.StringFixed(2)),
			})
		}
	}

	return issues
}
