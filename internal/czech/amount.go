package czech

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount parses an amount in Czech notation ("1 234,56", "1.234,56")
// or plain decimal notation ("1234.56") into an exact decimal.
func ParseAmount(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	s = strings.ReplaceAll(s, "\u00a0", "")
	s = strings.ReplaceAll(s, " ", "")

	// A comma is always the Czech decimal separator; dots before it are
	// thousand separators.
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parsing amount %q: %w", raw, err)
	}
	return d, nil
}

// ParseAmountFloat is ParseAmount rounded to a float64 with two decimal places.
func ParseAmountFloat(raw string) (float64, error) {
	d, err := ParseAmount(raw)
	if err != nil {
		return 0, err
	}
	f, _ := d.Round(2).Float64()
	return f, nil
}
