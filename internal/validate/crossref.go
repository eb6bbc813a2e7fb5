package validate

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// traceable reports whether an extracted literal can be found in the source
// OCR text after fuzzy normalization. Values that cannot be traced back to
// the source are likely model hallucinations.
func traceable(sourceNorm, value string) bool {
	v := normalizeForMatch(value)
	if v == "" {
		return true
	}
	return strings.Contains(sourceNorm, v)
}

// traceableAmount matches a numeric value against the source. "1000.00" may
// appear on the page as "1 000,00" or just "1000"; normalization reduces all
// three to the same token.
func traceableAmount(sourceNorm string, v float64) bool {
	fixed := strconv.FormatFloat(v, 'f', 2, 64)
	trimmed := strings.TrimRight(strings.TrimRight(fixed, "0"), ".")
	return strings.Contains(sourceNorm, fixed) || strings.Contains(sourceNorm, trimmed)
}

// normalizeForMatch lowercases, strips diacritics, removes whitespace and
// unifies the decimal separator so OCR spacing and accent loss do not defeat
// the substring check.
func normalizeForMatch(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	var b strings.Builder
	for _, r := range strings.ToLower(folded) {
		switch {
		case unicode.IsSpace(r):
		case r == ',':
			b.WriteRune('.')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
