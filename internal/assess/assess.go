package assess

import (
	"regexp"
	"strings"

	"doklado/internal/domain"
)

// Line items show up as rows with a quantity and a price-like amount.
var reLineItem = regexp.MustCompile(`(?m)^.*\d+(?:[,.]\d+)?\s*(?:ks|x|pcs)?\s+.*\d{1,3}(?:[ .]\d{3})*[,.]\d{2}\s*$`)

// Tax rates appear as "21 %" or "21%"; Czech VAT bands are 0/10/12/15/21.
var reTaxRate = regexp.MustCompile(`\b(\d{1,2})\s?%`)

var discountMarkers = []string{
	"sleva", "discount", "záloha", "zaloha", "advance", "dobropis", "credit note",
}

const longTextThreshold = 1500

// Thresholds on the point total.
const (
	simpleMax = 2
	mediumMax = 6
)

// Assess classifies raw OCR text by extraction difficulty. Pure function of
// its input; the router uses the class to pick a starting model tier.
func Assess(text string) domain.Complexity {
	points := lineItemPoints(text) + taxRatePoints(text)

	lower := strings.ToLower(text)
	for _, marker := range discountMarkers {
		if strings.Contains(lower, marker) {
			points += 3
			break
		}
	}

	if len(text) > longTextThreshold {
		points++
	}

	switch {
	case points <= simpleMax:
		return domain.ComplexitySimple
	case points <= mediumMax:
		return domain.ComplexityMedium
	default:
		return domain.ComplexityComplex
	}
}

func lineItemPoints(text string) int {
	n := len(reLineItem.FindAllString(text, -1))
	switch {
	case n <= 2:
		return 0
	case n <= 5:
		return 2
	default:
		return 4
	}
}

func taxRatePoints(text string) int {
	rates := make(map[string]struct{})
	for _, m := range reTaxRate.FindAllStringSubmatch(text, -1) {
		rates[m[1]] = struct{}{}
	}
	switch n := len(rates); {
	case n <= 1:
		return 0
	case n == 2:
		return 2
	default:
		return 3
	}
}
