package ocr

import (
	"regexp"
	"strings"
	"unicode"

	"doklado/internal/domain"
)

var (
	reDate       = regexp.MustCompile(`\b\d{1,2}[./-]\s?\d{1,2}[./-]\s?\d{4}\b|\b\d{4}-\d{2}-\d{2}\b`)
	reAmount     = regexp.MustCompile(`\b\d{1,3}(?:[ .]\d{3})*[,.]\d{2}\b`)
	reIdentifier = regexp.MustCompile(`(?i)\b(?:IČO?|DIČ|VAT|IBAN)\b[:.]?\s*\S+`)
	reCurrency   = regexp.MustCompile(`(?i)\b(CZK|EUR|USD|Kč)\b|[€$]`)

	// Sequences that recognition engines emit on bad scans.
	reNoiseRun = regexp.MustCompile(`[|#*~^\\]{2,}`)
)

// czechMarkers are tokens that indicate consistent Czech invoice language.
var czechMarkers = []string{
	"faktura", "dodavatel", "odběratel", "celkem", "daň", "dph",
	"splatnost", "variabilní", "ičo", "dič",
}

// BuildPreview counts recognizable structured fields in raw OCR text.
func BuildPreview(text string) domain.StructuredPreview {
	return domain.StructuredPreview{
		DatesFound:       len(reDate.FindAllString(text, -1)),
		AmountsFound:     len(reAmount.FindAllString(text, -1)),
		IdentifiersFound: len(reIdentifier.FindAllString(text, -1)),
	}
}

// QualityScore rates raw OCR text in [0,1] from clean-character ratio,
// noise-run density and language consistency. Noise-run characters are
// printable, so they count against the clean ratio; pipe/hash garbage must
// not rate as readable text. Deterministic.
func QualityScore(text string) float64 {
	if text == "" {
		return 0
	}

	var printable, total int
	for _, r := range text {
		total++
		if unicode.IsPrint(r) || r == '\n' || r == '\t' {
			printable++
		}
	}

	noiseRuns := 0
	noiseChars := 0
	for _, span := range reNoiseRun.FindAllStringIndex(text, -1) {
		noiseRuns++
		// The noise character class is single-byte, so span width is a
		// character count.
		noiseChars += span[1] - span[0]
	}
	clean := printable - noiseChars
	if clean < 0 {
		clean = 0
	}
	cleanRatio := float64(clean) / float64(total)

	lines := strings.Count(text, "\n") + 1
	noisePenalty := float64(noiseRuns) / float64(lines)
	if noisePenalty > 1 {
		noisePenalty = 1
	}

	score := cleanRatio*0.6 + (1-noisePenalty)*0.3
	if LanguageConsistent(text) {
		score += 0.1
	}
	if score > 1 {
		score = 1
	}
	if score < 0 {
		score = 0
	}
	return score
}

// LanguageConsistent reports whether the text carries enough Czech invoice
// vocabulary to trust the detected language.
func LanguageConsistent(text string) bool {
	lower := strings.ToLower(text)
	found := 0
	for _, marker := range czechMarkers {
		if strings.Contains(lower, marker) {
			found++
		}
	}
	return found >= 2
}

// HasCurrencyHint reports whether the text mentions a currency at all.
func HasCurrencyHint(text string) bool {
	return reCurrency.MatchString(text)
}

// cleanToken reports whether a token is free of recognition noise.
func cleanToken(tok string) bool {
	return !reNoiseRun.MatchString(tok)
}
