// Package czech implements Czech invoice field formats: IČO and DIČ
// identifiers, amount notation and date notation.
package czech

import (
	"regexp"
	"strings"
)

var (
	reICO = regexp.MustCompile(`^\d{8}$`)
	reDIC = regexp.MustCompile(`^CZ\d{8,10}$`)
)

// icoWeights are the modulus-11 weights over the first seven digits.
var icoWeights = [7]int{8, 7, 6, 5, 4, 3, 2}

// ValidICO reports whether an 8-digit IČO passes the modulus-11 checksum.
func ValidICO(ico string) bool {
	if !reICO.MatchString(ico) {
		return false
	}
	sum := 0
	for i := 0; i < 7; i++ {
		sum += int(ico[i]-'0') * icoWeights[i]
	}
	check := (11 - sum%11) % 10
	return check == int(ico[7]-'0')
}

// NormalizeICO strips spaces and left-pads to 8 digits. Registers sometimes
// print the identifier as "123 45 678" or without leading zeros.
func NormalizeICO(raw string) string {
	s := strings.ReplaceAll(strings.TrimSpace(raw), " ", "")
	if len(s) < 8 && len(s) > 0 && allDigits(s) {
		s = strings.Repeat("0", 8-len(s)) + s
	}
	return s
}

// ValidDIC reports whether a tax id has the Czech DIČ shape.
func ValidDIC(dic string) bool {
	return reDIC.MatchString(strings.ToUpper(strings.ReplaceAll(dic, " ", "")))
}

// NormalizeDIC uppercases and strips spaces.
func NormalizeDIC(raw string) string {
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(raw), " ", ""))
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
