package parse

import (
	"regexp"
	"strings"
)

var (
	reFenceOpen  = regexp.MustCompile("(?m)^```(?:json)?\\s*$")
	reTrailComma = regexp.MustCompile(`,\s*([}\]])`)
	reKeyValue   = regexp.MustCompile(`"([a-z_]+)"\s*:\s*("(?:[^"\\]|\\.)*"|-?\d+(?:\.\d+)?)`)
)

// stripFences removes markdown code fences and surrounding prose lines that
// models wrap around JSON despite instructions.
func stripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if loc := reFenceOpen.FindStringIndex(s); loc != nil {
		s = s[loc[1]:]
		if end := strings.LastIndex(s, "```"); end >= 0 {
			s = s[:end]
		}
	}
	return strings.TrimSpace(s)
}

// repairJSON applies heuristic fixes to almost-JSON: drops trailing commas,
// closes an unterminated string, and closes unbalanced brackets in nesting
// order. It does not attempt to fix content, only structure.
func repairJSON(raw string) string {
	s := reTrailComma.ReplaceAllString(raw, "$1")

	var stack []byte
	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if escaped {
			escaped = false
			continue
		}
		switch {
		case c == '\\' && inString:
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '{' || c == '[':
			stack = append(stack, c)
		case c == '}' || c == ']':
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		}
	}

	if inString {
		s += `"`
	}
	// A repaired tail may leave a dangling comma before the closers.
	s = strings.TrimRight(s, ", \n\t")
	for i := len(stack) - 1; i >= 0; i-- {
		if stack[i] == '{' {
			s += "}"
		} else {
			s += "]"
		}
	}
	return s
}

// extractLargestObject returns the largest balanced {...} substring, for
// model output that buries the JSON inside explanation prose.
func extractLargestObject(raw string) string {
	best := ""
	inString := false
	escaped := false
	depth := 0
	start := -1
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		if escaped {
			escaped = false
			continue
		}
		switch {
		case c == '\\' && inString:
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '{':
			if depth == 0 {
				start = i
			}
			depth++
		case c == '}':
			if depth > 0 {
				depth--
				if depth == 0 && start >= 0 {
					candidate := raw[start : i+1]
					if len(candidate) > len(best) {
						best = candidate
					}
				}
			}
		}
	}
	return best
}

// minimalScrape rebuilds a flat JSON object from whatever top-level scalar
// key/value pairs can be pattern-matched out of broken output. Nested
// structure is lost; only well-known scalar keys are kept.
func minimalScrape(raw string) string {
	keep := map[string]bool{
		"document_type":  true,
		"invoice_number": true,
		"issue_date":     true,
		"due_date":       true,
		"currency":       true,
	}

	var pairs []string
	seen := map[string]bool{}
	for _, m := range reKeyValue.FindAllStringSubmatch(raw, -1) {
		key, val := m[1], m[2]
		if !keep[key] || seen[key] {
			continue
		}
		seen[key] = true
		pairs = append(pairs, `"`+key+`":`+val)
	}
	if len(pairs) == 0 {
		return ""
	}
	return "{" + strings.Join(pairs, ",") + "}"
}
