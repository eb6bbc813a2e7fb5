package czech

import (
	"fmt"
	"regexp"
	"time"
)

var (
	reDateDotted = regexp.MustCompile(`^(\d{1,2})[./-]\s?(\d{1,2})[./-]\s?(\d{4})$`)
	reDateISO    = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})$`)
)

// NormalizeDate parses a date in Czech notation ("21. 3. 2024", "21.03.2024")
// or ISO notation and returns it as YYYY-MM-DD. The date must exist on the
// calendar.
func NormalizeDate(raw string) (string, error) {
	if m := reDateISO.FindStringSubmatch(raw); m != nil {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return "", fmt.Errorf("parsing date %q: %w", raw, err)
		}
		return t.Format("2006-01-02"), nil
	}
	if m := reDateDotted.FindStringSubmatch(raw); m != nil {
		composed := fmt.Sprintf("%s.%s.%s", m[1], m[2], m[3])
		t, err := time.Parse("2.1.2006", composed)
		if err != nil {
			return "", fmt.Errorf("parsing date %q: %w", raw, err)
		}
		return t.Format("2006-01-02"), nil
	}
	return "", fmt.Errorf("unrecognized date format %q", raw)
}
