package schema

// convert.go parses the free-form text that listing sources produce into
// typed column values.
//
// These functions handle the messy reality of scraped listing data:
//   - Thousand separators as spaces, non-breaking spaces or commas
//   - Currency and unit suffixes ("₸", "тг", "km", "км", "л")
//   - Decimal commas ("2,5")
//   - Various boolean representations (yes/no, да/нет, 1/0)
//
// Each Parse* function reports false for empty or unparseable input.

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// numericRegex validates that a string is a valid numeric format after cleanup.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)$`)

// unitSuffixes are stripped from numeric input, longest first.
var unitSuffixes = []string{"тенге", "тг", "₸", "kzt", "км", "km", "л", "l", "cc"}

// CleanValue removes common artifacts from a text value:
// - Trims whitespace (including non-breaking spaces)
// - Removes surrounding quotes
// - Collapses internal runs of whitespace
func CleanValue(s string) string {
	s = strings.TrimFunc(s, unicode.IsSpace)
	s = strings.Trim(s, `"'`)
	return strings.Join(strings.Fields(s), " ")
}

// cleanNumber strips separators and unit suffixes, and normalizes a decimal comma.
func cleanNumber(s string) string {
	s = strings.ToLower(CleanValue(s))
	for _, suffix := range unitSuffixes {
		s = strings.TrimSpace(strings.TrimSuffix(s, suffix))
	}

	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || r == ' ' {
			return -1
		}
		return r
	}, s)

	// "2,5" is a decimal; "1,200,000" is grouping.
	if strings.Count(s, ",") == 1 && !strings.Contains(s, ".") && len(s)-strings.Index(s, ",") != 4 {
		s = strings.Replace(s, ",", ".", 1)
	}
	return strings.ReplaceAll(s, ",", "")
}

// ParseInt parses an integer such as "12 500 000 ₸" or "85 000 км".
func ParseInt(s string) (int64, bool) {
	s = cleanNumber(s)
	if s == "" {
		return 0, false
	}
	i, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return i, true
}

// ParseNumeric parses a decimal such as "2.5 л" or "2,0".
func ParseNumeric(s string) (float64, bool) {
	s = cleanNumber(s)
	if s == "" || !numericRegex.MatchString(s) {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// ParseBool accepts true/false, yes/no, t/f, y/n, 1/0 and да/нет.
func ParseBool(s string) (bool, bool) {
	switch strings.ToLower(CleanValue(s)) {
	case "true", "t", "yes", "y", "1", "да":
		return true, true
	case "false", "f", "no", "n", "0", "нет":
		return false, true
	default:
		return false, false
	}
}
