// Package normalize turns raw cell strings and file metadata into typed values.
package normalize

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// nullLike are cell values that mean "no value" in the exports we see.
var nullLike = map[string]bool{
	"":     true,
	"nan":  true,
	"null": true,
	"none": true,
	"na":   true,
	"n/a":  true,
	"-":    true,
	"--":   true,
}

// dotGroupedRe matches dot-grouped integers such as "1.234.567".
var dotGroupedRe = regexp.MustCompile(`^-?\d{1,3}(?:\.\d{3}){2,}$`)

// IsNullLike reports whether s (after trimming) is an empty/null marker.
func IsNullLike(s string) bool {
	return nullLike[strings.ToLower(strings.TrimSpace(s))]
}

// ParseNumeric coerces a loosely formatted number. It returns false for empty,
// null-like or unparseable input; absent is never reported as zero.
//
// Rules, applied after dropping every character other than digits, '.', ','
// and '-':
//   - comma and dot both present, comma last: dots group, comma is decimal
//     ("1.234,56" -> 1234.56)
//   - several commas, or comma before dot: a comma followed by exactly three
//     digits and then a non-digit or the end is a thousands separator
//     ("1,234.56" -> 1234.56, "1,234,567" -> 1234567)
//   - a lone comma is decimal ("0,45" -> 0.45, "1,234" -> 1.234)
//   - remaining commas become dots
func ParseNumeric(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	if IsNullLike(s) {
		return 0, false
	}

	// Canonical form parses as is, which keeps the function idempotent and
	// preserves exponents that the cleanup below would mangle.
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return finite(v)
	}

	clean := keepNumericChars(s)
	if clean == "" {
		return 0, false
	}

	commas := strings.Count(clean, ",")
	lastComma := strings.LastIndexByte(clean, ',')
	lastDot := strings.LastIndexByte(clean, '.')

	switch {
	case commas > 0 && lastDot >= 0 && lastComma > lastDot:
		clean = strings.ReplaceAll(clean, ".", "")
	case commas > 1 || (commas > 0 && lastDot >= 0):
		clean = stripThousandsCommas(clean)
	case commas == 0 && dotGroupedRe.MatchString(clean):
		clean = strings.ReplaceAll(clean, ".", "")
	}
	clean = strings.ReplaceAll(clean, ",", ".")

	v, err := strconv.ParseFloat(clean, 64)
	if err != nil {
		return 0, false
	}
	return finite(v)
}

// FloatPtr returns ParseNumeric's result as a pointer, nil when absent.
func FloatPtr(raw string) *float64 {
	v, ok := ParseNumeric(raw)
	if !ok {
		return nil
	}
	return &v
}

func finite(v float64) (float64, bool) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func keepNumericChars(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isDigit(c) || c == '.' || c == ',' || c == '-' {
			b.WriteByte(c)
		}
	}
	return b.String()
}

// stripThousandsCommas drops commas followed by exactly three digits and then
// a non-digit or the end of the string.
func stripThousandsCommas(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == ',' && isThousandsGroup(s, i+1) {
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

func isThousandsGroup(s string, start int) bool {
	if start+3 > len(s) {
		return false
	}
	for i := start; i < start+3; i++ {
		if !isDigit(s[i]) {
			return false
		}
	}
	return start+3 == len(s) || !isDigit(s[start+3])
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
