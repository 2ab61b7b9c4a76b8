// Package clean normalizes redaction sentinels and coerces raw scalar values
// to their canonical types. All functions are pure: one raw value in, one
// canonical value out.
package clean

import (
	"strconv"
	"strings"
)

// IsRedacted reports whether a raw value is a redaction sentinel. OPM
// suppresses values with runs of one to five asterisks; some releases use an
// empty field or the literal REDACTED instead.
func IsRedacted(raw string) bool {
	s := strings.TrimSpace(raw)
	if s == "" || s == "REDACTED" {
		return true
	}
	if len(s) >= 1 && len(s) <= 5 {
		for _, r := range s {
			if r != '*' {
				return false
			}
		}
		return true
	}
	return false
}

// Code canonicalizes a coded field value. Sentinels become nil, never a
// placeholder code. Masked codes beginning with an asterisk are also nil,
// matching how suppressed codes appear in the fact files.
func Code(raw string) *string {
	s := strings.TrimSpace(raw)
	if IsRedacted(s) || strings.HasPrefix(s, "*") {
		return nil
	}
	return &s
}

// Numeric canonicalizes a redactable numeric field. Sentinels become nil,
// never zero. Currency symbols and thousands separators are stripped so that
// re-canonicalizing an already canonical value is a no-op.
func Numeric(raw string) *float64 {
	s := strings.TrimSpace(raw)
	if IsRedacted(s) {
		return nil
	}
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimPrefix(s, "$")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

// Salary canonicalizes the salary field.
func Salary(raw string) *float64 {
	return Numeric(raw)
}

// LengthOfService canonicalizes the length-of-service field. No redaction has
// been observed here, but the field shares the null-coalescing path.
func LengthOfService(raw string) *float64 {
	return Numeric(raw)
}

// Employment returns the employment count for one fact record. Every record
// represents exactly one counted person; the value is never null or redacted.
func Employment() int {
	return 1
}

// FormatNumeric renders a canonical numeric value for output. Integral values
// render without a decimal point so salaries round-trip byte-identically.
func FormatNumeric(v *float64) string {
	if v == nil {
		return ""
	}
	if *v == float64(int64(*v)) {
		return strconv.FormatInt(int64(*v), 10)
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
