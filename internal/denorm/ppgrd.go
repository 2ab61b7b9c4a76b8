package denorm

import (
	"strings"
	"unicode"
)

// SplitPayPlanGrade splits a combined pay-plan-and-grade code into its plan
// component (letters) and grade component (digits). The split is independent
// of the standalone pay-plan lookup: the combined code's own lookup table is
// authoritative for its description and is never synthesized from the parts.
func SplitPayPlanGrade(code string) (plan, grade string) {
	s := strings.ToUpper(strings.TrimSpace(code))
	s = strings.ReplaceAll(s, " ", "")

	var p, g strings.Builder
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) && g.Len() == 0:
			p.WriteRune(r)
		case unicode.IsDigit(r):
			g.WriteRune(r)
		}
	}
	return p.String(), g.String()
}

// GradeKey renders a combined pay-plan-and-grade code as the deterministic
// comparison key used for cross-quarter joins: plan, hyphen, grade
// zero-padded to two digits. "GS4" and "GS-4" both become "GS-04", so the
// same logical category produces an identical key in every quarter.
func GradeKey(code string) string {
	plan, grade := SplitPayPlanGrade(code)
	if plan == "" && grade == "" {
		return ""
	}
	if grade == "" {
		return plan
	}
	if len(grade) < 2 {
		grade = "0" + grade
	}
	return plan + "-" + grade
}
