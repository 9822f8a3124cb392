package records

import (
	"strconv"
	"strings"
)

// Placeholder is rendered wherever a value is missing.
const Placeholder = "-"

// GPA thresholds for the performance label.
const (
	ExcellentGPA = 3.5
	AverageGPA   = 2.0
)

// PerformanceLabel buckets a GPA into Excellent / Average / Poor.
func PerformanceLabel(gpa *Decimal) string {
	if gpa == nil {
		return Placeholder
	}
	switch g := gpa.Float(); {
	case g >= ExcellentGPA:
		return "Excellent"
	case g >= AverageGPA:
		return "Average"
	default:
		return "Poor"
	}
}

// FormatGPA renders a GPA with two decimals, or the placeholder.
func FormatGPA(gpa *Decimal) string {
	if gpa == nil {
		return Placeholder
	}
	return strconv.FormatFloat(gpa.Float(), 'f', 2, 64)
}

// GradeDisplay prefers the GPA and falls back to the letter grade.
func (s Student) GradeDisplay() string {
	if s.GPA != nil {
		return FormatGPA(s.GPA)
	}
	if s.Grade != "" {
		return s.Grade
	}
	return Placeholder
}

// Performance returns the GPA bucket of the student.
func (s Student) Performance() string {
	return PerformanceLabel(s.GPA)
}

// BadgeVariant maps an enrollment status to the badge style shown next to it.
// An empty status has no badge.
func BadgeVariant(status string) string {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "":
		return ""
	case "active":
		return "default"
	case "inactive":
		return "secondary"
	case "suspended":
		return "destructive"
	default:
		return "outline"
	}
}

// OrPlaceholder returns s, or the placeholder when s is blank.
func OrPlaceholder(s string) string {
	if strings.TrimSpace(s) == "" {
		return Placeholder
	}
	return s
}

// OrNA is OrPlaceholder with the "N/A" wording used for remarks.
func OrNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}
