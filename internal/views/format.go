package views

import (
	"strconv"
	"strings"
	"time"

	"scholarhub/internal/records"
)

// DateLayout is how dates are shown in tables.
const DateLayout = "Jan 2, 2006"

var dateInputs = []string{
	"2006-01-02",
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.999999",
	"2006-01-02 15:04:05",
}

// FormatDate renders a backend date as "Jan 2, 2006". Empty or unparseable
// input yields the placeholder.
func FormatDate(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return records.Placeholder
	}
	for _, layout := range dateInputs {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(DateLayout)
		}
	}
	return records.Placeholder
}

func itoa(n int) string { return strconv.Itoa(n) }

func text(s string) Cell { return Cell{Text: s} }
