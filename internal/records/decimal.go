package records

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Decimal is a number the backend may serialize either as a JSON number or
// as a quoted decimal string ("3.60").
type Decimal float64

// UnmarshalJSON accepts 3.6 and "3.6". Anything else is a parse failure.
func (d *Decimal) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("invalid decimal %q: %w", s, err)
		}
		*d = Decimal(f)
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("invalid decimal %s: %w", data, err)
	}
	*d = Decimal(f)
	return nil
}

// Float returns the value as float64.
func (d Decimal) Float() float64 { return float64(d) }

// String trims trailing zeros: 3.50 -> "3.5", 80 -> "80".
func (d Decimal) String() string {
	return strconv.FormatFloat(float64(d), 'f', -1, 64)
}

// Dec is a convenience for building optional decimals.
func Dec(f float64) *Decimal {
	d := Decimal(f)
	return &d
}
