package rollup

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// The legacy dashboard renders every report as one flat table whose
// cells are either a number, a "12.34%" string, or blank. Amount and
// Percent keep that wire contract: an invalid value serializes as ""
// rather than null, matching what the rendering layer expects for
// header rows and undefined indicators.

// Amount is a currency or count cell rounded to 2 decimals.
type Amount struct {
	Value float64
	Valid bool
}

// AmountOf returns a defined amount.
func AmountOf(v float64) Amount {
	return Amount{Value: round2(v), Valid: true}
}

// MarshalJSON renders the rounded number, or "" when undefined.
func (a Amount) MarshalJSON() ([]byte, error) {
	if !a.Valid {
		return []byte(`""`), nil
	}
	return []byte(strconv.FormatFloat(round2(a.Value), 'f', 2, 64)), nil
}

// UnmarshalJSON accepts a number or the blank sentinel.
func (a *Amount) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == `""` || s == "null" {
		*a = Amount{}
		return nil
	}
	v, err := strconv.ParseFloat(strings.Trim(s, `"`), 64)
	if err != nil {
		return fmt.Errorf("rollup: parse amount %s: %w", s, err)
	}
	*a = Amount{Value: v, Valid: true}
	return nil
}

// Percent is a percentage cell formatted as "12.34%".
type Percent struct {
	Value float64
	Valid bool
}

// PercentOf returns a defined percentage.
func PercentOf(v float64) Percent {
	return Percent{Value: round2(v), Valid: true}
}

// String renders the wire format, blank when undefined.
func (p Percent) String() string {
	if !p.Valid {
		return ""
	}
	return strconv.FormatFloat(round2(p.Value), 'f', 2, 64) + "%"
}

// MarshalJSON renders the formatted percentage string, or "".
func (p Percent) MarshalJSON() ([]byte, error) {
	return []byte(`"` + p.String() + `"`), nil
}

// UnmarshalJSON accepts "12.34%", a bare number, or the blank sentinel.
func (p *Percent) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*p = Percent{}
		return nil
	}
	v, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
	if err != nil {
		return fmt.Errorf("rollup: parse percent %q: %w", s, err)
	}
	*p = Percent{Value: v, Valid: true}
	return nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
