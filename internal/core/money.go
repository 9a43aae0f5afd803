// Package core provides the budget domain model and money handling.
//
// This file contains the Amount type used for every monetary quantity in a
// budget document, the parser used for user input, and the tolerant sum used
// by the calculation engine.
package core

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// Amount is a decimal quantity that remembers whether it was parsed
// successfully. An invalid Amount behaves as zero in every computation, which
// lets documents restored from storage carry missing or garbage amounts
// without breaking aggregation.
type Amount struct {
	value decimal.Decimal
	valid bool
}

// NewAmount wraps a decimal as a valid Amount.
func NewAmount(d decimal.Decimal) Amount {
	return Amount{value: d, valid: true}
}

// AmountFromInt returns a valid Amount for a whole number of euros.
func AmountFromInt(v int64) Amount {
	return NewAmount(decimal.NewFromInt(v))
}

// AmountFromFloat returns a valid Amount for a float value.
// Prefer ParseAmount for user input.
func AmountFromFloat(v float64) Amount {
	return NewAmount(decimal.NewFromFloat(v))
}

// ParseAmount parses a user-supplied amount.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and
// surrounding whitespace. Negative values and anything that is not a plain
// decimal number return ErrInvalidAmount.
//
// Examples:
//
//	ParseAmount("12.34")  -> 12.34, nil
//	ParseAmount("12,34")  -> 12.34, nil
//	ParseAmount("-1")     -> ErrInvalidAmount
//	ParseAmount("1e3")    -> ErrInvalidAmount
func ParseAmount(s string) (Amount, error) {
	s = normalizeDecimal(s)
	if s == "" {
		return Amount{}, ErrInvalidAmount
	}
	for _, r := range s {
		if r == '.' {
			continue
		}
		if r < '0' || r > '9' {
			return Amount{}, ErrInvalidAmount
		}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, ErrInvalidAmount
	}
	if d.IsNegative() {
		return Amount{}, ErrInvalidAmount
	}
	return NewAmount(d), nil
}

// normalizeDecimal trims whitespace and turns a decimal comma into a dot.
func normalizeDecimal(s string) string {
	s = strings.TrimSpace(s)
	return strings.ReplaceAll(s, ",", ".")
}

// Valid reports whether the amount was parsed from a usable number.
func (a Amount) Valid() bool {
	return a.valid
}

// Decimal returns the numeric value, or zero for an invalid amount.
func (a Amount) Decimal() decimal.Decimal {
	if !a.valid {
		return decimal.Zero
	}
	return a.value
}

// IsNegative reports whether a valid amount is below zero.
func (a Amount) IsNegative() bool {
	return a.valid && a.value.IsNegative()
}

// Equal compares two amounts by value; invalid amounts only equal each other.
func (a Amount) Equal(o Amount) bool {
	if a.valid != o.valid {
		return false
	}
	return !a.valid || a.value.Equal(o.value)
}

// String formats the amount with exactly two decimals.
func (a Amount) String() string {
	return a.Decimal().StringFixed(2)
}

// MarshalJSON writes the amount as a bare JSON number, or null when invalid.
func (a Amount) MarshalJSON() ([]byte, error) {
	if !a.valid {
		return []byte("null"), nil
	}
	return []byte(a.value.String()), nil
}

// UnmarshalJSON never fails: numbers and numeric strings become valid
// amounts, anything else (null, objects, garbage text) becomes invalid.
func (a *Amount) UnmarshalJSON(data []byte) error {
	*a = Amount{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	var raw string
	if data[0] == '"' {
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil
		}
		raw = normalizeDecimal(raw)
	} else {
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return nil
		}
		raw = n.String()
	}

	d, err := decimal.NewFromString(raw)
	if err != nil {
		return nil
	}
	*a = NewAmount(d)
	return nil
}

// Amounted is implemented by anything carrying an amount.
type Amounted interface {
	AmountValue() Amount
}

// Sum adds the amounts of entries, counting invalid amounts as zero.
// It never fails and does not enforce a sign.
func Sum[T Amounted](entries []T) decimal.Decimal {
	total := decimal.Zero
	for _, e := range entries {
		total = total.Add(e.AmountValue().Decimal())
	}
	return total
}
