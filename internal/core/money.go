// Package core provides the finance domain model shared by every store.
//
// This file contains the Money value type. Amounts are arbitrary precision
// decimals and travel over the wire as plain JSON numbers.
package core

import (
	"bytes"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// Money is a decimal amount in the owning record's currency.
type Money struct {
	d decimal.Decimal
}

// Zero returns a zero amount.
func Zero() Money {
	return Money{}
}

// NewMoney returns an amount of whole currency units.
func NewMoney(units int64) Money {
	return Money{d: decimal.NewFromInt(units)}
}

// MoneyFromDecimal wraps an existing decimal.
func MoneyFromDecimal(d decimal.Decimal) Money {
	return Money{d: d}
}

// ParseMoney parses a user supplied amount.
//
// Both dot (12.34) and comma (12,34) decimal separators are accepted. When both
// appear, the last one is the decimal separator and the other one groups
// thousands, so "1.234,56" and "1,234.56" parse to the same value.
// Signs are rejected; positivity is checked by Validate.
//
// Examples:
//
//	ParseMoney("12.34")    -> 12.34, nil
//	ParseMoney("12,34")    -> 12.34, nil
//	ParseMoney("1.234,56") -> 1234.56, nil
//	ParseMoney("-3")       -> 0, ErrInvalidAmount
func ParseMoney(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, ErrInvalidAmount
	}
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return Money{}, ErrInvalidAmount
	}

	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")
	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastComma > lastDot {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastComma >= 0:
		if strings.Count(s, ",") > 1 {
			return Money{}, ErrInvalidAmount
		}
		s = strings.Replace(s, ",", ".", 1)
	}

	if strings.Count(s, ".") > 1 {
		return Money{}, ErrInvalidAmount
	}
	for _, r := range s {
		if r != '.' && !unicode.IsDigit(r) {
			return Money{}, ErrInvalidAmount
		}
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	return Money{d: d}, nil
}

// MustParseMoney is ParseMoney for literals known to be valid.
func MustParseMoney(s string) Money {
	m, err := ParseMoney(s)
	if err != nil {
		panic("core: invalid money literal " + s)
	}
	return m
}

func (m Money) Decimal() decimal.Decimal { return m.d }

func (m Money) Add(o Money) Money { return Money{d: m.d.Add(o.d)} }

func (m Money) Sub(o Money) Money { return Money{d: m.d.Sub(o.d)} }

func (m Money) Neg() Money { return Money{d: m.d.Neg()} }

func (m Money) Cmp(o Money) int { return m.d.Cmp(o.d) }

func (m Money) Equal(o Money) bool { return m.d.Equal(o.d) }

func (m Money) GreaterThan(o Money) bool { return m.d.GreaterThan(o.d) }

func (m Money) LessThan(o Money) bool { return m.d.LessThan(o.d) }

func (m Money) IsZero() bool { return m.d.IsZero() }

func (m Money) IsPositive() bool { return m.d.IsPositive() }

func (m Money) IsNegative() bool { return m.d.IsNegative() }

// Max returns the larger of m and o.
func (m Money) Max(o Money) Money {
	if o.GreaterThan(m) {
		return o
	}
	return m
}

// Min returns the smaller of m and o.
func (m Money) Min(o Money) Money {
	if o.LessThan(m) {
		return o
	}
	return m
}

// Ratio returns m/o as a float for progress display. A zero divisor yields 0.
func (m Money) Ratio(o Money) float64 {
	if o.IsZero() {
		return 0
	}
	return m.d.Div(o.d).InexactFloat64()
}

func (m Money) String() string { return m.d.String() }

// Validate reports whether the amount can be used as a debt, payment or
// transaction amount.
func (m Money) Validate() error {
	if !m.IsPositive() {
		return ErrInvalidAmount
	}
	return nil
}

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.d.String()), nil
}

func (m *Money) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*m = Money{}
		return nil
	}
	var d decimal.Decimal
	if err := d.UnmarshalJSON(b); err != nil {
		return err
	}
	m.d = d
	return nil
}

func (m Money) MarshalYAML() (any, error) {
	return m.d.String(), nil
}

// SumOf adds up the amount selected from every item.
func SumOf[T any](items []T, amount func(T) Money) Money {
	total := Zero()
	for _, it := range items {
		total = total.Add(amount(it))
	}
	return total
}
