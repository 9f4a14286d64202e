// Package core provides money parsing and handling utilities.
//
// Amounts are held as integer cents. Conversions to and from decimal text go
// through shopspring/decimal so that JSON payloads keep their numeric shape
// (200.5) without float rounding drift.
package core

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// ParseDecimalToCents converts a decimal string to cents with proper rounding.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and performs
// half-up rounding on the third decimal place. The result is always positive cents.
// Returns an error for invalid formats, negative values, or zero amounts.
//
// Examples:
//
//	ParseDecimalToCents("12.34") -> 1234, nil
//	ParseDecimalToCents("12,34") -> 1234, nil
//	ParseDecimalToCents("12.345") -> 1235, nil
func ParseDecimalToCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return 0, ErrInvalidAmount
	}
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return 0, ErrInvalidAmount
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" {
		intPart = "0"
	}
	for _, r := range intPart + fracPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	// Prevent overflow when multiplying by 100
	const maxSafeInt64 = (1<<63 - 1) / 100
	if iv > maxSafeInt64 {
		return 0, ErrInvalidAmount
	}
	var fracCents int64
	if len(fracPart) > 0 {
		fracCents = int64(fracPart[0]-'0') * 10
		if len(fracPart) > 1 {
			fracCents += int64(fracPart[1] - '0')
			if len(fracPart) > 2 && fracPart[2] >= '5' {
				fracCents++
			}
		}
	}
	cents := iv*100 + fracCents
	if cents <= 0 {
		return 0, ErrInvalidAmount
	}
	return cents, nil
}

var (
	maxCents = decimal.NewFromInt(math.MaxInt64)
	minCents = decimal.NewFromInt(math.MinInt64)
)

// NewMoney rounds d to whole cents, half away from zero.
// Out-of-range values saturate; use MoneyFromDecimal to reject them.
func NewMoney(d decimal.Decimal) Money {
	m, err := MoneyFromDecimal(d)
	if err == nil {
		return m
	}
	if d.IsNegative() {
		return Money{Cents: math.MinInt64}
	}
	return Money{Cents: math.MaxInt64}
}

// MoneyFromDecimal rounds d to whole cents and fails with ErrInvalidAmount
// when the result does not fit in int64.
func MoneyFromDecimal(d decimal.Decimal) (Money, error) {
	c := d.Shift(2).Round(0)
	if c.GreaterThan(maxCents) || c.LessThan(minCents) {
		return Money{}, ErrInvalidAmount
	}
	return Money{Cents: c.IntPart()}, nil
}

// MoneyFromFloat converts a currency amount expressed as a float.
func MoneyFromFloat(f float64) Money {
	return NewMoney(decimal.NewFromFloat(f))
}

// Units builds an amount from whole currency units.
func Units(n int64) Money {
	return Money{Cents: n * 100}
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Decimal returns the amount in currency units.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// Float64 returns the amount in currency units for display purposes.
// Use cents for calculations.
func (m Money) Float64() float64 {
	return float64(m.Cents) / 100.0
}

func (m Money) Add(o Money) Money { return Money{Cents: m.Cents + o.Cents} }

func (m Money) Sub(o Money) Money { return Money{Cents: m.Cents - o.Cents} }

func (m Money) IsZero() bool { return m.Cents == 0 }

func (m Money) IsPositive() bool { return m.Cents > 0 }

func (m Money) IsNegative() bool { return m.Cents < 0 }

// FloorZero clamps negative amounts to zero.
func (m Money) FloorZero() Money {
	if m.Cents < 0 {
		return Money{}
	}
	return m
}

// Percent returns rate percent of m.
func (m Money) Percent(rate float64) Money {
	return NewMoney(m.Decimal().Mul(decimal.NewFromFloat(rate)).Div(decimal.NewFromInt(100)))
}

// DivInt splits m into n equal parts. A non-positive n yields zero.
func (m Money) DivInt(n int) Money {
	if n <= 0 {
		return Money{}
	}
	return NewMoney(m.Decimal().Div(decimal.NewFromInt(int64(n))))
}

// String formats the amount with two decimals, e.g. "200.50".
func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.Decimal().String()), nil
}

func (m *Money) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*m = Money{}
		return nil
	}
	text := strings.Trim(string(b), `"`)
	// Form input may use a decimal comma.
	if len(b) > 0 && b[0] == '"' && strings.Contains(text, ",") {
		cents, err := ParseDecimalToCents(text)
		if err != nil {
			return fmt.Errorf("%w: %s", ErrInvalidAmount, b)
		}
		*m = Money{Cents: cents}
		return nil
	}
	d, err := decimal.NewFromString(text)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidAmount, b)
	}
	v, err := MoneyFromDecimal(d)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidAmount, b)
	}
	*m = v
	return nil
}
