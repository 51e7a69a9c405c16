// Package core provides money parsing and handling utilities.
//
// Amounts arrive from the item stores as decimal strings or floats. They are
// rounded half-up to cents once, and all arithmetic afterwards is integer.
package core

import (
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseDecimalToCents converts a decimal string to cents with half-up rounding.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators, and
// Brazilian thousands grouping when a comma is present ("1.234,56").
// Returns ErrInvalidAmount for invalid formats, negative values or zero.
//
// Examples:
//
//	ParseDecimalToCents("12.34")    -> 1234, nil
//	ParseDecimalToCents("1.234,56") -> 123456, nil
//	ParseDecimalToCents("12.345")   -> 1235, nil
func ParseDecimalToCents(s string) (int64, error) {
	d, err := ParseAmount(s)
	if err != nil {
		return 0, err
	}
	if !d.IsPositive() {
		return 0, ErrInvalidAmount
	}
	m, err := MoneyFromDecimal(d)
	if err != nil {
		return 0, err
	}
	if m.Cents <= 0 {
		return 0, ErrInvalidAmount
	}
	return m.Cents, nil
}

// ParseAmount parses a decimal amount, accepting optional "R$" prefix,
// comma decimals and dot thousands separators.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimSpace(strings.TrimPrefix(s, "R$"))
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// maxCents keeps sums of up to max-items contributions over the axis far
// away from int64 overflow.
var maxCents = decimal.NewFromInt(math.MaxInt64 / 1_000_000)

// MoneyFromDecimal rounds d half-up to cents.
func MoneyFromDecimal(d decimal.Decimal) (Money, error) {
	cents := d.Shift(2).Round(0)
	if cents.Abs().GreaterThan(maxCents) {
		return Money{}, ErrInvalidAmount
	}
	return Money{Cents: cents.IntPart()}, nil
}

// MoneyFromFloat converts a float amount. NaN and infinities yield zero
// money, which excludes the item from projection.
func MoneyFromFloat(f float64) Money {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Money{}
	}
	m, err := MoneyFromDecimal(decimal.NewFromFloat(f))
	if err != nil {
		return Money{}
	}
	return m
}

// Decimal returns the amount as an exact decimal in currency units.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// Reais returns the value as a float64 for display purposes.
// Use cents for calculations.
func (m Money) Reais() float64 {
	return float64(m.Cents) / 100.0
}

// String formats the amount as Brazilian currency, e.g. "R$ 1.234,56".
func (m Money) String() string {
	cents := m.Cents
	neg := cents < 0
	if neg {
		cents = -cents
	}
	units := strconv.FormatInt(cents/100, 10)
	var b strings.Builder
	for i, r := range units {
		if i > 0 && (len(units)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	s := "R$ " + b.String() + "," + leftPad2(cents%100)
	if neg {
		return "-" + s
	}
	return s
}

func leftPad2(n int64) string {
	if n < 10 {
		return "0" + strconv.FormatInt(n, 10)
	}
	return strconv.FormatInt(n, 10)
}
