package core

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestParseDecimalToCents(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"1.23", 123, true},
		{"1,23", 123, true},
		{"0.01", 1, true},
		{"1.005", 101, true}, // half-up rounding
		{" 2.50 ", 250, true},
		{"1.234,56", 123456, true},
		{"R$ 1200,00", 120000, true},
		{"-1", 0, false},
		{"0", 0, false},
		{"0.001", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseDecimalToCents(tc.in)
		if tc.ok {
			if assert.NoError(t, err, tc.in) {
				assert.Equal(t, tc.out, got, tc.in)
			}
		} else {
			assert.Error(t, err, tc.in)
		}
	}
}

func TestMoneyFromFloat(t *testing.T) {
	assert.Equal(t, Money{Cents: 120000}, MoneyFromFloat(1200))
	assert.Equal(t, Money{Cents: 1999}, MoneyFromFloat(19.99))
	assert.Equal(t, Money{Cents: -1000}, MoneyFromFloat(-10))
	assert.Equal(t, Money{}, MoneyFromFloat(math.NaN()))
	assert.Equal(t, Money{}, MoneyFromFloat(math.Inf(1)))
}

func TestMoneyFromDecimalRejectsHugeValues(t *testing.T) {
	_, err := MoneyFromDecimal(decimal.RequireFromString("1e30"))
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestMoneyString(t *testing.T) {
	cases := map[int64]string{
		0:         "R$ 0,00",
		5:         "R$ 0,05",
		123456:    "R$ 1.234,56",
		100000000: "R$ 1.000.000,00",
		-250:      "-R$ 2,50",
	}
	for cents, want := range cases {
		assert.Equal(t, want, Money{Cents: cents}.String())
	}
}

func TestMoneyDecimal(t *testing.T) {
	assert.Equal(t, "1234.56", Money{Cents: 123456}.Decimal().StringFixed(2))
}
