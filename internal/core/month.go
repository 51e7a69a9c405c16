package core

import (
	"fmt"
	"time"
)

// MonthKey identifies a calendar month. The zero value is not a valid month.
type MonthKey struct {
	Year  int
	Month time.Month
}

// MonthOf returns the month containing t.
func MonthOf(t time.Time) MonthKey {
	return MonthKey{Year: t.Year(), Month: t.Month()}
}

// NewMonthKey builds a MonthKey from a year and a 1-12 month number.
func NewMonthKey(year, month int) MonthKey {
	return MonthKey{Year: year, Month: time.Month(month)}
}

// ParseMonthKey parses the "YYYY-MM" form produced by String.
func ParseMonthKey(s string) (MonthKey, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return MonthKey{}, fmt.Errorf("parse month key %q: %w", s, err)
	}
	return MonthOf(t), nil
}

// ordinal counts months since year 0 so that keys map onto consecutive ints.
func (k MonthKey) ordinal() int {
	return k.Year*12 + int(k.Month) - 1
}

func monthFromOrdinal(n int) MonthKey {
	year := n / 12
	month := n % 12
	if month < 0 {
		month += 12
		year--
	}
	return MonthKey{Year: year, Month: time.Month(month + 1)}
}

// AddMonths returns the key n months later (earlier when n < 0).
func (k MonthKey) AddMonths(n int) MonthKey {
	return monthFromOrdinal(k.ordinal() + n)
}

// AddYears returns the same month n years later.
func (k MonthKey) AddYears(n int) MonthKey {
	return MonthKey{Year: k.Year + n, Month: k.Month}
}

// MonthsUntil returns the signed number of months from k to o.
func (k MonthKey) MonthsUntil(o MonthKey) int {
	return o.ordinal() - k.ordinal()
}

// Compare returns -1, 0 or +1.
func (k MonthKey) Compare(o MonthKey) int {
	a, b := k.ordinal(), o.ordinal()
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func (k MonthKey) Before(o MonthKey) bool { return k.ordinal() < o.ordinal() }

func (k MonthKey) After(o MonthKey) bool { return k.ordinal() > o.ordinal() }

// IsZero reports whether k is the zero value.
func (k MonthKey) IsZero() bool {
	return k.Year == 0 && k.Month == 0
}

// Valid reports whether the month component is in 1..12.
func (k MonthKey) Valid() bool {
	return k.Month >= time.January && k.Month <= time.December
}

// Start returns midnight UTC of the first day of the month.
func (k MonthKey) Start() time.Time {
	return time.Date(k.Year, k.Month, 1, 0, 0, 0, 0, time.UTC)
}

// String renders the key as "YYYY-MM".
func (k MonthKey) String() string {
	return fmt.Sprintf("%04d-%02d", k.Year, int(k.Month))
}

// MarshalText lets MonthKey be used as a JSON object key.
func (k MonthKey) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *MonthKey) UnmarshalText(b []byte) error {
	parsed, err := ParseMonthKey(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// MinMonth returns the earlier of a and b.
func MinMonth(a, b MonthKey) MonthKey {
	if b.Before(a) {
		return b
	}
	return a
}

// MaxMonth returns the later of a and b.
func MaxMonth(a, b MonthKey) MonthKey {
	if b.After(a) {
		return b
	}
	return a
}
