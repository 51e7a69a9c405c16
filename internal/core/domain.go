package core

import (
	"errors"
	"strings"
	"time"
)

// UncategorizedLabel is the bucket used for items without a category.
const UncategorizedLabel = "Uncategorized"

const (
	Revenue Ledger = "revenue"
	Expense Ledger = "expense"
	Loan    Ledger = "loan"
)

type (
	// Ledger names the book an item belongs to. The billing view projects one
	// ledger at a time.
	Ledger string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// FinancialItem is a line item already parsed at the data-access boundary.
	// A zero AnchorDate or a non-positive Amount marks the item as excluded
	// from projection.
	FinancialItem struct {
		ID          string
		Ledger      Ledger
		Description string
		Amount      Money
		AnchorDate  Date
		Category    string
		Recurrence  Recurrence
	}
)

var (
	ErrInvalidDay         = errors.New("invalid day")
	ErrInvalidMonth       = errors.New("invalid month")
	ErrInvalidDate        = errors.New("invalid date")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInvalidLedger      = errors.New("invalid ledger")
	ErrInvalidInstallment = errors.New("invalid installment count")
	ErrEmptyDescription   = errors.New("empty description")
	ErrUnknownFrequency   = errors.New("unknown frequency")
)

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	_, month, day := d.Date()
	if day < 1 || day > 31 {
		return ErrInvalidDay
	}
	if month < 1 || month > 12 {
		return ErrInvalidMonth
	}
	return nil
}

// Day returns the day of the month
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year
func (d Date) Year() int {
	return d.Time.Year()
}

// MonthKey returns the calendar month the date falls in.
func (d Date) MonthKey() MonthKey {
	return MonthOf(d.Time)
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Add returns m + o.
func (m Money) Add(o Money) Money {
	return Money{Cents: m.Cents + o.Cents}
}

// IsZero reports whether the amount is exactly zero.
func (m Money) IsZero() bool {
	return m.Cents == 0
}

// IsValid reports whether the ledger is one of the known books.
func (l Ledger) IsValid() bool {
	switch l {
	case Revenue, Expense, Loan:
		return true
	default:
		return false
	}
}

func (l Ledger) String() string {
	return string(l)
}

// NormalizeCategory maps empty or blank categories to UncategorizedLabel.
func NormalizeCategory(category string) string {
	c := strings.TrimSpace(category)
	if c == "" {
		return UncategorizedLabel
	}
	return c
}

// Contributes reports whether the item can produce any projected amount.
func (i FinancialItem) Contributes() bool {
	return i.Amount.Cents > 0 && !i.AnchorDate.IsZero() && i.Recurrence.valid()
}

// GroupKey returns the normalized category the item aggregates under.
func (i FinancialItem) GroupKey() string {
	return NormalizeCategory(i.Category)
}
