package core

import (
	"errors"
	"strings"
	"time"
)

// ItemRecord is a financial item as the stores hold it: loosely typed fields
// with a free-form frequency label. It is converted to a FinancialItem once,
// at the data-access boundary.
type ItemRecord struct {
	ID           string `json:"id"`
	Ledger       Ledger `json:"ledger"`
	Description  string `json:"description"`
	Amount       string `json:"amount"`
	Date         string `json:"date"`
	Category     string `json:"category"`
	Frequency    string `json:"frequency"`
	Installments int    `json:"installments"`
}

var dateLayouts = []string{"2006-01-02", "02/01/2006", time.RFC3339}

// ParseDate accepts ISO dates, Brazilian DD/MM/YYYY dates and RFC 3339 timestamps.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return NewDate(t.Year(), int(t.Month()), t.Day()), nil
		}
	}
	return Date{}, ErrInvalidDate
}

// ToItem converts the record. It never fails: an unparsable amount or date
// leaves the corresponding field zero so projection excludes the item. The
// second result reports whether the frequency label was recognised.
func (r ItemRecord) ToItem() (FinancialItem, bool) {
	item := FinancialItem{
		ID:          r.ID,
		Ledger:      r.Ledger,
		Description: r.Description,
		Category:    strings.TrimSpace(r.Category),
	}
	if d, err := ParseAmount(r.Amount); err == nil {
		if m, err := MoneyFromDecimal(d); err == nil {
			item.Amount = m
		}
	}
	if d, err := ParseDate(r.Date); err == nil {
		item.AnchorDate = d
	}
	rec, known := ParseRecurrence(r.Frequency, r.Installments)
	item.Recurrence = rec
	return item, known
}

// Validate is applied on the write path. Reads never validate; bad rows
// already stored are excluded by projection instead, and legacy labels are
// only accepted on read.
func (r ItemRecord) Validate() error {
	if !r.Ledger.IsValid() {
		return ErrInvalidLedger
	}
	if len(strings.TrimSpace(r.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(r.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	if _, err := ParseDecimalToCents(r.Amount); err != nil {
		return err
	}
	d, err := ParseDate(r.Date)
	if err != nil {
		return err
	}
	if err := d.Validate(); err != nil {
		return err
	}
	rec, known := ParseRecurrence(r.Frequency, r.Installments)
	if !known {
		return ErrUnknownFrequency
	}
	if rec.IsTerm() && (rec.Count <= 0 || rec.Count > MaxInstallments) {
		return ErrInvalidInstallment
	}
	return nil
}

// RecordFromItem renders an item back into its stored form.
func RecordFromItem(i FinancialItem) ItemRecord {
	rec := ItemRecord{
		ID:          i.ID,
		Ledger:      i.Ledger,
		Description: i.Description,
		Amount:      i.Amount.Decimal().StringFixed(2),
		Category:    i.Category,
		Frequency:   i.Recurrence.Label(),
	}
	if !i.AnchorDate.IsZero() {
		rec.Date = i.AnchorDate.Format("2006-01-02")
	}
	if i.Recurrence.IsTerm() {
		rec.Installments = i.Recurrence.Count
	}
	return rec
}
