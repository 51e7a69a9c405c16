package core

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestItemRecordToItem(t *testing.T) {
	rec := ItemRecord{
		ID:           "a1",
		Ledger:       Revenue,
		Description:  "Aluguel sala 2",
		Amount:       "1200,00",
		Date:         "15/01/2025",
		Category:     " Aluguel ",
		Frequency:    LabelMonthlyTerm,
		Installments: 3,
	}
	item, known := rec.ToItem()
	assert.True(t, known)
	assert.Equal(t, "a1", item.ID)
	assert.Equal(t, Money{Cents: 120000}, item.Amount)
	assert.Equal(t, NewDate(2025, 1, 15), item.AnchorDate)
	assert.Equal(t, "Aluguel", item.Category)
	assert.Equal(t, NewMonthlyTerm(3), item.Recurrence)
	assert.True(t, item.Contributes())
}

func TestItemRecordToItemExcludesBadFields(t *testing.T) {
	item, _ := ItemRecord{Amount: "abc", Date: "2025-01-15", Frequency: LabelOnce}.ToItem()
	assert.True(t, item.Amount.IsZero())
	assert.False(t, item.Contributes())

	item, _ = ItemRecord{Amount: "10", Date: "2025-02-30", Frequency: LabelOnce}.ToItem()
	assert.True(t, item.AnchorDate.IsZero())
	assert.False(t, item.Contributes())

	item, known := ItemRecord{Amount: "10", Date: "2025-02-01", Frequency: "Bimestral"}.ToItem()
	assert.False(t, known)
	assert.Equal(t, NewAnnualFixed(), item.Recurrence)
	assert.True(t, item.Contributes())
}

func TestItemRecordValidate(t *testing.T) {
	good := ItemRecord{
		Ledger:      Expense,
		Description: "Seguro",
		Amount:      "500",
		Date:        "2024-03-01",
		Frequency:   LabelAnnualFixed,
	}
	assert.NoError(t, good.Validate())

	tests := []struct {
		name   string
		mutate func(*ItemRecord)
		want   error
	}{
		{"ledger", func(r *ItemRecord) { r.Ledger = "x" }, ErrInvalidLedger},
		{"description", func(r *ItemRecord) { r.Description = " " }, ErrEmptyDescription},
		{"amount", func(r *ItemRecord) { r.Amount = "-10" }, ErrInvalidAmount},
		{"date", func(r *ItemRecord) { r.Date = "tomorrow" }, ErrInvalidDate},
		{"legacy frequency", func(r *ItemRecord) { r.Frequency = "Bimestral" }, ErrUnknownFrequency},
		{"installments", func(r *ItemRecord) {
			r.Frequency = LabelMonthlyTerm
			r.Installments = 0
		}, ErrInvalidInstallment},
		{"too many installments", func(r *ItemRecord) {
			r.Frequency = LabelAnnualTerm
			r.Installments = math.MaxInt
		}, ErrInvalidInstallment},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := good
			tt.mutate(&r)
			assert.ErrorIs(t, r.Validate(), tt.want)
		})
	}
}

func TestRecordFromItem(t *testing.T) {
	item := FinancialItem{
		ID:         "x",
		Ledger:     Loan,
		Amount:     Money{Cents: 35050},
		AnchorDate: NewDate(2025, 5, 10),
		Category:   "Empréstimo",
		Recurrence: NewMonthlyTerm(12),
	}
	rec := RecordFromItem(item)
	assert.Equal(t, "350.50", rec.Amount)
	assert.Equal(t, "2025-05-10", rec.Date)
	assert.Equal(t, LabelMonthlyTerm, rec.Frequency)
	assert.Equal(t, 12, rec.Installments)

	back, known := rec.ToItem()
	assert.True(t, known)
	assert.Equal(t, item, back)
}
