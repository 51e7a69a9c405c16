package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"faturamento/internal/core"
	"faturamento/internal/sheets/memory"
)

type fakeNotifier struct {
	calls []string
	err   error
}

func (f *fakeNotifier) PublishItemsChanged(_ context.Context, ledger core.Ledger, id string) error {
	f.calls = append(f.calls, string(ledger)+":"+id)
	return f.err
}

func TestItemService_CreateItem(t *testing.T) {
	store := memory.New()
	notifier := &fakeNotifier{}
	svc := NewItemService(store, notifier)

	var changed []core.Ledger
	svc.OnChange(func(_ context.Context, l core.Ledger) { changed = append(changed, l) })

	rec, err := svc.CreateItem(context.Background(), core.ItemRecord{
		Ledger:       core.Revenue,
		Description:  "  Aluguel sala  ",
		Amount:       "R$ 1.200,00",
		Date:         "15/01/2025",
		Category:     " Aluguel ",
		Frequency:    "mensal POR tempo determinado",
		Installments: 3,
	})
	require.NoError(t, err)

	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, "Aluguel sala", rec.Description)
	assert.Equal(t, "1200.00", rec.Amount)
	assert.Equal(t, "2025-01-15", rec.Date)
	assert.Equal(t, "Aluguel", rec.Category)
	assert.Equal(t, core.LabelMonthlyTerm, rec.Frequency)
	assert.Equal(t, 3, rec.Installments)

	assert.Equal(t, []string{"revenue:" + rec.ID}, notifier.calls)
	assert.Equal(t, []core.Ledger{core.Revenue}, changed)

	stored, err := svc.ListItems(context.Background(), core.Revenue)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, rec, stored[0])
}

func TestItemService_CreateItemValidation(t *testing.T) {
	notifier := &fakeNotifier{}
	svc := NewItemService(memory.New(), notifier)

	tests := []struct {
		name string
		rec  core.ItemRecord
		want error
	}{
		{"bad ledger", core.ItemRecord{Ledger: "x", Description: "a", Amount: "1", Date: "2025-01-01", Frequency: core.LabelOnce}, core.ErrInvalidLedger},
		{"blank description", core.ItemRecord{Ledger: core.Revenue, Description: "   ", Amount: "1", Date: "2025-01-01", Frequency: core.LabelOnce}, core.ErrEmptyDescription},
		{"zero amount", core.ItemRecord{Ledger: core.Revenue, Description: "a", Amount: "0", Date: "2025-01-01", Frequency: core.LabelOnce}, core.ErrInvalidAmount},
		{"legacy label", core.ItemRecord{Ledger: core.Revenue, Description: "a", Amount: "1", Date: "2025-01-01", Frequency: "Trimestral"}, core.ErrUnknownFrequency},
		{"term without installments", core.ItemRecord{Ledger: core.Loan, Description: "a", Amount: "1", Date: "2025-01-01", Frequency: core.LabelAnnualTerm}, core.ErrInvalidInstallment},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateItem(context.Background(), tt.rec)
			require.Error(t, err)
			assert.True(t, IsValidation(err))
			assert.ErrorIs(t, err, tt.want)
		})
	}
	assert.Empty(t, notifier.calls)

	_, err := svc.ListItems(context.Background(), "savings")
	assert.True(t, IsValidation(err))
}

func TestItemService_NotifierFailureDoesNotFailWrite(t *testing.T) {
	svc := NewItemService(memory.New(), &fakeNotifier{err: errors.New("broker down")})
	_, err := svc.CreateItem(context.Background(), core.ItemRecord{
		Ledger: core.Expense, Description: "Energia", Amount: "90", Date: "2025-01-10", Frequency: core.LabelMonthlyFixed,
	})
	assert.NoError(t, err)

	withoutNotifier := NewItemService(memory.New(), nil)
	_, err = withoutNotifier.CreateItem(context.Background(), core.ItemRecord{
		Ledger: core.Expense, Description: "Energia", Amount: "90", Date: "2025-01-10", Frequency: core.LabelMonthlyFixed,
	})
	assert.NoError(t, err)
}
