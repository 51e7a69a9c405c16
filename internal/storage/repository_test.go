package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"faturamento/internal/core"
)

func newTestRepository(t *testing.T) (*SQLiteRepository, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data", "items.db")
	repo, err := NewSQLiteRepository(path)
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo, path
}

func TestSQLiteRepositoryAppendAndList(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()

	rent := core.ItemRecord{
		Ledger:       core.Revenue,
		Description:  "Aluguel sala 2",
		Amount:       "1200.00",
		Date:         "2025-01-15",
		Category:     "Aluguel",
		Frequency:    core.LabelMonthlyTerm,
		Installments: 3,
	}
	id, err := repo.AppendItem(ctx, rent)
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	_, err = repo.AppendItem(ctx, core.ItemRecord{
		ID:          "fixed-id",
		Ledger:      core.Revenue,
		Description: "Consultoria",
		Amount:      "500.00",
		Date:        "2025-02-01",
		Frequency:   core.LabelMonthlyFixed,
	})
	require.NoError(t, err)

	_, err = repo.AppendItem(ctx, core.ItemRecord{
		Ledger:      core.Expense,
		Description: "Energia",
		Amount:      "90.00",
		Date:        "2025-02-01",
		Frequency:   core.LabelMonthlyFixed,
	})
	require.NoError(t, err)

	records, err := repo.ListItems(ctx, core.Revenue)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, id, records[0].ID)
	assert.Equal(t, "Aluguel", records[0].Category)
	assert.Equal(t, 3, records[0].Installments)
	assert.Equal(t, "fixed-id", records[1].ID)

	item, known := records[0].ToItem()
	assert.True(t, known)
	assert.Equal(t, core.NewMonthlyTerm(3), item.Recurrence)
	assert.Equal(t, int64(120000), item.Amount.Cents)

	n, err := repo.CountItems(ctx, core.Expense)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestSQLiteRepositoryDelete(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()

	id, err := repo.AppendItem(ctx, core.ItemRecord{
		Ledger: core.Loan, Description: "Empréstimo", Amount: "300.00", Date: "2025-03-01",
		Frequency: core.LabelMonthlyTerm, Installments: 12,
	})
	require.NoError(t, err)

	require.NoError(t, repo.DeleteItem(ctx, id))
	assert.ErrorIs(t, repo.DeleteItem(ctx, id), ErrNotFound)

	records, err := repo.ListItems(ctx, core.Loan)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestSQLiteRepositoryRejectsUnknownLedger(t *testing.T) {
	repo, _ := newTestRepository(t)
	_, err := repo.AppendItem(context.Background(), core.ItemRecord{Ledger: "savings", Description: "x", Amount: "1", Date: "2025-01-01"})
	assert.Error(t, err)
}

func TestMigrationsAreIdempotent(t *testing.T) {
	repo, path := newTestRepository(t)
	require.NoError(t, repo.Ping(context.Background()))

	require.NoError(t, RunMigrations(path))
	version, dirty, err := MigrationVersion(path)
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
	assert.False(t, dirty)
}
