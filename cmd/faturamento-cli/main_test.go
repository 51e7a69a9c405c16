package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"faturamento/internal/core"
	"faturamento/internal/projection"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCommand(&out)
	root.SetArgs(append(args, "--log-format", "text"))
	root.SetErr(&bytes.Buffer{})
	err := root.Execute()
	return out.String(), err
}

func TestCommandsAgainstSQLite(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("AMQP_URL", "")
	db := filepath.Join(t.TempDir(), "nested", "faturamento.db")

	out, err := execute(t, "migrate", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "at version 1")

	out, err = execute(t, "items", "add", "--db", db,
		"--description", "Consultoria",
		"--amount", "1.500,00",
		"--date", "2025-01-10",
		"--category", "Serviços",
		"--frequency", "Mensal por Tempo Determinado",
		"--installments", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "Consultoria 1500.00")

	out, err = execute(t, "items", "list", "--db", db, "--ledger", "revenue")
	require.NoError(t, err)
	assert.Contains(t, out, "Serviços")
	assert.Contains(t, out, "1 items")

	out, err = execute(t, "project", "--db", db, "--now", "2025-01-15", "--layout", "narrow")
	require.NoError(t, err)
	assert.Contains(t, out, "jan/2025")
	assert.Contains(t, out, "mar/2025")
	assert.Contains(t, out, "R$ 4.500,00")
	assert.Contains(t, out, "page 1/1")

	out, err = execute(t, "project", "--db", db, "--ledger", "loan", "--now", "2025-01-15")
	require.NoError(t, err)
	assert.Contains(t, out, "no items to project")
}

func TestItemsAddRejectsInvalid(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("AMQP_URL", "")
	db := filepath.Join(t.TempDir(), "faturamento.db")

	_, err := execute(t, "items", "add", "--db", db,
		"--description", "Bad", "--amount", "abc", "--date", "2025-01-10")
	assert.Error(t, err)

	_, err = execute(t, "project", "--db", db, "--ledger", "savings")
	assert.Error(t, err)
}

func TestRenderGrid(t *testing.T) {
	grid := projection.Grid{
		Status: projection.StatusDone,
		Columns: []projection.Column{
			{Key: "2025-01", Label: "jan/2025"},
			{Key: "2025-02", Label: "fev/2025"},
		},
		Rows: []projection.Row{{
			Category: "Aluguel",
			Cells: []projection.Cell{
				{Cents: 100000, Display: "R$ 1.000,00"},
				{},
			},
		}},
		Footer:     []projection.Cell{{Cents: 100000, Display: "R$ 1.000,00"}, {}},
		GrandTotal: projection.Cell{Cents: 100000, Display: "R$ 1.000,00"},
		PageCount:  2,
		Truncated:  3,
	}

	var out bytes.Buffer
	require.NoError(t, renderGrid(&out, core.Revenue, grid))
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], "jan/2025")
	assert.Contains(t, lines[1], "Aluguel")
	assert.Contains(t, lines[1], "-")
	assert.Contains(t, lines[2], "TOTAL")
	assert.Equal(t, "page 1/2  grand total R$ 1.000,00  (3 items over the limit ignored)", lines[3])
}

func TestRenderGridStates(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, renderGrid(&out, core.Loan, projection.Grid{Status: projection.StatusComputing, Processed: 50, Total: 200}))
	assert.Equal(t, "loan: projection still computing (50/200 items)\n", out.String())

	out.Reset()
	require.NoError(t, renderGrid(&out, core.Loan, projection.Grid{Status: projection.StatusDone, Empty: true}))
	assert.Equal(t, "loan: no items to project\n", out.String())
}
