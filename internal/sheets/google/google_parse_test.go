package google

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"faturamento/internal/core"
	"faturamento/internal/sheets"
)

func TestParseValuesConvertsNumericCells(t *testing.T) {
	values := [][]interface{}{
		{"Descrição", "Valor", "Data", "Frequência", "Parcelas"},
		{"Consultoria", 500.5, "2025-02-01", "Mensal por Tempo Determinado", 3.0},
		{"Vazia", nil, "2025-02-01", "Única"},
	}

	records, err := parseValues(values, core.Revenue)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "500.5", records[0].Amount)
	assert.Equal(t, 3, records[0].Installments)
	assert.Equal(t, "", records[1].Amount)
}

func TestItemRowFollowsHeaders(t *testing.T) {
	rec := core.ItemRecord{
		ID: "x", Ledger: core.Revenue, Description: "Aluguel", Amount: "1200.00",
		Date: "2025-01-15", Category: "Aluguel", Frequency: core.LabelMonthlyTerm, Installments: 3,
	}
	row := itemRow(rec)
	require.Len(t, row, len(sheets.Headers))

	headers := make([]interface{}, len(sheets.Headers))
	for i, h := range sheets.Headers {
		headers[i] = h
	}
	back, err := parseValues([][]interface{}{headers, row}, core.Revenue)
	require.NoError(t, err)
	require.Len(t, back, 1)
	assert.Equal(t, rec, back[0])
}
