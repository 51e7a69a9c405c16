package sheets

import (
	"fmt"
	"strconv"
	"strings"

	"faturamento/internal/core"
)

type column int

const (
	colID column = iota
	colLedger
	colDescription
	colAmount
	colDate
	colCategory
	colFrequency
	colInstallments
	numColumns
)

// headerAliases lists the accepted header spellings per column.
var headerAliases = [numColumns][]string{
	colID:           {"ID"},
	colLedger:       {"Livro", "Ledger"},
	colDescription:  {"Descrição", "Descricao", "Description"},
	colAmount:       {"Valor", "Amount"},
	colDate:         {"Data", "Date"},
	colCategory:     {"Categoria", "Category"},
	colFrequency:    {"Frequência", "Frequencia", "Frequency"},
	colInstallments: {"Parcelas", "Installments"},
}

// Headers is the canonical column order written by spreadsheet adapters.
var Headers = []string{"ID", "Livro", "Descrição", "Valor", "Data", "Categoria", "Frequência", "Parcelas"}

var requiredColumns = []column{colAmount, colDate, colFrequency}

func headerIndex(headers []string) (idx [numColumns]int, missing []string) {
	for c := range idx {
		idx[c] = indexOfAny(headers, headerAliases[c])
	}
	for _, c := range requiredColumns {
		if idx[c] == -1 {
			missing = append(missing, headerAliases[c][0])
		}
	}
	return idx, missing
}

// IsItemHeader reports whether row names every required item column.
func IsItemHeader(row []string) bool {
	_, missing := headerIndex(row)
	return len(missing) == 0
}

// ParseItemRows maps a header row plus data rows to records of ledger,
// locating columns by header name. Rows of other ledgers and blank rows are
// skipped. Without a ledger column every row is taken to belong to ledger.
// Cells are kept textual; conversion happens in core.ItemRecord.ToItem.
func ParseItemRows(rows [][]string, ledger core.Ledger) ([]core.ItemRecord, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	headers := rows[0]
	idx, missing := headerIndex(headers)
	if len(missing) > 0 {
		return nil, fmt.Errorf("unexpected items header: missing %s; got headers=%v", strings.Join(missing, ","), headers)
	}

	var out []core.ItemRecord
	for i := 1; i < len(rows); i++ {
		row := rows[i]
		get := func(c column) string { return strings.TrimSpace(safeGet(row, idx[c])) }

		if get(colAmount) == "" && get(colDescription) == "" && get(colDate) == "" {
			continue
		}
		rowLedger := ledger
		if idx[colLedger] != -1 {
			rowLedger = core.Ledger(strings.ToLower(get(colLedger)))
			if rowLedger != ledger {
				continue
			}
		}
		id := get(colID)
		if id == "" {
			id = fmt.Sprintf("row:%d", i+1)
		}
		installments, _ := strconv.Atoi(get(colInstallments))

		out = append(out, core.ItemRecord{
			ID:           id,
			Ledger:       rowLedger,
			Description:  get(colDescription),
			Amount:       get(colAmount),
			Date:         get(colDate),
			Category:     get(colCategory),
			Frequency:    get(colFrequency),
			Installments: installments,
		})
	}
	return out, nil
}

func indexOfAny(arr []string, targets []string) int {
	for i, v := range arr {
		for _, t := range targets {
			if strings.EqualFold(strings.TrimSpace(v), t) {
				return i
			}
		}
	}
	return -1
}

func safeGet(arr []string, idx int) string {
	if idx >= 0 && idx < len(arr) {
		return arr[idx]
	}
	return ""
}
