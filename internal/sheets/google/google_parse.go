package google

import (
	"fmt"
	"strconv"
	"strings"

	"faturamento/internal/core"
	"faturamento/internal/sheets"
)

// parseValues converts the loosely typed cells the Sheets API returns and
// hands them to the shared row parser.
func parseValues(values [][]interface{}, ledger core.Ledger) ([]core.ItemRecord, error) {
	rows := make([][]string, len(values))
	for i, v := range values {
		rows[i] = toStrings(v)
	}
	return sheets.ParseItemRows(rows, ledger)
}

// itemRow lays rec out in sheets.Headers order.
func itemRow(rec core.ItemRecord) []any {
	var installments any = ""
	if rec.Installments > 0 {
		installments = rec.Installments
	}
	return []any{
		rec.ID,
		string(rec.Ledger),
		rec.Description,
		rec.Amount,
		rec.Date,
		rec.Category,
		rec.Frequency,
		installments,
	}
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		switch x := v.(type) {
		case float64:
			out[i] = strconv.FormatFloat(x, 'f', -1, 64)
		case nil:
			out[i] = ""
		default:
			out[i] = strings.TrimSpace(fmt.Sprint(v))
		}
	}
	return out
}
