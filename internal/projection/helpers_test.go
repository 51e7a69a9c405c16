package projection

import (
	"faturamento/internal/core"
)

func mk(y, m int) core.MonthKey { return core.NewMonthKey(y, m) }

func item(category string, cents int64, y, m, d int, r core.Recurrence) core.FinancialItem {
	return core.FinancialItem{
		ID:         category,
		Ledger:     core.Revenue,
		Amount:     core.Money{Cents: cents},
		AnchorDate: core.NewDate(y, m, d),
		Category:   category,
		Recurrence: r,
	}
}

func months(c []Contribution) []string {
	out := make([]string, len(c))
	for i, x := range c {
		out[i] = x.Month.String()
	}
	return out
}
