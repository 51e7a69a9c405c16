// Package projection turns recurring financial items into a category by month
// matrix over a bounded month axis.
//
// Each recurrence kind has its own expansion rule, registered in a table the
// same way for every kind. Expansion is pure; the aggregator folds the
// results in fixed-size chunks and the engine owns cancellation and memoing.
package projection

import (
	"sort"

	"faturamento/internal/core"
)

// Contribution is the amount one item adds to one month.
type Contribution struct {
	Month  core.MonthKey `json:"month"`
	Amount core.Money    `json:"amount"`
}

// expandFunc writes the contributions of a rule anchored at start into out.
// Writing through a map keeps at most one entry per month.
type expandFunc func(start core.MonthKey, r core.Recurrence, amount core.Money, axis MonthAxis, out map[core.MonthKey]core.Money)

var expanders = map[core.RecurrenceKind]expandFunc{
	core.Once:             expandOnce,
	core.MonthlyFixed:     expandMonthlyFixed,
	core.MonthlyFixedTerm: expandMonthlyTerm,
	core.AnnualFixed:      expandAnnualFixed,
	core.AnnualFixedTerm:  expandAnnualTerm,
}

// Expand returns the contributions of item within axis, ordered by month.
// Items with a non-positive amount, a missing date or an invalid rule yield
// nothing.
func Expand(item core.FinancialItem, axis MonthAxis) []Contribution {
	out := expandInto(item, axis, nil)
	if len(out) == 0 {
		return nil
	}
	list := make([]Contribution, 0, len(out))
	for k, v := range out {
		list = append(list, Contribution{Month: k, Amount: v})
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Month.Before(list[j].Month) })
	return list
}

// expandInto reuses buf between calls from the aggregator hot loop.
func expandInto(item core.FinancialItem, axis MonthAxis, buf map[core.MonthKey]core.Money) map[core.MonthKey]core.Money {
	if buf == nil {
		buf = make(map[core.MonthKey]core.Money)
	} else {
		clear(buf)
	}
	if len(axis) == 0 || !item.Contributes() {
		return buf
	}
	fn, ok := expanders[item.Recurrence.Kind]
	if !ok {
		return buf
	}
	fn(item.AnchorDate.MonthKey(), item.Recurrence, item.Amount, axis, buf)
	return buf
}

func expandOnce(start core.MonthKey, _ core.Recurrence, amount core.Money, axis MonthAxis, out map[core.MonthKey]core.Money) {
	if axis.Contains(start) {
		out[start] = amount
	}
}

func expandMonthlyFixed(start core.MonthKey, _ core.Recurrence, amount core.Money, axis MonthAxis, out map[core.MonthKey]core.Money) {
	for _, k := range axis {
		if !k.Before(start) {
			out[k] = amount
		}
	}
}

func expandMonthlyTerm(start core.MonthKey, r core.Recurrence, amount core.Money, axis MonthAxis, out map[core.MonthKey]core.Money) {
	// Only walk the part of the schedule that overlaps the axis.
	from := max(0, start.MonthsUntil(axis.First()))
	to := min(r.Count-1, start.MonthsUntil(axis.Last()))
	for i := from; i <= to; i++ {
		out[start.AddMonths(i)] = amount
	}
}

func expandAnnualFixed(start core.MonthKey, _ core.Recurrence, amount core.Money, axis MonthAxis, out map[core.MonthKey]core.Money) {
	for _, k := range axis {
		if k.Month == start.Month && k.Year >= start.Year {
			out[k] = amount
		}
	}
}

func expandAnnualTerm(start core.MonthKey, r core.Recurrence, amount core.Money, axis MonthAxis, out map[core.MonthKey]core.Money) {
	from := max(0, axis.First().Year-start.Year)
	to := min(r.Count-1, axis.Last().Year-start.Year)
	for i := from; i <= to; i++ {
		if k := start.AddYears(i); axis.Contains(k) {
			out[k] = amount
		}
	}
}
