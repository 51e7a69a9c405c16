package projection

import (
	"time"

	"faturamento/internal/core"
)

// Limits bound the month axis and the aggregation input.
type Limits struct {
	LookBackMonths  int // months before now the axis may start
	LookAheadMonths int // months after now the axis may end
	MaxMonths       int // hard cap on axis length
	MaxItems        int // items beyond this count are not aggregated
}

// DefaultLimits returns the production bounds.
func DefaultLimits() Limits {
	return Limits{
		LookBackMonths:  12,
		LookAheadMonths: 36,
		MaxMonths:       60,
		MaxItems:        500,
	}
}

func (l Limits) withDefaults() Limits {
	d := DefaultLimits()
	if l == (Limits{}) {
		return d
	}
	if l.LookBackMonths < 0 {
		l.LookBackMonths = d.LookBackMonths
	}
	if l.LookAheadMonths < 0 {
		l.LookAheadMonths = d.LookAheadMonths
	}
	if l.MaxMonths <= 0 {
		l.MaxMonths = d.MaxMonths
	}
	if l.MaxItems <= 0 {
		l.MaxItems = d.MaxItems
	}
	// The length cap must never cut the current month off the axis.
	if l.LookBackMonths > l.MaxMonths-1 {
		l.LookBackMonths = l.MaxMonths - 1
	}
	return l
}

// MonthAxis is an ascending, gap-free run of months.
type MonthAxis []core.MonthKey

func (a MonthAxis) First() core.MonthKey {
	if len(a) == 0 {
		return core.MonthKey{}
	}
	return a[0]
}

func (a MonthAxis) Last() core.MonthKey {
	if len(a) == 0 {
		return core.MonthKey{}
	}
	return a[len(a)-1]
}

// Contains reports whether k lies within the axis.
func (a MonthAxis) Contains(k core.MonthKey) bool {
	if len(a) == 0 {
		return false
	}
	return !k.Before(a[0]) && !k.After(a[len(a)-1])
}

// IndexOf returns the position of k in the axis, or -1.
func (a MonthAxis) IndexOf(k core.MonthKey) int {
	if !a.Contains(k) {
		return -1
	}
	return a[0].MonthsUntil(k)
}

// Keys returns the "YYYY-MM" form of every month.
func (a MonthAxis) Keys() []string {
	out := make([]string, len(a))
	for i, k := range a {
		out[i] = k.String()
	}
	return out
}

// MonthRange materializes the inclusive range [from, to].
func MonthRange(from, to core.MonthKey) MonthAxis {
	if to.Before(from) {
		return nil
	}
	axis := make(MonthAxis, 0, from.MonthsUntil(to)+1)
	for k := from; !k.After(to); k = k.AddMonths(1) {
		axis = append(axis, k)
	}
	return axis
}

// BuildAxis derives the month axis for items relative to now.
//
// The axis starts at the earliest item month (never before now minus the
// look-back) and ends at the latest term-item month (never after now plus the
// look-ahead). Unbounded rules and one-off items do not move the end. The
// current month is always included and the length is capped at MaxMonths.
// Items that cannot contribute are ignored.
func BuildAxis(items []core.FinancialItem, now time.Time, limits Limits) MonthAxis {
	limits = limits.withDefaults()
	anchor := core.MonthOf(now)
	lower, upper := anchor, anchor

	for _, it := range items {
		if !it.Contributes() {
			continue
		}
		start := it.AnchorDate.MonthKey()
		lower = core.MinMonth(lower, start)
		if last, ok := it.Recurrence.LastMonth(start); ok {
			upper = core.MaxMonth(upper, last)
		}
	}

	lower = core.MaxMonth(lower, anchor.AddMonths(-limits.LookBackMonths))
	upper = core.MinMonth(upper, anchor.AddMonths(limits.LookAheadMonths))
	if lower.MonthsUntil(upper)+1 > limits.MaxMonths {
		upper = lower.AddMonths(limits.MaxMonths - 1)
	}
	return MonthRange(lower, upper)
}
