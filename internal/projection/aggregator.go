package projection

import (
	"context"
	"fmt"
	"runtime"

	"faturamento/internal/core"
)

// DefaultChunkSize is the number of items folded between yields.
const DefaultChunkSize = 50

// Matrix holds summed contributions per category and month with derived
// totals. It is built by Aggregate and read-only afterwards.
type Matrix struct {
	categories []string
	cells      map[string]map[core.MonthKey]core.Money
	rowTotals  map[string]core.Money
	colTotals  map[core.MonthKey]core.Money
	grand      core.Money
	items      int
}

func newMatrix() *Matrix {
	return &Matrix{
		cells:     make(map[string]map[core.MonthKey]core.Money),
		rowTotals: make(map[string]core.Money),
		colTotals: make(map[core.MonthKey]core.Money),
	}
}

func (m *Matrix) add(category string, k core.MonthKey, amount core.Money) {
	row, ok := m.cells[category]
	if !ok {
		row = make(map[core.MonthKey]core.Money)
		m.cells[category] = row
		m.categories = append(m.categories, category)
	}
	row[k] = row[k].Add(amount)
	m.rowTotals[category] = m.rowTotals[category].Add(amount)
	m.colTotals[k] = m.colTotals[k].Add(amount)
	m.grand = m.grand.Add(amount)
}

// Categories returns the categories in the order they were first seen.
func (m *Matrix) Categories() []string {
	return append([]string(nil), m.categories...)
}

// Cell returns the amount for category in month k.
func (m *Matrix) Cell(category string, k core.MonthKey) core.Money {
	return m.cells[category][k]
}

// Row returns a copy of the month amounts for category.
func (m *Matrix) Row(category string) map[core.MonthKey]core.Money {
	out := make(map[core.MonthKey]core.Money, len(m.cells[category]))
	for k, v := range m.cells[category] {
		out[k] = v
	}
	return out
}

func (m *Matrix) RowTotal(category string) core.Money { return m.rowTotals[category] }

func (m *Matrix) ColumnTotal(k core.MonthKey) core.Money { return m.colTotals[k] }

func (m *Matrix) GrandTotal() core.Money { return m.grand }

// ContributingItems counts items that added at least one cell.
func (m *Matrix) ContributingItems() int { return m.items }

// CellCount returns the number of non-empty category/month cells.
func (m *Matrix) CellCount() int {
	n := 0
	for _, row := range m.cells {
		n += len(row)
	}
	return n
}

// IsEmpty reports whether no item contributed anything.
func (m *Matrix) IsEmpty() bool {
	return m == nil || len(m.cells) == 0
}

// Check verifies that cells, row totals, column totals and the grand total
// agree.
func (m *Matrix) Check() error {
	var cells, rows, cols int64
	for cat, row := range m.cells {
		var sum int64
		for _, v := range row {
			sum += v.Cents
		}
		if sum != m.rowTotals[cat].Cents {
			return fmt.Errorf("row %q: cells sum %d, total %d", cat, sum, m.rowTotals[cat].Cents)
		}
		cells += sum
	}
	for _, v := range m.rowTotals {
		rows += v.Cents
	}
	for _, v := range m.colTotals {
		cols += v.Cents
	}
	if cells != rows || rows != cols || cols != m.grand.Cents {
		return fmt.Errorf("unbalanced matrix: cells=%d rows=%d columns=%d grand=%d", cells, rows, cols, m.grand.Cents)
	}
	return nil
}

// Options tune the chunked aggregation loop.
type Options struct {
	// ChunkSize is the number of items folded before yielding.
	ChunkSize int
	// Yield is called between chunks. Defaults to runtime.Gosched.
	Yield func()
	// Progress, if set, is called after each chunk with the items folded so far.
	Progress func(processed, total int)
}

func (o Options) withDefaults() Options {
	if o.ChunkSize <= 0 {
		o.ChunkSize = DefaultChunkSize
	}
	if o.Yield == nil {
		o.Yield = runtime.Gosched
	}
	return o
}

// Aggregate folds the expansion of every item into a matrix over axis.
//
// Items are processed in input order, in chunks of opts.ChunkSize, yielding
// between chunks. Malformed items are skipped. The only error returned is
// the context's, when the pass is cancelled between chunks; the partial
// matrix is discarded in that case.
func Aggregate(ctx context.Context, items []core.FinancialItem, axis MonthAxis, opts Options) (*Matrix, error) {
	opts = opts.withDefaults()
	m := newMatrix()
	buf := make(map[core.MonthKey]core.Money)

	for start := 0; start < len(items); start += opts.ChunkSize {
		if start > 0 {
			opts.Yield()
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		end := min(start+opts.ChunkSize, len(items))
		for _, it := range items[start:end] {
			contrib := expandInto(it, axis, buf)
			if len(contrib) == 0 {
				continue
			}
			category := it.GroupKey()
			for k, v := range contrib {
				m.add(category, k, v)
			}
			m.items++
		}
		if opts.Progress != nil {
			opts.Progress(end, len(items))
		}
	}
	return m, nil
}
