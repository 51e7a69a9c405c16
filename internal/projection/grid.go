package projection

import (
	"fmt"
	"sort"
	"strings"

	"faturamento/internal/core"
)

// Layout selects how many months a grid page shows.
type Layout string

const (
	LayoutWide   Layout = "wide"
	LayoutNarrow Layout = "narrow"
)

// TotalColumnKey is the key of the synthetic column on narrow pages.
const TotalColumnKey = "TOTAL"

// ParseLayout maps a request value to a layout, defaulting to wide.
func ParseLayout(s string) Layout {
	if strings.EqualFold(strings.TrimSpace(s), string(LayoutNarrow)) {
		return LayoutNarrow
	}
	return LayoutWide
}

// DefaultPageSize returns the month count per page for the layout.
func (l Layout) DefaultPageSize() int {
	if l == LayoutNarrow {
		return NarrowPageSize
	}
	return WidePageSize
}

var monthAbbrev = [...]string{"jan", "fev", "mar", "abr", "mai", "jun", "jul", "ago", "set", "out", "nov", "dez"}

// MonthLabel formats k as "jan/2025".
func MonthLabel(k core.MonthKey) string {
	if !k.Valid() {
		return k.String()
	}
	return fmt.Sprintf("%s/%d", monthAbbrev[k.Month-1], k.Year)
}

type Column struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Total bool   `json:"total,omitempty"`
}

type Cell struct {
	Cents   int64  `json:"cents"`
	Display string `json:"display"`
}

func newCell(m core.Money) Cell {
	return Cell{Cents: m.Cents, Display: m.String()}
}

type Row struct {
	Category string `json:"category"`
	Cells    []Cell `json:"cells"`
	Total    Cell   `json:"total"`
}

// Grid is one page of the matrix ready for rendering.
type Grid struct {
	Status     Status   `json:"status"`
	Generation uint64   `json:"generation"`
	Layout     Layout   `json:"layout"`
	Columns    []Column `json:"columns"`
	Rows       []Row    `json:"rows"`
	Footer     []Cell   `json:"footer"`
	GrandTotal Cell     `json:"grandTotal"`
	Page       int      `json:"page"`
	PageCount  int      `json:"pageCount"`
	HasPrev    bool     `json:"hasPrev"`
	HasNext    bool     `json:"hasNext"`
	Empty      bool     `json:"empty"`
	Processed  int      `json:"processed"`
	Total      int      `json:"total"`
	Truncated  int      `json:"truncated,omitempty"`
}

type GridOptions struct {
	Layout Layout
	// PageSize overrides the layout default when positive.
	PageSize int
	Page     int
}

// BuildGrid renders the requested page of snap. While the snapshot is still
// computing the grid carries the columns but no rows.
func BuildGrid(snap Snapshot, opts GridOptions) Grid {
	if opts.Layout == "" {
		opts.Layout = LayoutWide
	}
	size := opts.PageSize
	if size <= 0 {
		size = opts.Layout.DefaultPageSize()
	}
	withTotal := opts.Layout == LayoutNarrow

	pager := NewPager(len(snap.Axis), size)
	page := pager.Clamp(opts.Page)
	months := snap.Axis.Page(size, page)

	g := Grid{
		Status:     snap.Status,
		Generation: snap.Generation,
		Layout:     opts.Layout,
		Page:       page,
		PageCount:  pager.PageCount(),
		HasPrev:    pager.HasPrev(page),
		HasNext:    pager.HasNext(page),
		Empty:      snap.Empty(),
		Processed:  snap.Processed,
		Total:      snap.Total,
		Truncated:  snap.Truncated,
		Rows:       []Row{},
	}

	g.Columns = make([]Column, 0, len(months)+1)
	for _, k := range months {
		g.Columns = append(g.Columns, Column{Key: k.String(), Label: MonthLabel(k)})
	}
	if withTotal {
		g.Columns = append(g.Columns, Column{Key: TotalColumnKey, Label: TotalColumnKey, Total: true})
	}

	m := snap.Matrix
	if snap.Status != StatusDone || m == nil {
		return g
	}

	categories := m.Categories()
	sort.Strings(categories)
	for _, cat := range categories {
		row := Row{Category: cat, Total: newCell(m.RowTotal(cat))}
		row.Cells = make([]Cell, 0, len(g.Columns))
		for _, k := range months {
			row.Cells = append(row.Cells, newCell(m.Cell(cat, k)))
		}
		if withTotal {
			row.Cells = append(row.Cells, row.Total)
		}
		g.Rows = append(g.Rows, row)
	}

	g.Footer = make([]Cell, 0, len(g.Columns))
	for _, k := range months {
		g.Footer = append(g.Footer, newCell(m.ColumnTotal(k)))
	}
	g.GrandTotal = newCell(m.GrandTotal())
	if withTotal {
		g.Footer = append(g.Footer, g.GrandTotal)
	}
	return g
}
