package projection

// Default page sizes for the billing grid.
const (
	WidePageSize   = 10
	NarrowPageSize = 3
)

// Pager splits a sequence of Total entries into pages of Size entries.
// Page indexes are zero-based and always clamped, never wrapped.
type Pager struct {
	Total int
	Size  int
}

// NewPager returns a pager; sizes below one are treated as one.
func NewPager(total, size int) Pager {
	if size < 1 {
		size = 1
	}
	if total < 0 {
		total = 0
	}
	return Pager{Total: total, Size: size}
}

// PageCount returns ceil(Total/Size).
func (p Pager) PageCount() int {
	if p.Size < 1 {
		return p.Total
	}
	return (p.Total + p.Size - 1) / p.Size
}

// Clamp pulls page into [0, PageCount-1].
func (p Pager) Clamp(page int) int {
	last := p.PageCount() - 1
	if page > last {
		page = last
	}
	if page < 0 {
		page = 0
	}
	return page
}

// Bounds returns the half-open index range of the clamped page.
func (p Pager) Bounds(page int) (start, end int) {
	page = p.Clamp(page)
	start = page * p.Size
	end = min(start+p.Size, p.Total)
	return min(start, p.Total), end
}

// Next returns the following page, staying put on the last one.
func (p Pager) Next(page int) int {
	return p.Clamp(p.Clamp(page) + 1)
}

// Prev returns the preceding page, staying put on the first one.
func (p Pager) Prev(page int) int {
	return p.Clamp(p.Clamp(page) - 1)
}

func (p Pager) HasNext(page int) bool {
	return p.Clamp(page) < p.PageCount()-1
}

func (p Pager) HasPrev(page int) bool {
	return p.Clamp(page) > 0
}

// Page returns the months visible on the given page of size months.
func (a MonthAxis) Page(size, page int) MonthAxis {
	start, end := NewPager(len(a), size).Bounds(page)
	return a[start:end]
}
