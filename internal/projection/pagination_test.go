package projection

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"faturamento/internal/core"
)

func TestPagerNavigation(t *testing.T) {
	p := NewPager(25, 10)
	assert.Equal(t, 3, p.PageCount())

	tests := []struct {
		name       string
		page       int
		clamped    int
		next, prev int
	}{
		{"first", 0, 0, 1, 0},
		{"middle", 1, 1, 2, 0},
		{"last", 2, 2, 2, 1},
		{"past the end", 7, 2, 2, 1},
		{"before the start", -3, 0, 1, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.clamped, p.Clamp(tt.page))
			assert.Equal(t, tt.next, p.Next(tt.page))
			assert.Equal(t, tt.prev, p.Prev(tt.page))
		})
	}

	assert.False(t, p.HasPrev(0))
	assert.True(t, p.HasNext(0))
	assert.False(t, p.HasNext(2))
	assert.True(t, p.HasPrev(2))
}

func TestPagerBounds(t *testing.T) {
	p := NewPager(25, 10)
	start, end := p.Bounds(2)
	assert.Equal(t, 20, start)
	assert.Equal(t, 25, end)

	empty := NewPager(0, 10)
	assert.Equal(t, 0, empty.PageCount())
	start, end = empty.Bounds(4)
	assert.Equal(t, 0, start)
	assert.Equal(t, 0, end)

	assert.Equal(t, 1, NewPager(5, 0).Size)
}

func TestAxisPagesReassembleAxis(t *testing.T) {
	axis := MonthRange(mk(2024, 6), mk(2028, 6))
	for _, size := range []int{1, 3, 7, 10, 49, 60} {
		pages := NewPager(len(axis), size).PageCount()
		var joined []core.MonthKey
		for k := 0; k < pages; k++ {
			page := axis.Page(size, k)
			assert.LessOrEqual(t, len(page), size)
			joined = append(joined, page...)
		}
		assert.Equal(t, []core.MonthKey(axis), joined, "page size %d", size)
	}
}
