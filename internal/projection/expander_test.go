package projection

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"faturamento/internal/core"
)

func TestExpand(t *testing.T) {
	firstHalf := MonthRange(mk(2025, 1), mk(2025, 6))
	twoYears := MonthRange(mk(2025, 1), mk(2026, 12))

	tests := []struct {
		name string
		item core.FinancialItem
		axis MonthAxis
		want []string
	}{
		{
			name: "monthly term inside axis",
			item: item("Aluguel", 120000, 2025, 1, 15, core.NewMonthlyTerm(3)),
			axis: firstHalf,
			want: []string{"2025-01", "2025-02", "2025-03"},
		},
		{
			name: "monthly term started before axis",
			item: item("Aluguel", 100, 2024, 11, 1, core.NewMonthlyTerm(4)),
			axis: firstHalf,
			want: []string{"2025-01", "2025-02"},
		},
		{
			name: "monthly term running past axis",
			item: item("Aluguel", 100, 2025, 5, 1, core.NewMonthlyTerm(12)),
			axis: firstHalf,
			want: []string{"2025-05", "2025-06"},
		},
		{
			name: "annual fixed anchored before axis",
			item: item("Licença", 50000, 2024, 3, 10, core.NewAnnualFixed()),
			axis: twoYears,
			want: []string{"2025-03", "2026-03"},
		},
		{
			name: "annual term partly before axis",
			item: item("Licença", 50000, 2024, 3, 10, core.NewAnnualTerm(2)),
			axis: twoYears,
			want: []string{"2025-03"},
		},
		{
			name: "monthly fixed from mid axis",
			item: item("Serviço", 100, 2025, 3, 31, core.NewMonthlyFixed()),
			axis: firstHalf,
			want: []string{"2025-03", "2025-04", "2025-05", "2025-06"},
		},
		{
			name: "monthly fixed anchored after axis",
			item: item("Serviço", 100, 2025, 9, 1, core.NewMonthlyFixed()),
			axis: firstHalf,
			want: nil,
		},
		{
			name: "once inside axis",
			item: item("Venda", 100, 2025, 4, 2, core.NewOnce()),
			axis: firstHalf,
			want: []string{"2025-04"},
		},
		{
			name: "once outside axis",
			item: item("Venda", 100, 2024, 12, 2, core.NewOnce()),
			axis: firstHalf,
			want: nil,
		},
		{
			name: "negative amount",
			item: item("Erro", -1000, 2025, 1, 1, core.NewMonthlyFixed()),
			axis: firstHalf,
			want: nil,
		},
		{
			name: "zero amount",
			item: item("Erro", 0, 2025, 1, 1, core.NewMonthlyFixed()),
			axis: firstHalf,
			want: nil,
		},
		{
			name: "term without installments",
			item: item("Erro", 100, 2025, 1, 1, core.NewMonthlyTerm(0)),
			axis: firstHalf,
			want: nil,
		},
		{
			name: "empty axis",
			item: item("Venda", 100, 2025, 1, 1, core.NewOnce()),
			axis: nil,
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Expand(tt.item, tt.axis)
			if tt.want == nil {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, months(got))
			for _, c := range got {
				assert.Equal(t, tt.item.Amount, c.Amount)
			}
		})
	}
}

func TestExpandSkipsMissingDateAndNaN(t *testing.T) {
	axis := MonthRange(mk(2025, 1), mk(2025, 12))

	noDate := item("x", 100, 2025, 1, 1, core.NewMonthlyFixed())
	noDate.AnchorDate = core.Date{}
	assert.Empty(t, Expand(noDate, axis))

	nan := item("x", 0, 2025, 1, 1, core.NewMonthlyFixed())
	nan.Amount = core.MoneyFromFloat(math.NaN())
	assert.Empty(t, Expand(nan, axis))
}

func TestExpandOnceIgnoresAxisExtent(t *testing.T) {
	it := item("Venda", 990, 2025, 6, 20, core.NewOnce())
	axes := []MonthAxis{
		MonthRange(mk(2025, 6), mk(2025, 6)),
		MonthRange(mk(2025, 1), mk(2025, 12)),
		MonthRange(mk(2020, 1), mk(2029, 12)),
	}
	for _, axis := range axes {
		got := Expand(it, axis)
		require.Len(t, got, 1)
		assert.Equal(t, mk(2025, 6), got[0].Month)
		assert.Equal(t, int64(990), got[0].Amount.Cents)
	}
}

func TestExpandTermNeverExceedsInstallments(t *testing.T) {
	axis := MonthRange(mk(2020, 1), mk(2030, 12))
	for n := 1; n <= 15; n++ {
		monthly := Expand(item("m", 100, 2021, 7, 1, core.NewMonthlyTerm(n)), axis)
		assert.Len(t, monthly, n, "monthly term %d", n)

		annual := Expand(item("a", 100, 2021, 7, 1, core.NewAnnualTerm(n)), axis)
		assert.LessOrEqual(t, len(annual), n, "annual term %d", n)
	}
}

func TestExpandIsSortedAndUnique(t *testing.T) {
	axis := MonthRange(mk(2024, 1), mk(2026, 12))
	got := Expand(item("m", 100, 2024, 2, 1, core.NewMonthlyFixed()), axis)
	require.NotEmpty(t, got)
	for i := 1; i < len(got); i++ {
		assert.True(t, got[i-1].Month.Before(got[i].Month))
	}
}
