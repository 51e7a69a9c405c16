package core

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonthKeyAddMonths(t *testing.T) {
	tests := []struct {
		from MonthKey
		n    int
		want MonthKey
	}{
		{NewMonthKey(2025, 1), 0, NewMonthKey(2025, 1)},
		{NewMonthKey(2025, 1), 11, NewMonthKey(2025, 12)},
		{NewMonthKey(2025, 12), 1, NewMonthKey(2026, 1)},
		{NewMonthKey(2025, 1), -1, NewMonthKey(2024, 12)},
		{NewMonthKey(2025, 3), -15, NewMonthKey(2023, 12)},
		{NewMonthKey(2025, 6), 36, NewMonthKey(2028, 6)},
	}
	for _, tt := range tests {
		t.Run(tt.from.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.AddMonths(tt.n))
		})
	}
}

func TestMonthKeyOrdering(t *testing.T) {
	a := NewMonthKey(2024, 12)
	b := NewMonthKey(2025, 1)
	assert.True(t, a.Before(b))
	assert.True(t, b.After(a))
	assert.Equal(t, -1, a.Compare(b))
	assert.Equal(t, 0, a.Compare(a))
	assert.Equal(t, 1, a.MonthsUntil(b))
	assert.Equal(t, -13, b.MonthsUntil(NewMonthKey(2023, 12)))
	assert.Equal(t, a, MinMonth(a, b))
	assert.Equal(t, b, MaxMonth(a, b))
}

func TestMonthOf(t *testing.T) {
	k := MonthOf(time.Date(2025, time.January, 31, 23, 59, 0, 0, time.UTC))
	assert.Equal(t, NewMonthKey(2025, 1), k)
	assert.Equal(t, "2025-01", k.String())
	assert.Equal(t, NewMonthKey(2025, 1), NewDate(2025, 1, 15).MonthKey())
}

func TestMonthKeyText(t *testing.T) {
	k, err := ParseMonthKey("2026-03")
	require.NoError(t, err)
	assert.Equal(t, NewMonthKey(2026, 3), k)

	_, err = ParseMonthKey("2026-13")
	assert.Error(t, err)

	b, err := json.Marshal(map[MonthKey]int{NewMonthKey(2025, 2): 1})
	require.NoError(t, err)
	assert.JSONEq(t, `{"2025-02":1}`, string(b))

	var back map[MonthKey]int
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, 1, back[NewMonthKey(2025, 2)])
}
