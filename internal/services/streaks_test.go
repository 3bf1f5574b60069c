package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreaks_ConsecutiveRunEndingToday(t *testing.T) {
	s := Streaks([]string{"2024-03-08", "2024-03-09", "2024-03-10"}, "2024-03-10")
	assert.Equal(t, 3, s.Current)
	assert.Equal(t, 3, s.Longest)
	assert.Equal(t, "2024-03-10", s.LastActiveDate)
}

func TestStreaks_EndingYesterdayStillCurrent(t *testing.T) {
	s := Streaks([]string{"2024-03-08", "2024-03-09"}, "2024-03-10")
	assert.Equal(t, 2, s.Current)
}

func TestStreaks_GapResetsCurrent(t *testing.T) {
	s := Streaks([]string{"2024-03-01", "2024-03-02", "2024-03-03", "2024-03-04", "2024-03-07"}, "2024-03-10")
	assert.Equal(t, 0, s.Current, "last run ended three days ago")
	assert.Equal(t, 4, s.Longest)
}

func TestStreaks_DuplicatesAndOrder(t *testing.T) {
	s := Streaks([]string{"2024-03-10", "2024-03-09", "2024-03-10", "", "2024-03-09"}, "2024-03-10")
	assert.Equal(t, 2, s.Current)
	assert.Equal(t, 2, s.Longest)
}

func TestStreaks_Empty(t *testing.T) {
	assert.Equal(t, StreakSummary{}, Streaks(nil, "2024-03-10"))
}

func TestStreaks_AcrossMonthBoundary(t *testing.T) {
	s := Streaks([]string{"2024-02-28", "2024-02-29", "2024-03-01"}, "2024-03-01")
	assert.Equal(t, 3, s.Current)
}

func TestNextStreak(t *testing.T) {
	assert.Equal(t, 1, NextStreak(0, "", "2024-03-10"))
	assert.Equal(t, 4, NextStreak(4, "2024-03-10", "2024-03-10"))
	assert.Equal(t, 1, NextStreak(0, "2024-03-10", "2024-03-10"))
	assert.Equal(t, 5, NextStreak(4, "2024-03-09", "2024-03-10"))
	assert.Equal(t, 1, NextStreak(4, "2024-03-07", "2024-03-10"))
}

func TestDateRange(t *testing.T) {
	got := dateRange("2024-03-02", 3)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"2024-02-29", "2024-03-01", "2024-03-02"}, got)
	assert.Nil(t, dateRange("not-a-date", 3))
}

func TestConsecutiveRunEnding(t *testing.T) {
	have := map[string]bool{"2024-03-10": true, "2024-03-09": true, "2024-03-07": true}
	n := consecutiveRunEnding("2024-03-10", func(d string) bool { return have[d] })
	assert.Equal(t, 2, n)
}
