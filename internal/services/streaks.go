package services

import (
	"sort"
	"time"

	"github.com/arnold/wellness-api/internal/models"
)

type StreakSummary struct {
	Current        int    `json:"current"`
	Longest        int    `json:"longest"`
	LastActiveDate string `json:"lastActiveDate,omitempty"`
}

// Streaks computes run lengths over distinct calendar dates. Two dates
// continue a run only when exactly one day apart. The current streak is the
// final run if it ends today or yesterday, otherwise zero.
func Streaks(dates []string, today string) StreakSummary {
	distinct := distinctSorted(dates)
	if len(distinct) == 0 {
		return StreakSummary{}
	}

	longest, run := 1, 1
	for i := 1; i < len(distinct); i++ {
		if dayDiff(distinct[i-1], distinct[i]) == 1 {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
	}

	last := distinct[len(distinct)-1]
	current := 0
	if gap := dayDiff(last, today); gap == 0 || gap == 1 {
		current = run
	}
	return StreakSummary{Current: current, Longest: longest, LastActiveDate: last}
}

// NextStreak applies one day of activity to a running streak counter: same
// day keeps it, the following day extends it, anything else restarts at one.
func NextStreak(current int, lastDate, today string) int {
	if lastDate == "" {
		return 1
	}
	switch dayDiff(lastDate, today) {
	case 0:
		if current < 1 {
			return 1
		}
		return current
	case 1:
		return current + 1
	default:
		return 1
	}
}

func distinctSorted(dates []string) []string {
	seen := make(map[string]struct{}, len(dates))
	out := make([]string, 0, len(dates))
	for _, d := range dates {
		if d == "" {
			continue
		}
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

// dayDiff returns b minus a in whole calendar days. Unparseable input yields
// a large gap so it never extends a streak.
func dayDiff(a, b string) int {
	ta, errA := time.Parse(models.DateLayout, a)
	tb, errB := time.Parse(models.DateLayout, b)
	if errA != nil || errB != nil {
		return 1 << 20
	}
	return int(tb.Sub(ta).Hours() / 24)
}

// dateRange lists the n date keys ending at today, oldest first.
func dateRange(today string, n int) []string {
	end, err := time.Parse(models.DateLayout, today)
	if err != nil || n <= 0 {
		return nil
	}
	out := make([]string, n)
	for i := 0; i < n; i++ {
		out[i] = models.DateKey(end.AddDate(0, 0, i-(n-1)))
	}
	return out
}

// consecutiveRunEnding counts consecutive days ending at end (inclusive)
// for which ok returns true.
func consecutiveRunEnding(end string, ok func(date string) bool) int {
	t, err := time.Parse(models.DateLayout, end)
	if err != nil {
		return 0
	}
	n := 0
	for ok(models.DateKey(t)) {
		n++
		t = t.AddDate(0, 0, -1)
	}
	return n
}
