package analytics

import (
	"sort"
	"time"
)

type StreakResult struct {
	CurrentStreak int `json:"current_streak"`
	MaxStreak     int `json:"max_streak"`
}

// ComputeStreaks counts runs of consecutive UTC calendar days.
//
// Dates are collapsed to their UTC day, so several timestamps on the same day
// count once. MaxStreak is the longest run. CurrentStreak is the run ending on
// the most recent date, and only while that date is today or yesterday
// relative to now; an older or future-dated last entry yields no current streak.
func ComputeStreaks(dates []time.Time, now time.Time) StreakResult {
	days := uniqueDays(dates)
	if len(days) == 0 {
		return StreakResult{}
	}

	running := 1
	longest := 1
	for i := 1; i < len(days); i++ {
		if days[i].Equal(days[i-1].AddDate(0, 0, 1)) {
			running++
		} else {
			running = 1
		}
		if running > longest {
			longest = running
		}
	}

	current := 0
	today := Day(now)
	last := days[len(days)-1]
	if !last.Before(today.AddDate(0, 0, -1)) && !last.After(today) {
		current = running
	}

	return StreakResult{CurrentStreak: current, MaxStreak: longest}
}

func uniqueDays(dates []time.Time) []time.Time {
	seen := make(map[time.Time]bool, len(dates))
	days := make([]time.Time, 0, len(dates))
	for _, d := range dates {
		day := Day(d)
		if seen[day] {
			continue
		}
		seen[day] = true
		days = append(days, day)
	}

	sort.Slice(days, func(i, j int) bool {
		return days[i].Before(days[j])
	})
	return days
}
