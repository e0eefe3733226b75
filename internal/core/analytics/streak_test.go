package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestComputeStreaks(t *testing.T) {
	now := time.Date(2024, 1, 3, 15, 30, 0, 0, time.UTC)
	daysAgo := func(n int) time.Time {
		return now.AddDate(0, 0, -n)
	}
	date := func(y int, m time.Month, d int) time.Time {
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}

	tests := []struct {
		name        string
		dates       []time.Time
		wantCurrent int
		wantMax     int
	}{
		{
			name:        "Empty set",
			dates:       nil,
			wantCurrent: 0,
			wantMax:     0,
		},
		{
			name:        "Single date today",
			dates:       []time.Time{now},
			wantCurrent: 1,
			wantMax:     1,
		},
		{
			name:        "Single date yesterday (streak still alive)",
			dates:       []time.Time{daysAgo(1)},
			wantCurrent: 1,
			wantMax:     1,
		},
		{
			name:        "Latest date in the future",
			dates:       []time.Time{now.AddDate(0, 0, 5)},
			wantCurrent: 0,
			wantMax:     1,
		},
		{
			name:        "Run ending tomorrow is not current",
			dates:       []time.Time{daysAgo(1), now, now.AddDate(0, 0, 1)},
			wantCurrent: 0,
			wantMax:     3,
		},
		{
			name:        "Single date 2 days ago (streak broken)",
			dates:       []time.Time{daysAgo(2)},
			wantCurrent: 0,
			wantMax:     1,
		},
		{
			name:        "Three consecutive days ending today",
			dates:       []time.Time{date(2024, 1, 1), date(2024, 1, 2), date(2024, 1, 3)},
			wantCurrent: 3,
			wantMax:     3,
		},
		{
			name:        "Gap of two days, last date today",
			dates:       []time.Time{date(2024, 1, 1), date(2024, 1, 3)},
			wantCurrent: 1,
			wantMax:     1,
		},
		{
			name:        "Longest run in the past",
			dates:       []time.Time{now, daysAgo(10), daysAgo(11), daysAgo(12)},
			wantCurrent: 1,
			wantMax:     3,
		},
		{
			name:        "Unsorted input",
			dates:       []time.Time{daysAgo(2), now, daysAgo(1)},
			wantCurrent: 3,
			wantMax:     3,
		},
		{
			name:        "Same day timestamps count once",
			dates:       []time.Time{now, now.Add(-2 * time.Hour), daysAgo(1)},
			wantCurrent: 2,
			wantMax:     2,
		},
		{
			name:        "Run ending yesterday is current",
			dates:       []time.Time{daysAgo(1), daysAgo(2), daysAgo(3), daysAgo(6)},
			wantCurrent: 3,
			wantMax:     3,
		},
		{
			name:        "Broken streak keeps max",
			dates:       []time.Time{daysAgo(3), daysAgo(4), daysAgo(5), daysAgo(6)},
			wantCurrent: 0,
			wantMax:     4,
		},
		{
			name: "Non-UTC timestamps fold into UTC days",
			dates: []time.Time{
				time.Date(2024, 1, 3, 0, 30, 0, 0, time.FixedZone("CET", 3600)),
				time.Date(2024, 1, 2, 12, 0, 0, 0, time.UTC),
			},
			wantCurrent: 1,
			wantMax:     1,
		},
		{
			name:        "Month boundary",
			dates:       []time.Time{date(2023, 12, 31), date(2024, 1, 1), date(2024, 1, 2)},
			wantCurrent: 3,
			wantMax:     3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeStreaks(tt.dates, now)
			assert.Equal(t, tt.wantCurrent, got.CurrentStreak, "Current Streak mismatch")
			assert.Equal(t, tt.wantMax, got.MaxStreak, "Max Streak mismatch")
		})
	}
}

func TestComputeStreaks_Bounds(t *testing.T) {
	now := time.Date(2024, 6, 30, 12, 0, 0, 0, time.UTC)

	// deterministic pseudo-random day offsets within the last 40 days
	seed := 7
	for round := 0; round < 50; round++ {
		var dates []time.Time
		distinct := make(map[time.Time]bool)
		for i := 0; i < round%15; i++ {
			seed = (seed*31 + 11) % 97
			d := now.AddDate(0, 0, -(seed % 40))
			dates = append(dates, d)
			distinct[Day(d)] = true
		}

		got := ComputeStreaks(dates, now)

		assert.GreaterOrEqual(t, got.CurrentStreak, 0)
		assert.GreaterOrEqual(t, got.MaxStreak, got.CurrentStreak)
		assert.LessOrEqual(t, got.MaxStreak, len(distinct))
	}
}
