package analytics

import (
	"fmt"
	"strings"
)

type AggregateStats struct {
	TotalLogs      int     `json:"total_logs"`
	AverageMood    float64 `json:"average_mood"`
	TotalMinutes   int     `json:"total_minutes"`
	CompletionRate float64 `json:"completion_rate"`
	BlockerDays    int     `json:"blocker_days"`
}

// ComputeAggregates summarizes records over a window of windowDays expected
// submissions. The caller picks the denominator: 7 for a weekly view,
// members*7 for a team week, or the span between first and last record for
// exported reports.
func ComputeAggregates(records []LogRecord, windowDays int) (AggregateStats, error) {
	if windowDays <= 0 {
		return AggregateStats{}, fmt.Errorf("%w: window days must be positive, got %d", ErrInvalidInput, windowDays)
	}

	stats := AggregateStats{TotalLogs: len(records)}
	if len(records) == 0 {
		return stats, nil
	}

	moodSum := 0
	for _, r := range records {
		moodSum += r.MoodScore
		stats.TotalMinutes += r.TotalMinutes()
		if strings.TrimSpace(r.BlockerText) != "" {
			stats.BlockerDays++
		}
	}

	stats.AverageMood = float64(moodSum) / float64(len(records))
	stats.CompletionRate = float64(len(records)) / float64(windowDays) * 100

	return stats, nil
}

// SpanDays is the inclusive number of calendar days between the earliest and
// latest record. Zero when there are no records.
func SpanDays(records []LogRecord) int {
	if len(records) == 0 {
		return 0
	}

	first, last := Day(records[0].Date), Day(records[0].Date)
	for _, r := range records[1:] {
		d := Day(r.Date)
		if d.Before(first) {
			first = d
		}
		if d.After(last) {
			last = d
		}
	}

	return int(last.Sub(first).Hours()/24) + 1
}
