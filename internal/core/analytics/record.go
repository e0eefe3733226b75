// Package analytics derives metrics from work-log records: day streaks,
// aggregate statistics, frequency rankings and time distribution by task status.
//
// Every function in this package is pure. Callers fetch and validate records
// (ownership, date range, field ranges) before invoking the engine; invalid
// record data such as negative minutes is not clamped and flows into results.
package analytics

import (
	"errors"
	"time"
)

var ErrInvalidInput = errors.New("analytics: invalid input")

type TaskStatus string

const (
	StatusCompleted  TaskStatus = "completed"
	StatusInProgress TaskStatus = "in-progress"
	StatusBlocked    TaskStatus = "blocked"
)

func (s TaskStatus) Valid() bool {
	switch s {
	case StatusCompleted, StatusInProgress, StatusBlocked:
		return true
	}
	return false
}

type TaskRecord struct {
	Description  string
	MinutesSpent int
	Tags         []string
	Status       TaskStatus
}

// LogRecord is one owner's work entry for one calendar day.
type LogRecord struct {
	OwnerID     string
	Date        time.Time
	Tasks       []TaskRecord
	MoodScore   int
	BlockerText string
}

func (r LogRecord) TotalMinutes() int {
	total := 0
	for _, t := range r.Tasks {
		total += t.MinutesSpent
	}
	return total
}

// Day truncates t to midnight of its UTC calendar day.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Dates returns the record dates in input order.
func Dates(records []LogRecord) []time.Time {
	dates := make([]time.Time, 0, len(records))
	for _, r := range records {
		dates = append(dates, r.Date)
	}
	return dates
}
