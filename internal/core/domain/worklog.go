package domain

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/comitanigiacomo/devlog-engine/internal/core/analytics"
)

var (
	ErrWorkLogNotFound     = errors.New("work log not found")
	ErrWorkLogConflict     = errors.New("work log version conflict")
	ErrLogAlreadyExists    = errors.New("log already exists for this day")
	ErrNoTasks             = errors.New("a work log needs at least one task")
	ErrTaskDescEmpty       = errors.New("task description cannot be empty")
	ErrTaskDescTooLong     = errors.New("task description is too long (max 500 chars)")
	ErrBlockersTooLong     = errors.New("blockers are too long (max 2000 chars)")
	ErrInvalidTime         = errors.New("invalid time spent (hours >= 0, minutes 0-59)")
	ErrInvalidTaskStatus   = errors.New("invalid task status (must be completed, in-progress or blocked)")
	ErrInvalidMood         = errors.New("invalid mood score (must be 1-5)")
	ErrInvalidMoodEmoji    = errors.New("invalid mood emoji")
	ErrInvalidReviewStatus = errors.New("invalid review status (must be Pending, Approved or Needs Clarification)")
	ErrLogInvalidUserID    = errors.New("invalid user id")
	ErrTaskNotFound        = errors.New("task not found")
)

const (
	MaxTaskDescLen = 500
	MaxBlockersLen = 2000
)

type ReviewStatus string

const (
	ReviewPending            ReviewStatus = "Pending"
	ReviewApproved           ReviewStatus = "Approved"
	ReviewNeedsClarification ReviewStatus = "Needs Clarification"
)

func (s ReviewStatus) Valid() bool {
	switch s {
	case ReviewPending, ReviewApproved, ReviewNeedsClarification:
		return true
	}
	return false
}

// MoodEmojis maps a mood score (index+1) to its emoji.
var MoodEmojis = []string{"😢", "😕", "😐", "🙂", "😄"}

type Mood struct {
	Score int    `json:"score"`
	Emoji string `json:"emoji"`
}

func NewMood(score int, emoji string) (Mood, error) {
	if score < 1 || score > len(MoodEmojis) {
		return Mood{}, ErrInvalidMood
	}

	if emoji == "" {
		return Mood{Score: score, Emoji: MoodEmojis[score-1]}, nil
	}

	for _, e := range MoodEmojis {
		if e == emoji {
			return Mood{Score: score, Emoji: emoji}, nil
		}
	}
	return Mood{}, ErrInvalidMoodEmoji
}

// Task.Status tracks the author's progress; ReviewStatus and Feedback belong
// to the manager's review of that single task.
type Task struct {
	ID           string               `json:"id"`
	Description  string               `json:"description"`
	MinutesSpent int                  `json:"minutes_spent"`
	Tags         []string             `json:"tags"`
	Status       analytics.TaskStatus `json:"status"`
	ReviewStatus ReviewStatus         `json:"review_status"`
	Feedback     []Feedback           `json:"feedback"`
}

func NewTask(description string, hours, minutes int, tags []string, status analytics.TaskStatus) (Task, error) {
	desc := strings.TrimSpace(description)
	if desc == "" {
		return Task{}, ErrTaskDescEmpty
	}
	if utf8.RuneCountInString(desc) > MaxTaskDescLen {
		return Task{}, ErrTaskDescTooLong
	}

	if hours < 0 || minutes < 0 || minutes > 59 {
		return Task{}, ErrInvalidTime
	}

	if status == "" {
		status = analytics.StatusCompleted
	}
	if !status.Valid() {
		return Task{}, ErrInvalidTaskStatus
	}

	return Task{
		ID:           uuid.NewString(),
		Description:  desc,
		MinutesSpent: hours*60 + minutes,
		Tags:         normalizeTags(tags),
		Status:       status,
		ReviewStatus: ReviewPending,
		Feedback:     []Feedback{},
	}, nil
}

func normalizeTags(tags []string) []string {
	seen := make(map[string]bool)
	clean := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		clean = append(clean, t)
	}
	return clean
}

type Feedback struct {
	UserID    string    `json:"user_id"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}

type WorkLog struct {
	ID         string       `json:"id"`
	UserID     string       `json:"user_id"`
	Date       time.Time    `json:"date"`
	Tasks      []Task       `json:"tasks"`
	Mood       Mood         `json:"mood"`
	Blockers   string       `json:"blockers,omitempty"`
	Summary    string       `json:"summary,omitempty"`
	Status     ReviewStatus `json:"status"`
	ReviewedBy *string      `json:"reviewed_by,omitempty"`
	ReviewedAt *time.Time   `json:"reviewed_at,omitempty"`
	Feedback   []Feedback   `json:"feedback"`
	Version    int          `json:"version"`
	CreatedAt  time.Time    `json:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at"`
}

func NewWorkLog(userID string, date time.Time, tasks []Task, mood Mood, blockers, summary string) (*WorkLog, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrLogInvalidUserID
	}
	if len(tasks) == 0 {
		return nil, ErrNoTasks
	}
	if date.IsZero() {
		return nil, ErrInvalidDate
	}
	cleanBlockers, err := validateBlockers(blockers)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &WorkLog{
		ID:        uuid.NewString(),
		UserID:    userID,
		Date:      analytics.Day(date),
		Tasks:     tasks,
		Mood:      mood,
		Blockers:  cleanBlockers,
		Summary:   strings.TrimSpace(summary),
		Status:    ReviewPending,
		Feedback:  []Feedback{},
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Revise replaces the author-editable content of the log.
func (l *WorkLog) Revise(tasks []Task, mood Mood, blockers, summary string) error {
	if len(tasks) == 0 {
		return ErrNoTasks
	}
	cleanBlockers, err := validateBlockers(blockers)
	if err != nil {
		return err
	}

	l.Tasks = tasks
	l.Mood = mood
	l.Blockers = cleanBlockers
	l.Summary = strings.TrimSpace(summary)
	l.UpdatedAt = time.Now().UTC()
	return nil
}

func (l *WorkLog) Review(reviewerID string, status ReviewStatus) error {
	if !status.Valid() {
		return ErrInvalidReviewStatus
	}

	now := time.Now().UTC()
	l.Status = status
	l.ReviewedBy = &reviewerID
	l.ReviewedAt = &now
	l.UpdatedAt = now
	return nil
}

func (l *WorkLog) AddFeedback(userID, comment string) (Feedback, error) {
	comment = strings.TrimSpace(comment)
	if comment == "" {
		return Feedback{}, ErrInvalidComment
	}

	fb := Feedback{
		UserID:    userID,
		Comment:   comment,
		CreatedAt: time.Now().UTC(),
	}
	l.Feedback = append(l.Feedback, fb)
	l.UpdatedAt = fb.CreatedAt
	return fb, nil
}

func (l *WorkLog) task(taskID string) (*Task, error) {
	for i := range l.Tasks {
		if l.Tasks[i].ID == taskID {
			return &l.Tasks[i], nil
		}
	}
	return nil, ErrTaskNotFound
}

// ReviewTask sets the review status of a single task.
func (l *WorkLog) ReviewTask(taskID string, status ReviewStatus) error {
	if !status.Valid() {
		return ErrInvalidReviewStatus
	}
	t, err := l.task(taskID)
	if err != nil {
		return err
	}

	t.ReviewStatus = status
	l.UpdatedAt = time.Now().UTC()
	return nil
}

func (l *WorkLog) AddTaskFeedback(taskID, userID, comment string) (Feedback, error) {
	comment = strings.TrimSpace(comment)
	if comment == "" {
		return Feedback{}, ErrInvalidComment
	}
	t, err := l.task(taskID)
	if err != nil {
		return Feedback{}, err
	}

	fb := Feedback{
		UserID:    userID,
		Comment:   comment,
		CreatedAt: time.Now().UTC(),
	}
	t.Feedback = append(t.Feedback, fb)
	l.UpdatedAt = fb.CreatedAt
	return fb, nil
}

func (l *WorkLog) TotalMinutes() int {
	return l.ToRecord().TotalMinutes()
}

func (l *WorkLog) HasBlockers() bool {
	return strings.TrimSpace(l.Blockers) != ""
}

// ToRecord projects the log onto the analytics input shape.
func (l *WorkLog) ToRecord() analytics.LogRecord {
	tasks := make([]analytics.TaskRecord, 0, len(l.Tasks))
	for _, t := range l.Tasks {
		tasks = append(tasks, analytics.TaskRecord{
			Description:  t.Description,
			MinutesSpent: t.MinutesSpent,
			Tags:         t.Tags,
			Status:       t.Status,
		})
	}

	return analytics.LogRecord{
		OwnerID:     l.UserID,
		Date:        l.Date,
		Tasks:       tasks,
		MoodScore:   l.Mood.Score,
		BlockerText: l.Blockers,
	}
}

func ToRecords(logs []*WorkLog) []analytics.LogRecord {
	records := make([]analytics.LogRecord, 0, len(logs))
	for _, l := range logs {
		records = append(records, l.ToRecord())
	}
	return records
}

// validateBlockers trims the text and rejects it when it is longer than
// MaxBlockersLen characters or not valid UTF-8.
func validateBlockers(s string) (string, error) {
	s = strings.TrimSpace(s)
	if !utf8.ValidString(s) || utf8.RuneCountInString(s) > MaxBlockersLen {
		return "", ErrBlockersTooLong
	}
	return s, nil
}
