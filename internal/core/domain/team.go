package domain

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrTeamNotFound      = errors.New("team not found")
	ErrTeamNameEmpty     = errors.New("team name cannot be empty")
	ErrTeamNameTooLong   = errors.New("team name is too long (max 100 chars)")
	ErrInvalidDeadline   = errors.New("invalid submission deadline (must be HH:MM 24h)")
	ErrInvalidMembers    = errors.New("some members are invalid or not developers")
	ErrTeamInvalidUserID = errors.New("invalid manager id")
)

var deadlineRegex = regexp.MustCompile(`^([0-1]?[0-9]|2[0-3]):[0-5][0-9]$`)

const (
	DefaultSubmissionDeadline = "22:00"
	MaxTeamNameLen            = 100
)

type TeamSettings struct {
	LogSubmissionDeadline   string `json:"log_submission_deadline"`
	RequireMoodTracking     bool   `json:"require_mood_tracking"`
	RequireBlockerReporting bool   `json:"require_blocker_reporting"`
	AutoReminders           bool   `json:"auto_reminders"`
}

func DefaultTeamSettings() TeamSettings {
	return TeamSettings{
		LogSubmissionDeadline:   DefaultSubmissionDeadline,
		RequireMoodTracking:     true,
		RequireBlockerReporting: true,
		AutoReminders:           true,
	}
}

type Team struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	ManagerID   string       `json:"manager_id"`
	Members     []string     `json:"members"`
	Description string       `json:"description,omitempty"`
	Department  string       `json:"department,omitempty"`
	Settings    TeamSettings `json:"settings"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

func NewTeam(managerID, name, description, department string, members []string) (*Team, error) {
	if strings.TrimSpace(managerID) == "" {
		return nil, ErrTeamInvalidUserID
	}

	cleanName, err := validateTeamName(name)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &Team{
		ID:          uuid.NewString(),
		Name:        cleanName,
		ManagerID:   managerID,
		Members:     uniqueMembers(members),
		Description: strings.TrimSpace(description),
		Department:  strings.TrimSpace(department),
		Settings:    DefaultTeamSettings(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

func (t *Team) Update(name, description, department string, members []string, settings *TeamSettings) error {
	cleanName, err := validateTeamName(name)
	if err != nil {
		return err
	}

	if settings != nil {
		if !deadlineRegex.MatchString(settings.LogSubmissionDeadline) {
			return ErrInvalidDeadline
		}
		t.Settings = *settings
	}

	t.Name = cleanName
	t.Description = strings.TrimSpace(description)
	t.Department = strings.TrimSpace(department)
	if members != nil {
		t.Members = uniqueMembers(members)
	}
	t.UpdatedAt = time.Now().UTC()
	return nil
}

func (t *Team) HasMember(userID string) bool {
	for _, m := range t.Members {
		if m == userID {
			return true
		}
	}
	return false
}

// CanView reports whether the user is the team's manager or one of its members.
func (t *Team) CanView(userID string) bool {
	return t.ManagerID == userID || t.HasMember(userID)
}

func validateTeamName(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", ErrTeamNameEmpty
	}
	if len(trimmed) > MaxTeamNameLen {
		return "", ErrTeamNameTooLong
	}
	return trimmed, nil
}

func uniqueMembers(members []string) []string {
	seen := make(map[string]bool)
	out := make([]string, 0, len(members))
	for _, m := range members {
		m = strings.TrimSpace(m)
		if m == "" || seen[m] {
			continue
		}
		seen[m] = true
		out = append(out, m)
	}
	return out
}
