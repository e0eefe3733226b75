package domain

import (
	"time"

	"github.com/comitanigiacomo/devlog-engine/internal/core/analytics"
)

const DateLayout = "2006-01-02"

type Period struct {
	StartDate  string `json:"start_date"`
	EndDate    string `json:"end_date"`
	WindowDays int    `json:"window_days"`
}

func NewPeriod(start, end time.Time, windowDays int) Period {
	return Period{
		StartDate:  start.Format(DateLayout),
		EndDate:    end.Format(DateLayout),
		WindowDays: windowDays,
	}
}

type UserStats struct {
	UserID     string                     `json:"user_id"`
	Period     Period                     `json:"period"`
	Aggregates analytics.AggregateStats   `json:"aggregates"`
	Streaks    analytics.StreakResult     `json:"streaks"`
	TopTags    analytics.FrequencyRanking `json:"top_tags"`
}

type TeamStats struct {
	TeamID      string                     `json:"team_id"`
	TeamName    string                     `json:"team_name"`
	MemberCount int                        `json:"member_count"`
	Period      Period                     `json:"period"`
	Aggregates  analytics.AggregateStats   `json:"aggregates"`
	TopBlockers analytics.FrequencyRanking `json:"top_blockers"`
	TopTags     analytics.FrequencyRanking `json:"top_tags"`
}

type TimeDistribution struct {
	TeamID  string                       `json:"team_id"`
	Minutes map[analytics.TaskStatus]int `json:"minutes"`
}

type CalendarDay struct {
	Date        string `json:"date"`
	Mood        int    `json:"mood"`
	Minutes     int    `json:"minutes"`
	HasBlockers bool   `json:"has_blockers"`
}

type Calendar struct {
	Days    []CalendarDay          `json:"days"`
	Streaks analytics.StreakResult `json:"streaks"`
}

type WeeklyReport struct {
	UserID     string                     `json:"user_id"`
	UserName   string                     `json:"user_name"`
	Period     Period                     `json:"period"`
	Aggregates analytics.AggregateStats   `json:"aggregates"`
	Streaks    analytics.StreakResult     `json:"streaks"`
	TopTags    analytics.FrequencyRanking `json:"top_tags"`
	Logs       []*WorkLog                 `json:"logs"`
}
