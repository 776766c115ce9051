// Package events is the boundary to notification delivery. Producers emit and
// move on; delivery failures are logged, never returned to them.
package events

import (
	"context"
	"fmt"
	"strings"

	"github.com/julianstephens/studyloop/internal/constants"
	"github.com/julianstephens/studyloop/internal/models"
)

type Event interface {
	Kind() string
	User() string
	Title() string
	Message() string
}

// ReminderDue lists the titles of today's still-pending records.
type ReminderDue struct {
	UserID            string
	PendingItemTitles []string
	Hour              int // local hour the reminder fired
}

func (e ReminderDue) Kind() string { return "reminder_due" }
func (e ReminderDue) User() string { return e.UserID }

func (e ReminderDue) Title() string {
	if e.Hour >= constants.NightThresholdHour {
		return "Late Night Reminder"
	}
	return "Pending Tasks Reminder"
}

func (e ReminderDue) Message() string {
	n := len(e.PendingItemTitles)
	shown := e.PendingItemTitles
	if n > constants.ReminderTitleLimit {
		shown = shown[:constants.ReminderTitleLimit]
	}
	titles := make([]string, len(shown))
	for i, t := range shown {
		if t == "" {
			t = "Unnamed task"
		}
		titles[i] = t
	}
	extra := ""
	if n > constants.ReminderTitleLimit {
		extra = fmt.Sprintf(" and %d more", n-constants.ReminderTitleLimit)
	}
	return fmt.Sprintf("You have %d pending %s today: %s%s. Keep going!",
		n, plural(n, "task"), strings.Join(titles, ", "), extra)
}

// WeeklySummary counts completions on From..To, the 7 local days before it fired.
type WeeklySummary struct {
	UserID         string
	CompletedCount int
	From, To       models.Day
}

func (e WeeklySummary) Kind() string  { return "weekly_summary" }
func (e WeeklySummary) User() string  { return e.UserID }
func (e WeeklySummary) Title() string { return "Weekly Summary" }

func (e WeeklySummary) Message() string {
	return fmt.Sprintf("You completed %d %s between %s and %s.",
		e.CompletedCount, plural(e.CompletedCount, "task"), e.From, e.To)
}

type TaskCompleted struct {
	UserID         string
	ObjectiveTitle string
	Day            models.Day
}

func (e TaskCompleted) Kind() string  { return "task_completed" }
func (e TaskCompleted) User() string  { return e.UserID }
func (e TaskCompleted) Title() string { return "Task Completed!" }

func (e TaskCompleted) Message() string {
	title := e.ObjectiveTitle
	if title == "" {
		title = "a task"
	}
	return fmt.Sprintf("Great work! You completed %q.", title)
}

// DayCompleted fires when every record of the day is completed or skipped.
type DayCompleted struct {
	UserID string
	Day    models.Day
	Count  int
}

func (e DayCompleted) Kind() string  { return "day_completed" }
func (e DayCompleted) User() string  { return e.UserID }
func (e DayCompleted) Title() string { return "All Tasks Done!" }

func (e DayCompleted) Message() string {
	return fmt.Sprintf("You have completed all %d %s for today. Amazing consistency!", e.Count, plural(e.Count, "task"))
}

type StreakMilestone struct {
	UserID string
	Days   int
}

func (e StreakMilestone) Kind() string  { return "streak_milestone" }
func (e StreakMilestone) User() string  { return e.UserID }
func (e StreakMilestone) Title() string { return fmt.Sprintf("%d-Day Streak!", e.Days) }

func (e StreakMilestone) Message() string {
	return fmt.Sprintf("Incredible! You have maintained a %d-day learning streak. Keep it up!", e.Days)
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}

// Sink delivers events.
type Sink interface {
	Emit(ctx context.Context, ev Event) error
}
