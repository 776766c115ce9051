package events

import (
	"context"
	"errors"
	"testing"
)

func TestReminderDue(t *testing.T) {
	tests := []struct {
		name      string
		ev        ReminderDue
		wantTitle string
		wantMsg   string
	}{
		{
			name:      "afternoon single",
			ev:        ReminderDue{PendingItemTitles: []string{"Go"}, Hour: 17},
			wantTitle: "Pending Tasks Reminder",
			wantMsg:   "You have 1 pending task today: Go. Keep going!",
		},
		{
			name:      "night truncated",
			ev:        ReminderDue{PendingItemTitles: []string{"a", "b", "c", "d", "e"}, Hour: 22},
			wantTitle: "Late Night Reminder",
			wantMsg:   "You have 5 pending tasks today: a, b, c and 2 more. Keep going!",
		},
		{
			name:      "unnamed",
			ev:        ReminderDue{PendingItemTitles: []string{"", "b"}, Hour: 20},
			wantTitle: "Late Night Reminder",
			wantMsg:   "You have 2 pending tasks today: Unnamed task, b. Keep going!",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.ev.Title(); got != tt.wantTitle {
				t.Errorf("Title() = %q, want %q", got, tt.wantTitle)
			}
			if got := tt.ev.Message(); got != tt.wantMsg {
				t.Errorf("Message() = %q, want %q", got, tt.wantMsg)
			}
		})
	}
}

func TestEventTexts(t *testing.T) {
	tests := []struct {
		ev        Event
		wantTitle string
		wantMsg   string
	}{
		{WeeklySummary{CompletedCount: 4, From: "2026-03-02", To: "2026-03-08"}, "Weekly Summary",
			"You completed 4 tasks between 2026-03-02 and 2026-03-08."},
		{TaskCompleted{ObjectiveTitle: "Go"}, "Task Completed!", `Great work! You completed "Go".`},
		{DayCompleted{Count: 1}, "All Tasks Done!", "You have completed all 1 task for today. Amazing consistency!"},
		{StreakMilestone{Days: 7}, "7-Day Streak!", "Incredible! You have maintained a 7-day learning streak. Keep it up!"},
	}
	for _, tt := range tests {
		t.Run(tt.ev.Kind(), func(t *testing.T) {
			if tt.ev.Title() != tt.wantTitle || tt.ev.Message() != tt.wantMsg {
				t.Errorf("got %q / %q", tt.ev.Title(), tt.ev.Message())
			}
		})
	}
}

type failingSink struct{ err error }

func (f failingSink) Emit(context.Context, Event) error { return f.err }

type recordingNotifier struct{ title, text string }

func (n *recordingNotifier) Notify(_ context.Context, title, text string) error {
	n.title, n.text = title, text
	return nil
}

func TestSinks(t *testing.T) {
	ctx := context.Background()
	rec := &Recorder{}
	tray := &recordingNotifier{}
	boom := errors.New("boom")

	multi := MultiSink{rec, LogSink{}, TraySink{Notifier: tray}, failingSink{boom}}
	err := multi.Emit(ctx, StreakMilestone{UserID: "u1", Days: 3})
	if !errors.Is(err, boom) {
		t.Errorf("MultiSink error = %v, want boom", err)
	}
	if kinds := rec.Kinds(); len(kinds) != 1 || kinds[0] != "streak_milestone" {
		t.Errorf("recorded kinds = %v", kinds)
	}
	if tray.title != "3-Day Streak!" {
		t.Errorf("tray title = %q", tray.title)
	}

	// Emit swallows delivery errors.
	Emit(ctx, failingSink{boom}, TaskCompleted{UserID: "u1"})
	Emit(ctx, nil, TaskCompleted{UserID: "u1"})
}
