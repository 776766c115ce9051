package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/julianstephens/studyloop/internal/clock"
	"github.com/julianstephens/studyloop/internal/events"
	"github.com/julianstephens/studyloop/internal/models"
	"github.com/julianstephens/studyloop/internal/reconcile"
)

type fakeStore struct {
	users   []models.User
	entries map[string][]models.ProgressEntry
	failFor string
}

func (f *fakeStore) ListUsers(context.Context) ([]models.User, error) { return f.users, nil }

func (f *fakeStore) ListRange(_ context.Context, userID string, from, to models.Day) ([]models.ProgressEntry, error) {
	if userID == f.failFor {
		return nil, errors.New("storage down")
	}
	var out []models.ProgressEntry
	for _, e := range f.entries[userID] {
		if !e.Day.Before(from) && !e.Day.After(to) {
			out = append(out, e)
		}
	}
	return out, nil
}

type countingSyncer struct {
	mu    sync.Mutex
	users map[string]int
}

func (c *countingSyncer) Sync(_ context.Context, userID string, _ int) (reconcile.Report, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.users == nil {
		c.users = map[string]int{}
	}
	c.users[userID]++
	return reconcile.Report{}, nil
}

func entry(day models.Day, title string, status models.Status) models.ProgressEntry {
	return models.ProgressEntry{
		ProgressRecord: models.ProgressRecord{Day: day, Status: status},
		ObjectiveTitle: title,
	}
}

func newFixture(now time.Time) (*Scheduler, *fakeStore, *countingSyncer, *events.Recorder) {
	store := &fakeStore{
		users: []models.User{
			{ID: "utc", Timezone: "UTC", RemindersEnabled: true},
			{ID: "quiet", Timezone: "UTC", RemindersEnabled: false},
			{ID: "tokyo", Timezone: "Asia/Tokyo", RemindersEnabled: true},
		},
		entries: map[string][]models.ProgressEntry{
			"utc": {
				entry("2026-03-09", "Go", models.StatusPending),
				entry("2026-03-09", "Rust", models.StatusCompleted),
				entry("2026-03-03", "Go", models.StatusCompleted),
				entry("2026-03-08", "Go", models.StatusCompleted),
				entry("2026-03-08", "Rust", models.StatusMissed),
				entry("2026-03-01", "Go", models.StatusCompleted), // outside last week
			},
			"quiet": {entry("2026-03-09", "Go", models.StatusPending)},
			"tokyo": {entry("2026-03-10", "Go", models.StatusPending)},
		},
	}
	syncer := &countingSyncer{}
	rec := &events.Recorder{}
	s := New(store, syncer, rec, clock.NewResolver(clock.NewFixed(now)), 7)
	return s, store, syncer, rec
}

func TestTickAfternoonReminder(t *testing.T) {
	// Monday 17:00 UTC is Tuesday 02:00 in Tokyo.
	s, _, syncer, rec := newFixture(time.Date(2026, 3, 9, 17, 0, 0, 0, time.UTC))

	rep, err := s.Tick(context.Background())
	if err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if rep.Users != 3 || rep.Reminders != 1 || rep.Summaries != 0 {
		t.Errorf("report = %+v", rep)
	}
	for _, id := range []string{"utc", "quiet", "tokyo"} {
		if syncer.users[id] != 1 {
			t.Errorf("user %s synced %d times, want 1", id, syncer.users[id])
		}
	}

	evs := rec.Events()
	if len(evs) != 1 {
		t.Fatalf("events = %v", rec.Kinds())
	}
	reminder, ok := evs[0].(events.ReminderDue)
	if !ok || reminder.UserID != "utc" || len(reminder.PendingItemTitles) != 1 || reminder.PendingItemTitles[0] != "Go" {
		t.Errorf("reminder = %+v", evs[0])
	}
	if reminder.Title() != "Pending Tasks Reminder" {
		t.Errorf("title = %q", reminder.Title())
	}
}

func TestTickNightReminderTitle(t *testing.T) {
	s, _, _, rec := newFixture(time.Date(2026, 3, 9, 22, 0, 0, 0, time.UTC))

	if _, err := s.Tick(context.Background()); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	evs := rec.Events()
	if len(evs) != 1 || evs[0].Title() != "Late Night Reminder" {
		t.Errorf("events = %v", rec.Kinds())
	}
}

func TestTickWeeklySummary(t *testing.T) {
	s, _, _, rec := newFixture(time.Date(2026, 3, 9, 9, 0, 0, 0, time.UTC))

	rep, err := s.Tick(context.Background())
	if err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if rep.Summaries != 1 {
		t.Fatalf("Summaries = %d, want 1", rep.Summaries)
	}
	summary, ok := rec.Events()[0].(events.WeeklySummary)
	if !ok {
		t.Fatalf("event = %T", rec.Events()[0])
	}
	if summary.CompletedCount != 2 || summary.From != "2026-03-02" || summary.To != "2026-03-08" {
		t.Errorf("summary = %+v", summary)
	}
}

func TestTickUserFailureIsIsolated(t *testing.T) {
	s, store, _, rec := newFixture(time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC))
	// 08:00 UTC is 17:00 in Tokyo; the UTC user is outside reminder hours.
	store.failFor = "utc"

	rep, err := s.Tick(context.Background())
	if err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if rep.Reminders != 1 || rep.Failures != 0 {
		t.Errorf("report = %+v", rep)
	}
	if evs := rec.Events(); len(evs) != 1 || evs[0].User() != "tokyo" {
		t.Errorf("events = %v", rec.Kinds())
	}

	store.failFor = "tokyo"
	rep, _ = s.Tick(context.Background())
	if rep.Failures != 1 {
		t.Errorf("Failures = %d, want 1", rep.Failures)
	}
}

func TestNextHour(t *testing.T) {
	got := NextHour(time.Date(2026, 3, 9, 16, 59, 30, 0, time.UTC))
	if want := time.Date(2026, 3, 9, 17, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Errorf("NextHour = %v, want %v", got, want)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	s, _, _, _ := newFixture(time.Date(2026, 3, 9, 16, 0, 0, 0, time.UTC))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := s.Run(ctx); err != nil {
		t.Errorf("Run() = %v, want nil", err)
	}
}
