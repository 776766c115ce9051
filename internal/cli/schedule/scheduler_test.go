package schedule

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/julianstephens/studyloop/internal/cli"
	"github.com/julianstephens/studyloop/internal/clock"
	"github.com/julianstephens/studyloop/internal/events"
	"github.com/julianstephens/studyloop/internal/models"
	"github.com/julianstephens/studyloop/internal/storage/sqlite"
)

func TestTickCmdSendsReminder(t *testing.T) {
	now := time.Date(2026, 3, 9, 17, 0, 0, 0, time.UTC) // Monday, afternoon reminder hour
	store := sqlite.NewStore(filepath.Join(t.TempDir(), "studyloop.db"))
	if err := store.Init(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })

	bg := context.Background()
	if err := store.AddUser(bg, models.User{ID: "u1", Name: "ada", RemindersEnabled: true, CreatedAt: now}); err != nil {
		t.Fatal(err)
	}
	if err := store.SaveObjective(bg, models.Objective{ID: "o1", UserID: "u1", Title: "Go", Active: true, CreatedAt: now}); err != nil {
		t.Fatal(err)
	}
	if err := store.SaveTemplate(bg, models.WeeklyTemplate{
		ID: "t1", UserID: "u1", Name: "week", IsDefault: true, IsActive: true, CreatedAt: now, UpdatedAt: now,
		Days: map[time.Weekday]models.DaySchedule{time.Monday: {Active: true, Items: []models.TemplateItem{{ObjectiveID: "o1"}}}},
	}); err != nil {
		t.Fatal(err)
	}

	rec := &events.Recorder{}
	ctx := cli.NewContext(bg, store, clock.NewResolver(clock.NewFixed(now)), rec, 7)
	out := &bytes.Buffer{}
	ctx.Out = out

	if err := (&TickCmd{}).Run(ctx); err != nil {
		t.Fatalf("tick: %v", err)
	}
	if !strings.Contains(out.String(), "1 users, 1 reminders") {
		t.Errorf("output = %q", out.String())
	}
	if kinds := rec.Kinds(); len(kinds) != 1 || kinds[0] != "reminder_due" {
		t.Errorf("events = %v", kinds)
	}
}

func TestRunCmdStopsOnCancel(t *testing.T) {
	store := sqlite.NewStore(filepath.Join(t.TempDir(), "studyloop.db"))
	if err := store.Init(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })

	bg, cancel := context.WithCancel(context.Background())
	cancel()
	ctx := cli.NewContext(bg, store, nil, nil, 7)
	ctx.Out = &bytes.Buffer{}
	if err := (&RunCmd{}).Run(ctx); err != nil {
		t.Errorf("run after cancel = %v", err)
	}
}
