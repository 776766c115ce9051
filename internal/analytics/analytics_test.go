package analytics

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/julianstephens/studyloop/internal/clock"
	"github.com/julianstephens/studyloop/internal/models"
	"github.com/julianstephens/studyloop/internal/reconcile"
	"github.com/julianstephens/studyloop/internal/storage/sqlite"
)

var now = time.Date(2026, 3, 9, 10, 0, 0, 0, time.UTC) // Monday

// setupService seeds a template created a week ago with o1+o2 on Mondays and
// o1 on Wednesdays, syncs, then completes o1 on both Mondays.
func setupService(t *testing.T) *Service {
	t.Helper()
	store := sqlite.NewStore(filepath.Join(t.TempDir(), "test.db"))
	if err := store.Init(); err != nil {
		t.Fatalf("failed to init store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	ctx := context.Background()
	if err := store.AddUser(ctx, models.User{ID: "u1", Name: "ada", Timezone: "UTC", CreatedAt: now}); err != nil {
		t.Fatal(err)
	}
	for _, o := range []models.Objective{
		{ID: "o1", UserID: "u1", Title: "Go", Category: "Languages", EstimatedMinutes: 30, Active: true, CreatedAt: now},
		{ID: "o2", UserID: "u1", Title: "Stretch", EstimatedMinutes: 10, Active: true, CreatedAt: now},
		{ID: "o3", UserID: "u1", Title: "Retired", Category: "Old", Active: false, CreatedAt: now},
	} {
		if err := store.SaveObjective(ctx, o); err != nil {
			t.Fatal(err)
		}
	}
	created := now.AddDate(0, 0, -7)
	if err := store.SaveTemplate(ctx, models.WeeklyTemplate{
		ID: "t1", UserID: "u1", Name: "week", IsDefault: true, IsActive: true,
		CreatedAt: created, UpdatedAt: created,
		Days: map[time.Weekday]models.DaySchedule{
			time.Monday:    {Active: true, Items: []models.TemplateItem{{ObjectiveID: "o1"}, {ObjectiveID: "o2"}}},
			time.Wednesday: {Active: true, Items: []models.TemplateItem{{ObjectiveID: "o1"}}},
		},
	}); err != nil {
		t.Fatal(err)
	}

	resolver := clock.NewResolver(clock.NewFixed(now))
	engine := reconcile.NewEngine(store, resolver)
	if _, err := engine.Sync(ctx, "u1", 7); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	for day, minutes := range map[models.Day]int{"2026-03-02": 45, "2026-03-09": 30} {
		done := now
		if _, err := store.SaveProgress(ctx, models.ProgressRecord{
			UserID: "u1", ObjectiveID: "o1", Day: day, Status: models.StatusCompleted,
			TimeSpent: minutes, CompletedAt: &done, UpdatedAt: now,
		}); err != nil {
			t.Fatal(err)
		}
	}
	return NewService(store, engine, resolver)
}

func TestParsePeriod(t *testing.T) {
	tests := []struct {
		in      string
		want    Period
		wantErr bool
	}{
		{"daily", PeriodDaily, false},
		{"weekly", PeriodWeekly, false},
		{"monthly", PeriodMonthly, false},
		{"all", PeriodAll, false},
		{"", PeriodAll, false},
		{"yearly", "", true},
	}
	for _, tt := range tests {
		got, err := ParsePeriod(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParsePeriod(%q) = %q, %v", tt.in, got, err)
		}
	}
}

func TestSummarize(t *testing.T) {
	entry := func(s models.Status, minutes int) models.ProgressEntry {
		return models.ProgressEntry{ProgressRecord: models.ProgressRecord{Status: s, TimeSpent: minutes}}
	}
	got := Summarize([]models.ProgressEntry{
		entry(models.StatusCompleted, 20),
		entry(models.StatusPartial, 5),
		entry(models.StatusSkipped, 0),
	})
	if got.Total != 3 || got.Completed != 1 || got.Partial != 1 || got.Skipped != 1 {
		t.Errorf("counts = %+v", got)
	}
	if got.CompletionRate != 33.33 {
		t.Errorf("CompletionRate = %v, want 33.33", got.CompletionRate)
	}
	if got.AverageTime != 8 {
		t.Errorf("AverageTime = %d, want 8", got.AverageTime)
	}
	if empty := Summarize(nil); empty.CompletionRate != 0 || empty.AverageTime != 0 {
		t.Errorf("empty = %+v", empty)
	}
}

func TestOverall(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	tests := []struct {
		period    Period
		total     int
		completed int
		rate      float64
	}{
		{PeriodDaily, 2, 1, 50},
		{PeriodWeekly, 3, 1, 33.33},
		{PeriodMonthly, 6, 2, 33.33},
		{PeriodAll, 6, 2, 33.33},
	}
	for _, tt := range tests {
		t.Run(string(tt.period), func(t *testing.T) {
			got, err := svc.Overall(ctx, "u1", tt.period)
			if err != nil {
				t.Fatalf("Overall: %v", err)
			}
			if got.Total != tt.total || got.Completed != tt.completed || got.CompletionRate != tt.rate {
				t.Errorf("Overall(%s) = %+v", tt.period, got)
			}
		})
	}

	all, _ := svc.Overall(ctx, "u1", PeriodAll)
	if all.Missed != 2 || all.Pending != 2 {
		t.Errorf("missed/pending = %d/%d, want 2/2", all.Missed, all.Pending)
	}
	if all.TotalTimeSpent != 75 || all.AverageTime != 13 {
		t.Errorf("time = %d avg %d, want 75 avg 13", all.TotalTimeSpent, all.AverageTime)
	}

	week, _ := svc.Overall(ctx, "u1", PeriodWeekly)
	if week.From != "2026-03-09" || week.To != "2026-03-15" {
		t.Errorf("weekly bounds = %s..%s", week.From, week.To)
	}
}

func TestByObjective(t *testing.T) {
	svc := setupService(t)

	got, err := svc.ByObjective(context.Background(), "u1", "", "")
	if err != nil {
		t.Fatalf("ByObjective: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2 active objectives", len(got))
	}
	if got[0].Objective.ID != "o1" || got[0].Total != 4 || got[0].CompletionRate != 50 {
		t.Errorf("first = %+v", got[0])
	}
	if got[1].Objective.ID != "o2" || got[1].CompletionRate != 0 {
		t.Errorf("second = %+v", got[1])
	}

	bounded, err := svc.ByObjective(context.Background(), "u1", "2026-03-09", "2026-03-09")
	if err != nil {
		t.Fatal(err)
	}
	if bounded[0].Total != 1 || bounded[0].Completed != 1 {
		t.Errorf("bounded first = %+v", bounded[0])
	}
}

func TestByCategory(t *testing.T) {
	svc := setupService(t)

	got, err := svc.ByCategory(context.Background(), "u1", "", "")
	if err != nil {
		t.Fatalf("ByCategory: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("categories = %+v", got)
	}
	if got[0].Category != "Languages" || got[0].Objectives != 1 || got[0].Completed != 2 {
		t.Errorf("Languages = %+v", got[0])
	}
	if got[1].Category != "Uncategorized" || got[1].Total != 2 {
		t.Errorf("Uncategorized = %+v", got[1])
	}
}

func TestCalendar(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	days, err := svc.Calendar(ctx, "u1", 0, 0)
	if err != nil {
		t.Fatalf("Calendar: %v", err)
	}
	if len(days) != 31 || days[0].Day != "2026-03-01" || days[30].Day != "2026-03-31" {
		t.Fatalf("calendar spans %d days", len(days))
	}
	mon := days[1]
	if mon.Total != 2 || mon.Completed != 1 || mon.Missed != 1 || len(mon.Entries) != 2 {
		t.Errorf("2026-03-02 = %+v", mon)
	}
	if days[0].Total != 0 || days[0].Entries == nil {
		t.Errorf("empty day = %+v", days[0])
	}

	feb, err := svc.Calendar(ctx, "u1", 2026, time.February)
	if err != nil || len(feb) != 28 {
		t.Errorf("February = %d days, %v", len(feb), err)
	}

	if _, err := svc.Calendar(ctx, "u1", 2026, 13); err == nil {
		t.Error("expected error for month 13")
	}
}

func TestWeeklyChart(t *testing.T) {
	svc := setupService(t)

	chart, err := svc.WeeklyChart(context.Background(), "u1")
	if err != nil {
		t.Fatalf("WeeklyChart: %v", err)
	}
	if len(chart) != 7 || chart[0].Weekday != time.Monday || chart[6].Weekday != time.Sunday {
		t.Fatalf("chart = %+v", chart)
	}
	if chart[0].Total != 2 || chart[0].Completed != 1 || chart[0].Hours != 0.5 || chart[0].TotalTimeSpent != 30 {
		t.Errorf("Monday = %+v", chart[0])
	}
	if chart[2].Pending != 1 {
		t.Errorf("Wednesday = %+v", chart[2])
	}
	if chart[6].Total != 0 {
		t.Errorf("Sunday = %+v", chart[6])
	}
}

func TestUnknownUser(t *testing.T) {
	svc := setupService(t)
	if _, err := svc.Overall(context.Background(), "nobody", PeriodAll); err == nil {
		t.Error("expected error for unknown user")
	}
}
