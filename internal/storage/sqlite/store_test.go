package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	apperr "github.com/julianstephens/studyloop/internal/errors"
	"github.com/julianstephens/studyloop/internal/models"
)

func setupTestStore(t *testing.T) (*Store, func()) {
	t.Helper()
	store := NewStore(filepath.Join(t.TempDir(), "test.db"))
	if err := store.Init(); err != nil {
		t.Fatalf("failed to init store: %v", err)
	}
	return store, func() { store.Close() }
}

func seedUser(t *testing.T, s *Store) models.User {
	t.Helper()
	u := models.User{ID: "u1", Name: "ada", Timezone: "UTC", RemindersEnabled: true, CreatedAt: time.Now()}
	if err := s.AddUser(context.Background(), u); err != nil {
		t.Fatalf("AddUser: %v", err)
	}
	return u
}

func TestLoadRequiresInit(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "missing.db"))
	if err := store.Load(); err == nil {
		t.Fatal("expected error loading uninitialized store")
	}
}

func TestLoadAfterInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	store := NewStore(path)
	if err := store.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	store.Close()

	reopened := NewStore(path)
	defer reopened.Close()
	if err := reopened.Load(); err != nil {
		t.Fatalf("Load after Init: %v", err)
	}
	if reopened.GetConfigPath() != path {
		t.Errorf("GetConfigPath() = %q, want %q", reopened.GetConfigPath(), path)
	}
}

func TestUsers(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	u := seedUser(t, store)

	got, err := store.GetUserByName(ctx, "ada")
	if err != nil {
		t.Fatalf("GetUserByName: %v", err)
	}
	if got.ID != u.ID || !got.RemindersEnabled {
		t.Errorf("unexpected user: %+v", got)
	}

	got.Timezone = "Europe/Berlin"
	got.RemindersEnabled = false
	if err := store.UpdateUser(ctx, got); err != nil {
		t.Fatalf("UpdateUser: %v", err)
	}
	got, _ = store.GetUser(ctx, u.ID)
	if got.Timezone != "Europe/Berlin" || got.RemindersEnabled {
		t.Errorf("update not persisted: %+v", got)
	}

	if _, err := store.GetUser(ctx, "nope"); !apperr.Is(err, apperr.ErrNotFound) {
		t.Errorf("GetUser(missing) error = %v, want ErrNotFound", err)
	}

	users, err := store.ListUsers(ctx)
	if err != nil || len(users) != 1 {
		t.Fatalf("ListUsers = %v, %v", users, err)
	}
}

func TestObjectives(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	seedUser(t, store)

	for _, o := range []models.Objective{
		{ID: "o1", UserID: "u1", Title: "Go", Category: "lang", EstimatedMinutes: 30, Active: true},
		{ID: "o2", UserID: "u1", Title: "Rust", Active: false},
	} {
		if err := store.SaveObjective(ctx, o); err != nil {
			t.Fatalf("SaveObjective: %v", err)
		}
	}

	active, err := store.ListObjectives(ctx, "u1", false)
	if err != nil {
		t.Fatalf("ListObjectives: %v", err)
	}
	if len(active) != 1 || active[0].ID != "o1" {
		t.Errorf("active objectives = %+v", active)
	}

	all, _ := store.ListObjectives(ctx, "u1", true)
	if len(all) != 2 {
		t.Errorf("expected 2 objectives including inactive, got %d", len(all))
	}

	o, err := store.GetObjectiveByTitle(ctx, "u1", "Go")
	if err != nil || o.EstimatedMinutes != 30 {
		t.Errorf("GetObjectiveByTitle = %+v, %v", o, err)
	}
}

func TestTemplateRoundTrip(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	seedUser(t, store)

	if _, err := store.GetDefaultTemplate(ctx, "u1"); !apperr.Is(err, apperr.ErrNoTemplate) {
		t.Fatalf("expected ErrNoTemplate, got %v", err)
	}

	created := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	tpl := models.WeeklyTemplate{
		ID: "t1", UserID: "u1", Name: "week", IsDefault: true, IsActive: true,
		CreatedAt: created, UpdatedAt: created,
		Days: map[time.Weekday]models.DaySchedule{
			time.Monday:  {Active: true, Items: []models.TemplateItem{{ObjectiveID: "o1", DurationMin: 30}, {ObjectiveID: "o2"}}},
			time.Tuesday: {Active: false, Items: []models.TemplateItem{{ObjectiveID: "o1"}}},
		},
	}
	if err := store.SaveTemplate(ctx, tpl); err != nil {
		t.Fatalf("SaveTemplate: %v", err)
	}

	got, err := store.GetDefaultTemplate(ctx, "u1")
	if err != nil {
		t.Fatalf("GetDefaultTemplate: %v", err)
	}
	if !got.CreatedAt.Equal(created) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, created)
	}
	mon := got.Days[time.Monday]
	if !mon.Active || len(mon.Items) != 2 || mon.Items[0].ObjectiveID != "o1" || mon.Items[0].DurationMin != 30 {
		t.Errorf("monday schedule = %+v", mon)
	}
	if got.Days[time.Tuesday].Active {
		t.Error("tuesday should be inactive")
	}

	// A second default template replaces the first.
	tpl2 := tpl
	tpl2.ID = "t2"
	tpl2.CreatedAt = created.Add(time.Hour)
	tpl2.Days = map[time.Weekday]models.DaySchedule{}
	if err := store.SaveTemplate(ctx, tpl2); err != nil {
		t.Fatalf("SaveTemplate(t2): %v", err)
	}
	got, _ = store.GetDefaultTemplate(ctx, "u1")
	if got.ID != "t2" {
		t.Errorf("default template = %s, want t2", got.ID)
	}
}

func TestUpsertIfAbsent(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	now := time.Now()
	rec := models.ProgressRecord{
		UserID: "u1", ObjectiveID: "o1", Day: "2026-03-02", Status: models.StatusPending,
		CreatedAt: now, UpdatedAt: now,
	}
	inserted, err := store.UpsertIfAbsent(ctx, rec)
	if err != nil || !inserted {
		t.Fatalf("first UpsertIfAbsent = %v, %v", inserted, err)
	}

	rec.Status = models.StatusCompleted
	inserted, err = store.UpsertIfAbsent(ctx, rec)
	if err != nil {
		t.Fatalf("second UpsertIfAbsent: %v", err)
	}
	if inserted {
		t.Error("second UpsertIfAbsent should not insert")
	}

	got, err := store.FindByUserItemDay(ctx, "u1", "o1", "2026-03-02")
	if err != nil {
		t.Fatalf("FindByUserItemDay: %v", err)
	}
	if got.Status != models.StatusPending {
		t.Errorf("existing record was modified: status %s", got.Status)
	}
}

func TestPromoteAndDeleteGenerated(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	now := time.Now()
	for _, r := range []struct {
		obj    string
		day    models.Day
		status models.Status
	}{
		{"o1", "2026-03-01", models.StatusPending},
		{"o1", "2026-03-05", models.StatusPending},
		{"o1", "2026-03-06", models.StatusPending},
		{"o2", "2026-03-01", models.StatusCompleted},
		{"o3", "2026-03-01", models.StatusMissed},
	} {
		if _, err := store.UpsertIfAbsent(ctx, models.ProgressRecord{
			UserID: "u1", ObjectiveID: r.obj, Day: r.day, Status: r.status, CreatedAt: now, UpdatedAt: now,
		}); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	n, err := store.PromotePendingBefore(ctx, "u1", "2026-03-02", "2026-03-06")
	if err != nil || n != 1 {
		t.Fatalf("PromotePendingBefore = %d, %v; want 1", n, err)
	}
	got, _ := store.FindByUserItemDay(ctx, "u1", "o1", "2026-03-05")
	if got.Status != models.StatusMissed {
		t.Errorf("2026-03-05 status = %s, want missed", got.Status)
	}

	n, err = store.DeleteGeneratedBefore(ctx, "u1", "2026-03-02")
	if err != nil || n != 2 {
		t.Fatalf("DeleteGeneratedBefore = %d, %v; want 2", n, err)
	}
	completed, err := store.FindByUserItemDay(ctx, "u1", "o2", "2026-03-01")
	if err != nil {
		t.Fatalf("completed record must survive: %v", err)
	}

	pending, _ := store.FindByUserItemDay(ctx, "u1", "o1", "2026-03-06")
	ok, err := store.UpdateGeneratedStatus(ctx, pending.ID, models.StatusMissed)
	if err != nil || !ok {
		t.Fatalf("UpdateGeneratedStatus = %v, %v; want true", ok, err)
	}
	if ok, err := store.UpdateGeneratedStatus(ctx, completed.ID, models.StatusPending); err != nil || ok {
		t.Errorf("UpdateGeneratedStatus on completed = %v, %v; want false", ok, err)
	}

	n, err = store.DeleteGenerated(ctx, []string{pending.ID, completed.ID})
	if err != nil || n != 1 {
		t.Fatalf("DeleteGenerated = %d, %v; want 1", n, err)
	}
	if got, err := store.FindByUserItemDay(ctx, "u1", "o2", "2026-03-01"); err != nil || got.Status != models.StatusCompleted {
		t.Errorf("completed record = %+v, %v", got, err)
	}
}

func TestSaveProgressAndRanges(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	seedUser(t, store)
	if err := store.SaveObjective(ctx, models.Objective{ID: "o1", UserID: "u1", Title: "Go", Category: "lang", Active: true}); err != nil {
		t.Fatal(err)
	}

	now := time.Now()
	saved, err := store.SaveProgress(ctx, models.ProgressRecord{
		UserID: "u1", ObjectiveID: "o1", Day: "2026-03-02", Status: models.StatusCompleted,
		TimeSpent: 25, CompletedAt: &now, UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("SaveProgress(create): %v", err)
	}
	if saved.ID == "" {
		t.Fatal("expected generated ID")
	}

	again, err := store.SaveProgress(ctx, models.ProgressRecord{
		UserID: "u1", ObjectiveID: "o1", Day: "2026-03-02", Status: models.StatusPartial,
		Notes: "halfway", UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("SaveProgress(update): %v", err)
	}
	if again.ID != saved.ID {
		t.Errorf("update created a new record: %s != %s", again.ID, saved.ID)
	}

	if ok, err := store.UpdateGeneratedStatus(ctx, saved.ID, models.StatusMissed); err != nil || ok {
		t.Fatalf("UpdateGeneratedStatus on partial = %v, %v; want untouched", ok, err)
	}
	if n, err := store.DeleteGenerated(ctx, []string{saved.ID}); err != nil || n != 0 {
		t.Fatalf("DeleteGenerated on partial = %d, %v; want 0", n, err)
	}

	if _, err := store.SaveProgress(ctx, models.ProgressRecord{
		UserID: "u1", ObjectiveID: "o1", Day: "2026-03-02", Status: models.StatusCompleted,
		Notes: "halfway", CompletedAt: &now, UpdatedAt: now,
	}); err != nil {
		t.Fatalf("SaveProgress(complete): %v", err)
	}

	entries, err := store.ListRange(ctx, "u1", "2026-03-01", "2026-03-31")
	if err != nil {
		t.Fatalf("ListRange: %v", err)
	}
	if len(entries) != 1 || entries[0].ObjectiveTitle != "Go" || entries[0].Notes != "halfway" {
		t.Fatalf("ListRange = %+v", entries)
	}
	if entries[0].CompletedAt == nil {
		t.Error("completed record must carry completed_at")
	}

	days, err := store.CompletedDays(ctx, "u1")
	if err != nil || len(days) != 1 || days[0] != "2026-03-02" {
		t.Errorf("CompletedDays = %v, %v", days, err)
	}

	n, err := store.DeleteMany(ctx, []string{saved.ID})
	if err != nil || n != 1 {
		t.Errorf("DeleteMany = %d, %v", n, err)
	}
}
