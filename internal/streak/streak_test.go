package streak

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/julianstephens/studyloop/internal/clock"
	"github.com/julianstephens/studyloop/internal/constants"
	"github.com/julianstephens/studyloop/internal/models"
	"github.com/julianstephens/studyloop/internal/reconcile"
)

func TestCompute(t *testing.T) {
	const today models.Day = "2026-03-09"

	tests := []struct {
		name        string
		days        []models.Day
		wantCurrent int
		wantLongest int
		wantTotal   int
	}{
		{"no completions", nil, 0, 0, 0},
		{"anchored yesterday", []models.Day{"2026-03-08", "2026-03-07", "2026-03-05"}, 2, 2, 3},
		{"anchored today", []models.Day{"2026-03-09", "2026-03-08"}, 2, 2, 2},
		{"broken streak", []models.Day{"2026-03-06", "2026-03-05", "2026-03-04"}, 0, 3, 3},
		{"longest in the past", []models.Day{
			"2026-03-09",
			"2026-02-01", "2026-02-02", "2026-02-03", "2026-02-04",
		}, 1, 4, 5},
		{"duplicate days collapse", []models.Day{"2026-03-08", "2026-03-08", "2026-03-07"}, 2, 2, 2},
		{"month boundary", []models.Day{"2026-03-01", "2026-02-28", "2026-02-27"}, 0, 3, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Compute(tt.days, today)
			if got.Current != tt.wantCurrent {
				t.Errorf("Current = %d, want %d", got.Current, tt.wantCurrent)
			}
			if got.Longest != tt.wantLongest {
				t.Errorf("Longest = %d, want %d", got.Longest, tt.wantLongest)
			}
			if got.TotalCompletedDays != tt.wantTotal {
				t.Errorf("TotalCompletedDays = %d, want %d", got.TotalCompletedDays, tt.wantTotal)
			}
			if tt.wantTotal == 0 && got.LastCompletedDay != nil {
				t.Error("LastCompletedDay should be nil without completions")
			}
		})
	}
}

func TestIsMilestone(t *testing.T) {
	for _, n := range []int{3, 7, 100} {
		if !IsMilestone(n) {
			t.Errorf("IsMilestone(%d) = false", n)
		}
	}
	if IsMilestone(4) {
		t.Error("IsMilestone(4) = true")
	}
}

type fakeStore struct {
	user models.User
	days []models.Day
}

func (f fakeStore) GetUser(context.Context, string) (models.User, error) { return f.user, nil }
func (f fakeStore) CompletedDays(context.Context, string) ([]models.Day, error) {
	return f.days, nil
}

type fakeSyncer struct {
	calls    int
	lookBack int
	err      error
}

func (f *fakeSyncer) Sync(_ context.Context, _ string, lookBack int) (reconcile.Report, error) {
	f.calls++
	f.lookBack = lookBack
	return reconcile.Report{}, f.err
}

func TestCalculatorSyncsFirstAndUsesLocalToday(t *testing.T) {
	// Completed on N-1 and N-2, nothing on N-3, nothing yet today.
	store := fakeStore{
		user: models.User{ID: "u1", Timezone: "America/New_York"},
		days: []models.Day{"2026-03-08", "2026-03-07", "2026-03-05"},
	}
	// 02:00 UTC on the 10th is still the 9th in New York.
	fixed := clock.NewFixed(time.Date(2026, 3, 10, 2, 0, 0, 0, time.UTC))
	syncer := &fakeSyncer{err: errors.New("transient")}

	info, err := NewCalculator(store, syncer, clock.NewResolver(fixed)).Compute(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if syncer.calls != 1 {
		t.Errorf("sync calls = %d, want 1", syncer.calls)
	}
	if syncer.lookBack != constants.CalendarLookBackDays {
		t.Errorf("sync look-back = %d, want %d", syncer.lookBack, constants.CalendarLookBackDays)
	}
	if info.Current != 2 || info.Longest < 2 {
		t.Errorf("info = %+v, want current 2 and longest >= 2", info)
	}
	if info.LastCompletedDay == nil || *info.LastCompletedDay != "2026-03-08" {
		t.Errorf("LastCompletedDay = %v", info.LastCompletedDay)
	}
}
