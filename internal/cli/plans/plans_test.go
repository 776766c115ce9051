package plans

import (
	"bytes"
	"context"
	"os"
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

var now = time.Date(2026, 3, 9, 10, 0, 0, 0, time.UTC) // Monday

const planYAML = `
objectives:
  - title: Go
    estimated_minutes: 30
  - title: Piano
    estimated_minutes: 20
template:
  name: Spring
  days:
    monday:
      items:
        - objective: Go
        - objective: Piano
    tuesday:
      items:
        - objective: Go
`

func setup(t *testing.T) (*cli.Context, *sqlite.Store, *bytes.Buffer, *events.Recorder) {
	t.Helper()
	store := sqlite.NewStore(filepath.Join(t.TempDir(), "studyloop.db"))
	if err := store.Init(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	if err := store.AddUser(context.Background(), models.User{ID: "u1", Name: "ada", Timezone: "UTC", CreatedAt: now}); err != nil {
		t.Fatal(err)
	}

	rec := &events.Recorder{}
	ctx := cli.NewContext(context.Background(), store, clock.NewResolver(clock.NewFixed(now)), rec, 7)
	out := &bytes.Buffer{}
	ctx.Out = out

	path := filepath.Join(t.TempDir(), "plan.yaml")
	if err := os.WriteFile(path, []byte(planYAML), 0644); err != nil {
		t.Fatal(err)
	}
	if err := (&TemplateImportCmd{File: path}).Run(ctx); err != nil {
		t.Fatalf("template import: %v", err)
	}
	return ctx, store, out, rec
}

func TestTemplateImportAndShow(t *testing.T) {
	ctx, _, out, _ := setup(t)
	if !strings.Contains(out.String(), "Installed template") || !strings.Contains(out.String(), "2 objectives added") {
		t.Errorf("import output = %q", out.String())
	}
	// Monday and Tuesday of the current week.
	if !strings.Contains(out.String(), "3 records created") {
		t.Errorf("sync output = %q", out.String())
	}

	out.Reset()
	if err := (&TemplateShowCmd{}).Run(ctx); err != nil {
		t.Fatalf("template show: %v", err)
	}
	for _, want := range []string{"name: Spring", "monday:", "objective: Piano"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("show output missing %q:\n%s", want, out.String())
		}
	}
}

func TestDayAndMark(t *testing.T) {
	ctx, store, out, rec := setup(t)

	out.Reset()
	if err := (&DayCmd{}).Run(ctx); err != nil {
		t.Fatalf("day: %v", err)
	}
	if !strings.Contains(out.String(), "Monday 2026-03-09") || !strings.Contains(out.String(), "0/2 done") {
		t.Errorf("day output = %q", out.String())
	}

	if err := (&MarkCmd{Objective: "Go", Status: "completed"}).Run(ctx); err != nil {
		t.Fatalf("mark: %v", err)
	}
	minutes := 5
	if err := (&MarkCmd{Objective: "Piano", Status: "partial", Minutes: &minutes}).Run(ctx); err != nil {
		t.Fatalf("mark partial: %v", err)
	}
	if err := (&MarkCmd{Objective: "Nope", Status: "completed"}).Run(ctx); err == nil {
		t.Error("expected error for unknown objective")
	}
	if err := (&MarkCmd{Objective: "Go", Status: "completed", Date: "03/09"}).Run(ctx); err == nil {
		t.Error("expected error for malformed date")
	}

	goRec, err := store.FindByUserItemDay(context.Background(), "u1", mustObjective(t, store, "Go"), "2026-03-09")
	if err != nil {
		t.Fatal(err)
	}
	if goRec.Status != models.StatusCompleted || goRec.TimeSpent != 30 {
		t.Errorf("Go record = %+v", goRec)
	}
	if kinds := rec.Kinds(); len(kinds) == 0 || kinds[0] != "task_completed" {
		t.Errorf("events = %v", kinds)
	}

	out.Reset()
	if err := (&DayCmd{Date: "today"}).Run(ctx); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "1/2 done") {
		t.Errorf("day output after marks = %q", out.String())
	}
}

func TestStreakCmd(t *testing.T) {
	ctx, _, out, _ := setup(t)
	if err := (&MarkCmd{Objective: "Go", Status: "completed"}).Run(ctx); err != nil {
		t.Fatal(err)
	}

	out.Reset()
	if err := (&StreakCmd{}).Run(ctx); err != nil {
		t.Fatalf("streak: %v", err)
	}
	if !strings.Contains(out.String(), "Current streak: 1") || !strings.Contains(out.String(), "Last completed: 2026-03-09") {
		t.Errorf("streak output = %q", out.String())
	}
}

func mustObjective(t *testing.T, store *sqlite.Store, title string) string {
	t.Helper()
	o, err := store.GetObjectiveByTitle(context.Background(), "u1", title)
	if err != nil {
		t.Fatal(err)
	}
	return o.ID
}
