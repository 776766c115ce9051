package backups

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/julianstephens/studyloop/internal/cli"
	"github.com/julianstephens/studyloop/internal/clock"
	"github.com/julianstephens/studyloop/internal/models"
	"github.com/julianstephens/studyloop/internal/storage/sqlite"
)

var now = time.Date(2026, 3, 9, 10, 0, 0, 0, time.UTC)

func setup(t *testing.T) (*cli.Context, *sqlite.Store, *clock.Fixed, *bytes.Buffer) {
	t.Helper()
	store := sqlite.NewStore(filepath.Join(t.TempDir(), "studyloop.db"))
	if err := store.Init(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	fixed := clock.NewFixed(now)
	ctx := cli.NewContext(context.Background(), store, clock.NewResolver(fixed), nil, 7)
	out := &bytes.Buffer{}
	ctx.Out = out
	return ctx, store, fixed, out
}

func TestCreateListRestore(t *testing.T) {
	ctx, store, fixed, out := setup(t)

	if err := (&BackupListCmd{}).Run(ctx); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "No backups found") {
		t.Errorf("empty list output = %q", out.String())
	}

	if err := (&BackupCreateCmd{}).Run(ctx); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := store.AddUser(context.Background(), models.User{ID: "u1", Name: "ada", CreatedAt: now}); err != nil {
		t.Fatal(err)
	}

	out.Reset()
	if err := (&BackupListCmd{}).Run(ctx); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "studyloop-20260309-100000.db") {
		t.Errorf("list output = %q", out.String())
	}

	// Declined confirmation leaves the database alone.
	oldConfirm := confirm
	confirm = func(string, string) (bool, error) { return false, nil }
	t.Cleanup(func() { confirm = oldConfirm })
	if err := (&BackupRestoreCmd{BackupFile: "studyloop-20260309-100000.db"}).Run(ctx); err != nil {
		t.Fatal(err)
	}
	if users, _ := store.ListUsers(context.Background()); len(users) != 1 {
		t.Fatalf("users after cancelled restore = %d", len(users))
	}

	fixed.Advance(time.Minute)
	out.Reset()
	if err := (&BackupRestoreCmd{BackupFile: "studyloop-20260309-100000.db", Yes: true}).Run(ctx); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if !strings.Contains(out.String(), "restored successfully") || !strings.Contains(out.String(), "20260309-100100") {
		t.Errorf("restore output = %q", out.String())
	}

	if err := store.Load(); err != nil {
		t.Fatal(err)
	}
	if users, _ := store.ListUsers(context.Background()); len(users) != 0 {
		t.Errorf("users after restore = %d, want 0", len(users))
	}
}

func TestRestoreMissingFile(t *testing.T) {
	ctx, _, _, _ := setup(t)
	if err := (&BackupRestoreCmd{BackupFile: "nope.db", Yes: true}).Run(ctx); err == nil {
		t.Error("expected error for missing backup")
	}
}
