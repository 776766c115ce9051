package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/julianstephens/studyloop/internal/cli"
	"github.com/julianstephens/studyloop/internal/cli/backups"
	"github.com/julianstephens/studyloop/internal/cli/plans"
	"github.com/julianstephens/studyloop/internal/cli/reports"
	"github.com/julianstephens/studyloop/internal/cli/schedule"
	"github.com/julianstephens/studyloop/internal/cli/system"
	"github.com/julianstephens/studyloop/internal/cli/users"
	"github.com/julianstephens/studyloop/internal/clock"
	"github.com/julianstephens/studyloop/internal/constants"
	apperr "github.com/julianstephens/studyloop/internal/errors"
	"github.com/julianstephens/studyloop/internal/events"
	"github.com/julianstephens/studyloop/internal/logger"
	"github.com/julianstephens/studyloop/internal/notifier"
	"github.com/julianstephens/studyloop/internal/storage"
)

var CLI struct {
	Version  kong.VersionFlag
	Config   string `help:"SQLite file path, PostgreSQL connection string without password, or 'keyring'." env:"STUDYLOOP_DB" default:"~/.config/studyloop/studyloop.db"`
	Debug    bool   `help:"Log debug output to stderr." env:"STUDYLOOP_DEBUG"`
	LookBack int    `help:"Days before today each sync backfills." env:"STUDYLOOP_LOOK_BACK" default:"7"`

	Init    system.InitCmd    `cmd:"" help:"Initialize studyloop storage."`
	Migrate system.MigrateCmd `cmd:"" help:"Run database migrations."`
	Sync    system.SyncCmd    `cmd:"" help:"Reconcile scheduled objectives with recorded progress."`
	User    struct {
		Add  users.UserAddCmd  `cmd:"" help:"Add a user."`
		List users.UserListCmd `cmd:"" help:"List users."`
		Set  users.UserSetCmd  `cmd:"" help:"Change user preferences."`
	} `cmd:"" help:"Manage users."`
	Objective struct {
		Add  users.ObjectiveAddCmd  `cmd:"" help:"Add or update an objective."`
		List users.ObjectiveListCmd `cmd:"" help:"List objectives."`
	} `cmd:"" help:"Manage the objective catalog."`
	Template struct {
		Import plans.TemplateImportCmd `cmd:"" help:"Import a weekly template from YAML."`
		Watch  plans.TemplateWatchCmd  `cmd:"" help:"Re-import a template whenever the file changes."`
		Show   plans.TemplateShowCmd   `cmd:"" help:"Print the default template as YAML."`
	} `cmd:"" help:"Manage the weekly template."`
	Day       plans.DayCmd    `cmd:"" help:"Show progress for a day." default:"1"`
	Mark      plans.MarkCmd   `cmd:"" help:"Record progress on an objective."`
	Streak    plans.StreakCmd `cmd:"" help:"Show completion streaks."`
	Analytics struct {
		Overall    reports.OverallCmd    `cmd:"" help:"Overall completion statistics." default:"1"`
		Objectives reports.ObjectivesCmd `cmd:"" help:"Statistics per objective."`
		Categories reports.CategoriesCmd `cmd:"" help:"Statistics per category."`
		Calendar   reports.CalendarCmd   `cmd:"" help:"Month calendar of progress."`
		Week       reports.WeekCmd       `cmd:"" help:"This week, day by day."`
	} `cmd:"" help:"Progress analytics."`
	Scheduler struct {
		Run  schedule.RunCmd  `cmd:"" help:"Run the hourly reminder scheduler in the foreground."`
		Tick schedule.TickCmd `cmd:"" help:"Run a single scheduler pass."`
	} `cmd:"" help:"Reminders and weekly summaries."`
	Backup struct {
		Create  backups.BackupCreateCmd  `cmd:"" help:"Create a manual backup." default:"1"`
		List    backups.BackupListCmd    `cmd:"" help:"List available backups."`
		Restore backups.BackupRestoreCmd `cmd:"" help:"Restore from a backup."`
	} `cmd:"" help:"Manage database backups."`
	Keyring struct {
		Set    system.KeyringSetCmd    `cmd:"" help:"Store a PostgreSQL connection string in the OS keyring."`
		Delete system.KeyringDeleteCmd `cmd:"" help:"Remove the stored connection string."`
		Status system.KeyringStatusCmd `cmd:"" help:"Check keyring availability."`
	} `cmd:"" help:"Manage PostgreSQL credentials in the OS keyring."`
}

func main() {
	kctx := kong.Parse(&CLI,
		kong.Name(constants.AppName),
		kong.Description("Weekly study plan tracker that reconciles your schedule with your progress"),
		kong.UsageOnError(),
		kong.Configuration(kong.JSON, constants.DefaultConfigFile),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{"version": constants.Version},
	)

	command := strings.Fields(kctx.Command())[0]
	longRunning := command == "scheduler" || strings.HasPrefix(kctx.Command(), "template watch")

	logDir, err := storage.ExpandPath(filepath.Dir(constants.DefaultConfigPath))
	if err != nil {
		apperr.Fatal(err)
	}
	if err := logger.Init(logger.Config{Debug: CLI.Debug, ConfigDir: logDir, Foreground: longRunning}); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to initialize logger: %v\n", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	resolver := clock.NewResolver(nil)
	sink := events.MultiSink{events.LogSink{}, events.TraySink{Notifier: notifier.New()}}

	var store storage.Provider
	if command != "keyring" {
		if store, err = storage.New(CLI.Config); err != nil {
			apperr.Fatal(err)
		}
		if command != "init" && command != "migrate" {
			if err := store.Load(); err != nil {
				apperr.Fatal(err)
			}
		}
		defer store.Close()
	}

	appCtx := cli.NewContext(ctx, store, resolver, sink, CLI.LookBack)
	if err := kctx.Run(appCtx); err != nil {
		stop()
		apperr.Fatal(err)
	}
}
