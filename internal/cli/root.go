package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/julianstephens/studyloop/internal/analytics"
	"github.com/julianstephens/studyloop/internal/backup"
	"github.com/julianstephens/studyloop/internal/clock"
	apperr "github.com/julianstephens/studyloop/internal/errors"
	"github.com/julianstephens/studyloop/internal/events"
	"github.com/julianstephens/studyloop/internal/logger"
	"github.com/julianstephens/studyloop/internal/models"
	"github.com/julianstephens/studyloop/internal/progress"
	"github.com/julianstephens/studyloop/internal/reconcile"
	"github.com/julianstephens/studyloop/internal/scheduler"
	"github.com/julianstephens/studyloop/internal/storage"
	"github.com/julianstephens/studyloop/internal/storage/sqlite"
	"github.com/julianstephens/studyloop/internal/streak"
	"github.com/julianstephens/studyloop/internal/template"
)

// Context is handed to every command's Run method.
type Context struct {
	Store     storage.Provider
	Resolver  *clock.Resolver
	Engine    *reconcile.Engine
	Progress  *progress.Service
	Analytics *analytics.Service
	Streaks   *streak.Calculator
	Scheduler *scheduler.Scheduler
	Templates *template.Importer
	Sink      events.Sink
	LookBack  int
	Out       io.Writer

	ctx context.Context
}

// NewContext wires every service over store.
func NewContext(ctx context.Context, store storage.Provider, resolver *clock.Resolver, sink events.Sink, lookBack int) *Context {
	if resolver == nil {
		resolver = clock.NewResolver(nil)
	}
	engine := reconcile.NewEngine(store, resolver)
	return &Context{
		Store:     store,
		Resolver:  resolver,
		Engine:    engine,
		Progress:  progress.NewService(store, engine, sink, resolver, lookBack),
		Analytics: analytics.NewService(store, engine, resolver),
		Streaks:   streak.NewCalculator(store, engine, resolver),
		Scheduler: scheduler.New(store, engine, sink, resolver, lookBack),
		Templates: template.NewImporter(store, resolver.Clock()),
		Sink:      sink,
		LookBack:  lookBack,
		Out:       os.Stdout,
		ctx:       ctx,
	}
}

// Ctx is the command's cancellation context.
func (c *Context) Ctx() context.Context {
	if c.ctx == nil {
		return context.Background()
	}
	return c.ctx
}

// ResolveUser finds a user by id or name. An empty ref selects the only user.
func (c *Context) ResolveUser(ref string) (models.User, error) {
	ctx := c.Ctx()
	if ref == "" {
		users, err := c.Store.ListUsers(ctx)
		if err != nil {
			return models.User{}, err
		}
		switch len(users) {
		case 0:
			return models.User{}, errors.New("no users yet, run 'studyloop user add <name>' first")
		case 1:
			return users[0], nil
		default:
			return models.User{}, errors.New("several users exist, pass --user")
		}
	}

	u, err := c.Store.GetUser(ctx, ref)
	if err == nil {
		return u, nil
	}
	if !apperr.Is(err, apperr.ErrNotFound) {
		return models.User{}, err
	}
	u, err = c.Store.GetUserByName(ctx, ref)
	if apperr.Is(err, apperr.ErrNotFound) {
		return models.User{}, fmt.Errorf("unknown user %q", ref)
	}
	return u, err
}

// Frame is the user's current local clock.
func (c *Context) Frame(u models.User) clock.Frame {
	return c.Resolver.ForUser(u)
}

// SQLitePath returns the database file when the store is SQLite.
func (c *Context) SQLitePath() (string, bool) {
	if s, ok := c.Store.(*sqlite.Store); ok {
		return s.GetConfigPath(), true
	}
	return "", false
}

// PerformAutomaticBackup snapshots a SQLite database and logs failures.
func (c *Context) PerformAutomaticBackup() {
	path, ok := c.SQLitePath()
	if !ok {
		return
	}
	mgr := backup.NewManager(path, c.Resolver.Clock())
	if _, err := mgr.Create(); err != nil && !errors.Is(err, backup.ErrNoDatabase) {
		logger.Warn("Automatic backup failed", "error", err)
	}
}

func (c *Context) Printf(format string, args ...any) {
	fmt.Fprintf(c.Out, format, args...)
}

func (c *Context) Println(args ...any) {
	fmt.Fprintln(c.Out, args...)
}

// UserFlag is embedded by commands that act on one user.
type UserFlag struct {
	User string `help:"User id or name. Optional when only one user exists." env:"STUDYLOOP_USER" short:"u"`
}

// ParseDayArg accepts YYYY-MM-DD, "today", "yesterday", or empty for today.
func ParseDayArg(f clock.Frame, s string) (models.Day, error) {
	switch s {
	case "", "today":
		return f.Today(), nil
	case "yesterday":
		return f.Yesterday(), nil
	case "tomorrow":
		return f.Today().AddDays(1), nil
	}
	d, err := models.ParseDay(s)
	if err != nil {
		return "", fmt.Errorf("%w: %v", apperr.ErrInvalidDay, err)
	}
	return d, nil
}
