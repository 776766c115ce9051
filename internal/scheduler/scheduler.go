// Package scheduler is the hourly trigger: it reconciles every user and emits
// reminder and weekly-summary events at fixed local hours.
package scheduler

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/julianstephens/studyloop/internal/clock"
	"github.com/julianstephens/studyloop/internal/constants"
	"github.com/julianstephens/studyloop/internal/events"
	"github.com/julianstephens/studyloop/internal/logger"
	"github.com/julianstephens/studyloop/internal/models"
	"github.com/julianstephens/studyloop/internal/reconcile"
)

type Store interface {
	ListUsers(ctx context.Context) ([]models.User, error)
	ListRange(ctx context.Context, userID string, from, to models.Day) ([]models.ProgressEntry, error)
}

type Scheduler struct {
	store       Store
	syncer      reconcile.Syncer
	sink        events.Sink
	resolver    *clock.Resolver
	lookBack    int
	concurrency int
}

func New(store Store, syncer reconcile.Syncer, sink events.Sink, resolver *clock.Resolver, lookBack int) *Scheduler {
	if resolver == nil {
		resolver = clock.NewResolver(nil)
	}
	if lookBack <= 0 {
		lookBack = constants.DefaultLookBackDays
	}
	return &Scheduler{
		store:       store,
		syncer:      syncer,
		sink:        sink,
		resolver:    resolver,
		lookBack:    lookBack,
		concurrency: constants.SchedulerConcurrency,
	}
}

// TickReport summarises one hourly pass.
type TickReport struct {
	Users     int
	Reminders int
	Summaries int
	Failures  int
}

// Run ticks at the top of every wall-clock hour until ctx is done.
func (s *Scheduler) Run(ctx context.Context) error {
	logger.Info("Scheduler started")
	for {
		now := s.resolver.Clock().Now()
		wait := NextHour(now).Sub(now)
		logger.Debug("Waiting for next tick", "in", wait)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			logger.Info("Scheduler stopped")
			return nil
		case <-timer.C:
		}

		rep, err := s.Tick(ctx)
		if err != nil {
			logger.Error("Scheduler tick failed", "error", err)
			continue
		}
		logger.Info("Scheduler tick", "users", rep.Users, "reminders", rep.Reminders,
			"summaries", rep.Summaries, "failures", rep.Failures)
	}
}

// NextHour returns the start of the hour after t.
func NextHour(t time.Time) time.Time {
	return t.Truncate(time.Hour).Add(time.Hour)
}

// Tick processes every user once. A failing user is logged and counted; it
// never stops the others.
func (s *Scheduler) Tick(ctx context.Context) (TickReport, error) {
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return TickReport{}, fmt.Errorf("failed to list users: %w", err)
	}

	var reminders, summaries, failures atomic.Int32
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for _, u := range users {
		g.Go(func() error {
			r, w, err := s.tickUser(gctx, u)
			if err != nil {
				logger.Warn("Scheduler user failed", "user", u.ID, "error", err)
				failures.Add(1)
			}
			if r {
				reminders.Add(1)
			}
			if w {
				summaries.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()

	return TickReport{
		Users:     len(users),
		Reminders: int(reminders.Load()),
		Summaries: int(summaries.Load()),
		Failures:  int(failures.Load()),
	}, nil
}

func (s *Scheduler) tickUser(ctx context.Context, u models.User) (reminded, summarised bool, err error) {
	if _, err := s.syncer.Sync(ctx, u.ID, s.lookBack); err != nil {
		// The ledger is at worst one pass stale; keep going.
		logger.Warn("Scheduled sync failed", "user", u.ID, "error", err)
	}

	if !u.RemindersEnabled {
		return false, false, nil
	}

	frame := s.resolver.ForUser(u)
	hour := frame.Hour()
	today := frame.Today()

	if hour == constants.ReminderAfternoonHour || hour == constants.ReminderNightHour {
		if reminded, err = s.remind(ctx, u, today, hour); err != nil {
			return reminded, false, err
		}
	}

	if frame.Weekday() == time.Monday && hour == constants.WeeklySummaryHour {
		if summarised, err = s.summarise(ctx, u, today); err != nil {
			return reminded, summarised, err
		}
	}
	return reminded, summarised, nil
}

func (s *Scheduler) remind(ctx context.Context, u models.User, today models.Day, hour int) (bool, error) {
	entries, err := s.store.ListRange(ctx, u.ID, today, today)
	if err != nil {
		return false, fmt.Errorf("failed to load today's progress: %w", err)
	}
	var titles []string
	for _, e := range entries {
		if e.Status == models.StatusPending {
			titles = append(titles, e.ObjectiveTitle)
		}
	}
	if len(titles) == 0 {
		return false, nil
	}
	events.Emit(ctx, s.sink, events.ReminderDue{UserID: u.ID, PendingItemTitles: titles, Hour: hour})
	return true, nil
}

func (s *Scheduler) summarise(ctx context.Context, u models.User, today models.Day) (bool, error) {
	from := today.AddDays(-constants.WeeklySummaryDays)
	to := today.AddDays(-1)
	entries, err := s.store.ListRange(ctx, u.ID, from, to)
	if err != nil {
		return false, fmt.Errorf("failed to load last week's progress: %w", err)
	}
	completed := 0
	for _, e := range entries {
		if e.Status == models.StatusCompleted {
			completed++
		}
	}
	events.Emit(ctx, s.sink, events.WeeklySummary{UserID: u.ID, CompletedCount: completed, From: from, To: to})
	return true, nil
}
