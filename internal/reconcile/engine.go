// Package reconcile turns a user's weekly template and the passage of time
// into a duplicate-free per-day progress ledger.
package reconcile

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/julianstephens/studyloop/internal/clock"
	"github.com/julianstephens/studyloop/internal/constants"
	apperr "github.com/julianstephens/studyloop/internal/errors"
	"github.com/julianstephens/studyloop/internal/logger"
	"github.com/julianstephens/studyloop/internal/models"
	"github.com/julianstephens/studyloop/internal/storage"
)

// Store is the slice of storage the engine reads and writes.
type Store interface {
	GetUser(ctx context.Context, id string) (models.User, error)
	storage.TemplateStore
	storage.ProgressStore
}

// Syncer is what read paths and the scheduler depend on.
type Syncer interface {
	Sync(ctx context.Context, userID string, lookBack int) (Report, error)
}

// Report counts the writes of one pass.
type Report struct {
	Promoted  int // pending -> missed by the stale sweep
	Purged    int // generated records before the template start
	Deduped   int
	Orphaned  int
	Corrected int // generated records whose status disagreed with the day
	Created   int
	Failures  int
}

// Writes is the number of ledger mutations; zero on a consistent ledger.
func (r Report) Writes() int {
	return r.Promoted + r.Purged + r.Deduped + r.Orphaned + r.Corrected + r.Created
}

func (r *Report) add(o Report) {
	r.Promoted += o.Promoted
	r.Purged += o.Purged
	r.Deduped += o.Deduped
	r.Orphaned += o.Orphaned
	r.Corrected += o.Corrected
	r.Created += o.Created
	r.Failures += o.Failures
}

// Engine reconciles progress ledgers against each user's default template.
type Engine struct {
	store       Store
	resolver    *clock.Resolver
	guard       Guard
	concurrency int
}

// NewEngine returns an engine over store; a nil resolver uses the system clock.
func NewEngine(store Store, resolver *clock.Resolver) *Engine {
	if resolver == nil {
		resolver = clock.NewResolver(nil)
	}
	return &Engine{
		store:       store,
		resolver:    resolver,
		concurrency: constants.FillConcurrency,
	}
}

// Sync reconciles the user's ledger over [today-lookBack, end of week].
// Concurrent calls with the same user and lookBack share one pass.
// A user without an active default template is a no-op.
func (e *Engine) Sync(ctx context.Context, userID string, lookBack int) (Report, error) {
	if lookBack <= 0 {
		lookBack = constants.DefaultLookBackDays
	}
	rep, shared, err := e.guard.WithLock(userID, lookBack, func() (Report, error) {
		return e.sync(ctx, userID, lookBack)
	})
	if shared {
		logger.Debug("Joined in-flight sync", "user", userID, "lookBack", lookBack)
	}
	return rep, err
}

// SyncQuiet runs Sync and logs instead of returning failures. Read paths use
// it so a transient storage error only leaves data one pass stale.
func (e *Engine) SyncQuiet(ctx context.Context, userID string, lookBack int) Report {
	rep, err := e.Sync(ctx, userID, lookBack)
	if err != nil {
		logger.Warn("Sync failed", "user", userID, "error", err)
	}
	return rep
}

func (e *Engine) sync(ctx context.Context, userID string, lookBack int) (Report, error) {
	var rep Report

	user, err := e.store.GetUser(ctx, userID)
	if err != nil {
		return rep, fmt.Errorf("failed to load user: %w", err)
	}

	tpl, err := e.store.GetDefaultTemplate(ctx, userID)
	if apperr.Is(err, apperr.ErrNoTemplate) {
		logger.Debug("No default template, nothing to reconcile", "user", userID)
		return rep, nil
	}
	if err != nil {
		return rep, fmt.Errorf("failed to load template: %w", err)
	}

	frame := e.resolver.ForUser(user)
	today := frame.Today()
	start := frame.DayOf(tpl.CreatedAt)

	// The stale sweep must precede the per-day diff.
	e.sweepStalePending(ctx, userID, start, today, &rep)
	e.sweepBeforeTemplate(ctx, userID, start, &rep)

	from := today.AddDays(-lookBack)
	if from.Before(start) {
		from = start
	}
	to := clock.EndOfWeek(today)

	var days []models.Day
	for d := from; !d.After(to); d = d.AddDays(1) {
		days = append(days, d)
	}

	reports := make([]Report, len(days))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for i, d := range days {
		g.Go(func() error {
			dr, err := e.reconcileDay(gctx, userID, tpl, d, today, frame.Now)
			if err != nil {
				logger.Warn("Skipping day", "user", userID, "day", d, "error", err)
				dr.Failures++
			}
			reports[i] = dr
			return nil
		})
	}
	_ = g.Wait()

	for _, dr := range reports {
		rep.add(dr)
	}

	if rep.Writes() > 0 || rep.Failures > 0 {
		logger.Info("Reconciled ledger",
			"user", userID, "from", from, "to", to,
			"promoted", rep.Promoted, "purged", rep.Purged, "deduped", rep.Deduped,
			"orphaned", rep.Orphaned, "corrected", rep.Corrected, "created", rep.Created,
			"failures", rep.Failures)
	}
	return rep, ctx.Err()
}

// sweepStalePending marks pending records from the template start up to
// yesterday as missed.
func (e *Engine) sweepStalePending(ctx context.Context, userID string, start, today models.Day, rep *Report) {
	n, err := e.store.PromotePendingBefore(ctx, userID, start, today)
	if err != nil {
		logger.Warn("Stale pending sweep failed", "user", userID, "error", err)
		rep.Failures++
		return
	}
	rep.Promoted = int(n)
}

// sweepBeforeTemplate drops generated records dated before the template start.
func (e *Engine) sweepBeforeTemplate(ctx context.Context, userID string, start models.Day, rep *Report) {
	n, err := e.store.DeleteGeneratedBefore(ctx, userID, start)
	if err != nil {
		logger.Warn("Pre-template sweep failed", "user", userID, "error", err)
		rep.Failures++
		return
	}
	rep.Purged = int(n)
}

// reconcileDay applies dedup, orphan pruning and fill for one calendar day.
// An error aborts the day; per-item fill failures are counted and skipped.
// Orphan and status writes only touch rows still pending or missed, so a
// record marked after the day was loaded survives.
func (e *Engine) reconcileDay(ctx context.Context, userID string, tpl models.WeeklyTemplate, d, today models.Day, now time.Time) (Report, error) {
	var rep Report
	scheduled := tpl.ScheduledFor(d.Weekday())

	records, err := e.store.FindByUserAndDay(ctx, userID, d)
	if err != nil {
		return rep, fmt.Errorf("failed to load records: %w", err)
	}

	kept, dupes := dedupDay(records)
	if len(dupes) > 0 {
		n, err := e.store.DeleteMany(ctx, dupes)
		if err != nil {
			return rep, fmt.Errorf("failed to delete duplicates: %w", err)
		}
		rep.Deduped = int(n)
	}

	if orphans := pruneOrphans(kept, scheduled); len(orphans) > 0 {
		n, err := e.store.DeleteGenerated(ctx, orphans)
		if err != nil {
			return rep, fmt.Errorf("failed to delete orphans: %w", err)
		}
		rep.Orphaned = int(n)
	}

	want := expectedStatus(d, today)
	for _, r := range kept {
		if !r.Status.Generated() || r.Status == want {
			continue
		}
		updated, err := e.store.UpdateGeneratedStatus(ctx, r.ID, want)
		if err != nil {
			logger.Warn("Failed to correct status", "user", userID, "day", d, "objective", r.ObjectiveID, "error", err)
			rep.Failures++
			continue
		}
		if updated {
			rep.Corrected++
		}
	}

	for _, objectiveID := range missingItems(kept, scheduled) {
		inserted, err := e.fillDay(ctx, userID, objectiveID, d, want, now)
		if err != nil {
			logger.Warn("Failed to create record", "user", userID, "day", d, "objective", objectiveID, "error", err)
			rep.Failures++
			continue
		}
		if inserted {
			rep.Created++
		}
	}
	return rep, nil
}

// fillDay inserts a generated record unless one already exists for the key.
func (e *Engine) fillDay(ctx context.Context, userID, objectiveID string, d models.Day, status models.Status, now time.Time) (bool, error) {
	return e.store.UpsertIfAbsent(ctx, models.ProgressRecord{
		ID:          uuid.New().String(),
		UserID:      userID,
		ObjectiveID: objectiveID,
		Day:         d,
		Status:      status,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
}

var _ Syncer = (*Engine)(nil)
