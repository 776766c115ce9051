// Package progress holds the user-driven writes to the ledger and the
// synced read views over it.
package progress

import (
	"context"
	"fmt"

	"github.com/julianstephens/studyloop/internal/clock"
	"github.com/julianstephens/studyloop/internal/constants"
	apperr "github.com/julianstephens/studyloop/internal/errors"
	"github.com/julianstephens/studyloop/internal/events"
	"github.com/julianstephens/studyloop/internal/logger"
	"github.com/julianstephens/studyloop/internal/models"
	"github.com/julianstephens/studyloop/internal/reconcile"
	"github.com/julianstephens/studyloop/internal/streak"
)

type Store interface {
	GetUser(ctx context.Context, id string) (models.User, error)
	GetObjective(ctx context.Context, userID, id string) (models.Objective, error)
	FindByUserItemDay(ctx context.Context, userID, objectiveID string, day models.Day) (models.ProgressRecord, error)
	FindByUserAndDay(ctx context.Context, userID string, day models.Day) ([]models.ProgressRecord, error)
	SaveProgress(ctx context.Context, r models.ProgressRecord) (models.ProgressRecord, error)
	ListRange(ctx context.Context, userID string, from, to models.Day) ([]models.ProgressEntry, error)
	CompletedDays(ctx context.Context, userID string) ([]models.Day, error)
}

type Service struct {
	store    Store
	syncer   reconcile.Syncer
	sink     events.Sink
	resolver *clock.Resolver
	lookBack int
}

func NewService(store Store, syncer reconcile.Syncer, sink events.Sink, resolver *clock.Resolver, lookBack int) *Service {
	if resolver == nil {
		resolver = clock.NewResolver(nil)
	}
	if lookBack <= 0 {
		lookBack = constants.DefaultLookBackDays
	}
	return &Service{store: store, syncer: syncer, sink: sink, resolver: resolver, lookBack: lookBack}
}

// MarkRequest is a user assertion about one objective on one day. Nil
// optional fields keep the recorded value.
type MarkRequest struct {
	UserID      string
	ObjectiveID string
	Day         models.Day // empty means today in the user's timezone
	Status      models.Status
	Remarks     *string
	Notes       *string
	TimeSpent   *int
}

// Mark creates or overwrites the record for the request's key.
func (s *Service) Mark(ctx context.Context, req MarkRequest) (models.ProgressRecord, error) {
	if _, err := models.ParseStatus(string(req.Status)); err != nil {
		return models.ProgressRecord{}, fmt.Errorf("%w: %q", apperr.ErrInvalidStatus, req.Status)
	}
	if req.TimeSpent != nil && *req.TimeSpent < 0 {
		return models.ProgressRecord{}, fmt.Errorf("time spent must be >= 0, got %d", *req.TimeSpent)
	}

	user, err := s.store.GetUser(ctx, req.UserID)
	if err != nil {
		return models.ProgressRecord{}, err
	}
	frame := s.resolver.ForUser(user)
	today := frame.Today()
	s.sync(ctx, req.UserID)

	day := req.Day
	if day == "" {
		day = today
	} else if day, err = models.ParseDay(string(day)); err != nil {
		return models.ProgressRecord{}, fmt.Errorf("%w: %v", apperr.ErrInvalidDay, err)
	}

	objective, err := s.store.GetObjective(ctx, req.UserID, req.ObjectiveID)
	if err != nil {
		return models.ProgressRecord{}, err
	}

	rec, err := s.store.FindByUserItemDay(ctx, req.UserID, req.ObjectiveID, day)
	if err != nil && !apperr.Is(err, apperr.ErrNotFound) {
		return models.ProgressRecord{}, err
	}
	if err != nil {
		rec = models.ProgressRecord{UserID: req.UserID, ObjectiveID: req.ObjectiveID, Day: day}
	}

	now := frame.Now
	rec.Status = req.Status
	rec.UpdatedAt = now
	if req.Remarks != nil {
		rec.Remarks = *req.Remarks
	}
	if req.Notes != nil {
		rec.Notes = *req.Notes
	}
	if req.TimeSpent != nil {
		rec.TimeSpent = *req.TimeSpent
	}

	if rec.Status == models.StatusCompleted {
		completedAt := now
		rec.CompletedAt = &completedAt
		if req.TimeSpent == nil && rec.TimeSpent == 0 {
			rec.TimeSpent = objective.EstimatedMinutes
		}
	} else {
		rec.CompletedAt = nil
	}

	saved, err := s.store.SaveProgress(ctx, rec)
	if err != nil {
		return models.ProgressRecord{}, err
	}
	logger.Debug("Marked progress", "user", req.UserID, "objective", req.ObjectiveID, "day", day, "status", saved.Status)

	if saved.Status == models.StatusCompleted {
		s.celebrate(ctx, user.ID, objective, day, today)
	}
	return saved, nil
}

// celebrate emits completion events. Failures only cost a notification.
func (s *Service) celebrate(ctx context.Context, userID string, objective models.Objective, day, today models.Day) {
	events.Emit(ctx, s.sink, events.TaskCompleted{UserID: userID, ObjectiveTitle: objective.Title, Day: day})

	if day == today {
		records, err := s.store.FindByUserAndDay(ctx, userID, today)
		if err != nil {
			logger.Warn("Failed to check day completion", "user", userID, "error", err)
		} else if len(records) > 0 && allDone(records) {
			events.Emit(ctx, s.sink, events.DayCompleted{UserID: userID, Day: today, Count: len(records)})
		}
	}

	days, err := s.store.CompletedDays(ctx, userID)
	if err != nil {
		logger.Warn("Failed to compute streak", "user", userID, "error", err)
		return
	}
	if info := streak.Compute(days, today); streak.IsMilestone(info.Current) {
		events.Emit(ctx, s.sink, events.StreakMilestone{UserID: userID, Days: info.Current})
	}
}

func allDone(records []models.ProgressRecord) bool {
	for _, r := range records {
		if r.Status != models.StatusCompleted && r.Status != models.StatusSkipped {
			return false
		}
	}
	return true
}

// Day reconciles, then returns the day's records with objective details.
// An empty day means today.
func (s *Service) Day(ctx context.Context, userID string, day models.Day) ([]models.ProgressEntry, models.Day, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, "", err
	}
	if day == "" {
		day = s.resolver.ForUser(user).Today()
	} else if day, err = models.ParseDay(string(day)); err != nil {
		return nil, "", fmt.Errorf("%w: %v", apperr.ErrInvalidDay, err)
	}
	s.sync(ctx, userID)

	entries, err := s.store.ListRange(ctx, userID, day, day)
	return entries, day, err
}

// Range reconciles, then returns records with from <= day <= to.
func (s *Service) Range(ctx context.Context, userID string, from, to models.Day) ([]models.ProgressEntry, error) {
	s.sync(ctx, userID)
	return s.store.ListRange(ctx, userID, from, to)
}

func (s *Service) sync(ctx context.Context, userID string) {
	if s.syncer == nil {
		return
	}
	if _, err := s.syncer.Sync(ctx, userID, s.lookBack); err != nil {
		logger.Warn("Sync before read failed", "user", userID, "error", err)
	}
}
