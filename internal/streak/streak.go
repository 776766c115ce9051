// Package streak derives consecutive-day completion streaks from the ledger.
package streak

import (
	"context"
	"fmt"
	"slices"

	"github.com/julianstephens/studyloop/internal/clock"
	"github.com/julianstephens/studyloop/internal/constants"
	"github.com/julianstephens/studyloop/internal/logger"
	"github.com/julianstephens/studyloop/internal/models"
	"github.com/julianstephens/studyloop/internal/reconcile"
)

type Info struct {
	Current            int         `json:"current"`
	Longest            int         `json:"longest"`
	LastCompletedDay   *models.Day `json:"last_completed_day"`
	TotalCompletedDays int         `json:"total_completed_days"`
}

// Compute derives streaks from the days with at least one completion.
// The current streak survives an unfinished today: it is anchored on the most
// recent completed day as long as that is today or yesterday.
func Compute(days []models.Day, today models.Day) Info {
	if len(days) == 0 {
		return Info{}
	}

	asc := slices.Clone(days)
	slices.Sort(asc)
	asc = slices.Compact(asc)

	info := Info{TotalCompletedDays: len(asc)}
	last := asc[len(asc)-1]
	info.LastCompletedDay = &last

	run := 1
	info.Longest = 1
	for i := 1; i < len(asc); i++ {
		if asc[i].DaysSince(asc[i-1]) == 1 {
			run++
		} else {
			run = 1
		}
		info.Longest = max(info.Longest, run)
	}

	if last != today && last != today.AddDays(-1) {
		return info
	}
	info.Current = 1
	for i := len(asc) - 1; i > 0; i-- {
		if asc[i].DaysSince(asc[i-1]) != 1 {
			break
		}
		info.Current++
	}
	return info
}

// IsMilestone reports whether n is one of the celebrated streak lengths.
func IsMilestone(n int) bool {
	return slices.Contains(constants.StreakMilestones, n)
}

type Store interface {
	GetUser(ctx context.Context, id string) (models.User, error)
	CompletedDays(ctx context.Context, userID string) ([]models.Day, error)
}

// Calculator reconciles before reading so streaks see a consistent ledger.
type Calculator struct {
	store    Store
	syncer   reconcile.Syncer
	resolver *clock.Resolver
}

func NewCalculator(store Store, syncer reconcile.Syncer, resolver *clock.Resolver) *Calculator {
	if resolver == nil {
		resolver = clock.NewResolver(nil)
	}
	return &Calculator{store: store, syncer: syncer, resolver: resolver}
}

func (c *Calculator) Compute(ctx context.Context, userID string) (Info, error) {
	if c.syncer != nil {
		if _, err := c.syncer.Sync(ctx, userID, constants.CalendarLookBackDays); err != nil {
			logger.Warn("Sync before streak failed", "user", userID, "error", err)
		}
	}

	user, err := c.store.GetUser(ctx, userID)
	if err != nil {
		return Info{}, err
	}
	days, err := c.store.CompletedDays(ctx, userID)
	if err != nil {
		return Info{}, fmt.Errorf("failed to load completed days: %w", err)
	}
	return Compute(days, c.resolver.ForUser(user).Today()), nil
}
