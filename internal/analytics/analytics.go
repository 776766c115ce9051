// Package analytics aggregates the progress ledger. Every entry point
// reconciles first so the numbers never include a stale pending day.
package analytics

import (
	"context"
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/julianstephens/studyloop/internal/clock"
	"github.com/julianstephens/studyloop/internal/constants"
	"github.com/julianstephens/studyloop/internal/logger"
	"github.com/julianstephens/studyloop/internal/models"
	"github.com/julianstephens/studyloop/internal/reconcile"
)

type Period string

const (
	PeriodDaily   Period = "daily"
	PeriodWeekly  Period = "weekly"
	PeriodMonthly Period = "monthly"
	PeriodAll     Period = "all"
)

func ParsePeriod(s string) (Period, error) {
	switch p := Period(s); p {
	case PeriodDaily, PeriodWeekly, PeriodMonthly, PeriodAll:
		return p, nil
	case "":
		return PeriodAll, nil
	default:
		return "", fmt.Errorf("invalid period %q (daily, weekly, monthly, all)", s)
	}
}

// Stats counts records by status. Times are minutes.
type Stats struct {
	Total          int     `json:"total"`
	Completed      int     `json:"completed"`
	Missed         int     `json:"missed"`
	Pending        int     `json:"pending"`
	Partial        int     `json:"partial"`
	Skipped        int     `json:"skipped"`
	CompletionRate float64 `json:"completion_rate"` // percent, 2 dp
	TotalTimeSpent int     `json:"total_time_spent"`
	AverageTime    int     `json:"average_time_per_session"`
}

func (s *Stats) add(e models.ProgressEntry) {
	s.Total++
	s.TotalTimeSpent += e.TimeSpent
	switch e.Status {
	case models.StatusCompleted:
		s.Completed++
	case models.StatusMissed:
		s.Missed++
	case models.StatusPending:
		s.Pending++
	case models.StatusPartial:
		s.Partial++
	case models.StatusSkipped:
		s.Skipped++
	}
}

func (s *Stats) finish() {
	if s.Total == 0 {
		return
	}
	s.CompletionRate = math.Round(float64(s.Completed)/float64(s.Total)*10000) / 100
	s.AverageTime = int(math.Round(float64(s.TotalTimeSpent) / float64(s.Total)))
}

// Summarize computes Stats over entries.
func Summarize(entries []models.ProgressEntry) Stats {
	var s Stats
	for _, e := range entries {
		s.add(e)
	}
	s.finish()
	return s
}

type Overall struct {
	Period Period     `json:"period"`
	From   models.Day `json:"from,omitempty"`
	To     models.Day `json:"to,omitempty"`
	Stats
}

type ObjectiveStats struct {
	Objective models.Objective `json:"objective"`
	Stats
}

type CategoryStats struct {
	Category   string `json:"category"`
	Objectives int    `json:"objectives"`
	Stats
}

type CalendarDay struct {
	Day     models.Day             `json:"day"`
	Entries []models.ProgressEntry `json:"entries"`
	Stats
}

type ChartDay struct {
	Weekday time.Weekday `json:"weekday"`
	Day     models.Day   `json:"day"`
	Hours   float64      `json:"hours"`
	Stats
}

type Store interface {
	GetUser(ctx context.Context, id string) (models.User, error)
	ListObjectives(ctx context.Context, userID string, includeInactive bool) ([]models.Objective, error)
	ListRange(ctx context.Context, userID string, from, to models.Day) ([]models.ProgressEntry, error)
}

type Service struct {
	store    Store
	syncer   reconcile.Syncer
	resolver *clock.Resolver
}

func NewService(store Store, syncer reconcile.Syncer, resolver *clock.Resolver) *Service {
	if resolver == nil {
		resolver = clock.NewResolver(nil)
	}
	return &Service{store: store, syncer: syncer, resolver: resolver}
}

// prepare syncs the user and returns their clock frame.
func (s *Service) prepare(ctx context.Context, userID string, lookBack int) (clock.Frame, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return clock.Frame{}, err
	}
	if s.syncer != nil {
		if _, err := s.syncer.Sync(ctx, userID, lookBack); err != nil {
			logger.Warn("Sync before analytics failed", "user", userID, "error", err)
		}
	}
	return s.resolver.ForUser(user), nil
}

func (s *Service) Overall(ctx context.Context, userID string, period Period) (Overall, error) {
	frame, err := s.prepare(ctx, userID, constants.DefaultLookBackDays)
	if err != nil {
		return Overall{}, err
	}

	today := frame.Today()
	var from, to models.Day
	switch period {
	case PeriodDaily:
		from, to = today, today
	case PeriodWeekly:
		from, to = clock.StartOfWeek(today), clock.EndOfWeek(today)
	case PeriodMonthly:
		from, to = clock.StartOfMonth(today), clock.EndOfMonth(today)
	default:
		period = PeriodAll
	}

	entries, err := s.store.ListRange(ctx, userID, from, to)
	if err != nil {
		return Overall{}, err
	}
	return Overall{Period: period, From: from, To: to, Stats: Summarize(entries)}, nil
}

// ByObjective reports per active objective, best completion rate first.
// Empty bounds are open.
func (s *Service) ByObjective(ctx context.Context, userID string, from, to models.Day) ([]ObjectiveStats, error) {
	objectives, entries, err := s.objectivesAndEntries(ctx, userID, from, to)
	if err != nil {
		return nil, err
	}

	byID := map[string]*ObjectiveStats{}
	out := make([]ObjectiveStats, len(objectives))
	for i, o := range objectives {
		out[i].Objective = o
		byID[o.ID] = &out[i]
	}
	for _, e := range entries {
		if st, ok := byID[e.ObjectiveID]; ok {
			st.add(e)
		}
	}
	for i := range out {
		out[i].finish()
	}

	slices.SortStableFunc(out, func(a, b ObjectiveStats) int {
		switch {
		case a.CompletionRate > b.CompletionRate:
			return -1
		case a.CompletionRate < b.CompletionRate:
			return 1
		}
		return 0
	})
	return out, nil
}

// ByCategory groups active objectives by category.
func (s *Service) ByCategory(ctx context.Context, userID string, from, to models.Day) ([]CategoryStats, error) {
	objectives, entries, err := s.objectivesAndEntries(ctx, userID, from, to)
	if err != nil {
		return nil, err
	}

	categoryOf := map[string]string{}
	groups := map[string]*CategoryStats{}
	var order []string
	for _, o := range objectives {
		cat := o.Category
		if cat == "" {
			cat = constants.DefaultCategory
		}
		categoryOf[o.ID] = cat
		if _, ok := groups[cat]; !ok {
			groups[cat] = &CategoryStats{Category: cat}
			order = append(order, cat)
		}
		groups[cat].Objectives++
	}
	for _, e := range entries {
		if cat, ok := categoryOf[e.ObjectiveID]; ok {
			groups[cat].add(e)
		}
	}

	slices.Sort(order)
	out := make([]CategoryStats, 0, len(order))
	for _, cat := range order {
		g := groups[cat]
		g.finish()
		out = append(out, *g)
	}
	return out, nil
}

func (s *Service) objectivesAndEntries(ctx context.Context, userID string, from, to models.Day) ([]models.Objective, []models.ProgressEntry, error) {
	if _, err := s.prepare(ctx, userID, constants.DefaultLookBackDays); err != nil {
		return nil, nil, err
	}
	objectives, err := s.store.ListObjectives(ctx, userID, false)
	if err != nil {
		return nil, nil, err
	}
	entries, err := s.store.ListRange(ctx, userID, from, to)
	if err != nil {
		return nil, nil, err
	}
	return objectives, entries, nil
}

// Calendar returns one entry per day of the month. Zero year or month means
// the current one in the user's timezone.
func (s *Service) Calendar(ctx context.Context, userID string, year int, month time.Month) ([]CalendarDay, error) {
	frame, err := s.prepare(ctx, userID, constants.CalendarLookBackDays)
	if err != nil {
		return nil, err
	}
	if year == 0 {
		year = frame.Now.Year()
	}
	if month == 0 {
		month = frame.Now.Month()
	}
	if month < time.January || month > time.December {
		return nil, fmt.Errorf("invalid month %d", month)
	}

	first := models.DayFromTime(time.Date(year, month, 1, 0, 0, 0, 0, time.UTC))
	last := clock.EndOfMonth(first)
	entries, err := s.store.ListRange(ctx, userID, first, last)
	if err != nil {
		return nil, err
	}

	days := make([]CalendarDay, 0, 31)
	index := map[models.Day]int{}
	for d := first; !d.After(last); d = d.AddDays(1) {
		index[d] = len(days)
		days = append(days, CalendarDay{Day: d, Entries: []models.ProgressEntry{}})
	}
	for _, e := range entries {
		if i, ok := index[e.Day]; ok {
			days[i].add(e)
			days[i].Entries = append(days[i].Entries, e)
		}
	}
	for i := range days {
		days[i].finish()
	}
	return days, nil
}

// WeeklyChart returns Monday..Sunday of the current local week.
func (s *Service) WeeklyChart(ctx context.Context, userID string) ([]ChartDay, error) {
	frame, err := s.prepare(ctx, userID, constants.DefaultLookBackDays)
	if err != nil {
		return nil, err
	}
	start := clock.StartOfWeek(frame.Today())
	end := clock.EndOfWeek(frame.Today())
	entries, err := s.store.ListRange(ctx, userID, start, end)
	if err != nil {
		return nil, err
	}

	chart := make([]ChartDay, 7)
	for i := range chart {
		d := start.AddDays(i)
		chart[i] = ChartDay{Weekday: d.Weekday(), Day: d}
	}
	for _, e := range entries {
		if i := e.Day.DaysSince(start); i >= 0 && i < 7 {
			chart[i].add(e)
		}
	}
	for i := range chart {
		chart[i].finish()
		chart[i].Hours = math.Round(float64(chart[i].TotalTimeSpent)/60*100) / 100
	}
	return chart, nil
}
