// Package clock resolves "what day is it" for a user. Every day-boundary
// computation (today, start of day, week bounds, local hour) goes through a
// Frame so UTC and user-local day keys can never be mixed.
package clock

import (
	"sync"
	"time"

	"github.com/julianstephens/studyloop/internal/constants"
	"github.com/julianstephens/studyloop/internal/logger"
	"github.com/julianstephens/studyloop/internal/models"
)

// Clock supplies the current instant.
type Clock interface {
	Now() time.Time
}

// System is the wall clock.
type System struct{}

func (System) Now() time.Time { return time.Now() }

// Fixed is a settable clock for tests and replays. Safe for concurrent use.
type Fixed struct {
	mu sync.Mutex
	t  time.Time
}

// NewFixed returns a clock frozen at t.
func NewFixed(t time.Time) *Fixed {
	return &Fixed{t: t}
}

func (f *Fixed) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.t
}

// Set moves the clock to t.
func (f *Fixed) Set(t time.Time) {
	f.mu.Lock()
	f.t = t
	f.mu.Unlock()
}

// Advance moves the clock forward by d.
func (f *Fixed) Advance(d time.Duration) {
	f.mu.Lock()
	f.t = f.t.Add(d)
	f.mu.Unlock()
}

// LoadLocation loads an IANA timezone. Empty means UTC; an unknown name falls
// back to UTC and is logged rather than failing the caller.
func LoadLocation(timezone string) *time.Location {
	if timezone == "" || timezone == constants.DefaultTimezone {
		return time.UTC
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		logger.Warn("Invalid timezone, falling back to UTC", "timezone", timezone, "error", err)
		return time.UTC
	}
	return loc
}

// ValidateTimezone checks if the timezone name is valid.
func ValidateTimezone(timezone string) bool {
	if timezone == "" {
		return true
	}
	_, err := time.LoadLocation(timezone)
	return err == nil
}

// Resolver builds Frames for users from a single clock.
type Resolver struct {
	clock Clock
}

// NewResolver returns a resolver over c; nil means the system clock.
func NewResolver(c Clock) *Resolver {
	if c == nil {
		c = System{}
	}
	return &Resolver{clock: c}
}

// Clock exposes the underlying clock.
func (r *Resolver) Clock() Clock { return r.clock }

// Frame pins the current instant in the given timezone.
func (r *Resolver) Frame(timezone string) Frame {
	loc := LoadLocation(timezone)
	return Frame{Loc: loc, Now: r.clock.Now().In(loc)}
}

// ForUser is Frame(u.Timezone).
func (r *Resolver) ForUser(u models.User) Frame {
	return r.Frame(u.Timezone)
}

// Frame is one (user timezone, instant) pair.
type Frame struct {
	Loc *time.Location
	Now time.Time
}

// Today is the local calendar day of Now.
func (f Frame) Today() models.Day { return models.DayFromTime(f.Now) }

// Yesterday is the local calendar day before Today.
func (f Frame) Yesterday() models.Day { return f.Today().AddDays(-1) }

// DayOf converts any instant into the frame's local calendar day.
func (f Frame) DayOf(t time.Time) models.Day { return models.DayFromTime(t.In(f.Loc)) }

// Hour is the local wall-clock hour of Now.
func (f Frame) Hour() int { return f.Now.Hour() }

// Weekday is the local weekday of Now.
func (f Frame) Weekday() time.Weekday { return f.Now.Weekday() }

// StartOfDay is local midnight of d.
func (f Frame) StartOfDay(d models.Day) time.Time { return d.In(f.Loc) }

// StartOfWeek returns the Monday on or before d.
func StartOfWeek(d models.Day) models.Day {
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDays(-offset)
}

// EndOfWeek returns the Sunday on or after d. Weeks are Monday..Sunday.
func EndOfWeek(d models.Day) models.Day {
	offset := (7 - int(d.Weekday())) % 7
	return d.AddDays(offset)
}

// StartOfMonth and EndOfMonth bound the calendar month containing d.
func StartOfMonth(d models.Day) models.Day {
	t := d.Time()
	return models.DayFromTime(time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC))
}

func EndOfMonth(d models.Day) models.Day {
	return models.DayFromTime(StartOfMonth(d).Time().AddDate(0, 1, -1))
}
