package models

import (
	"fmt"
	"time"

	"github.com/julianstephens/studyloop/internal/constants"
)

// Day is a calendar day (YYYY-MM-DD) in the owning user's local timezone.
// Lexicographic order of valid days matches chronological order.
type Day string

// ParseDay validates a YYYY-MM-DD string.
func ParseDay(s string) (Day, error) {
	t, err := time.Parse(constants.DateFormat, s)
	if err != nil {
		return "", fmt.Errorf("invalid day %q (expected YYYY-MM-DD): %w", s, err)
	}
	return Day(t.Format(constants.DateFormat)), nil
}

// DayFromTime returns the calendar day of t in t's own location.
func DayFromTime(t time.Time) Day {
	return Day(t.Format(constants.DateFormat))
}

func (d Day) String() string { return string(d) }

// Time returns midnight UTC of the day. Only use it for calendar arithmetic.
func (d Day) Time() time.Time {
	t, err := time.Parse(constants.DateFormat, string(d))
	if err != nil {
		return time.Time{}
	}
	return t
}

// AddDays shifts the day by n calendar days.
func (d Day) AddDays(n int) Day {
	return DayFromTime(d.Time().AddDate(0, 0, n))
}

func (d Day) Weekday() time.Weekday { return d.Time().Weekday() }

func (d Day) Before(o Day) bool { return d < o }

func (d Day) After(o Day) bool { return d > o }

// DaysSince returns the number of calendar days from o to d.
func (d Day) DaysSince(o Day) int {
	return int(d.Time().Sub(o.Time()).Hours() / 24)
}

// In returns the local midnight of the day in loc.
func (d Day) In(loc *time.Location) time.Time {
	t := d.Time()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}
