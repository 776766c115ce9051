package models

import (
	"fmt"
	"strings"
	"time"
)

// TemplateItem places an objective on one weekday of the template.
type TemplateItem struct {
	ObjectiveID string `json:"objective_id" yaml:"objective"`
	DurationMin int    `json:"duration_min,omitempty" yaml:"duration,omitempty"`
}

// DaySchedule is the list of items for a single weekday.
type DaySchedule struct {
	Active bool           `json:"active"`
	Items  []TemplateItem `json:"items"`
}

// WeeklyTemplate is the recurring weekly plan of a user.
type WeeklyTemplate struct {
	ID          string                       `json:"id"`
	UserID      string                       `json:"user_id"`
	Name        string                       `json:"name"`
	Description string                       `json:"description,omitempty"`
	Days        map[time.Weekday]DaySchedule `json:"days"`
	IsDefault   bool                         `json:"is_default"`
	IsActive    bool                         `json:"is_active"`
	CreatedAt   time.Time                    `json:"created_at"`
	UpdatedAt   time.Time                    `json:"updated_at"`
}

// ScheduledFor returns the set of objective ids scheduled on the given weekday.
// An inactive or absent day yields an empty set.
func (t WeeklyTemplate) ScheduledFor(wd time.Weekday) map[string]TemplateItem {
	out := map[string]TemplateItem{}
	ds, ok := t.Days[wd]
	if !ok || !ds.Active {
		return out
	}
	for _, item := range ds.Items {
		if item.ObjectiveID == "" {
			continue
		}
		out[item.ObjectiveID] = item
	}
	return out
}

var weekdayNames = map[string]time.Weekday{
	"sun":       time.Sunday,
	"sunday":    time.Sunday,
	"mon":       time.Monday,
	"monday":    time.Monday,
	"tue":       time.Tuesday,
	"tuesday":   time.Tuesday,
	"wed":       time.Wednesday,
	"wednesday": time.Wednesday,
	"thu":       time.Thursday,
	"thursday":  time.Thursday,
	"fri":       time.Friday,
	"friday":    time.Friday,
	"sat":       time.Saturday,
	"saturday":  time.Saturday,
}

// ParseWeekday accepts full or three-letter English day names, case-insensitive.
func ParseWeekday(s string) (time.Weekday, error) {
	wd, ok := weekdayNames[strings.TrimSpace(strings.ToLower(s))]
	if !ok {
		return 0, fmt.Errorf("invalid weekday: %s", s)
	}
	return wd, nil
}

// WeekdayKey is the lower-case storage key for a weekday ("monday").
func WeekdayKey(wd time.Weekday) string {
	return strings.ToLower(wd.String())
}
