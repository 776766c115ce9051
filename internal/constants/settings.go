package constants

const (
	// DefaultTimezone is used whenever a user has no timezone or an invalid one.
	DefaultTimezone = "UTC"

	// DefaultLookBackDays is how many days before today a sync pass backfills.
	DefaultLookBackDays = 7
	// CalendarLookBackDays is the wider window used before calendar and streak reads.
	CalendarLookBackDays = 14

	// Scheduler hours, user-local wall clock
	ReminderAfternoonHour = 17
	ReminderNightHour     = 22
	NightThresholdHour    = 20
	WeeklySummaryHour     = 9
	WeeklySummaryDays     = 7

	// ReminderTitleLimit is how many pending titles a reminder message spells out.
	ReminderTitleLimit = 3

	// SchedulerConcurrency bounds how many users a tick processes at once.
	SchedulerConcurrency = 4
	// FillConcurrency bounds how many days one reconciliation pass works on at once.
	FillConcurrency = 4

	DefaultCategory = "Uncategorized"
)

// StreakMilestones are the current-streak lengths that emit a milestone event.
var StreakMilestones = []int{3, 5, 7, 14, 21, 30, 50, 100}
