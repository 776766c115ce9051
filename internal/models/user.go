package models

import "time"

// User carries the per-user preferences the engine and scheduler read.
type User struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Timezone         string    `json:"timezone"` // IANA name, empty means UTC
	RemindersEnabled bool      `json:"reminders_enabled"`
	CreatedAt        time.Time `json:"created_at"`
}
