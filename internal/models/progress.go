package models

import (
	"fmt"
	"time"

	"github.com/julianstephens/studyloop/internal/constants"
)

// Status is the state of one progress record.
type Status string

const (
	StatusPending   Status = constants.StatusPending
	StatusCompleted Status = constants.StatusCompleted
	StatusMissed    Status = constants.StatusMissed
	StatusPartial   Status = constants.StatusPartial
	StatusSkipped   Status = constants.StatusSkipped
)

// ParseStatus validates a status string.
func ParseStatus(s string) (Status, error) {
	if _, ok := constants.StatusPriority[s]; !ok {
		return "", fmt.Errorf("invalid status %q", s)
	}
	return Status(s), nil
}

// Priority is the dedup rank of the status; higher wins.
func (s Status) Priority() int { return constants.StatusPriority[string(s)] }

// UserAsserted reports whether the status can only come from a user action.
// Reconciliation never deletes or rewrites such records.
func (s Status) UserAsserted() bool {
	return s == StatusCompleted || s == StatusPartial || s == StatusSkipped
}

// Generated reports whether reconciliation may rewrite or remove the record.
func (s Status) Generated() bool {
	return s == StatusPending || s == StatusMissed
}

// ProgressRecord is one (user, objective, day) ledger entry.
type ProgressRecord struct {
	ID          string     `json:"id"`
	UserID      string     `json:"user_id"`
	ObjectiveID string     `json:"objective_id"`
	Day         Day        `json:"day"`
	Status      Status     `json:"status"`
	Remarks     string     `json:"remarks,omitempty"`
	Notes       string     `json:"notes,omitempty"`
	TimeSpent   int        `json:"time_spent"` // minutes
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// ProgressEntry is a record joined with its objective for display and analytics.
type ProgressEntry struct {
	ProgressRecord
	ObjectiveTitle    string `json:"objective_title"`
	ObjectiveCategory string `json:"objective_category,omitempty"`
}
