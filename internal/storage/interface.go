package storage

import (
	"context"

	"github.com/julianstephens/studyloop/internal/models"
)

type UserStore interface {
	AddUser(ctx context.Context, u models.User) error
	GetUser(ctx context.Context, id string) (models.User, error)
	GetUserByName(ctx context.Context, name string) (models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	UpdateUser(ctx context.Context, u models.User) error
}

type ObjectiveStore interface {
	// SaveObjective inserts the objective or replaces the row with the same ID.
	SaveObjective(ctx context.Context, o models.Objective) error
	GetObjective(ctx context.Context, userID, id string) (models.Objective, error)
	GetObjectiveByTitle(ctx context.Context, userID, title string) (models.Objective, error)
	ListObjectives(ctx context.Context, userID string, includeInactive bool) ([]models.Objective, error)
}

type TemplateStore interface {
	// GetDefaultTemplate returns the user's active default template or
	// errors.ErrNoTemplate.
	GetDefaultTemplate(ctx context.Context, userID string) (models.WeeklyTemplate, error)
	// SaveTemplate replaces the template with the same ID, including its day
	// schedules. Saving a default template clears the flag on the user's others.
	SaveTemplate(ctx context.Context, t models.WeeklyTemplate) error
}

// ProgressStore holds one record per (user, objective, day). The reconciliation
// engine only goes through these methods.
type ProgressStore interface {
	FindByUserAndDay(ctx context.Context, userID string, day models.Day) ([]models.ProgressRecord, error)
	FindByUserItemDay(ctx context.Context, userID, objectiveID string, day models.Day) (models.ProgressRecord, error)
	// UpsertIfAbsent inserts r unless a record with the same key exists. It
	// reports whether a row was written and never modifies an existing row.
	UpsertIfAbsent(ctx context.Context, r models.ProgressRecord) (bool, error)
	// UpdateGeneratedStatus moves a pending or missed record to status. It
	// reports false, without error, when the record is gone or user-asserted.
	UpdateGeneratedStatus(ctx context.Context, id string, status models.Status) (bool, error)
	DeleteMany(ctx context.Context, ids []string) (int64, error)
	// DeleteGenerated removes the listed records that are still pending or missed.
	DeleteGenerated(ctx context.Context, ids []string) (int64, error)
	// PromotePendingBefore marks pending records with from <= day < before as missed.
	PromotePendingBefore(ctx context.Context, userID string, from, before models.Day) (int64, error)
	// DeleteGeneratedBefore removes pending and missed records dated before the given day.
	DeleteGeneratedBefore(ctx context.Context, userID string, before models.Day) (int64, error)
	// SaveProgress writes a user-driven change, creating the record if needed.
	SaveProgress(ctx context.Context, r models.ProgressRecord) (models.ProgressRecord, error)
	// ListRange returns records joined with their objective for from <= day <= to.
	// An empty bound is open.
	ListRange(ctx context.Context, userID string, from, to models.Day) ([]models.ProgressEntry, error)
	// CompletedDays returns the distinct days with at least one completed
	// record, most recent first.
	CompletedDays(ctx context.Context, userID string) ([]models.Day, error)
}

type Provider interface {
	// Lifecycle
	Init() error
	Load() error
	Close() error

	UserStore
	ObjectiveStore
	TemplateStore
	ProgressStore

	// Utils
	GetConfigPath() string
}
