package template

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/studyloop/internal/clock"
	apperr "github.com/julianstephens/studyloop/internal/errors"
	"github.com/julianstephens/studyloop/internal/logger"
	"github.com/julianstephens/studyloop/internal/models"
)

type Store interface {
	GetUser(ctx context.Context, id string) (models.User, error)
	UpdateUser(ctx context.Context, u models.User) error
	SaveObjective(ctx context.Context, o models.Objective) error
	GetObjective(ctx context.Context, userID, id string) (models.Objective, error)
	GetObjectiveByTitle(ctx context.Context, userID, title string) (models.Objective, error)
	ListObjectives(ctx context.Context, userID string, includeInactive bool) ([]models.Objective, error)
	GetDefaultTemplate(ctx context.Context, userID string) (models.WeeklyTemplate, error)
	SaveTemplate(ctx context.Context, t models.WeeklyTemplate) error
}

// Result summarises one import.
type Result struct {
	TemplateID        string
	TemplateCreated   bool
	ObjectivesCreated int
	ObjectivesUpdated int
	TimezoneChanged   bool
}

type Importer struct {
	store Store
	clock clock.Clock
}

func NewImporter(store Store, c clock.Clock) *Importer {
	if c == nil {
		c = clock.System{}
	}
	return &Importer{store: store, clock: c}
}

func (im *Importer) ImportFile(ctx context.Context, userID, path string) (Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Result{}, fmt.Errorf("failed to read template file: %w", err)
	}
	doc, err := Parse(data)
	if err != nil {
		return Result{}, fmt.Errorf("%s: %w", path, err)
	}
	return im.Import(ctx, userID, doc)
}

// Import upserts the catalog by title and installs the template as the user's
// default. A default template with the same name is updated in place so its
// creation day, and with it the reconciliation window, is kept.
func (im *Importer) Import(ctx context.Context, userID string, doc Document) (Result, error) {
	var res Result
	user, err := im.store.GetUser(ctx, userID)
	if err != nil {
		return res, err
	}
	now := im.clock.Now().UTC()

	if doc.Timezone != "" && doc.Timezone != user.Timezone {
		if !clock.ValidateTimezone(doc.Timezone) {
			return res, fmt.Errorf("invalid timezone %q", doc.Timezone)
		}
		user.Timezone = doc.Timezone
		if err := im.store.UpdateUser(ctx, user); err != nil {
			return res, fmt.Errorf("failed to update timezone: %w", err)
		}
		res.TimezoneChanged = true
	}

	// refs maps both titles (folded) and ids to objective ids.
	refs := map[string]string{}
	for _, od := range doc.Objectives {
		o, created, err := im.upsertObjective(ctx, userID, od, now)
		if err != nil {
			return res, err
		}
		if created {
			res.ObjectivesCreated++
		} else {
			res.ObjectivesUpdated++
		}
		refs[strings.ToLower(o.Title)] = o.ID
		refs[o.ID] = o.ID
	}

	tpl := models.WeeklyTemplate{
		UserID:      userID,
		Name:        doc.Template.Name,
		Description: doc.Template.Description,
		Days:        map[time.Weekday]models.DaySchedule{},
		IsDefault:   true,
		IsActive:    true,
		UpdatedAt:   now,
	}
	for key, dd := range doc.Template.Days {
		wd, err := models.ParseWeekday(key)
		if err != nil {
			return res, err
		}
		ds := models.DaySchedule{Active: len(dd.Items) > 0}
		if dd.Active != nil {
			ds.Active = *dd.Active
		}
		for _, item := range dd.Items {
			id, err := im.resolve(ctx, userID, refs, item.Objective)
			if err != nil {
				return res, err
			}
			ds.Items = append(ds.Items, models.TemplateItem{ObjectiveID: id, DurationMin: item.Duration})
		}
		tpl.Days[wd] = ds
	}

	existing, err := im.store.GetDefaultTemplate(ctx, userID)
	switch {
	case err == nil && existing.Name == tpl.Name:
		tpl.ID = existing.ID
		tpl.CreatedAt = existing.CreatedAt
	case err == nil || apperr.Is(err, apperr.ErrNoTemplate):
		tpl.ID = uuid.New().String()
		tpl.CreatedAt = now
		res.TemplateCreated = true
	default:
		return res, err
	}

	if err := im.store.SaveTemplate(ctx, tpl); err != nil {
		return res, fmt.Errorf("failed to save template: %w", err)
	}
	res.TemplateID = tpl.ID
	logger.Info("Imported template", "user", userID, "template", tpl.Name, "created", res.TemplateCreated,
		"objectives_created", res.ObjectivesCreated, "objectives_updated", res.ObjectivesUpdated)
	return res, nil
}

func (im *Importer) upsertObjective(ctx context.Context, userID string, od ObjectiveDoc, now time.Time) (models.Objective, bool, error) {
	o, err := im.store.GetObjectiveByTitle(ctx, userID, od.Title)
	created := false
	switch {
	case err == nil:
	case apperr.Is(err, apperr.ErrNotFound):
		created = true
		o = models.Objective{ID: od.ID, UserID: userID, Title: od.Title, Active: true, CreatedAt: now}
		if o.ID == "" {
			o.ID = uuid.New().String()
		}
	default:
		return o, false, err
	}

	o.Category = od.Category
	o.EstimatedMinutes = od.EstimatedMinutes
	if od.Active != nil {
		o.Active = *od.Active
	}
	if err := im.store.SaveObjective(ctx, o); err != nil {
		return o, false, fmt.Errorf("failed to save objective %q: %w", od.Title, err)
	}
	return o, created, nil
}

// resolve finds an item's objective in the document first, then the store.
func (im *Importer) resolve(ctx context.Context, userID string, refs map[string]string, ref string) (string, error) {
	if id, ok := refs[ref]; ok {
		return id, nil
	}
	if id, ok := refs[strings.ToLower(ref)]; ok {
		return id, nil
	}
	if o, err := im.store.GetObjectiveByTitle(ctx, userID, ref); err == nil {
		return o.ID, nil
	} else if !apperr.Is(err, apperr.ErrNotFound) {
		return "", err
	}
	if o, err := im.store.GetObjective(ctx, userID, ref); err == nil {
		return o.ID, nil
	} else if !apperr.Is(err, apperr.ErrNotFound) {
		return "", err
	}
	return "", fmt.Errorf("unknown objective %q", ref)
}

// Export renders the user's default template and catalog.
func (im *Importer) Export(ctx context.Context, userID string) (Document, error) {
	user, err := im.store.GetUser(ctx, userID)
	if err != nil {
		return Document{}, err
	}
	tpl, err := im.store.GetDefaultTemplate(ctx, userID)
	if err != nil {
		return Document{}, err
	}
	objectives, err := im.store.ListObjectives(ctx, userID, true)
	if err != nil {
		return Document{}, err
	}
	return FromModels(user, objectives, tpl), nil
}
