package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	apperr "github.com/julianstephens/studyloop/internal/errors"
	"github.com/julianstephens/studyloop/internal/models"
)

func (s *Store) GetDefaultTemplate(ctx context.Context, userID string) (models.WeeklyTemplate, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, name, description, is_default, is_active, created_at, updated_at
		FROM templates
		WHERE user_id = ? AND is_default = 1 AND is_active = 1
		ORDER BY created_at DESC
		LIMIT 1`, userID)

	var t models.WeeklyTemplate
	var isDefault, isActive int
	var createdAt, updatedAt string
	err := row.Scan(&t.ID, &t.UserID, &t.Name, &t.Description, &isDefault, &isActive, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.WeeklyTemplate{}, apperr.ErrNoTemplate
	}
	if err != nil {
		return models.WeeklyTemplate{}, err
	}
	t.IsDefault = isDefault != 0
	t.IsActive = isActive != 0
	t.CreatedAt = parseTS(createdAt)
	t.UpdatedAt = parseTS(updatedAt)

	if t.Days, err = s.loadDays(ctx, t.ID); err != nil {
		return models.WeeklyTemplate{}, err
	}
	return t, nil
}

func (s *Store) loadDays(ctx context.Context, templateID string) (map[time.Weekday]models.DaySchedule, error) {
	days := map[time.Weekday]models.DaySchedule{}

	rows, err := s.db.QueryContext(ctx, `
		SELECT weekday, is_active FROM template_days WHERE template_id = ?`, templateID)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var wd, active int
		if err := rows.Scan(&wd, &active); err != nil {
			rows.Close()
			return nil, err
		}
		days[time.Weekday(wd)] = models.DaySchedule{Active: active != 0}
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}

	rows, err = s.db.QueryContext(ctx, `
		SELECT weekday, objective_id, duration_min
		FROM template_items
		WHERE template_id = ?
		ORDER BY weekday, position`, templateID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var wd int
		var item models.TemplateItem
		if err := rows.Scan(&wd, &item.ObjectiveID, &item.DurationMin); err != nil {
			return nil, err
		}
		ds := days[time.Weekday(wd)]
		ds.Items = append(ds.Items, item)
		days[time.Weekday(wd)] = ds
	}
	return days, rows.Err()
}

func (s *Store) SaveTemplate(ctx context.Context, t models.WeeklyTemplate) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if t.IsDefault {
		if _, err := tx.ExecContext(ctx, `
			UPDATE templates SET is_default = 0 WHERE user_id = ? AND id != ?`, t.UserID, t.ID); err != nil {
			return fmt.Errorf("failed to clear default template: %w", err)
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO templates (id, user_id, name, description, is_default, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			is_default = excluded.is_default,
			is_active = excluded.is_active,
			updated_at = excluded.updated_at`,
		t.ID, t.UserID, t.Name, t.Description, boolInt(t.IsDefault), boolInt(t.IsActive),
		formatTS(t.CreatedAt), formatTS(t.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to save template: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM template_items WHERE template_id = ?`, t.ID); err != nil {
		return fmt.Errorf("failed to clear template items: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM template_days WHERE template_id = ?`, t.ID); err != nil {
		return fmt.Errorf("failed to clear template days: %w", err)
	}

	for wd, ds := range t.Days {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO template_days (template_id, weekday, is_active) VALUES (?, ?, ?)`,
			t.ID, int(wd), boolInt(ds.Active)); err != nil {
			return fmt.Errorf("failed to save %s schedule: %w", wd, err)
		}
		for i, item := range ds.Items {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO template_items (template_id, weekday, position, objective_id, duration_min)
				VALUES (?, ?, ?, ?, ?)`,
				t.ID, int(wd), i, item.ObjectiveID, item.DurationMin); err != nil {
				return fmt.Errorf("failed to save %s item: %w", wd, err)
			}
		}
	}

	return tx.Commit()
}
