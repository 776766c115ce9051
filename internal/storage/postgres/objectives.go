package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	apperr "github.com/julianstephens/studyloop/internal/errors"
	"github.com/julianstephens/studyloop/internal/models"
)

const objectiveColumns = `id, user_id, title, category, estimated_minutes, active, created_at`

func scanObjective(row interface{ Scan(...any) error }) (models.Objective, error) {
	var o models.Objective
	if err := row.Scan(&o.ID, &o.UserID, &o.Title, &o.Category, &o.EstimatedMinutes, &o.Active, &o.CreatedAt); err != nil {
		return models.Objective{}, err
	}
	return o, nil
}

func (s *Store) SaveObjective(ctx context.Context, o models.Objective) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO objectives (`+objectiveColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			category = EXCLUDED.category,
			estimated_minutes = EXCLUDED.estimated_minutes,
			active = EXCLUDED.active`,
		o.ID, o.UserID, o.Title, o.Category, o.EstimatedMinutes, o.Active, o.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to save objective: %w", err)
	}
	return nil
}

func (s *Store) GetObjective(ctx context.Context, userID, id string) (models.Objective, error) {
	o, err := scanObjective(s.db.QueryRowContext(ctx, `
		SELECT `+objectiveColumns+` FROM objectives WHERE user_id = $1 AND id = $2`, userID, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Objective{}, fmt.Errorf("objective %s: %w", id, apperr.ErrNotFound)
	}
	return o, err
}

func (s *Store) GetObjectiveByTitle(ctx context.Context, userID, title string) (models.Objective, error) {
	o, err := scanObjective(s.db.QueryRowContext(ctx, `
		SELECT `+objectiveColumns+` FROM objectives WHERE user_id = $1 AND title = $2`, userID, title))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Objective{}, fmt.Errorf("objective %q: %w", title, apperr.ErrNotFound)
	}
	return o, err
}

func (s *Store) ListObjectives(ctx context.Context, userID string, includeInactive bool) ([]models.Objective, error) {
	query := `SELECT ` + objectiveColumns + ` FROM objectives WHERE user_id = $1`
	if !includeInactive {
		query += ` AND active`
	}
	query += ` ORDER BY title`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Objective
	for rows.Next() {
		o, err := scanObjective(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}
