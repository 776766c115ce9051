package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	pq "github.com/lib/pq"

	apperr "github.com/julianstephens/studyloop/internal/errors"
	"github.com/julianstephens/studyloop/internal/models"
)

const progressColumns = `p.id, p.user_id, p.objective_id, p.day, p.status, p.remarks, p.notes,
	p.time_spent, p.completed_at, p.created_at, p.updated_at`

func scanProgress(row interface{ Scan(...any) error }, extra ...any) (models.ProgressRecord, error) {
	var r models.ProgressRecord
	var day, status string
	var completedAt sql.NullTime
	dest := []any{
		&r.ID, &r.UserID, &r.ObjectiveID, &day, &status, &r.Remarks, &r.Notes,
		&r.TimeSpent, &completedAt, &r.CreatedAt, &r.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return models.ProgressRecord{}, err
	}
	r.Day = models.Day(day)
	r.Status = models.Status(status)
	if completedAt.Valid {
		t := completedAt.Time
		r.CompletedAt = &t
	}
	return r, nil
}

func (s *Store) queryProgress(ctx context.Context, query string, args ...any) ([]models.ProgressRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.ProgressRecord
	for rows.Next() {
		r, err := scanProgress(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) FindByUserAndDay(ctx context.Context, userID string, day models.Day) ([]models.ProgressRecord, error) {
	return s.queryProgress(ctx, `
		SELECT `+progressColumns+`
		FROM progress p
		WHERE p.user_id = $1 AND p.day = $2
		ORDER BY p.created_at, p.id`, userID, day.String())
}

func (s *Store) FindByUserItemDay(ctx context.Context, userID, objectiveID string, day models.Day) (models.ProgressRecord, error) {
	r, err := scanProgress(s.db.QueryRowContext(ctx, `
		SELECT `+progressColumns+`
		FROM progress p
		WHERE p.user_id = $1 AND p.objective_id = $2 AND p.day = $3
		ORDER BY p.created_at, p.id
		LIMIT 1`, userID, objectiveID, day.String()))
	if errors.Is(err, sql.ErrNoRows) {
		return models.ProgressRecord{}, fmt.Errorf("progress %s/%s: %w", objectiveID, day, apperr.ErrNotFound)
	}
	return r, err
}

func (s *Store) UpsertIfAbsent(ctx context.Context, r models.ProgressRecord) (bool, error) {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO progress (id, user_id, objective_id, day, status, remarks, notes,
			time_spent, completed_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT DO NOTHING`,
		r.ID, r.UserID, r.ObjectiveID, r.Day.String(), string(r.Status), r.Remarks, r.Notes,
		r.TimeSpent, nullTime(r.CompletedAt), r.CreatedAt.UTC(), r.UpdatedAt.UTC())
	if err != nil {
		return false, fmt.Errorf("failed to insert progress: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *Store) UpdateGeneratedStatus(ctx context.Context, id string, status models.Status) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE progress SET status = $1, completed_at = NULL, updated_at = NOW()
		WHERE id = $2 AND status IN ('pending', 'missed')`,
		string(status), id)
	if err != nil {
		return false, fmt.Errorf("failed to update progress status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *Store) DeleteMany(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM progress WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return 0, fmt.Errorf("failed to delete progress: %w", err)
	}
	return res.RowsAffected()
}

func (s *Store) DeleteGenerated(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM progress
		WHERE id = ANY($1) AND status IN ('pending', 'missed')`, pq.Array(ids))
	if err != nil {
		return 0, fmt.Errorf("failed to delete generated progress: %w", err)
	}
	return res.RowsAffected()
}

func (s *Store) PromotePendingBefore(ctx context.Context, userID string, from, before models.Day) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE progress SET status = 'missed', completed_at = NULL, updated_at = NOW()
		WHERE user_id = $1 AND status = 'pending' AND day >= $2 AND day < $3`,
		userID, from.String(), before.String())
	if err != nil {
		return 0, fmt.Errorf("failed to promote pending progress: %w", err)
	}
	return res.RowsAffected()
}

func (s *Store) DeleteGeneratedBefore(ctx context.Context, userID string, before models.Day) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM progress
		WHERE user_id = $1 AND status IN ('pending', 'missed') AND day < $2`,
		userID, before.String())
	if err != nil {
		return 0, fmt.Errorf("failed to delete generated progress: %w", err)
	}
	return res.RowsAffected()
}

func (s *Store) SaveProgress(ctx context.Context, r models.ProgressRecord) (models.ProgressRecord, error) {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = r.UpdatedAt
	}
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO progress (id, user_id, objective_id, day, status, remarks, notes,
			time_spent, completed_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (user_id, objective_id, day) DO UPDATE SET
			status = EXCLUDED.status,
			remarks = EXCLUDED.remarks,
			notes = EXCLUDED.notes,
			time_spent = EXCLUDED.time_spent,
			completed_at = EXCLUDED.completed_at,
			updated_at = EXCLUDED.updated_at
		RETURNING id, created_at`,
		r.ID, r.UserID, r.ObjectiveID, r.Day.String(), string(r.Status), r.Remarks, r.Notes,
		r.TimeSpent, nullTime(r.CompletedAt), r.CreatedAt.UTC(), r.UpdatedAt.UTC()).Scan(&r.ID, &r.CreatedAt)
	if err != nil {
		return models.ProgressRecord{}, fmt.Errorf("failed to save progress: %w", err)
	}
	return r, nil
}

func (s *Store) ListRange(ctx context.Context, userID string, from, to models.Day) ([]models.ProgressEntry, error) {
	query := `
		SELECT ` + progressColumns + `, COALESCE(o.title, ''), COALESCE(o.category, '')
		FROM progress p
		LEFT JOIN objectives o ON o.id = p.objective_id
		WHERE p.user_id = $1`
	args := []any{userID}
	if from != "" {
		args = append(args, from.String())
		query += ` AND p.day >= $` + strconv.Itoa(len(args))
	}
	if to != "" {
		args = append(args, to.String())
		query += ` AND p.day <= $` + strconv.Itoa(len(args))
	}
	query += ` ORDER BY p.day, o.title, p.id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.ProgressEntry
	for rows.Next() {
		var e models.ProgressEntry
		rec, err := scanProgress(rows, &e.ObjectiveTitle, &e.ObjectiveCategory)
		if err != nil {
			return nil, err
		}
		e.ProgressRecord = rec
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) CompletedDays(ctx context.Context, userID string) ([]models.Day, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT day FROM progress
		WHERE user_id = $1 AND status = 'completed'
		ORDER BY day DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var days []models.Day
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		days = append(days, models.Day(d))
	}
	return days, rows.Err()
}
