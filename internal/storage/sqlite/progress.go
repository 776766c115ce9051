package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	apperr "github.com/julianstephens/studyloop/internal/errors"
	"github.com/julianstephens/studyloop/internal/models"
)

const progressColumns = `p.id, p.user_id, p.objective_id, p.day, p.status, p.remarks, p.notes,
	p.time_spent, p.completed_at, p.created_at, p.updated_at`

func scanProgress(row interface{ Scan(...any) error }, extra ...any) (models.ProgressRecord, error) {
	var r models.ProgressRecord
	var day, status, createdAt, updatedAt string
	var completedAt sql.NullString
	dest := []any{
		&r.ID, &r.UserID, &r.ObjectiveID, &day, &status, &r.Remarks, &r.Notes,
		&r.TimeSpent, &completedAt, &createdAt, &updatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return models.ProgressRecord{}, err
	}
	r.Day = models.Day(day)
	r.Status = models.Status(status)
	r.CreatedAt = parseTS(createdAt)
	r.UpdatedAt = parseTS(updatedAt)
	if completedAt.Valid {
		t := parseTS(completedAt.String)
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
		WHERE p.user_id = ? AND p.day = ?
		ORDER BY p.created_at, p.id`, userID, day.String())
}

func (s *Store) FindByUserItemDay(ctx context.Context, userID, objectiveID string, day models.Day) (models.ProgressRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+progressColumns+`
		FROM progress p
		WHERE p.user_id = ? AND p.objective_id = ? AND p.day = ?
		ORDER BY p.created_at, p.id
		LIMIT 1`, userID, objectiveID, day.String())
	r, err := scanProgress(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ProgressRecord{}, fmt.Errorf("progress %s/%s: %w", objectiveID, day, apperr.ErrNotFound)
	}
	return r, err
}

func (s *Store) UpsertIfAbsent(ctx context.Context, r models.ProgressRecord) (bool, error) {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	// No conflict target: any uniqueness violation, including the primary
	// key, is a no-op.
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO progress (id, user_id, objective_id, day, status, remarks, notes,
			time_spent, completed_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING`,
		r.ID, r.UserID, r.ObjectiveID, r.Day.String(), string(r.Status), r.Remarks, r.Notes,
		r.TimeSpent, nullTS(r.CompletedAt), formatTS(r.CreatedAt), formatTS(r.UpdatedAt))
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
		UPDATE progress SET status = ?, completed_at = NULL, updated_at = ?
		WHERE id = ? AND status IN ('pending', 'missed')`,
		string(status), formatTS(time.Now()), id)
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
	return s.deleteIDs(ctx, `DELETE FROM progress WHERE id IN (%s)`, ids)
}

func (s *Store) DeleteGenerated(ctx context.Context, ids []string) (int64, error) {
	return s.deleteIDs(ctx, `DELETE FROM progress WHERE status IN ('pending', 'missed') AND id IN (%s)`, ids)
}

func (s *Store) deleteIDs(ctx context.Context, query string, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(ids)), ", ")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	res, err := s.db.ExecContext(ctx, fmt.Sprintf(query, placeholders), args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete progress: %w", err)
	}
	return res.RowsAffected()
}

func (s *Store) PromotePendingBefore(ctx context.Context, userID string, from, before models.Day) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE progress SET status = 'missed', completed_at = NULL, updated_at = ?
		WHERE user_id = ? AND status = 'pending' AND day >= ? AND day < ?`,
		formatTS(time.Now()), userID, from.String(), before.String())
	if err != nil {
		return 0, fmt.Errorf("failed to promote pending progress: %w", err)
	}
	return res.RowsAffected()
}

func (s *Store) DeleteGeneratedBefore(ctx context.Context, userID string, before models.Day) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM progress
		WHERE user_id = ? AND status IN ('pending', 'missed') AND day < ?`,
		userID, before.String())
	if err != nil {
		return 0, fmt.Errorf("failed to delete generated progress: %w", err)
	}
	return res.RowsAffected()
}

func (s *Store) SaveProgress(ctx context.Context, r models.ProgressRecord) (models.ProgressRecord, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return models.ProgressRecord{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var existingID, createdAt string
	err = tx.QueryRowContext(ctx, `
		SELECT id, created_at FROM progress
		WHERE user_id = ? AND objective_id = ? AND day = ?
		ORDER BY created_at, id
		LIMIT 1`, r.UserID, r.ObjectiveID, r.Day.String()).Scan(&existingID, &createdAt)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		if r.ID == "" {
			r.ID = uuid.New().String()
		}
		if r.CreatedAt.IsZero() {
			r.CreatedAt = r.UpdatedAt
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO progress (id, user_id, objective_id, day, status, remarks, notes,
				time_spent, completed_at, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			r.ID, r.UserID, r.ObjectiveID, r.Day.String(), string(r.Status), r.Remarks, r.Notes,
			r.TimeSpent, nullTS(r.CompletedAt), formatTS(r.CreatedAt), formatTS(r.UpdatedAt))
	case err != nil:
		return models.ProgressRecord{}, err
	default:
		r.ID = existingID
		r.CreatedAt = parseTS(createdAt)
		_, err = tx.ExecContext(ctx, `
			UPDATE progress SET status = ?, remarks = ?, notes = ?, time_spent = ?,
				completed_at = ?, updated_at = ?
			WHERE id = ?`,
			string(r.Status), r.Remarks, r.Notes, r.TimeSpent, nullTS(r.CompletedAt),
			formatTS(r.UpdatedAt), r.ID)
	}
	if err != nil {
		return models.ProgressRecord{}, fmt.Errorf("failed to save progress: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return models.ProgressRecord{}, err
	}
	return r, nil
}

func (s *Store) ListRange(ctx context.Context, userID string, from, to models.Day) ([]models.ProgressEntry, error) {
	query := `
		SELECT ` + progressColumns + `, COALESCE(o.title, ''), COALESCE(o.category, '')
		FROM progress p
		LEFT JOIN objectives o ON o.id = p.objective_id
		WHERE p.user_id = ?`
	args := []any{userID}
	if from != "" {
		query += ` AND p.day >= ?`
		args = append(args, from.String())
	}
	if to != "" {
		query += ` AND p.day <= ?`
		args = append(args, to.String())
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
		WHERE user_id = ? AND status = 'completed'
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
