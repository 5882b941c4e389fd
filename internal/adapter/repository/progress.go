package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eslsoft/studyhub/internal/entity"
	"github.com/eslsoft/studyhub/internal/repository"
)

type progressRepository struct {
	pool *pgxpool.Pool
}

// NewProgressRepository constructs a pgx-backed progress store.
func NewProgressRepository(pool *pgxpool.Pool) repository.ProgressRepository {
	return &progressRepository{pool: pool}
}

const progressColumns = "id, user_id, lesson_id, completed, completed_at, points_earned, seconds_spent, created_at, updated_at"

func scanProgress(row interface{ Scan(...any) error }) (*entity.LessonProgress, error) {
	var p entity.LessonProgress
	err := row.Scan(
		&p.ID,
		&p.UserID,
		&p.LessonID,
		&p.Completed,
		&p.CompletedAt,
		&p.PointsEarned,
		&p.SecondsSpent,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *progressRepository) GetOrCreate(ctx context.Context, userID, lessonID int64) (*entity.LessonProgress, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	row := r.pool.QueryRow(ctx, `
		INSERT INTO lesson_progress (user_id, lesson_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, lesson_id) DO UPDATE SET updated_at = lesson_progress.updated_at
		RETURNING `+progressColumns, userID, lessonID)
	progress, err := scanProgress(row)
	if err != nil {
		return nil, fmt.Errorf("get or create progress: %w", err)
	}
	return progress, nil
}

// MarkCompleted is the compare-and-swap that serialises concurrent completion
// attempts: only the request whose UPDATE matches the not-yet-completed row
// reports a change, so XP is awarded at most once per lesson.
func (r *progressRepository) MarkCompleted(ctx context.Context, userID, lessonID int64, at time.Time, points, secondsSpent int) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	tag, err := r.pool.Exec(ctx, `
		UPDATE lesson_progress
		SET completed = TRUE,
		    completed_at = $3,
		    points_earned = $4,
		    seconds_spent = $5,
		    updated_at = NOW()
		WHERE user_id = $1 AND lesson_id = $2 AND NOT completed`,
		userID, lessonID, at, points, secondsSpent)
	if err != nil {
		return false, fmt.Errorf("mark completed: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *progressRepository) Unmark(ctx context.Context, userID, lessonID int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := r.pool.Exec(ctx, `
		UPDATE lesson_progress
		SET completed = FALSE, completed_at = NULL, updated_at = NOW()
		WHERE user_id = $1 AND lesson_id = $2`,
		userID, lessonID)
	if err != nil {
		return fmt.Errorf("unmark progress: %w", err)
	}
	return nil
}

func (r *progressRepository) CompletedLessonIDs(ctx context.Context, userID int64, scope []int64) ([]int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sql := "SELECT lesson_id FROM lesson_progress WHERE user_id = $1 AND completed"
	args := []any{userID}
	if scope != nil {
		sql += " AND lesson_id = ANY($2)"
		args = append(args, scope)
	}
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("completed lesson ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan lesson id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("completed lesson ids: %w", err)
	}
	return ids, nil
}

func (r *progressRepository) CountCompleted(ctx context.Context, userID int64) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	var count int64
	err := r.pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM lesson_progress WHERE user_id = $1 AND completed", userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count completed: %w", err)
	}
	return count, nil
}

func (r *progressRepository) CountCompletedSince(ctx context.Context, userID int64, since time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	var count int64
	err := r.pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM lesson_progress WHERE user_id = $1 AND completed AND completed_at >= $2",
		userID, since).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count completed since: %w", err)
	}
	return count, nil
}
