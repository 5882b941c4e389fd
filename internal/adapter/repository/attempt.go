package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eslsoft/studyhub/internal/entity"
	"github.com/eslsoft/studyhub/internal/repository"
)

type attemptRepository struct {
	pool *pgxpool.Pool
}

// NewAttemptRepository constructs a pgx-backed attempt store.
func NewAttemptRepository(pool *pgxpool.Pool) repository.AttemptRepository {
	return &attemptRepository{pool: pool}
}

const attemptColumns = "id, user_id, test_id, selected_answer, is_correct, time_taken_ms, awarded_points, earned_bonus, feedback, created_at, updated_at"

func scanAttempt(row interface{ Scan(...any) error }) (*entity.TestAttempt, error) {
	var a entity.TestAttempt
	err := row.Scan(
		&a.ID,
		&a.UserID,
		&a.TestID,
		&a.SelectedAnswer,
		&a.IsCorrect,
		&a.TimeTakenMS,
		&a.AwardedPoints,
		&a.EarnedBonus,
		&a.Feedback,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Upsert keeps exactly one row per (user, test); resubmissions overwrite the
// previous outcome in place.
func (r *attemptRepository) Upsert(ctx context.Context, attempt *entity.TestAttempt) (*entity.TestAttempt, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	row := r.pool.QueryRow(ctx, `
		INSERT INTO test_attempts (user_id, test_id, selected_answer, is_correct, time_taken_ms, awarded_points, earned_bonus, feedback)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (user_id, test_id) DO UPDATE SET
			selected_answer = EXCLUDED.selected_answer,
			is_correct = EXCLUDED.is_correct,
			time_taken_ms = EXCLUDED.time_taken_ms,
			awarded_points = EXCLUDED.awarded_points,
			earned_bonus = EXCLUDED.earned_bonus,
			feedback = EXCLUDED.feedback,
			updated_at = NOW()
		RETURNING `+attemptColumns,
		attempt.UserID,
		attempt.TestID,
		attempt.SelectedAnswer,
		attempt.IsCorrect,
		attempt.TimeTakenMS,
		attempt.AwardedPoints,
		attempt.EarnedBonus,
		attempt.Feedback,
	)
	stored, err := scanAttempt(row)
	if err != nil {
		return nil, fmt.Errorf("upsert attempt: %w", err)
	}
	return stored, nil
}

func (r *attemptRepository) Get(ctx context.Context, userID, testID int64) (*entity.TestAttempt, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	row := r.pool.QueryRow(ctx,
		"SELECT "+attemptColumns+" FROM test_attempts WHERE user_id = $1 AND test_id = $2",
		userID, testID)
	attempt, err := scanAttempt(row)
	if err != nil {
		if isNoRows(err) {
			return nil, entity.ErrTestNotFound
		}
		return nil, fmt.Errorf("get attempt: %w", err)
	}
	return attempt, nil
}
