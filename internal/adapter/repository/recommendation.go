package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eslsoft/studyhub/internal/entity"
	"github.com/eslsoft/studyhub/internal/repository"
)

type recommendationRepository struct {
	pool *pgxpool.Pool
}

// NewRecommendationRepository constructs a pgx-backed recommendation store.
func NewRecommendationRepository(pool *pgxpool.Pool) repository.RecommendationRepository {
	return &recommendationRepository{pool: pool}
}

// Replace swaps the user's rows in one transaction so readers never observe a
// partially refreshed set.
func (r *recommendationRepository) Replace(ctx context.Context, userID int64, recs []entity.LearningRecommendation) ([]entity.LearningRecommendation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("begin replace recommendations: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, "DELETE FROM learning_recommendations WHERE user_id = $1", userID); err != nil {
		return nil, fmt.Errorf("delete recommendations: %w", err)
	}

	stored := make([]entity.LearningRecommendation, 0, len(recs))
	for _, rec := range recs {
		row := tx.QueryRow(ctx, `
			INSERT INTO learning_recommendations (user_id, lesson_id, reason, score, created_at)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id`,
			userID, rec.LessonID, rec.Reason, rec.Score, rec.CreatedAt)
		if err := row.Scan(&rec.ID); err != nil {
			return nil, fmt.Errorf("insert recommendation: %w", err)
		}
		rec.UserID = userID
		stored = append(stored, rec)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit replace recommendations: %w", err)
	}
	return stored, nil
}

func (r *recommendationRepository) ListByUser(ctx context.Context, userID int64) ([]entity.LearningRecommendation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, lesson_id, reason, score, created_at
		FROM learning_recommendations
		WHERE user_id = $1
		ORDER BY score DESC, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list recommendations: %w", err)
	}
	defer rows.Close()

	var recs []entity.LearningRecommendation
	for rows.Next() {
		var rec entity.LearningRecommendation
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.LessonID, &rec.Reason, &rec.Score, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan recommendation: %w", err)
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list recommendations: %w", err)
	}
	return recs, nil
}
