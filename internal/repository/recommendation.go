package repository

import (
	"context"

	"github.com/eslsoft/studyhub/internal/entity"
)

// RecommendationRepository persists the materialised recommendation rows.
type RecommendationRepository interface {
	// Replace deletes the user's rows and inserts the given ones in a single
	// transaction, returning the stored rows.
	Replace(ctx context.Context, userID int64, recs []entity.LearningRecommendation) ([]entity.LearningRecommendation, error)
	ListByUser(ctx context.Context, userID int64) ([]entity.LearningRecommendation, error)
}
