package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/eslsoft/studyhub/internal/entity"
	"github.com/eslsoft/studyhub/internal/repository"
)

// RecommendationUsecase suggests the next lessons for a user. Calculate serves
// a cached answer; Refresh invalidates, recomputes and persists replacement
// recommendation rows. Callers reacting to a state change must use Refresh,
// since Calculate may return a stale cached answer within the TTL.
type RecommendationUsecase interface {
	Calculate(ctx context.Context, userID int64, limit int32) ([]entity.Lesson, error)
	Refresh(ctx context.Context, userID int64, limit int32) ([]entity.Lesson, error)
	ListStored(ctx context.Context, userID int64) ([]entity.LearningRecommendation, error)
}

// NewRecommendationUsecase builds the recommendation pipeline.
func NewRecommendationUsecase(
	lessons repository.LessonRepository,
	recs repository.RecommendationRepository,
	cache repository.Cache,
	logger *logrus.Logger,
) RecommendationUsecase {
	return &recommendationUsecase{
		lessons: lessons,
		recs:    recs,
		cache:   cache,
		logger:  logger,
		ttl:     5 * time.Minute,
		clock:   time.Now,
	}
}

type recommendationUsecase struct {
	lessons repository.LessonRepository
	recs    repository.RecommendationRepository
	cache   repository.Cache
	logger  *logrus.Logger
	ttl     time.Duration
	clock   func() time.Time
}

func (u *recommendationUsecase) Calculate(ctx context.Context, userID int64, limit int32) ([]entity.Lesson, error) {
	if limit <= 0 {
		limit = 3
	}
	key := recommendationCacheKey(userID, limit)

	if data, err := u.cache.Get(ctx, key); err == nil {
		var cached []entity.Lesson
		if json.Unmarshal(data, &cached) == nil {
			return cached, nil
		}
	}

	lessons, err := u.lessons.ListUncompleted(ctx, userID, limit)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(lessons); err == nil {
		if err := u.cache.Set(ctx, key, data, u.ttl); err != nil {
			u.logger.WithError(err).WithField("user_id", userID).Warn("cache recommendations")
		}
	}
	return lessons, nil
}

func (u *recommendationUsecase) Refresh(ctx context.Context, userID int64, limit int32) ([]entity.Lesson, error) {
	if limit <= 0 {
		limit = 3
	}
	if err := u.cache.Delete(ctx, recommendationCacheKey(userID, limit)); err != nil {
		u.logger.WithError(err).WithField("user_id", userID).Warn("invalidate recommendations")
	}

	lessons, err := u.Calculate(ctx, userID, limit)
	if err != nil {
		return nil, err
	}

	now := u.clock()
	rows := make([]entity.LearningRecommendation, 0, len(lessons))
	for i, lesson := range lessons {
		rows = append(rows, entity.LearningRecommendation{
			UserID:    userID,
			LessonID:  lesson.ID,
			Reason:    "next in your learning sequence",
			Score:     1.0 - 0.1*float64(i),
			CreatedAt: now,
		})
	}
	if _, err := u.recs.Replace(ctx, userID, rows); err != nil {
		return nil, err
	}
	return lessons, nil
}

func (u *recommendationUsecase) ListStored(ctx context.Context, userID int64) ([]entity.LearningRecommendation, error) {
	return u.recs.ListByUser(ctx, userID)
}

func recommendationCacheKey(userID int64, limit int32) string {
	return fmt.Sprintf("recs:%d:%d", userID, limit)
}
