package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/eslsoft/studyhub/internal/entity"
	"github.com/eslsoft/studyhub/internal/repository"
)

// AssessmentUsecase grades test submissions and feeds correct answers into the
// gamification engine.
type AssessmentUsecase interface {
	// ProcessTestAttempt grades the submitted answer, upserts the attempt row
	// and, on a correct answer, records the lesson completion.
	ProcessTestAttempt(ctx context.Context, userID, testID int64, answer string, timeTakenMS int) (*entity.AssessmentResult, error)
}

// NewAssessmentUsecase builds the grading pipeline on top of the stores and
// the gamification engine.
func NewAssessmentUsecase(
	tests repository.TestRepository,
	lessons repository.LessonRepository,
	attempts repository.AttemptRepository,
	gamification GamificationUsecase,
) AssessmentUsecase {
	return &assessmentUsecase{
		tests:        tests,
		lessons:      lessons,
		attempts:     attempts,
		gamification: gamification,
		clock:        time.Now,
	}
}

type assessmentUsecase struct {
	tests        repository.TestRepository
	lessons      repository.LessonRepository
	attempts     repository.AttemptRepository
	gamification GamificationUsecase
	clock        func() time.Time
}

func (u *assessmentUsecase) ProcessTestAttempt(ctx context.Context, userID, testID int64, answer string, timeTakenMS int) (*entity.AssessmentResult, error) {
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return nil, entity.ErrEmptyAnswer
	}

	test, err := u.tests.GetByID(ctx, testID)
	if err != nil {
		return nil, err
	}

	// Answers are option values picked from a fixed list, so the comparison is
	// exact and case sensitive.
	correct := answer == test.CorrectAnswer

	result := &entity.AssessmentResult{
		IsCorrect:     correct,
		CorrectAnswer: test.CorrectAnswer,
		Explanation:   test.Explanation,
	}

	if correct {
		result.AwardedPoints = test.Points
		result.EarnedBonus = test.BonusTimeThreshold > 0 && timeTakenMS > 0 &&
			float64(timeTakenMS)/1000.0 <= float64(test.BonusTimeThreshold)
	}

	feedback := "Great job!"
	if !correct {
		feedback = test.Explanation
	}

	now := u.clock()
	if _, err := u.attempts.Upsert(ctx, &entity.TestAttempt{
		UserID:         userID,
		TestID:         testID,
		SelectedAnswer: answer,
		IsCorrect:      correct,
		TimeTakenMS:    timeTakenMS,
		AwardedPoints:  result.AwardedPoints,
		EarnedBonus:    result.EarnedBonus,
		Feedback:       feedback,
		CreatedAt:      now,
		UpdatedAt:      now,
	}); err != nil {
		return nil, err
	}

	if correct {
		lesson, err := u.lessons.GetByID(ctx, test.LessonID)
		if err != nil {
			return nil, err
		}
		snapshot, err := u.gamification.RecordLessonCompletion(ctx, userID, lesson, timeTakenMS/1000)
		if err != nil {
			return nil, err
		}
		result.LessonCompleted = true
		result.Progress = &snapshot
	}
	return result, nil
}
