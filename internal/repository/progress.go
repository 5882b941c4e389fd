package repository

import (
	"context"
	"time"

	"github.com/eslsoft/studyhub/internal/entity"
)

// ProgressRepository is the progress store: one row per (user, lesson).
type ProgressRepository interface {
	// GetOrCreate returns the progress row for (user, lesson), creating an
	// incomplete one if none exists yet.
	GetOrCreate(ctx context.Context, userID, lessonID int64) (*entity.LessonProgress, error)
	// MarkCompleted flips the row to completed as a single conditional update:
	// it succeeds only if the row is not already completed, and reports whether
	// it changed anything. XP awarding is gated on this result, which closes
	// the double-submit race without explicit locking.
	MarkCompleted(ctx context.Context, userID, lessonID int64, at time.Time, points, secondsSpent int) (bool, error)
	// Unmark clears the completed flag and timestamp.
	Unmark(ctx context.Context, userID, lessonID int64) error
	// CompletedLessonIDs returns the ids of lessons the user completed. A nil
	// scope means all lessons; otherwise results are restricted to the given ids.
	CompletedLessonIDs(ctx context.Context, userID int64, scope []int64) ([]int64, error)
	CountCompleted(ctx context.Context, userID int64) (int64, error)
	CountCompletedSince(ctx context.Context, userID int64, since time.Time) (int64, error)
}
