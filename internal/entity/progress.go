package entity

import (
	"math"
	"time"
)

// LessonProgress is the per-(user, lesson) completion record. Created lazily on
// first interaction and toggled between completed states, never hard-deleted.
type LessonProgress struct {
	ID           int64
	UserID       int64
	LessonID     int64
	Completed    bool
	CompletedAt  *time.Time
	PointsEarned int
	SecondsSpent int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ProgressSnapshot is the read-only {percent, completed, total} summary consumed
// by presentation layers.
type ProgressSnapshot struct {
	Percent   int `json:"percent"`
	Completed int `json:"completed"`
	Total     int `json:"total"`
}

// NewProgressSnapshot computes the snapshot for completed-out-of-total lessons.
// An empty catalog yields zero percent rather than a division error.
func NewProgressSnapshot(completed, total int) ProgressSnapshot {
	snapshot := ProgressSnapshot{Completed: completed, Total: total}
	if total > 0 {
		snapshot.Percent = int(math.Round(float64(completed) / float64(total) * 100))
	}
	return snapshot
}

// ToggleResult reports the new completion state after toggling a lesson.
type ToggleResult struct {
	Completed bool             `json:"completed"`
	Snapshot  ProgressSnapshot `json:"progress_snapshot"`
}
