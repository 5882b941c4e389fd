package entity

import "time"

// TestAttempt is the single attempt row per (user, test). Submissions upsert
// it, so only the latest outcome is authoritative.
type TestAttempt struct {
	ID             int64
	UserID         int64
	TestID         int64
	SelectedAnswer string
	IsCorrect      bool
	TimeTakenMS    int
	AwardedPoints  int
	EarnedBonus    bool
	Feedback       string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// AssessmentResult describes the outcome of processing a test attempt. The
// progress fields are populated only when the attempt completed the lesson.
type AssessmentResult struct {
	IsCorrect       bool              `json:"is_correct"`
	CorrectAnswer   string            `json:"correct_answer"`
	Explanation     string            `json:"explanation"`
	AwardedPoints   int               `json:"awarded_points"`
	EarnedBonus     bool              `json:"earned_bonus"`
	LessonCompleted bool              `json:"lesson_completed"`
	Progress        *ProgressSnapshot `json:"progress,omitempty"`
}
