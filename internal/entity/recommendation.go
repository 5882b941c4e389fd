package entity

import "time"

// LearningRecommendation is an ephemeral, user-scoped "what to do next" row.
// A refresh fully replaces the user's rows rather than updating them in place.
type LearningRecommendation struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	LessonID  int64     `json:"lesson_id"`
	Reason    string    `json:"reason"`
	Score     float64   `json:"score"`
	CreatedAt time.Time `json:"created_at"`
}
