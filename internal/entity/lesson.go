package entity

import (
	"sort"
	"time"
)

// Subject is an ordered collection of lessons forming a prerequisite chain.
type Subject struct {
	ID          int64
	Name        string
	Description string
	// Lessons are ordered by (date, id) when loaded through the repository.
	Lessons   []Lesson
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Lesson is a single unit of content belonging to one subject.
// Lessons are authored externally and treated as immutable during a session.
type Lesson struct {
	ID         int64     `json:"id"`
	SubjectID  int64     `json:"subject_id"`
	Slug       string    `json:"slug"`
	Title      string    `json:"title"`
	Excerpt    string    `json:"excerpt,omitempty"`
	Content    string    `json:"-"`
	Difficulty string    `json:"difficulty,omitempty"`
	Date       time.Time `json:"date"`
	XPReward   int       `json:"xp_reward"`
	CreatedAt  time.Time `json:"-"`
	UpdatedAt  time.Time `json:"-"`
}

// Test is a single-question assessment attached to a lesson.
type Test struct {
	ID                 int64    `json:"id"`
	LessonID           int64    `json:"lesson_id"`
	Question           string   `json:"question"`
	CorrectAnswer      string   `json:"-"`
	WrongAnswers       []string `json:"-"`
	Explanation        string   `json:"-"`
	Points             int      `json:"points"`
	BonusTimeThreshold int      `json:"bonus_time_threshold"`
}

// LearningPath is a curated sequence of lessons crossing subject boundaries.
type LearningPath struct {
	ID          int64  `json:"id"`
	Slug        string `json:"slug"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Theme       string `json:"theme,omitempty"`
	Audience    string `json:"audience,omitempty"`
	Difficulty  string `json:"difficulty,omitempty"`
}

// LearningPathLesson pins a lesson at a position inside a learning path.
type LearningPathLesson struct {
	PathID   int64
	LessonID int64
	Order    int
}

// SortLessons orders lessons chronologically, breaking date ties by creation
// identity. This is the canonical subject order used by the accessibility rules.
func SortLessons(lessons []Lesson) {
	sort.SliceStable(lessons, func(i, j int) bool {
		if !lessons[i].Date.Equal(lessons[j].Date) {
			return lessons[i].Date.Before(lessons[j].Date)
		}
		return lessons[i].ID < lessons[j].ID
	})
}
