package entity

// Mission is a small daily goal computed from aggregates, never persisted.
type Mission struct {
	Code     string `json:"code"`
	Title    string `json:"title"`
	Target   int    `json:"target"`
	Progress int    `json:"progress"`
	Done     bool   `json:"done"`
}

// LeaderboardEntry is one ranked row of the XP leaderboard.
type LeaderboardEntry struct {
	Rank        int    `json:"rank"`
	UserID      int64  `json:"user_id"`
	DisplayName string `json:"display_name"`
	XP          int    `json:"xp"`
	Level       int    `json:"level"`
	Streak      int    `json:"streak"`
}

// StudentDashboard aggregates the read projections shown on the student home.
type StudentDashboard struct {
	Profile               UserProfile        `json:"profile"`
	Progress              ProgressSnapshot   `json:"progress"`
	Badges                BadgeSummary       `json:"badges"`
	Missions              []Mission          `json:"missions"`
	Recommendations       []Lesson           `json:"recommendations"`
	PrimaryRecommendation *Lesson            `json:"primary_recommendation,omitempty"`
	Leaderboard           []LeaderboardEntry `json:"leaderboard"`
}

// LessonBlock groups lessons for the listing page: either a curated learning
// path or the leftover lessons of one subject.
type LessonBlock struct {
	Type            string         `json:"type"`
	Title           string         `json:"title"`
	Slug            string         `json:"slug"`
	Description     string         `json:"description,omitempty"`
	Lessons         []SequenceItem `json:"lessons"`
	Completed       int            `json:"completed"`
	Total           int            `json:"total"`
	ProgressPercent int            `json:"progress_percent"`
	NextLesson      *LessonRef     `json:"next_lesson,omitempty"`
}

// LessonsPage is the full payload for the lessons listing.
type LessonsPage struct {
	Blocks          []LessonBlock `json:"blocks"`
	Lessons         []Lesson      `json:"lessons"`
	TotalCount      int64         `json:"total_count"`
	BadgeSummary    BadgeSummary  `json:"badge_summary"`
	Recommendations []Lesson      `json:"recommendations"`
}

// LessonDetail is the payload for a single accessible lesson.
type LessonDetail struct {
	Lesson          Lesson                   `json:"lesson"`
	Tests           []Test                   `json:"tests"`
	QuizOptions     []string                 `json:"quiz_options,omitempty"`
	Sequence        []SequenceItem           `json:"subject_sequence"`
	Position        int                      `json:"lesson_position"`
	SubjectTotal    int                      `json:"subject_total"`
	Prev            *LessonRef               `json:"prev_lesson,omitempty"`
	Next            *LessonRef               `json:"next_lesson,omitempty"`
	NextLocked      bool                     `json:"next_locked"`
	Badges          BadgeSummary             `json:"badges"`
	Recommendations []LearningRecommendation `json:"recommendations"`
}
