package entity

import "time"

// CriteriaKind names an aggregate the award checker can evaluate.
type CriteriaKind string

const (
	CriteriaLessonsCompleted CriteriaKind = "lessons_completed"
	CriteriaStreakDays       CriteriaKind = "streak_days"
	CriteriaTotalXP          CriteriaKind = "total_xp"
	CriteriaLevel            CriteriaKind = "level"
)

// AwardCriteria is a declarative threshold rule: the criterion is satisfied
// once the named aggregate reaches Threshold.
type AwardCriteria struct {
	Kind      CriteriaKind `json:"kind"`
	Threshold int          `json:"threshold"`
}

// Badge is a catalog entry describing an earnable badge.
type Badge struct {
	ID          int64         `json:"id"`
	Code        string        `json:"code"`
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	Icon        string        `json:"icon,omitempty"`
	Criteria    AwardCriteria `json:"criteria"`
}

// Reward is a catalog entry describing an earnable reward.
type Reward struct {
	ID          int64         `json:"id"`
	Code        string        `json:"code"`
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	Criteria    AwardCriteria `json:"criteria"`
}

// UserBadge records that a user earned a badge, at most once per (user, badge).
type UserBadge struct {
	ID        int64
	UserID    int64
	BadgeID   int64
	AwardedAt time.Time
}

// UserReward records that a user earned a reward, at most once per (user, reward).
type UserReward struct {
	ID        int64
	UserID    int64
	RewardID  int64
	AwardedAt time.Time
}

// EarnedBadge pairs a catalog badge with the moment the user earned it.
type EarnedBadge struct {
	Badge     Badge     `json:"badge"`
	AwardedAt time.Time `json:"awarded_at"`
}

// BadgeSummary is the read projection consumed by dashboards.
type BadgeSummary struct {
	Earned         []EarnedBadge `json:"earned"`
	Highlighted    []EarnedBadge `json:"highlighted"`
	TotalAvailable int           `json:"total_available"`
}

// DefaultBadgeCatalog returns the stock badge rules. The catalog lives in the
// database; db-init seeds it from this table so criteria stay declarative.
func DefaultBadgeCatalog() []Badge {
	return []Badge{
		{Code: "first-steps", Name: "First Steps", Description: "Complete your first lesson", Icon: "👣", Criteria: AwardCriteria{Kind: CriteriaLessonsCompleted, Threshold: 1}},
		{Code: "explorer", Name: "Explorer", Description: "Complete 5 lessons", Icon: "🧭", Criteria: AwardCriteria{Kind: CriteriaLessonsCompleted, Threshold: 5}},
		{Code: "dedicated", Name: "Dedicated", Description: "Complete 10 lessons", Icon: "🏅", Criteria: AwardCriteria{Kind: CriteriaLessonsCompleted, Threshold: 10}},
		{Code: "week-streak", Name: "Week Streak", Description: "Stay active 7 days in a row", Icon: "🔥", Criteria: AwardCriteria{Kind: CriteriaStreakDays, Threshold: 7}},
		{Code: "xp-collector", Name: "XP Collector", Description: "Earn 1000 XP", Icon: "💎", Criteria: AwardCriteria{Kind: CriteriaTotalXP, Threshold: 1000}},
	}
}

// DefaultRewardCatalog returns the stock reward rules.
func DefaultRewardCatalog() []Reward {
	return []Reward{
		{Code: "10-lessons-club", Name: "10 Lessons Club", Description: "Completed 10 lessons", Criteria: AwardCriteria{Kind: CriteriaLessonsCompleted, Threshold: 10}},
		{Code: "level-5", Name: "Level 5 Unlocked", Description: "Reached level 5", Criteria: AwardCriteria{Kind: CriteriaLevel, Threshold: 5}},
	}
}
