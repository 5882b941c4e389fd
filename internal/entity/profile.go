package entity

import "time"

// UserProfile carries the cumulative gamification state for one user.
// XP, level and streak are mutated only through the gamification engine's
// AddXP operation; nothing else writes these fields.
type UserProfile struct {
	UserID         int64      `json:"user_id"`
	DisplayName    string     `json:"display_name"`
	XP             int        `json:"xp"`
	Level          int        `json:"level"`
	Streak         int        `json:"streak"`
	LastActivityAt *time.Time `json:"last_activity_at,omitempty"`
	CreatedAt      time.Time  `json:"-"`
	UpdatedAt      time.Time  `json:"-"`
}

// ExperienceLog is one entry of the append-only XP ledger.
type ExperienceLog struct {
	ID        int64
	UserID    int64
	Amount    int
	Reason    string
	CreatedAt time.Time
}

// LevelCurve maps cumulative XP to a level. It is a list of ascending
// cumulative thresholds: reaching Thresholds[i] XP puts the user at level i+1.
// Beyond the table, every additional final-gap XP adds one level, so the curve
// stays total and monotonic for arbitrary XP.
type LevelCurve []int

// DefaultLevelThresholds is the stock curve: ten tabled levels, then one level
// per 500 XP.
var DefaultLevelThresholds = LevelCurve{0, 100, 250, 450, 700, 1000, 1350, 1750, 2200, 2700}

// LevelFor returns the level for the given cumulative XP. Negative XP clamps
// to the first level.
func (c LevelCurve) LevelFor(xp int) int {
	if len(c) == 0 {
		return 1
	}
	level := 1
	for i, threshold := range c {
		if xp < threshold {
			break
		}
		level = i + 1
	}
	if last := c[len(c)-1]; xp > last && len(c) >= 2 {
		gap := last - c[len(c)-2]
		if gap > 0 {
			level += (xp - last) / gap
		}
	}
	return level
}

// Valid reports whether the curve is strictly ascending and starts at zero.
func (c LevelCurve) Valid() bool {
	if len(c) == 0 || c[0] != 0 {
		return false
	}
	for i := 1; i < len(c); i++ {
		if c[i] <= c[i-1] {
			return false
		}
	}
	return true
}
