package repository

import (
	"context"
	"time"

	"github.com/eslsoft/studyhub/internal/entity"
)

// AwardRepository persists the badge/reward catalogs and per-user awards.
type AwardRepository interface {
	ListBadges(ctx context.Context) ([]entity.Badge, error)
	ListRewards(ctx context.Context) ([]entity.Reward, error)
	// UpsertBadge and UpsertReward sync catalog entries by code; db-init uses
	// them to seed the declarative rule tables.
	UpsertBadge(ctx context.Context, badge *entity.Badge) error
	UpsertReward(ctx context.Context, reward *entity.Reward) error
	// ListEarnedBadges returns the user's badges, most recent first.
	ListEarnedBadges(ctx context.Context, userID int64) ([]entity.EarnedBadge, error)
	// EnsureUserBadge awards the badge at most once per (user, badge) and
	// reports whether a new award row was created.
	EnsureUserBadge(ctx context.Context, userID, badgeID int64, at time.Time) (bool, error)
	EnsureUserReward(ctx context.Context, userID, rewardID int64, at time.Time) (bool, error)
}
