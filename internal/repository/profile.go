package repository

import (
	"context"
	"time"

	"github.com/eslsoft/studyhub/internal/entity"
)

// ProfileRepository persists user profiles and their append-only XP ledger.
type ProfileRepository interface {
	// Get returns the profile or entity.ErrProfileNotFound.
	Get(ctx context.Context, userID int64) (*entity.UserProfile, error)
	// GetOrCreate is the explicit entry-point creation: operations that accept
	// first-time users call this, everything else treats a missing profile as
	// a fatal precondition.
	GetOrCreate(ctx context.Context, userID int64) (*entity.UserProfile, error)
	Update(ctx context.Context, profile *entity.UserProfile) error
	// AppendExperience adds one ledger entry; entries are never mutated.
	AppendExperience(ctx context.Context, log *entity.ExperienceLog) error
	// SumExperienceSince totals ledger amounts recorded at or after since.
	SumExperienceSince(ctx context.Context, userID int64, since time.Time) (int64, error)
	// ListTop returns profiles ranked by XP descending, ties broken by earliest
	// last activity and then by user id, so rankings are deterministic.
	ListTop(ctx context.Context, limit int32) ([]entity.UserProfile, error)
}
