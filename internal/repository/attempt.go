package repository

import (
	"context"

	"github.com/eslsoft/studyhub/internal/entity"
)

// AttemptRepository persists test attempts, one row per (user, test).
type AttemptRepository interface {
	// Upsert writes the attempt keyed by (user, test), overwriting a previous
	// attempt so only the most recent submission is authoritative.
	Upsert(ctx context.Context, attempt *entity.TestAttempt) (*entity.TestAttempt, error)
	Get(ctx context.Context, userID, testID int64) (*entity.TestAttempt, error)
}
