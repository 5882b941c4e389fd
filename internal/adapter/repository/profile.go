package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eslsoft/studyhub/internal/entity"
	"github.com/eslsoft/studyhub/internal/repository"
)

type profileRepository struct {
	pool *pgxpool.Pool
}

// NewProfileRepository constructs a pgx-backed profile store.
func NewProfileRepository(pool *pgxpool.Pool) repository.ProfileRepository {
	return &profileRepository{pool: pool}
}

const profileColumns = "user_id, display_name, xp, level, streak, last_activity_at, created_at, updated_at"

func scanProfile(row interface{ Scan(...any) error }) (*entity.UserProfile, error) {
	var p entity.UserProfile
	err := row.Scan(
		&p.UserID,
		&p.DisplayName,
		&p.XP,
		&p.Level,
		&p.Streak,
		&p.LastActivityAt,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *profileRepository) Get(ctx context.Context, userID int64) (*entity.UserProfile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	row := r.pool.QueryRow(ctx, "SELECT "+profileColumns+" FROM user_profiles WHERE user_id = $1", userID)
	profile, err := scanProfile(row)
	if err != nil {
		if isNoRows(err) {
			return nil, entity.ErrProfileNotFound
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return profile, nil
}

func (r *profileRepository) GetOrCreate(ctx context.Context, userID int64) (*entity.UserProfile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	row := r.pool.QueryRow(ctx, `
		INSERT INTO user_profiles (user_id, level)
		VALUES ($1, 1)
		ON CONFLICT (user_id) DO UPDATE SET updated_at = user_profiles.updated_at
		RETURNING `+profileColumns, userID)
	profile, err := scanProfile(row)
	if err != nil {
		return nil, fmt.Errorf("get or create profile: %w", err)
	}
	return profile, nil
}

func (r *profileRepository) Update(ctx context.Context, profile *entity.UserProfile) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tag, err := r.pool.Exec(ctx, `
		UPDATE user_profiles
		SET display_name = $2, xp = $3, level = $4, streak = $5, last_activity_at = $6, updated_at = NOW()
		WHERE user_id = $1`,
		profile.UserID,
		profile.DisplayName,
		profile.XP,
		profile.Level,
		profile.Streak,
		profile.LastActivityAt,
	)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return entity.ErrProfileNotFound
	}
	return nil
}

func (r *profileRepository) AppendExperience(ctx context.Context, log *entity.ExperienceLog) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO experience_logs (user_id, amount, reason, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id`,
		log.UserID, log.Amount, log.Reason, log.CreatedAt).Scan(&log.ID)
	if err != nil {
		return fmt.Errorf("append experience: %w", err)
	}
	return nil
}

func (r *profileRepository) SumExperienceSince(ctx context.Context, userID int64, since time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	var total int64
	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount), 0)
		FROM experience_logs
		WHERE user_id = $1 AND created_at >= $2`,
		userID, since).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum experience: %w", err)
	}
	return total, nil
}

func (r *profileRepository) ListTop(ctx context.Context, limit int32) ([]entity.UserProfile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+profileColumns+`
		FROM user_profiles
		ORDER BY xp DESC, last_activity_at ASC NULLS LAST, user_id ASC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list top profiles: %w", err)
	}
	defer rows.Close()

	var profiles []entity.UserProfile
	for rows.Next() {
		profile, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		profiles = append(profiles, *profile)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list top profiles: %w", err)
	}
	return profiles, nil
}
