package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eslsoft/studyhub/internal/entity"
	"github.com/eslsoft/studyhub/internal/repository"
)

type awardRepository struct {
	pool *pgxpool.Pool
}

// NewAwardRepository constructs a pgx-backed award store.
func NewAwardRepository(pool *pgxpool.Pool) repository.AwardRepository {
	return &awardRepository{pool: pool}
}

func (r *awardRepository) ListBadges(ctx context.Context) ([]entity.Badge, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rows, err := r.pool.Query(ctx,
		"SELECT id, code, name, description, icon, criteria_kind, criteria_threshold FROM badges ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("list badges: %w", err)
	}
	defer rows.Close()

	var badges []entity.Badge
	for rows.Next() {
		var badge entity.Badge
		var kind string
		if err := rows.Scan(&badge.ID, &badge.Code, &badge.Name, &badge.Description, &badge.Icon, &kind, &badge.Criteria.Threshold); err != nil {
			return nil, fmt.Errorf("scan badge: %w", err)
		}
		badge.Criteria.Kind = entity.CriteriaKind(kind)
		badges = append(badges, badge)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list badges: %w", err)
	}
	return badges, nil
}

func (r *awardRepository) ListRewards(ctx context.Context) ([]entity.Reward, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rows, err := r.pool.Query(ctx,
		"SELECT id, code, name, description, criteria_kind, criteria_threshold FROM rewards ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("list rewards: %w", err)
	}
	defer rows.Close()

	var rewards []entity.Reward
	for rows.Next() {
		var reward entity.Reward
		var kind string
		if err := rows.Scan(&reward.ID, &reward.Code, &reward.Name, &reward.Description, &kind, &reward.Criteria.Threshold); err != nil {
			return nil, fmt.Errorf("scan reward: %w", err)
		}
		reward.Criteria.Kind = entity.CriteriaKind(kind)
		rewards = append(rewards, reward)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list rewards: %w", err)
	}
	return rewards, nil
}

func (r *awardRepository) UpsertBadge(ctx context.Context, badge *entity.Badge) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO badges (code, name, description, icon, criteria_kind, criteria_threshold)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (code) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			icon = EXCLUDED.icon,
			criteria_kind = EXCLUDED.criteria_kind,
			criteria_threshold = EXCLUDED.criteria_threshold
		RETURNING id`,
		badge.Code, badge.Name, badge.Description, badge.Icon,
		string(badge.Criteria.Kind), badge.Criteria.Threshold).Scan(&badge.ID)
	if err != nil {
		return fmt.Errorf("upsert badge: %w", err)
	}
	return nil
}

func (r *awardRepository) UpsertReward(ctx context.Context, reward *entity.Reward) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO rewards (code, name, description, criteria_kind, criteria_threshold)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (code) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			criteria_kind = EXCLUDED.criteria_kind,
			criteria_threshold = EXCLUDED.criteria_threshold
		RETURNING id`,
		reward.Code, reward.Name, reward.Description,
		string(reward.Criteria.Kind), reward.Criteria.Threshold).Scan(&reward.ID)
	if err != nil {
		return fmt.Errorf("upsert reward: %w", err)
	}
	return nil
}

func (r *awardRepository) ListEarnedBadges(ctx context.Context, userID int64) ([]entity.EarnedBadge, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rows, err := r.pool.Query(ctx, `
		SELECT b.id, b.code, b.name, b.description, b.icon, b.criteria_kind, b.criteria_threshold, ub.awarded_at
		FROM user_badges ub
		JOIN badges b ON b.id = ub.badge_id
		WHERE ub.user_id = $1
		ORDER BY ub.awarded_at DESC, b.id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list earned badges: %w", err)
	}
	defer rows.Close()

	var earned []entity.EarnedBadge
	for rows.Next() {
		var item entity.EarnedBadge
		var kind string
		if err := rows.Scan(
			&item.Badge.ID,
			&item.Badge.Code,
			&item.Badge.Name,
			&item.Badge.Description,
			&item.Badge.Icon,
			&kind,
			&item.Badge.Criteria.Threshold,
			&item.AwardedAt,
		); err != nil {
			return nil, fmt.Errorf("scan earned badge: %w", err)
		}
		item.Badge.Criteria.Kind = entity.CriteriaKind(kind)
		earned = append(earned, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list earned badges: %w", err)
	}
	return earned, nil
}

// EnsureUserBadge relies on the (user_id, badge_id) unique key: the conflict
// clause turns a repeated award into a no-op instead of an error.
func (r *awardRepository) EnsureUserBadge(ctx context.Context, userID, badgeID int64, at time.Time) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	tag, err := r.pool.Exec(ctx, `
		INSERT INTO user_badges (user_id, badge_id, awarded_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, badge_id) DO NOTHING`,
		userID, badgeID, at)
	if err != nil {
		return false, fmt.Errorf("ensure user badge: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *awardRepository) EnsureUserReward(ctx context.Context, userID, rewardID int64, at time.Time) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	tag, err := r.pool.Exec(ctx, `
		INSERT INTO user_rewards (user_id, reward_id, awarded_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, reward_id) DO NOTHING`,
		userID, rewardID, at)
	if err != nil {
		return false, fmt.Errorf("ensure user reward: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
