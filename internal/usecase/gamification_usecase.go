package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/samber/lo"

	"github.com/eslsoft/studyhub/internal/entity"
	"github.com/eslsoft/studyhub/internal/repository"
)

// GamificationUsecase is the single entry point for mutating XP, levels,
// streaks and awards, plus the read projections built on top of them.
type GamificationUsecase interface {
	// AddXP increments cumulative XP, recomputes the level from the curve,
	// updates the streak and last activity, and appends a ledger entry.
	AddXP(ctx context.Context, userID int64, amount int, reason string) (*entity.UserProfile, error)
	// RecordLessonCompletion marks the lesson completed and awards XP exactly
	// once; re-recording an already completed lesson is a no-op that returns
	// the current snapshot.
	RecordLessonCompletion(ctx context.Context, userID int64, lesson *entity.Lesson, secondsSpent int) (entity.ProgressSnapshot, error)
	// ToggleLessonCompletion flips the completion state for (user, lesson).
	ToggleLessonCompletion(ctx context.Context, userID int64, lesson *entity.Lesson, secondsSpent int) (*entity.ToggleResult, error)
	// CheckAndAwardRewards evaluates the catalog criteria against current
	// aggregates and issues every newly satisfied badge/reward at most once.
	CheckAndAwardRewards(ctx context.Context, userID int64) error
	OverallProgress(ctx context.Context, userID int64) (entity.ProgressSnapshot, error)
	BadgeSummary(ctx context.Context, userID int64) (*entity.BadgeSummary, error)
	MissionContext(ctx context.Context, userID int64) ([]entity.Mission, error)
	LeaderboardSnapshot(ctx context.Context, limit int32) ([]entity.LeaderboardEntry, error)
}

// GamificationConfig carries the declarative knobs of the engine so it can be
// tested against arbitrary curves.
type GamificationConfig struct {
	Curve entity.LevelCurve
	// FastCompletionSeconds grants a speed bonus (a fifth of the base reward)
	// when a lesson is finished at or under this many seconds.
	FastCompletionSeconds int
	LeaderboardTTL        time.Duration
}

func (c GamificationConfig) withDefaults() GamificationConfig {
	if !c.Curve.Valid() {
		c.Curve = entity.DefaultLevelThresholds
	}
	if c.FastCompletionSeconds <= 0 {
		c.FastCompletionSeconds = 300
	}
	if c.LeaderboardTTL <= 0 {
		c.LeaderboardTTL = 5 * time.Minute
	}
	return c
}

// NewGamificationUsecase wires the engine with its stores and cache.
func NewGamificationUsecase(
	profiles repository.ProfileRepository,
	progress repository.ProgressRepository,
	lessons repository.LessonRepository,
	awards repository.AwardRepository,
	cache repository.Cache,
	cfg GamificationConfig,
) GamificationUsecase {
	return &gamificationUsecase{
		profiles: profiles,
		progress: progress,
		lessons:  lessons,
		awards:   awards,
		cache:    cache,
		cfg:      cfg.withDefaults(),
		clock:    time.Now,
	}
}

type gamificationUsecase struct {
	profiles repository.ProfileRepository
	progress repository.ProgressRepository
	lessons  repository.LessonRepository
	awards   repository.AwardRepository
	cache    repository.Cache
	cfg      GamificationConfig
	clock    func() time.Time
}

func (u *gamificationUsecase) AddXP(ctx context.Context, userID int64, amount int, reason string) (*entity.UserProfile, error) {
	profile, err := u.profiles.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := u.clock()
	profile.XP += amount
	if profile.XP < 0 {
		profile.XP = 0
	}
	profile.Level = u.cfg.Curve.LevelFor(profile.XP)
	applyStreak(profile, now)
	profile.LastActivityAt = &now

	if err := u.profiles.Update(ctx, profile); err != nil {
		return nil, err
	}
	if err := u.profiles.AppendExperience(ctx, &entity.ExperienceLog{
		UserID:    userID,
		Amount:    amount,
		Reason:    reason,
		CreatedAt: now,
	}); err != nil {
		return nil, err
	}
	return profile, nil
}

// applyStreak advances the streak by calendar day: consecutive days increment,
// a skipped day resets to 1, repeated activity on the same day is unchanged.
func applyStreak(profile *entity.UserProfile, now time.Time) {
	today := dayOf(now)
	switch {
	case profile.LastActivityAt == nil:
		profile.Streak = 1
	case dayOf(*profile.LastActivityAt).Equal(today):
		if profile.Streak == 0 {
			profile.Streak = 1
		}
	case dayOf(*profile.LastActivityAt).Equal(today.AddDate(0, 0, -1)):
		profile.Streak++
	default:
		profile.Streak = 1
	}
}

func dayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func (u *gamificationUsecase) RecordLessonCompletion(ctx context.Context, userID int64, lesson *entity.Lesson, secondsSpent int) (entity.ProgressSnapshot, error) {
	if lesson == nil {
		return entity.ProgressSnapshot{}, entity.ErrLessonNotFound
	}
	if _, err := u.profiles.GetOrCreate(ctx, userID); err != nil {
		return entity.ProgressSnapshot{}, err
	}
	if _, err := u.progress.GetOrCreate(ctx, userID, lesson.ID); err != nil {
		return entity.ProgressSnapshot{}, err
	}

	points := lesson.XPReward
	if secondsSpent > 0 && secondsSpent <= u.cfg.FastCompletionSeconds {
		points += lesson.XPReward / 5
	}

	changed, err := u.progress.MarkCompleted(ctx, userID, lesson.ID, u.clock(), points, secondsSpent)
	if err != nil {
		return entity.ProgressSnapshot{}, err
	}
	if !changed {
		// Already completed: no second award.
		return u.OverallProgress(ctx, userID)
	}

	if _, err := u.AddXP(ctx, userID, points, fmt.Sprintf("lesson completed: %s", lesson.Slug)); err != nil {
		return entity.ProgressSnapshot{}, err
	}
	if err := u.CheckAndAwardRewards(ctx, userID); err != nil {
		return entity.ProgressSnapshot{}, err
	}
	return u.OverallProgress(ctx, userID)
}

func (u *gamificationUsecase) ToggleLessonCompletion(ctx context.Context, userID int64, lesson *entity.Lesson, secondsSpent int) (*entity.ToggleResult, error) {
	if lesson == nil {
		return nil, entity.ErrLessonNotFound
	}
	prog, err := u.progress.GetOrCreate(ctx, userID, lesson.ID)
	if err != nil {
		return nil, err
	}

	if prog.Completed {
		if err := u.progress.Unmark(ctx, userID, lesson.ID); err != nil {
			return nil, err
		}
		snapshot, err := u.OverallProgress(ctx, userID)
		if err != nil {
			return nil, err
		}
		return &entity.ToggleResult{Completed: false, Snapshot: snapshot}, nil
	}

	snapshot, err := u.RecordLessonCompletion(ctx, userID, lesson, secondsSpent)
	if err != nil {
		return nil, err
	}
	return &entity.ToggleResult{Completed: true, Snapshot: snapshot}, nil
}

func (u *gamificationUsecase) CheckAndAwardRewards(ctx context.Context, userID int64) error {
	profile, err := u.profiles.GetOrCreate(ctx, userID)
	if err != nil {
		return err
	}
	completed, err := u.progress.CountCompleted(ctx, userID)
	if err != nil {
		return err
	}

	met := func(criteria entity.AwardCriteria) bool {
		switch criteria.Kind {
		case entity.CriteriaLessonsCompleted:
			return completed >= int64(criteria.Threshold)
		case entity.CriteriaStreakDays:
			return profile.Streak >= criteria.Threshold
		case entity.CriteriaTotalXP:
			return profile.XP >= criteria.Threshold
		case entity.CriteriaLevel:
			return profile.Level >= criteria.Threshold
		default:
			return false
		}
	}

	now := u.clock()
	badges, err := u.awards.ListBadges(ctx)
	if err != nil {
		return err
	}
	for _, badge := range badges {
		if !met(badge.Criteria) {
			continue
		}
		if _, err := u.awards.EnsureUserBadge(ctx, userID, badge.ID, now); err != nil {
			return err
		}
	}

	rewards, err := u.awards.ListRewards(ctx)
	if err != nil {
		return err
	}
	for _, reward := range rewards {
		if !met(reward.Criteria) {
			continue
		}
		if _, err := u.awards.EnsureUserReward(ctx, userID, reward.ID, now); err != nil {
			return err
		}
	}
	return nil
}

func (u *gamificationUsecase) OverallProgress(ctx context.Context, userID int64) (entity.ProgressSnapshot, error) {
	total, err := u.lessons.CountAll(ctx)
	if err != nil {
		return entity.ProgressSnapshot{}, err
	}
	completed, err := u.progress.CountCompleted(ctx, userID)
	if err != nil {
		return entity.ProgressSnapshot{}, err
	}
	return entity.NewProgressSnapshot(int(completed), int(total)), nil
}

func (u *gamificationUsecase) BadgeSummary(ctx context.Context, userID int64) (*entity.BadgeSummary, error) {
	earned, err := u.awards.ListEarnedBadges(ctx, userID)
	if err != nil {
		return nil, err
	}
	catalog, err := u.awards.ListBadges(ctx)
	if err != nil {
		return nil, err
	}
	return &entity.BadgeSummary{
		Earned:         earned,
		Highlighted:    lo.Slice(earned, 0, 3),
		TotalAvailable: len(catalog),
	}, nil
}

func (u *gamificationUsecase) MissionContext(ctx context.Context, userID int64) ([]entity.Mission, error) {
	profile, err := u.profiles.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}
	startOfDay := dayOf(u.clock())

	completedToday, err := u.progress.CountCompletedSince(ctx, userID, startOfDay)
	if err != nil {
		return nil, err
	}
	xpToday, err := u.profiles.SumExperienceSince(ctx, userID, startOfDay)
	if err != nil {
		return nil, err
	}
	activeToday := profile.LastActivityAt != nil && dayOf(*profile.LastActivityAt).Equal(startOfDay)
	streakProgress := 0
	if activeToday {
		streakProgress = 1
	}

	return []entity.Mission{
		{Code: "daily-lessons", Title: "Complete 3 lessons today", Target: 3, Progress: int(completedToday), Done: completedToday >= 3},
		{Code: "daily-xp", Title: "Earn 50 XP today", Target: 50, Progress: int(xpToday), Done: xpToday >= 50},
		{Code: "keep-streak", Title: "Keep your streak alive", Target: 1, Progress: streakProgress, Done: activeToday},
	}, nil
}

func (u *gamificationUsecase) LeaderboardSnapshot(ctx context.Context, limit int32) ([]entity.LeaderboardEntry, error) {
	if limit <= 0 {
		limit = 10
	}
	key := leaderboardCacheKey(limit)
	if data, err := u.cache.Get(ctx, key); err == nil {
		var entries []entity.LeaderboardEntry
		if json.Unmarshal(data, &entries) == nil {
			return entries, nil
		}
	}

	top, err := u.profiles.ListTop(ctx, limit)
	if err != nil {
		return nil, err
	}
	entries := lo.Map(top, func(profile entity.UserProfile, i int) entity.LeaderboardEntry {
		return entity.LeaderboardEntry{
			Rank:        i + 1,
			UserID:      profile.UserID,
			DisplayName: profile.DisplayName,
			XP:          profile.XP,
			Level:       profile.Level,
			Streak:      profile.Streak,
		}
	})

	if data, err := json.Marshal(entries); err == nil {
		// Cache failures only cost the next reader a recompute.
		_ = u.cache.Set(ctx, key, data, u.cfg.LeaderboardTTL)
	}
	return entries, nil
}

func leaderboardCacheKey(limit int32) string {
	return fmt.Sprintf("leaderboard:%d", limit)
}
