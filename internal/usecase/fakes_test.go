package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/eslsoft/studyhub/internal/entity"
	"github.com/eslsoft/studyhub/internal/repository"
)

type fakeLessonRepo struct {
	mu       sync.RWMutex
	subjects []entity.Subject
	paths    []entity.LearningPath
	pathRows map[int64][]entity.LearningPathLesson
	progress *fakeProgressRepo
}

func newFakeLessonRepo(progress *fakeProgressRepo) *fakeLessonRepo {
	return &fakeLessonRepo{
		pathRows: make(map[int64][]entity.LearningPathLesson),
		progress: progress,
	}
}

func (r *fakeLessonRepo) addSubject(subject entity.Subject) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entity.SortLessons(subject.Lessons)
	r.subjects = append(r.subjects, subject)
}

func (r *fakeLessonRepo) allLessonsLocked() []entity.Lesson {
	var lessons []entity.Lesson
	for _, subject := range r.subjects {
		lessons = append(lessons, subject.Lessons...)
	}
	entity.SortLessons(lessons)
	return lessons
}

func (r *fakeLessonRepo) GetByID(ctx context.Context, id int64) (*entity.Lesson, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, lesson := range r.allLessonsLocked() {
		if lesson.ID == id {
			l := lesson
			return &l, nil
		}
	}
	return nil, entity.ErrLessonNotFound
}

func (r *fakeLessonRepo) GetBySlug(ctx context.Context, slug string) (*entity.Lesson, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, lesson := range r.allLessonsLocked() {
		if lesson.Slug == slug {
			l := lesson
			return &l, nil
		}
	}
	return nil, entity.ErrLessonNotFound
}

func (r *fakeLessonRepo) List(ctx context.Context, query *repository.ListLessonQuery) ([]entity.Lesson, int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	lessons := r.allLessonsLocked()
	return lessons, int64(len(lessons)), nil
}

func (r *fakeLessonRepo) ListSubjects(ctx context.Context) ([]entity.Subject, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]entity.Subject, len(r.subjects))
	copy(out, r.subjects)
	return out, nil
}

func (r *fakeLessonRepo) ListBySubject(ctx context.Context, subjectID int64) ([]entity.Lesson, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, subject := range r.subjects {
		if subject.ID == subjectID {
			out := make([]entity.Lesson, len(subject.Lessons))
			copy(out, subject.Lessons)
			return out, nil
		}
	}
	return nil, entity.ErrSubjectNotFound
}

func (r *fakeLessonRepo) CountAll(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.allLessonsLocked())), nil
}

func (r *fakeLessonRepo) ListUncompleted(ctx context.Context, userID int64, limit int32) ([]entity.Lesson, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	done, err := r.progress.CompletedLessonIDs(ctx, userID, nil)
	if err != nil {
		return nil, err
	}
	doneSet := make(map[int64]bool, len(done))
	for _, id := range done {
		doneSet[id] = true
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []entity.Lesson
	for _, lesson := range r.allLessonsLocked() {
		if doneSet[lesson.ID] {
			continue
		}
		out = append(out, lesson)
		if int32(len(out)) >= limit {
			break
		}
	}
	return out, nil
}

func (r *fakeLessonRepo) ListPaths(ctx context.Context) ([]entity.LearningPath, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]entity.LearningPath, len(r.paths))
	copy(out, r.paths)
	return out, nil
}

func (r *fakeLessonRepo) ListPathLessons(ctx context.Context, pathID int64) ([]entity.LearningPathLesson, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	rows := r.pathRows[pathID]
	out := make([]entity.LearningPathLesson, len(rows))
	copy(out, rows)
	return out, nil
}

type fakeTestRepo struct {
	mu    sync.RWMutex
	tests map[int64]*entity.Test
}

func newFakeTestRepo() *fakeTestRepo {
	return &fakeTestRepo{tests: make(map[int64]*entity.Test)}
}

func (r *fakeTestRepo) add(test *entity.Test) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t := *test
	r.tests[test.ID] = &t
}

func (r *fakeTestRepo) GetByID(ctx context.Context, id int64) (*entity.Test, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	test, ok := r.tests[id]
	if !ok {
		return nil, entity.ErrTestNotFound
	}
	t := *test
	return &t, nil
}

func (r *fakeTestRepo) ListByLesson(ctx context.Context, lessonID int64) ([]entity.Test, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []entity.Test
	for _, test := range r.tests {
		if test.LessonID == lessonID {
			out = append(out, *test)
		}
	}
	return out, nil
}

type progressKey struct {
	userID   int64
	lessonID int64
}

type fakeProgressRepo struct {
	mu    sync.RWMutex
	seq   int64
	items map[progressKey]*entity.LessonProgress
}

func newFakeProgressRepo() *fakeProgressRepo {
	return &fakeProgressRepo{items: make(map[progressKey]*entity.LessonProgress)}
}

func cloneProgress(p *entity.LessonProgress) *entity.LessonProgress {
	c := *p
	if p.CompletedAt != nil {
		at := *p.CompletedAt
		c.CompletedAt = &at
	}
	return &c
}

func (r *fakeProgressRepo) GetOrCreate(ctx context.Context, userID, lessonID int64) (*entity.LessonProgress, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	key := progressKey{userID, lessonID}
	if item, ok := r.items[key]; ok {
		return cloneProgress(item), nil
	}
	r.seq++
	item := &entity.LessonProgress{ID: r.seq, UserID: userID, LessonID: lessonID}
	r.items[key] = item
	return cloneProgress(item), nil
}

func (r *fakeProgressRepo) MarkCompleted(ctx context.Context, userID, lessonID int64, at time.Time, points, secondsSpent int) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	key := progressKey{userID, lessonID}
	item, ok := r.items[key]
	if !ok {
		r.seq++
		item = &entity.LessonProgress{ID: r.seq, UserID: userID, LessonID: lessonID}
		r.items[key] = item
	}
	if item.Completed {
		return false, nil
	}
	item.Completed = true
	item.CompletedAt = &at
	item.PointsEarned = points
	item.SecondsSpent = secondsSpent
	return true, nil
}

func (r *fakeProgressRepo) Unmark(ctx context.Context, userID, lessonID int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if item, ok := r.items[progressKey{userID, lessonID}]; ok {
		item.Completed = false
		item.CompletedAt = nil
	}
	return nil
}

func (r *fakeProgressRepo) CompletedLessonIDs(ctx context.Context, userID int64, scope []int64) ([]int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var scoped map[int64]bool
	if scope != nil {
		scoped = make(map[int64]bool, len(scope))
		for _, id := range scope {
			scoped[id] = true
		}
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []int64
	for key, item := range r.items {
		if key.userID != userID || !item.Completed {
			continue
		}
		if scoped != nil && !scoped[key.lessonID] {
			continue
		}
		out = append(out, key.lessonID)
	}
	return out, nil
}

func (r *fakeProgressRepo) CountCompleted(ctx context.Context, userID int64) (int64, error) {
	ids, err := r.CompletedLessonIDs(ctx, userID, nil)
	if err != nil {
		return 0, err
	}
	return int64(len(ids)), nil
}

func (r *fakeProgressRepo) CountCompletedSince(ctx context.Context, userID int64, since time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var count int64
	for key, item := range r.items {
		if key.userID != userID || !item.Completed || item.CompletedAt == nil {
			continue
		}
		if !item.CompletedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

type fakeProfileRepo struct {
	mu       sync.RWMutex
	profiles map[int64]*entity.UserProfile
	logs     []entity.ExperienceLog
}

func newFakeProfileRepo() *fakeProfileRepo {
	return &fakeProfileRepo{profiles: make(map[int64]*entity.UserProfile)}
}

func cloneProfile(p *entity.UserProfile) *entity.UserProfile {
	c := *p
	if p.LastActivityAt != nil {
		at := *p.LastActivityAt
		c.LastActivityAt = &at
	}
	return &c
}

func (r *fakeProfileRepo) Get(ctx context.Context, userID int64) (*entity.UserProfile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	profile, ok := r.profiles[userID]
	if !ok {
		return nil, entity.ErrProfileNotFound
	}
	return cloneProfile(profile), nil
}

func (r *fakeProfileRepo) GetOrCreate(ctx context.Context, userID int64) (*entity.UserProfile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if profile, ok := r.profiles[userID]; ok {
		return cloneProfile(profile), nil
	}
	profile := &entity.UserProfile{UserID: userID, Level: 1}
	r.profiles[userID] = profile
	return cloneProfile(profile), nil
}

func (r *fakeProfileRepo) Update(ctx context.Context, profile *entity.UserProfile) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.profiles[profile.UserID]; !ok {
		return entity.ErrProfileNotFound
	}
	r.profiles[profile.UserID] = cloneProfile(profile)
	return nil
}

func (r *fakeProfileRepo) AppendExperience(ctx context.Context, log *entity.ExperienceLog) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	entry := *log
	entry.ID = int64(len(r.logs) + 1)
	r.logs = append(r.logs, entry)
	return nil
}

func (r *fakeProfileRepo) SumExperienceSince(ctx context.Context, userID int64, since time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var total int64
	for _, entry := range r.logs {
		if entry.UserID == userID && !entry.CreatedAt.Before(since) {
			total += int64(entry.Amount)
		}
	}
	return total, nil
}

func (r *fakeProfileRepo) ListTop(ctx context.Context, limit int32) ([]entity.UserProfile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []entity.UserProfile
	for _, profile := range r.profiles {
		out = append(out, *cloneProfile(profile))
	}
	sortProfiles(out)
	if int32(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func sortProfiles(profiles []entity.UserProfile) {
	for i := 1; i < len(profiles); i++ {
		for j := i; j > 0 && profileLess(profiles[j], profiles[j-1]); j-- {
			profiles[j], profiles[j-1] = profiles[j-1], profiles[j]
		}
	}
}

func profileLess(a, b entity.UserProfile) bool {
	if a.XP != b.XP {
		return a.XP > b.XP
	}
	return a.UserID < b.UserID
}

type awardKey struct {
	userID  int64
	awardID int64
}

type fakeAwardRepo struct {
	mu          sync.RWMutex
	badges      []entity.Badge
	rewards     []entity.Reward
	userBadges  map[awardKey]time.Time
	userRewards map[awardKey]time.Time
}

func newFakeAwardRepo() *fakeAwardRepo {
	return &fakeAwardRepo{
		userBadges:  make(map[awardKey]time.Time),
		userRewards: make(map[awardKey]time.Time),
	}
}

func (r *fakeAwardRepo) ListBadges(ctx context.Context) ([]entity.Badge, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]entity.Badge, len(r.badges))
	copy(out, r.badges)
	return out, nil
}

func (r *fakeAwardRepo) ListRewards(ctx context.Context) ([]entity.Reward, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]entity.Reward, len(r.rewards))
	copy(out, r.rewards)
	return out, nil
}

func (r *fakeAwardRepo) UpsertBadge(ctx context.Context, badge *entity.Badge) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.badges {
		if r.badges[i].Code == badge.Code {
			id := r.badges[i].ID
			r.badges[i] = *badge
			r.badges[i].ID = id
			return nil
		}
	}
	b := *badge
	b.ID = int64(len(r.badges) + 1)
	r.badges = append(r.badges, b)
	return nil
}

func (r *fakeAwardRepo) UpsertReward(ctx context.Context, reward *entity.Reward) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.rewards {
		if r.rewards[i].Code == reward.Code {
			id := r.rewards[i].ID
			r.rewards[i] = *reward
			r.rewards[i].ID = id
			return nil
		}
	}
	rw := *reward
	rw.ID = int64(len(r.rewards) + 1)
	r.rewards = append(r.rewards, rw)
	return nil
}

func (r *fakeAwardRepo) ListEarnedBadges(ctx context.Context, userID int64) ([]entity.EarnedBadge, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []entity.EarnedBadge
	for _, badge := range r.badges {
		if at, ok := r.userBadges[awardKey{userID, badge.ID}]; ok {
			out = append(out, entity.EarnedBadge{Badge: badge, AwardedAt: at})
		}
	}
	return out, nil
}

func (r *fakeAwardRepo) EnsureUserBadge(ctx context.Context, userID, badgeID int64, at time.Time) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	key := awardKey{userID, badgeID}
	if _, ok := r.userBadges[key]; ok {
		return false, nil
	}
	r.userBadges[key] = at
	return true, nil
}

func (r *fakeAwardRepo) EnsureUserReward(ctx context.Context, userID, rewardID int64, at time.Time) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	key := awardKey{userID, rewardID}
	if _, ok := r.userRewards[key]; ok {
		return false, nil
	}
	r.userRewards[key] = at
	return true, nil
}

type fakeAttemptRepo struct {
	mu    sync.RWMutex
	seq   int64
	items map[awardKey]*entity.TestAttempt
}

func newFakeAttemptRepo() *fakeAttemptRepo {
	return &fakeAttemptRepo{items: make(map[awardKey]*entity.TestAttempt)}
}

func (r *fakeAttemptRepo) Upsert(ctx context.Context, attempt *entity.TestAttempt) (*entity.TestAttempt, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	key := awardKey{attempt.UserID, attempt.TestID}
	stored := *attempt
	if existing, ok := r.items[key]; ok {
		stored.ID = existing.ID
		stored.CreatedAt = existing.CreatedAt
	} else {
		r.seq++
		stored.ID = r.seq
	}
	r.items[key] = &stored
	out := stored
	return &out, nil
}

func (r *fakeAttemptRepo) Get(ctx context.Context, userID, testID int64) (*entity.TestAttempt, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	attempt, ok := r.items[awardKey{userID, testID}]
	if !ok {
		return nil, entity.ErrTestNotFound
	}
	out := *attempt
	return &out, nil
}

func (r *fakeAttemptRepo) count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}

type fakeRecommendationRepo struct {
	mu   sync.RWMutex
	seq  int64
	rows map[int64][]entity.LearningRecommendation
}

func newFakeRecommendationRepo() *fakeRecommendationRepo {
	return &fakeRecommendationRepo{rows: make(map[int64][]entity.LearningRecommendation)}
}

func (r *fakeRecommendationRepo) Replace(ctx context.Context, userID int64, recs []entity.LearningRecommendation) ([]entity.LearningRecommendation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := make([]entity.LearningRecommendation, 0, len(recs))
	for _, rec := range recs {
		r.seq++
		rec.ID = r.seq
		stored = append(stored, rec)
	}
	r.rows[userID] = stored
	out := make([]entity.LearningRecommendation, len(stored))
	copy(out, stored)
	return out, nil
}

func (r *fakeRecommendationRepo) ListByUser(ctx context.Context, userID int64) ([]entity.LearningRecommendation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]entity.LearningRecommendation, len(r.rows[userID]))
	copy(out, r.rows[userID])
	return out, nil
}

type cacheEntry struct {
	data      []byte
	expiresAt time.Time
}

// fakeCache honours TTLs against an overridable clock so expiry is testable.
type fakeCache struct {
	mu      sync.RWMutex
	items   map[string]cacheEntry
	clock   func() time.Time
	setHits int
}

func newFakeCache() *fakeCache {
	return &fakeCache{items: make(map[string]cacheEntry), clock: time.Now}
}

func (c *fakeCache) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.items[key]
	if !ok || c.clock().After(entry.expiresAt) {
		return nil, repository.ErrCacheMiss
	}
	out := make([]byte, len(entry.data))
	copy(out, entry.data)
	return out, nil
}

func (c *fakeCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	data := make([]byte, len(value))
	copy(data, value)
	c.items[key] = cacheEntry{data: data, expiresAt: c.clock().Add(ttl)}
	c.setHits++
	return nil
}

func (c *fakeCache) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
	return nil
}
