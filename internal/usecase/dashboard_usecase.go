package usecase

import (
	"context"
	"math/rand"

	"github.com/samber/lo"

	"github.com/eslsoft/studyhub/internal/entity"
	"github.com/eslsoft/studyhub/internal/repository"
)

// DashboardUsecase composes read-only view payloads out of the other
// usecases. It never mutates state except through recommendation refreshes
// triggered elsewhere; everything here is a projection.
type DashboardUsecase interface {
	StudentDashboard(ctx context.Context, userID int64) (*entity.StudentDashboard, error)
	LessonsPage(ctx context.Context, userID int64, query *repository.ListLessonQuery) (*entity.LessonsPage, error)
	// LessonDetail resolves a lesson by slug, enforcing the subject's
	// prerequisite chain. A locked lesson yields a *entity.BlockedError.
	LessonDetail(ctx context.Context, userID int64, slug string) (*entity.LessonDetail, error)
}

// NewDashboardUsecase wires the aggregators.
func NewDashboardUsecase(
	lessons repository.LessonRepository,
	tests repository.TestRepository,
	profiles repository.ProfileRepository,
	access AccessUsecase,
	gamification GamificationUsecase,
	recommendations RecommendationUsecase,
) DashboardUsecase {
	return &dashboardUsecase{
		lessons:         lessons,
		tests:           tests,
		profiles:        profiles,
		access:          access,
		gamification:    gamification,
		recommendations: recommendations,
		shuffle:         rand.Shuffle,
	}
}

type dashboardUsecase struct {
	lessons         repository.LessonRepository
	tests           repository.TestRepository
	profiles        repository.ProfileRepository
	access          AccessUsecase
	gamification    GamificationUsecase
	recommendations RecommendationUsecase
	shuffle         func(n int, swap func(i, j int))
}

func (u *dashboardUsecase) StudentDashboard(ctx context.Context, userID int64) (*entity.StudentDashboard, error) {
	profile, err := u.profiles.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}
	progress, err := u.gamification.OverallProgress(ctx, userID)
	if err != nil {
		return nil, err
	}
	badges, err := u.gamification.BadgeSummary(ctx, userID)
	if err != nil {
		return nil, err
	}
	missions, err := u.gamification.MissionContext(ctx, userID)
	if err != nil {
		return nil, err
	}
	recs, err := u.recommendations.Calculate(ctx, userID, 3)
	if err != nil {
		return nil, err
	}
	leaderboard, err := u.gamification.LeaderboardSnapshot(ctx, 10)
	if err != nil {
		return nil, err
	}

	dashboard := &entity.StudentDashboard{
		Profile:         *profile,
		Progress:        progress,
		Badges:          *badges,
		Missions:        missions,
		Recommendations: recs,
		Leaderboard:     leaderboard,
	}
	if len(recs) > 0 {
		dashboard.PrimaryRecommendation = &recs[0]
	}
	return dashboard, nil
}

func (u *dashboardUsecase) LessonsPage(ctx context.Context, userID int64, query *repository.ListLessonQuery) (*entity.LessonsPage, error) {
	if query == nil {
		query = &repository.ListLessonQuery{}
	}
	flat, total, err := u.lessons.List(ctx, query)
	if err != nil {
		return nil, err
	}
	view, err := u.access.Resolve(ctx, userID)
	if err != nil {
		return nil, err
	}
	subjects, err := u.lessons.ListSubjects(ctx)
	if err != nil {
		return nil, err
	}

	byID := map[int64]entity.Lesson{}
	for _, subject := range subjects {
		for _, lesson := range subject.Lessons {
			byID[lesson.ID] = lesson
		}
	}

	var blocks []entity.LessonBlock
	inPath := map[int64]bool{}

	paths, err := u.lessons.ListPaths(ctx)
	if err != nil {
		return nil, err
	}
	for _, path := range paths {
		pathLessons, err := u.lessons.ListPathLessons(ctx, path.ID)
		if err != nil {
			return nil, err
		}
		ordered := make([]entity.Lesson, 0, len(pathLessons))
		for _, pl := range pathLessons {
			lesson, ok := byID[pl.LessonID]
			if !ok {
				continue
			}
			inPath[pl.LessonID] = true
			ordered = append(ordered, lesson)
		}
		blocks = append(blocks, buildBlock("path", path.Title, path.Slug, path.Description, ordered, view))
	}

	for _, subject := range subjects {
		leftover := lo.Filter(subject.Lessons, func(lesson entity.Lesson, _ int) bool {
			return !inPath[lesson.ID]
		})
		if len(leftover) == 0 {
			continue
		}
		blocks = append(blocks, buildBlock("subject", subject.Name, "", subject.Description, leftover, view))
	}

	badges, err := u.gamification.BadgeSummary(ctx, userID)
	if err != nil {
		return nil, err
	}
	recs, err := u.recommendations.Calculate(ctx, userID, 3)
	if err != nil {
		return nil, err
	}

	return &entity.LessonsPage{
		Blocks:          blocks,
		Lessons:         flat,
		TotalCount:      total,
		BadgeSummary:    *badges,
		Recommendations: recs,
	}, nil
}

// buildBlock projects one ordered lesson group against the user's access view.
func buildBlock(kind, title, slug, description string, lessons []entity.Lesson, view *entity.AccessView) entity.LessonBlock {
	block := entity.LessonBlock{
		Type:        kind,
		Title:       title,
		Slug:        slug,
		Description: description,
		Total:       len(lessons),
	}
	for i, lesson := range lessons {
		item := entity.SequenceItem{
			Lesson:     lesson,
			Index:      i,
			Completed:  view.CompletedIDs[lesson.ID],
			Accessible: view.AccessibleIDs[lesson.ID],
		}
		if reason, ok := view.LockedReasons[lesson.ID]; ok {
			r := reason
			item.LockedReason = &r
		}
		if item.Completed {
			block.Completed++
		} else if item.Accessible && block.NextLesson == nil {
			item.IsCurrent = true
			ref := lesson.Ref()
			block.NextLesson = &ref
		}
		block.Lessons = append(block.Lessons, item)
	}
	if block.Total > 0 {
		block.ProgressPercent = entity.NewProgressSnapshot(block.Completed, block.Total).Percent
	}
	return block
}

func (u *dashboardUsecase) LessonDetail(ctx context.Context, userID int64, slug string) (*entity.LessonDetail, error) {
	lesson, err := u.lessons.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if err := u.access.EnsureAccessible(ctx, userID, lesson); err != nil {
		return nil, err
	}

	siblings, err := u.lessons.ListBySubject(ctx, lesson.SubjectID)
	if err != nil {
		return nil, err
	}
	view, err := u.access.Resolve(ctx, userID)
	if err != nil {
		return nil, err
	}

	detail := &entity.LessonDetail{
		Lesson:       *lesson,
		SubjectTotal: len(siblings),
	}
	for i, sibling := range siblings {
		item := entity.SequenceItem{
			Lesson:     sibling,
			Index:      i,
			Completed:  view.CompletedIDs[sibling.ID],
			Accessible: view.AccessibleIDs[sibling.ID],
			IsCurrent:  sibling.ID == lesson.ID,
		}
		if reason, ok := view.LockedReasons[sibling.ID]; ok {
			r := reason
			item.LockedReason = &r
		}
		detail.Sequence = append(detail.Sequence, item)
		if sibling.ID == lesson.ID {
			detail.Position = i
			if i > 0 {
				ref := siblings[i-1].Ref()
				detail.Prev = &ref
			}
			if i+1 < len(siblings) {
				next := siblings[i+1]
				ref := next.Ref()
				detail.Next = &ref
				detail.NextLocked = !view.AccessibleIDs[next.ID]
			}
		}
	}

	tests, err := u.tests.ListByLesson(ctx, lesson.ID)
	if err != nil {
		return nil, err
	}
	detail.Tests = tests
	if len(tests) > 0 {
		detail.QuizOptions = u.quizOptions(tests[0])
	}

	badges, err := u.gamification.BadgeSummary(ctx, userID)
	if err != nil {
		return nil, err
	}
	detail.Badges = *badges

	stored, err := u.recommendations.ListStored(ctx, userID)
	if err != nil {
		return nil, err
	}
	detail.Recommendations = stored

	return detail, nil
}

// quizOptions mixes the correct answer into the distractors so the answer's
// position leaks nothing.
func (u *dashboardUsecase) quizOptions(test entity.Test) []string {
	options := make([]string, 0, len(test.WrongAnswers)+1)
	options = append(options, test.CorrectAnswer)
	options = append(options, test.WrongAnswers...)
	u.shuffle(len(options), func(i, j int) {
		options[i], options[j] = options[j], options[i]
	})
	return options
}
