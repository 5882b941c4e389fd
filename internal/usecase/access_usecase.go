package usecase

import (
	"context"

	"github.com/eslsoft/studyhub/internal/entity"
	"github.com/eslsoft/studyhub/internal/repository"
)

// AccessUsecase derives which lessons a user may open. Each subject is a
// strict linear chain in (date, id) order: completed lessons stay accessible,
// the first incomplete lesson is the subject's frontier and unlocks, and every
// later incomplete lesson is locked behind that frontier.
type AccessUsecase interface {
	Resolve(ctx context.Context, userID int64) (*entity.AccessView, error)
	// EnsureAccessible returns a *entity.BlockedError naming the frontier
	// lesson when an earlier lesson in the subject is still incomplete.
	EnsureAccessible(ctx context.Context, userID int64, lesson *entity.Lesson) error
}

// NewAccessUsecase wires the resolver with its stores.
func NewAccessUsecase(lessons repository.LessonRepository, progress repository.ProgressRepository) AccessUsecase {
	return &accessUsecase{lessons: lessons, progress: progress}
}

type accessUsecase struct {
	lessons  repository.LessonRepository
	progress repository.ProgressRepository
}

func (u *accessUsecase) Resolve(ctx context.Context, userID int64) (*entity.AccessView, error) {
	subjects, err := u.lessons.ListSubjects(ctx)
	if err != nil {
		return nil, err
	}
	completedIDs, err := u.progress.CompletedLessonIDs(ctx, userID, nil)
	if err != nil {
		return nil, err
	}

	view := entity.NewAccessView()
	for _, id := range completedIDs {
		view.CompletedIDs[id] = true
		view.AccessibleIDs[id] = true
	}

	for _, subject := range subjects {
		// The first incomplete lesson is the subject's frontier; it unlocks
		// and becomes the locked reason for everything after it.
		var frontier *entity.Lesson
		for i := range subject.Lessons {
			lesson := &subject.Lessons[i]
			if view.CompletedIDs[lesson.ID] {
				continue
			}
			if frontier == nil {
				frontier = lesson
				view.AccessibleIDs[lesson.ID] = true
				continue
			}
			view.LockedReasons[lesson.ID] = frontier.Ref()
		}
	}
	return view, nil
}

func (u *accessUsecase) EnsureAccessible(ctx context.Context, userID int64, lesson *entity.Lesson) error {
	subjectLessons, err := u.lessons.ListBySubject(ctx, lesson.SubjectID)
	if err != nil {
		return err
	}

	var required []entity.Lesson
	for _, item := range subjectLessons {
		if item.ID == lesson.ID {
			break
		}
		required = append(required, item)
	}
	if len(required) == 0 {
		return nil
	}

	ids := make([]int64, len(required))
	for i, item := range required {
		ids[i] = item.ID
	}
	completed, err := u.progress.CompletedLessonIDs(ctx, userID, ids)
	if err != nil {
		return err
	}
	done := make(map[int64]bool, len(completed))
	for _, id := range completed {
		done[id] = true
	}

	for _, item := range required {
		if !done[item.ID] {
			return &entity.BlockedError{Blocking: item.Ref()}
		}
	}
	return nil
}
