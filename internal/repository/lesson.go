package repository

import (
	"context"

	"github.com/eslsoft/studyhub/internal/entity"
)

// ListLessonQuery holds parameters for listing lessons.
type ListLessonQuery struct {
	Pagination
	FilterOrder
}

// LessonRepository abstracts read access to the authored content catalog:
// subjects, lessons, tests and curated learning paths. Content is written by
// authors outside this core, so the interface is read-only.
type LessonRepository interface {
	GetByID(ctx context.Context, id int64) (*entity.Lesson, error)
	GetBySlug(ctx context.Context, slug string) (*entity.Lesson, error)
	List(ctx context.Context, query *ListLessonQuery) ([]entity.Lesson, int64, error)
	// ListSubjects returns all subjects, each with its lessons in (date, id) order.
	ListSubjects(ctx context.Context) ([]entity.Subject, error)
	// ListBySubject returns the subject's lessons in (date, id) order.
	ListBySubject(ctx context.Context, subjectID int64) ([]entity.Lesson, error)
	CountAll(ctx context.Context) (int64, error)
	// ListUncompleted returns lessons the user has not completed, in (date, id)
	// order, capped at limit.
	ListUncompleted(ctx context.Context, userID int64, limit int32) ([]entity.Lesson, error)
	ListPaths(ctx context.Context) ([]entity.LearningPath, error)
	ListPathLessons(ctx context.Context, pathID int64) ([]entity.LearningPathLesson, error)
}

// TestRepository abstracts read access to lesson tests.
type TestRepository interface {
	GetByID(ctx context.Context, id int64) (*entity.Test, error)
	ListByLesson(ctx context.Context, lessonID int64) ([]entity.Test, error)
}
