package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/eslsoft/studyhub/internal/entity"
)

func seedSubject(lessons *fakeLessonRepo, subjectID int64, slugs ...string) []entity.Lesson {
	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	out := make([]entity.Lesson, 0, len(slugs))
	for i, slug := range slugs {
		out = append(out, entity.Lesson{
			ID:        subjectID*100 + int64(i) + 1,
			SubjectID: subjectID,
			Slug:      slug,
			Title:     slug,
			Date:      base.AddDate(0, 0, i),
			XPReward:  50,
		})
	}
	lessons.addSubject(entity.Subject{ID: subjectID, Name: "subject", Lessons: out})
	return out
}

func TestAccessResolveFrontier(t *testing.T) {
	progress := newFakeProgressRepo()
	lessons := newFakeLessonRepo(progress)
	chain := seedSubject(lessons, 1, "l1", "l2", "l3")

	ctx := context.Background()
	uc := NewAccessUsecase(lessons, progress)

	if _, err := progress.MarkCompleted(ctx, 7, chain[0].ID, time.Now(), 50, 60); err != nil {
		t.Fatalf("mark completed: %v", err)
	}

	view, err := uc.Resolve(ctx, 7)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	if !view.CompletedIDs[chain[0].ID] || !view.AccessibleIDs[chain[0].ID] {
		t.Fatalf("completed lesson should stay accessible")
	}
	if !view.AccessibleIDs[chain[1].ID] {
		t.Fatalf("frontier lesson should be accessible")
	}
	if view.AccessibleIDs[chain[2].ID] {
		t.Fatalf("lesson past the frontier should be locked")
	}
	reason, ok := view.LockedReasons[chain[2].ID]
	if !ok || reason.ID != chain[1].ID {
		t.Fatalf("locked reason = %+v, want frontier %d", reason, chain[1].ID)
	}
}

func TestAccessResolveNoCompletions(t *testing.T) {
	progress := newFakeProgressRepo()
	lessons := newFakeLessonRepo(progress)
	chain := seedSubject(lessons, 1, "l1", "l2")

	uc := NewAccessUsecase(lessons, progress)
	view, err := uc.Resolve(context.Background(), 7)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	if !view.AccessibleIDs[chain[0].ID] {
		t.Fatalf("first lesson must always be accessible")
	}
	if view.AccessibleIDs[chain[1].ID] {
		t.Fatalf("second lesson should be locked with nothing completed")
	}
	if reason := view.LockedReasons[chain[1].ID]; reason.ID != chain[0].ID {
		t.Fatalf("locked reason = %+v, want the first lesson", reason)
	}
}

func TestAccessResolveIndependentSubjects(t *testing.T) {
	progress := newFakeProgressRepo()
	lessons := newFakeLessonRepo(progress)
	seedSubject(lessons, 1, "a1", "a2")
	other := seedSubject(lessons, 2, "b1", "b2")

	uc := NewAccessUsecase(lessons, progress)
	view, err := uc.Resolve(context.Background(), 7)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	// Each subject has its own frontier regardless of the others.
	if !view.AccessibleIDs[other[0].ID] {
		t.Fatalf("second subject's first lesson should be accessible")
	}
}

func TestEnsureAccessibleBlockedByFrontier(t *testing.T) {
	progress := newFakeProgressRepo()
	lessons := newFakeLessonRepo(progress)
	chain := seedSubject(lessons, 1, "l1", "l2", "l3")

	ctx := context.Background()
	uc := NewAccessUsecase(lessons, progress)

	// L1 done, L2 skipped: attempting L3 must name L2 as the blocker.
	if _, err := progress.MarkCompleted(ctx, 7, chain[0].ID, time.Now(), 50, 60); err != nil {
		t.Fatalf("mark completed: %v", err)
	}

	err := uc.EnsureAccessible(ctx, 7, &chain[2])
	blocked, ok := entity.AsBlocked(err)
	if !ok {
		t.Fatalf("err = %v, want BlockedError", err)
	}
	if blocked.Blocking.ID != chain[1].ID {
		t.Fatalf("blocking = %+v, want %d", blocked.Blocking, chain[1].ID)
	}
}

func TestEnsureAccessibleFirstLesson(t *testing.T) {
	progress := newFakeProgressRepo()
	lessons := newFakeLessonRepo(progress)
	chain := seedSubject(lessons, 1, "l1", "l2")

	uc := NewAccessUsecase(lessons, progress)
	if err := uc.EnsureAccessible(context.Background(), 7, &chain[0]); err != nil {
		t.Fatalf("first lesson should be open: %v", err)
	}
}

func TestEnsureAccessibleCompletedLesson(t *testing.T) {
	progress := newFakeProgressRepo()
	lessons := newFakeLessonRepo(progress)
	chain := seedSubject(lessons, 1, "l1", "l2", "l3")

	ctx := context.Background()
	for _, lesson := range chain[:2] {
		if _, err := progress.MarkCompleted(ctx, 7, lesson.ID, time.Now(), 50, 60); err != nil {
			t.Fatalf("mark completed: %v", err)
		}
	}

	uc := NewAccessUsecase(lessons, progress)
	// Revisiting an already completed lesson stays allowed.
	if err := uc.EnsureAccessible(ctx, 7, &chain[1]); err != nil {
		t.Fatalf("completed lesson should stay accessible: %v", err)
	}
	if err := uc.EnsureAccessible(ctx, 7, &chain[2]); err != nil {
		t.Fatalf("frontier lesson should be accessible: %v", err)
	}
}
