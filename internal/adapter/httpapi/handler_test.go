package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/eslsoft/studyhub/internal/entity"
	"github.com/eslsoft/studyhub/internal/repository"
	"github.com/eslsoft/studyhub/internal/usecase"
)

type stubLessonRepo struct {
	repository.LessonRepository
	getBySlug func(ctx context.Context, slug string) (*entity.Lesson, error)
}

func (s *stubLessonRepo) GetBySlug(ctx context.Context, slug string) (*entity.Lesson, error) {
	return s.getBySlug(ctx, slug)
}

type stubAccess struct {
	usecase.AccessUsecase
	ensure func(ctx context.Context, userID int64, lesson *entity.Lesson) error
}

func (s *stubAccess) EnsureAccessible(ctx context.Context, userID int64, lesson *entity.Lesson) error {
	return s.ensure(ctx, userID, lesson)
}

type stubGamification struct {
	usecase.GamificationUsecase
	toggle      func(ctx context.Context, userID int64, lesson *entity.Lesson, secondsSpent int) (*entity.ToggleResult, error)
	leaderboard func(ctx context.Context, limit int32) ([]entity.LeaderboardEntry, error)
}

func (s *stubGamification) ToggleLessonCompletion(ctx context.Context, userID int64, lesson *entity.Lesson, secondsSpent int) (*entity.ToggleResult, error) {
	return s.toggle(ctx, userID, lesson, secondsSpent)
}

func (s *stubGamification) LeaderboardSnapshot(ctx context.Context, limit int32) ([]entity.LeaderboardEntry, error) {
	return s.leaderboard(ctx, limit)
}

type stubAssessment struct {
	usecase.AssessmentUsecase
	process func(ctx context.Context, userID, testID int64, answer string, timeTakenMS int) (*entity.AssessmentResult, error)
}

func (s *stubAssessment) ProcessTestAttempt(ctx context.Context, userID, testID int64, answer string, timeTakenMS int) (*entity.AssessmentResult, error) {
	return s.process(ctx, userID, testID, answer, timeTakenMS)
}

type stubRecommendations struct {
	usecase.RecommendationUsecase
	refreshed int
}

func (s *stubRecommendations) Refresh(ctx context.Context, userID int64, limit int32) ([]entity.Lesson, error) {
	s.refreshed++
	return nil, nil
}

type stubDashboard struct {
	usecase.DashboardUsecase
	detail func(ctx context.Context, userID int64, slug string) (*entity.LessonDetail, error)
}

func (s *stubDashboard) LessonDetail(ctx context.Context, userID int64, slug string) (*entity.LessonDetail, error) {
	return s.detail(ctx, userID, slug)
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

type handlerFixture struct {
	lessons         *stubLessonRepo
	access          *stubAccess
	gamification    *stubGamification
	assessment      *stubAssessment
	recommendations *stubRecommendations
	dashboard       *stubDashboard
	router          http.Handler
}

func newHandlerFixture() *handlerFixture {
	fix := &handlerFixture{
		lessons:         &stubLessonRepo{},
		access:          &stubAccess{ensure: func(context.Context, int64, *entity.Lesson) error { return nil }},
		gamification:    &stubGamification{},
		assessment:      &stubAssessment{},
		recommendations: &stubRecommendations{},
		dashboard:       &stubDashboard{},
	}
	logger := testLogger()
	handler := NewHandler(fix.lessons, fix.access, fix.gamification, fix.assessment, fix.recommendations, fix.dashboard, logger)
	fix.router = NewRouter(handler, logger, nil)
	return fix
}

func (f *handlerFixture) do(t *testing.T, method, path, userID, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func TestUserIdentityRequired(t *testing.T) {
	fix := newHandlerFixture()

	for _, userID := range []string{"", "abc", "0", "-5"} {
		rec := fix.do(t, http.MethodGet, "/api/progress", userID, "")
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("user id %q: expected 400, got %d", userID, rec.Code)
		}
	}
}

func TestGetLessonLockedConflict(t *testing.T) {
	fix := newHandlerFixture()
	fix.dashboard.detail = func(ctx context.Context, userID int64, slug string) (*entity.LessonDetail, error) {
		return nil, &entity.BlockedError{Blocking: entity.LessonRef{ID: 7, Slug: "fractions-1", Title: "Fractions I"}}
	}

	rec := fix.do(t, http.MethodGet, "/api/lessons/fractions-2", "11", "")
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Error     string           `json:"error"`
		BlockedBy entity.LessonRef `json:"blocked_by"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.BlockedBy.Slug != "fractions-1" {
		t.Fatalf("expected blocking slug, got %+v", body)
	}
}

func TestGetLessonNotFound(t *testing.T) {
	fix := newHandlerFixture()
	fix.dashboard.detail = func(ctx context.Context, userID int64, slug string) (*entity.LessonDetail, error) {
		return nil, entity.ErrLessonNotFound
	}

	rec := fix.do(t, http.MethodGet, "/api/lessons/missing", "11", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestToggleCompletionRefreshesRecommendations(t *testing.T) {
	fix := newHandlerFixture()
	lesson := &entity.Lesson{ID: 3, Slug: "fractions-1", Title: "Fractions I"}
	fix.lessons.getBySlug = func(ctx context.Context, slug string) (*entity.Lesson, error) {
		if slug != "fractions-1" {
			return nil, entity.ErrLessonNotFound
		}
		return lesson, nil
	}
	fix.gamification.toggle = func(ctx context.Context, userID int64, l *entity.Lesson, secondsSpent int) (*entity.ToggleResult, error) {
		if userID != 11 || l.ID != lesson.ID || secondsSpent != 120 {
			t.Fatalf("unexpected toggle args: user=%d lesson=%d seconds=%d", userID, l.ID, secondsSpent)
		}
		return &entity.ToggleResult{Completed: true, Snapshot: entity.ProgressSnapshot{Percent: 50, Completed: 1, Total: 2}}, nil
	}

	rec := fix.do(t, http.MethodPost, "/api/lessons/fractions-1/completion", "11", `{"seconds_spent": 120}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if fix.recommendations.refreshed != 1 {
		t.Fatalf("expected one recommendation refresh, got %d", fix.recommendations.refreshed)
	}
	var result entity.ToggleResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatal(err)
	}
	if !result.Completed || result.Snapshot.Percent != 50 {
		t.Fatalf("unexpected body: %+v", result)
	}
}

func TestToggleCompletionBlocked(t *testing.T) {
	fix := newHandlerFixture()
	fix.lessons.getBySlug = func(ctx context.Context, slug string) (*entity.Lesson, error) {
		return &entity.Lesson{ID: 4, Slug: slug}, nil
	}
	fix.access.ensure = func(ctx context.Context, userID int64, lesson *entity.Lesson) error {
		return &entity.BlockedError{Blocking: entity.LessonRef{ID: 3, Slug: "fractions-1"}}
	}

	rec := fix.do(t, http.MethodPost, "/api/lessons/fractions-2/completion", "11", "")
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
	if fix.recommendations.refreshed != 0 {
		t.Fatal("recommendations must not refresh for a blocked lesson")
	}
}

func TestSubmitAttempt(t *testing.T) {
	fix := newHandlerFixture()
	fix.assessment.process = func(ctx context.Context, userID, testID int64, answer string, timeTakenMS int) (*entity.AssessmentResult, error) {
		if testID != 42 || answer != "yes" || timeTakenMS != 8000 {
			t.Fatalf("unexpected attempt args: test=%d answer=%q ms=%d", testID, answer, timeTakenMS)
		}
		return &entity.AssessmentResult{IsCorrect: true, AwardedPoints: 30, LessonCompleted: true}, nil
	}

	rec := fix.do(t, http.MethodPost, "/api/tests/42/attempts", "11", `{"answer":"yes","time_taken_ms":8000}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if fix.recommendations.refreshed != 1 {
		t.Fatal("completed attempt should refresh recommendations")
	}

	rec = fix.do(t, http.MethodPost, "/api/tests/nope/attempts", "11", `{"answer":"yes"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad test id, got %d", rec.Code)
	}
}

func TestSubmitAttemptEmptyAnswer(t *testing.T) {
	fix := newHandlerFixture()
	fix.assessment.process = func(ctx context.Context, userID, testID int64, answer string, timeTakenMS int) (*entity.AssessmentResult, error) {
		return nil, entity.ErrEmptyAnswer
	}

	rec := fix.do(t, http.MethodPost, "/api/tests/42/attempts", "11", `{"answer":"  "}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestGetLeaderboard(t *testing.T) {
	fix := newHandlerFixture()
	fix.gamification.leaderboard = func(ctx context.Context, limit int32) ([]entity.LeaderboardEntry, error) {
		if limit != 5 {
			t.Fatalf("expected limit 5, got %d", limit)
		}
		return []entity.LeaderboardEntry{
			{Rank: 1, UserID: 11, DisplayName: "ada", XP: 900, Level: 4},
			{Rank: 2, UserID: 12, DisplayName: "lin", XP: 750, Level: 4},
		}, nil
	}

	rec := fix.do(t, http.MethodGet, "/api/leaderboard?limit=5", "11", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body struct {
		Entries []entity.LeaderboardEntry `json:"entries"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if len(body.Entries) != 2 || body.Entries[0].Rank != 1 {
		t.Fatalf("unexpected entries: %+v", body.Entries)
	}
}

func TestHealthzSkipsIdentity(t *testing.T) {
	fix := newHandlerFixture()
	rec := fix.do(t, http.MethodGet, "/healthz", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
