package httpapi

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/eslsoft/studyhub/internal/repository"
	"github.com/eslsoft/studyhub/internal/usecase"
)

// Handler exposes the learning core as a JSON API.
type Handler struct {
	lessons         repository.LessonRepository
	access          usecase.AccessUsecase
	gamification    usecase.GamificationUsecase
	assessment      usecase.AssessmentUsecase
	recommendations usecase.RecommendationUsecase
	dashboard       usecase.DashboardUsecase
	logger          *logrus.Logger
}

// NewHandler wires the API handler.
func NewHandler(
	lessons repository.LessonRepository,
	access usecase.AccessUsecase,
	gamification usecase.GamificationUsecase,
	assessment usecase.AssessmentUsecase,
	recommendations usecase.RecommendationUsecase,
	dashboard usecase.DashboardUsecase,
	logger *logrus.Logger,
) *Handler {
	return &Handler{
		lessons:         lessons,
		access:          access,
		gamification:    gamification,
		assessment:      assessment,
		recommendations: recommendations,
		dashboard:       dashboard,
		logger:          logger,
	}
}

// GET /api/lessons
func (h *Handler) ListLessons(c *gin.Context) {
	query := &repository.ListLessonQuery{
		FilterOrder: repository.FilterOrder{
			Filter:  c.Query("filter"),
			OrderBy: c.Query("order_by"),
		},
	}
	if pageNo, err := strconv.ParseInt(c.DefaultQuery("page", "1"), 10, 32); err == nil {
		query.PageNo = int32(pageNo)
	}
	if pageSize, err := strconv.ParseInt(c.DefaultQuery("page_size", "0"), 10, 32); err == nil {
		query.PageSize = int32(pageSize)
	}

	page, err := h.dashboard.LessonsPage(c.Request.Context(), currentUserID(c), query)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// GET /api/lessons/:slug
func (h *Handler) GetLesson(c *gin.Context) {
	detail, err := h.dashboard.LessonDetail(c.Request.Context(), currentUserID(c), c.Param("slug"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

type toggleRequest struct {
	SecondsSpent int `json:"seconds_spent"`
}

// POST /api/lessons/:slug/completion
func (h *Handler) ToggleCompletion(c *gin.Context) {
	ctx := c.Request.Context()
	userID := currentUserID(c)

	var req toggleRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	lesson, err := h.lessons.GetBySlug(ctx, c.Param("slug"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if err := h.access.EnsureAccessible(ctx, userID, lesson); err != nil {
		respondError(c, h.logger, err)
		return
	}

	result, err := h.gamification.ToggleLessonCompletion(ctx, userID, lesson, req.SecondsSpent)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if _, err := h.recommendations.Refresh(ctx, userID, 3); err != nil {
		h.logger.WithError(err).Warn("refresh recommendations after toggle")
	}
	c.JSON(http.StatusOK, result)
}

type attemptRequest struct {
	Answer      string `json:"answer"`
	TimeTakenMS int    `json:"time_taken_ms"`
}

// POST /api/tests/:id/attempts
func (h *Handler) SubmitAttempt(c *gin.Context) {
	ctx := c.Request.Context()
	userID := currentUserID(c)

	testID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid test id"})
		return
	}
	var req attemptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	result, err := h.assessment.ProcessTestAttempt(ctx, userID, testID, req.Answer, req.TimeTakenMS)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if result.LessonCompleted {
		if _, err := h.recommendations.Refresh(ctx, userID, 3); err != nil {
			h.logger.WithError(err).Warn("refresh recommendations after attempt")
		}
	}
	c.JSON(http.StatusOK, result)
}

// GET /api/dashboard
func (h *Handler) GetDashboard(c *gin.Context) {
	dashboard, err := h.dashboard.StudentDashboard(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, dashboard)
}

// GET /api/progress
func (h *Handler) GetProgress(c *gin.Context) {
	snapshot, err := h.gamification.OverallProgress(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

// GET /api/badges
func (h *Handler) GetBadges(c *gin.Context) {
	summary, err := h.gamification.BadgeSummary(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// GET /api/leaderboard
func (h *Handler) GetLeaderboard(c *gin.Context) {
	limit, err := strconv.ParseInt(c.DefaultQuery("limit", "10"), 10, 32)
	if err != nil || limit <= 0 {
		limit = 10
	}
	entries, err := h.gamification.LeaderboardSnapshot(c.Request.Context(), int32(limit))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

// GET /api/recommendations
func (h *Handler) GetRecommendations(c *gin.Context) {
	limit, err := strconv.ParseInt(c.DefaultQuery("limit", "3"), 10, 32)
	if err != nil || limit <= 0 {
		limit = 3
	}
	lessons, err := h.recommendations.Calculate(c.Request.Context(), currentUserID(c), int32(limit))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"lessons": lessons})
}
