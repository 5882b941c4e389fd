package httpapi

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// NewRouter assembles the gin engine with CORS, logging and the API routes.
func NewRouter(handler *Handler, logger *logrus.Logger, allowOrigins []string) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(logger))

	if len(allowOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     allowOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Content-Type", "X-User-ID"},
			AllowCredentials: true,
		}))
	}

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	api.Use(userIdentity())
	{
		api.GET("/lessons", handler.ListLessons)
		api.GET("/lessons/:slug", handler.GetLesson)
		api.POST("/lessons/:slug/completion", handler.ToggleCompletion)
		api.POST("/tests/:id/attempts", handler.SubmitAttempt)
		api.GET("/dashboard", handler.GetDashboard)
		api.GET("/progress", handler.GetProgress)
		api.GET("/badges", handler.GetBadges)
		api.GET("/leaderboard", handler.GetLeaderboard)
		api.GET("/recommendations", handler.GetRecommendations)
	}

	return router
}
