package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/eslsoft/studyhub/internal/entity"
)

// respondError maps domain errors onto HTTP statuses. A blocked lesson is a
// conflict carrying the blocking lesson reference so clients can link to it.
func respondError(c *gin.Context, logger *logrus.Logger, err error) {
	if blocked, ok := entity.AsBlocked(err); ok {
		c.JSON(http.StatusConflict, gin.H{
			"error":      "lesson is locked",
			"blocked_by": blocked.Blocking,
		})
		return
	}

	switch {
	case errors.Is(err, entity.ErrLessonNotFound),
		errors.Is(err, entity.ErrSubjectNotFound),
		errors.Is(err, entity.ErrTestNotFound),
		errors.Is(err, entity.ErrProfileNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, entity.ErrEmptyAnswer),
		errors.Is(err, entity.ErrInvalidUserID):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		logger.WithError(err).Error("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
