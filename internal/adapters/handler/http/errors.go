package http

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/comitanigiacomo/devlog-engine/internal/core/analytics"
	"github.com/comitanigiacomo/devlog-engine/internal/core/domain"
)

var badRequestErrors = []error{
	domain.ErrInvalidEmail,
	domain.ErrPasswordTooShort,
	domain.ErrUserNameEmpty,
	domain.ErrInvalidRole,
	domain.ErrManagerRequired,
	domain.ErrInvalidManager,
	domain.ErrNoTasks,
	domain.ErrTaskDescEmpty,
	domain.ErrTaskDescTooLong,
	domain.ErrBlockersTooLong,
	domain.ErrInvalidTime,
	domain.ErrInvalidTaskStatus,
	domain.ErrInvalidMood,
	domain.ErrInvalidMoodEmoji,
	domain.ErrInvalidReviewStatus,
	domain.ErrLogInvalidUserID,
	domain.ErrTeamNameEmpty,
	domain.ErrTeamNameTooLong,
	domain.ErrInvalidDeadline,
	domain.ErrInvalidMembers,
	domain.ErrTeamInvalidUserID,
	domain.ErrInvalidDate,
	domain.ErrRangeTooLarge,
	domain.ErrInvalidPaging,
	domain.ErrInvalidComment,
	domain.ErrWrongPassword,
	domain.ErrNotDeveloper,
	analytics.ErrInvalidInput,
}

// handleError maps service errors onto HTTP statuses. Unknown errors are
// logged and hidden behind a generic 500.
func handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrWorkLogNotFound),
		errors.Is(err, domain.ErrTeamNotFound),
		errors.Is(err, domain.ErrTaskNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})

	case errors.Is(err, domain.ErrWorkLogConflict):
		c.JSON(http.StatusConflict, gin.H{
			"error":   "version conflict",
			"message": "The log has been modified elsewhere. Reload it and retry.",
		})

	case errors.Is(err, domain.ErrEmailAlreadyExists),
		errors.Is(err, domain.ErrLogAlreadyExists):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})

	case errors.Is(err, domain.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid email or password"})

	case errors.Is(err, domain.ErrUnauthorized),
		errors.Is(err, domain.ErrForbiddenRole):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})

	case isBadRequest(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

	default:
		log.Printf("[ERROR] %s %s: %v", c.Request.Method, c.FullPath(), err)
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

func isBadRequest(err error) bool {
	for _, target := range badRequestErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func bindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}
