package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/comitanigiacomo/kanso-habits/internal/core/domain"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

var validationErrors = []error{
	domain.ErrHabitNameEmpty,
	domain.ErrHabitNameTooLong,
	domain.ErrHabitCategoryTooLong,
	domain.ErrHabitInvalidUserID,
	domain.ErrInvalidColor,
	domain.ErrInvalidDifficulty,
	domain.ErrInvalidReminder,
	domain.ErrInvalidReminderFreq,
	domain.ErrInvalidDate,
}

func isValidationError(err error) bool {
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// respondHabitError maps habit errors to HTTP statuses. Anything unknown is
// logged and reported as a 500.
func respondHabitError(c *gin.Context, err error) {
	switch {
	case isValidationError(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrHabitNotFound), errors.Is(err, domain.ErrHabitDeleted):
		c.JSON(http.StatusNotFound, gin.H{"error": "habit not found"})
	case errors.Is(err, domain.ErrHabitConflict):
		c.JSON(http.StatusConflict, gin.H{
			"error":   "version conflict",
			"message": "Data has been modified elsewhere. Reload and retry.",
		})
	default:
		_ = c.Error(err)
		logrus.WithError(err).WithField("path", c.FullPath()).Error("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

// queryDay reads an optional YYYY-MM-DD query parameter. A zero time means
// the parameter was absent; ok is false once a 400 has been written.
func queryDay(c *gin.Context, key string) (day time.Time, ok bool) {
	raw := c.Query(key)
	if raw == "" {
		return time.Time{}, true
	}

	day, err := domain.ParseDate(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + key + " format, expected YYYY-MM-DD"})
		return time.Time{}, false
	}
	return day, true
}
