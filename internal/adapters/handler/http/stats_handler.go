package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/comitanigiacomo/kanso-habits/internal/adapters/handler/http/middleware"
	"github.com/comitanigiacomo/kanso-habits/internal/core/domain"
	"github.com/comitanigiacomo/kanso-habits/internal/core/services"
	"github.com/comitanigiacomo/kanso-habits/internal/core/stats"
)

const maxDaysRange = 366

type StatsHandler struct {
	svc *services.StatsService
}

func NewStatsHandler(svc *services.StatsService) *StatsHandler {
	return &StatsHandler{svc: svc}
}

func (h *StatsHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/stats/dashboard", h.GetDashboard)
	r.GET("/stats/insights", h.GetInsights)
	r.GET("/stats/weekly", h.GetWeeklyStats)
	r.GET("/badges", h.GetBadges)
}

func (h *StatsHandler) GetDashboard(c *gin.Context) {
	userID := c.GetString(middleware.ContextUserIDKey)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	asOf, ok := queryDay(c, "as_of")
	if !ok {
		return
	}

	dash, err := h.svc.Dashboard(c.Request.Context(), domain.StatsInput{UserID: userID, AsOf: asOf})
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute dashboard"})
		return
	}

	c.JSON(http.StatusOK, dash)
}

func (h *StatsHandler) GetInsights(c *gin.Context) {
	userID := c.GetString(middleware.ContextUserIDKey)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	asOf, ok := queryDay(c, "as_of")
	if !ok {
		return
	}

	days := stats.DefaultHeatmapDays
	if raw := c.Query("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > maxDaysRange {
			c.JSON(http.StatusBadRequest, gin.H{"error": "days must be between 1 and 366"})
			return
		}
		days = n
	}

	insights, err := h.svc.Insights(c.Request.Context(), userID, asOf, days)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute insights"})
		return
	}

	c.JSON(http.StatusOK, insights)
}

func (h *StatsHandler) GetWeeklyStats(c *gin.Context) {
	userID := c.GetString(middleware.ContextUserIDKey)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	endDate, ok := queryDay(c, "end_date")
	if !ok {
		return
	}
	if endDate.IsZero() {
		if endDate, ok = queryDay(c, "as_of"); !ok {
			return
		}
	}
	if endDate.IsZero() {
		endDate = h.svc.Today()
	}

	startDate, ok := queryDay(c, "start_date")
	if !ok {
		return
	}
	if startDate.IsZero() {
		startDate = endDate.AddDate(0, 0, -(stats.WeekDays - 1))
	}

	if startDate.After(endDate) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "start_date cannot be after end_date"})
		return
	}

	// Both ends are included.
	days := int(endDate.Sub(startDate).Hours()/24) + 1
	if days > maxDaysRange {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date range too large, max 1 year allowed"})
		return
	}

	input := domain.StatsInput{
		UserID:    userID,
		StartDate: startDate,
		EndDate:   endDate,
	}

	rs, err := h.svc.RangeStats(c.Request.Context(), input)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to retrieve statistics"})
		return
	}

	c.JSON(http.StatusOK, rs)
}

func (h *StatsHandler) GetBadges(c *gin.Context) {
	userID := c.GetString(middleware.ContextUserIDKey)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	badges, err := h.svc.Badges(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load badges"})
		return
	}

	c.JSON(http.StatusOK, badges)
}
