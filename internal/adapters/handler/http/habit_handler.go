package http

import (
	"net/http"
	"time"

	"github.com/comitanigiacomo/kanso-habits/internal/adapters/export"
	"github.com/comitanigiacomo/kanso-habits/internal/adapters/handler/http/middleware"
	"github.com/comitanigiacomo/kanso-habits/internal/core/domain"
	"github.com/comitanigiacomo/kanso-habits/internal/core/services"
	"github.com/gin-gonic/gin"
)

type HabitHandler struct {
	svc   *services.HabitService
	today func() time.Time
}

// NewHabitHandler wires the habit routes. today supplies the day a toggle
// applies to when the client does not send one.
func NewHabitHandler(svc *services.HabitService, today func() time.Time) *HabitHandler {
	if today == nil {
		today = func() time.Time { return domain.CalendarDay(time.Now().UTC()) }
	}
	return &HabitHandler{
		svc:   svc,
		today: today,
	}
}

type createHabitRequest struct {
	Name              string `json:"name" binding:"required"`
	Category          string `json:"category"`
	Difficulty        string `json:"difficulty"`
	Color             string `json:"color"`
	ReminderTime      string `json:"reminder_time"`
	ReminderFrequency string `json:"reminder_frequency"`
}

type updateHabitRequest struct {
	Name              string  `json:"name"`
	Category          string  `json:"category"`
	Difficulty        string  `json:"difficulty"`
	Color             string  `json:"color"`
	ReminderTime      *string `json:"reminder_time"`
	ReminderFrequency string  `json:"reminder_frequency"`
	Version           int     `json:"version"`
}

type toggleRequest struct {
	Date string `json:"date"`
}

type toggleResponse struct {
	Habit     *domain.Habit `json:"habit"`
	Date      string        `json:"date"`
	Completed bool          `json:"completed"`
}

func (h *HabitHandler) RegisterRoutes(router *gin.RouterGroup) {
	habits := router.Group("/habits")
	{
		habits.POST("", h.Create)
		habits.GET("", h.List)
		habits.GET("/export", h.Export)
		habits.GET("/:id", h.Get)
		habits.PUT("/:id", h.Update)
		habits.DELETE("/:id", h.Delete)
		habits.POST("/:id/toggle", h.Toggle)
		habits.POST("/:id/share", h.Share)
	}
}

func (h *HabitHandler) Create(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req createHabitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	input := services.CreateHabitInput{
		UserID:            userID,
		Name:              req.Name,
		Category:          req.Category,
		Difficulty:        req.Difficulty,
		Color:             req.Color,
		ReminderTime:      req.ReminderTime,
		ReminderFrequency: req.ReminderFrequency,
	}

	habit, err := h.svc.Create(c.Request.Context(), input)
	if err != nil {
		respondHabitError(c, err)
		return
	}

	c.JSON(http.StatusCreated, habit)
}

func (h *HabitHandler) List(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	list, err := h.svc.ListByUserID(c.Request.Context(), userID)
	if err != nil {
		respondHabitError(c, err)
		return
	}

	c.JSON(http.StatusOK, list)
}

func (h *HabitHandler) Get(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	habit, err := h.svc.Get(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		respondHabitError(c, err)
		return
	}

	c.JSON(http.StatusOK, habit)
}

func (h *HabitHandler) Update(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req updateHabitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	input := services.UpdateHabitInput{
		ID:                c.Param("id"),
		UserID:            userID,
		Name:              req.Name,
		Category:          req.Category,
		Difficulty:        req.Difficulty,
		Color:             req.Color,
		ReminderTime:      req.ReminderTime,
		ReminderFrequency: req.ReminderFrequency,
		Version:           req.Version,
	}

	habit, err := h.svc.Update(c.Request.Context(), input)
	if err != nil {
		respondHabitError(c, err)
		return
	}

	c.JSON(http.StatusOK, habit)
}

func (h *HabitHandler) Delete(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	if err := h.svc.Delete(c.Request.Context(), c.Param("id"), userID); err != nil {
		respondHabitError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Toggle checks the habit off for the requested day (query or body "date"),
// defaulting to today.
func (h *HabitHandler) Toggle(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	raw := c.Query("date")
	if raw == "" && c.Request.ContentLength > 0 {
		var req toggleRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		raw = req.Date
	}

	day := h.today()
	if raw != "" {
		parsed, err := domain.ParseDate(raw)
		if err != nil {
			respondHabitError(c, err)
			return
		}
		day = parsed
	}

	habit, completed, err := h.svc.ToggleCompletion(c.Request.Context(), c.Param("id"), userID, day)
	if err != nil {
		respondHabitError(c, err)
		return
	}

	c.JSON(http.StatusOK, toggleResponse{
		Habit:     habit,
		Date:      domain.FormatDate(day),
		Completed: completed,
	})
}

func (h *HabitHandler) Share(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	habit, err := h.svc.Share(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		respondHabitError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"habit":      habit,
		"share_path": "/api/v1/shared/" + habit.ID,
	})
}

func (h *HabitHandler) Export(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	habits, err := h.svc.Export(c.Request.Context(), userID)
	if err != nil {
		respondHabitError(c, err)
		return
	}

	c.Header("Content-Type", export.ContentType)
	c.Header("Content-Disposition", `attachment; filename="`+export.FileName(domain.FormatDate(h.today()))+`"`)
	c.Status(http.StatusOK)
	if err := export.WriteCSV(c.Writer, habits); err != nil {
		_ = c.Error(err)
	}
}
