package http

import (
	"net/http"
	"strconv"

	"github.com/comitanigiacomo/kanso-habits/internal/core/services"
	"github.com/gin-gonic/gin"
)

type FeedHandler struct {
	svc  *services.FeedService
	live http.Handler
}

// NewFeedHandler serves the public feed. live, when set, upgrades
// GET /feed/live to a websocket stream of cheer events.
func NewFeedHandler(svc *services.FeedService, live http.Handler) *FeedHandler {
	return &FeedHandler{svc: svc, live: live}
}

func (h *FeedHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/feed", h.GetFeed)
	r.POST("/feed/:id/cheer", h.Cheer)
	r.GET("/shared/:id", h.GetShared)
	if h.live != nil {
		r.GET("/feed/live", gin.WrapH(h.live))
	}
}

func (h *FeedHandler) GetFeed(c *gin.Context) {
	limit := services.DefaultFeedLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}

	items, err := h.svc.Feed(c.Request.Context(), limit)
	if err != nil {
		respondHabitError(c, err)
		return
	}

	c.JSON(http.StatusOK, items)
}

func (h *FeedHandler) GetShared(c *gin.Context) {
	item, err := h.svc.GetShared(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondHabitError(c, err)
		return
	}

	c.JSON(http.StatusOK, item)
}

func (h *FeedHandler) Cheer(c *gin.Context) {
	item, err := h.svc.Cheer(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondHabitError(c, err)
		return
	}

	c.JSON(http.StatusOK, item)
}
