package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/comitanigiacomo/kanso-habits/internal/adapters/handler/http/middleware"
	"github.com/comitanigiacomo/kanso-habits/internal/core/domain"
	"github.com/comitanigiacomo/kanso-habits/internal/core/services"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

var profileValidationErrors = []error{
	domain.ErrDisplayNameTooLong,
	domain.ErrProfileFieldTooBig,
	domain.ErrInvalidDate,
	domain.ErrInvalidLinkedIn,
	domain.ErrInvalidTwitter,
	domain.ErrInvalidPhotoURL,
}

type ProfileHandler struct {
	svc *services.ProfileService
}

func NewProfileHandler(svc *services.ProfileService) *ProfileHandler {
	return &ProfileHandler{svc: svc}
}

// updateProfileRequest leaves absent fields untouched. An empty string
// clears the field.
type updateProfileRequest struct {
	DisplayName *string `json:"display_name"`
	Bio         *string `json:"bio"`
	Phone       *string `json:"phone"`
	Birthday    *string `json:"birthday"`
	City        *string `json:"city"`
	LinkedIn    *string `json:"linkedin"`
	Twitter     *string `json:"twitter"`
	PhotoURL    *string `json:"photo_url"`
}

type profileResponse struct {
	userResponse
	domain.Profile
	Completion int       `json:"profile_completion"`
	CreatedAt  time.Time `json:"created_at"`
}

func newProfileResponse(u *domain.User) profileResponse {
	return profileResponse{
		userResponse: newUserResponse(u),
		Profile:      u.Profile,
		Completion:   u.ProfileCompletion(),
		CreatedAt:    u.CreatedAt,
	}
}

func (h *ProfileHandler) RegisterRoutes(router *gin.RouterGroup) {
	me := router.Group("/me")
	{
		me.GET("", h.Get)
		me.PUT("", h.Update)
		me.DELETE("", h.Delete)
	}
}

func (h *ProfileHandler) Get(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	user, err := h.svc.Get(c.Request.Context(), userID)
	if err != nil {
		respondProfileError(c, err)
		return
	}
	c.JSON(http.StatusOK, newProfileResponse(user))
}

func (h *ProfileHandler) Update(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.svc.Update(c.Request.Context(), userID, domain.ProfileUpdate{
		DisplayName: req.DisplayName,
		Bio:         req.Bio,
		Phone:       req.Phone,
		Birthday:    req.Birthday,
		City:        req.City,
		LinkedIn:    req.LinkedIn,
		Twitter:     req.Twitter,
		PhotoURL:    req.PhotoURL,
	})
	if err != nil {
		respondProfileError(c, err)
		return
	}
	c.JSON(http.StatusOK, newProfileResponse(user))
}

func (h *ProfileHandler) Delete(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	if err := h.svc.DeleteAccount(c.Request.Context(), userID); err != nil {
		respondProfileError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func respondProfileError(c *gin.Context, err error) {
	for _, target := range profileValidationErrors {
		if errors.Is(err, target) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	if errors.Is(err, domain.ErrUserNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}

	_ = c.Error(err)
	logrus.WithError(err).WithField("path", c.FullPath()).Error("request failed")
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}
