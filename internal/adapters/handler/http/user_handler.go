package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/comitanigiacomo/devlog-engine/internal/adapters/handler/http/middleware"
	"github.com/comitanigiacomo/devlog-engine/internal/core/domain"
	"github.com/comitanigiacomo/devlog-engine/internal/core/services"
)

type UserHandler struct {
	svc *services.UserService
	now func() time.Time
}

func NewUserHandler(svc *services.UserService) *UserHandler {
	return &UserHandler{
		svc: svc,
		now: func() time.Time { return time.Now().UTC() },
	}
}

type preferencesRequest struct {
	EmailNotifications    *bool `json:"email_notifications"`
	RealtimeNotifications *bool `json:"realtime_notifications"`
}

type profileRequest struct {
	Name string `json:"name" binding:"required"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=8"`
}

type reassignRequest struct {
	ManagerID string `json:"manager_id" binding:"required"`
	Team      string `json:"team"`
}

// RegisterRoutes mounts the manager directory on the public group so the
// sign-up form can offer a manager to pick.
func (h *UserHandler) RegisterRoutes(public, protected *gin.RouterGroup) {
	public.GET("/users/managers", h.ListManagers)

	protected.PATCH("/auth/preferences", h.UpdatePreferences)

	users := protected.Group("/users")
	{
		users.GET("/team", middleware.RequireRole(domain.RoleManager), h.ListTeam)
		users.PATCH("/profile", h.UpdateProfile)
		users.POST("/change-password", h.ChangePassword)
		users.PATCH("/reassign/:id", middleware.RequireRole(domain.RoleManager), h.Reassign)
		users.GET("/:id/streaks", h.GetStreaks)
	}
}

// ListManagers godoc
// @Summary  Managers available at sign-up
// @Tags     users
// @Produce  json
// @Success  200 {array} services.ManagerSummary
// @Router   /users/managers [get]
func (h *UserHandler) ListManagers(c *gin.Context) {
	managers, err := h.svc.ListManagers(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, managers)
}

func (h *UserHandler) ListTeam(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "user context missing"})
		return
	}

	users, err := h.svc.ListTeam(c.Request.Context(), actor)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

// UpdatePreferences godoc
// @Summary  Toggle notification channels
// @Tags     auth
// @Accept   json
// @Produce  json
// @Security BearerAuth
// @Param    body body preferencesRequest true "preferences"
// @Success  200 {object} domain.User
// @Router   /auth/preferences [patch]
func (h *UserHandler) UpdatePreferences(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "user context missing"})
		return
	}

	var req preferencesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	user, err := h.svc.UpdatePreferences(c.Request.Context(), userID, services.PreferencesInput{
		EmailNotifications:    req.EmailNotifications,
		RealtimeNotifications: req.RealtimeNotifications,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) UpdateProfile(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "user context missing"})
		return
	}

	var req profileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	user, err := h.svc.UpdateProfile(c.Request.Context(), userID, req.Name)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// ChangePassword godoc
// @Summary  Replace the caller's password
// @Tags     users
// @Accept   json
// @Security BearerAuth
// @Param    body body changePasswordRequest true "passwords"
// @Success  204
// @Failure  400 {object} map[string]string
// @Router   /users/change-password [post]
func (h *UserHandler) ChangePassword(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "user context missing"})
		return
	}

	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	err := h.svc.ChangePassword(c.Request.Context(), userID, services.ChangePasswordInput{
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *UserHandler) Reassign(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "user context missing"})
		return
	}

	var req reassignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	user, err := h.svc.Reassign(c.Request.Context(), actor, services.ReassignInput{
		DeveloperID:  c.Param("id"),
		NewManagerID: req.ManagerID,
		Team:         req.Team,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// GetStreaks godoc
// @Summary  Current and longest logging streak of a user
// @Tags     users
// @Produce  json
// @Security BearerAuth
// @Param    id path string true "user id"
// @Success  200 {object} services.UserStreaks
// @Failure  403,404 {object} map[string]string
// @Router   /users/{id}/streaks [get]
func (h *UserHandler) GetStreaks(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "user context missing"})
		return
	}

	streaks, err := h.svc.GetStreaks(c.Request.Context(), actor, c.Param("id"), h.now())
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, streaks)
}
