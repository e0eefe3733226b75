package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/comitanigiacomo/devlog-engine/internal/adapters/handler/http/middleware"
	"github.com/comitanigiacomo/devlog-engine/internal/core/domain"
	"github.com/comitanigiacomo/devlog-engine/internal/core/services"
)

type TeamHandler struct {
	svc *services.TeamService
}

func NewTeamHandler(svc *services.TeamService) *TeamHandler {
	return &TeamHandler{svc: svc}
}

type createTeamRequest struct {
	Name        string   `json:"name" binding:"required"`
	Description string   `json:"description"`
	Department  string   `json:"department"`
	Members     []string `json:"members"`
}

type teamSettingsRequest struct {
	LogSubmissionDeadline   string `json:"log_submission_deadline" binding:"required"`
	RequireMoodTracking     bool   `json:"require_mood_tracking"`
	RequireBlockerReporting bool   `json:"require_blocker_reporting"`
	AutoReminders           bool   `json:"auto_reminders"`
}

// Omitted fields keep their current value; "members": [] empties the team.
type updateTeamRequest struct {
	Name        string               `json:"name"`
	Description string               `json:"description"`
	Department  string               `json:"department"`
	Members     []string             `json:"members"`
	Settings    *teamSettingsRequest `json:"settings"`
}

func (h *TeamHandler) RegisterRoutes(router *gin.RouterGroup) {
	teams := router.Group("/teams")
	{
		teams.POST("", middleware.RequireRole(domain.RoleManager), h.Create)
		teams.GET("", h.List)
		teams.GET("/:id", h.Get)
		teams.PATCH("/:id", middleware.RequireRole(domain.RoleManager), h.Update)
		teams.DELETE("/:id", middleware.RequireRole(domain.RoleManager), h.Delete)
	}
}

// Create godoc
// @Summary  Create a team owned by the caller
// @Tags     teams
// @Accept   json
// @Produce  json
// @Security BearerAuth
// @Param    body body createTeamRequest true "team"
// @Success  201 {object} domain.Team
// @Router   /teams [post]
func (h *TeamHandler) Create(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "user context missing"})
		return
	}

	var req createTeamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	team, err := h.svc.Create(c.Request.Context(), actor, services.CreateTeamInput{
		Name:        req.Name,
		Description: req.Description,
		Department:  req.Department,
		Members:     req.Members,
	})
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, team)
}

func (h *TeamHandler) List(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "user context missing"})
		return
	}

	teams, err := h.svc.List(c.Request.Context(), actor)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, teams)
}

func (h *TeamHandler) Get(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "user context missing"})
		return
	}

	team, err := h.svc.GetByID(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, team)
}

func (h *TeamHandler) Update(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "user context missing"})
		return
	}

	var req updateTeamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	input := services.UpdateTeamInput{
		ID:          c.Param("id"),
		Name:        req.Name,
		Description: req.Description,
		Department:  req.Department,
		Members:     req.Members,
	}
	if req.Settings != nil {
		input.Settings = &domain.TeamSettings{
			LogSubmissionDeadline:   req.Settings.LogSubmissionDeadline,
			RequireMoodTracking:     req.Settings.RequireMoodTracking,
			RequireBlockerReporting: req.Settings.RequireBlockerReporting,
			AutoReminders:           req.Settings.AutoReminders,
		}
	}

	team, err := h.svc.Update(c.Request.Context(), actor, input)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, team)
}

func (h *TeamHandler) Delete(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "user context missing"})
		return
	}

	if err := h.svc.Delete(c.Request.Context(), actor, c.Param("id")); err != nil {
		handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
