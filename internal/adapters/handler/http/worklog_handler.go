package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/comitanigiacomo/devlog-engine/internal/adapters/handler/http/middleware"
	"github.com/comitanigiacomo/devlog-engine/internal/core/analytics"
	"github.com/comitanigiacomo/devlog-engine/internal/core/domain"
	"github.com/comitanigiacomo/devlog-engine/internal/core/services"
)

type WorkLogHandler struct {
	svc *services.WorkLogService
}

func NewWorkLogHandler(svc *services.WorkLogService) *WorkLogHandler {
	return &WorkLogHandler{svc: svc}
}

type taskRequest struct {
	Description string   `json:"description" binding:"required"`
	Hours       int      `json:"hours" binding:"min=0"`
	Minutes     int      `json:"minutes" binding:"min=0,max=59"`
	Tags        []string `json:"tags"`
	Status      string   `json:"status"`
}

type moodRequest struct {
	Score int    `json:"score" binding:"required,min=1,max=5"`
	Emoji string `json:"emoji"`
}

type createLogRequest struct {
	Date     string        `json:"date"`
	Tasks    []taskRequest `json:"tasks" binding:"required,min=1,dive"`
	Mood     moodRequest   `json:"mood" binding:"required"`
	Blockers string        `json:"blockers"`
	Summary  string        `json:"summary"`
}

type updateLogRequest struct {
	Tasks    []taskRequest `json:"tasks" binding:"omitempty,min=1,dive"`
	Mood     *moodRequest  `json:"mood"`
	Blockers *string       `json:"blockers"`
	Summary  *string       `json:"summary"`
	Status   string        `json:"status"`
	Version  int           `json:"version"`
}

type listLogsQuery struct {
	From        string `form:"from"`
	To          string `form:"to"`
	UserID      string `form:"user_id"`
	Status      string `form:"status"`
	HasBlockers bool   `form:"has_blockers"`
	Page        int    `form:"page"`
	Limit       int    `form:"limit"`
}

type feedbackRequest struct {
	Comment string `json:"comment" binding:"required"`
}

type reviewRequest struct {
	Status string `json:"status" binding:"required"`
}

func toTaskInputs(reqs []taskRequest) []services.TaskInput {
	if reqs == nil {
		return nil
	}
	inputs := make([]services.TaskInput, 0, len(reqs))
	for _, t := range reqs {
		inputs = append(inputs, services.TaskInput{
			Description: t.Description,
			Hours:       t.Hours,
			Minutes:     t.Minutes,
			Tags:        t.Tags,
			Status:      analytics.TaskStatus(t.Status),
		})
	}
	return inputs
}

// parseDay accepts an empty string as "not set".
func parseDay(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(domain.DateLayout, s)
	if err != nil {
		return nil, domain.ErrInvalidDate
	}
	return &t, nil
}

func (h *WorkLogHandler) RegisterRoutes(router *gin.RouterGroup) {
	logs := router.Group("/logs")
	{
		logs.POST("", middleware.RequireRole(domain.RoleDeveloper), h.Create)
		logs.GET("", h.List)
		logs.GET("/:id", h.Get)
		logs.PATCH("/:id", h.Update)
		logs.DELETE("/:id", middleware.RequireRole(domain.RoleDeveloper), h.Delete)
		logs.POST("/:id/feedback", middleware.RequireRole(domain.RoleManager), h.AddFeedback)
		logs.POST("/:id/review", middleware.RequireRole(domain.RoleManager), h.Review)
		logs.POST("/:id/tasks/:taskId/feedback", middleware.RequireRole(domain.RoleManager), h.AddTaskFeedback)
		logs.PATCH("/:id/tasks/:taskId/status", middleware.RequireRole(domain.RoleManager), h.ReviewTask)
	}
}

// Create godoc
// @Summary  Submit today's (or a past day's) work log
// @Tags     logs
// @Accept   json
// @Produce  json
// @Security BearerAuth
// @Param    body body createLogRequest true "log"
// @Success  201 {object} domain.WorkLog
// @Failure  400,409 {object} map[string]string
// @Router   /logs [post]
func (h *WorkLogHandler) Create(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "user context missing"})
		return
	}

	var req createLogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	date, err := parseDay(req.Date)
	if err != nil {
		handleError(c, err)
		return
	}

	input := services.CreateLogInput{
		UserID:    userID,
		Tasks:     toTaskInputs(req.Tasks),
		MoodScore: req.Mood.Score,
		MoodEmoji: req.Mood.Emoji,
		Blockers:  req.Blockers,
		Summary:   req.Summary,
	}
	if date != nil {
		input.Date = *date
	}

	wl, err := h.svc.Create(c.Request.Context(), input)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, wl)
}

// List godoc
// @Summary  List visible work logs
// @Tags     logs
// @Produce  json
// @Security BearerAuth
// @Param    from query string false "YYYY-MM-DD"
// @Param    to query string false "YYYY-MM-DD"
// @Param    user_id query string false "owner (managers only)"
// @Param    status query string false "review status"
// @Param    has_blockers query bool false "only logs with blockers"
// @Param    page query int false "page, from 1"
// @Param    limit query int false "page size, max 100"
// @Success  200 {object} services.LogPage
// @Router   /logs [get]
func (h *WorkLogHandler) List(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "user context missing"})
		return
	}

	var q listLogsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindError(c, err)
		return
	}

	from, err := parseDay(q.From)
	if err != nil {
		handleError(c, err)
		return
	}
	to, err := parseDay(q.To)
	if err != nil {
		handleError(c, err)
		return
	}

	page, err := h.svc.List(c.Request.Context(), actor, services.ListLogsInput{
		UserID:      q.UserID,
		From:        from,
		To:          to,
		Status:      domain.ReviewStatus(q.Status),
		HasBlockers: q.HasBlockers,
		Page:        q.Page,
		Limit:       q.Limit,
	})
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, page)
}

func (h *WorkLogHandler) Get(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "user context missing"})
		return
	}

	wl, err := h.svc.GetByID(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, wl)
}

// Update godoc
// @Summary  Edit a log (author) or set its review status (manager)
// @Tags     logs
// @Accept   json
// @Produce  json
// @Security BearerAuth
// @Param    id path string true "log id"
// @Param    body body updateLogRequest true "changes"
// @Success  200 {object} domain.WorkLog
// @Failure  409 {object} map[string]string
// @Router   /logs/{id} [patch]
func (h *WorkLogHandler) Update(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "user context missing"})
		return
	}

	var req updateLogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	id := c.Param("id")

	if actor.IsManager() {
		if req.Status == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "managers can only change the review status"})
			return
		}
		wl, err := h.svc.Review(c.Request.Context(), actor, id, domain.ReviewStatus(req.Status))
		if err != nil {
			handleError(c, err)
			return
		}
		c.JSON(http.StatusOK, wl)
		return
	}

	input := services.UpdateLogInput{
		ID:       id,
		UserID:   actor.UserID,
		Tasks:    toTaskInputs(req.Tasks),
		Blockers: req.Blockers,
		Summary:  req.Summary,
		Version:  req.Version,
	}
	if req.Mood != nil {
		input.MoodScore = req.Mood.Score
		input.MoodEmoji = req.Mood.Emoji
	}

	wl, err := h.svc.Update(c.Request.Context(), input)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, wl)
}

func (h *WorkLogHandler) Delete(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "user context missing"})
		return
	}

	if err := h.svc.Delete(c.Request.Context(), c.Param("id"), userID); err != nil {
		handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *WorkLogHandler) AddFeedback(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "user context missing"})
		return
	}

	var req feedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	wl, err := h.svc.AddFeedback(c.Request.Context(), actor, c.Param("id"), req.Comment)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, wl)
}

func (h *WorkLogHandler) Review(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "user context missing"})
		return
	}

	var req reviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	wl, err := h.svc.Review(c.Request.Context(), actor, c.Param("id"), domain.ReviewStatus(req.Status))
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, wl)
}

// AddTaskFeedback godoc
// @Summary  Comment on a single task of a log
// @Tags     logs
// @Accept   json
// @Produce  json
// @Security BearerAuth
// @Param    id     path string          true "log id"
// @Param    taskId path string          true "task id"
// @Param    body   body feedbackRequest true "comment"
// @Success  201 {object} domain.WorkLog
// @Failure  400,403,404 {object} map[string]string
// @Router   /logs/{id}/tasks/{taskId}/feedback [post]
func (h *WorkLogHandler) AddTaskFeedback(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "user context missing"})
		return
	}

	var req feedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	wl, err := h.svc.AddTaskFeedback(c.Request.Context(), actor, c.Param("id"), c.Param("taskId"), req.Comment)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, wl)
}

func (h *WorkLogHandler) ReviewTask(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "user context missing"})
		return
	}

	var req reviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	wl, err := h.svc.ReviewTask(c.Request.Context(), actor, c.Param("id"), c.Param("taskId"), domain.ReviewStatus(req.Status))
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, wl)
}
