package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/comitanigiacomo/devlog-engine/internal/adapters/handler/http/middleware"
	"github.com/comitanigiacomo/devlog-engine/internal/core/domain"
	"github.com/comitanigiacomo/devlog-engine/internal/core/services"
)

// ReportRenderer produces the HTML variant of a weekly report.
type ReportRenderer interface {
	RenderWeeklyReport(report *domain.WeeklyReport) (string, error)
}

type StatsHandler struct {
	svc      *services.StatsService
	renderer ReportRenderer
	now      func() time.Time
}

func NewStatsHandler(svc *services.StatsService, renderer ReportRenderer) *StatsHandler {
	return &StatsHandler{
		svc:      svc,
		renderer: renderer,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (h *StatsHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/stats/me", h.GetMyStats)
	r.GET("/stats/calendar", h.GetCalendar)
	r.GET("/reports/weekly", h.GetWeeklyReport)

	r.GET("/teams/:id/stats", h.GetTeamStats)
	r.GET("/teams/:id/time-distribution", h.GetTimeDistribution)
}

// GetMyStats godoc
// @Summary  Caller's stats over the last 30 days
// @Tags     stats
// @Produce  json
// @Security BearerAuth
// @Success  200 {object} domain.UserStats
// @Router   /stats/me [get]
func (h *StatsHandler) GetMyStats(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	stats, err := h.svc.GetUserStats(c.Request.Context(), userID, h.now())
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// GetCalendar godoc
// @Summary  Per-day heatmap and streaks
// @Tags     stats
// @Produce  json
// @Security BearerAuth
// @Param    from query string false "YYYY-MM-DD, defaults to one year before to"
// @Param    to query string false "YYYY-MM-DD, defaults to today"
// @Success  200 {object} domain.Calendar
// @Failure  400 {object} map[string]string
// @Router   /stats/calendar [get]
func (h *StatsHandler) GetCalendar(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	now := h.now()

	to, err := parseDay(c.Query("to"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid to format, expected YYYY-MM-DD"})
		return
	}
	if to == nil {
		to = &now
	}

	from, err := parseDay(c.Query("from"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid from format, expected YYYY-MM-DD"})
		return
	}
	if from == nil {
		start := to.AddDate(0, 0, -(services.MaxCalendarDays - 2))
		from = &start
	}

	calendar, err := h.svc.GetCalendar(c.Request.Context(), userID, *from, *to, now)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, calendar)
}

// GetWeeklyReport godoc
// @Summary  Weekly report, as JSON or rendered HTML (?format=html)
// @Tags     stats
// @Produce  json,html
// @Security BearerAuth
// @Param    format query string false "json or html"
// @Success  200 {object} domain.WeeklyReport
// @Router   /reports/weekly [get]
func (h *StatsHandler) GetWeeklyReport(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	report, err := h.svc.GetWeeklyReport(c.Request.Context(), userID, h.now())
	if err != nil {
		handleError(c, err)
		return
	}

	if c.Query("format") == "html" && h.renderer != nil {
		html, err := h.renderer.RenderWeeklyReport(report)
		if err != nil {
			handleError(c, err)
			return
		}
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(html))
		return
	}

	c.JSON(http.StatusOK, report)
}

// GetTeamStats godoc
// @Summary  Team aggregates over the last 7 days
// @Tags     teams
// @Produce  json
// @Security BearerAuth
// @Param    id path string true "team id"
// @Success  200 {object} domain.TeamStats
// @Failure  403,404 {object} map[string]string
// @Router   /teams/{id}/stats [get]
func (h *StatsHandler) GetTeamStats(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	stats, err := h.svc.GetTeamStats(c.Request.Context(), actor, c.Param("id"), h.now())
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

func (h *StatsHandler) GetTimeDistribution(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	dist, err := h.svc.GetTimeDistribution(c.Request.Context(), actor, c.Param("id"), h.now())
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dist)
}
