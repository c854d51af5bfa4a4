package handler

import (
	"net/http"
	"time"

	"leadflow/internal/model"
	"leadflow/internal/service"
	"leadflow/pkg/pagination"
	"leadflow/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// StatisticsHandler serves the admin dashboard: pipeline counts and the activity trail
type StatisticsHandler struct {
	statistics service.StatisticsService
	activity   service.ActivityService
	logger     *zap.Logger
	now        func() time.Time
}

func NewStatisticsHandler(statistics service.StatisticsService, activity service.ActivityService, logger *zap.Logger) *StatisticsHandler {
	return &StatisticsHandler{statistics: statistics, activity: activity, logger: logger, now: time.Now}
}

func (h *StatisticsHandler) RegisterRoutes(router *gin.RouterGroup, guard RoleGuard) {
	admin := router.Group("/api/admin", guard(model.RoleAdmin))
	{
		admin.GET("/statistics", h.GetStatistics)
		admin.GET("/activity", h.ListActivity)
	}
}

// GetStatistics godoc
// @Summary      Pipeline statistics for a category
// @Description  Task counts by status, audit decisions and duplicate evidence. Defaults to the current month.
// @Tags         admin
// @Security     BearerAuth
// @Produce      json
// @Param        category_id  query     string  true   "Category ID"
// @Param        start_date   query     string  false  "Start Date (RFC3339)"
// @Param        end_date     query     string  false  "End Date (RFC3339)"
// @Success      200          {object}  response.Response{data=model.PipelineStatistics}
// @Failure      400          {object}  response.Response "Invalid date format"
// @Router       /api/admin/statistics [get]
func (h *StatisticsHandler) GetStatistics(c *gin.Context) {
	now := h.now()
	startDate := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	endDate := now

	var err error
	if raw := c.Query("start_date"); raw != "" {
		if startDate, err = time.Parse(time.RFC3339, raw); err != nil {
			c.JSON(http.StatusBadRequest, response.ErrorWithCode(http.StatusBadRequest, "VALIDATION_ERROR", "invalid start_date format, expected RFC3339"))
			return
		}
	}
	if raw := c.Query("end_date"); raw != "" {
		if endDate, err = time.Parse(time.RFC3339, raw); err != nil {
			c.JSON(http.StatusBadRequest, response.ErrorWithCode(http.StatusBadRequest, "VALIDATION_ERROR", "invalid end_date format, expected RFC3339"))
			return
		}
	}

	stats, err := h.statistics.GetStatistics(c.Request.Context(), c.Query("category_id"), startDate, endDate)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, stats))
}

// ListActivity godoc
// @Summary      List workflow activity
// @Description  Newest first; filter by user or by task id
// @Tags         admin
// @Security     BearerAuth
// @Produce      json
// @Param        page       query     int     false  "Page number (default 1)"
// @Param        limit      query     int     false  "Items per page (default 20)"
// @Param        user_id    query     string  false  "Actor user ID"
// @Param        entity_id  query     string  false  "Task ID"
// @Success      200        {object}  response.Response{data=[]service.ActivityLogResponse}
// @Router       /api/admin/activity [get]
func (h *StatisticsHandler) ListActivity(c *gin.Context) {
	p := pagination.Parse(c)

	logs, total, err := h.activity.List(c.Request.Context(), service.ActivityQuery{
		UserID:   c.Query("user_id"),
		EntityID: c.Query("entity_id"),
		Page:     p.Page,
		Limit:    p.Limit,
	})
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, logs, p.Page, p.Limit, total))
}
