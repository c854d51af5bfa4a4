package handler

import (
	"net/http"

	"leadflow/internal/model"
	"leadflow/internal/service"
	"leadflow/pkg/pagination"
	"leadflow/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ResearchHandler struct {
	ledger service.LedgerService
	logger *zap.Logger
}

func NewResearchHandler(ledger service.LedgerService, logger *zap.Logger) *ResearchHandler {
	return &ResearchHandler{ledger: ledger, logger: logger}
}

func (h *ResearchHandler) RegisterRoutes(router *gin.RouterGroup, guard RoleGuard) {
	research := router.Group("/api/research", guard(model.RoleResearcher))
	{
		research.GET("/tasks", h.ListTasks)
		research.POST("/tasks/:id/claim", h.ClaimTask)
		research.POST("/tasks/:id/submit", h.SubmitTask)
	}
}

// ListTasks godoc
// @Summary      List visible research tasks
// @Description  Returns PENDING tasks in the caller's categories plus tasks the caller has in progress
// @Tags         research
// @Security     BearerAuth
// @Produce      json
// @Param        page   query     int  false  "Page number (default 1)"
// @Param        limit  query     int  false  "Number of items per page (default 20)"
// @Success      200    {object}  response.Response{data=[]service.ResearchTaskResponse}
// @Failure      500    {object}  response.Response
// @Router       /api/research/tasks [get]
func (h *ResearchHandler) ListTasks(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	p := pagination.Parse(c)

	tasks, total, err := h.ledger.ListVisibleResearchTasks(c.Request.Context(), actor, p.Page, p.Limit)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, tasks, p.Page, p.Limit, total))
}

// ClaimTask godoc
// @Summary      Claim a research task
// @Description  Atomically assigns a PENDING task to the caller
// @Tags         research
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Research task ID"
// @Success      200  {object}  response.Response{data=service.ResearchTaskResponse}
// @Failure      404  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Failure      429  {object}  response.Response
// @Router       /api/research/tasks/{id}/claim [post]
func (h *ResearchHandler) ClaimTask(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	task, err := h.ledger.ClaimResearchTask(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, task))
}

// SubmitTask godoc
// @Summary      Submit research
// @Description  Stores the research submission and moves the task to SUBMITTED; duplicate screenshots are flagged
// @Tags         research
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                         true  "Research task ID"
// @Param        payload  body      service.SubmitResearchRequest  true  "Research submission"
// @Success      200      {object}  response.Response{data=service.ResearchTaskResponse}
// @Failure      400      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/research/tasks/{id}/submit [post]
func (h *ResearchHandler) SubmitTask(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	var req service.SubmitResearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	task, err := h.ledger.SubmitResearch(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, task))
}
