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

type InquiryHandler struct {
	ledger    service.LedgerService
	sequencer service.SequencerService
	logger    *zap.Logger
}

func NewInquiryHandler(ledger service.LedgerService, sequencer service.SequencerService, logger *zap.Logger) *InquiryHandler {
	return &InquiryHandler{ledger: ledger, sequencer: sequencer, logger: logger}
}

func (h *InquiryHandler) RegisterRoutes(router *gin.RouterGroup, guard RoleGuard) {
	inquiry := router.Group("/api/inquiry", guard(model.RoleInquirer))
	{
		inquiry.GET("/tasks", h.ListTasks)
		inquiry.POST("/tasks/:id/claim", h.ClaimTask)
		inquiry.GET("/tasks/:id/next-action", h.NextAction)
		inquiry.POST("/tasks/:id/skip", h.SkipStep)
		inquiry.POST("/submit", h.SubmitStep)
	}
}

// ListTasks godoc
// @Summary      List visible inquiry tasks
// @Tags         inquiry
// @Security     BearerAuth
// @Produce      json
// @Param        page   query     int  false  "Page number (default 1)"
// @Param        limit  query     int  false  "Number of items per page (default 20)"
// @Success      200    {object}  response.Response{data=[]service.InquiryTaskResponse}
// @Router       /api/inquiry/tasks [get]
func (h *InquiryHandler) ListTasks(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	p := pagination.Parse(c)

	tasks, total, err := h.ledger.ListVisibleInquiryTasks(c.Request.Context(), actor, p.Page, p.Limit)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, tasks, p.Page, p.Limit, total))
}

// ClaimTask godoc
// @Summary      Claim an inquiry task
// @Tags         inquiry
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Inquiry task ID"
// @Success      200  {object}  response.Response{data=service.InquiryTaskResponse}
// @Failure      409  {object}  response.Response
// @Router       /api/inquiry/tasks/{id}/claim [post]
func (h *InquiryHandler) ClaimTask(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	task, err := h.ledger.ClaimInquiryTask(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, task))
}

// NextAction godoc
// @Summary      Next allowed step
// @Description  Returns the step the task expects next and whether it may be skipped
// @Tags         inquiry
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Inquiry task ID"
// @Success      200  {object}  response.Response{data=service.NextActionResponse}
// @Router       /api/inquiry/tasks/{id}/next-action [get]
func (h *InquiryHandler) NextAction(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	next, err := h.sequencer.NextAllowedAction(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, next))
}

// SubmitStep godoc
// @Summary      Submit an inquiry step
// @Description  Records the next step of the task's sequence with its evidence snapshot
// @Tags         inquiry
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.SubmitStepRequest  true  "Step submission"
// @Success      200      {object}  response.Response{data=service.InquiryTaskResponse}
// @Failure      409      {object}  response.Response
// @Failure      422      {object}  response.Response
// @Router       /api/inquiry/submit [post]
func (h *InquiryHandler) SubmitStep(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	var req service.SubmitStepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	task, err := h.sequencer.SubmitStep(c.Request.Context(), actor, req)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, task))
}

// SkipStep godoc
// @Summary      Skip an optional step
// @Description  Records an explicit skip when an email was already obtained
// @Tags         inquiry
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                   true  "Inquiry task ID"
// @Param        payload  body      service.SkipStepRequest  true  "Step to skip"
// @Success      200      {object}  response.Response{data=service.InquiryTaskResponse}
// @Failure      422      {object}  response.Response
// @Router       /api/inquiry/tasks/{id}/skip [post]
func (h *InquiryHandler) SkipStep(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	var req service.SkipStepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	task, err := h.sequencer.SkipStep(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, task))
}
