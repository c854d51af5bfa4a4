package handler

import (
	"net/http"

	"leadflow/internal/model"
	"leadflow/internal/service"
	"leadflow/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AdminHandler exposes the task-creation hooks used by the admin collaborator
type AdminHandler struct {
	ledger service.LedgerService
	rules  service.RuleService
	logger *zap.Logger
}

func NewAdminHandler(ledger service.LedgerService, rules service.RuleService, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{ledger: ledger, rules: rules, logger: logger}
}

func (h *AdminHandler) RegisterRoutes(router *gin.RouterGroup, guard RoleGuard) {
	admin := router.Group("/api/admin", guard(model.RoleAdmin))
	{
		admin.POST("/research/tasks", h.BulkCreateResearchTasks)
		admin.POST("/inquiry/tasks", h.CreateInquiryTask)
		admin.POST("/categories/:id/rules/invalidate", h.InvalidateRules)
	}
}

// BulkCreateResearchTasks godoc
// @Summary      Bulk create research tasks
// @Description  Creates one PENDING task per target; targets inside the category cooldown are skipped
// @Tags         admin
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.BulkCreateTasksRequest  true  "Targets"
// @Success      201      {object}  response.Response{data=service.BulkCreateResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/admin/research/tasks [post]
func (h *AdminHandler) BulkCreateResearchTasks(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	var req service.BulkCreateTasksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.ledger.BulkCreateResearchTasks(c.Request.Context(), actor, req)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, result))
}

// CreateInquiryTask godoc
// @Summary      Create a standalone inquiry task
// @Tags         admin
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateTaskRequest  true  "Target"
// @Success      201      {object}  response.Response{data=service.InquiryTaskResponse}
// @Failure      409      {object}  response.Response
// @Router       /api/admin/inquiry/tasks [post]
func (h *AdminHandler) CreateInquiryTask(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	var req service.CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	task, err := h.ledger.CreateInquiryTask(c.Request.Context(), actor, req)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, task))
}

// InvalidateRules godoc
// @Summary      Drop cached category rules
// @Description  Called after category rules change so the next lookup reloads them
// @Tags         admin
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Category ID"
// @Success      200  {object}  response.Response
// @Router       /api/admin/categories/{id}/rules/invalidate [post]
func (h *AdminHandler) InvalidateRules(c *gin.Context) {
	categoryID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorWithCode(http.StatusBadRequest, "VALIDATION_ERROR", "invalid category id"))
		return
	}

	h.rules.Invalidate(categoryID)
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"category_id": categoryID.String()}))
}
