package handler

import (
	"context"
	"net/http"

	"leadflow/internal/model"
	"leadflow/internal/service"
	"leadflow/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AuditHandler struct {
	decisions service.DecisionService
	logger    *zap.Logger
}

func NewAuditHandler(decisions service.DecisionService, logger *zap.Logger) *AuditHandler {
	return &AuditHandler{decisions: decisions, logger: logger}
}

func (h *AuditHandler) RegisterRoutes(router *gin.RouterGroup, guard RoleGuard) {
	audit := router.Group("/api/audit")
	{
		audit.POST("/research/:id", guard(model.RoleResearchAuditor), h.DecideResearch)
		audit.POST("/inquiry/:id", guard(model.RoleInquiryAuditor), h.DecideInquiry)
	}
}

// DecideResearch godoc
// @Summary      Audit a research task
// @Description  Applies APPROVED, REJECTED or FLAGGED to a SUBMITTED task. Approval spawns an inquiry task.
// @Tags         audit
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                   true  "Research task ID"
// @Param        payload  body      service.DecisionRequest  true  "Decision"
// @Success      200      {object}  response.Response{data=service.DecisionResponse}
// @Failure      409      {object}  response.Response
// @Failure      422      {object}  response.Response
// @Router       /api/audit/research/{id} [post]
func (h *AuditHandler) DecideResearch(c *gin.Context) {
	h.decide(c, h.decisions.DecideResearch)
}

// DecideInquiry godoc
// @Summary      Audit an inquiry task
// @Description  Applies APPROVED, REJECTED or FLAGGED to a COMPLETED inquiry task
// @Tags         audit
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                   true  "Inquiry task ID"
// @Param        payload  body      service.DecisionRequest  true  "Decision"
// @Success      200      {object}  response.Response{data=service.DecisionResponse}
// @Failure      409      {object}  response.Response
// @Failure      422      {object}  response.Response
// @Router       /api/audit/inquiry/{id} [post]
func (h *AuditHandler) DecideInquiry(c *gin.Context) {
	h.decide(c, h.decisions.DecideInquiry)
}

type decideFunc func(ctx context.Context, actor service.Actor, id string, req service.DecisionRequest) (service.DecisionResponse, error)

func (h *AuditHandler) decide(c *gin.Context, apply decideFunc) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	var req service.DecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	result, err := apply(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}
