package handler

import (
	"errors"
	"net/http"

	"leadflow/internal/middleware"
	"leadflow/internal/service"
	"leadflow/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RoleGuard builds the auth middleware admitting the given roles
type RoleGuard func(roles ...string) gin.HandlerFunc

type errorMapping struct {
	target error
	status int
	code   string
}

var errorMappings = []errorMapping{
	{service.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
	{service.ErrAlreadyClaimed, http.StatusConflict, "ALREADY_CLAIMED"},
	{service.ErrNotClaimed, http.StatusConflict, "NOT_CLAIMED"},
	{service.ErrNotOwner, http.StatusForbidden, "NOT_OWNER"},
	{service.ErrInvalidState, http.StatusConflict, "INVALID_STATE"},
	{service.ErrQuotaExceeded, http.StatusTooManyRequests, "QUOTA_EXCEEDED"},
	{service.ErrCooldownActive, http.StatusConflict, "COOLDOWN_ACTIVE"},
	{service.ErrOutOfOrder, http.StatusConflict, "OUT_OF_ORDER"},
	{service.ErrStepNotSkippable, http.StatusUnprocessableEntity, "STEP_NOT_SKIPPABLE"},
	{service.ErrEvidenceRequired, http.StatusUnprocessableEntity, "EVIDENCE_REQUIRED"},
	{service.ErrInvalidReason, http.StatusUnprocessableEntity, "INVALID_REASON"},
	{service.ErrDuplicateBlocksApproval, http.StatusUnprocessableEntity, "DUPLICATE_BLOCKS_APPROVAL"},
	{service.ErrAlreadyAudited, http.StatusConflict, "ALREADY_AUDITED"},
	{service.ErrCategoryNotAssigned, http.StatusForbidden, "CATEGORY_NOT_ASSIGNED"},
	{service.ErrValidation, http.StatusBadRequest, "VALIDATION_ERROR"},
}

// writeError maps engine errors onto HTTP status and a stable code. Anything
// unmapped is a storage failure: logged, and hidden from the client.
func writeError(c *gin.Context, logger *zap.Logger, err error) {
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			c.JSON(m.status, response.ErrorWithCode(m.status, m.code, err.Error()))
			return
		}
	}

	logger.Error("request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
		zap.Error(err),
	)
	c.JSON(http.StatusInternalServerError, response.ErrorWithCode(http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error"))
}

func bindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, response.ErrorWithCode(http.StatusBadRequest, "VALIDATION_ERROR", err.Error()))
}

// actorOrAbort fetches the authenticated actor set by the role guard
func actorOrAbort(c *gin.Context) (service.Actor, bool) {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Unauthorized"))
	}
	return actor, ok
}
