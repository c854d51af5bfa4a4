package handler

import (
	"io"
	"net/http"

	"leadflow/internal/model"
	"leadflow/internal/service"
	"leadflow/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const maxEvidenceBytes = 10 << 20

type EvidenceHandler struct {
	uploads service.UploadService
	logger  *zap.Logger
}

func NewEvidenceHandler(uploads service.UploadService, logger *zap.Logger) *EvidenceHandler {
	return &EvidenceHandler{uploads: uploads, logger: logger}
}

func (h *EvidenceHandler) RegisterRoutes(router *gin.RouterGroup, guard RoleGuard) {
	evidence := router.Group("/api/evidence")
	{
		evidence.POST("", guard(model.RoleResearcher, model.RoleInquirer), h.Upload)
		evidence.GET("", guard(model.RoleResearcher, model.RoleInquirer, model.RoleResearchAuditor, model.RoleInquiryAuditor, model.RoleAdmin), h.Download)
	}
}

// Upload godoc
// @Summary      Upload screenshot evidence
// @Description  Hashes the image (BLAKE2b-256) and stores it under a content-addressed key. Dedup happens at submission.
// @Tags         evidence
// @Security     BearerAuth
// @Accept       multipart/form-data
// @Produce      json
// @Param        file         formData  file    true  "Screenshot image"
// @Param        category_id  formData  string  true  "Category ID"
// @Success      201          {object}  response.Response{data=service.UploadEvidenceResponse}
// @Failure      400          {object}  response.Response
// @Router       /api/evidence [post]
func (h *EvidenceHandler) Upload(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		bindError(c, err)
		return
	}
	if header.Size > maxEvidenceBytes {
		c.JSON(http.StatusRequestEntityTooLarge, response.ErrorWithCode(http.StatusRequestEntityTooLarge, "VALIDATION_ERROR", "evidence file exceeds 10MB"))
		return
	}

	file, err := header.Open()
	if err != nil {
		bindError(c, err)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxEvidenceBytes))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	result, err := h.uploads.Upload(c.Request.Context(), actor, c.PostForm("category_id"), header.Filename, data)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, result))
}

// Download godoc
// @Summary      Fetch screenshot evidence
// @Tags         evidence
// @Security     BearerAuth
// @Produce      octet-stream
// @Param        key  query     string  true  "Evidence key returned by upload"
// @Success      200  {file}    binary
// @Failure      403  {object}  response.Response
// @Router       /api/evidence [get]
func (h *EvidenceHandler) Download(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	body, contentType, err := h.uploads.Open(c.Request.Context(), actor, c.Query("key"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	defer body.Close()

	c.DataFromReader(http.StatusOK, -1, contentType, body, nil)
}
