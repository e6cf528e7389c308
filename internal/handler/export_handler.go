package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/relatia/crm-api/internal/dto"
	"github.com/relatia/crm-api/internal/models"
	"github.com/relatia/crm-api/internal/service"
	appErrors "github.com/relatia/crm-api/pkg/errors"
	"github.com/relatia/crm-api/pkg/response"
)

// ExportHandler exposes the export pipeline endpoints.
type ExportHandler struct {
	exports *service.ExportJobService
}

// NewExportHandler constructs handler.
func NewExportHandler(exports *service.ExportJobService) *ExportHandler {
	return &ExportHandler{exports: exports}
}

// Create godoc
// @Summary Start an asynchronous export job
// @Tags Exports
// @Accept json
// @Produce json
// @Param payload body dto.ExportRequest true "Export request"
// @Success 202 {object} response.Envelope
// @Router /exports [post]
func (h *ExportHandler) Create(c *gin.Context) {
	var req dto.ExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid export payload"))
		return
	}

	result, err := h.exports.StartExport(c.Request.Context(), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, result, nil)
}

// Status godoc
// @Summary Export job status and progress
// @Tags Exports
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} response.Envelope
// @Router /exports/{id} [get]
func (h *ExportHandler) Status(c *gin.Context) {
	result, err := h.exports.GetStatus(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// History godoc
// @Summary Past export runs
// @Tags Exports
// @Produce json
// @Param entity query string false "Entity type"
// @Param format query string false "Format"
// @Param status query string false "Status"
// @Param page query int false "Page"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /exports/history [get]
func (h *ExportHandler) History(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	filter := models.ExportHistoryFilter{
		Entity: strings.ToUpper(c.Query("entity")),
		Format: strings.ToLower(c.Query("format")),
		Status: strings.ToUpper(c.Query("status")),
	}
	if page, err := strconv.Atoi(c.Query("page")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.Query("pageSize")); err == nil {
		filter.PageSize = size
	}
	// Non-admins only see their own runs.
	if claims.Role != models.RoleAdmin {
		filter.CreatedBy = claims.UserID
	}

	entries, pagination, err := h.exports.History(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, pagination)
}

// Fields godoc
// @Summary Exportable field catalog for an entity type
// @Tags Exports
// @Produce json
// @Param entityType path string true "Entity type"
// @Success 200 {object} response.Envelope
// @Router /exports/fields/{entityType} [get]
func (h *ExportHandler) Fields(c *gin.Context) {
	entity := models.ExportEntity(strings.ToUpper(c.Param("entityType")))
	fields, err := h.exports.AvailableFields(c.Request.Context(), entity)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, fields, nil)
}

// Download godoc
// @Summary Download a generated export file
// @Tags Exports
// @Produce octet-stream
// @Param fileId path string true "File ID"
// @Success 200 {file} file
// @Router /downloads/{fileId} [get]
func (h *ExportHandler) Download(c *gin.Context) {
	download, err := h.exports.ResolveDownload(c.Request.Context(), c.Param("fileId"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer download.File.Close() //nolint:errcheck

	headers := map[string]string{
		"Content-Disposition": fmt.Sprintf("attachment; filename=%q", download.Name),
	}
	c.DataFromReader(http.StatusOK, download.Size, contentTypeFor(download.Name), download.File, headers)
}

func contentTypeFor(name string) string {
	switch {
	case strings.HasSuffix(name, ".json"):
		return "application/json"
	case strings.HasSuffix(name, ".csv"):
		return "text/csv"
	case strings.HasSuffix(name, ".xlsx"):
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case strings.HasSuffix(name, ".pdf"):
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}
