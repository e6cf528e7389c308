package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/relatia/crm-api/internal/dto"
	"github.com/relatia/crm-api/internal/service"
	appErrors "github.com/relatia/crm-api/pkg/errors"
	"github.com/relatia/crm-api/pkg/response"
)

// ComplianceHandler exposes the subject-data export endpoints.
type ComplianceHandler struct {
	compliance *service.ComplianceService
}

// NewComplianceHandler constructs handler.
func NewComplianceHandler(compliance *service.ComplianceService) *ComplianceHandler {
	return &ComplianceHandler{compliance: compliance}
}

// Create godoc
// @Summary Export all data held about a single customer
// @Tags Compliance
// @Accept json
// @Produce json
// @Param payload body dto.SubjectExportRequest true "Subject export request"
// @Success 200 {object} response.Envelope
// @Router /compliance/exports [post]
func (h *ComplianceHandler) Create(c *gin.Context) {
	var req dto.SubjectExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid subject export payload"))
		return
	}

	result, err := h.compliance.ExportSubjectData(c.Request.Context(), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Download godoc
// @Summary Download a subject-data export via signed token
// @Tags Compliance
// @Produce octet-stream
// @Param token path string true "Signed token"
// @Success 200 {file} file
// @Router /compliance/download/{token} [get]
func (h *ComplianceHandler) Download(c *gin.Context) {
	download, err := h.compliance.OpenSignedFile(c.Request.Context(), c.Param("token"))
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
