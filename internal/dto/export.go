package dto

import (
	"time"

	"github.com/relatia/crm-api/internal/models"
)

// ExportRequest captures POST /exports payload.
type ExportRequest struct {
	Entity models.ExportEntity `json:"entity" validate:"required"`
	Format models.ExportFormat `json:"format" validate:"required"`
	Filter models.ExportFilter `json:"filter"`
	Fields []string            `json:"fields,omitempty"`
}

// ExportJobResponse is returned after enqueueing an export.
type ExportJobResponse struct {
	ID     string              `json:"id"`
	Status models.ExportStatus `json:"status"`
}

// ExportStatusResponse exposes job progress metadata.
type ExportStatusResponse struct {
	ID        string              `json:"id"`
	Entity    models.ExportEntity `json:"entity"`
	Format    models.ExportFormat `json:"format"`
	Status    models.ExportStatus `json:"status"`
	Processed int                 `json:"processed"`
	Total     int                 `json:"total"`
	FileID    *string             `json:"file_id,omitempty"`
	FileName  *string             `json:"file_name,omitempty"`
	FileSize  *int64              `json:"file_size,omitempty"`
	Error     *string             `json:"error,omitempty"`
}

// SubjectExportRequest captures POST /compliance/exports payload.
type SubjectExportRequest struct {
	CustomerID string `json:"customer_id" validate:"required"`
	Format     string `json:"format" validate:"required,oneof=json pdf"`
}

// SubjectExportResponse returns the signed download location for a
// subject-data export.
type SubjectExportResponse struct {
	CustomerID  string    `json:"customer_id"`
	Format      string    `json:"format"`
	DownloadURL string    `json:"download_url"`
	ExpiresAt   time.Time `json:"expires_at"`
}
