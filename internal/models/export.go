package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// ExportEntity enumerates the exportable record kinds.
type ExportEntity string

const (
	ExportEntityCustomer    ExportEntity = "CUSTOMER"
	ExportEntityProduct     ExportEntity = "PRODUCT"
	ExportEntityInteraction ExportEntity = "INTERACTION"
)

// ValidExportEntity reports whether the entity belongs to the closed set.
func ValidExportEntity(e ExportEntity) bool {
	switch e {
	case ExportEntityCustomer, ExportEntityProduct, ExportEntityInteraction:
		return true
	default:
		return false
	}
}

// EntityLabel returns the human-readable label used for workbook sheet names
// and report titles.
func EntityLabel(e ExportEntity) string {
	switch e {
	case ExportEntityCustomer:
		return "Customers"
	case ExportEntityProduct:
		return "Products"
	case ExportEntityInteraction:
		return "Interactions"
	default:
		return "Export"
	}
}

// ExportFormat enumerates supported output formats.
type ExportFormat string

const (
	ExportFormatJSON ExportFormat = "json"
	ExportFormatCSV  ExportFormat = "csv"
	ExportFormatXLSX ExportFormat = "xlsx"
)

// ValidExportFormat reports whether the format belongs to the closed set.
func ValidExportFormat(f ExportFormat) bool {
	switch f {
	case ExportFormatJSON, ExportFormatCSV, ExportFormatXLSX:
		return true
	default:
		return false
	}
}

// ExportStatus captures background job lifecycle states.
type ExportStatus string

const (
	ExportStatusPending        ExportStatus = "PENDING"
	ExportStatusProcessing     ExportStatus = "PROCESSING"
	ExportStatusGeneratingFile ExportStatus = "GENERATING_FILE"
	ExportStatusCompleted      ExportStatus = "COMPLETED"
	ExportStatusFailed         ExportStatus = "FAILED"
)

// Terminal reports whether a job may no longer transition.
func (s ExportStatus) Terminal() bool {
	return s == ExportStatusCompleted || s == ExportStatusFailed
}

// ExportFilter is the entity-agnostic filter snapshot persisted with a job.
// Pagination hints from the original list request are intentionally absent:
// an export always fetches everything matching.
type ExportFilter struct {
	Search     string     `json:"search,omitempty"`
	Type       string     `json:"type,omitempty"`
	Category   string     `json:"category,omitempty"`
	CustomerID string     `json:"customerId,omitempty"`
	DateFrom   *time.Time `json:"dateFrom,omitempty"`
	DateTo     *time.Time `json:"dateTo,omitempty"`
}

// ExportJobParams stores request-scoped options persisted as JSONB.
type ExportJobParams struct {
	Filter ExportFilter `json:"filter"`
	Fields []string     `json:"fields,omitempty"`
}

// Value marshals params to JSON for persistence.
func (p ExportJobParams) Value() (driver.Value, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal export job params: %w", err)
	}
	return data, nil
}

// Scan unmarshals JSON payloads into the params struct.
func (p *ExportJobParams) Scan(value interface{}) error {
	if value == nil {
		*p = ExportJobParams{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for ExportJobParams", value)
	}
	if len(data) == 0 {
		*p = ExportJobParams{}
		return nil
	}
	if err := json.Unmarshal(data, p); err != nil {
		return fmt.Errorf("unmarshal export job params: %w", err)
	}
	return nil
}

// ExportJob is the durable unit of export work. Immutable once terminal,
// except for expiry-driven cleanup of the referenced file.
type ExportJob struct {
	ID           string          `db:"id" json:"id"`
	Entity       ExportEntity    `db:"entity" json:"entity"`
	Format       ExportFormat    `db:"format" json:"format"`
	Params       ExportJobParams `db:"params" json:"params"`
	Status       ExportStatus    `db:"status" json:"status"`
	Processed    int             `db:"processed" json:"processed"`
	Total        int             `db:"total" json:"total"`
	FileID       *string         `db:"file_id" json:"file_id,omitempty"`
	FileName     *string         `db:"file_name" json:"file_name,omitempty"`
	FileSize     *int64          `db:"file_size" json:"file_size,omitempty"`
	ErrorMessage *string         `db:"error_message" json:"error_message,omitempty"`
	CreatedBy    string          `db:"created_by" json:"created_by"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
	FinishedAt   *time.Time      `db:"finished_at" json:"finished_at,omitempty"`
}

// FieldDefinition describes one exportable field of an entity type.
type FieldDefinition struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Category    string `json:"category"`
	Required    bool   `json:"required"`
	Type        string `json:"type"`
}

// ExportHistory is the durable record of a finished export, the only state
// guaranteed to survive a process restart.
type ExportHistory struct {
	ID           string       `db:"id" json:"id"`
	Entity       ExportEntity `db:"entity" json:"entity"`
	Format       ExportFormat `db:"format" json:"format"`
	Status       ExportStatus `db:"status" json:"status"`
	TotalRecords int          `db:"total_records" json:"total_records"`
	FileName     string       `db:"file_name" json:"file_name"`
	FilePath     string       `db:"file_path" json:"file_path"`
	FileSize     int64        `db:"file_size" json:"file_size"`
	CreatedBy    string       `db:"created_by" json:"created_by"`
	CreatedAt    time.Time    `db:"created_at" json:"created_at"`
	ExpiresAt    *time.Time   `db:"expires_at" json:"expires_at,omitempty"`
}

// ExportHistoryFilter captures query criteria for the history endpoint.
type ExportHistoryFilter struct {
	Entity    string
	Format    string
	Status    string
	CreatedBy string
	Page      int
	PageSize  int
}
