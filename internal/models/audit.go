package models

import "time"

// AuditAction constants represent actions to be logged.
const (
	AuditActionLogin             = "LOGIN"
	AuditActionExportStarted     = "EXPORT_STARTED"
	AuditActionExportCompleted   = "EXPORT_COMPLETED"
	AuditActionExportFailed      = "EXPORT_FAILED"
	AuditActionExportDownloaded  = "EXPORT_DOWNLOADED"
	AuditActionSubjectDataExport = "SUBJECT_DATA_EXPORT"
)

// AuditLog represents an audit trail record.
type AuditLog struct {
	ID        string    `db:"id" json:"id"`
	UserID    *string   `db:"user_id" json:"user_id,omitempty"`
	Action    string    `db:"action" json:"action"`
	Entity    string    `db:"entity" json:"entity"`
	EntityID  *string   `db:"entity_id" json:"entity_id,omitempty"`
	Metadata  []byte    `db:"metadata" json:"metadata,omitempty"`
	IPAddress string    `db:"ip_address" json:"ip_address"`
	UserAgent string    `db:"user_agent" json:"user_agent"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
