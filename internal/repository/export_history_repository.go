package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/relatia/crm-api/internal/models"
)

// ExportHistoryRepository persists the durable record of past exports.
type ExportHistoryRepository struct {
	db *sqlx.DB
}

// NewExportHistoryRepository constructs the repository.
func NewExportHistoryRepository(db *sqlx.DB) *ExportHistoryRepository {
	return &ExportHistoryRepository{db: db}
}

const exportHistoryColumns = `id, entity, format, status, total_records, file_name, file_path, file_size, created_by, created_at, expires_at`

// Create inserts a history row.
func (r *ExportHistoryRepository) Create(ctx context.Context, entry *models.ExportHistory) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO export_history (id, entity, format, status, total_records, file_name, file_path, file_size, created_by, created_at, expires_at)
VALUES (:id, :entity, :format, :status, :total_records, :file_name, :file_path, :file_size, :created_by, :created_at, :expires_at)`
	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("create export history: %w", err)
	}
	return nil
}

// List returns one history page matching the filter plus the total count.
func (r *ExportHistoryRepository) List(ctx context.Context, filter models.ExportHistoryFilter) ([]models.ExportHistory, int, error) {
	conditions := []string{"1=1"}
	args := []interface{}{}

	if filter.Entity != "" {
		conditions = append(conditions, fmt.Sprintf("entity = $%d", len(args)+1))
		args = append(args, filter.Entity)
	}
	if filter.Format != "" {
		conditions = append(conditions, fmt.Sprintf("format = $%d", len(args)+1))
		args = append(args, filter.Format)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.CreatedBy != "" {
		conditions = append(conditions, fmt.Sprintf("created_by = $%d", len(args)+1))
		args = append(args, filter.CreatedBy)
	}

	where := strings.Join(conditions, " AND ")

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s FROM export_history WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d", exportHistoryColumns, where, size, offset)
	var entries []models.ExportHistory
	if err := r.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list export history: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM export_history WHERE %s", where)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count export history: %w", err)
	}
	return entries, total, nil
}
