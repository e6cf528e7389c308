package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/relatia/crm-api/internal/models"
)

// InteractionRepository manages persistence for interaction records.
type InteractionRepository struct {
	db *sqlx.DB
}

// NewInteractionRepository constructs an InteractionRepository.
func NewInteractionRepository(db *sqlx.DB) *InteractionRepository {
	return &InteractionRepository{db: db}
}

const interactionColumns = `id, customer_id, product_id, type, subject, notes, occurred_at, created_by, created_at`

// FindAll returns one page of interactions matching the filter plus the total
// match count.
func (r *InteractionRepository) FindAll(ctx context.Context, filter models.InteractionFilter, limit, offset int) ([]models.Interaction, int, error) {
	conditions := []string{"1=1"}
	args := []interface{}{}

	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(subject) LIKE $%d", len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}
	if filter.Type != "" {
		conditions = append(conditions, fmt.Sprintf("type = $%d", len(args)+1))
		args = append(args, filter.Type)
	}
	if filter.CustomerID != "" {
		conditions = append(conditions, fmt.Sprintf("customer_id = $%d", len(args)+1))
		args = append(args, filter.CustomerID)
	}
	if filter.DateFrom != nil {
		conditions = append(conditions, fmt.Sprintf("occurred_at >= $%d", len(args)+1))
		args = append(args, *filter.DateFrom)
	}
	if filter.DateTo != nil {
		conditions = append(conditions, fmt.Sprintf("occurred_at <= $%d", len(args)+1))
		args = append(args, *filter.DateTo)
	}

	where := strings.Join(conditions, " AND ")

	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf("SELECT %s FROM interactions WHERE %s ORDER BY occurred_at ASC, id ASC LIMIT %d OFFSET %d", interactionColumns, where, limit, offset)
	var interactions []models.Interaction
	if err := r.db.SelectContext(ctx, &interactions, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list interactions: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM interactions WHERE %s", where)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count interactions: %w", err)
	}
	return interactions, total, nil
}

// FindByCustomer returns every interaction recorded for one customer,
// used by the subject-data export.
func (r *InteractionRepository) FindByCustomer(ctx context.Context, customerID string) ([]models.Interaction, error) {
	query := fmt.Sprintf("SELECT %s FROM interactions WHERE customer_id = $1 ORDER BY occurred_at ASC", interactionColumns)
	var interactions []models.Interaction
	if err := r.db.SelectContext(ctx, &interactions, query, customerID); err != nil {
		return nil, fmt.Errorf("list customer interactions: %w", err)
	}
	return interactions, nil
}
