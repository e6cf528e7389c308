package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/relatia/crm-api/internal/models"
)

// CustomerRepository manages persistence for customer records.
type CustomerRepository struct {
	db *sqlx.DB
}

// NewCustomerRepository constructs a CustomerRepository.
func NewCustomerRepository(db *sqlx.DB) *CustomerRepository {
	return &CustomerRepository{db: db}
}

const customerColumns = `id, name, email, phone, company, type, city, country, notes, created_at, updated_at`

// FindAll returns one page of customers matching the filter plus the total
// match count. Safe to call repeatedly with increasing offsets.
func (r *CustomerRepository) FindAll(ctx context.Context, filter models.CustomerFilter, limit, offset int) ([]models.Customer, int, error) {
	conditions := []string{"1=1"}
	args := []interface{}{}

	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(name) LIKE $%d OR LOWER(email) LIKE $%d OR LOWER(company) LIKE $%d)", len(args)+1, len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}
	if filter.Type != "" {
		conditions = append(conditions, fmt.Sprintf("type = $%d", len(args)+1))
		args = append(args, filter.Type)
	}
	if filter.CreatedFrom != nil {
		conditions = append(conditions, fmt.Sprintf("created_at >= $%d", len(args)+1))
		args = append(args, *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		conditions = append(conditions, fmt.Sprintf("created_at <= $%d", len(args)+1))
		args = append(args, *filter.CreatedTo)
	}

	where := strings.Join(conditions, " AND ")

	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf("SELECT %s FROM customers WHERE %s ORDER BY created_at ASC, id ASC LIMIT %d OFFSET %d", customerColumns, where, limit, offset)
	var customers []models.Customer
	if err := r.db.SelectContext(ctx, &customers, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list customers: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM customers WHERE %s", where)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count customers: %w", err)
	}
	return customers, total, nil
}

// FindByID fetches a customer by ID.
func (r *CustomerRepository) FindByID(ctx context.Context, id string) (*models.Customer, error) {
	query := fmt.Sprintf("SELECT %s FROM customers WHERE id = $1", customerColumns)
	var customer models.Customer
	if err := r.db.GetContext(ctx, &customer, query, id); err != nil {
		return nil, fmt.Errorf("get customer: %w", err)
	}
	return &customer, nil
}
