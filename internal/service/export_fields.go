package service

import "github.com/relatia/crm-api/internal/models"

// FieldRegistry is the static per-entity catalog of exportable fields. Pure
// lookup: no mutation, no I/O. Catalog order drives default column order.
type FieldRegistry struct {
	catalog map[models.ExportEntity][]models.FieldDefinition
}

// NewFieldRegistry builds the catalog for all exportable entities.
func NewFieldRegistry() *FieldRegistry {
	return &FieldRegistry{
		catalog: map[models.ExportEntity][]models.FieldDefinition{
			models.ExportEntityCustomer: {
				{Name: "id", DisplayName: "Customer ID", Category: "core", Required: true, Type: "string"},
				{Name: "name", DisplayName: "Name", Category: "core", Required: true, Type: "string"},
				{Name: "email", DisplayName: "Email", Category: "contact", Type: "string"},
				{Name: "phone", DisplayName: "Phone", Category: "contact", Type: "string"},
				{Name: "company", DisplayName: "Company", Category: "core", Type: "string"},
				{Name: "type", DisplayName: "Customer Type", Category: "core", Type: "string"},
				{Name: "city", DisplayName: "City", Category: "address", Type: "string"},
				{Name: "country", DisplayName: "Country", Category: "address", Type: "string"},
				{Name: "notes", DisplayName: "Notes", Category: "extra", Type: "string"},
				{Name: "created_at", DisplayName: "Created At", Category: "audit", Type: "datetime"},
				{Name: "updated_at", DisplayName: "Updated At", Category: "audit", Type: "datetime"},
			},
			models.ExportEntityProduct: {
				{Name: "id", DisplayName: "Product ID", Category: "core", Required: true, Type: "string"},
				{Name: "sku", DisplayName: "SKU", Category: "core", Required: true, Type: "string"},
				{Name: "name", DisplayName: "Name", Category: "core", Required: true, Type: "string"},
				{Name: "category", DisplayName: "Category", Category: "core", Type: "string"},
				{Name: "price", DisplayName: "Price", Category: "pricing", Type: "number"},
				{Name: "currency", DisplayName: "Currency", Category: "pricing", Type: "string"},
				{Name: "active", DisplayName: "Active", Category: "core", Type: "boolean"},
				{Name: "description", DisplayName: "Description", Category: "extra", Type: "string"},
				{Name: "created_at", DisplayName: "Created At", Category: "audit", Type: "datetime"},
				{Name: "updated_at", DisplayName: "Updated At", Category: "audit", Type: "datetime"},
			},
			models.ExportEntityInteraction: {
				{Name: "id", DisplayName: "Interaction ID", Category: "core", Required: true, Type: "string"},
				{Name: "customer_id", DisplayName: "Customer ID", Category: "core", Required: true, Type: "string"},
				{Name: "customer_name", DisplayName: "Customer Name", Category: "derived", Type: "string"},
				{Name: "product_id", DisplayName: "Product ID", Category: "core", Type: "string"},
				{Name: "product_name", DisplayName: "Product Name", Category: "derived", Type: "string"},
				{Name: "type", DisplayName: "Interaction Type", Category: "core", Type: "string"},
				{Name: "subject", DisplayName: "Subject", Category: "core", Type: "string"},
				{Name: "notes", DisplayName: "Notes", Category: "extra", Type: "string"},
				{Name: "occurred_at", DisplayName: "Occurred At", Category: "core", Type: "datetime"},
				{Name: "created_by", DisplayName: "Recorded By", Category: "audit", Type: "string"},
				{Name: "created_at", DisplayName: "Created At", Category: "audit", Type: "datetime"},
			},
		},
	}
}

// Fields returns the ordered field catalog for the entity type.
func (r *FieldRegistry) Fields(entity models.ExportEntity) []models.FieldDefinition {
	return r.catalog[entity]
}

// FieldNames returns the catalog field names in order.
func (r *FieldRegistry) FieldNames(entity models.ExportEntity) []string {
	defs := r.catalog[entity]
	names := make([]string, len(defs))
	for i, def := range defs {
		names[i] = def.Name
	}
	return names
}

// Has reports whether the field exists for the entity type.
func (r *FieldRegistry) Has(entity models.ExportEntity, field string) bool {
	for _, def := range r.catalog[entity] {
		if def.Name == field {
			return true
		}
	}
	return false
}

// DisplayName resolves the human-readable header for a field, falling back to
// the technical name.
func (r *FieldRegistry) DisplayName(entity models.ExportEntity, field string) string {
	for _, def := range r.catalog[entity] {
		if def.Name == field {
			return def.DisplayName
		}
	}
	return field
}
