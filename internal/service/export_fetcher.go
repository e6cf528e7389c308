package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/relatia/crm-api/internal/models"
	"github.com/relatia/crm-api/pkg/export"
)

// PageFunc returns one page of export records plus the total match count.
// Implementations must be safe to call repeatedly with increasing offsets.
type PageFunc func(ctx context.Context, limit, offset int) ([]export.Record, int, error)

// BatchFetcher pulls records page by page in increasing offset order until the
// cumulative count reaches the reported total or a page comes back empty. The
// empty-page guard defends against a total that drifts between calls due to
// concurrent writes.
type BatchFetcher struct {
	batchSize int
	logger    *zap.Logger
}

// NewBatchFetcher constructs a fetcher with the given page size.
func NewBatchFetcher(batchSize int, logger *zap.Logger) *BatchFetcher {
	if batchSize <= 0 {
		batchSize = 1000
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BatchFetcher{batchSize: batchSize, logger: logger}
}

// FetchAll accumulates every matching record in memory. onProgress, when
// provided, is invoked after each page with the cumulative processed count and
// the total reported by the source (0 until the first page returns).
func (f *BatchFetcher) FetchAll(ctx context.Context, fetch PageFunc, onProgress func(processed, total int)) ([]export.Record, int, error) {
	records := make([]export.Record, 0)
	total := 0
	for {
		page, pageTotal, err := fetch(ctx, f.batchSize, len(records))
		if err != nil {
			return nil, 0, fmt.Errorf("fetch page at offset %d: %w", len(records), err)
		}
		total = pageTotal
		records = append(records, page...)
		if onProgress != nil {
			onProgress(len(records), total)
		}
		if len(page) == 0 || len(records) >= total {
			break
		}
	}
	return records, total, nil
}

type customerSource interface {
	FindAll(ctx context.Context, filter models.CustomerFilter, limit, offset int) ([]models.Customer, int, error)
	FindByID(ctx context.Context, id string) (*models.Customer, error)
}

type productSource interface {
	FindAll(ctx context.Context, filter models.ProductFilter, limit, offset int) ([]models.Product, int, error)
	FindByID(ctx context.Context, id string) (*models.Product, error)
}

type interactionSource interface {
	FindAll(ctx context.Context, filter models.InteractionFilter, limit, offset int) ([]models.Interaction, int, error)
}

// RecordSource resolves entity-specific page fetchers over the record
// repositories and performs interaction enrichment.
type RecordSource struct {
	customers    customerSource
	products     productSource
	interactions interactionSource
	logger       *zap.Logger
}

// NewRecordSource constructs a record source over the repositories.
func NewRecordSource(customers customerSource, products productSource, interactions interactionSource, logger *zap.Logger) *RecordSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RecordSource{
		customers:    customers,
		products:     products,
		interactions: interactions,
		logger:       logger,
	}
}

// PageFunc returns the paged fetcher for the entity type with the filter
// snapshot applied.
func (s *RecordSource) PageFunc(entity models.ExportEntity, filter models.ExportFilter) (PageFunc, error) {
	switch entity {
	case models.ExportEntityCustomer:
		entityFilter := models.CustomerFilter{
			Search:      filter.Search,
			Type:        filter.Type,
			CreatedFrom: filter.DateFrom,
			CreatedTo:   filter.DateTo,
		}
		return func(ctx context.Context, limit, offset int) ([]export.Record, int, error) {
			customers, total, err := s.customers.FindAll(ctx, entityFilter, limit, offset)
			if err != nil {
				return nil, 0, err
			}
			records := make([]export.Record, len(customers))
			for i, c := range customers {
				records[i] = customerRecord(c)
			}
			return records, total, nil
		}, nil
	case models.ExportEntityProduct:
		entityFilter := models.ProductFilter{
			Search:   filter.Search,
			Category: filter.Category,
		}
		return func(ctx context.Context, limit, offset int) ([]export.Record, int, error) {
			products, total, err := s.products.FindAll(ctx, entityFilter, limit, offset)
			if err != nil {
				return nil, 0, err
			}
			records := make([]export.Record, len(products))
			for i, p := range products {
				records[i] = productRecord(p)
			}
			return records, total, nil
		}, nil
	case models.ExportEntityInteraction:
		entityFilter := models.InteractionFilter{
			Search:     filter.Search,
			Type:       filter.Type,
			CustomerID: filter.CustomerID,
			DateFrom:   filter.DateFrom,
			DateTo:     filter.DateTo,
		}
		return func(ctx context.Context, limit, offset int) ([]export.Record, int, error) {
			interactions, total, err := s.interactions.FindAll(ctx, entityFilter, limit, offset)
			if err != nil {
				return nil, 0, err
			}
			records := make([]export.Record, len(interactions))
			for i, it := range interactions {
				records[i] = interactionRecord(it)
			}
			return records, total, nil
		}, nil
	default:
		return nil, fmt.Errorf("unsupported export entity %s", entity)
	}
}

// EnrichInteractions joins customer and product display names onto interaction
// records, one point lookup per unique id. A failed lookup degrades to a null
// name and never aborts the export.
func (s *RecordSource) EnrichInteractions(ctx context.Context, records []export.Record) {
	customerNames := make(map[string]interface{})
	productNames := make(map[string]interface{})

	for _, record := range records {
		if id, ok := record["customer_id"].(string); ok && id != "" {
			name, seen := customerNames[id]
			if !seen {
				customer, err := s.customers.FindByID(ctx, id)
				if err != nil {
					s.logger.Sugar().Debugw("customer lookup failed during enrichment", "customer_id", id, "error", err)
					name = nil
				} else {
					name = customer.Name
				}
				customerNames[id] = name
			}
			record["customer_name"] = name
		} else {
			record["customer_name"] = nil
		}

		if id, ok := record["product_id"].(string); ok && id != "" {
			name, seen := productNames[id]
			if !seen {
				product, err := s.products.FindByID(ctx, id)
				if err != nil {
					s.logger.Sugar().Debugw("product lookup failed during enrichment", "product_id", id, "error", err)
					name = nil
				} else {
					name = product.Name
				}
				productNames[id] = name
			}
			record["product_name"] = name
		} else {
			record["product_name"] = nil
		}
	}
}

func customerRecord(c models.Customer) export.Record {
	return export.Record{
		"id":         c.ID,
		"name":       c.Name,
		"email":      c.Email,
		"phone":      c.Phone,
		"company":    c.Company,
		"type":       string(c.Type),
		"city":       c.City,
		"country":    c.Country,
		"notes":      derefString(c.Notes),
		"created_at": c.CreatedAt,
		"updated_at": c.UpdatedAt,
	}
}

func productRecord(p models.Product) export.Record {
	return export.Record{
		"id":          p.ID,
		"sku":         p.SKU,
		"name":        p.Name,
		"category":    p.Category,
		"price":       p.Price,
		"currency":    p.Currency,
		"active":      p.Active,
		"description": derefString(p.Description),
		"created_at":  p.CreatedAt,
		"updated_at":  p.UpdatedAt,
	}
}

func interactionRecord(it models.Interaction) export.Record {
	return export.Record{
		"id":          it.ID,
		"customer_id": it.CustomerID,
		"product_id":  derefString(it.ProductID),
		"type":        string(it.Type),
		"subject":     it.Subject,
		"notes":       derefString(it.Notes),
		"occurred_at": it.OccurredAt,
		"created_by":  it.CreatedBy,
		"created_at":  it.CreatedAt,
	}
}

func derefString(ptr *string) interface{} {
	if ptr == nil {
		return nil
	}
	return *ptr
}
