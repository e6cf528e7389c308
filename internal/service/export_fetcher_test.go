package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/relatia/crm-api/internal/models"
	"github.com/relatia/crm-api/pkg/export"
)

func TestBatchFetcherSinglePage(t *testing.T) {
	fetcher := NewBatchFetcher(1000, nil)
	calls := 0
	fetch := func(ctx context.Context, limit, offset int) ([]export.Record, int, error) {
		calls++
		require.Equal(t, 1000, limit)
		require.Equal(t, 0, offset)
		page := make([]export.Record, 5)
		for i := range page {
			page[i] = export.Record{"id": fmt.Sprintf("c-%d", i)}
		}
		return page, 5, nil
	}

	records, total, err := fetcher.FetchAll(context.Background(), fetch, nil)
	require.NoError(t, err)
	require.Equal(t, 1, calls)
	require.Equal(t, 5, total)
	require.Len(t, records, 5)
}

func TestBatchFetcherPagesUntilTotal(t *testing.T) {
	fetcher := NewBatchFetcher(1000, nil)
	const total = 2500
	calls := 0
	var progress [][2]int
	fetch := func(ctx context.Context, limit, offset int) ([]export.Record, int, error) {
		calls++
		require.Equal(t, (calls-1)*1000, offset)
		size := limit
		if offset+size > total {
			size = total - offset
		}
		page := make([]export.Record, size)
		for i := range page {
			page[i] = export.Record{"id": fmt.Sprintf("c-%d", offset+i)}
		}
		return page, total, nil
	}

	records, reported, err := fetcher.FetchAll(context.Background(), fetch, func(processed, t int) {
		progress = append(progress, [2]int{processed, t})
	})
	require.NoError(t, err)
	require.Equal(t, 3, calls)
	require.Equal(t, total, reported)
	require.Len(t, records, total)
	require.Equal(t, [][2]int{{1000, total}, {2000, total}, {2500, total}}, progress)
}

func TestBatchFetcherStopsOnEmptyPage(t *testing.T) {
	fetcher := NewBatchFetcher(10, nil)
	calls := 0
	fetch := func(ctx context.Context, limit, offset int) ([]export.Record, int, error) {
		calls++
		if calls == 1 {
			return []export.Record{{"id": "c-1"}}, 50, nil
		}
		// Total drifted down after the first page; no more rows.
		return nil, 50, nil
	}

	records, _, err := fetcher.FetchAll(context.Background(), fetch, nil)
	require.NoError(t, err)
	require.Equal(t, 2, calls)
	require.Len(t, records, 1)
}

func TestBatchFetcherPropagatesError(t *testing.T) {
	fetcher := NewBatchFetcher(10, nil)
	fetch := func(ctx context.Context, limit, offset int) ([]export.Record, int, error) {
		return nil, 0, errors.New("db gone")
	}

	_, _, err := fetcher.FetchAll(context.Background(), fetch, nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "db gone")
}

type customerSourceStub struct {
	customers []models.Customer
	byID      map[string]*models.Customer
	findErr   error
	idErr     error
}

func (s *customerSourceStub) FindAll(ctx context.Context, filter models.CustomerFilter, limit, offset int) ([]models.Customer, int, error) {
	if s.findErr != nil {
		return nil, 0, s.findErr
	}
	total := len(s.customers)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return s.customers[offset:end], total, nil
}

func (s *customerSourceStub) FindByID(ctx context.Context, id string) (*models.Customer, error) {
	if s.idErr != nil {
		return nil, s.idErr
	}
	if c, ok := s.byID[id]; ok {
		return c, nil
	}
	return nil, errors.New("not found")
}

type productSourceStub struct {
	products []models.Product
	byID     map[string]*models.Product
}

func (s *productSourceStub) FindAll(ctx context.Context, filter models.ProductFilter, limit, offset int) ([]models.Product, int, error) {
	total := len(s.products)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return s.products[offset:end], total, nil
}

func (s *productSourceStub) FindByID(ctx context.Context, id string) (*models.Product, error) {
	if p, ok := s.byID[id]; ok {
		return p, nil
	}
	return nil, errors.New("not found")
}

type interactionSourceStub struct {
	interactions []models.Interaction
}

func (s *interactionSourceStub) FindAll(ctx context.Context, filter models.InteractionFilter, limit, offset int) ([]models.Interaction, int, error) {
	total := len(s.interactions)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return s.interactions[offset:end], total, nil
}

func TestRecordSourceCustomerPage(t *testing.T) {
	source := NewRecordSource(&customerSourceStub{
		customers: []models.Customer{
			{ID: "c-1", Name: "Ada", Email: "ada@example.com", Type: models.CustomerTypeActive},
		},
	}, &productSourceStub{}, &interactionSourceStub{}, nil)

	fetch, err := source.PageFunc(models.ExportEntityCustomer, models.ExportFilter{})
	require.NoError(t, err)

	records, total, err := fetch(context.Background(), 100, 0)
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Equal(t, "Ada", records[0]["name"])
	require.Equal(t, "ACTIVE", records[0]["type"])
}

func TestRecordSourceUnsupportedEntity(t *testing.T) {
	source := NewRecordSource(&customerSourceStub{}, &productSourceStub{}, &interactionSourceStub{}, nil)

	_, err := source.PageFunc(models.ExportEntity("ORDERS"), models.ExportFilter{})
	require.Error(t, err)
}

func TestEnrichInteractionsResolvesNames(t *testing.T) {
	source := NewRecordSource(&customerSourceStub{
		byID: map[string]*models.Customer{
			"c-1": {ID: "c-1", Name: "Ada"},
		},
	}, &productSourceStub{
		byID: map[string]*models.Product{
			"p-1": {ID: "p-1", Name: "Widget"},
		},
	}, &interactionSourceStub{}, nil)

	records := []export.Record{
		{"id": "i-1", "customer_id": "c-1", "product_id": "p-1"},
		{"id": "i-2", "customer_id": "c-1", "product_id": nil},
	}
	source.EnrichInteractions(context.Background(), records)

	require.Equal(t, "Ada", records[0]["customer_name"])
	require.Equal(t, "Widget", records[0]["product_name"])
	require.Equal(t, "Ada", records[1]["customer_name"])
	require.Nil(t, records[1]["product_name"])
}

func TestEnrichInteractionsDegradesOnLookupFailure(t *testing.T) {
	source := NewRecordSource(&customerSourceStub{
		idErr: errors.New("db down"),
	}, &productSourceStub{}, &interactionSourceStub{}, nil)

	records := []export.Record{
		{"id": "i-1", "customer_id": "c-1"},
	}
	source.EnrichInteractions(context.Background(), records)

	require.Nil(t, records[0]["customer_name"])
	require.Nil(t, records[0]["product_name"])
}
