package service

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/relatia/crm-api/internal/models"
)

func TestFieldRegistryCatalog(t *testing.T) {
	registry := NewFieldRegistry()

	for _, entity := range []models.ExportEntity{
		models.ExportEntityCustomer,
		models.ExportEntityProduct,
		models.ExportEntityInteraction,
	} {
		fields := registry.Fields(entity)
		require.NotEmpty(t, fields, "entity %s", entity)
		require.Equal(t, "id", fields[0].Name)
	}

	require.True(t, registry.Has(models.ExportEntityInteraction, "customer_name"))
	require.False(t, registry.Has(models.ExportEntityCustomer, "sku"))
}

func TestFieldRegistryDisplayNameFallback(t *testing.T) {
	registry := NewFieldRegistry()

	require.Equal(t, "Customer Type", registry.DisplayName(models.ExportEntityCustomer, "type"))
	require.Equal(t, "mystery", registry.DisplayName(models.ExportEntityCustomer, "mystery"))
}
