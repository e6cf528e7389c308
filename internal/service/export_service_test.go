package service

import (
	"os"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/relatia/crm-api/internal/models"
	"github.com/relatia/crm-api/pkg/export"
	"github.com/relatia/crm-api/pkg/storage"
)

func newExportServiceForTest(t *testing.T) (*ExportService, *storage.LocalStorage, *storage.FileRegistry) {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	registry := storage.NewFileRegistry(store, nil)
	svc := NewExportService(store, registry, ExportConfig{ResultTTL: time.Hour}, nil)
	return svc, store, registry
}

func TestExportServiceGenerateCSV(t *testing.T) {
	svc, store, registry := newExportServiceForTest(t)
	data := export.Dataset{
		Fields: []string{"id", "name"},
		Rows:   []export.Record{{"id": "c-1", "name": "Ada"}},
	}

	file, err := svc.Generate(models.ExportEntityCustomer, models.ExportFormatCSV, data)
	require.NoError(t, err)
	require.NotEmpty(t, file.ID)
	require.Regexp(t, regexp.MustCompile(`^customer_\d{8}_\d{6}_[0-9a-f]{8}\.csv$`), file.Name)
	require.Greater(t, file.Size, int64(0))

	info, err := os.Stat(store.Path(file.Path))
	require.NoError(t, err)
	require.Equal(t, file.Size, info.Size())

	resolved, _, ok := registry.Resolve(file.ID)
	require.True(t, ok)
	require.Equal(t, file.Name, resolved.Name)
}

func TestExportServiceGenerateXLSXUsesEntitySheet(t *testing.T) {
	svc, _, _ := newExportServiceForTest(t)
	data := export.Dataset{
		Fields: []string{"id", "sku"},
		Rows:   []export.Record{{"id": "p-1", "sku": "SKU-1"}},
	}

	file, err := svc.Generate(models.ExportEntityProduct, models.ExportFormatXLSX, data)
	require.NoError(t, err)
	require.Contains(t, file.Name, ".xlsx")
	require.Greater(t, file.Size, int64(0))
}

func TestExportServiceUnsupportedFormat(t *testing.T) {
	svc, _, registry := newExportServiceForTest(t)

	_, err := svc.Generate(models.ExportEntityCustomer, models.ExportFormat("yaml"), export.Dataset{})
	require.Error(t, err)

	// Nothing must be registered after a failed render.
	_, _, ok := registry.Resolve("")
	require.False(t, ok)
}
