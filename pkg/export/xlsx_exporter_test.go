package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestXLSXExporterRendersSheet(t *testing.T) {
	exporter := NewXLSXExporter()
	data := Dataset{
		Fields:  []string{"id", "name"},
		Headers: []string{"Customer ID", "Name"},
		Rows: []Record{
			{"id": "c-1", "name": "Ada"},
			{"id": "c-2", "name": "Grace"},
		},
	}

	out, err := exporter.Render(data, "Customers")
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer f.Close() //nolint:errcheck

	require.Equal(t, []string{"Customers"}, f.GetSheetList())

	rows, err := f.GetRows("Customers")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	require.Equal(t, []string{"Customer ID", "Name"}, rows[0])
	require.Equal(t, []string{"c-1", "Ada"}, rows[1])
	require.Equal(t, []string{"c-2", "Grace"}, rows[2])
}

func TestXLSXExporterEmptyDatasetStillValid(t *testing.T) {
	exporter := NewXLSXExporter()

	out, err := exporter.Render(Dataset{Fields: []string{"id"}}, "")
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer f.Close() //nolint:errcheck

	rows, err := f.GetRows("Export")
	require.NoError(t, err)
	require.Len(t, rows, 1)
}
