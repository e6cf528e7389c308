package export

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCSVExporterRendersHeaderAndRows(t *testing.T) {
	exporter := NewCSVExporter()
	data := Dataset{
		Fields:  []string{"id", "name", "price"},
		Headers: []string{"Product ID", "Name", "Price"},
		Rows: []Record{
			{"id": "p-1", "name": "Widget", "price": 9.99},
			{"id": "p-2", "name": "Gadget", "price": 120.0},
		},
	}

	out, err := exporter.Render(data)
	require.NoError(t, err)

	records, err := csv.NewReader(bytes.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	require.Equal(t, []string{"Product ID", "Name", "Price"}, records[0])
	require.Equal(t, []string{"p-1", "Widget", "9.99"}, records[1])
	require.Equal(t, []string{"p-2", "Gadget", "120"}, records[2])
}

func TestCSVExporterQuotesSpecialCharacters(t *testing.T) {
	exporter := NewCSVExporter()
	data := Dataset{
		Fields: []string{"name", "notes"},
		Rows: []Record{
			{"name": `Acme "Global", Inc.`, "notes": "line one\nline two"},
		},
	}

	out, err := exporter.Render(data)
	require.NoError(t, err)

	records, err := csv.NewReader(bytes.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, `Acme "Global", Inc.`, records[1][0])
	require.Equal(t, "line one\nline two", records[1][1])
}

func TestCSVExporterPreservesFieldOrder(t *testing.T) {
	exporter := NewCSVExporter()
	data := Dataset{
		Fields: []string{"b", "a"},
		Rows: []Record{
			{"a": "1", "b": "2"},
		},
	}

	out, err := exporter.Render(data)
	require.NoError(t, err)

	records, err := csv.NewReader(bytes.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.Equal(t, []string{"b", "a"}, records[0])
	require.Equal(t, []string{"2", "1"}, records[1])
}

func TestCSVExporterEmptyDataset(t *testing.T) {
	exporter := NewCSVExporter()

	out, err := exporter.Render(Dataset{})
	require.NoError(t, err)
	require.Empty(t, out)
}

func TestCSVExporterNilAndTimeValues(t *testing.T) {
	exporter := NewCSVExporter()
	occurred := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	data := Dataset{
		Fields: []string{"id", "notes", "occurred_at", "active"},
		Rows: []Record{
			{"id": "i-1", "notes": nil, "occurred_at": occurred, "active": true},
		},
	}

	out, err := exporter.Render(data)
	require.NoError(t, err)

	records, err := csv.NewReader(bytes.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.Equal(t, []string{"i-1", "", "2026-03-14T09:30:00Z", "true"}, records[1])
}
