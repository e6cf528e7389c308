package export

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestJSONExporterEnvelope(t *testing.T) {
	exporter := NewJSONExporter()
	data := Dataset{
		Fields: []string{"id", "name"},
		Rows: []Record{
			{"id": "c-1", "name": "Ada"},
			{"id": "c-2", "name": "Grace"},
		},
	}

	out, err := exporter.Render(data)
	require.NoError(t, err)

	var envelope JSONEnvelope
	require.NoError(t, json.Unmarshal(out, &envelope))
	require.Equal(t, "json", envelope.Metadata.Format)
	require.Equal(t, 2, envelope.Metadata.TotalRecords)
	require.Equal(t, jsonFormatVersion, envelope.Metadata.Version)
	require.NotEmpty(t, envelope.Metadata.GeneratedAt)
	require.Len(t, envelope.Data, 2)
	require.Equal(t, "Ada", envelope.Data[0]["name"])
}

func TestJSONExporterEmptyDataset(t *testing.T) {
	exporter := NewJSONExporter()

	out, err := exporter.Render(Dataset{})
	require.NoError(t, err)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(out, &raw))
	require.JSONEq(t, `[]`, string(raw["data"]))

	var envelope JSONEnvelope
	require.NoError(t, json.Unmarshal(out, &envelope))
	require.Zero(t, envelope.Metadata.TotalRecords)
}
