package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// jsonFormatVersion tags the envelope layout for downstream parsers.
const jsonFormatVersion = "1.0"

// JSONExporter renders Dataset records into a structured-text envelope:
// {"metadata":{...},"data":[...]}.
type JSONExporter struct{}

// NewJSONExporter builds a JSON exporter.
func NewJSONExporter() *JSONExporter {
	return &JSONExporter{}
}

// JSONMetadata describes the export inside the envelope.
type JSONMetadata struct {
	Format       string `json:"format"`
	TotalRecords int    `json:"totalRecords"`
	GeneratedAt  string `json:"generatedAt"`
	Version      string `json:"version"`
}

// JSONEnvelope wraps the data array with export metadata.
type JSONEnvelope struct {
	Metadata JSONMetadata `json:"metadata"`
	Data     []Record     `json:"data"`
}

// Render produces the envelope bytes for the dataset.
func (e *JSONExporter) Render(data Dataset) ([]byte, error) {
	buf := &bytes.Buffer{}
	if err := e.RenderTo(buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// RenderTo streams the envelope into the writer. Zero records still produce a
// valid envelope with an empty data array and count 0.
func (e *JSONExporter) RenderTo(w io.Writer, data Dataset) error {
	rows := data.Rows
	if rows == nil {
		rows = make([]Record, 0)
	}
	envelope := JSONEnvelope{
		Metadata: JSONMetadata{
			Format:       "json",
			TotalRecords: len(rows),
			GeneratedAt:  time.Now().UTC().Format(time.RFC3339),
			Version:      jsonFormatVersion,
		},
		Data: rows,
	}
	encoder := json.NewEncoder(w)
	if err := encoder.Encode(envelope); err != nil {
		return fmt.Errorf("encode json envelope: %w", err)
	}
	return nil
}
