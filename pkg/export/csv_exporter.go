package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
)

// CSVExporter renders Dataset records into CSV. Quoting (delimiters, quotes,
// newlines) follows encoding/csv: values are wrapped in quotes with internal
// quotes doubled.
type CSVExporter struct{}

// NewCSVExporter builds a CSV exporter.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// Render produces CSV encoded bytes for the dataset.
func (e *CSVExporter) Render(data Dataset) ([]byte, error) {
	buf := &bytes.Buffer{}
	if err := e.RenderTo(buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// RenderTo streams CSV rows into the writer. An empty dataset with known
// headers still emits the header row; with nothing to derive headers from the
// output is an empty (but valid) file.
func (e *CSVExporter) RenderTo(w io.Writer, data Dataset) error {
	fields := data.FieldOrder()
	if len(fields) == 0 {
		return nil
	}

	writer := csv.NewWriter(w)
	if err := writer.Write(data.HeaderRow()); err != nil {
		return fmt.Errorf("write csv headers: %w", err)
	}
	for _, row := range data.Rows {
		record := make([]string, len(fields))
		for i, field := range fields {
			record[i] = CellString(row[field])
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}
