package export

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// XLSXExporter renders Dataset records into a single-sheet workbook. The
// whole workbook is buffered in memory before writing; the format does not
// lend itself to incremental output the way CSV and JSON do.
type XLSXExporter struct{}

// NewXLSXExporter builds an XLSX exporter.
func NewXLSXExporter() *XLSXExporter {
	return &XLSXExporter{}
}

// Render produces workbook bytes with the given sheet name. Zero records
// still yield a valid workbook containing only the header row.
func (e *XLSXExporter) Render(data Dataset, sheet string) ([]byte, error) {
	if sheet == "" {
		sheet = "Export"
	}

	f := excelize.NewFile()
	defer f.Close() //nolint:errcheck

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("name xlsx sheet: %w", err)
	}

	fields := data.FieldOrder()
	headers := data.HeaderRow()
	if len(headers) > 0 {
		headerRow := make([]interface{}, len(headers))
		for i, h := range headers {
			headerRow[i] = h
		}
		if err := f.SetSheetRow(sheet, "A1", &headerRow); err != nil {
			return nil, fmt.Errorf("write xlsx headers: %w", err)
		}
	}

	for i, row := range data.Rows {
		values := make([]interface{}, len(fields))
		for j, field := range fields {
			values[j] = CellString(row[field])
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, fmt.Errorf("resolve xlsx cell: %w", err)
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return nil, fmt.Errorf("write xlsx row: %w", err)
		}
	}

	buf := &bytes.Buffer{}
	if err := f.Write(buf); err != nil {
		return nil, fmt.Errorf("render xlsx: %w", err)
	}
	return buf.Bytes(), nil
}
