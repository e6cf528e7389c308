package service

import (
	"go.uber.org/zap"

	"github.com/relatia/crm-api/internal/models"
	"github.com/relatia/crm-api/pkg/export"
)

// FieldProjector narrows records to a caller-chosen field subset, validating
// selections against the field registry.
type FieldProjector struct {
	registry *FieldRegistry
	logger   *zap.Logger
}

// NewFieldProjector constructs a projector.
func NewFieldProjector(registry *FieldRegistry, logger *zap.Logger) *FieldProjector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FieldProjector{registry: registry, logger: logger}
}

// Project narrows every record to the valid subset of selected fields,
// preserving the caller's order. Unknown names are dropped and reported once
// as an aggregated warning, never per record. An empty selection leaves the
// records untouched.
func (p *FieldProjector) Project(records []export.Record, selected []string, entity models.ExportEntity) ([]export.Record, []string, []string) {
	if len(selected) == 0 {
		return records, nil, nil
	}

	valid := make([]string, 0, len(selected))
	unknown := make([]string, 0)
	for _, field := range selected {
		if p.registry.Has(entity, field) {
			valid = append(valid, field)
		} else {
			unknown = append(unknown, field)
		}
	}
	if len(unknown) > 0 {
		p.logger.Sugar().Warnw("dropping unknown export fields",
			"entity", entity, "fields", unknown)
	}

	projected := make([]export.Record, len(records))
	for i, record := range records {
		row := make(export.Record, len(valid))
		for _, field := range valid {
			if value, ok := record[field]; ok {
				row[field] = value
			} else {
				row[field] = nil
			}
		}
		projected[i] = row
	}
	return projected, valid, unknown
}
