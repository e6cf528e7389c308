package service

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/relatia/crm-api/internal/models"
	"github.com/relatia/crm-api/pkg/export"
)

func TestProjectorNarrowsToSelection(t *testing.T) {
	projector := NewFieldProjector(NewFieldRegistry(), nil)
	records := []export.Record{
		{"id": "c-1", "name": "Ada", "email": "ada@example.com"},
	}

	projected, fields, unknown := projector.Project(records, []string{"name", "email"}, models.ExportEntityCustomer)
	require.Empty(t, unknown)
	require.Equal(t, []string{"name", "email"}, fields)
	require.Equal(t, export.Record{"name": "Ada", "email": "ada@example.com"}, projected[0])
}

func TestProjectorDropsUnknownFields(t *testing.T) {
	projector := NewFieldProjector(NewFieldRegistry(), nil)
	records := []export.Record{
		{"id": "c-1", "name": "Ada"},
	}

	projected, fields, unknown := projector.Project(records, []string{"name", "favourite_color"}, models.ExportEntityCustomer)
	require.Equal(t, []string{"favourite_color"}, unknown)
	require.Equal(t, []string{"name"}, fields)
	require.NotContains(t, projected[0], "favourite_color")
}

func TestProjectorMissingValueBecomesNil(t *testing.T) {
	projector := NewFieldProjector(NewFieldRegistry(), nil)
	records := []export.Record{
		{"id": "c-1"},
	}

	projected, _, _ := projector.Project(records, []string{"name"}, models.ExportEntityCustomer)
	value, present := projected[0]["name"]
	require.True(t, present)
	require.Nil(t, value)
}

func TestProjectorEmptySelectionPassthrough(t *testing.T) {
	projector := NewFieldProjector(NewFieldRegistry(), nil)
	records := []export.Record{
		{"id": "c-1", "name": "Ada"},
	}

	projected, fields, unknown := projector.Project(records, nil, models.ExportEntityCustomer)
	require.Empty(t, fields)
	require.Empty(t, unknown)
	require.Equal(t, records, projected)
}
