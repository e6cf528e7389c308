package service

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/relatia/crm-api/internal/models"
	"github.com/relatia/crm-api/pkg/export"
	"github.com/relatia/crm-api/pkg/storage"
)

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type jsonRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type xlsxRenderer interface {
	Render(data export.Dataset, sheet string) ([]byte, error)
}

// ExportConfig tunes export file generation.
type ExportConfig struct {
	ResultTTL time.Duration
}

// ExportService serializes datasets into the requested format and registers
// the resulting file for time-limited download.
type ExportService struct {
	storage  fileStorage
	registry *storage.FileRegistry
	json     jsonRenderer
	csv      csvRenderer
	xlsx     xlsxRenderer
	logger   *zap.Logger
	cfg      ExportConfig
}

// NewExportService constructs an ExportService.
func NewExportService(store fileStorage, registry *storage.FileRegistry, cfg ExportConfig, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	return &ExportService{
		storage:  store,
		registry: registry,
		json:     export.NewJSONExporter(),
		csv:      export.NewCSVExporter(),
		xlsx:     export.NewXLSXExporter(),
		logger:   logger,
		cfg:      cfg,
	}
}

// Generate renders the dataset in the requested format, persists the file and
// registers it. Registration only happens after a successful write, so a
// serialization failure never leaves a referenced file behind.
func (s *ExportService) Generate(entity models.ExportEntity, format models.ExportFormat, data export.Dataset) (storage.ExportFile, error) {
	var payload []byte
	var err error
	switch format {
	case models.ExportFormatJSON:
		payload, err = s.json.Render(data)
	case models.ExportFormatCSV:
		payload, err = s.csv.Render(data)
	case models.ExportFormatXLSX:
		payload, err = s.xlsx.Render(data, models.EntityLabel(entity))
	default:
		err = fmt.Errorf("unsupported format %s", format)
	}
	if err != nil {
		return storage.ExportFile{}, err
	}

	fileName := buildFileName(entity, format)
	relPath, err := s.storage.Save(fileName, payload)
	if err != nil {
		return storage.ExportFile{}, err
	}

	file := s.registry.Register(storage.ExportFile{
		ID:   uuid.NewString(),
		Name: fileName,
		Path: relPath,
		Size: int64(len(payload)),
	}, s.cfg.ResultTTL)

	return file, nil
}

// Open returns a handle to a stored export file.
func (s *ExportService) Open(relPath string) (*os.File, error) {
	return s.storage.Open(relPath)
}

// Resolve looks up a registered file by id, honouring expiry.
func (s *ExportService) Resolve(fileID string) (storage.ExportFile, string, bool) {
	return s.registry.Resolve(fileID)
}

func buildFileName(entity models.ExportEntity, format models.ExportFormat) string {
	timestamp := time.Now().UTC().Format("20060102_150405")
	token := strings.Split(uuid.NewString(), "-")[0]
	return fmt.Sprintf("%s_%s_%s.%s", strings.ToLower(string(entity)), timestamp, token, format)
}
