package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/relatia/crm-api/internal/dto"
	"github.com/relatia/crm-api/internal/models"
	appErrors "github.com/relatia/crm-api/pkg/errors"
	"github.com/relatia/crm-api/pkg/export"
)

type subjectInteractionSource interface {
	FindByCustomer(ctx context.Context, customerID string) ([]models.Interaction, error)
}

type signedURLSigner interface {
	Generate(jobID, relPath string) (string, time.Time, error)
	Parse(token string, allowExpired bool) (jobID, relPath string, expiresAt time.Time, err error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ComplianceService produces the regulatory subject-data export: everything
// held about a single customer, bundled into one file behind a signed,
// expiring download token. Unlike regular exports it runs synchronously; the
// payload is bounded by a single customer's footprint.
type ComplianceService struct {
	customers    customerSource
	interactions subjectInteractionSource
	storage      fileStorage
	signer       signedURLSigner
	pdf          pdfRenderer
	audit        exportAuditor
	logger       *zap.Logger
	resultTTL    time.Duration
	urlPrefix    string
}

// NewComplianceService constructs the service. urlPrefix is the public route
// prefix signed tokens are appended to.
func NewComplianceService(
	customers customerSource,
	interactions subjectInteractionSource,
	store fileStorage,
	signer signedURLSigner,
	audit exportAuditor,
	resultTTL time.Duration,
	urlPrefix string,
	logger *zap.Logger,
) *ComplianceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if resultTTL <= 0 {
		resultTTL = 168 * time.Hour
	}
	if urlPrefix == "" {
		urlPrefix = "/api/v1/compliance/download"
	}
	return &ComplianceService{
		customers:    customers,
		interactions: interactions,
		storage:      store,
		signer:       signer,
		pdf:          export.NewPDFExporter(),
		audit:        audit,
		logger:       logger,
		resultTTL:    resultTTL,
		urlPrefix:    urlPrefix,
	}
}

type subjectDataPayload struct {
	GeneratedAt  time.Time       `json:"generated_at"`
	Customer     export.Record   `json:"customer"`
	Interactions []export.Record `json:"interactions"`
}

// ExportSubjectData assembles the customer's profile and interaction history
// and writes it as JSON or PDF. Only administrators may request it.
func (s *ComplianceService) ExportSubjectData(ctx context.Context, req dto.SubjectExportRequest, actor *models.JWTClaims) (*dto.SubjectExportResponse, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if actor.Role != models.RoleAdmin {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "subject data export requires administrator role")
	}

	customer, err := s.customers.FindByID(ctx, req.CustomerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "customer not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load customer")
	}
	interactions, err := s.interactions.FindByCustomer(ctx, req.CustomerID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load customer interactions")
	}

	interactionRows := make([]export.Record, len(interactions))
	for i, it := range interactions {
		interactionRows[i] = interactionRecord(it)
	}

	var payload []byte
	switch req.Format {
	case "json":
		payload, err = json.MarshalIndent(subjectDataPayload{
			GeneratedAt:  time.Now().UTC(),
			Customer:     customerRecord(*customer),
			Interactions: interactionRows,
		}, "", "  ")
	case "pdf":
		title := fmt.Sprintf("Subject Data - %s (%s)", customer.Name, customer.Email)
		payload, err = s.pdf.Render(export.Dataset{
			Fields: []string{"id", "type", "subject", "occurred_at", "created_by"},
			Headers: []string{
				"Interaction ID", "Type", "Subject", "Occurred At", "Recorded By",
			},
			Rows: interactionRows,
		}, title)
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported subject export format")
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render subject data")
	}

	fileName := fmt.Sprintf("subject_%s_%s.%s",
		strings.Split(req.CustomerID, "-")[0],
		time.Now().UTC().Format("20060102_150405"),
		req.Format)
	relPath, err := s.storage.Save(fileName, payload)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist subject data file")
	}

	token, expiresAt, err := s.signer.Generate(uuid.NewString(), relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download token")
	}

	s.audit.Log(ctx, models.AuditActionSubjectDataExport, string(models.ExportEntityCustomer), &customer.ID, actor.UserID, map[string]interface{}{
		"format":       req.Format,
		"interactions": len(interactions),
	})

	return &dto.SubjectExportResponse{
		CustomerID:  customer.ID,
		Format:      req.Format,
		DownloadURL: s.urlPrefix + "/" + token,
		ExpiresAt:   expiresAt.UTC(),
	}, nil
}

// OpenSignedFile validates a signed token and opens the referenced file.
// Tampered, expired and unknown tokens all resolve to not found.
func (s *ComplianceService) OpenSignedFile(ctx context.Context, token string) (*ExportDownload, error) {
	_, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		s.logger.Sugar().Debugw("rejected compliance download token", "error", err)
		return nil, appErrors.ErrNotFound
	}
	handle, err := s.storage.Open(relPath)
	if err != nil {
		return nil, appErrors.ErrNotFound
	}
	info, err := handle.Stat()
	if err != nil {
		handle.Close() //nolint:errcheck
		return nil, appErrors.ErrNotFound
	}
	name := relPath
	if idx := strings.LastIndexByte(relPath, '/'); idx >= 0 {
		name = relPath[idx+1:]
	}
	return &ExportDownload{File: handle, Name: name, Size: info.Size()}, nil
}

// StartSweeper deletes subject-data files older than the retention TTL on a
// fixed interval until ctx is cancelled.
func (s *ComplianceService) StartSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				deleted, err := s.storage.CleanupOlderThan(s.resultTTL)
				if err != nil {
					s.logger.Sugar().Warnw("subject data cleanup failed", "error", err)
					continue
				}
				if len(deleted) > 0 {
					s.logger.Sugar().Infow("swept expired subject data files", "count", len(deleted))
				}
			}
		}
	}()
}
