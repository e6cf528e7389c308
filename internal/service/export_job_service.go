package service

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/relatia/crm-api/internal/dto"
	"github.com/relatia/crm-api/internal/models"
	"github.com/relatia/crm-api/internal/repository"
	appErrors "github.com/relatia/crm-api/pkg/errors"
	"github.com/relatia/crm-api/pkg/export"
	"github.com/relatia/crm-api/pkg/jobs"
	"github.com/relatia/crm-api/pkg/storage"
)

type exportJobStore interface {
	Create(ctx context.Context, job *models.ExportJob) error
	GetByID(ctx context.Context, id string) (*models.ExportJob, error)
	Update(ctx context.Context, id string, params repository.UpdateExportJobParams) error
	ListPending(ctx context.Context, limit int) ([]models.ExportJob, error)
}

type historyStore interface {
	Create(ctx context.Context, entry *models.ExportHistory) error
	List(ctx context.Context, filter models.ExportHistoryFilter) ([]models.ExportHistory, int, error)
}

type jobDispatcher interface {
	Enqueue(job jobs.Job) error
}

type fileGenerator interface {
	Generate(entity models.ExportEntity, format models.ExportFormat, data export.Dataset) (storage.ExportFile, error)
	Resolve(fileID string) (storage.ExportFile, string, bool)
	Open(relPath string) (*os.File, error)
}

type exportAuditor interface {
	Log(ctx context.Context, action, entity string, entityID *string, userID string, metadata map[string]interface{})
}

type exportObserver interface {
	ObserveExport(entity, format, status string, records int, duration time.Duration)
}

type metadataCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// ExportJobConfig governs job orchestration.
type ExportJobConfig struct {
	ResultTTL      time.Duration
	StatusCacheTTL time.Duration
	FieldsCacheTTL time.Duration
}

// ExportJobService is the public entry point of the export pipeline: it
// validates callers, enqueues jobs, reports status and history, resolves
// downloads, and runs the worker pipeline itself.
type ExportJobService struct {
	repo      exportJobStore
	history   historyStore
	queue     jobDispatcher
	source    *RecordSource
	fetcher   *BatchFetcher
	projector *FieldProjector
	registry  *FieldRegistry
	generator fileGenerator
	audit     exportAuditor
	metrics   exportObserver
	cache     metadataCache
	logger    *zap.Logger
	cfg       ExportJobConfig
}

// NewExportJobService constructs the orchestrator. metrics and cache may be
// nil; audit may be nil only in tests.
func NewExportJobService(
	repo exportJobStore,
	history historyStore,
	queue jobDispatcher,
	source *RecordSource,
	fetcher *BatchFetcher,
	projector *FieldProjector,
	registry *FieldRegistry,
	generator fileGenerator,
	audit exportAuditor,
	metrics exportObserver,
	cache metadataCache,
	cfg ExportJobConfig,
	logger *zap.Logger,
) *ExportJobService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	return &ExportJobService{
		repo:      repo,
		history:   history,
		queue:     queue,
		source:    source,
		fetcher:   fetcher,
		projector: projector,
		registry:  registry,
		generator: generator,
		audit:     audit,
		metrics:   metrics,
		cache:     cache,
		logger:    logger,
		cfg:       cfg,
	}
}

// StartExport validates the caller's role and the request, persists the job
// and enqueues it. Always asynchronous; there is no small-dataset fast path.
func (s *ExportJobService) StartExport(ctx context.Context, req dto.ExportRequest, actor *models.JWTClaims) (*dto.ExportJobResponse, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if !models.CanExport(actor.Role) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "role not permitted to export")
	}
	if !models.ValidExportEntity(req.Entity) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported export entity")
	}
	if !models.ValidExportFormat(req.Format) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported export format")
	}

	job := &models.ExportJob{
		Entity:    req.Entity,
		Format:    req.Format,
		Params:    models.ExportJobParams{Filter: req.Filter, Fields: req.Fields},
		Status:    models.ExportStatusPending,
		CreatedBy: actor.UserID,
	}
	if err := s.repo.Create(ctx, job); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create export job")
	}
	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: string(job.Entity)}); err != nil {
		status := models.ExportStatusFailed
		msg := "failed to enqueue job"
		now := time.Now().UTC()
		_ = s.repo.Update(ctx, job.ID, repository.UpdateExportJobParams{
			Status:       &status,
			ErrorMessage: &msg,
			FinishedAt:   &now,
		})
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue export job")
	}

	s.audit.Log(ctx, models.AuditActionExportStarted, string(job.Entity), &job.ID, actor.UserID, map[string]interface{}{
		"format": job.Format,
		"fields": len(req.Fields),
	})
	return &dto.ExportJobResponse{ID: job.ID, Status: job.Status}, nil
}

// GetStatus exposes job metadata to clients. Unknown ids map to not found.
func (s *ExportJobService) GetStatus(ctx context.Context, id string) (*dto.ExportStatusResponse, error) {
	cacheKey := "export:status:" + id
	if s.cache != nil && s.cfg.StatusCacheTTL > 0 {
		var cached dto.ExportStatusResponse
		if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
			return &cached, nil
		}
	}

	job, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load export job")
	}

	resp := &dto.ExportStatusResponse{
		ID:        job.ID,
		Entity:    job.Entity,
		Format:    job.Format,
		Status:    job.Status,
		Processed: job.Processed,
		Total:     job.Total,
		FileID:    job.FileID,
		FileName:  job.FileName,
		FileSize:  job.FileSize,
	}
	if job.ErrorMessage != nil && *job.ErrorMessage != "" {
		resp.Error = job.ErrorMessage
	}

	// Only terminal states are safe to cache for longer than a poll interval,
	// but a short TTL shields the database from tight polling loops either way.
	if s.cache != nil && s.cfg.StatusCacheTTL > 0 {
		if err := s.cache.Set(ctx, cacheKey, resp, s.cfg.StatusCacheTTL); err != nil {
			s.logger.Sugar().Debugw("status cache write failed", "job_id", id, "error", err)
		}
	}
	return resp, nil
}

// AvailableFields returns the exportable field catalog for an entity type.
func (s *ExportJobService) AvailableFields(ctx context.Context, entity models.ExportEntity) ([]models.FieldDefinition, error) {
	if !models.ValidExportEntity(entity) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported export entity")
	}
	cacheKey := "export:fields:" + string(entity)
	if s.cache != nil && s.cfg.FieldsCacheTTL > 0 {
		var cached []models.FieldDefinition
		if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
			return cached, nil
		}
	}
	fields := s.registry.Fields(entity)
	if s.cache != nil && s.cfg.FieldsCacheTTL > 0 {
		if err := s.cache.Set(ctx, cacheKey, fields, s.cfg.FieldsCacheTTL); err != nil {
			s.logger.Sugar().Debugw("fields cache write failed", "entity", entity, "error", err)
		}
	}
	return fields, nil
}

// History returns one page of past exports.
func (s *ExportJobService) History(ctx context.Context, filter models.ExportHistoryFilter) ([]models.ExportHistory, *models.Pagination, error) {
	entries, total, err := s.history.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list export history")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	return entries, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// ExportDownload aggregates resolved download data.
type ExportDownload struct {
	File *os.File
	Name string
	Size int64
}

// ResolveDownload opens a registered file for streaming. Expired files are
// indistinguishable from files that never existed.
func (s *ExportJobService) ResolveDownload(ctx context.Context, fileID string, actor *models.JWTClaims) (*ExportDownload, error) {
	file, _, ok := s.generator.Resolve(fileID)
	if !ok {
		return nil, appErrors.ErrNotFound
	}
	handle, err := s.generator.Open(file.Path)
	if err != nil {
		return nil, appErrors.ErrNotFound
	}
	userID := ""
	if actor != nil {
		userID = actor.UserID
	}
	s.audit.Log(ctx, models.AuditActionExportDownloaded, "EXPORT_FILE", &file.ID, userID, map[string]interface{}{
		"file_name": file.Name,
	})
	return &ExportDownload{File: handle, Name: file.Name, Size: file.Size}, nil
}

// RecoverPendingJobs replays jobs still pending in the durable table, e.g.
// after a process restart. Jobs caught mid-run stay in their last reported
// state; there is no checkpoint to resume from.
func (s *ExportJobService) RecoverPendingJobs(ctx context.Context) {
	pending, err := s.repo.ListPending(ctx, 50)
	if err != nil {
		s.logger.Sugar().Warnw("failed to recover pending export jobs", "error", err)
		return
	}
	for _, job := range pending {
		if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: string(job.Entity)}); err != nil {
			s.logger.Sugar().Warnw("failed to requeue pending export job", "job_id", job.ID, "error", err)
		}
	}
}

// Handle processes one queued job end to end. Every pipeline error is caught
// here, recorded on the job row and in history, and audited; the worker never
// sees a non-terminal job left behind.
func (s *ExportJobService) Handle(ctx context.Context, job jobs.Job) error {
	record, err := s.repo.GetByID(ctx, job.ID)
	if err != nil {
		// Possibly a visibility race right after enqueue; let the queue retry.
		return err
	}
	if record.Status.Terminal() {
		return nil
	}

	start := time.Now()
	if err := s.setStatus(ctx, record.ID, models.ExportStatusProcessing); err != nil {
		return err
	}

	total, runErr := s.run(ctx, record)
	if runErr != nil {
		s.failJob(ctx, record, runErr)
		s.observe(record, "failed", 0, time.Since(start))
		return nil
	}
	s.observe(record, "completed", total, time.Since(start))
	return nil
}

func (s *ExportJobService) run(ctx context.Context, record *models.ExportJob) (int, error) {
	pageFn, err := s.source.PageFunc(record.Entity, record.Params.Filter)
	if err != nil {
		return 0, err
	}

	records, total, err := s.fetcher.FetchAll(ctx, pageFn, func(processed, fetchTotal int) {
		if updateErr := s.repo.Update(ctx, record.ID, repository.UpdateExportJobParams{
			Processed: &processed,
			Total:     &fetchTotal,
		}); updateErr != nil {
			s.logger.Sugar().Warnw("failed to report export progress", "job_id", record.ID, "error", updateErr)
		}
		s.invalidateStatus(ctx, record.ID)
	})
	if err != nil {
		return 0, err
	}

	if record.Entity == models.ExportEntityInteraction {
		s.source.EnrichInteractions(ctx, records)
	}

	fields := s.registry.FieldNames(record.Entity)
	var headers []string
	if len(record.Params.Fields) > 0 {
		var projected []export.Record
		var unknown []string
		projected, fields, unknown = s.projector.Project(records, record.Params.Fields, record.Entity)
		records = projected
		if len(unknown) > 0 {
			s.logger.Sugar().Warnw("export selection contained unknown fields",
				"job_id", record.ID, "entity", record.Entity, "unknown", unknown)
		}
		headers = make([]string, len(fields))
		for i, field := range fields {
			headers[i] = s.registry.DisplayName(record.Entity, field)
		}
	}

	if err := s.setStatus(ctx, record.ID, models.ExportStatusGeneratingFile); err != nil {
		return 0, err
	}

	dataset := export.Dataset{Fields: fields, Headers: headers, Rows: records}
	file, err := s.generator.Generate(record.Entity, record.Format, dataset)
	if err != nil {
		return 0, err
	}

	expiresAt := file.ExpiresAt
	if histErr := s.history.Create(ctx, &models.ExportHistory{
		Entity:       record.Entity,
		Format:       record.Format,
		Status:       models.ExportStatusCompleted,
		TotalRecords: total,
		FileName:     file.Name,
		FilePath:     file.Path,
		FileSize:     file.Size,
		CreatedBy:    record.CreatedBy,
		ExpiresAt:    &expiresAt,
	}); histErr != nil {
		s.logger.Sugar().Warnw("failed to persist export history", "job_id", record.ID, "error", histErr)
	}

	s.audit.Log(ctx, models.AuditActionExportCompleted, string(record.Entity), &record.ID, record.CreatedBy, map[string]interface{}{
		"format":    record.Format,
		"records":   total,
		"file_name": file.Name,
		"file_size": file.Size,
	})

	completed := models.ExportStatusCompleted
	now := time.Now().UTC()
	clear := ""
	if err := s.repo.Update(ctx, record.ID, repository.UpdateExportJobParams{
		Status:       &completed,
		Processed:    &total,
		Total:        &total,
		FileID:       &file.ID,
		FileName:     &file.Name,
		FileSize:     &file.Size,
		ErrorMessage: &clear,
		FinishedAt:   &now,
	}); err != nil {
		return 0, err
	}
	s.invalidateStatus(ctx, record.ID)
	return total, nil
}

func (s *ExportJobService) failJob(ctx context.Context, record *models.ExportJob, cause error) {
	s.logger.Sugar().Errorw("export job failed", "job_id", record.ID, "entity", record.Entity, "error", cause)

	msg := cause.Error()
	failed := models.ExportStatusFailed
	now := time.Now().UTC()
	if err := s.repo.Update(ctx, record.ID, repository.UpdateExportJobParams{
		Status:       &failed,
		ErrorMessage: &msg,
		FinishedAt:   &now,
	}); err != nil {
		s.logger.Sugar().Warnw("failed to mark export job failed", "job_id", record.ID, "error", err)
	}
	s.invalidateStatus(ctx, record.ID)

	// History is written even on failure, with a zero payload.
	if err := s.history.Create(ctx, &models.ExportHistory{
		Entity:    record.Entity,
		Format:    record.Format,
		Status:    models.ExportStatusFailed,
		CreatedBy: record.CreatedBy,
	}); err != nil {
		s.logger.Sugar().Warnw("failed to persist failed-export history", "job_id", record.ID, "error", err)
	}

	s.audit.Log(ctx, models.AuditActionExportFailed, string(record.Entity), &record.ID, record.CreatedBy, map[string]interface{}{
		"format": record.Format,
		"error":  msg,
	})
}

func (s *ExportJobService) setStatus(ctx context.Context, id string, status models.ExportStatus) error {
	if err := s.repo.Update(ctx, id, repository.UpdateExportJobParams{Status: &status}); err != nil {
		return err
	}
	s.invalidateStatus(ctx, id)
	return nil
}

func (s *ExportJobService) invalidateStatus(ctx context.Context, id string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, "export:status:"+id); err != nil {
		s.logger.Sugar().Debugw("status cache invalidation failed", "job_id", id, "error", err)
	}
}

func (s *ExportJobService) observe(record *models.ExportJob, status string, records int, duration time.Duration) {
	if s.metrics == nil {
		return
	}
	s.metrics.ObserveExport(string(record.Entity), string(record.Format), status, records, duration)
}
