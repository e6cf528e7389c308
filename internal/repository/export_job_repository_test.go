package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/relatia/crm-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestExportJobRepositoryCreateAndGet(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewExportJobRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO export_jobs")).
		WithArgs(sqlmock.AnyArg(), "CUSTOMER", "csv", sqlmock.AnyArg(), "PENDING", 0, 0, nil, nil, nil, nil, "user-1", sqlmock.AnyArg(), nil).
		WillReturnResult(sqlmock.NewResult(1, 1))

	job := &models.ExportJob{
		Entity:    models.ExportEntityCustomer,
		Format:    models.ExportFormatCSV,
		Params:    models.ExportJobParams{Filter: models.ExportFilter{Search: "acme"}},
		CreatedBy: "user-1",
	}
	require.NoError(t, repo.Create(context.Background(), job))
	require.NotEmpty(t, job.ID)
	require.Equal(t, models.ExportStatusPending, job.Status)

	rows := sqlmock.NewRows([]string{"id", "entity", "format", "params", "status", "processed", "total", "file_id", "file_name", "file_size", "error_message", "created_by", "created_at", "finished_at"}).
		AddRow(job.ID, "CUSTOMER", "csv", `{"filter":{"search":"acme"}}`, "PENDING", 0, 0, nil, nil, nil, nil, "user-1", time.Now(), nil)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, entity, format, params, status, processed, total, file_id, file_name, file_size, error_message, created_by, created_at, finished_at FROM export_jobs WHERE id = $1")).
		WithArgs(job.ID).
		WillReturnRows(rows)

	fetched, err := repo.GetByID(context.Background(), job.ID)
	require.NoError(t, err)
	require.Equal(t, job.ID, fetched.ID)
	require.Equal(t, "acme", fetched.Params.Filter.Search)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExportJobRepositoryUpdateBuildsSetClause(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewExportJobRepository(db)

	now := time.Now().UTC()
	status := models.ExportStatusCompleted
	processed := 2500
	total := 2500
	fileID := "file-1"
	mock.ExpectExec(regexp.QuoteMeta("UPDATE export_jobs SET status = $1, processed = $2, total = $3, file_id = $4, finished_at = $5 WHERE id = $6")).
		WithArgs(status, processed, total, fileID, now, "job-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Update(context.Background(), "job-1", UpdateExportJobParams{
		Status:     &status,
		Processed:  &processed,
		Total:      &total,
		FileID:     &fileID,
		FinishedAt: &now,
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExportJobRepositoryUpdateNoChanges(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewExportJobRepository(db)

	// No fields set means no round trip at all.
	require.NoError(t, repo.Update(context.Background(), "job-1", UpdateExportJobParams{}))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExportJobRepositoryListPending(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewExportJobRepository(db)

	rows := sqlmock.NewRows([]string{"id", "entity", "format", "params", "status", "processed", "total", "file_id", "file_name", "file_size", "error_message", "created_by", "created_at", "finished_at"}).
		AddRow("job-1", "PRODUCT", "xlsx", `{"filter":{}}`, "PENDING", 0, 0, nil, nil, nil, nil, "user-1", time.Now(), nil)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, entity, format, params, status, processed, total, file_id, file_name, file_size, error_message, created_by, created_at, finished_at FROM export_jobs WHERE status = 'PENDING' ORDER BY created_at ASC LIMIT $1")).
		WithArgs(20).
		WillReturnRows(rows)

	jobs, err := repo.ListPending(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	require.Equal(t, models.ExportEntityProduct, jobs[0].Entity)
	require.NoError(t, mock.ExpectationsWereMet())
}
