package service

import (
	"context"
	"encoding/json"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/relatia/crm-api/internal/dto"
	"github.com/relatia/crm-api/internal/models"
	appErrors "github.com/relatia/crm-api/pkg/errors"
	"github.com/relatia/crm-api/pkg/storage"
)

type subjectInteractionsStub struct {
	interactions []models.Interaction
	err          error
}

func (s *subjectInteractionsStub) FindByCustomer(ctx context.Context, customerID string) ([]models.Interaction, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.interactions, nil
}

func newComplianceServiceForTest(t *testing.T, customers *customerSourceStub, interactions *subjectInteractionsStub) *ComplianceService {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("secret", time.Hour)
	return NewComplianceService(customers, interactions, store, signer, &auditStub{}, time.Hour, "", nil)
}

func TestSubjectDataExportRequiresAdmin(t *testing.T) {
	svc := newComplianceServiceForTest(t, &customerSourceStub{}, &subjectInteractionsStub{})

	for _, role := range []models.UserRole{models.RoleManager, models.RoleAgent, models.RoleViewer} {
		_, err := svc.ExportSubjectData(context.Background(), dto.SubjectExportRequest{
			CustomerID: "c-1",
			Format:     "json",
		}, &models.JWTClaims{UserID: "u-1", Role: role})
		require.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code, "role %s", role)
	}
}

func TestSubjectDataExportJSONRoundTrip(t *testing.T) {
	occurred := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	customers := &customerSourceStub{
		byID: map[string]*models.Customer{
			"c-1": {ID: "c-1", Name: "Ada", Email: "ada@example.com", Type: models.CustomerTypeActive},
		},
	}
	interactions := &subjectInteractionsStub{
		interactions: []models.Interaction{
			{ID: "i-1", CustomerID: "c-1", Type: models.InteractionTypeCall, Subject: "Renewal", OccurredAt: occurred},
		},
	}
	svc := newComplianceServiceForTest(t, customers, interactions)

	resp, err := svc.ExportSubjectData(context.Background(), dto.SubjectExportRequest{
		CustomerID: "c-1",
		Format:     "json",
	}, &models.JWTClaims{UserID: "u-admin", Role: models.RoleAdmin})
	require.NoError(t, err)
	require.Equal(t, "c-1", resp.CustomerID)
	require.True(t, resp.ExpiresAt.After(time.Now()))

	token := resp.DownloadURL[strings.LastIndexByte(resp.DownloadURL, '/')+1:]
	download, err := svc.OpenSignedFile(context.Background(), token)
	require.NoError(t, err)
	defer download.File.Close() //nolint:errcheck

	raw, err := io.ReadAll(download.File)
	require.NoError(t, err)

	var payload subjectDataPayload
	require.NoError(t, json.Unmarshal(raw, &payload))
	require.Equal(t, "Ada", payload.Customer["name"])
	require.Len(t, payload.Interactions, 1)
	require.Equal(t, "Renewal", payload.Interactions[0]["subject"])
}

func TestSubjectDataExportUnknownCustomer(t *testing.T) {
	svc := newComplianceServiceForTest(t, &customerSourceStub{byID: map[string]*models.Customer{}}, &subjectInteractionsStub{})

	_, err := svc.ExportSubjectData(context.Background(), dto.SubjectExportRequest{
		CustomerID: "ghost",
		Format:     "json",
	}, &models.JWTClaims{UserID: "u-admin", Role: models.RoleAdmin})
	require.Error(t, err)
}

func TestOpenSignedFileRejectsGarbageToken(t *testing.T) {
	svc := newComplianceServiceForTest(t, &customerSourceStub{}, &subjectInteractionsStub{})

	_, err := svc.OpenSignedFile(context.Background(), "not.a.valid.token")
	require.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
