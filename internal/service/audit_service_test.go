package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/bus-console-api/internal/models"
	appErrors "github.com/noah-isme/bus-console-api/pkg/errors"
)

type auditRepoStub struct {
	entries []models.AuditLog
	err     error
	filter  models.AuditFilter
}

func (a *auditRepoStub) Create(ctx context.Context, log *models.AuditLog) error {
	if a.err != nil {
		return a.err
	}
	a.entries = append(a.entries, *log)
	return nil
}

func (a *auditRepoStub) List(ctx context.Context, filter models.AuditFilter) ([]models.AuditLog, int, error) {
	a.filter = filter
	return a.entries, len(a.entries), a.err
}

func TestAuditServiceRecordAndList(t *testing.T) {
	repo := &auditRepoStub{}
	svc := NewAuditService(repo, NewMetricsService(), nil)

	svc.Record(context.Background(), &models.AuditLog{Role: "admin", Action: models.AuditActionTariffCreate, Resource: models.AuditResourceTariffRate})
	require.Len(t, repo.entries, 1)

	logs, pagination, err := svc.List(context.Background(), models.AuditFilter{PageSize: 1000})
	require.NoError(t, err)
	assert.Len(t, logs, 1)
	assert.Equal(t, 50, pagination.PageSize)
	assert.Equal(t, 1, repo.filter.Page)
}

func TestAuditServiceSwallowsStorageErrors(t *testing.T) {
	svc := NewAuditService(&auditRepoStub{err: errors.New("db down")}, nil, nil)
	assert.NotPanics(t, func() {
		svc.Record(context.Background(), &models.AuditLog{Action: models.AuditActionScheduleDelete})
	})
}

func TestAuditServiceDisabled(t *testing.T) {
	svc := NewAuditService(nil, nil, nil)
	assert.False(t, svc.Enabled())
	svc.Record(context.Background(), &models.AuditLog{Action: models.AuditActionScheduleCreate})

	_, _, err := svc.List(context.Background(), models.AuditFilter{})
	assert.ErrorIs(t, err, appErrors.ErrServiceUnavailable)
}
