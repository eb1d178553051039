package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/bus-console-api/internal/models"
)

func newAuditRepoMock(t *testing.T) (*AuditRepository, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "postgres")
	return NewAuditRepository(sqlxDB), mock, func() {
		sqlxDB.Close()
	}
}

func TestAuditRepositoryCreate(t *testing.T) {
	repo, mock, cleanup := newAuditRepoMock(t)
	defer cleanup()

	mock.ExpectExec("INSERT INTO console_audit_logs").
		WithArgs(sqlmock.AnyArg(), "operator", sqlmock.AnyArg(), models.AuditActionScheduleCreate, models.AuditResourceSchedule,
			sqlmock.AnyArg(), sqlmock.AnyArg(), "req-1", "10.0.0.1", "curl", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	id := "42"
	entry := &models.AuditLog{
		Role:       "operator",
		Action:     models.AuditActionScheduleCreate,
		Resource:   models.AuditResourceSchedule,
		ResourceID: &id,
		Payload:    []byte(`{"status":201}`),
		RequestID:  "req-1",
		IPAddress:  "10.0.0.1",
		UserAgent:  "curl",
	}
	require.NoError(t, repo.Create(context.Background(), entry))
	assert.NotEmpty(t, entry.ID)
	assert.False(t, entry.CreatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditRepositoryListFiltersByResource(t *testing.T) {
	repo, mock, cleanup := newAuditRepoMock(t)
	defer cleanup()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM console_audit_logs WHERE resource = \$1`).
		WithArgs("schedule").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	rows := sqlmock.NewRows([]string{"id", "role", "subject", "action", "resource", "resource_id", "payload", "request_id", "ip_address", "user_agent", "created_at"}).
		AddRow("a-1", "admin", nil, models.AuditActionScheduleDelete, "schedule", "7", []byte(`{}`), "req-9", "127.0.0.1", "ua", time.Now())
	mock.ExpectQuery(`SELECT id, role, subject, action, resource, resource_id, .* FROM console_audit_logs WHERE resource = \$1 ORDER BY created_at DESC LIMIT \$2 OFFSET \$3`).
		WithArgs("schedule", 10, 10).
		WillReturnRows(rows)

	logs, total, err := repo.List(context.Background(), models.AuditFilter{Resource: "schedule", Page: 2, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, logs, 1)
	assert.Equal(t, models.AuditActionScheduleDelete, logs[0].Action)
	require.NotNil(t, logs[0].ResourceID)
	assert.Equal(t, "7", *logs[0].ResourceID)
	require.NoError(t, mock.ExpectationsWereMet())
}
