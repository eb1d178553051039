package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/bus-console-api/internal/models"
	appErrors "github.com/noah-isme/bus-console-api/pkg/errors"
)

type auditRepository interface {
	Create(ctx context.Context, log *models.AuditLog) error
	List(ctx context.Context, filter models.AuditFilter) ([]models.AuditLog, int, error)
}

// AuditService records console mutations. With no repository it only logs them.
type AuditService struct {
	repo    auditRepository
	metrics *MetricsService
	logger  *zap.Logger
}

// NewAuditService creates an audit service.
func NewAuditService(repo auditRepository, metrics *MetricsService, logger *zap.Logger) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditService{repo: repo, metrics: metrics, logger: logger}
}

// Enabled reports whether entries are persisted.
func (s *AuditService) Enabled() bool {
	return s != nil && s.repo != nil
}

// Record stores entry. Storage failures are logged and never reach the operator.
func (s *AuditService) Record(ctx context.Context, entry *models.AuditLog) {
	if s == nil {
		return
	}
	fields := []zap.Field{
		zap.String("action", entry.Action),
		zap.String("resource", entry.Resource),
		zap.String("role", entry.Role),
		zap.String("request_id", entry.RequestID),
	}
	if entry.ResourceID != nil {
		fields = append(fields, zap.String("resource_id", *entry.ResourceID))
	}
	if s.repo == nil {
		s.logger.Info("audit", fields...)
		return
	}
	start := time.Now()
	err := s.repo.Create(ctx, entry)
	s.metrics.ObserveDBQuery("audit_insert", time.Since(start))
	if err != nil {
		s.logger.Error("failed to store audit log", append(fields, zap.Error(err))...)
	}
}

// List returns stored audit entries.
func (s *AuditService) List(ctx context.Context, filter models.AuditFilter) ([]models.AuditLog, *models.Pagination, error) {
	if !s.Enabled() {
		return nil, nil, appErrors.Clone(appErrors.ErrServiceUnavailable, "audit trail is disabled")
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 || filter.PageSize > 200 {
		filter.PageSize = 50
	}
	start := time.Now()
	logs, total, err := s.repo.List(ctx, filter)
	s.metrics.ObserveDBQuery("audit_list", time.Since(start))
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list audit logs")
	}
	return logs, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}
