package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/bus-console-api/internal/middleware"
	"github.com/noah-isme/bus-console-api/internal/models"
	"github.com/noah-isme/bus-console-api/internal/service"
	"github.com/noah-isme/bus-console-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/bus-console-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/bus-console-api/pkg/middleware/requestid"
)

// RouterConfig carries everything the HTTP surface is assembled from.
type RouterConfig struct {
	APIPrefix      string
	AllowedOrigins []string
	EnableDocs     bool
	Logger         *zap.Logger

	Metrics *service.MetricsService
	Audit   *service.AuditService

	Schedules *ScheduleHandler
	Catalog   *CatalogHandler
	Tariffs   *TariffHandler
	Requests  *RequestHandler
	System    *SystemHandler
}

// NewRouter registers the console routes. Every console route lives under /{prefix}/:role.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.APIPrefix == "" {
		cfg.APIPrefix = "/api/v1"
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(cfg.Logger))
	r.Use(corsmiddleware.New(cfg.AllowedOrigins))
	r.Use(middleware.Metrics(cfg.Metrics))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", cfg.System.Health)
	r.GET("/ready", cfg.System.Ready)
	r.GET("/metrics", cfg.System.Prometheus)
	if cfg.EnableDocs {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	console := r.Group(cfg.APIPrefix + "/:role")
	console.Use(middleware.ConsoleSession())

	console.GET("/routes", cfg.Catalog.Routes)
	console.GET("/buses", cfg.Catalog.Buses)
	console.GET("/drivers", cfg.Catalog.Drivers)

	schedules := console.Group("/schedules")
	schedules.GET("", cfg.Schedules.List)
	schedules.GET("/summary", cfg.Schedules.Summary)
	schedules.POST("/quote", cfg.Schedules.Quote)
	schedules.POST("/conflicts", cfg.Schedules.CheckConflicts)
	schedules.POST("", middleware.Audit(cfg.Audit, models.AuditActionScheduleCreate, models.AuditResourceSchedule), cfg.Schedules.Create)
	schedules.PUT("/:id", middleware.Audit(cfg.Audit, models.AuditActionScheduleUpdate, models.AuditResourceSchedule), cfg.Schedules.Update)
	schedules.DELETE("/:id", middleware.Audit(cfg.Audit, models.AuditActionScheduleDelete, models.AuditResourceSchedule), cfg.Schedules.Delete)
	schedules.POST("/:id/emergency-cancel/preview", cfg.Schedules.PreviewCancellation)
	schedules.POST("/:id/emergency-cancel", middleware.Audit(cfg.Audit, models.AuditActionScheduleCancel, models.AuditResourceSchedule), cfg.Schedules.EmergencyCancel)

	tariffs := console.Group("/tariff-rates")
	tariffs.GET("/current", cfg.Tariffs.Current)
	tariffs.GET("", middleware.RequireAdmin(), cfg.Tariffs.List)
	tariffs.POST("", middleware.RequireAdmin(), middleware.Audit(cfg.Audit, models.AuditActionTariffCreate, models.AuditResourceTariffRate), cfg.Tariffs.Create)
	tariffs.PUT("/:id", middleware.RequireAdmin(), middleware.Audit(cfg.Audit, models.AuditActionTariffUpdate, models.AuditResourceTariffRate), cfg.Tariffs.Update)
	tariffs.DELETE("/:id", middleware.RequireAdmin(), middleware.Audit(cfg.Audit, models.AuditActionTariffDelete, models.AuditResourceTariffRate), cfg.Tariffs.Delete)

	console.POST("/requests/cancel", cfg.Requests.CancelAll)

	console.GET("/system/metrics", middleware.RequireAdmin(), cfg.System.Snapshot)
	console.GET("/audit-logs", middleware.RequireAdmin(), cfg.System.AuditLogs)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": gin.H{"code": "NOT_FOUND", "message": "route not found"}})
	})

	return r
}
