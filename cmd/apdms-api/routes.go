package main

import (
	"strings"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/JusticeBelleza/apdms-portal-sub000/internal/handler"
	"github.com/JusticeBelleza/apdms-portal-sub000/internal/middleware"
	"github.com/JusticeBelleza/apdms-portal-sub000/internal/models"
	"github.com/JusticeBelleza/apdms-portal-sub000/internal/service"
	"github.com/JusticeBelleza/apdms-portal-sub000/pkg/config"
	"github.com/JusticeBelleza/apdms-portal-sub000/pkg/logger"
	corsmiddleware "github.com/JusticeBelleza/apdms-portal-sub000/pkg/middleware/cors"
	reqidmiddleware "github.com/JusticeBelleza/apdms-portal-sub000/pkg/middleware/requestid"
)

type routeDeps struct {
	cfg     *config.Config
	logger  *zap.Logger
	metrics *service.MetricsService
	auth    middleware.TokenValidator

	system      *handler.MetricsHandler
	calendar    *handler.CalendarHandler
	compliance  *handler.ComplianceHandler
	submissions *handler.SubmissionHandler
	users       *handler.UserHandler
	// reports is nil when report generation is disabled.
	reports *handler.ReportHandler
}

func newRouter(deps routeDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(deps.logger))
	r.Use(corsmiddleware.New(deps.cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(deps.metrics))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", deps.system.Health)
	r.GET("/ready", deps.system.Ready)
	r.GET("/metrics", deps.system.Prometheus)

	if deps.cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	prefix := "/" + strings.Trim(deps.cfg.APIPrefix, "/")
	api := r.Group(prefix)

	if deps.reports != nil {
		api.GET("/export/:token", deps.reports.DownloadReport)
	}

	secured := api.Group("")
	secured.Use(middleware.JWT(deps.auth))

	calendar := secured.Group("/calendar")
	calendar.GET("/weeks/current", deps.calendar.CurrentWeek)
	calendar.GET("/weeks/recent", deps.calendar.RecentWeeks)
	calendar.GET("/weeks/:year/:week", deps.calendar.WeekRange)
	calendar.GET("/periods", deps.calendar.Period)

	compliance := secured.Group("/compliance")
	compliance.GET("/dashboard", middleware.Reviewers(), deps.compliance.Dashboard)
	compliance.GET("/facilities/:id", middleware.RBAC(
		string(models.RoleSuperAdmin), string(models.RoleAdmin), string(models.RolePHOUser), middleware.OwnFacility,
	), deps.compliance.Facility)
	compliance.GET("/deadlines", deps.compliance.Deadlines)

	submissions := secured.Group("/submissions")
	submissions.GET("", deps.submissions.List)
	submissions.POST("/:id/review", middleware.Reviewers(), deps.submissions.Review)

	if deps.reports != nil {
		reports := secured.Group("/reports", middleware.Reviewers())
		reports.POST("/generate", deps.reports.GenerateReport)
		reports.GET("/status/:id", deps.reports.ReportStatus)
	}

	admin := secured.Group("", middleware.Administrators())
	admin.GET("/users", deps.users.List)
	admin.GET("/users/:id", deps.users.Get)
	admin.GET("/metrics/system", deps.system.System)

	return r
}
