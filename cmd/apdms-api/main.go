package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	_ "time/tzdata"

	_ "github.com/JusticeBelleza/apdms-portal-sub000/api/swagger"
	"github.com/JusticeBelleza/apdms-portal-sub000/internal/handler"
	"github.com/JusticeBelleza/apdms-portal-sub000/internal/repository"
	"github.com/JusticeBelleza/apdms-portal-sub000/internal/service"
	"github.com/JusticeBelleza/apdms-portal-sub000/pkg/cache"
	"github.com/JusticeBelleza/apdms-portal-sub000/pkg/config"
	"github.com/JusticeBelleza/apdms-portal-sub000/pkg/database"
	"github.com/JusticeBelleza/apdms-portal-sub000/pkg/events"
	"github.com/JusticeBelleza/apdms-portal-sub000/pkg/export"
	"github.com/JusticeBelleza/apdms-portal-sub000/pkg/jobs"
	"github.com/JusticeBelleza/apdms-portal-sub000/pkg/logger"
	"github.com/JusticeBelleza/apdms-portal-sub000/pkg/storage"
)

// @title APDMS Portal API
// @version 1.0.0
// @description Compliance, morbidity calendar and reporting API for the provincial disease surveillance portal.
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if err := run(cfg, logr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}

func run(cfg *config.Config, logr *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer db.Close()

	metrics := service.NewMetricsService()
	validate := validator.New()

	var (
		cacheRepo   service.CacheRepository
		redisClient *redis.Client
	)
	if cfg.Compliance.CacheEnabled {
		redisClient, err = cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, compliance cache disabled", zap.Error(err))
		} else {
			defer redisClient.Close()
			cacheRepo = repository.NewCacheRepository(redisClient, logr)
		}
	}
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Compliance.CacheTTL, logr, cfg.Compliance.CacheEnabled)

	userRepo := repository.NewUserRepository(db)
	programRepo := repository.NewProgramRepository(db)
	facilityRepo := repository.NewFacilityRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)

	complianceSvc := service.NewComplianceService(service.ComplianceServiceParams{
		Submissions: submissionRepo,
		Programs:    programRepo,
		Facilities:  facilityRepo,
		Users:       userRepo,
		Cache:       cacheSvc,
		Metrics:     metrics,
		Logger:      logr,
		Config:      service.ComplianceServiceConfig{CacheTTL: cfg.Compliance.CacheTTL, Location: loc},
	})
	calendarSvc := service.NewCalendarService(loc, nil, logr)
	authSvc := service.NewAuthService(logr, service.AuthConfig{AccessTokenSecret: cfg.JWT.Secret, Issuer: cfg.JWT.Issuer})
	userSvc := service.NewUserService(userRepo, validate, logr)

	var publisher *events.Publisher
	if cfg.Kafka.Enabled() {
		publisher = events.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.ReviewsTopic, logr)
		defer publisher.Close() //nolint:errcheck
		startChangeFeed(ctx, cfg.Kafka, complianceSvc, metrics, logr)
	}

	submissionParams := service.SubmissionServiceParams{
		Repo:       submissionRepo,
		Compliance: complianceSvc,
		Metrics:    metrics,
		Validator:  validate,
		Logger:     logr,
		Location:   loc,
	}
	if publisher != nil {
		submissionParams.Publisher = publisher
	}
	submissionSvc := service.NewSubmissionService(submissionParams)

	deps := routeDeps{
		cfg:         cfg,
		logger:      logr,
		metrics:     metrics,
		auth:        authSvc,
		calendar:    handler.NewCalendarHandler(calendarSvc, validate),
		compliance:  handler.NewComplianceHandler(complianceSvc),
		submissions: handler.NewSubmissionHandler(submissionSvc),
		users:       handler.NewUserHandler(userSvc),
	}

	checks := map[string]handler.ReadinessCheck{
		"postgres": func(ctx context.Context) error { return db.PingContext(ctx) },
	}
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}

	var queueDepth func() int
	if cfg.Reports.Enabled {
		reports, queue, err := startReports(ctx, cfg, db, programRepo, submissionRepo, metrics, validate, loc, logr)
		if err != nil {
			return err
		}
		defer queue.Stop()
		deps.reports = handler.NewReportHandler(reports, logr)
		queueDepth = queue.Pending
	}
	deps.system = handler.NewMetricsHandler(metrics, checks, queueDepth)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           newRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "timezone", loc.String())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// startChangeFeed consumes submission changes and drops cached compliance on each one.
func startChangeFeed(ctx context.Context, cfg config.KafkaConfig, compliance *service.ComplianceService, metrics *service.MetricsService, logr *zap.Logger) {
	consumer := events.NewConsumer(events.ConsumerConfig{
		Brokers: cfg.Brokers,
		Topic:   cfg.SubmissionsTopic,
		GroupID: cfg.GroupID,
		Observe: func(err error) { metrics.RecordEvent("in", err) },
	}, func(ctx context.Context, event events.SubmissionEvent) error {
		logr.Debug("submission changed", zap.String("type", event.Type), zap.String("submission_id", event.SubmissionID))
		return compliance.Invalidate(ctx)
	}, logr)

	go func() {
		defer consumer.Close() //nolint:errcheck
		if err := consumer.Run(ctx); err != nil {
			logr.Error("submission change feed stopped", zap.Error(err))
		}
	}()
}

func startReports(
	ctx context.Context,
	cfg *config.Config,
	db *sqlx.DB,
	programs *repository.ProgramRepository,
	submissions *repository.SubmissionRepository,
	metrics *service.MetricsService,
	validate *validator.Validate,
	loc *time.Location,
	logr *zap.Logger,
) (*service.ReportService, *jobs.Queue, error) {
	blobs, err := newBlobStore(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	exporter := service.NewExportService(service.ExportServiceParams{
		Programs:    programs,
		Submissions: submissions,
		Storage:     blobs,
		Signer:      storage.NewSignedURLSigner(cfg.Reports.SignedURLSecret, cfg.Reports.SignedURLTTL),
		CSV:         export.NewCSVExporter(),
		PDF:         export.NewPDFExporter(),
		Logger:      logr,
		Config: service.ExportConfig{
			APIPrefix: cfg.APIPrefix,
			ResultTTL: cfg.Reports.SignedURLTTL,
			Location:  loc,
		},
	})

	reportRepo := repository.NewReportRepository(db)
	worker := service.NewReportWorker(reportRepo, exporter, metrics, cfg.Reports.WorkerRetries, logr)
	queue := jobs.NewQueue("reports", worker.Handle, jobs.QueueConfig{
		Workers:    cfg.Reports.WorkerConcurrency,
		MaxRetries: cfg.Reports.WorkerRetries,
		Logger:     logr,
	})
	queue.Start(ctx)

	reports := service.NewReportService(reportRepo, programs, queue, exporter, validate, logr, service.ReportServiceConfig{
		ResultTTL:       cfg.Reports.SignedURLTTL,
		CleanupInterval: cfg.Reports.CleanupInterval,
		MaxRetries:      cfg.Reports.WorkerRetries,
		Location:        loc,
	})
	reports.RecoverPendingJobs(ctx)
	reports.StartCleanup(ctx)
	return reports, queue, nil
}

func newBlobStore(ctx context.Context, cfg *config.Config) (storage.BlobStore, error) {
	switch cfg.Storage.Driver {
	case config.StorageDriverS3:
		store, err := storage.NewS3Storage(ctx, storage.S3Config{
			Bucket:       cfg.Storage.S3Bucket,
			Prefix:       cfg.Storage.S3Prefix,
			Region:       cfg.Storage.S3Region,
			Endpoint:     cfg.Storage.S3Endpoint,
			UsePathStyle: cfg.Storage.S3UsePathStyle,
		})
		if err != nil {
			return nil, fmt.Errorf("init s3 storage: %w", err)
		}
		return store, nil
	default:
		store, err := storage.NewLocalStorage(cfg.Reports.StorageDir)
		if err != nil {
			return nil, fmt.Errorf("init local storage: %w", err)
		}
		return store, nil
	}
}
