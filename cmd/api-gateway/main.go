package main

import (
	"context"
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/campusdata/sga-enroll-api/api/swagger"
	"github.com/campusdata/sga-enroll-api/internal/handler"
	"github.com/campusdata/sga-enroll-api/internal/middleware"
	"github.com/campusdata/sga-enroll-api/internal/models"
	"github.com/campusdata/sga-enroll-api/internal/repository"
	"github.com/campusdata/sga-enroll-api/internal/service"
	"github.com/campusdata/sga-enroll-api/pkg/cache"
	"github.com/campusdata/sga-enroll-api/pkg/config"
	"github.com/campusdata/sga-enroll-api/pkg/database"
	"github.com/campusdata/sga-enroll-api/pkg/jobs"
	"github.com/campusdata/sga-enroll-api/pkg/logger"
	corsmiddleware "github.com/campusdata/sga-enroll-api/pkg/middleware/cors"
	reqidmiddleware "github.com/campusdata/sga-enroll-api/pkg/middleware/requestid"
)

// @title SGA Enrollment API
// @version 1.0.0
// @description Subject-enrollment eligibility service for academic administration
// @BasePath /
// @schemes http
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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, eligibility cache disabled", "error", err)
		redisClient = nil
	}

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	var cacheSvc *service.CacheService
	if redisClient != nil {
		cacheRepo := repository.NewCacheRepository(redisClient, logr)
		cacheSvc = service.NewCacheService(cacheRepo, metricsSvc, cfg.Eligibility.CacheTTL, logr, cfg.Eligibility.CacheEnabled)
	}

	subjectRepo := repository.NewSubjectRepository(db)
	recordRepo := repository.NewAcademicRecordRepository(db)
	windowRepo := repository.NewEnrollmentWindowRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	userRepo := repository.NewUserRepository(db)

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "sga-enroll-api",
		Audience:           []string{"sga-enroll"},
	})
	eligibilitySvc := service.NewEligibilityService(subjectRepo, recordRepo, windowRepo, enrollmentRepo, cacheSvc, metricsSvc, cfg.Eligibility.CacheTTL, logr)
	if cacheSvc.Enabled() {
		warmQueue := jobs.NewQueue("eligibility-warm", func(ctx context.Context, job jobs.Job) error {
			studentID, ok := job.Payload.(int64)
			if !ok {
				return fmt.Errorf("unexpected payload %T", job.Payload)
			}
			_, err := eligibilitySvc.Report(ctx, studentID, nil, nil)
			return err
		}, jobs.QueueConfig{Workers: 2, Logger: logr})
		warmQueue.Start(context.Background())
		defer warmQueue.Stop()
		eligibilitySvc.SetWarmQueue(warmQueue)
	}
	enrollmentSvc := service.NewEnrollmentService(enrollmentRepo, subjectRepo, windowRepo, eligibilitySvc, validate, logr)
	windowSvc := service.NewWindowService(windowRepo, validate, logr)
	subjectSvc := service.NewSubjectService(subjectRepo, validate, logr)
	importSvc := service.NewImportService(subjectSvc, logr)

	authHandler := handler.NewAuthHandler(authSvc)
	eligibilityHandler := handler.NewEligibilityHandler(eligibilitySvc)
	enrollmentHandler := handler.NewEnrollmentHandler(enrollmentSvc)
	subjectHandler := handler.NewSubjectHandler(subjectSvc)
	windowHandler := handler.NewWindowHandler(windowSvc)
	importHandler := handler.NewImportHandler(importSvc, cfg.Imports.Enabled, cfg.Imports.MaxSizeBytes)
	metricsHandler := handler.NewMetricsHandler(metricsSvc, db)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	auth := r.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
		auth.POST("/logout", middleware.JWT(authSvc), authHandler.Logout)
		auth.GET("/me", middleware.JWT(authSvc), authHandler.Me)
	}

	api := r.Group("/", middleware.JWT(authSvc))
	{
		staff := middleware.RequireRoles(models.RoleAdmin, models.RoleStaff)
		staffOrSelf := middleware.RBAC(string(models.RoleAdmin), string(models.RoleStaff), middleware.SelfScope)

		api.GET("/students/:id/eligibility", staffOrSelf, eligibilityHandler.Report)

		api.GET("/subjects", subjectHandler.List)
		api.GET("/subjects/:id", subjectHandler.Get)
		api.POST("/subjects", staff, subjectHandler.Create)
		api.PUT("/subjects/:id", staff, subjectHandler.Update)

		api.GET("/windows", windowHandler.List)
		api.GET("/windows/current", windowHandler.Current)
		api.GET("/windows/:id", windowHandler.Get)
		api.POST("/windows", staff, windowHandler.Create)
		api.PUT("/windows/:id", staff, windowHandler.Update)
		api.PUT("/windows/:id/activation", staff, windowHandler.Activate)

		api.GET("/enrollments", enrollmentHandler.List)
		api.POST("/enrollments", enrollmentHandler.Create)
		api.GET("/enrollments/export", staff, enrollmentHandler.Export)
		api.GET("/enrollments/:id", enrollmentHandler.Get)
		api.DELETE("/enrollments/:id", enrollmentHandler.Drop)
		api.PUT("/enrollments/:id/resolution", staff, enrollmentHandler.Resolve)

		api.POST("/imports/subjects", staff, importHandler.Subjects)

		api.GET("/status", staff, metricsHandler.Status)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
