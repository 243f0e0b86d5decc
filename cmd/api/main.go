package main

import (
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/classhub/school-api/api/swagger"
	"github.com/classhub/school-api/internal/handler"
	"github.com/classhub/school-api/internal/middleware"
	"github.com/classhub/school-api/internal/models"
	"github.com/classhub/school-api/internal/repository"
	"github.com/classhub/school-api/internal/service"
	"github.com/classhub/school-api/pkg/cache"
	"github.com/classhub/school-api/pkg/codegen"
	"github.com/classhub/school-api/pkg/config"
	"github.com/classhub/school-api/pkg/database"
	"github.com/classhub/school-api/pkg/export"
	"github.com/classhub/school-api/pkg/logger"
	corsmiddleware "github.com/classhub/school-api/pkg/middleware/cors"
	reqidmiddleware "github.com/classhub/school-api/pkg/middleware/requestid"
)

// @title ClassHub School API
// @version 1.0.0
// @description Timetable and roster management API with conflict-checked schedule mutations.
// @BasePath /api/v1
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	metricsSvc := service.NewMetricsService()

	cacheSvc := service.NewCacheService(nil, metricsSvc, cfg.Cache.TTL, logr, false)
	if cfg.Cache.Enabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, continuing without cache", "error", err)
		} else {
			defer redisClient.Close()
			cacheSvc = service.NewCacheService(repository.NewCacheRepository(redisClient), metricsSvc, cfg.Cache.TTL, logr, true)
		}
	}

	// Repositories.
	scheduleRepo := repository.NewScheduleRepository(db)
	teacherRepo := repository.NewTeacherRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	classRepo := repository.NewClassRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	termRepo := repository.NewTermRepository(db)
	userRepo := repository.NewUserRepository(db)

	// Services.
	codes := codegenFromConfig(cfg)
	classifier := service.NewConflictClassifier(service.PolicyFromSeverity(cfg.Schedule.SectionOverlapSeverity))
	scheduleSvc := service.NewScheduleService(scheduleRepo, termRepo, classifier, codes, cfg.Schedule.JoinCodeLength, cacheSvc, metricsSvc, nil, logr)
	teacherSvc := service.NewTeacherService(teacherRepo, codes, nil, logr)
	studentSvc := service.NewStudentService(studentRepo, classRepo, codes, nil, logr)
	classSvc := service.NewClassService(classRepo, teacherRepo, nil, logr)
	subjectSvc := service.NewSubjectService(subjectRepo, nil, logr)
	termSvc := service.NewTermService(termRepo, nil, logr)
	exportSvc := service.NewExportService(scheduleRepo, export.NewCSVExporter(), export.NewPDFExporter(), logr)
	authSvc := service.NewAuthService(userRepo, nil, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "classhub-school-api",
	})

	// Handlers.
	scheduleHandler := handler.NewScheduleHandler(scheduleSvc)
	teacherHandler := handler.NewTeacherHandler(teacherSvc)
	studentHandler := handler.NewStudentHandler(studentSvc)
	classHandler := handler.NewClassHandler(classSvc)
	subjectHandler := handler.NewSubjectHandler(subjectSvc)
	termHandler := handler.NewTermHandler(termSvc)
	exportHandler := handler.NewExportHandler(exportSvc)
	authHandler := handler.NewAuthHandler(authSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc, db)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

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

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
		auth.POST("/logout", middleware.JWT(authSvc), authHandler.Logout)
		auth.GET("/me", middleware.JWT(authSvc), authHandler.Me)
	}

	protected := api.Group("")
	protected.Use(middleware.JWT(authSvc))

	staff := middleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin)
	anyRole := middleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin, models.RoleTeacher, models.RoleStudent)

	schedules := protected.Group("/schedules")
	{
		schedules.GET("", anyRole, scheduleHandler.List)
		schedules.GET("/:id", anyRole, scheduleHandler.Get)
		schedules.POST("/check", staff, scheduleHandler.Check)
		schedules.POST("", staff, scheduleHandler.Create)
		schedules.PUT("/:id", staff, scheduleHandler.Update)
		schedules.DELETE("/:id", staff, scheduleHandler.Delete)
	}

	teachers := protected.Group("/teachers")
	{
		teachers.GET("", anyRole, teacherHandler.List)
		teachers.GET("/:id", anyRole, teacherHandler.Get)
		teachers.GET("/:id/schedules", anyRole, scheduleHandler.ListByTeacher)
		teachers.POST("", staff, teacherHandler.Create)
		teachers.PUT("/:id", staff, teacherHandler.Update)
		teachers.DELETE("/:id", staff, teacherHandler.Deactivate)
	}

	students := protected.Group("/students")
	{
		students.GET("", staff, studentHandler.List)
		students.GET("/:id", middleware.RBAC(string(models.RoleSuperAdmin), string(models.RoleAdmin), string(models.RoleTeacher), "SELF"), studentHandler.Get)
		students.POST("", staff, studentHandler.Create)
		students.PUT("/:id", staff, studentHandler.Update)
		students.DELETE("/:id", staff, studentHandler.Deactivate)
	}

	classes := protected.Group("/classes")
	{
		classes.GET("", anyRole, classHandler.List)
		classes.GET("/:id", anyRole, classHandler.Get)
		classes.GET("/:id/schedules", anyRole, scheduleHandler.ListByClass)
		classes.POST("", staff, classHandler.Create)
		classes.PUT("/:id", staff, classHandler.Update)
		classes.DELETE("/:id", staff, classHandler.Delete)
	}

	subjects := protected.Group("/subjects")
	{
		subjects.GET("", anyRole, subjectHandler.List)
		subjects.GET("/:id", anyRole, subjectHandler.Get)
		subjects.POST("", staff, subjectHandler.Create)
		subjects.PUT("/:id", staff, subjectHandler.Update)
		subjects.DELETE("/:id", staff, subjectHandler.Delete)
	}

	terms := protected.Group("/terms")
	{
		terms.GET("", anyRole, termHandler.List)
		terms.GET("/active", anyRole, termHandler.ListActive)
		terms.GET("/:id", anyRole, termHandler.Get)
		terms.POST("", staff, termHandler.Create)
		terms.PUT("/:id", staff, termHandler.Update)
		terms.POST("/:id/activate", staff, termHandler.Activate)
		terms.POST("/:id/deactivate", staff, termHandler.Deactivate)
		terms.DELETE("/:id", staff, termHandler.Delete)
	}

	exports := protected.Group("/exports")
	{
		exports.GET("/classes/:id/timetable", anyRole, exportHandler.ClassTimetable)
		exports.GET("/teachers/:id/timetable", anyRole, exportHandler.TeacherTimetable)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}

func codegenFromConfig(cfg *config.Config) *codegen.Generator {
	return codegen.New(cfg.Schedule.CodeMaxAttempts)
}
