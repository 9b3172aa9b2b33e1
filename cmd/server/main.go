// Package main is the entry point for the API server.
// It loads configuration, connects postgres and redis, wires the services
// and handlers, starts the scheduler and serves HTTP until interrupted.
package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"dcip/internal/config"
	"dcip/internal/handlers"
	"dcip/internal/logger"
	"dcip/internal/middleware"
	"dcip/internal/repositories"
	"dcip/internal/repositories/cache"
	"dcip/internal/routes"
	"dcip/internal/services/assignment"
	"dcip/internal/services/auth"
	"dcip/internal/services/employee"
	"dcip/internal/services/notification"
	"dcip/internal/services/otp"
	"dcip/internal/services/policy"
	"dcip/internal/services/property"
	"dcip/internal/services/reset"
	"dcip/internal/services/scheduler"
	"dcip/internal/services/surveyor"
	"dcip/internal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"go.uber.org/zap"
)

func main() {
	config.LoadEnv()
	cfg := config.Load()

	log := logger.Init(logger.Options{File: cfg.LogFile, Production: cfg.Env == "production"})
	defer logger.Sync()

	if err := repositories.InitDB(cfg, log); err != nil {
		log.Fatal("failed to initialize storage", zap.Error(err))
	}
	defer repositories.Close()

	db := repositories.DB
	userRepo := repositories.NewUserRepository(db)
	employeeRepo := repositories.NewEmployeeRepository(db)
	refRepo := repositories.NewReferenceRepository(db)
	otpRepo := repositories.NewOTPRepository(db)
	propertyRepo := repositories.NewPropertyRepository(db)
	policyRepo := repositories.NewPolicyRepository(db)
	surveyorRepo := repositories.NewSurveyorRepository(db)
	assignmentRepo := repositories.NewAssignmentRepository(db)
	reportRepo := repositories.NewReportRepository(db)

	principalCache := repositories.CacheService
	attempts := cache.NewAttemptCounter(principalCache.Client())
	tokens := utils.NewTokenIssuer(cfg.JWTSecret, cfg.AccessTokenTTL)

	notifier := notification.NewService(notification.NewMailer(cfg.SMTP, log), log)
	otpService := otp.NewService(otpRepo, attempts, notifier, cfg.OTP, log)
	authService := auth.NewService(userRepo, employeeRepo, otpService, tokens, principalCache, log)
	resetService := reset.NewService(userRepo, employeeRepo, otpService, principalCache, log)
	employeeService := employee.NewService(employeeRepo, userRepo, refRepo, notifier, principalCache, log)
	surveyorService := surveyor.NewService(surveyorRepo, employeeRepo, userRepo, refRepo, notifier, principalCache, log)
	propertyService := property.NewService(propertyRepo, refRepo, log)
	policyService := policy.NewService(policyRepo, propertyRepo, log)
	assignmentService := assignment.NewService(
		assignmentRepo,
		reportRepo,
		policyRepo,
		surveyorRepo,
		userRepo,
		notifier,
		cfg.Scheduler,
		log,
	)
	jobs := scheduler.New(otpService, assignmentService, cfg.Scheduler.Interval, log)

	app := fiber.New(fiber.Config{
		AppName:      "dcip",
		ErrorHandler: middleware.ErrorHandler(log),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "[${time}] ${locals:requestid} ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.TrimSpace(cfg.CORSOrigins),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, " + middleware.APIKeyHeader,
		AllowMethods: "GET,POST,HEAD,PUT,DELETE,PATCH",
	}))

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatal("failed to get database instance", zap.Error(err))
	}

	routes.SetupRoutes(app, routes.Handlers{
		Auth:          handlers.NewAuthHandler(authService),
		PasswordReset: handlers.NewPasswordResetHandler(resetService),
		Employee:      handlers.NewEmployeeHandler(employeeService),
		Property:      handlers.NewPropertyHandler(propertyService),
		Policy:        handlers.NewPolicyHandler(policyService, assignmentService),
		Surveyor:      handlers.NewSurveyorHandler(surveyorService),
		Report:        handlers.NewReportHandler(assignmentService),
		Scheduler:     handlers.NewSchedulerHandler(jobs),
		Health: handlers.NewHealthHandler(map[string]handlers.Pinger{
			"database": handlers.PingFunc(sqlDB.PingContext),
			"redis":    principalCache,
		}),
	}, middleware.NewAuthMiddleware(tokens, authService, log), routes.Config{
		APIKey:   cfg.APIKey,
		OTPLimit: cfg.OTPRateLimit,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go jobs.Start(ctx)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Error("server stopped", zap.Error(err))
			stop()
		}
	}()
	log.Info("server listening", zap.String("port", cfg.Port), zap.String("env", cfg.Env))

	<-ctx.Done()
	log.Info("shutting down")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
	}
}
