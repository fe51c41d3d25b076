package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/kelas-go-api/internal/config"
	"github.com/noah-isme/kelas-go-api/internal/database"
	"github.com/noah-isme/kelas-go-api/internal/handler"
	"github.com/noah-isme/kelas-go-api/internal/middleware"
	"github.com/noah-isme/kelas-go-api/internal/models"
	"github.com/noah-isme/kelas-go-api/internal/repository"
	"github.com/noah-isme/kelas-go-api/internal/router"
	"github.com/noah-isme/kelas-go-api/internal/scheduler"
	"github.com/noah-isme/kelas-go-api/internal/service"
)

const helpScanJobKey = "help-reconciler"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.Student{},
		&models.Teacher{},
		&models.Class{},
		&models.ClassEnrollment{},
		&models.Assignment{},
		&models.AssignmentTarget{},
		&models.Question{},
		&models.QuestionProgress{},
		&models.StudentStatistic{},
		&models.StudentHelpRecord{},
		&models.HelpRecordClass{},
		&models.HelpRecordTeacher{},
	); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(cfg.RedisURL)
		if err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		defer redisClient.Close()
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL)
		if err != nil {
			log.Fatalf("failed to connect to nats: %v", err)
		}
		defer natsConn.Close()
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	studentRepo := repository.NewStudentRepository(db)
	classRepo := repository.NewClassRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	progressRepo := repository.NewProgressRepository(db)
	statisticRepo := repository.NewStatisticRepository(db)
	helpRecordRepo := repository.NewHelpRecordRepository(db)

	reconciler := service.NewHelpReconciler(studentRepo, classRepo, assignmentRepo, statisticRepo, helpRecordRepo, natsConn, redisClient, logger)
	feedService := service.NewHelpFeedService(helpRecordRepo, redisClient, cfg.HelpFeedCacheTTL, logger)
	gradingService := service.NewGradingService(progressRepo, assignmentRepo, statisticRepo, reconciler, validate, logger)

	helpHandler := handler.NewHelpHandler(reconciler, feedService, logger)
	gradingHandler := handler.NewGradingHandler(gradingService, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		HelpHandler:    helpHandler,
		GradingHandler: gradingHandler,
		JWTMiddleware:  middleware.JWTProtected(cfg.JWTSecret),
	})

	jobCtx, cancelJobs := context.WithCancel(context.Background())
	defer cancelJobs()

	supervisor := scheduler.New(logger)
	if err := supervisor.Register(helpScanJobKey, cfg.HelpScanInterval, func(ctx context.Context) {
		if _, err := reconciler.RunBatch(ctx); err != nil {
			logger.Error().Err(err).Msg("scheduled help scan failed")
		}
	}); err != nil {
		log.Fatalf("failed to register help scan job: %v", err)
	}
	supervisor.StartAll(jobCtx)
	defer supervisor.StopAll()

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
