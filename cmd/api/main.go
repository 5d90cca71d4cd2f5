package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-interview-api/internal/bootstrap"
	"github.com/noah-isme/gema-interview-api/internal/config"
	"github.com/noah-isme/gema-interview-api/internal/database"
	"github.com/noah-isme/gema-interview-api/internal/handler"
	"github.com/noah-isme/gema-interview-api/internal/middleware"
	"github.com/noah-isme/gema-interview-api/internal/repository"
	"github.com/noah-isme/gema-interview-api/internal/router"
	"github.com/noah-isme/gema-interview-api/internal/service"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}
	logger = logger.Level(bootstrap.ParseLevel(cfg.LogLevel))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(ctx, cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer redisClient.Close()
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL, cfg.AppName)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to nats")
		}
		defer natsConn.Close()
	}

	var reportRepo repository.ReportRepository
	if cfg.DatabaseURL != "" {
		db, err := database.Connect(cfg.DatabaseURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to database")
		}
		if err := database.Migrate(db); err != nil {
			logger.Fatal().Err(err).Msg("failed to migrate database")
		}
		reportRepo = repository.NewReportRepository(db)
	} else {
		logger.Warn().Msg("no database configured, interview reports will not be archived")
	}

	engine, err := bootstrap.NewEngine(cfg, redisClient, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure interview engine")
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	sessionRepo := repository.NewSessionRepository(cfg.Interview.SessionTTL, logger)
	sessionRepo.Start(ctx)

	events := service.NewInterviewEventPublisher(redisClient, cfg.EventsChannel, natsConn, logger)
	interviewService := service.NewInterviewService(sessionRepo, reportRepo, engine.Controller, events, validate, service.InterviewServiceConfig{
		Topic:    cfg.Interview.Topic,
		Provider: engine.Provider,
	}, logger)
	reportService := service.NewReportService(reportRepo, validate, logger)

	deps := router.Dependencies{
		InterviewHandler: handler.NewInterviewHandler(interviewService, handler.InterviewHandlerOptions{
			AnswerRateLimit:  cfg.Interview.AnswerRateLimit,
			AnswerRateWindow: cfg.Interview.AnswerRateWindow,
		}, logger),
		SocketHandler: handler.NewInterviewSocketHandler(interviewService, validate, logger),
		ReportHandler: handler.NewReportHandler(reportService, logger),
		Sessions:      sessionRepo,
	}
	if cfg.JWTSecret != "" {
		deps.JWTMiddleware = middleware.JWTProtected(cfg.JWTSecret)
	} else {
		logger.Warn().Msg("JWT secret not set, report endpoints are disabled")
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{
		Logger:       &logger,
		AllowOrigins: cfg.CORSOrigins,
		AccessLog:    cfg.AppEnv == "development",
	})
	router.Register(app, cfg, deps)

	go func() {
		logger.Info().
			Str("address", cfg.HTTPAddress()).
			Str("ai_provider", engine.Provider).
			Str("question_source", cfg.Interview.QuestionSource).
			Msg("interview api listening")
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	waitForShutdown(app, logger)
}

func waitForShutdown(app *fiber.App, logger zerolog.Logger) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	logger.Info().Msg("server stopped")
}
