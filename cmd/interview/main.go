package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"

	"github.com/noah-isme/gema-interview-api/internal/bootstrap"
	"github.com/noah-isme/gema-interview-api/internal/config"
	"github.com/noah-isme/gema-interview-api/internal/console"
	"github.com/noah-isme/gema-interview-api/internal/repository"
	"github.com/noah-isme/gema-interview-api/internal/service"
)

type options struct {
	questions int
	topic     string
	static    bool
	logFile   string
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := options{}

	cmd := &cobra.Command{
		Use:   "interview",
		Short: "Run a mock interview in the terminal",
		Long: `interview asks a short series of generated questions, evaluates each answer
and finishes with a score and a hiring recommendation.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, opts)
		},
	}

	cmd.Flags().IntVar(&opts.questions, "questions", 0, "number of questions to ask (default from config)")
	cmd.Flags().StringVar(&opts.topic, "topic", "", "interview topic (default from config)")
	cmd.Flags().BoolVar(&opts.static, "static", false, "use the built-in question list instead of generated questions")
	cmd.Flags().StringVar(&opts.logFile, "log-file", filepath.Join("logs", "interview.log"), "path of the rotating log file")

	return cmd
}

func run(cmd *cobra.Command, opts options) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	if opts.questions > 0 {
		cfg.Interview.QuestionCount = opts.questions
	}
	if opts.topic != "" {
		cfg.Interview.Topic = opts.topic
	}
	if opts.static {
		cfg.Interview.QuestionSource = config.QuestionSourceStatic
	}

	if err := os.MkdirAll(filepath.Dir(opts.logFile), 0o755); err != nil {
		return fmt.Errorf("create log directory: %w", err)
	}
	logWriter := &lumberjack.Logger{
		Filename:   opts.logFile,
		MaxSize:    10,
		MaxBackups: 3,
		MaxAge:     28,
		Compress:   true,
	}
	defer logWriter.Close()

	logger := zerolog.New(logWriter).With().Timestamp().Str("app", cfg.AppName).Logger().
		Level(bootstrap.ParseLevel(cfg.LogLevel))

	engine, err := bootstrap.NewEngine(cfg, nil, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	svc := service.NewInterviewService(
		repository.NewSessionRepository(0, logger),
		nil,
		engine.Controller,
		nil,
		validator.New(validator.WithRequiredStructEnabled()),
		service.InterviewServiceConfig{Topic: cfg.Interview.Topic, Provider: engine.Provider},
		logger,
	)

	_, err = console.NewRunner(svc, cmd.InOrStdin(), cmd.OutOrStdout(), logger).Run(ctx)
	if errors.Is(err, console.ErrQuit) {
		fmt.Fprintln(cmd.OutOrStdout(), "\nInterview ended early.")
		return nil
	}
	return err
}
