package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"gopkg.in/natefinch/lumberjack.v2"

	"homewatch/internal/actuator"
	"homewatch/internal/alert"
	"homewatch/internal/api"
	"homewatch/internal/bus"
	"homewatch/internal/config"
	"homewatch/internal/loop"
	"homewatch/internal/report"
	"homewatch/internal/sensor"
)

func main() {
	_ = godotenv.Load()
	bootLogger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	configPath := getenv("CONFIG_PATH", "agent.yaml")
	cfg, err := config.Load(configPath)
	if err != nil {
		bootLogger.Error("failed to load config", slog.String("path", configPath), slog.String("error", err.Error()))
		os.Exit(1)
	}
	applyEnvOverrides(&cfg)

	logger := buildLogger(cfg.Log)
	logger.Info("starting agent", slog.String("device", cfg.Device), slog.String("sink", cfg.Report.Sink))

	channels, err := cfg.BuildChannels()
	if err != nil {
		logger.Error("failed to build channels", slog.String("error", err.Error()))
		os.Exit(1)
	}
	reader := sensor.NewReader(channels, cfg.ChannelTimeout(), logger)
	evaluator := alert.NewEvaluator(cfg.Rules, cfg.WindowSize)

	sink, cleanup, err := buildSink(cfg)
	if err != nil {
		logger.Error("failed to configure sink", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer cleanup()

	queue := report.NewQueue(cfg.Report.QueueSize)
	reporter := report.NewReporter(
		queue,
		sink,
		cfg.Report.Attempts,
		time.Duration(cfg.Report.BackoffMillis)*time.Millisecond,
		time.Duration(cfg.Report.TimeoutMillis)*time.Millisecond,
		logger,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go reporter.Run(ctx)

	if cfg.Commands.Enabled {
		subscriber, err := startCommandListener(cfg, logger)
		if err != nil {
			logger.Error("failed to start command listener", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer subscriber.Close()
	}

	controlLoop := loop.New(reader, evaluator, reporter, cfg.PollInterval(), logger)
	go controlLoop.Run(ctx)

	go startAdminServer(cfg.Admin, &api.Handler{
		Reader:    reader,
		Loop:      controlLoop,
		Reporter:  reporter,
		Evaluator: evaluator,
		StartedAt: time.Now().UTC(),
	}, logger)

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
	<-shutdown
	logger.Info("shutting down")
	cancel()
}

func buildLogger(cfg config.LogConfig) *slog.Logger {
	var out io.Writer = os.Stdout
	if cfg.File != "" {
		out = &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
		}
	}
	return slog.New(slog.NewJSONHandler(out, nil))
}

func buildSink(cfg config.Config) (report.Sink, func(), error) {
	switch cfg.Report.Sink {
	case "nats":
		publisher, err := bus.NewPublisher(cfg.Report.NATS.URL)
		if err != nil {
			return nil, nil, err
		}
		return &report.NATSSink{Publisher: publisher, Subject: cfg.Report.NATS.Subject}, publisher.Close, nil
	case "http":
		return report.NewHTTPSink(cfg.Report.HTTP.Endpoint, cfg.Report.HTTP.Token), func() {}, nil
	case "influx":
		influx := cfg.Report.Influx
		sink := report.NewInfluxSink(influx.URL, influx.Token, influx.Org, influx.Bucket, influx.Measurement, cfg.Device)
		return sink, sink.Close, nil
	default:
		return nil, nil, fmt.Errorf("unsupported sink %q", cfg.Report.Sink)
	}
}

func startCommandListener(cfg config.Config, logger *slog.Logger) (*bus.Subscriber, error) {
	subscriber, err := bus.NewSubscriber(cfg.Commands.NATSURL)
	if err != nil {
		return nil, err
	}
	controller := &actuator.Controller{Logger: logger}
	if cfg.Commands.BuzzerPath != "" {
		controller.Buzzer = &actuator.Buzzer{Out: actuator.FileOutput{Path: cfg.Commands.BuzzerPath}}
	}
	if cfg.Commands.ServoPath != "" {
		controller.Servo = actuator.NewServo(actuator.FileOutput{Path: cfg.Commands.ServoPath})
	}
	if err := controller.Listen(subscriber); err != nil {
		subscriber.Close()
		return nil, err
	}
	return subscriber, nil
}

func startAdminServer(cfg config.AdminConfig, handler *api.Handler, logger *slog.Logger) {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(10 * time.Second))
	r.Use(api.BearerAuth(cfg.JWTSecret))

	handler.RegisterRoutes(r)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       30 * time.Second,
	}

	logger.Info("admin server listening", slog.String("port", cfg.Port))
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("admin server error", slog.String("error", err.Error()))
	}
}

func applyEnvOverrides(cfg *config.Config) {
	cfg.Report.NATS.URL = getenv("NATS_URL", cfg.Report.NATS.URL)
	cfg.Commands.NATSURL = getenv("NATS_URL", cfg.Commands.NATSURL)
	cfg.Admin.Port = getenv("ADMIN_PORT", cfg.Admin.Port)
	cfg.Admin.JWTSecret = getenv("ADMIN_JWT_SECRET", cfg.Admin.JWTSecret)
	cfg.Report.HTTP.Token = getenv("COLLECTOR_TOKEN", cfg.Report.HTTP.Token)
	cfg.Report.Influx.Token = getenv("INFLUXDB_TOKEN", cfg.Report.Influx.Token)
}

func getenv(key, fallback string) string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	return val
}
