package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aescanero/predictd/internal/application/prediction"
	"github.com/aescanero/predictd/internal/config"
	"github.com/aescanero/predictd/pkg/adapters/metrics/prometheus"
	"github.com/aescanero/predictd/pkg/adapters/model"
	"github.com/aescanero/predictd/pkg/api/http"
	"github.com/aescanero/predictd/pkg/ports"

	promclient "github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Version is set by build flags
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger := initLogger(cfg.LogLevel)
	defer func() { _ = logger.Sync() }()

	logger.Info("starting prediction service",
		zap.String("version", Version),
		zap.String("build_time", BuildTime))

	// Stop on interrupt signal
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger, promclient.DefaultRegisterer, promclient.DefaultGatherer); err != nil {
		logger.Fatal("prediction service failed", zap.Error(err))
	}

	logger.Info("prediction service shut down complete")
}

// run loads the model, serves HTTP until ctx is done and then shuts the
// server down. A model load failure returns before any listener is opened.
func run(
	ctx context.Context,
	cfg *config.Config,
	logger *zap.Logger,
	reg promclient.Registerer,
	gatherer promclient.Gatherer,
) error {
	// Load the model before anything listens
	logger.Info("loading model", zap.String("path", cfg.Model.Path))
	loadStart := time.Now()
	m, err := model.Load(&model.Config{
		Path:   cfg.Model.Path,
		Logger: logger,
	})
	if err != nil {
		logger.Error("failed to load model", zap.String("path", cfg.Model.Path), zap.Error(err))
		return fmt.Errorf("failed to load model: %w", err)
	}
	loadDuration := time.Since(loadStart)

	var metricsCollector ports.MetricsCollector
	if cfg.Metrics.Enabled {
		collector := prometheus.NewCollector(reg)
		collector.RecordModelLoaded(m.Name(), loadDuration)
		metricsCollector = collector
	} else {
		gatherer = nil
	}

	// Initialize application components
	predictor := prediction.NewService(
		m,
		prediction.NewValidator(),
		metricsCollector,
		logger,
	)

	httpServer := http.NewServer(&http.Config{
		Port:              cfg.HTTPPort,
		ReadHeaderTimeout: cfg.Timeouts.ReadHeaderTimeout,
		Predictor:         predictor,
		Gatherer:          gatherer,
		Logger:            logger,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.Start()
	}()

	logger.Info("prediction service started",
		zap.Int("http_port", cfg.HTTPPort),
		zap.String("model", m.Name()),
		zap.Bool("metrics_enabled", cfg.Metrics.Enabled))

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		logger.Info("received shutdown signal")
	}

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Timeouts.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("HTTP server shutdown error: %w", err)
	}

	return nil
}

// initLogger initializes the logger based on log level
func initLogger(level string) *zap.Logger {
	logger, err := loggerConfig(level).Build()
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}

	return logger.Named("api")
}

// loggerConfig returns a production JSON config writing to stdout with the
// level under "severity"
func loggerConfig(level string) zap.Config {
	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(zapLevel)
	config.OutputPaths = []string{"stdout"}
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.EncoderConfig.LevelKey = "severity"

	return config
}
