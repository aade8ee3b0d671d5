package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql" // mysql driver
	_ "github.com/jackc/pgx/v5/stdlib" // pgx as database/sql driver
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	_ "modernc.org/sqlite" // cgo-free sqlite driver

	"github.com/torchdb/toolgate/internal/api"
	"github.com/torchdb/toolgate/internal/audit"
	"github.com/torchdb/toolgate/internal/config"
	"github.com/torchdb/toolgate/internal/db"
	"github.com/torchdb/toolgate/internal/dispatch"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger := mustBuildLogger(cfg.LogLevel)
	defer logger.Sync() //nolint:errcheck // best-effort flush

	logger.Info("starting toolgate server",
		zap.String("http_port", cfg.HTTPPort),
		zap.String("engine", cfg.Engine),
		zap.Int("admins", len(cfg.Admins)),
		zap.Int("writers", len(cfg.Writers)),
		zap.Int("readers", len(cfg.Readers)),
		zap.Duration("query_timeout", cfg.QueryTimeout),
	)
	if len(cfg.Admins)+len(cfg.Writers)+len(cfg.Readers) == 0 {
		logger.Warn("no role membership configured, every call will be denied")
	}

	// Database pool
	adapter, err := db.NewAdapter(cfg.Engine)
	if err != nil {
		logger.Fatal("unsupported database engine", zap.Error(err))
	}
	openCtx, cancelOpen := context.WithTimeout(context.Background(), 15*time.Second)
	executor, err := db.Open(openCtx, adapter, cfg.DSN, cfg.QueryTimeout, cfg.MaxRows, logger)
	cancelOpen()
	if err != nil {
		logger.Fatal("failed to open database", zap.Error(err))
	}
	defer func() { _ = executor.Close() }()
	logger.Info("database connected", zap.String("database", executor.DatabaseName()))

	// Audit — ClickHouse or LogWriter fallback
	var writer audit.EventWriter
	if cfg.ClickHouseDSN != "" {
		chWriter, err := audit.NewClickHouseWriter(cfg.ClickHouseDSN, logger)
		if err != nil {
			logger.Warn("clickhouse connection failed, falling back to log writer",
				zap.Error(err),
			)
			writer = audit.NewLogWriter(logger)
		} else {
			writer = chWriter
			logger.Info("clickhouse writer connected")
		}
	} else {
		writer = audit.NewLogWriter(logger)
		logger.Info("no CLICKHOUSE_DSN set, using log writer")
	}
	defer writer.Close()

	// ClickHouse reader (for the audit listing endpoint)
	var reader *audit.Reader
	if cfg.ClickHouseDSN != "" {
		reader, err = audit.NewReader(cfg.ClickHouseDSN, logger)
		if err != nil {
			logger.Warn("clickhouse reader connection failed", zap.Error(err))
			reader = nil
		} else {
			defer func() { _ = reader.Close() }()
			logger.Info("clickhouse reader connected")
		}
	}

	dispatcher, err := dispatch.New(cfg, executor, writer, logger)
	if err != nil {
		logger.Fatal("failed to build dispatcher", zap.Error(err))
	}

	deps := &api.Dependencies{
		Dispatcher: dispatcher,
		Reader:     reader,
		APIKeyHash: cfg.APIKeyHash,
		Logger:     logger,
	}
	httpServer := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      api.NewRouter(deps),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		logger.Info("http server listening", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("http server failed", zap.Error(err))
		}
	}()

	// Block until shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("received signal, shutting down", zap.String("signal", sig.String()))

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", zap.Error(err))
	}

	logger.Info("toolgate server stopped")
}

func mustBuildLogger(level string) *zap.Logger {
	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	cfg := zap.Config{
		Level:            zap.NewAtomicLevelAt(zapLevel),
		Development:      false,
		Encoding:         "json",
		EncoderConfig:    zap.NewProductionEncoderConfig(),
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}

	logger, err := cfg.Build()
	if err != nil {
		panic(fmt.Sprintf("failed to build logger: %v", err))
	}
	return logger
}
