package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/remote-sensing-etl/internal/adapter/httpadapter"
	kafkaadapter "github.com/couchcryptid/remote-sensing-etl/internal/adapter/kafka"
	"github.com/couchcryptid/remote-sensing-etl/internal/adapter/sqlite"
	"github.com/couchcryptid/remote-sensing-etl/internal/config"
	"github.com/couchcryptid/remote-sensing-etl/internal/dataset"
	"github.com/couchcryptid/remote-sensing-etl/internal/observability"
	"github.com/couchcryptid/remote-sensing-etl/internal/pipeline"
	"github.com/couchcryptid/remote-sensing-etl/internal/source"
	"github.com/jonboulle/clockwork"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	enc, err := source.LookupEncoding(cfg.SecondaryEncoding)
	if err != nil {
		logger.Error("invalid SECONDARY_ENCODING", "error", err)
		os.Exit(1)
	}
	loader := dataset.NewLoader(cfg.DataDir, source.NewReader(enc), cfg.Bounds, logger, metrics)

	// Sinks are feature-flagged via KAFKA_BROKERS / SQLITE_PATH.
	var sinks []pipeline.Sink
	var writer *kafkaadapter.Writer
	if cfg.KafkaEnabled() {
		writer = kafkaadapter.NewWriter(cfg, logger)
		sinks = append(sinks, writer)
		logger.Info("kafka sink enabled", "topic", cfg.KafkaTopic, "batch_size", cfg.BatchSize)
	}
	var store *sqlite.Store
	if cfg.SQLiteEnabled() {
		store, err = sqlite.Open(cfg.SQLitePath)
		if err != nil {
			logger.Error("failed to open sqlite store", "path", cfg.SQLitePath, "error", err)
			os.Exit(1)
		}
		sinks = append(sinks, store)
		logger.Info("sqlite sink enabled", "path", cfg.SQLitePath)
	}

	r := pipeline.New(loader, sinks, logger, metrics, cfg.PollInterval, clockwork.NewRealClock())

	srv := httpadapter.NewServer(cfg.HTTPAddr, r, loader, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start refresher.
	go func() {
		if err := r.Run(ctx); err != nil {
			logger.Error("refresher error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}
	if store != nil {
		if err := store.Close(); err != nil {
			logger.Error("sqlite close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
