package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/tank-correction-service/internal/adapter/cache"
	httpadapter "github.com/couchcryptid/tank-correction-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/tank-correction-service/internal/adapter/kafka"
	"github.com/couchcryptid/tank-correction-service/internal/config"
	"github.com/couchcryptid/tank-correction-service/internal/correction"
	"github.com/couchcryptid/tank-correction-service/internal/domain"
	"github.com/couchcryptid/tank-correction-service/internal/observability"
	"github.com/couchcryptid/tank-correction-service/internal/pipeline"
)

// alwaysReady is the readiness checker when the Kafka pipeline is disabled
// and the service only answers compute requests.
type alwaysReady struct{}

func (alwaysReady) CheckReadiness(context.Context) error { return nil }

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	engine := correction.New()
	var corrector domain.Corrector = observability.NewMeasuredEngine(engine, metrics)
	if cfg.CorrectionCacheSize > 0 {
		corrector = cache.NewCachedCorrector(corrector, cfg.CorrectionCacheSize, metrics.CacheLookups)
		logger.Info("correction cache enabled", "size", cfg.CorrectionCacheSize)
	}
	logger.Info("correction engine ready", "version", correction.AlgorithmVersion)

	if len(cfg.APIKeys) == 0 {
		logger.Warn("API_KEYS is empty, compute API will reject every request")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		readiness = httpadapter.ReadinessChecker(alwaysReady{})
		reader    *kafkaadapter.Reader
		writer    *kafkaadapter.Writer
	)
	if cfg.PipelineEnabled {
		reader = kafkaadapter.NewReader(cfg, logger)
		writer = kafkaadapter.NewWriter(cfg, logger)
		transformer := pipeline.NewTransformer(corrector, logger)

		p := pipeline.New(reader, transformer, writer, logger, metrics, cfg.BatchSize)
		readiness = p

		// Start ETL pipeline.
		go func() {
			if err := p.Run(ctx); err != nil {
				logger.Error("pipeline error", "error", err)
			}
		}()
	} else {
		logger.Info("kafka pipeline disabled")
	}

	api := httpadapter.NewComputeAPI(corrector, engine.Coefficients(), metrics, logger)
	srv := httpadapter.NewServer(cfg.HTTPAddr, readiness, api, httpadapter.Options{
		APIKeys:   cfg.APIKeys,
		RateLimit: cfg.ComputeRateLimit,
		RateBurst: cfg.ComputeRateBurst,
	}, logger)

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if reader != nil {
		if err := reader.Close(); err != nil {
			logger.Error("kafka reader close error", "error", err)
		}
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
