package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/your-org/sciflow/internal/audit"
	"github.com/your-org/sciflow/internal/calibration"
	"github.com/your-org/sciflow/internal/metrics"
	"github.com/your-org/sciflow/internal/pipeline"
	"github.com/your-org/sciflow/internal/routing"
	"github.com/your-org/sciflow/pkg/config"
	"github.com/your-org/sciflow/pkg/kafka"
	"github.com/your-org/sciflow/pkg/logger"
	"github.com/your-org/sciflow/pkg/notify"
	"github.com/your-org/sciflow/pkg/retry"
	"github.com/your-org/sciflow/pkg/storage/objectstore"
	"github.com/your-org/sciflow/pkg/tracing"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logr, err := logger.New(cfg.App.LogLevel, cfg.App.Environment)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	traceShutdown, err := tracing.Init(ctx, tracing.Config{
		Endpoint:       cfg.Tracing.Endpoint,
		Insecure:       cfg.Tracing.Insecure,
		SampleRatio:    cfg.Tracing.SampleRatio,
		Attributes:     parseResourceAttributes(cfg.Tracing.ResourceAttr),
		ServiceName:    cfg.App.Name,
		ServiceVersion: cfg.App.Version,
	})
	if err != nil {
		logr.Fatal("init tracing", zap.Error(err))
	}
	defer traceShutdown(context.Background()) //nolint:errcheck

	store, err := objectstore.New(objectstore.Config{
		Provider:   cfg.Storage.Provider,
		Endpoint:   cfg.Storage.Endpoint,
		Region:     cfg.Storage.Region,
		AccessKey:  cfg.Storage.AccessKey,
		SecretKey:  cfg.Storage.SecretKey,
		UseSSL:     cfg.Storage.UseSSL,
		ScratchDir: cfg.Storage.ScratchDir,
	})
	if err != nil {
		logr.Fatal("init object store", zap.Error(err))
	}

	var sink audit.Sink = audit.NopSink{}
	if len(cfg.Audit.Brokers) > 0 {
		producer := kafka.NewProducer(kafka.ProducerConfig{
			Brokers:      cfg.Audit.Brokers,
			Topic:        cfg.Audit.Topic,
			BatchSize:    cfg.Audit.BatchSize,
			BatchTimeout: cfg.Audit.BatchTimeout,
			Compression:  kafka.CompressionFromString(cfg.Audit.CompressionCodec),
			RequiredAcks: kafkago.RequireAll,
			MaxAttempts:  cfg.Audit.Retries,
		})
		defer producer.Close(context.Background()) //nolint:errcheck
		sink = audit.NewStreamSink(producer)
	} else {
		logr.Warn("audit brokers not configured, processing events will not be recorded")
	}

	var notifier notify.Notifier = notify.Noop{}
	if cfg.Notifier.WebhookURL != "" {
		notifier = notify.NewWebhook(notify.WebhookConfig{
			URL:     cfg.Notifier.WebhookURL,
			Channel: cfg.Notifier.Channel,
			Policy: retry.Policy{
				MaxAttempts: cfg.Notifier.MaxAttempts,
				Delay:       cfg.Notifier.RetryDelay,
			},
		}, logr)
	} else {
		logr.Warn("notification webhook not configured, alerts degrade to logs")
	}

	calibrators := make(map[string]calibration.Calibrator, len(cfg.Mission.Instruments))
	for _, instrument := range cfg.Mission.Instruments {
		calibrators[instrument] = calibration.Command(cfg.Mission.CalibrationCommand, "--instrument", instrument)
	}
	router := routing.New(cfg.Mission.Name, calibrators)

	service := pipeline.NewService(pipeline.Params{
		Store:    store,
		Router:   router,
		Audit:    sink,
		Notifier: notifier,
		Metrics:  metrics.NewProm("sciflow"),
		Logger:   logr,
		Options: pipeline.Options{
			LocalFilePath: cfg.Pipeline.LocalFile,
			UseFixture:    cfg.Pipeline.UseFixture,
			FixturePath:   cfg.Pipeline.FixtureFile,
		},
	})

	environment := routing.EnvironmentFromString(cfg.App.Environment)
	handler := pipeline.NewHTTPHandler(service, logr, environment, cfg.Pipeline.MaxBodyBytes)

	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      handler.Router(),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	metricsServer := &http.Server{
		Addr:    cfg.Metrics.Addr,
		Handler: promhttp.Handler(),
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Error("metrics server failed", zap.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logr.Error("http server shutdown failed", zap.Error(err))
		}
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logr.Error("metrics server shutdown failed", zap.Error(err))
		}
		if err := service.Close(shutdownCtx); err != nil {
			logr.Error("service shutdown failed", zap.Error(err))
		}
	}()

	logr.Info("processor service starting",
		zap.String("addr", cfg.HTTP.Addr),
		zap.String("environment", string(environment)),
		zap.Strings("instruments", cfg.Mission.Instruments),
	)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logr.Fatal("http server failed", zap.Error(err))
	}
}

func parseResourceAttributes(raw string) map[string]string {
	if raw == "" {
		return map[string]string{}
	}
	attrs := map[string]string{}
	pairs := strings.Split(raw, ",")
	for _, pair := range pairs {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		if !strings.Contains(pair, "=") {
			continue
		}
		parts := strings.SplitN(pair, "=", 2)
		attrs[strings.TrimSpace(parts[0])] = strings.TrimSpace(parts[1])
	}
	return attrs
}
