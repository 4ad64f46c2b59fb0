package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	fileadapter "github.com/couchcryptid/weather-station-logger/internal/adapter/file"
	httpadapter "github.com/couchcryptid/weather-station-logger/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/weather-station-logger/internal/adapter/kafka"
	mqttadapter "github.com/couchcryptid/weather-station-logger/internal/adapter/mqtt"
	serialadapter "github.com/couchcryptid/weather-station-logger/internal/adapter/serial"
	sqliteadapter "github.com/couchcryptid/weather-station-logger/internal/adapter/sqlite"
	"github.com/couchcryptid/weather-station-logger/internal/config"
	"github.com/couchcryptid/weather-station-logger/internal/domain"
	"github.com/couchcryptid/weather-station-logger/internal/observability"
	"github.com/couchcryptid/weather-station-logger/internal/pipeline"
)

func main() {
	if err := run(); err != nil {
		slog.Error("stationlog failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sinks, closeSinks, err := buildSinks(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeSinks()

	source, err := serialadapter.Open(cfg, logger)
	if err != nil {
		return err
	}
	defer closeWithLog(logger, "line source", source.Close)

	normalizer := domain.NewNormalizer(domain.WithWindCorrection(cfg.WindCorrection))
	loader := pipeline.NewFanOut(logger, metrics, sinks...)
	p := pipeline.New(source, normalizer, loader, logger, metrics, cfg.Passthrough)

	logger.Info("stationlog starting",
		"device", cfg.SerialDevice,
		"wind_correction", normalizer.WindCorrection(),
		"sinks", loader.Names(),
	)

	var srv *httpadapter.Server
	if cfg.HTTPAddr != "" {
		srv = httpadapter.NewServer(cfg.HTTPAddr, p, logger)
		go func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("http server error", "error", err)
			}
		}()
	}

	runErr := p.Run(ctx)
	if runErr != nil {
		logger.Error("pipeline error", "error", runErr)
	}
	logger.Info("shutting down")

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("http server shutdown error", "error", err)
		}
	}

	logger.Info("shutdown complete")
	return runErr
}

// buildSinks opens the record log and every optional sink enabled in cfg.
// The returned func closes them in reverse order. On error, sinks opened so
// far are already closed.
func buildSinks(ctx context.Context, cfg *config.Config, logger *slog.Logger) ([]pipeline.Sink, func(), error) {
	var closers []func()
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	appender, err := fileadapter.NewAppender(cfg.LogFile, logger)
	if err != nil {
		return nil, nil, err
	}
	closers = append(closers, func() { closeWithLog(logger, "record log", appender.Close) })
	sinks := []pipeline.Sink{{Name: "file", Loader: appender, Required: true}}

	if cfg.KafkaEnabled() {
		writer := kafkaadapter.NewWriter(cfg, logger)
		closers = append(closers, func() { closeWithLog(logger, "kafka writer", writer.Close) })
		sinks = append(sinks, pipeline.Sink{Name: "kafka", Loader: writer})
	}

	if cfg.MQTTEnabled() {
		publisher := mqttadapter.NewPublisher(cfg, logger)
		if err := publisher.Connect(ctx); err != nil {
			closeAll()
			return nil, nil, err
		}
		closers = append(closers, publisher.Disconnect)
		sinks = append(sinks, pipeline.Sink{Name: "mqtt", Loader: publisher})
	}

	if cfg.SQLiteEnabled() {
		store, err := sqliteadapter.Open(ctx, cfg.SQLitePath, logger)
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		closers = append(closers, func() { closeWithLog(logger, "sqlite store", store.Close) })
		sinks = append(sinks, pipeline.Sink{Name: "sqlite", Loader: store})
	}

	return sinks, closeAll, nil
}

func closeWithLog(logger *slog.Logger, what string, closeFn func() error) {
	if err := closeFn(); err != nil {
		logger.Error("close failed", "component", what, "error", err)
	}
}
