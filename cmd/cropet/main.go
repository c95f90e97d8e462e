package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"

	"github.com/couchcryptid/crop-et-sim/internal/adapter/cache"
	"github.com/couchcryptid/crop-et-sim/internal/adapter/datfile"
	"github.com/couchcryptid/crop-et-sim/internal/adapter/httpadapter"
	kafkaadapter "github.com/couchcryptid/crop-et-sim/internal/adapter/kafka"
	"github.com/couchcryptid/crop-et-sim/internal/adapter/shapefile"
	"github.com/couchcryptid/crop-et-sim/internal/adapter/sqlite"
	"github.com/couchcryptid/crop-et-sim/internal/adapter/statictext"
	"github.com/couchcryptid/crop-et-sim/internal/config"
	"github.com/couchcryptid/crop-et-sim/internal/etphysics"
	"github.com/couchcryptid/crop-et-sim/internal/observability"
	"github.com/couchcryptid/crop-et-sim/internal/phenology"
	"github.com/couchcryptid/crop-et-sim/internal/pipeline"
)

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		slog.Error("failed to load .env", "error", err)
		os.Exit(1)
	}
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := sharedobs.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	if err := run(cfg, logger, metrics); err != nil {
		logger.Error("simulation failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) error {
	reg, err := statictext.LoadRegistry(statictext.Paths{
		CellProperties: cfg.CellPropertiesPath,
		CellCrops:      cfg.CellCropsPath,
		CropParams:     cfg.CropParamsPath,
		Cuttings:       cfg.CuttingsPath,
	}, logger)
	if err != nil {
		return err
	}
	reg.FilterCrops(cfg.CropSkipList, cfg.CropTestList, logger)

	if cfg.SpatialParamsDir != "" {
		n, err := shapefile.Apply(cfg.SpatialParamsDir, reg, logger)
		if err != nil {
			return fmt.Errorf("spatial crop parameters: %w", err)
		}
		logger.Info("spatial crop parameters applied", "overrides", n)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sink, closeSink, ready, err := openSink(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeSink(); err != nil {
			logger.Error("sink close error", "sink", sink.Name(), "error", err)
		}
	}()

	stations := statictext.NewStationLoader(cfg.WeatherDir, cfg.WeatherFileFormat, cfg.RefET)
	climate := cache.NewCachedClimate(stations, cfg.ClimateCacheDays, metrics)
	engine := phenology.NewEngine(etphysics.NewReference(), logger)

	runner := pipeline.NewRunner(reg, climate, engine, sink, logger, metrics, pipeline.Options{
		Workers: cfg.Workers,
		Window:  cfg.Window,
	})

	srv := httpadapter.NewServer(cfg.HTTPAddr, append(httpadapter.AllReady{runner}, ready...), runner, logger)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("http server shutdown error", "error", err)
		}
		logger.Info("shutdown complete")
	}()

	report, err := runner.Run(ctx)
	for _, f := range report.Failures {
		logger.Error("pair failed", "cell_id", f.Pair.CellID, "crop", f.Pair.CropNumber, "error", f.Err)
	}
	if err != nil {
		return err
	}
	logger.Info("run summary",
		"pairs", report.Pairs,
		"succeeded", report.Succeeded,
		"failed", len(report.Failures),
		"days", report.Days,
		"season_resets", report.Resets,
		"climate_series_cached", climate.Len(),
		"climate_days_cached", climate.Days(),
	)
	return nil
}

// openSink builds the configured output sink, its close function, and any
// readiness checks it contributes.
func openSink(ctx context.Context, cfg *config.Config, logger *slog.Logger) (pipeline.Sink, func() error, httpadapter.AllReady, error) {
	switch cfg.OutputSink {
	case config.SinkSQLite:
		s, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, nil, err
		}
		logger.Info("writing to sqlite", "path", cfg.SQLitePath)
		return s, s.Close, httpadapter.AllReady{s}, nil
	case config.SinkKafka:
		w := kafkaadapter.NewWriter(cfg.KafkaBrokers, cfg.KafkaTopic, cfg.BatchSize, logger)
		logger.Info("writing to kafka", "topic", cfg.KafkaTopic, "batch_size", cfg.BatchSize)
		return w, w.Close, nil, nil
	default:
		s, err := datfile.NewSink(cfg.OutputDir)
		if err != nil {
			return nil, nil, nil, err
		}
		logger.Info("writing daily files", "dir", cfg.OutputDir)
		return s, func() error { return nil }, nil, nil
	}
}
