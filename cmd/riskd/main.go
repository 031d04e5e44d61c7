package main

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/railmet/platform-risk-service/internal/adapter/aemet"
	"github.com/railmet/platform-risk-service/internal/adapter/era5"
	"github.com/railmet/platform-risk-service/internal/adapter/httpapi"
	kafkaadapter "github.com/railmet/platform-risk-service/internal/adapter/kafka"
	"github.com/railmet/platform-risk-service/internal/adapter/nasapower"
	"github.com/railmet/platform-risk-service/internal/adapter/ops"
	"github.com/railmet/platform-risk-service/internal/config"
	"github.com/railmet/platform-risk-service/internal/domain"
	"github.com/railmet/platform-risk-service/internal/fusion"
	"github.com/railmet/platform-risk-service/internal/observability"
	"github.com/railmet/platform-risk-service/internal/pipeline"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found, using process environment")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()
	clock := clockwork.NewRealClock()

	platforms := domain.DefaultPlatforms()
	if cfg.PlatformsFile != "" {
		platforms, err = domain.LoadPlatformsFile(cfg.PlatformsFile)
		if err != nil {
			logger.Error("failed to load platforms file", "path", cfg.PlatformsFile, "error", err)
			os.Exit(1)
		}
		logger.Info("platform catalog loaded", "path", cfg.PlatformsFile, "platforms", len(platforms))
	}

	primary := aemet.NewClient(cfg.AEMETAPIKey, cfg.AEMETStationID, cfg.AEMETBaseURL, cfg.FetchTimeout, logger)
	secondary := nasapower.NewClient(cfg.StationLat, cfg.StationLon, cfg.NASAPowerBaseURL, cfg.FetchTimeout, clock, logger)
	archive := era5.NewClient(cfg.StationLat, cfg.StationLon, cfg.ERA5BaseURL, cfg.FetchTimeout, clock, logger)
	history := era5.NewCachedProvider(archive, cfg.SeriesCacheSize, clock)

	// Snapshot publishing is feature-flagged; the dashboard works without Kafka.
	var publisher pipeline.SnapshotPublisher
	var kafkaPub *kafkaadapter.Publisher
	if cfg.KafkaEnabled {
		kafkaPub = kafkaadapter.NewPublisher(cfg, logger)
		publisher = kafkaPub
		logger.Info("snapshot publisher enabled", "topic", cfg.KafkaTopic, "brokers", cfg.KafkaBrokers)
	} else {
		logger.Info("snapshot publisher disabled")
	}

	fuser := fusion.New(logger, clock, rand.New(rand.NewSource(time.Now().UnixNano())))

	engine := pipeline.New(pipeline.Params{
		Adapters:        []pipeline.SourceAdapter{primary, secondary},
		History:         history,
		Fuser:           fuser,
		Platforms:       platforms,
		Publisher:       publisher,
		Logger:          logger,
		Metrics:         metrics,
		Clock:           clock,
		BaselineDays:    cfg.BaselineDays,
		RefreshInterval: cfg.RefreshInterval,
		ManualCooldown:  cfg.ManualCooldown,
		FetchTimeout:    cfg.FetchTimeout,
	})

	apiSrv := httpapi.NewServer(cfg.APIAddr, engine, logger)
	opsSrv := ops.NewServer(cfg.OpsAddr, engine, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := opsSrv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("ops server error", "error", err)
		}
	}()

	go func() {
		// Fiber's Listen returns nil after a graceful Shutdown.
		if err := apiSrv.Start(); err != nil {
			logger.Error("api server error", "error", err)
		}
	}()

	go func() {
		if err := engine.Run(ctx); err != nil {
			logger.Error("pipeline error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := apiSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("api server shutdown error", "error", err)
	}
	if err := opsSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("ops server shutdown error", "error", err)
	}
	if kafkaPub != nil {
		if err := kafkaPub.Close(); err != nil {
			logger.Error("kafka publisher close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
