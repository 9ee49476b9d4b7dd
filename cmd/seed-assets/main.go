package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/weiwei-tsao/campus-assets-report/internal/platform/config"
	"github.com/weiwei-tsao/campus-assets-report/internal/platform/logging"
	"github.com/weiwei-tsao/campus-assets-report/internal/repository"
	"github.com/weiwei-tsao/campus-assets-report/pkg/util"
)

func main() {
	fixture := flag.String("file", "testdata/assets.yaml", "YAML fixture to import")
	clean := flag.Bool("clean", true, "strip HTML remnants from text fields before importing")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	_ = godotenv.Load(".env.local", ".env")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load: %v", err)
	}
	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger init: %v", err)
	}

	err = seed(ctx, cfg, logger, *fixture, *clean)
	_ = logger.Sync()
	if err != nil {
		logger.Error("seed failed", zap.Error(err))
		os.Exit(1)
	}
}

func seed(ctx context.Context, cfg config.Config, logger *zap.Logger, fixture string, clean bool) error {
	assets, err := repository.NewFileAssetRepository(fixture).FetchAll(ctx)
	if err != nil {
		return err
	}
	if len(assets) == 0 {
		logger.Warn("fixture holds no assets", zap.String("file", fixture))
		return nil
	}
	if clean {
		for i := range assets {
			assets[i] = util.CleanAsset(assets[i])
		}
	}

	backend, err := repository.Open(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("open %s backend: %w", cfg.AssetSource, err)
	}
	defer backend.Close()

	if err := backend.Assets.BatchUpsert(ctx, assets); err != nil {
		return fmt.Errorf("upsert assets: %w", err)
	}
	logger.Info("assets seeded",
		zap.Int("count", len(assets)),
		zap.String("source", backend.Source),
		zap.String("fingerprint", util.FingerprintAssets(assets)),
	)
	return nil
}
