package repository

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/weiwei-tsao/campus-assets-report/internal/platform/config"
	firestoreclient "github.com/weiwei-tsao/campus-assets-report/internal/platform/firestore"
	"github.com/weiwei-tsao/campus-assets-report/internal/platform/postgres"
)

// Backend bundles the stores of one configured asset source.
type Backend struct {
	Source    string
	Assets    AssetStore
	Runs      RunStore
	Snapshots SnapshotStore

	closers []func() error
}

// Close releases the underlying connections.
func (b *Backend) Close() error {
	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Open connects the stores selected by cfg.AssetSource.
func Open(ctx context.Context, cfg config.Config, logger *zap.Logger) (*Backend, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch cfg.AssetSource {
	case config.SourceFirestore:
		client, err := firestoreclient.Connect(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		return &Backend{
			Source:    cfg.AssetSource,
			Assets:    NewAssetRepository(client, cfg.AssetsCollection),
			Runs:      NewRunRepository(client),
			Snapshots: NewStatsRepository(client),
			closers:   []func() error{client.Close},
		}, nil

	case config.SourcePostgres:
		db, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := postgres.Apply(ctx, db); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("migrate postgres: %w", err)
		}
		logger.Info("connected to postgres")
		return &Backend{
			Source:    cfg.AssetSource,
			Assets:    NewSQLAssetRepository(db),
			Runs:      NewSQLRunRepository(db),
			Snapshots: NewSQLSnapshotRepository(db),
			closers:   []func() error{db.Close},
		}, nil

	case config.SourceFile:
		logger.Info("using asset file", zap.String("path", cfg.AssetsFile))
		return &Backend{
			Source:    cfg.AssetSource,
			Assets:    NewFileAssetRepository(cfg.AssetsFile),
			Runs:      NewMemoryRunRepository(),
			Snapshots: NewMemorySnapshotRepository(),
		}, nil

	default:
		return nil, fmt.Errorf("unknown asset source %q", cfg.AssetSource)
	}
}
