package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/weiwei-tsao/campus-assets-report/internal/business/report"
	"github.com/weiwei-tsao/campus-assets-report/internal/platform/cache"
	"github.com/weiwei-tsao/campus-assets-report/internal/platform/config"
	"github.com/weiwei-tsao/campus-assets-report/internal/platform/logging"
	"github.com/weiwei-tsao/campus-assets-report/internal/repository"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// app is the state shared by every subcommand.
type app struct {
	verbose bool
	cfg     config.Config
	logger  *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "assets-report",
		Short: "Campus asset reporting",
		Long: `Builds the campus assets PDF report and its companion exports from the
configured asset source (ASSET_SOURCE=firestore|postgres|file).`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_ = godotenv.Load(".env.local", ".env")

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			level := cfg.LogLevel
			if a.verbose {
				level = "debug"
			}
			logger, err := logging.New(level)
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.logger = logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		a.generateCmd(),
		a.summaryCmd(),
		a.workbookCmd(),
		a.exportCmd(),
		a.snapshotCmd(),
		a.runsCmd(),
	)
	return root
}

// withService opens the configured backend, builds the report service and
// closes everything once fn returns.
func (a *app) withService(ctx context.Context, fn func(svc *report.Service, backend *repository.Backend) error) error {
	backend, err := repository.Open(ctx, a.cfg, a.logger)
	if err != nil {
		return fmt.Errorf("open %s backend: %w", a.cfg.AssetSource, err)
	}
	defer func() {
		if err := backend.Close(); err != nil {
			a.logger.Warn("close backend", zap.Error(err))
		}
	}()

	var opts []report.ServiceOption
	if a.cfg.CacheEnabled() {
		rc := cache.NewRedis(cache.Options{Addr: a.cfg.RedisAddr, Password: a.cfg.RedisPassword, DB: a.cfg.RedisDB})
		defer rc.Close()
		if err := rc.Ping(ctx); err != nil {
			a.logger.Warn("redis unreachable, report cache disabled", zap.Error(err))
		} else {
			opts = append(opts, report.WithCache(rc, a.cfg.ReportCacheTTL))
		}
	}
	return fn(report.NewService(backend.Assets, backend.Runs, backend.Snapshots, a.logger, opts...), backend)
}
