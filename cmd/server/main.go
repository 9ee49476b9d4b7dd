package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/weiwei-tsao/campus-assets-report/internal/business/report"
	"github.com/weiwei-tsao/campus-assets-report/internal/business/scheduler"
	"github.com/weiwei-tsao/campus-assets-report/internal/platform/cache"
	"github.com/weiwei-tsao/campus-assets-report/internal/platform/config"
	apirouter "github.com/weiwei-tsao/campus-assets-report/internal/platform/http"
	"github.com/weiwei-tsao/campus-assets-report/internal/platform/logging"
	"github.com/weiwei-tsao/campus-assets-report/internal/platform/metrics"
	"github.com/weiwei-tsao/campus-assets-report/internal/repository"
)

const shutdownTimeout = 10 * time.Second

func main() {
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

	err = run(ctx, cfg, logger)
	_ = logger.Sync()
	if err != nil {
		logger.Error("server exited", zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	gin.SetMode(cfg.GinMode)

	backend, err := repository.Open(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("open %s backend: %w", cfg.AssetSource, err)
	}
	defer func() {
		if err := backend.Close(); err != nil {
			logger.Warn("close backend", zap.Error(err))
		}
	}()

	m := metrics.New()
	opts := []report.ServiceOption{report.WithMetrics(m)}
	if cfg.CacheEnabled() {
		rc := cache.NewRedis(cache.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		defer rc.Close()
		if err := rc.Ping(ctx); err != nil {
			logger.Warn("redis unreachable, report cache disabled", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		} else {
			logger.Info("report cache enabled", zap.String("addr", cfg.RedisAddr), zap.Duration("ttl", cfg.ReportCacheTTL))
			opts = append(opts, report.WithCache(rc, cfg.ReportCacheTTL))
		}
	}
	reports := report.NewService(backend.Assets, backend.Runs, backend.Snapshots, logger, opts...)

	sched := scheduler.New(logger)
	if _, err := sched.ScheduleSnapshots(cfg.SnapshotSchedule, reports); err != nil {
		return err
	}

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           apirouter.NewRouter(reports, backend.Runs, backend.Snapshots, m, logger, cfg.AllowedOrigins),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server listening", zap.String("addr", server.Addr), zap.String("source", backend.Source))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		sched.Start()
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return errors.Join(server.Shutdown(shutdownCtx), sched.Stop(shutdownCtx))
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("server exited")
	return nil
}
