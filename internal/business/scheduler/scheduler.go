package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/weiwei-tsao/campus-assets-report/pkg/model"
)

// Disabled is the schedule value that turns a job off.
const Disabled = "off"

// Job is one scheduled unit of work. The context is cancelled when the scheduler stops.
type Job func(ctx context.Context) error

// SnapshotRefresher recomputes and stores the dashboard summary.
type SnapshotRefresher interface {
	RefreshSnapshot(ctx context.Context) (model.AssetSummary, error)
}

// Scheduler runs jobs on cron schedules. A panicking job is recovered, and a
// job still running when its next tick fires is skipped for that tick.
type Scheduler struct {
	cron   *cron.Cron
	logger *zap.Logger
	ctx    context.Context
	cancel context.CancelFunc
	jobs   int
}

func New(logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	cl := cronLogger{logger.Sugar()}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron: cron.New(
			cron.WithLogger(cl),
			// Recover sits inside SkipIfStillRunning so a panic still frees the run slot.
			cron.WithChain(cron.SkipIfStillRunning(cl), cron.Recover(cl)),
		),
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Add registers job under name. An empty or "off" spec leaves the job
// unscheduled and reports false.
func (s *Scheduler) Add(name, spec string, job Job) (bool, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" || strings.EqualFold(spec, Disabled) {
		s.logger.Info("job disabled", zap.String("job", name))
		return false, nil
	}
	_, err := s.cron.AddFunc(spec, func() {
		started := time.Now()
		if err := job(s.ctx); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			s.logger.Error("job failed", zap.String("job", name), zap.Duration("elapsed", time.Since(started)), zap.Error(err))
			return
		}
		s.logger.Info("job finished", zap.String("job", name), zap.Duration("elapsed", time.Since(started)))
	})
	if err != nil {
		return false, fmt.Errorf("schedule %s (%q): %w", name, spec, err)
	}
	s.jobs++
	s.logger.Info("job scheduled", zap.String("job", name), zap.String("spec", spec))
	return true, nil
}

// ScheduleSnapshots refreshes the stored asset summary on spec.
func (s *Scheduler) ScheduleSnapshots(spec string, r SnapshotRefresher) (bool, error) {
	return s.Add("asset-snapshot", spec, func(ctx context.Context) error {
		summary, err := r.RefreshSnapshot(ctx)
		if err != nil {
			return err
		}
		s.logger.Debug("asset snapshot refreshed",
			zap.Int("assets", summary.TotalAssets),
			zap.Float64("totalCost", summary.TotalCost),
		)
		return nil
	})
}

// Jobs is the number of scheduled jobs.
func (s *Scheduler) Jobs() int {
	return s.jobs
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts scheduling, cancels the job context and waits for running jobs
// until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	s.cancel()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for scheduled jobs: %w", ctx.Err())
	}
}

// cronLogger adapts zap to cron's logger.
type cronLogger struct {
	l *zap.SugaredLogger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debugw("cron: "+msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Errorw("cron: "+msg, append(keysAndValues, "error", err)...)
}
