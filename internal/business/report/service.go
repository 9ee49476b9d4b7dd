package report

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/weiwei-tsao/campus-assets-report/internal/business/analytics"
	"github.com/weiwei-tsao/campus-assets-report/internal/platform/cache"
	"github.com/weiwei-tsao/campus-assets-report/pkg/model"
	"github.com/weiwei-tsao/campus-assets-report/pkg/util"
)

// Report outcomes, as recorded in metrics.
const (
	OutcomeRendered = "rendered"
	OutcomeCached   = "cached"
	OutcomeFailed   = "failed"
)

const cacheKeyPrefix = "report:assets:"

// AssetSource loads every asset record.
type AssetSource interface {
	FetchAll(ctx context.Context) ([]model.Asset, error)
}

// RunLifecycleRepo persists report run records.
type RunLifecycleRepo interface {
	CreateRun(ctx context.Context, run model.ReportRun) error
	UpdateRun(ctx context.Context, run model.ReportRun) error
}

// SnapshotWriter persists the dashboard summary.
type SnapshotWriter interface {
	SaveAssetSummary(ctx context.Context, summary model.AssetSummary) error
}

// Cache stores rendered reports by dataset fingerprint.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Metrics observes report generations.
type Metrics interface {
	ObserveReport(outcome string, elapsed time.Duration)
}

// Result is a generated (or cached) report.
type Result struct {
	RunID       string
	Filename    string
	PDF         []byte
	Pages       int
	Assets      int
	Fingerprint string
	Cached      bool
	GeneratedAt time.Time
}

// cachedReport is the cache envelope.
type cachedReport struct {
	PDF         []byte    `json:"pdf"`
	Pages       int       `json:"pages"`
	GeneratedAt time.Time `json:"generatedAt"`
}

// Service loads assets, aggregates them and renders the report.
type Service struct {
	assets    AssetSource
	runs      RunLifecycleRepo
	snapshots SnapshotWriter
	renderer  *Renderer
	cache     Cache
	cacheTTL  time.Duration
	metrics   Metrics
	logger    *zap.Logger
	now       func() time.Time
	newRunID  func() string
}

// ServiceOption customises a Service.
type ServiceOption func(*Service)

// WithCache enables the report cache.
func WithCache(c Cache, ttl time.Duration) ServiceOption {
	return func(s *Service) {
		s.cache = c
		s.cacheTTL = ttl
	}
}

// WithMetrics records report outcomes.
func WithMetrics(m Metrics) ServiceOption {
	return func(s *Service) { s.metrics = m }
}

// WithRenderer replaces the default renderer.
func WithRenderer(r *Renderer) ServiceOption {
	return func(s *Service) { s.renderer = r }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) { s.now = now }
}

func NewService(assets AssetSource, runs RunLifecycleRepo, snapshots SnapshotWriter, logger *zap.Logger, opts ...ServiceOption) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		assets:    assets,
		runs:      runs,
		snapshots: snapshots,
		renderer:  NewRenderer(),
		metrics:   noopMetrics{},
		logger:    logger,
		now:       time.Now,
		newRunID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load fetches all assets and aggregates them.
func (s *Service) Load(ctx context.Context) (*analytics.Statistics, []model.Asset, error) {
	assets, err := s.assets.FetchAll(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("load assets: %w", err)
	}
	stats, err := analytics.Compute(assets, s.now().UTC())
	if err != nil {
		return nil, nil, err
	}
	return stats, assets, nil
}

// Summary returns the statistics without rendering.
func (s *Service) Summary(ctx context.Context) (*analytics.Statistics, error) {
	stats, _, err := s.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("summarize assets: %w", err)
	}
	return stats, nil
}

// Assets returns every asset record.
func (s *Service) Assets(ctx context.Context) ([]model.Asset, error) {
	assets, err := s.assets.FetchAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load assets: %w", err)
	}
	return assets, nil
}

// RefreshSnapshot recomputes and persists the dashboard summary.
func (s *Service) RefreshSnapshot(ctx context.Context) (model.AssetSummary, error) {
	stats, _, err := s.Load(ctx)
	if err != nil {
		return model.AssetSummary{}, fmt.Errorf("refresh snapshot: %w", err)
	}
	summary := analytics.Snapshot(stats)
	if s.snapshots == nil {
		return summary, nil
	}
	if err := s.snapshots.SaveAssetSummary(ctx, summary); err != nil {
		return model.AssetSummary{}, fmt.Errorf("refresh snapshot: %w", err)
	}
	return summary, nil
}

// Generate renders the report, or returns the cached copy for an unchanged dataset.
// Every call is recorded as a report run.
func (s *Service) Generate(ctx context.Context) (*Result, error) {
	startedAt := s.now().UTC()
	run := model.ReportRun{
		RunID:     s.newRunID(),
		Status:    model.RunStatusRunning,
		StartedAt: startedAt,
	}
	s.createRun(ctx, run)

	res, err := s.generate(ctx, &run)
	run.FinishedAt = s.now().UTC()

	outcome := OutcomeRendered
	switch {
	case err != nil:
		outcome = OutcomeFailed
		run.Status = model.RunStatusFailed
		run.Error = err.Error()
	case res.Cached:
		outcome = OutcomeCached
		run.Status = model.RunStatusCached
	default:
		run.Status = model.RunStatusSuccess
	}
	s.updateRun(ctx, run)
	s.metrics.ObserveReport(outcome, run.FinishedAt.Sub(startedAt))

	if err != nil {
		s.logger.Warn("report generation failed", zap.String("runId", run.RunID), zap.Error(err))
		return nil, fmt.Errorf("generate report: %w", err)
	}
	s.logger.Info("report generated",
		zap.String("runId", run.RunID),
		zap.String("outcome", outcome),
		zap.Int("assets", res.Assets),
		zap.Int("pages", res.Pages),
		zap.Int("bytes", len(res.PDF)),
	)
	return res, nil
}

func (s *Service) generate(ctx context.Context, run *model.ReportRun) (*Result, error) {
	stats, assets, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	fingerprint := util.FingerprintAssets(assets)
	run.Assets = len(assets)
	run.Fingerprint = fingerprint

	res := &Result{
		RunID:       run.RunID,
		Assets:      len(assets),
		Fingerprint: fingerprint,
	}

	key := cacheKey(stats.GeneratedAt, fingerprint)
	if cached, ok := s.lookup(ctx, key); ok {
		res.PDF = cached.PDF
		res.Pages = cached.Pages
		res.GeneratedAt = cached.GeneratedAt
		res.Filename = Filename(cached.GeneratedAt)
		res.Cached = true
		run.Pages = cached.Pages
		run.Bytes = len(cached.PDF)
		return res, nil
	}

	doc, err := s.renderer.Render(stats, assets)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	res.PDF = doc.PDF
	res.Pages = doc.Pages
	res.GeneratedAt = stats.GeneratedAt
	res.Filename = Filename(stats.GeneratedAt)
	run.Pages = doc.Pages
	run.Bytes = len(doc.PDF)

	s.store(ctx, key, cachedReport{PDF: doc.PDF, Pages: doc.Pages, GeneratedAt: stats.GeneratedAt})
	return res, nil
}

// cacheKey scopes a dataset fingerprint to the UTC report day.
func cacheKey(generatedAt time.Time, fingerprint string) string {
	return cacheKeyPrefix + generatedAt.UTC().Format("20060102") + ":" + fingerprint
}

func (s *Service) lookup(ctx context.Context, key string) (cachedReport, bool) {
	if s.cache == nil {
		return cachedReport{}, false
	}
	raw, err := s.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.Warn("report cache read failed", zap.Error(err))
		}
		return cachedReport{}, false
	}
	var entry cachedReport
	if err := json.Unmarshal(raw, &entry); err != nil || len(entry.PDF) == 0 {
		s.logger.Warn("discarding unreadable cached report", zap.String("key", key))
		return cachedReport{}, false
	}
	return entry, true
}

func (s *Service) store(ctx context.Context, key string, entry cachedReport) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(entry)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, raw, s.cacheTTL); err != nil {
		s.logger.Warn("report cache write failed", zap.Error(err))
	}
}

func (s *Service) createRun(ctx context.Context, run model.ReportRun) {
	if s.runs == nil {
		return
	}
	if err := s.runs.CreateRun(ctx, run); err != nil {
		s.logger.Warn("record report run", zap.String("runId", run.RunID), zap.Error(err))
	}
}

func (s *Service) updateRun(ctx context.Context, run model.ReportRun) {
	if s.runs == nil {
		return
	}
	if err := s.runs.UpdateRun(ctx, run); err != nil {
		s.logger.Warn("finish report run", zap.String("runId", run.RunID), zap.Error(err))
	}
}

type noopMetrics struct{}

func (noopMetrics) ObserveReport(string, time.Duration) {}
