package report

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/weiwei-tsao/campus-assets-report/internal/business/analytics"
	"github.com/weiwei-tsao/campus-assets-report/internal/platform/cache"
	"github.com/weiwei-tsao/campus-assets-report/pkg/model"
)

type fakeSource struct {
	assets []model.Asset
	err    error
	calls  int
}

func (f *fakeSource) FetchAll(context.Context) ([]model.Asset, error) {
	f.calls++
	return f.assets, f.err
}

type fakeRuns struct {
	created []model.ReportRun
	updated []model.ReportRun
	err     error
}

func (f *fakeRuns) CreateRun(_ context.Context, run model.ReportRun) error {
	f.created = append(f.created, run)
	return f.err
}

func (f *fakeRuns) UpdateRun(_ context.Context, run model.ReportRun) error {
	f.updated = append(f.updated, run)
	return f.err
}

type fakeSnapshots struct {
	saved []model.AssetSummary
	err   error
}

func (f *fakeSnapshots) SaveAssetSummary(_ context.Context, s model.AssetSummary) error {
	if f.err != nil {
		return f.err
	}
	f.saved = append(f.saved, s)
	return nil
}

type memoryCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	ttls    map[string]time.Duration
	getErr  error
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (m *memoryCache) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	v, ok := m.entries[key]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	return v, nil
}

func (m *memoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = value
	m.ttls[key] = ttl
	return nil
}

type recordedMetrics struct {
	outcomes []string
}

func (r *recordedMetrics) ObserveReport(outcome string, _ time.Duration) {
	r.outcomes = append(r.outcomes, outcome)
}

func fixedClock() func() time.Time {
	return func() time.Time { return testNow }
}

func newTestService(t *testing.T, src *fakeSource, runs *fakeRuns, opts ...ServiceOption) *Service {
	t.Helper()
	opts = append([]ServiceOption{
		WithClock(fixedClock()),
		WithRenderer(NewRenderer(WithCharts(failingCharts{}))),
	}, opts...)
	s := NewService(src, runs, &fakeSnapshots{}, zaptest.NewLogger(t), opts...)
	ids := 0
	s.newRunID = func() string {
		ids++
		return []string{"run-a", "run-b", "run-c"}[ids-1]
	}
	return s
}

func TestGenerateRecordsSuccessfulRun(t *testing.T) {
	src := &fakeSource{assets: testAssets()}
	runs := &fakeRuns{}
	metrics := &recordedMetrics{}
	s := newTestService(t, src, runs, WithMetrics(metrics))

	res, err := s.Generate(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "run-a", res.RunID)
	assert.Equal(t, "campus_assets_report_20240630_093000.pdf", res.Filename)
	assert.False(t, res.Cached)
	assert.Equal(t, 7, res.Assets)
	assert.Greater(t, res.Pages, 7)
	assert.NotEmpty(t, res.Fingerprint)

	require.Len(t, runs.created, 1)
	assert.Equal(t, model.RunStatusRunning, runs.created[0].Status)
	require.Len(t, runs.updated, 1)
	done := runs.updated[0]
	assert.Equal(t, model.RunStatusSuccess, done.Status)
	assert.Equal(t, res.Pages, done.Pages)
	assert.Equal(t, len(res.PDF), done.Bytes)
	assert.Equal(t, res.Fingerprint, done.Fingerprint)
	assert.Empty(t, done.Error)
	assert.Equal(t, []string{OutcomeRendered}, metrics.outcomes)
}

func TestGenerateServesCachedReport(t *testing.T) {
	src := &fakeSource{assets: testAssets()}
	runs := &fakeRuns{}
	metrics := &recordedMetrics{}
	c := newMemoryCache()
	s := newTestService(t, src, runs, WithCache(c, time.Hour), WithMetrics(metrics))

	first, err := s.Generate(context.Background())
	require.NoError(t, err)
	require.Len(t, c.entries, 1)
	assert.Equal(t, time.Hour, c.ttls[cacheKey(testNow, first.Fingerprint)])

	// Later call on an unchanged dataset keeps the original timestamp.
	s.now = func() time.Time { return testNow.Add(2 * time.Hour) }
	second, err := s.Generate(context.Background())
	require.NoError(t, err)

	assert.True(t, second.Cached)
	assert.Equal(t, "run-b", second.RunID)
	assert.Equal(t, first.PDF, second.PDF)
	assert.Equal(t, first.Pages, second.Pages)
	assert.Equal(t, first.Filename, second.Filename)
	assert.True(t, second.GeneratedAt.Equal(testNow))
	assert.Equal(t, model.RunStatusCached, runs.updated[1].Status)
	assert.Equal(t, []string{OutcomeRendered, OutcomeCached}, metrics.outcomes)
}

func TestGenerateRerendersWhenDatasetChanges(t *testing.T) {
	src := &fakeSource{assets: testAssets()}
	c := newMemoryCache()
	s := newTestService(t, src, &fakeRuns{}, WithCache(c, time.Hour))

	first, err := s.Generate(context.Background())
	require.NoError(t, err)

	src.assets = append(testAssets(), model.Asset{Description: "Whiteboard", Department: "Admin", Location: "Block B", Cost: 3000})
	second, err := s.Generate(context.Background())
	require.NoError(t, err)

	assert.False(t, second.Cached)
	assert.NotEqual(t, first.Fingerprint, second.Fingerprint)
	assert.Len(t, c.entries, 2)
}

func TestGenerateRerendersWhenOnlyCaseChanges(t *testing.T) {
	src := &fakeSource{assets: []model.Asset{
		{ID: "p1", Description: "Oscilloscope", Department: "Physics", Location: "Lab 1", Cost: 65000},
		{ID: "p2", Description: "Laser", Department: "physics", Location: "Lab 1", Cost: 120000},
	}}
	c := newMemoryCache()
	s := newTestService(t, src, &fakeRuns{}, WithCache(c, time.Hour))

	first, err := s.Generate(context.Background())
	require.NoError(t, err)

	src.assets[1].Department = "Physics"
	second, err := s.Generate(context.Background())
	require.NoError(t, err)

	assert.False(t, second.Cached)
	assert.NotEqual(t, first.Fingerprint, second.Fingerprint)

	stats, _, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, stats.Departments, 1)
}

func TestGenerateRerendersOnNewDay(t *testing.T) {
	src := &fakeSource{assets: testAssets()}
	c := newMemoryCache()
	s := newTestService(t, src, &fakeRuns{}, WithCache(c, 0))

	first, err := s.Generate(context.Background())
	require.NoError(t, err)

	s.now = func() time.Time { return testNow.Add(24 * time.Hour) }
	second, err := s.Generate(context.Background())
	require.NoError(t, err)

	assert.False(t, second.Cached)
	assert.Equal(t, first.Fingerprint, second.Fingerprint)
	assert.NotEqual(t, first.Filename, second.Filename)
	assert.Len(t, c.entries, 2)
}

func TestGenerateIgnoresCacheFailures(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	c := newMemoryCache()
	c.getErr = errors.New("connection refused")
	c.entries[cacheKeyPrefix+"junk"] = []byte("not json")

	s := NewService(&fakeSource{assets: testAssets()}, nil, nil, zap.New(core),
		WithClock(fixedClock()),
		WithRenderer(NewRenderer(WithCharts(failingCharts{}))),
		WithCache(c, time.Minute),
	)
	res, err := s.Generate(context.Background())
	require.NoError(t, err)
	assert.False(t, res.Cached)
	assert.Equal(t, 1, logs.FilterMessage("report cache read failed").Len())
}

func TestGenerateDiscardsUnreadableCacheEntry(t *testing.T) {
	src := &fakeSource{assets: testAssets()}
	c := newMemoryCache()
	s := newTestService(t, src, &fakeRuns{}, WithCache(c, time.Minute))

	first, err := s.Generate(context.Background())
	require.NoError(t, err)
	c.entries[cacheKey(testNow, first.Fingerprint)] = []byte(`{"pdf":""}`)

	second, err := s.Generate(context.Background())
	require.NoError(t, err)
	assert.False(t, second.Cached)
}

func TestGenerateEmptyDataset(t *testing.T) {
	runs := &fakeRuns{}
	metrics := &recordedMetrics{}
	s := newTestService(t, &fakeSource{}, runs, WithMetrics(metrics))

	res, err := s.Generate(context.Background())
	assert.Nil(t, res)
	require.Error(t, err)
	assert.True(t, errors.Is(err, analytics.ErrNoAssets))

	require.Len(t, runs.updated, 1)
	assert.Equal(t, model.RunStatusFailed, runs.updated[0].Status)
	assert.Contains(t, runs.updated[0].Error, "no assets found in database")
	assert.Equal(t, []string{OutcomeFailed}, metrics.outcomes)
}

func TestGenerateSourceFailure(t *testing.T) {
	boom := errors.New("firestore unavailable")
	runs := &fakeRuns{err: errors.New("runs collection offline")}
	s := newTestService(t, &fakeSource{err: boom}, runs)

	_, err := s.Generate(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, boom))
	assert.Equal(t, "generate report: load assets: firestore unavailable", err.Error())
	// run bookkeeping failures never mask the real error
	assert.Len(t, runs.updated, 1)
}

func TestRefreshSnapshot(t *testing.T) {
	snaps := &fakeSnapshots{}
	s := NewService(&fakeSource{assets: testAssets()}, nil, snaps, zaptest.NewLogger(t), WithClock(fixedClock()))

	summary, err := s.RefreshSnapshot(context.Background())
	require.NoError(t, err)
	require.Len(t, snaps.saved, 1)
	assert.Equal(t, summary, snaps.saved[0])
	assert.Equal(t, 7, summary.TotalAssets)
	assert.Equal(t, 557400.0, summary.TotalCost)
	assert.Equal(t, 2, summary.CostBands[analytics.BandHighValue])

	snaps.err = errors.New("write denied")
	_, err = s.RefreshSnapshot(context.Background())
	assert.ErrorContains(t, err, "refresh snapshot: write denied")
}

func TestSummaryAndAssets(t *testing.T) {
	src := &fakeSource{assets: testAssets()}
	s := NewService(src, nil, nil, nil, WithClock(fixedClock()))

	stats, err := s.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, len(stats.Departments))
	assert.True(t, stats.GeneratedAt.Equal(testNow))

	assets, err := s.Assets(context.Background())
	require.NoError(t, err)
	assert.Len(t, assets, 7)

	_, err = NewService(&fakeSource{}, nil, nil, nil).Summary(context.Background())
	assert.True(t, errors.Is(err, analytics.ErrNoAssets))
}
