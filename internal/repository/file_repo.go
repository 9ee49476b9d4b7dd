package repository

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/weiwei-tsao/campus-assets-report/pkg/model"
)

// assetFile is the on-disk YAML layout: a top-level "assets" list.
type assetFile struct {
	Assets []map[string]interface{} `yaml:"assets"`
}

type fileAsset struct {
	ID          string  `yaml:"id"`
	Description string  `yaml:"description,omitempty"`
	Department  string  `yaml:"department,omitempty"`
	Location    string  `yaml:"location,omitempty"`
	Cost        float64 `yaml:"cost"`
	CreatedAt   string  `yaml:"created_at,omitempty"`
}

// FileAssetRepository reads and writes assets in a YAML file.
type FileAssetRepository struct {
	path string
	mu   sync.Mutex
}

func NewFileAssetRepository(path string) *FileAssetRepository {
	return &FileAssetRepository{path: path}
}

// FetchAll returns the assets in file order. A missing file holds no assets.
func (r *FileAssetRepository) FetchAll(ctx context.Context) ([]model.Asset, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.read()
}

func (r *FileAssetRepository) read() ([]model.Asset, error) {
	raw, err := os.ReadFile(r.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", r.path, err)
	}

	var file assetFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse %s: %w", r.path, err)
	}
	assets := make([]model.Asset, 0, len(file.Assets))
	for i, rec := range file.Assets {
		a, err := assetFromMap("", rec)
		if err != nil {
			return nil, fmt.Errorf("parse %s entry %d: %w", r.path, i+1, err)
		}
		if a.ID == "" {
			a.ID = fileEntryID(i, a)
		}
		assets = append(assets, a)
	}
	return assets, nil
}

// BatchUpsert replaces assets with matching ids and appends the rest, then rewrites the file.
func (r *FileAssetRepository) BatchUpsert(ctx context.Context, assets []model.Asset) error {
	if len(assets) == 0 {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, err := r.read()
	if err != nil {
		return err
	}
	index := make(map[string]int, len(existing))
	for i, a := range existing {
		index[a.ID] = i
	}
	for _, a := range assets {
		a.ID = documentID(a)
		if i, ok := index[a.ID]; ok {
			existing[i] = a
			continue
		}
		index[a.ID] = len(existing)
		existing = append(existing, a)
	}
	return r.write(existing)
}

func (r *FileAssetRepository) write(assets []model.Asset) error {
	out := struct {
		Assets []fileAsset `yaml:"assets"`
	}{Assets: make([]fileAsset, len(assets))}
	for i, a := range assets {
		fa := fileAsset{
			ID:          a.ID,
			Description: a.Description,
			Department:  a.Department,
			Location:    a.Location,
			Cost:        a.Cost,
		}
		if a.HasCreatedAt() {
			fa.CreatedAt = a.CreatedAt.UTC().Format(time.RFC3339)
		}
		out.Assets[i] = fa
	}
	raw, err := yaml.Marshal(out)
	if err != nil {
		return fmt.Errorf("encode assets: %w", err)
	}
	if dir := filepath.Dir(r.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, r.path); err != nil {
		return fmt.Errorf("replace %s: %w", r.path, err)
	}
	return nil
}

// MemoryRunRepository keeps report runs in process memory.
type MemoryRunRepository struct {
	mu   sync.Mutex
	runs map[string]model.ReportRun
}

func NewMemoryRunRepository() *MemoryRunRepository {
	return &MemoryRunRepository{runs: make(map[string]model.ReportRun)}
}

func (r *MemoryRunRepository) CreateRun(_ context.Context, run model.ReportRun) error {
	if run.RunID == "" {
		return fmt.Errorf("runId is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs[run.RunID] = run
	return nil
}

func (r *MemoryRunRepository) UpdateRun(ctx context.Context, run model.ReportRun) error {
	return r.CreateRun(ctx, run)
}

// ListRuns returns the most recent runs, newest first.
func (r *MemoryRunRepository) ListRuns(_ context.Context, limit int) ([]model.ReportRun, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	runs := make([]model.ReportRun, 0, len(r.runs))
	for _, run := range r.runs {
		runs = append(runs, run)
	}
	sort.Slice(runs, func(i, j int) bool {
		if runs[i].StartedAt.Equal(runs[j].StartedAt) {
			return runs[i].RunID > runs[j].RunID
		}
		return runs[i].StartedAt.After(runs[j].StartedAt)
	})
	if n := runLimit(limit); len(runs) > n {
		runs = runs[:n]
	}
	return runs, nil
}

// MemorySnapshotRepository keeps the latest summary in process memory.
type MemorySnapshotRepository struct {
	mu      sync.Mutex
	summary *model.AssetSummary
}

func NewMemorySnapshotRepository() *MemorySnapshotRepository {
	return &MemorySnapshotRepository{}
}

func (r *MemorySnapshotRepository) SaveAssetSummary(_ context.Context, summary model.AssetSummary) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.summary = &summary
	return nil
}

func (r *MemorySnapshotRepository) GetAssetSummary(context.Context) (model.AssetSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.summary == nil {
		return model.AssetSummary{}, ErrSnapshotNotFound
	}
	return *r.summary, nil
}
