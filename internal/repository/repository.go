package repository

import (
	"context"
	"errors"
	"strconv"

	"github.com/google/uuid"

	"github.com/weiwei-tsao/campus-assets-report/pkg/model"
	"github.com/weiwei-tsao/campus-assets-report/pkg/util"
)

// ErrSnapshotNotFound is returned when no asset summary has been stored yet.
var ErrSnapshotNotFound = errors.New("asset summary not found")

// DefaultRunLimit is the number of runs listed when no limit is given.
const DefaultRunLimit = 20

const batchSize = 400

// AssetStore reads and writes asset records.
type AssetStore interface {
	FetchAll(ctx context.Context) ([]model.Asset, error)
	BatchUpsert(ctx context.Context, assets []model.Asset) error
}

// RunStore persists report run records.
type RunStore interface {
	CreateRun(ctx context.Context, run model.ReportRun) error
	UpdateRun(ctx context.Context, run model.ReportRun) error
	ListRuns(ctx context.Context, limit int) ([]model.ReportRun, error)
}

// SnapshotStore persists the dashboard summary singleton.
type SnapshotStore interface {
	SaveAssetSummary(ctx context.Context, summary model.AssetSummary) error
	GetAssetSummary(ctx context.Context) (model.AssetSummary, error)
}

// documentID is the stored ID of an asset. Records without one are new
// records and get a random ID.
func documentID(a model.Asset) string {
	if a.ID != "" {
		return a.ID
	}
	return uuid.NewString()
}

// fileEntryID identifies an ID-less entry of an asset file by its position
// and exact content, so repeated reads of the same file agree.
func fileEntryID(index int, a model.Asset) string {
	return util.HashString(strconv.Itoa(index) + ":" + util.AssetKey(a))
}

func runLimit(limit int) int {
	if limit <= 0 {
		return DefaultRunLimit
	}
	return limit
}
