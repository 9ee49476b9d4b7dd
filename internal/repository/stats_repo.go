package repository

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/weiwei-tsao/campus-assets-report/pkg/model"
)

// StatsRepository manages the system/asset_stats singleton document.
type StatsRepository struct {
	client *firestore.Client
}

func NewStatsRepository(client *firestore.Client) *StatsRepository {
	return &StatsRepository{client: client}
}

func (r *StatsRepository) doc() *firestore.DocumentRef {
	return r.client.Collection("system").Doc("asset_stats")
}

func (r *StatsRepository) SaveAssetSummary(ctx context.Context, summary model.AssetSummary) error {
	if _, err := r.doc().Set(ctx, summary); err != nil {
		return fmt.Errorf("save asset summary: %w", err)
	}
	return nil
}

func (r *StatsRepository) GetAssetSummary(ctx context.Context) (model.AssetSummary, error) {
	snap, err := r.doc().Get(ctx)
	if status.Code(err) == codes.NotFound {
		return model.AssetSummary{}, ErrSnapshotNotFound
	}
	if err != nil {
		return model.AssetSummary{}, fmt.Errorf("get asset summary: %w", err)
	}
	var summary model.AssetSummary
	if err := snap.DataTo(&summary); err != nil {
		return model.AssetSummary{}, fmt.Errorf("decode asset summary: %w", err)
	}
	return summary, nil
}
