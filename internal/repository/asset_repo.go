package repository

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"github.com/weiwei-tsao/campus-assets-report/pkg/model"
)

// AssetRepository handles Firestore read/write for campus assets.
type AssetRepository struct {
	client     *firestore.Client
	collection string
}

func NewAssetRepository(client *firestore.Client, collection string) *AssetRepository {
	if collection == "" {
		collection = "resources"
	}
	return &AssetRepository{client: client, collection: collection}
}

// FetchAll loads every asset in document order.
func (r *AssetRepository) FetchAll(ctx context.Context) ([]model.Asset, error) {
	iter := r.client.Collection(r.collection).Documents(ctx)
	defer iter.Stop()

	var assets []model.Asset
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("iterate %s: %w", r.collection, err)
		}
		a, err := assetFromMap(doc.Ref.ID, doc.Data())
		if err != nil {
			return nil, fmt.Errorf("decode %s/%s: %w", r.collection, doc.Ref.ID, err)
		}
		assets = append(assets, a)
	}
	return assets, nil
}

// StreamAll calls fn for each stored document with its reference, stopping at the first error.
func (r *AssetRepository) StreamAll(ctx context.Context, fn func(ref *firestore.DocumentRef, a model.Asset) error) error {
	iter := r.client.Collection(r.collection).Documents(ctx)
	defer iter.Stop()

	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			return nil
		}
		if err != nil {
			return fmt.Errorf("iterate %s: %w", r.collection, err)
		}
		a, err := assetFromMap(doc.Ref.ID, doc.Data())
		if err != nil {
			return fmt.Errorf("decode %s/%s: %w", r.collection, doc.Ref.ID, err)
		}
		if err := fn(doc.Ref, a); err != nil {
			return err
		}
	}
}

// BatchUpsert writes assets in batches to reduce round trips.
func (r *AssetRepository) BatchUpsert(ctx context.Context, assets []model.Asset) error {
	if len(assets) == 0 {
		return nil
	}

	for start := 0; start < len(assets); start += batchSize {
		end := min(start+batchSize, len(assets))
		batch := r.client.Batch()
		for _, a := range assets[start:end] {
			a.ID = documentID(a)
			batch.Set(r.client.Collection(r.collection).Doc(a.ID), a)
		}
		if _, err := batch.Commit(ctx); err != nil {
			return fmt.Errorf("commit batch [%d:%d]: %w", start, end, err)
		}
	}
	return nil
}

// AssetTextUpdate rewrites the text fields of one stored document.
type AssetTextUpdate struct {
	Ref   *firestore.DocumentRef
	Asset model.Asset
}

// UpdateText rewrites description, department and location only, leaving cost
// and timestamps exactly as stored.
func (r *AssetRepository) UpdateText(ctx context.Context, updates []AssetTextUpdate) error {
	for start := 0; start < len(updates); start += batchSize {
		end := min(start+batchSize, len(updates))
		batch := r.client.Batch()
		for _, u := range updates[start:end] {
			batch.Update(u.Ref, []firestore.Update{
				{Path: "description", Value: u.Asset.Description},
				{Path: "department", Value: u.Asset.Department},
				{Path: "location", Value: u.Asset.Location},
			})
		}
		if _, err := batch.Commit(ctx); err != nil {
			return fmt.Errorf("commit text batch [%d:%d]: %w", start, end, err)
		}
	}
	return nil
}
