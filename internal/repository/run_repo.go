package repository

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"github.com/weiwei-tsao/campus-assets-report/pkg/model"
)

const runsCollection = "report_runs"

// RunRepository manages report run lifecycle records.
type RunRepository struct {
	client *firestore.Client
}

func NewRunRepository(client *firestore.Client) *RunRepository {
	return &RunRepository{client: client}
}

func (r *RunRepository) CreateRun(ctx context.Context, run model.ReportRun) error {
	if run.RunID == "" {
		return fmt.Errorf("runId is required")
	}
	ref := r.client.Collection(runsCollection).Doc(run.RunID)
	if _, err := ref.Set(ctx, run); err != nil {
		return fmt.Errorf("create run %s: %w", run.RunID, err)
	}
	return nil
}

func (r *RunRepository) UpdateRun(ctx context.Context, run model.ReportRun) error {
	if run.RunID == "" {
		return fmt.Errorf("runId is required")
	}
	ref := r.client.Collection(runsCollection).Doc(run.RunID)
	if _, err := ref.Set(ctx, run); err != nil {
		return fmt.Errorf("update run %s: %w", run.RunID, err)
	}
	return nil
}

// ListRuns returns the most recent runs, newest first.
func (r *RunRepository) ListRuns(ctx context.Context, limit int) ([]model.ReportRun, error) {
	iter := r.client.Collection(runsCollection).
		OrderBy("startedAt", firestore.Desc).
		Limit(runLimit(limit)).
		Documents(ctx)
	defer iter.Stop()

	runs := []model.ReportRun{}
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list runs: %w", err)
		}
		var run model.ReportRun
		if err := doc.DataTo(&run); err != nil {
			return nil, fmt.Errorf("decode run %s: %w", doc.Ref.ID, err)
		}
		runs = append(runs, run)
	}
	return runs, nil
}
