package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/weiwei-tsao/campus-assets-report/pkg/model"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

const summaryID = "assets"

type assetRow struct {
	ID          string       `db:"id"`
	Description string       `db:"description"`
	Department  string       `db:"department"`
	Location    string       `db:"location"`
	Cost        float64      `db:"cost"`
	CreatedAt   sql.NullTime `db:"created_at"`
}

func (r assetRow) asset() model.Asset {
	a := model.Asset{
		ID:          r.ID,
		Description: r.Description,
		Department:  r.Department,
		Location:    r.Location,
		Cost:        r.Cost,
	}
	if r.CreatedAt.Valid {
		a.CreatedAt = r.CreatedAt.Time.UTC()
	}
	return a
}

type runRow struct {
	RunID       string       `db:"run_id"`
	Status      string       `db:"status"`
	Assets      int          `db:"assets"`
	Pages       int          `db:"pages"`
	Bytes       int          `db:"bytes"`
	Fingerprint string       `db:"fingerprint"`
	StartedAt   time.Time    `db:"started_at"`
	FinishedAt  sql.NullTime `db:"finished_at"`
	Error       string       `db:"error"`
}

func (r runRow) run() model.ReportRun {
	run := model.ReportRun{
		RunID:       r.RunID,
		Status:      r.Status,
		Assets:      r.Assets,
		Pages:       r.Pages,
		Bytes:       r.Bytes,
		Fingerprint: r.Fingerprint,
		StartedAt:   r.StartedAt.UTC(),
		Error:       r.Error,
	}
	if r.FinishedAt.Valid {
		run.FinishedAt = r.FinishedAt.Time.UTC()
	}
	return run
}

func toNullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

// SQLAssetRepository stores assets in the PostgreSQL resources table.
type SQLAssetRepository struct {
	db *sqlx.DB
}

func NewSQLAssetRepository(db *sqlx.DB) *SQLAssetRepository {
	return &SQLAssetRepository{db: db}
}

// FetchAll loads every asset ordered by id.
func (r *SQLAssetRepository) FetchAll(ctx context.Context) ([]model.Asset, error) {
	query, args, err := psql.
		Select("id", "description", "department", "location", "cost", "created_at").
		From("resources").
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build asset query: %w", err)
	}

	var rows []assetRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select assets: %w", err)
	}
	assets := make([]model.Asset, len(rows))
	for i, row := range rows {
		assets[i] = row.asset()
	}
	return assets, nil
}

// BatchUpsert inserts or replaces assets by id inside one transaction.
func (r *SQLAssetRepository) BatchUpsert(ctx context.Context, assets []model.Asset) error {
	if len(assets) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for start := 0; start < len(assets); start += batchSize {
		end := min(start+batchSize, len(assets))
		insert := psql.Insert("resources").
			Columns("id", "description", "department", "location", "cost", "created_at").
			Suffix("ON CONFLICT (id) DO UPDATE SET " +
				"description = EXCLUDED.description, department = EXCLUDED.department, " +
				"location = EXCLUDED.location, cost = EXCLUDED.cost, created_at = EXCLUDED.created_at")
		for _, a := range assets[start:end] {
			insert = insert.Values(documentID(a), a.Description, a.Department, a.Location, a.Cost, toNullTime(a.CreatedAt))
		}
		query, args, err := insert.ToSql()
		if err != nil {
			return fmt.Errorf("build upsert: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("upsert batch [%d:%d]: %w", start, end, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit upsert: %w", err)
	}
	return nil
}

// SQLRunRepository stores report runs in the report_runs table.
type SQLRunRepository struct {
	db *sqlx.DB
}

func NewSQLRunRepository(db *sqlx.DB) *SQLRunRepository {
	return &SQLRunRepository{db: db}
}

func (r *SQLRunRepository) CreateRun(ctx context.Context, run model.ReportRun) error {
	if run.RunID == "" {
		return fmt.Errorf("runId is required")
	}
	query, args, err := psql.Insert("report_runs").
		Columns("run_id", "status", "assets", "pages", "bytes", "fingerprint", "started_at", "finished_at", "error").
		Values(run.RunID, run.Status, run.Assets, run.Pages, run.Bytes, run.Fingerprint, run.StartedAt.UTC(), toNullTime(run.FinishedAt), run.Error).
		ToSql()
	if err != nil {
		return fmt.Errorf("build run insert: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("create run %s: %w", run.RunID, err)
	}
	return nil
}

func (r *SQLRunRepository) UpdateRun(ctx context.Context, run model.ReportRun) error {
	if run.RunID == "" {
		return fmt.Errorf("runId is required")
	}
	query, args, err := psql.Update("report_runs").
		SetMap(map[string]interface{}{
			"status":      run.Status,
			"assets":      run.Assets,
			"pages":       run.Pages,
			"bytes":       run.Bytes,
			"fingerprint": run.Fingerprint,
			"finished_at": toNullTime(run.FinishedAt),
			"error":       run.Error,
		}).
		Where(sq.Eq{"run_id": run.RunID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build run update: %w", err)
	}
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update run %s: %w", run.RunID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("update run %s: %w", run.RunID, sql.ErrNoRows)
	}
	return nil
}

// ListRuns returns the most recent runs, newest first.
func (r *SQLRunRepository) ListRuns(ctx context.Context, limit int) ([]model.ReportRun, error) {
	query, args, err := psql.
		Select("run_id", "status", "assets", "pages", "bytes", "fingerprint", "started_at", "finished_at", "error").
		From("report_runs").
		OrderBy("started_at DESC").
		Limit(uint64(runLimit(limit))).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build run query: %w", err)
	}
	var rows []runRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	runs := make([]model.ReportRun, len(rows))
	for i, row := range rows {
		runs[i] = row.run()
	}
	return runs, nil
}

// SQLSnapshotRepository keeps the summary as a JSONB payload in asset_summaries.
type SQLSnapshotRepository struct {
	db *sqlx.DB
}

func NewSQLSnapshotRepository(db *sqlx.DB) *SQLSnapshotRepository {
	return &SQLSnapshotRepository{db: db}
}

func (r *SQLSnapshotRepository) SaveAssetSummary(ctx context.Context, summary model.AssetSummary) error {
	payload, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("encode asset summary: %w", err)
	}
	query, args, err := psql.Insert("asset_summaries").
		Columns("id", "payload", "updated_at").
		Values(summaryID, payload, time.Now().UTC()).
		Suffix("ON CONFLICT (id) DO UPDATE SET payload = EXCLUDED.payload, updated_at = EXCLUDED.updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build summary upsert: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save asset summary: %w", err)
	}
	return nil
}

func (r *SQLSnapshotRepository) GetAssetSummary(ctx context.Context) (model.AssetSummary, error) {
	query, args, err := psql.Select("payload").From("asset_summaries").Where(sq.Eq{"id": summaryID}).ToSql()
	if err != nil {
		return model.AssetSummary{}, fmt.Errorf("build summary query: %w", err)
	}
	var payload []byte
	if err := r.db.GetContext(ctx, &payload, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.AssetSummary{}, ErrSnapshotNotFound
		}
		return model.AssetSummary{}, fmt.Errorf("get asset summary: %w", err)
	}
	var summary model.AssetSummary
	if err := json.Unmarshal(payload, &summary); err != nil {
		return model.AssetSummary{}, fmt.Errorf("decode asset summary: %w", err)
	}
	return summary, nil
}
