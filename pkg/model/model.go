package model

import "time"

// Asset is a single campus asset record stored in the `resources` collection.
type Asset struct {
	ID          string    `json:"id,omitempty" firestore:"id,omitempty" yaml:"id,omitempty" db:"id"`
	Description string    `json:"description,omitempty" firestore:"description,omitempty" yaml:"description,omitempty" db:"description"`
	Department  string    `json:"department,omitempty" firestore:"department,omitempty" yaml:"department,omitempty" db:"department"`
	Location    string    `json:"location,omitempty" firestore:"location,omitempty" yaml:"location,omitempty" db:"location"`
	Cost        float64   `json:"cost" firestore:"cost" yaml:"cost" db:"cost"`
	CreatedAt   time.Time `json:"createdAt,omitempty" firestore:"created_at,omitempty" yaml:"-" db:"-"` // zero when the record has no creation date
}

// HasCreatedAt reports whether the record carries a creation timestamp.
func (a Asset) HasCreatedAt() bool {
	return !a.CreatedAt.IsZero()
}

// AssetSummary is a singleton document that pre-aggregates dashboard metrics.
type AssetSummary struct {
	LastUpdated     time.Time          `json:"lastUpdated,omitempty" firestore:"lastUpdated,omitempty"`
	TotalAssets     int                `json:"totalAssets" firestore:"totalAssets"`
	TotalCost       float64            `json:"totalCost" firestore:"totalCost"`
	AverageCost     float64            `json:"averageCost" firestore:"averageCost"`
	MedianCost      float64            `json:"medianCost" firestore:"medianCost"`
	RecentAdditions int                `json:"recentAdditions" firestore:"recentAdditions"`
	Departments     int                `json:"departments" firestore:"departments"`
	Locations       int                `json:"locations" firestore:"locations"`
	CostByDept      map[string]float64 `json:"costByDepartment,omitempty" firestore:"costByDepartment,omitempty"`
	CountByLocation map[string]int     `json:"countByLocation,omitempty" firestore:"countByLocation,omitempty"`
	CostBands       map[string]int     `json:"costBands,omitempty" firestore:"costBands,omitempty"`
}

// Report run statuses.
const (
	RunStatusRunning = "running"
	RunStatusSuccess = "success"
	RunStatusCached  = "cached"
	RunStatusFailed  = "failed"
)

// ReportRun tracks the lifecycle of one report generation.
type ReportRun struct {
	RunID       string    `json:"runId,omitempty" firestore:"runId,omitempty" db:"run_id"`
	Status      string    `json:"status,omitempty" firestore:"status,omitempty" db:"status"`
	Assets      int       `json:"assets,omitempty" firestore:"assets,omitempty" db:"assets"`
	Pages       int       `json:"pages,omitempty" firestore:"pages,omitempty" db:"pages"`
	Bytes       int       `json:"bytes,omitempty" firestore:"bytes,omitempty" db:"bytes"`
	Fingerprint string    `json:"fingerprint,omitempty" firestore:"fingerprint,omitempty" db:"fingerprint"`
	StartedAt   time.Time `json:"startedAt,omitempty" firestore:"startedAt,omitempty" db:"started_at"`
	FinishedAt  time.Time `json:"finishedAt,omitempty" firestore:"finishedAt,omitempty" db:"finished_at"`
	Error       string    `json:"error,omitempty" firestore:"error,omitempty" db:"error"`
}
