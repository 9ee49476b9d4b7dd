package analytics

import "github.com/weiwei-tsao/campus-assets-report/pkg/model"

// Snapshot reduces the aggregate into the persisted dashboard summary.
func Snapshot(stats *Statistics) model.AssetSummary {
	costByDept := make(map[string]float64, len(stats.Departments))
	for _, g := range stats.Departments {
		costByDept[g.Name] = g.Cost
	}
	countByLocation := make(map[string]int, len(stats.Locations))
	for _, g := range stats.Locations {
		countByLocation[g.Name] = g.Count
	}

	return model.AssetSummary{
		LastUpdated:     stats.GeneratedAt,
		TotalAssets:     stats.TotalAssets,
		TotalCost:       stats.TotalCost,
		AverageCost:     stats.AverageCost,
		MedianCost:      stats.MedianCost,
		RecentAdditions: stats.RecentAdditions,
		Departments:     len(stats.Departments),
		Locations:       len(stats.Locations),
		CostByDept:      costByDept,
		CountByLocation: countByLocation,
		CostBands:       stats.CostBands.Map(),
	}
}
