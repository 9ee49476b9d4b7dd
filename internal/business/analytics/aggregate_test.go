package analytics

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weiwei-tsao/campus-assets-report/pkg/model"
)

var now = time.Date(2024, 6, 30, 12, 0, 0, 0, time.UTC)

func sampleAssets() []model.Asset {
	return []model.Asset{
		{Description: "Dell Server", Department: "IT", Location: "Server Room", Cost: 150000, CreatedAt: now.AddDate(0, 0, -5)},
		{Description: "Office Chair", Department: "Admin", Location: "Block A", Cost: 4000, CreatedAt: now.AddDate(-2, 0, 0)},
		{Description: "Oscilloscope", Department: "Physics", Location: "Lab 1", Cost: 60000},
		{Description: "Projector", Department: "IT", Location: "Block A", Cost: 45000, CreatedAt: now.AddDate(0, -3, 0)},
		{Description: "Whiteboard", Department: "  ", Location: "", Cost: 10000, CreatedAt: now.AddDate(0, 0, -30)},
		{Description: "Microscope", Department: "Biology", Location: "Lab 1", Cost: 100000},
	}
}

func TestComputeEmpty(t *testing.T) {
	_, err := Compute(nil, now)
	if !errors.Is(err, ErrNoAssets) {
		t.Fatalf("expected ErrNoAssets, got %v", err)
	}
}

func TestComputeTotals(t *testing.T) {
	stats, err := Compute(sampleAssets(), now)
	require.NoError(t, err)

	assert.Equal(t, 6, stats.TotalAssets)
	assert.InDelta(t, 369000, stats.TotalCost, 0.001)
	assert.InDelta(t, 61500, stats.AverageCost, 0.001)

	var deptCost float64
	var deptCount int
	for _, g := range stats.Departments {
		deptCost += g.Cost
		deptCount += g.Count
		assert.Len(t, g.Items, g.Count)
	}
	assert.InDelta(t, stats.TotalCost, deptCost, 0.001)
	assert.Equal(t, stats.TotalAssets, deptCount)
	assert.Equal(t, stats.TotalAssets, stats.CostBands.Total())
}

func TestComputeGroupsInFirstSeenOrder(t *testing.T) {
	stats, err := Compute(sampleAssets(), now)
	require.NoError(t, err)

	var depts, locs []string
	for _, g := range stats.Departments {
		depts = append(depts, g.Name)
	}
	for _, g := range stats.Locations {
		locs = append(locs, g.Name)
	}
	if diff := cmp.Diff([]string{"IT", "Admin", "Physics", "Unknown", "Biology"}, depts); diff != "" {
		t.Fatalf("departments mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Server Room", "Block A", "Lab 1", "Unknown"}, locs); diff != "" {
		t.Fatalf("locations mismatch (-want +got):\n%s", diff)
	}
}

func TestComputeBandEdges(t *testing.T) {
	assets := []model.Asset{
		{Cost: -50}, {Cost: 0}, {Cost: 10000},
		{Cost: 10000.01}, {Cost: 50000},
		{Cost: 50001}, {Cost: 100000},
		{Cost: 100000.5},
	}
	stats, err := Compute(assets, now)
	require.NoError(t, err)

	want := CostBands{Budget: 3, Standard: 2, Premium: 2, HighValue: 1}
	if stats.CostBands != want {
		t.Fatalf("CostBands = %+v, want %+v", stats.CostBands, want)
	}
}

func TestComputeMedian(t *testing.T) {
	tests := []struct {
		name  string
		costs []float64
		want  float64
	}{
		{name: "single", costs: []float64{7}, want: 7},
		{name: "odd", costs: []float64{5, 1, 3}, want: 3},
		{name: "even takes lower middle", costs: []float64{40, 10, 30, 20}, want: 20},
		{name: "duplicates", costs: []float64{2, 2, 9, 9}, want: 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assets := make([]model.Asset, 0, len(tt.costs))
			for _, c := range tt.costs {
				assets = append(assets, model.Asset{Cost: c})
			}
			stats, err := Compute(assets, now)
			require.NoError(t, err)
			if stats.MedianCost != tt.want {
				t.Fatalf("MedianCost = %v, want %v", stats.MedianCost, tt.want)
			}
		})
	}
}

func TestComputeExtremesFirstSeenWins(t *testing.T) {
	assets := []model.Asset{
		{Description: "A", Cost: 10},
		{Description: "B", Cost: 99},
		{Description: "C", Cost: 99},
		{Description: "D", Cost: 10},
	}
	stats, err := Compute(assets, now)
	require.NoError(t, err)

	assert.Equal(t, "B", stats.MostExpensive.Description)
	assert.Equal(t, "A", stats.LeastExpensive.Description)
	assert.Nil(t, stats.Oldest)
	assert.Nil(t, stats.Newest)
}

func TestComputeRecentAdditionsAndDates(t *testing.T) {
	stats, err := Compute(sampleAssets(), now)
	require.NoError(t, err)

	// 5 days ago and exactly 30 days ago are inside the window.
	assert.Equal(t, 2, stats.RecentAdditions)
	require.NotNil(t, stats.Oldest)
	require.NotNil(t, stats.Newest)
	assert.Equal(t, "Office Chair", stats.Oldest.Description)
	assert.Equal(t, "Dell Server", stats.Newest.Description)
}

func TestComputeFutureDatesCountAsRecent(t *testing.T) {
	stats, err := Compute([]model.Asset{{Cost: 1, CreatedAt: now.Add(48 * time.Hour)}}, now)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.RecentAdditions)
}

func TestOrderingHelpers(t *testing.T) {
	assets := []model.Asset{
		{Description: "x1", Department: "A", Location: "L1", Cost: 100},
		{Description: "x2", Department: "B", Location: "L2", Cost: 300},
		{Description: "x3", Department: "C", Location: "L2", Cost: 100},
		{Description: "x4", Department: "B", Location: "L3", Cost: 50},
		{Description: "x5", Department: "D", Location: "L3", Cost: 400},
	}
	stats, err := Compute(assets, now)
	require.NoError(t, err)

	names := func(groups []Group) []string {
		out := make([]string, 0, len(groups))
		for _, g := range groups {
			out = append(out, g.Name)
		}
		return out
	}

	assert.Equal(t, []string{"D", "B", "A", "C"}, names(stats.DepartmentsByCost()))
	assert.Equal(t, []string{"L3", "L2", "L1"}, names(stats.LocationsByCost()))
	assert.Equal(t, []string{"L2", "L3", "L1"}, names(stats.LocationsByCount()))
	// the sorted views must not reorder the first-seen slices
	assert.Equal(t, []string{"A", "B", "C", "D"}, names(stats.Departments))

	top, ok := stats.TopDepartment()
	require.True(t, ok)
	assert.Equal(t, "D", top.Name)
	assert.InDelta(t, stats.TotalCost, stats.DepartmentCostSum(), 0.001)
}

func TestTopDepartmentTie(t *testing.T) {
	stats, err := Compute([]model.Asset{
		{Department: "First", Cost: 50},
		{Department: "Second", Cost: 50},
	}, now)
	require.NoError(t, err)
	top, _ := stats.TopDepartment()
	assert.Equal(t, "First", top.Name)
}

func TestGroupTopItems(t *testing.T) {
	g := Group{Items: []model.Asset{
		{Description: "a", Cost: 1},
		{Description: "b", Cost: 5},
		{Description: "c", Cost: 3},
		{Description: "d", Cost: 5},
	}}
	top := g.TopItems(3)
	require.Len(t, top, 3)
	assert.Equal(t, "b", top[0].Description)
	assert.Equal(t, "d", top[1].Description)
	assert.Equal(t, "c", top[2].Description)
	assert.Equal(t, "a", g.Items[0].Description)
}

func TestSnapshot(t *testing.T) {
	stats, err := Compute(sampleAssets(), now)
	require.NoError(t, err)

	snap := Snapshot(stats)
	assert.Equal(t, now, snap.LastUpdated)
	assert.Equal(t, 6, snap.TotalAssets)
	assert.Equal(t, 5, snap.Departments)
	assert.Equal(t, 4, snap.Locations)
	assert.InDelta(t, 195000, snap.CostByDept["IT"], 0.001)
	assert.Equal(t, 2, snap.CountByLocation["Lab 1"])
	assert.Equal(t, map[string]int{"0-10k": 2, "10k-50k": 1, "50k-100k": 2, "100k+": 1}, snap.CostBands)
}
