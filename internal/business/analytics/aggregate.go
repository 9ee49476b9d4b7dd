package analytics

import (
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/weiwei-tsao/campus-assets-report/pkg/model"
)

// ErrNoAssets is returned when there is nothing to aggregate.
var ErrNoAssets = errors.New("no assets found in database")

const (
	// UnknownGroup collects records with a blank department or location.
	UnknownGroup = "Unknown"
	// RecentWindow is how far back a record still counts as a recent addition.
	RecentWindow = 30 * 24 * time.Hour
)

// Group is the running total for one department or location.
type Group struct {
	Name  string        `json:"name"`
	Count int           `json:"count"`
	Cost  float64       `json:"cost"`
	Items []model.Asset `json:"-"`
}

// AverageCost returns the mean cost of the group's records.
func (g Group) AverageCost() float64 {
	if g.Count == 0 {
		return 0
	}
	return g.Cost / float64(g.Count)
}

// TopItems returns up to n records of the group, most expensive first.
func (g Group) TopItems(n int) []model.Asset {
	items := SortByCost(g.Items)
	if n >= 0 && len(items) > n {
		items = items[:n]
	}
	return items
}

// Statistics is the single-pass aggregate over a set of asset records.
type Statistics struct {
	GeneratedAt     time.Time    `json:"generatedAt"`
	TotalAssets     int          `json:"totalAssets"`
	TotalCost       float64      `json:"totalCost"`
	AverageCost     float64      `json:"averageCost"`
	MedianCost      float64      `json:"medianCost"`
	RecentAdditions int          `json:"recentAdditions"`
	Departments     []Group      `json:"departments"` // first-seen order
	Locations       []Group      `json:"locations"`   // first-seen order
	CostBands       CostBands    `json:"costBands"`
	MostExpensive   *model.Asset `json:"mostExpensive,omitempty"`
	LeastExpensive  *model.Asset `json:"leastExpensive,omitempty"`
	Oldest          *model.Asset `json:"oldest,omitempty"`
	Newest          *model.Asset `json:"newest,omitempty"`
}

// Compute aggregates assets in a single pass. now anchors the recent-additions window.
func Compute(assets []model.Asset, now time.Time) (*Statistics, error) {
	if len(assets) == 0 {
		return nil, ErrNoAssets
	}

	stats := &Statistics{
		GeneratedAt: now,
		TotalAssets: len(assets),
	}
	departments := newGrouper()
	locations := newGrouper()
	costs := make([]float64, 0, len(assets))
	cutoff := now.Add(-RecentWindow)

	for _, a := range assets {
		costs = append(costs, a.Cost)
		stats.TotalCost += a.Cost

		departments.add(GroupName(a.Department), a)
		locations.add(GroupName(a.Location), a)
		stats.CostBands.Add(a.Cost)

		if stats.MostExpensive == nil || a.Cost > stats.MostExpensive.Cost {
			stats.MostExpensive = ptr(a)
		}
		if stats.LeastExpensive == nil || a.Cost < stats.LeastExpensive.Cost {
			stats.LeastExpensive = ptr(a)
		}

		if !a.HasCreatedAt() {
			continue
		}
		if stats.Newest == nil || a.CreatedAt.After(stats.Newest.CreatedAt) {
			stats.Newest = ptr(a)
		}
		if stats.Oldest == nil || a.CreatedAt.Before(stats.Oldest.CreatedAt) {
			stats.Oldest = ptr(a)
		}
		if !a.CreatedAt.Before(cutoff) {
			stats.RecentAdditions++
		}
	}

	stats.Departments = departments.groups
	stats.Locations = locations.groups
	stats.AverageCost = stats.TotalCost / float64(len(costs))
	stats.MedianCost = lowerMedian(costs)
	return stats, nil
}

// GroupName trims a department or location name, mapping blanks to UnknownGroup.
func GroupName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return UnknownGroup
	}
	return name
}

// DepartmentsByCost returns departments ordered by total cost, highest first.
func (s *Statistics) DepartmentsByCost() []Group {
	return sortGroups(s.Departments, func(a, b Group) bool { return a.Cost > b.Cost })
}

// LocationsByCost returns locations ordered by total cost, highest first.
func (s *Statistics) LocationsByCost() []Group {
	return sortGroups(s.Locations, func(a, b Group) bool { return a.Cost > b.Cost })
}

// LocationsByCount returns locations ordered by number of records, highest first.
func (s *Statistics) LocationsByCount() []Group {
	return sortGroups(s.Locations, func(a, b Group) bool { return a.Count > b.Count })
}

// TopDepartment returns the highest-cost department. The first-seen department wins ties.
func (s *Statistics) TopDepartment() (Group, bool) {
	if len(s.Departments) == 0 {
		return Group{}, false
	}
	top := s.Departments[0]
	for _, g := range s.Departments[1:] {
		if g.Cost > top.Cost {
			top = g
		}
	}
	return top, true
}

// DepartmentCostSum is the sum of all per-department totals.
func (s *Statistics) DepartmentCostSum() float64 {
	var sum float64
	for _, g := range s.Departments {
		sum += g.Cost
	}
	return sum
}

// SortByCost returns a copy of assets ordered by cost, highest first. Ties keep input order.
func SortByCost(assets []model.Asset) []model.Asset {
	out := make([]model.Asset, len(assets))
	copy(out, assets)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Cost > out[j].Cost })
	return out
}

func sortGroups(groups []Group, less func(a, b Group) bool) []Group {
	out := make([]Group, len(groups))
	copy(out, groups)
	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

// lowerMedian returns sorted[(n-1)/2], the lower of the two middle values on even counts.
func lowerMedian(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	return sorted[(len(sorted)-1)/2]
}

func ptr(a model.Asset) *model.Asset {
	return &a
}

type grouper struct {
	index  map[string]int
	groups []Group
}

func newGrouper() *grouper {
	return &grouper{index: make(map[string]int)}
}

func (g *grouper) add(name string, a model.Asset) {
	i, ok := g.index[name]
	if !ok {
		i = len(g.groups)
		g.index[name] = i
		g.groups = append(g.groups, Group{Name: name})
	}
	g.groups[i].Count++
	g.groups[i].Cost += a.Cost
	g.groups[i].Items = append(g.groups[i].Items, a)
}
