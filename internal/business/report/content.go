package report

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/weiwei-tsao/campus-assets-report/internal/business/analytics"
	"github.com/weiwei-tsao/campus-assets-report/pkg/model"
	"github.com/weiwei-tsao/campus-assets-report/pkg/util"
)

// Fixed cut-offs used by the report.
const (
	TopDepartmentDetails = 3
	TopDepartmentItems   = 3
	TopLocationRows      = 15
	TopLocationSlices    = 8

	highValueShare      = 0.10
	departmentShare     = 0.50
	costOptimizationAvg = 50000

	dateLayout = "January 02, 2006"
)

// Table headers and column ratios.
var (
	DepartmentHeaders = []string{"Department", "Assets", "Total Value", "Avg Value", "% of Total"}
	LocationHeaders   = []string{"Location", "Assets", "Total Value", "Avg Value"}
	InventoryHeaders  = []string{"Description", "Department", "Location", "Cost"}

	departmentRatios = []float64{0.3, 0.15, 0.25, 0.2, 0.1}
	locationRatios   = []float64{0.45, 0.15, 0.25, 0.15}
	inventoryRatios  = []float64{0.4, 0.2, 0.22, 0.18}
)

// Recommendation is one numbered entry of the recommendations section.
type Recommendation struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}

// CoverStats are the four boxes on the cover page.
func CoverStats(stats *analytics.Statistics) []Stat {
	return []Stat{
		{Label: "Total Assets", Value: util.FormatCount(stats.TotalAssets)},
		{Label: "Total Value", Value: util.FormatRupees(stats.TotalCost)},
		{Label: "Departments", Value: strconv.Itoa(len(stats.Departments))},
		{Label: "Locations", Value: strconv.Itoa(len(stats.Locations))},
	}
}

// FinancialStats are the four boxes of the financial overview.
func FinancialStats(stats *analytics.Statistics) []Stat {
	var highest float64
	if stats.MostExpensive != nil {
		highest = stats.MostExpensive.Cost
	}
	return []Stat{
		{Label: "Total Value", Value: util.FormatRupees(stats.TotalCost)},
		{Label: "Average Value", Value: util.FormatRupees(stats.AverageCost)},
		{Label: "Median Value", Value: util.FormatRupees(stats.MedianCost)},
		{Label: "Highest Value", Value: util.FormatRupees(highest)},
	}
}

// Findings lists the executive summary's key findings.
func Findings(stats *analytics.Statistics) []string {
	findings := []string{
		fmt.Sprintf("Total of %s assets worth %s under management", util.FormatCount(stats.TotalAssets), util.FormatRupees(stats.TotalCost)),
		fmt.Sprintf("Average asset value: %s", util.FormatRupees(stats.AverageCost)),
		fmt.Sprintf("%d departments across %d locations", len(stats.Departments), len(stats.Locations)),
		fmt.Sprintf("%d new assets added in the last 30 days", stats.RecentAdditions),
	}
	if a := stats.MostExpensive; a != nil {
		findings = append(findings, fmt.Sprintf("Most valuable asset: %s (%s)", orNA(a.Description), util.FormatRupees(a.Cost)))
	}
	if top, ok := stats.TopDepartment(); ok {
		findings = append(findings, fmt.Sprintf("Highest value department: %s (%s)", top.Name, util.FormatRupees(top.Cost)))
	}
	if a := stats.Oldest; a != nil {
		findings = append(findings, fmt.Sprintf("Oldest recorded asset: %s (added %s)", orNA(a.Description), a.CreatedAt.Format(dateLayout)))
	}
	if a := stats.Newest; a != nil {
		findings = append(findings, fmt.Sprintf("Newest recorded asset: %s (added %s)", orNA(a.Description), a.CreatedAt.Format(dateLayout)))
	}
	return findings
}

// DistributionLines describe the four cost bands by item count.
func DistributionLines(stats *analytics.Statistics) []string {
	bands := stats.CostBands.Bands()
	lines := make([]string, 0, len(bands))
	for _, b := range bands {
		lines = append(lines, fmt.Sprintf("%s assets (%s): %d items", b.Label, b.Range, b.Count))
	}
	return lines
}

// ValueCategories describe the four cost bands with their share of all records.
func ValueCategories(stats *analytics.Statistics) []string {
	bands := stats.CostBands.Bands()
	lines := make([]string, 0, len(bands))
	for _, b := range bands {
		share := util.Percent(float64(b.Count), float64(stats.TotalAssets))
		lines = append(lines, fmt.Sprintf("%s Assets (%s): %d assets (%s)", b.Label, b.Range, b.Count, util.FormatPercent(share)))
	}
	return lines
}

// DepartmentRows builds the department table, highest total value first.
func DepartmentRows(stats *analytics.Statistics) [][]string {
	groups := stats.DepartmentsByCost()
	rows := make([][]string, 0, len(groups))
	for _, g := range groups {
		rows = append(rows, []string{
			g.Name,
			strconv.Itoa(g.Count),
			util.FormatRupees(g.Cost),
			util.FormatRupees(g.AverageCost()),
			util.FormatPercent(util.Percent(g.Cost, stats.TotalCost)),
		})
	}
	return rows
}

// DepartmentDetail lines for one of the top departments, numbered from rank.
func DepartmentDetail(rank int, g analytics.Group) (heading string, lines []string, items []string) {
	heading = fmt.Sprintf("%d. %s Department:", rank, g.Name)
	lines = []string{
		fmt.Sprintf("Total Assets: %d", g.Count),
		fmt.Sprintf("Total Value: %s", util.FormatRupees(g.Cost)),
		fmt.Sprintf("Average Value: %s", util.FormatRupees(g.AverageCost())),
	}
	for i, a := range g.TopItems(TopDepartmentItems) {
		items = append(items, fmt.Sprintf("%d. %s - %s", i+1, orNA(a.Description), util.FormatRupees(a.Cost)))
	}
	return heading, lines, items
}

// LocationRows builds the location table: the top locations by total value.
func LocationRows(stats *analytics.Statistics) [][]string {
	groups := stats.LocationsByCost()
	if len(groups) > TopLocationRows {
		groups = groups[:TopLocationRows]
	}
	rows := make([][]string, 0, len(groups))
	for _, g := range groups {
		rows = append(rows, []string{
			g.Name,
			strconv.Itoa(g.Count),
			util.FormatRupees(g.Cost),
			util.FormatRupees(g.AverageCost()),
		})
	}
	return rows
}

// InventoryRows lists every asset, most expensive first.
func InventoryRows(assets []model.Asset) [][]string {
	sorted := analytics.SortByCost(assets)
	rows := make([][]string, 0, len(sorted))
	for _, a := range sorted {
		rows = append(rows, []string{
			orNA(a.Description),
			orNA(a.Department),
			orNA(a.Location),
			util.FormatRupees(a.Cost),
		})
	}
	return rows
}

// AssetDetails describes a single asset for the extremes block.
func AssetDetails(a model.Asset) []string {
	return []string{
		"Description: " + orNA(a.Description),
		"Value: " + util.FormatRupees(a.Cost),
		"Department: " + orNA(a.Department),
		"Location: " + orNA(a.Location),
	}
}

// DepartmentChartData is every department by total value, highest first.
func DepartmentChartData(stats *analytics.Statistics) ([]string, []float64) {
	groups := stats.DepartmentsByCost()
	labels := make([]string, len(groups))
	values := make([]float64, len(groups))
	for i, g := range groups {
		labels[i] = g.Name
		values[i] = g.Cost
	}
	return labels, values
}

// LocationChartData is the top locations by asset count.
func LocationChartData(stats *analytics.Statistics) ([]string, []float64) {
	groups := stats.LocationsByCount()
	if len(groups) > TopLocationSlices {
		groups = groups[:TopLocationSlices]
	}
	labels := make([]string, len(groups))
	values := make([]float64, len(groups))
	for i, g := range groups {
		labels[i] = g.Name
		values[i] = float64(g.Count)
	}
	return labels, values
}

// Recommendations returns the conditional recommendations followed by the standing ones.
func Recommendations(stats *analytics.Statistics) []Recommendation {
	var recs []Recommendation

	if high := stats.CostBands.HighValue; float64(high) > float64(stats.TotalAssets)*highValueShare {
		recs = append(recs, Recommendation{
			Title:   "High-Value Asset Management",
			Content: fmt.Sprintf("With %d high-value assets (>Rs.100k), implement enhanced security protocols, regular maintenance schedules, and insurance coverage reviews.", high),
		})
	}

	if top, ok := stats.TopDepartment(); ok && top.Cost > stats.DepartmentCostSum()*departmentShare {
		recs = append(recs, Recommendation{
			Title: "Department Resource Distribution",
			Content: fmt.Sprintf("%s department holds %s of total assets. Consider redistribution strategies for optimal resource utilization.",
				top.Name, util.FormatPercent(util.Percent(top.Cost, stats.TotalCost))),
		})
	}

	if stats.AverageCost > costOptimizationAvg {
		recs = append(recs, Recommendation{
			Title:   "Cost Optimization",
			Content: fmt.Sprintf("Average asset cost of %s is substantial. Review procurement policies and consider bulk purchasing agreements for better cost efficiency.", util.FormatRupees(stats.AverageCost)),
		})
	}

	return append(recs,
		Recommendation{
			Title:   "Asset Tracking Enhancement",
			Content: "Implement QR code or RFID-based tracking systems for real-time asset monitoring and automated inventory management.",
		},
		Recommendation{
			Title:   "Preventive Maintenance",
			Content: "Establish department-wise maintenance schedules based on asset value and usage patterns to extend asset lifespan and reduce replacement costs.",
		},
	)
}

// Conclusion is the closing paragraph of the report.
func Conclusion(stats *analytics.Statistics) string {
	return fmt.Sprintf("The campus assets management system currently oversees %s assets valued at %s across %d departments. "+
		"This comprehensive analysis provides insights for strategic decision-making and operational optimization.",
		util.FormatCount(stats.TotalAssets), util.FormatRupees(stats.TotalCost), len(stats.Departments))
}
