package report

import (
	"fmt"

	"github.com/weiwei-tsao/campus-assets-report/internal/business/analytics"
	"github.com/weiwei-tsao/campus-assets-report/pkg/model"
)

// Section titles, in page order. Each one is also a bookmark.
const (
	SectionCover           = "Cover"
	SectionExecutive       = "Executive Summary"
	SectionAnalytics       = "Detailed Analytics"
	SectionDepartments     = "Department Analysis"
	SectionLocations       = "Location Analysis"
	SectionFinancial       = "Financial Analysis"
	SectionInventory       = "Complete Asset Inventory"
	SectionRecommendations = "Strategic Recommendations"
)

// section renders one part of the report starting on a fresh page.
type section func(d *document, in *input)

type input struct {
	stats  *analytics.Statistics
	assets []model.Asset
	charts ChartRenderer
}

var sections = []section{
	coverPage,
	executiveSummary,
	detailedAnalytics,
	departmentAnalysis,
	locationAnalysis,
	financialAnalysis,
	assetInventory,
	recommendations,
}

func coverPage(d *document, in *input) {
	d.pdf.AddPage()
	d.pdf.Bookmark(SectionCover, 0, -1)
	d.pdf.Ln(30)

	d.pdf.SetFont("Arial", "B", 32)
	d.textColor(colorPrimary)
	d.centered(15, "CAMPUS ASSETS")
	d.centered(15, "ANALYSIS REPORT")
	d.pdf.Ln(20)

	d.pdf.SetFont("Arial", "", 16)
	d.textColor(colorText)
	d.centered(8, "Comprehensive Overview & Strategic Insights")
	d.pdf.Ln(25)

	d.statGrid(CoverStats(in.stats), 4)
	d.pdf.Ln(15)

	d.pdf.SetFont("Arial", "", 12)
	d.textColor(colorMuted)
	d.centered(6, "Generated: "+d.generatedAt.Format(dateLayout))
	d.centered(6, "Data Period: Complete Asset Database")
	d.centered(6, "Report Type: Comprehensive Analysis")
}

func executiveSummary(d *document, in *input) {
	d.startSection(SectionExecutive)

	d.subsectionTitle("Key Findings")
	d.bullets(Findings(in.stats))
	d.pdf.Ln(8)

	d.subsectionTitle("Asset Value Distribution")
	d.bullets(DistributionLines(in.stats))
}

func detailedAnalytics(d *document, in *input) {
	d.startSection(SectionAnalytics)

	labels, values := DepartmentChartData(in.stats)
	png, err := in.charts.Bar("Department-wise Asset Value Distribution", labels, values)
	d.chart("Department-wise Asset Value Distribution", png, err)

	labels, values = LocationChartData(in.stats)
	png, err = in.charts.Pie(fmt.Sprintf("Asset Distribution by Location (Top %d)", TopLocationSlices), labels, values)
	d.chart("Asset Distribution by Location", png, err)
}

func departmentAnalysis(d *document, in *input) {
	d.startSection(SectionDepartments)

	d.subsectionTitle("Department Overview")
	d.table(DepartmentHeaders, DepartmentRows(in.stats), departmentRatios)
	d.pdf.Ln(8)

	d.subsectionTitle(fmt.Sprintf("Top %d Departments - Detailed Analysis", TopDepartmentDetails))
	groups := in.stats.DepartmentsByCost()
	if len(groups) > TopDepartmentDetails {
		groups = groups[:TopDepartmentDetails]
	}
	for i, g := range groups {
		heading, lines, items := DepartmentDetail(i+1, g)
		d.paragraph(heading, 0)
		for _, l := range lines {
			d.paragraph(l, 10)
		}
		if len(items) > 0 {
			d.paragraph("Top assets:", 10)
			for _, item := range items {
				d.paragraph(item, 15)
			}
		}
		d.pdf.Ln(4)
	}
}

func locationAnalysis(d *document, in *input) {
	d.startSection(SectionLocations)

	d.subsectionTitle("Location Overview")
	d.table(LocationHeaders, LocationRows(in.stats), locationRatios)
}

func financialAnalysis(d *document, in *input) {
	d.startSection(SectionFinancial)

	d.subsectionTitle("Financial Overview")
	d.statGrid(FinancialStats(in.stats), 4)
	d.pdf.Ln(8)

	d.subsectionTitle("Asset Value Categories")
	d.bullets(ValueCategories(in.stats))
	d.pdf.Ln(8)

	d.subsectionTitle("Asset Value Extremes")
	if a := in.stats.MostExpensive; a != nil {
		d.paragraph("Most Expensive Asset:", 0)
		for _, l := range AssetDetails(*a) {
			d.paragraph(l, 10)
		}
		d.pdf.Ln(4)
	}
	if a := in.stats.LeastExpensive; a != nil {
		d.paragraph("Least Expensive Asset:", 0)
		for _, l := range AssetDetails(*a) {
			d.paragraph(l, 10)
		}
	}
}

func assetInventory(d *document, in *input) {
	d.startSection(SectionInventory)

	d.subsectionTitle("All Assets (Sorted by Value)")
	d.table(InventoryHeaders, InventoryRows(in.assets), inventoryRatios)
}

func recommendations(d *document, in *input) {
	d.startSection(SectionRecommendations)

	for i, rec := range Recommendations(in.stats) {
		d.subsectionTitle(fmt.Sprintf("%d. %s", i+1, rec.Title))
		d.paragraph(rec.Content, 0)
		d.pdf.Ln(4)
	}

	d.pdf.Ln(8)
	d.drawColor(colorSuccess)
	d.pdf.SetLineWidth(0.3)
	y := d.pdf.GetY()
	d.pdf.Line(marginLeft, y, marginLeft+effectiveWidth, y)
	d.subsectionTitle("Conclusion")
	d.paragraph(Conclusion(in.stats), 0)
}
