package export

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/weiwei-tsao/campus-assets-report/internal/business/analytics"
	"github.com/weiwei-tsao/campus-assets-report/pkg/model"
)

// Sheet names, in workbook order.
const (
	SheetSummary     = "Summary"
	SheetDepartments = "Departments"
	SheetLocations   = "Locations"
	SheetInventory   = "Inventory"
)

const (
	rupeeFormat   = `"Rs."#,##0`
	percentFormat = "0.0%"
	dateFormat    = "yyyy-mm-dd"
)

const workbookLayout = "campus_assets_20060102_150405.xlsx"

// WorkbookFilename is the attachment name for a workbook generated at t.
func WorkbookFilename(t time.Time) string {
	return t.Format(workbookLayout)
}

// workbook holds the shared styles while sheets are written.
type workbook struct {
	f       *excelize.File
	header  int
	rupees  int
	percent int
	date    int
}

// WriteWorkbook writes the statistics and the full inventory as an XLSX workbook.
// Departments and locations are ordered by total value, the inventory by cost, highest first.
func WriteWorkbook(w io.Writer, stats *analytics.Statistics, assets []model.Asset) error {
	if stats == nil || stats.TotalAssets == 0 {
		return analytics.ErrNoAssets
	}

	f := excelize.NewFile()
	defer f.Close()

	wb, err := newWorkbook(f)
	if err != nil {
		return err
	}

	steps := []func() error{
		func() error { return wb.summary(stats) },
		func() error { return wb.groups(SheetDepartments, "Department", stats.DepartmentsByCost(), stats.TotalCost) },
		func() error { return wb.groups(SheetLocations, "Location", stats.LocationsByCost(), stats.TotalCost) },
		func() error { return wb.inventory(assets) },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}

	if err := f.SetDocProps(&excelize.DocProperties{
		Title:   "Campus Assets Analysis",
		Creator: "campus-assets-report",
		Created: stats.GeneratedAt.UTC().Format("2006-01-02T15:04:05Z"),
	}); err != nil {
		return fmt.Errorf("workbook properties: %w", err)
	}
	f.SetActiveSheet(0)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func newWorkbook(f *excelize.File) (*workbook, error) {
	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	for _, name := range []string{SheetDepartments, SheetLocations, SheetInventory} {
		if _, err := f.NewSheet(name); err != nil {
			return nil, fmt.Errorf("add sheet %s: %w", name, err)
		}
	}

	wb := &workbook{f: f}
	var err error
	if wb.header, err = f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"34495E"}},
	}); err != nil {
		return nil, fmt.Errorf("header style: %w", err)
	}
	rupees := rupeeFormat
	if wb.rupees, err = f.NewStyle(&excelize.Style{CustomNumFmt: &rupees}); err != nil {
		return nil, fmt.Errorf("currency style: %w", err)
	}
	percent := percentFormat
	if wb.percent, err = f.NewStyle(&excelize.Style{CustomNumFmt: &percent}); err != nil {
		return nil, fmt.Errorf("percent style: %w", err)
	}
	date := dateFormat
	if wb.date, err = f.NewStyle(&excelize.Style{CustomNumFmt: &date}); err != nil {
		return nil, fmt.Errorf("date style: %w", err)
	}
	return wb, nil
}

// table writes a styled header row with frozen panes and returns the first data row.
func (wb *workbook) table(sheet string, headers []string, widths []float64) (int, error) {
	row := make([]interface{}, len(headers))
	for i, h := range headers {
		row[i] = h
	}
	if err := wb.f.SetSheetRow(sheet, "A1", &row); err != nil {
		return 0, fmt.Errorf("%s header: %w", sheet, err)
	}
	last, _ := excelize.CoordinatesToCellName(len(headers), 1)
	if err := wb.f.SetCellStyle(sheet, "A1", last, wb.header); err != nil {
		return 0, fmt.Errorf("%s header style: %w", sheet, err)
	}
	for i, w := range widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := wb.f.SetColWidth(sheet, col, col, w); err != nil {
			return 0, fmt.Errorf("%s column width: %w", sheet, err)
		}
	}
	if err := wb.f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		return 0, fmt.Errorf("%s panes: %w", sheet, err)
	}
	return 2, nil
}

func (wb *workbook) style(sheet string, col, fromRow, toRow, style int) error {
	if toRow < fromRow {
		return nil
	}
	top, _ := excelize.CoordinatesToCellName(col, fromRow)
	bottom, _ := excelize.CoordinatesToCellName(col, toRow)
	return wb.f.SetCellStyle(sheet, top, bottom, style)
}

func (wb *workbook) summary(stats *analytics.Statistics) error {
	start, err := wb.table(SheetSummary, []string{"Metric", "Value"}, []float64{28, 22})
	if err != nil {
		return err
	}
	type metric struct {
		label string
		value interface{}
		style int
	}
	metrics := []metric{
		{"Generated", stats.GeneratedAt.UTC().Format("2006-01-02 15:04:05 UTC"), 0},
		{"Total Assets", stats.TotalAssets, 0},
		{"Total Value", stats.TotalCost, wb.rupees},
		{"Average Value", stats.AverageCost, wb.rupees},
		{"Median Value", stats.MedianCost, wb.rupees},
		{"Recent Additions (30 days)", stats.RecentAdditions, 0},
		{"Departments", len(stats.Departments), 0},
		{"Locations", len(stats.Locations), 0},
	}
	for _, b := range stats.CostBands.Bands() {
		metrics = append(metrics, metric{fmt.Sprintf("%s Assets (%s)", b.Label, b.Range), b.Count, 0})
	}

	for i, m := range metrics {
		r := start + i
		if err := wb.f.SetSheetRow(SheetSummary, fmt.Sprintf("A%d", r), &[]interface{}{m.label, m.value}); err != nil {
			return fmt.Errorf("summary row: %w", err)
		}
		if m.style != 0 {
			if err := wb.style(SheetSummary, 2, r, r, m.style); err != nil {
				return fmt.Errorf("summary style: %w", err)
			}
		}
	}
	return nil
}

func (wb *workbook) groups(sheet, label string, groups []analytics.Group, total float64) error {
	start, err := wb.table(sheet, []string{label, "Assets", "Total Value", "Avg Value", "% of Total"}, []float64{32, 10, 18, 18, 12})
	if err != nil {
		return err
	}
	for i, g := range groups {
		var share float64
		if total != 0 {
			share = g.Cost / total
		}
		row := []interface{}{g.Name, g.Count, g.Cost, g.AverageCost(), share}
		if err := wb.f.SetSheetRow(sheet, fmt.Sprintf("A%d", start+i), &row); err != nil {
			return fmt.Errorf("%s row: %w", sheet, err)
		}
	}
	end := start + len(groups) - 1
	for _, col := range []int{3, 4} {
		if err := wb.style(sheet, col, start, end, wb.rupees); err != nil {
			return fmt.Errorf("%s style: %w", sheet, err)
		}
	}
	if err := wb.style(sheet, 5, start, end, wb.percent); err != nil {
		return fmt.Errorf("%s style: %w", sheet, err)
	}
	return nil
}

func (wb *workbook) inventory(assets []model.Asset) error {
	start, err := wb.table(SheetInventory, []string{"Description", "Department", "Location", "Cost", "Added"}, []float64{44, 22, 22, 16, 14})
	if err != nil {
		return err
	}
	sorted := analytics.SortByCost(assets)
	for i, a := range sorted {
		var added interface{}
		if a.HasCreatedAt() {
			added = a.CreatedAt.UTC()
		}
		row := []interface{}{a.Description, a.Department, a.Location, a.Cost, added}
		if err := wb.f.SetSheetRow(SheetInventory, fmt.Sprintf("A%d", start+i), &row); err != nil {
			return fmt.Errorf("inventory row: %w", err)
		}
	}
	end := start + len(sorted) - 1
	if err := wb.style(SheetInventory, 4, start, end, wb.rupees); err != nil {
		return fmt.Errorf("inventory style: %w", err)
	}
	if err := wb.style(SheetInventory, 5, start, end, wb.date); err != nil {
		return fmt.Errorf("inventory style: %w", err)
	}
	if end >= start {
		if err := wb.f.AutoFilter(SheetInventory, fmt.Sprintf("A1:E%d", end), nil); err != nil {
			return fmt.Errorf("inventory filter: %w", err)
		}
	}
	return nil
}
