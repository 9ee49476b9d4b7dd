package export

import (
	"bytes"
	"encoding/csv"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/weiwei-tsao/campus-assets-report/internal/business/analytics"
	"github.com/weiwei-tsao/campus-assets-report/pkg/model"
)

var now = time.Date(2024, 6, 30, 9, 30, 0, 0, time.UTC)

func fixture() []model.Asset {
	return []model.Asset{
		{ID: "a1", Description: "Projector", Department: "IT", Location: "Block A", Cost: 42000, CreatedAt: now.AddDate(0, -2, 0)},
		{ID: "a2", Description: "Dell PowerEdge Server", Department: "IT", Location: "Server Room", Cost: 250000},
		{ID: "a3", Description: "Office Chair, ergonomic", Department: "Admin", Location: "Block A", Cost: 4500},
		{ID: "a4", Description: "Compound Microscope", Department: "Biology", Location: "Lab 1", Cost: 120000},
		{ID: "a5", Cost: 900},
	}
}

func stats(t *testing.T, assets []model.Asset) *analytics.Statistics {
	t.Helper()
	s, err := analytics.Compute(assets, now)
	require.NoError(t, err)
	return s
}

func openWorkbook(t *testing.T, b []byte) *excelize.File {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(b))
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	return f
}

func rawRows(t *testing.T, f *excelize.File, sheet string) [][]string {
	t.Helper()
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	return rows
}

func TestWriteWorkbook(t *testing.T) {
	assets := fixture()
	var buf bytes.Buffer
	require.NoError(t, WriteWorkbook(&buf, stats(t, assets), assets))

	f := openWorkbook(t, buf.Bytes())
	assert.Equal(t, []string{SheetSummary, SheetDepartments, SheetLocations, SheetInventory}, f.GetSheetList())

	summary := rawRows(t, f, SheetSummary)
	assert.Equal(t, []string{"Metric", "Value"}, summary[0])
	assert.Equal(t, []string{"Generated", "2024-06-30 09:30:00 UTC"}, summary[1])
	assert.Equal(t, []string{"Total Assets", "5"}, summary[2])
	assert.Equal(t, []string{"Total Value", "417400"}, summary[3])
	assert.Equal(t, []string{"High-Value Assets (Rs.100k+)", "2"}, summary[len(summary)-1])

	depts := rawRows(t, f, SheetDepartments)
	require.Len(t, depts, 5)
	assert.Equal(t, []string{"IT", "2", "292000", "146000"}, depts[1][:4])
	assert.Equal(t, "Unknown", depts[4][0])
	share, err := strconv.ParseFloat(depts[1][4], 64)
	require.NoError(t, err)
	assert.InDelta(t, 292000.0/417400.0, share, 1e-9)

	locs := rawRows(t, f, SheetLocations)
	require.Len(t, locs, 5)
	assert.Equal(t, "Server Room", locs[1][0])
	assert.Equal(t, "Lab 1", locs[2][0])
	assert.Equal(t, "Block A", locs[3][0])

	inv := rawRows(t, f, SheetInventory)
	require.Len(t, inv, 6)
	assert.Equal(t, []string{"Description", "Department", "Location", "Cost", "Added"}, inv[0])
	assert.Equal(t, "Dell PowerEdge Server", inv[1][0])
	assert.Equal(t, "Projector", inv[3][0])
	assert.Len(t, inv[3], 5)
	assert.Equal(t, "900", inv[5][3])
}

func TestWriteWorkbookEmpty(t *testing.T) {
	var buf bytes.Buffer
	err := WriteWorkbook(&buf, &analytics.Statistics{}, nil)
	assert.True(t, errors.Is(err, analytics.ErrNoAssets))
	assert.Zero(t, buf.Len())
}

func TestWorkbookFilename(t *testing.T) {
	assert.Equal(t, "campus_assets_20240630_093000.xlsx", WorkbookFilename(now))
}

func TestWriteInventoryCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteInventoryCSV(&buf, fixture()))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 6)
	assert.Equal(t, InventoryColumns, records[0])
	assert.Equal(t, []string{"a2", "Dell PowerEdge Server", "IT", "Server Room", "250000.00", ""}, records[1])
	assert.Equal(t, []string{"a1", "Projector", "IT", "Block A", "42000.00", "2024-04-30T09:30:00Z"}, records[3])
	assert.Equal(t, "Office Chair, ergonomic", records[4][1])
	assert.Equal(t, []string{"a5", "", "", "", "900.00", ""}, records[5])
}
