package report

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"
	"unicode"

	"github.com/ledongthuc/pdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weiwei-tsao/campus-assets-report/internal/business/analytics"
	"github.com/weiwei-tsao/campus-assets-report/pkg/model"
)

type failingCharts struct{}

func (failingCharts) Bar(string, []string, []float64) ([]byte, error) {
	return nil, errors.New("bar exploded")
}

func (failingCharts) Pie(string, []string, []float64) ([]byte, error) {
	return nil, errors.New("pie exploded")
}

func plainRenderer(charts ChartRenderer) *Renderer {
	return &Renderer{charts: charts, compress: false}
}

// squash drops all whitespace so extracted text can be matched regardless of how glyph runs were split.
func squash(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

type parsedPDF struct {
	reader *pdf.Reader
	pages  []string
}

func parse(t *testing.T, doc *Document) parsedPDF {
	t.Helper()
	r, err := pdf.NewReader(bytes.NewReader(doc.PDF), int64(len(doc.PDF)))
	require.NoError(t, err)

	out := parsedPDF{reader: r}
	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			out.pages = append(out.pages, "")
			continue
		}
		text, err := p.GetPlainText(nil)
		require.NoError(t, err)
		out.pages = append(out.pages, squash(text))
	}
	return out
}

func (p parsedPDF) all() string {
	return strings.Join(p.pages, "")
}

func TestRenderProducesAllSections(t *testing.T) {
	stats := testStats(t, testAssets())
	doc, err := plainRenderer(DefaultCharts()).Render(stats, testAssets())
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(doc.PDF, []byte("%PDF-")))

	parsed := parse(t, doc)
	assert.Equal(t, doc.Pages, parsed.reader.NumPage())
	assert.GreaterOrEqual(t, doc.Pages, len(sections))

	var outline []string
	for _, o := range parsed.reader.Outline().Child {
		outline = append(outline, o.Title)
	}
	assert.Equal(t, []string{
		SectionCover,
		SectionExecutive,
		SectionAnalytics,
		SectionDepartments,
		SectionLocations,
		SectionFinancial,
		SectionInventory,
		SectionRecommendations,
	}, outline)

	cover := parsed.pages[0]
	assert.Contains(t, cover, squash(headerTitle))
	assert.Contains(t, cover, "CAMPUSASSETS")
	assert.Contains(t, cover, "ANALYSISREPORT")
	assert.Contains(t, cover, "Rs.557,400")
	assert.Contains(t, cover, fmt.Sprintf("Page1of%d", doc.Pages))
	assert.Contains(t, cover, squash("Generated: June 30, 2024 at 09:30 AM"))

	text := parsed.all()
	for _, want := range []string{
		"EXECUTIVESUMMARY",
		"KeyFindings",
		"DETAILEDANALYTICS",
		"DEPARTMENTANALYSIS",
		"Top3Departments-DetailedAnalysis",
		"LOCATIONANALYSIS",
		"FINANCIALANALYSIS",
		"AssetValueExtremes",
		"COMPLETEASSETINVENTORY",
		"STRATEGICRECOMMENDATIONS",
		"Conclusion",
		squash("Dell PowerEdge Server"),
		squash("Preventive Maintenance"),
	} {
		assert.Contains(t, text, want)
	}
	assert.NotContains(t, text, squash(chartFallback))
	assert.Contains(t, parsed.pages[len(parsed.pages)-1], fmt.Sprintf("Page%dof%d", doc.Pages, doc.Pages))
}

func TestRenderChartFallback(t *testing.T) {
	stats := testStats(t, testAssets())
	doc, err := plainRenderer(failingCharts{}).Render(stats, testAssets())
	require.NoError(t, err)

	text := parse(t, doc).all()
	assert.Contains(t, text, squash(chartFallback+": Department-wise Asset Value Distribution"))
	assert.Contains(t, text, squash(chartFallback+": Asset Distribution by Location"))
}

func TestRenderEmptyStatistics(t *testing.T) {
	_, err := NewRenderer().Render(nil, nil)
	assert.True(t, errors.Is(err, analytics.ErrNoAssets))

	_, err = NewRenderer().Render(&analytics.Statistics{}, nil)
	assert.True(t, errors.Is(err, analytics.ErrNoAssets))
}

func TestRenderLongInventoryRepeatsHeader(t *testing.T) {
	var assets []model.Asset
	for i := 0; i < 150; i++ {
		desc := fmt.Sprintf("Laboratory bench %03d", i)
		if i%10 == 0 {
			desc = fmt.Sprintf("Café table – Ø 80cm with an unusually long description that has to wrap inside its column %03d", i)
		}
		assets = append(assets, model.Asset{
			Description: desc,
			Department:  fmt.Sprintf("Department %d", i%6),
			Location:    fmt.Sprintf("Building %d → Room %d", i%4, i),
			Cost:        float64(1000 + i*731),
		})
	}
	stats := testStats(t, assets)

	doc, err := plainRenderer(failingCharts{}).Render(stats, assets)
	require.NoError(t, err)
	parsed := parse(t, doc)

	header := squash(strings.Join(InventoryHeaders, ""))
	var inventoryPages int
	for _, p := range parsed.pages {
		if strings.Contains(p, header) {
			inventoryPages++
		}
	}
	assert.GreaterOrEqual(t, inventoryPages, 3)
	assert.Contains(t, parsed.all(), "Laboratorybench149")
}

func TestRenderCompressedByDefault(t *testing.T) {
	stats := testStats(t, testAssets())
	doc, err := NewRenderer(WithCharts(failingCharts{})).Render(stats, testAssets())
	require.NoError(t, err)
	assert.Contains(t, string(doc.PDF), "/FlateDecode")
	assert.Greater(t, doc.Pages, 0)
}

func TestColumnWidths(t *testing.T) {
	widths := columnWidths(4, []float64{2, 1, 1, 0})
	assert.InDeltaSlice(t, []float64{85, 42.5, 42.5, 0}, widths, 0.0001)

	equal := columnWidths(2, nil)
	assert.InDeltaSlice(t, []float64{85, 85}, equal, 0.0001)
}
