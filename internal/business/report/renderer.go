package report

import (
	"fmt"
	"time"

	"github.com/weiwei-tsao/campus-assets-report/internal/business/analytics"
	"github.com/weiwei-tsao/campus-assets-report/pkg/model"
)

// Document is a rendered report.
type Document struct {
	PDF   []byte
	Pages int
}

// Renderer lays statistics and records out as the eight-section PDF report.
type Renderer struct {
	charts   ChartRenderer
	compress bool
}

// RendererOption customises a Renderer.
type RendererOption func(*Renderer)

// WithCharts replaces the gonum/plot chart renderer.
func WithCharts(c ChartRenderer) RendererOption {
	return func(r *Renderer) { r.charts = c }
}

// NewRenderer returns a renderer with compressed output and gonum/plot charts.
func NewRenderer(opts ...RendererOption) *Renderer {
	r := &Renderer{charts: DefaultCharts(), compress: true}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render produces the PDF. The footer timestamp is stats.GeneratedAt.
func (r *Renderer) Render(stats *analytics.Statistics, assets []model.Asset) (*Document, error) {
	if stats == nil || stats.TotalAssets == 0 {
		return nil, analytics.ErrNoAssets
	}
	generatedAt := stats.GeneratedAt
	if generatedAt.IsZero() {
		generatedAt = time.Now()
	}

	d := newDocument(generatedAt, r.compress)
	in := &input{stats: stats, assets: assets, charts: r.charts}
	for _, s := range sections {
		s(d, in)
	}

	pdf, pages, err := d.output()
	if err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	return &Document{PDF: pdf, Pages: pages}, nil
}

// Filename is the download name for a report generated at t.
func Filename(t time.Time) string {
	return fmt.Sprintf("campus_assets_report_%s.pdf", t.Format("20060102_150405"))
}
