package report

import (
	"bytes"
	"errors"
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/weiwei-tsao/campus-assets-report/pkg/util"
)

var errNoChartData = errors.New("chart: no data")

// ChartRenderer turns labelled series into PNG images.
type ChartRenderer interface {
	Bar(title string, labels []string, values []float64) ([]byte, error)
	Pie(title string, labels []string, values []float64) ([]byte, error)
}

// chartPalette is cycled through for bars and pie slices.
var chartPalette = []color.Color{
	color.RGBA{R: 0x34, G: 0x49, B: 0x5e, A: 0xff},
	color.RGBA{R: 0x34, G: 0x98, B: 0xdb, A: 0xff},
	color.RGBA{R: 0xe7, G: 0x4c, B: 0x3c, A: 0xff},
	color.RGBA{R: 0xf3, G: 0x9c, B: 0x12, A: 0xff},
	color.RGBA{R: 0x2e, G: 0xcc, B: 0x71, A: 0xff},
	color.RGBA{R: 0x9b, G: 0x59, B: 0xb6, A: 0xff},
	color.RGBA{R: 0x1a, G: 0xbc, B: 0x9c, A: 0xff},
	color.RGBA{R: 0x95, G: 0xa5, B: 0xa6, A: 0xff},
}

var chartTitleColor = color.RGBA{R: 0x2c, G: 0x3e, B: 0x50, A: 0xff}

// PlotCharts renders charts with gonum/plot. The image keeps the aspect ratio
// of the slot it is embedded into.
type PlotCharts struct {
	Width  vg.Length
	Height vg.Length
	DPI    int
}

// DefaultCharts matches the 170x80 mm chart slot of the report.
func DefaultCharts() PlotCharts {
	return PlotCharts{
		Width:  effectiveWidth * vg.Millimeter,
		Height: chartHeight * vg.Millimeter,
		DPI:    150,
	}
}

// Bar draws one bar per label with the value printed above each bar.
func (pc PlotCharts) Bar(title string, labels []string, values []float64) ([]byte, error) {
	if len(values) == 0 || len(labels) != len(values) {
		return nil, errNoChartData
	}

	p := plot.New()
	p.Title.Text = title
	p.Title.TextStyle.Color = chartTitleColor
	p.Y.Label.Text = "Total Value"
	p.Y.Tick.Marker = plot.TickerFunc(func(min, max float64) []plot.Tick {
		ticks := plot.DefaultTicks{}.Ticks(min, max)
		for i := range ticks {
			if ticks[i].Label != "" {
				ticks[i].Label = util.FormatRupees(ticks[i].Value)
			}
		}
		return ticks
	})

	width := vg.Points(math.Max(6, math.Min(40, 360/float64(len(values)))))
	xys := make(plotter.XYs, len(values))
	valueLabels := make([]string, len(values))
	for i, v := range values {
		bars, err := plotter.NewBarChart(plotter.Values{v}, width)
		if err != nil {
			return nil, fmt.Errorf("bar chart: %w", err)
		}
		bars.XMin = float64(i)
		bars.Color = chartPalette[i%len(chartPalette)]
		bars.LineStyle.Width = 0
		p.Add(bars)

		xys[i] = plotter.XY{X: float64(i), Y: v}
		if v > 1000 {
			valueLabels[i] = util.FormatRupees(v)
		} else {
			valueLabels[i] = fmt.Sprintf("%.0f", v)
		}
	}

	labelsPlot, err := plotter.NewLabels(plotter.XYLabels{XYs: xys, Labels: valueLabels})
	if err != nil {
		return nil, fmt.Errorf("bar labels: %w", err)
	}
	for i := range labelsPlot.TextStyle {
		labelsPlot.TextStyle[i].XAlign = draw.XCenter
		labelsPlot.TextStyle[i].Font.Size = vg.Points(7)
	}
	labelsPlot.Offset = vg.Point{Y: vg.Points(2)}
	p.Add(labelsPlot)

	p.NominalX(labels...)
	p.X.Tick.Label.Rotation = math.Pi / 4
	p.X.Tick.Label.XAlign = draw.XRight
	p.X.Tick.Label.YAlign = draw.YCenter
	p.Y.Min = math.Min(0, p.Y.Min)
	// headroom for the value labels
	p.Y.Max *= 1.1

	return pc.png(p)
}

// Pie draws a pie chart starting at 12 o'clock, counter-clockwise, with
// percentage labels in each slice and a legend on the right.
func (pc PlotCharts) Pie(title string, labels []string, values []float64) ([]byte, error) {
	if len(values) == 0 || len(labels) != len(values) {
		return nil, errNoChartData
	}
	var total float64
	for _, v := range values {
		if v < 0 {
			return nil, fmt.Errorf("pie chart: negative value %v", v)
		}
		total += v
	}
	if total == 0 {
		return nil, errNoChartData
	}

	p := plot.New()
	p.Title.Text = title
	p.Title.TextStyle.Color = chartTitleColor
	p.HideAxes()

	pie := &pieChart{values: values, total: total}
	p.Add(pie)
	for i, l := range labels {
		p.Legend.Add(l, swatch{chartPalette[i%len(chartPalette)]})
	}
	p.Legend.Top = true

	return pc.png(p)
}

func (pc PlotCharts) png(p *plot.Plot) ([]byte, error) {
	img := vgimg.NewWith(vgimg.UseWH(pc.Width, pc.Height), vgimg.UseDPI(pc.DPI))
	p.Draw(draw.New(img))

	var buf bytes.Buffer
	if _, err := (vgimg.PngCanvas{Canvas: img}).WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("encode chart png: %w", err)
	}
	return buf.Bytes(), nil
}

// pieChart is a plot.Plotter drawing filled circular sectors around (0,0).
type pieChart struct {
	values []float64
	total  float64
}

// DataRange leaves room right of the pie for the legend.
func (pc *pieChart) DataRange() (xmin, xmax, ymin, ymax float64) {
	return -1.1, 2.8, -1.1, 1.1
}

func (pc *pieChart) Plot(c draw.Canvas, plt *plot.Plot) {
	trX, trY := plt.Transforms(&c)
	center := vg.Point{X: trX(0), Y: trY(0)}
	radius := min(trX(1)-trX(0), trY(1)-trY(0))

	labelStyle := plt.Legend.TextStyle
	labelStyle.Color = color.White
	labelStyle.XAlign = draw.XCenter
	labelStyle.YAlign = draw.YCenter

	angle := math.Pi / 2
	for i, v := range pc.values {
		sweep := 2 * math.Pi * v / pc.total

		var path vg.Path
		path.Move(center)
		path.Arc(center, radius, angle, sweep)
		path.Close()
		c.SetColor(chartPalette[i%len(chartPalette)])
		c.Fill(path)

		if share := v / pc.total; share >= 0.04 {
			mid := angle + sweep/2
			pt := vg.Point{
				X: center.X + radius*0.65*vg.Length(math.Cos(mid)),
				Y: center.Y + radius*0.65*vg.Length(math.Sin(mid)),
			}
			c.FillText(labelStyle, pt, util.FormatPercent(share*100))
		}
		angle += sweep
	}
}

// swatch is a solid legend thumbnail.
type swatch struct {
	color.Color
}

func (s swatch) Thumbnail(c *draw.Canvas) {
	pts := []vg.Point{
		{X: c.Min.X, Y: c.Min.Y},
		{X: c.Min.X, Y: c.Max.Y},
		{X: c.Max.X, Y: c.Max.Y},
		{X: c.Max.X, Y: c.Min.Y},
	}
	c.FillPolygon(s.Color, c.ClipPolygonY(pts))
}
