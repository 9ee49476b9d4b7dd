package report

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
)

// Page geometry in millimetres (A4 portrait).
const (
	pageWidth      = 210.0
	pageHeight     = 297.0
	marginLeft     = 20.0
	marginRight    = 20.0
	marginTop      = 25.0
	marginBottom   = 25.0
	effectiveWidth = pageWidth - marginLeft - marginRight

	statBoxHeight  = 28.0
	statBoxPadding = 2.0
	chartHeight    = 80.0
	tableLineH     = 4.0
	tableMinRowH   = 6.0
	tableHeaderH   = 8.0
)

type rgb struct{ r, g, b int }

var (
	colorPrimary   = rgb{52, 73, 94}
	colorSecondary = rgb{41, 128, 185}
	colorAccent    = rgb{231, 76, 60}
	colorSuccess   = rgb{46, 204, 113}
	colorText      = rgb{44, 62, 80}
	colorLight     = rgb{236, 240, 241}
	colorMuted     = rgb{127, 140, 141}
	colorBorder    = rgb{200, 200, 200}
	colorStatTitle = rgb{108, 117, 125}
	colorRowEven   = rgb{248, 249, 250}
	colorWhite     = rgb{255, 255, 255}
)

const (
	headerTitle    = "CAMPUS ASSETS MANAGEMENT SYSTEM"
	headerSubtitle = "Comprehensive Assets Analysis Report"
	chartFallback  = "Chart not available"
	footerLayout   = "January 02, 2006 at 03:04 PM"
)

// Stat is one labelled box of a stat grid.
type Stat struct {
	Label string
	Value string
}

// document wraps fpdf with the report's fixed page furniture and blocks.
// All text passes through the code-page translator before reaching fpdf.
type document struct {
	pdf         *fpdf.Fpdf
	tr          func(string) string
	generatedAt time.Time
	images      int
}

func newDocument(generatedAt time.Time, compress bool) *document {
	pdf := fpdf.New("P", "mm", "A4", "")
	d := &document{
		pdf:         pdf,
		tr:          pdf.UnicodeTranslatorFromDescriptor(""),
		generatedAt: generatedAt,
	}
	pdf.SetMargins(marginLeft, marginTop, marginRight)
	pdf.SetAutoPageBreak(true, marginBottom)
	pdf.SetCompression(compress)
	pdf.SetTitle("Campus Assets Analysis Report", true)
	pdf.SetAuthor("Campus Assets Management System", true)
	pdf.SetCreator("campus-assets-report", true)
	pdf.SetCreationDate(generatedAt)
	pdf.AliasNbPages("")
	pdf.SetHeaderFunc(d.header)
	pdf.SetFooterFunc(d.footer)
	return d
}

func (d *document) textColor(c rgb) { d.pdf.SetTextColor(c.r, c.g, c.b) }
func (d *document) fillColor(c rgb) { d.pdf.SetFillColor(c.r, c.g, c.b) }
func (d *document) drawColor(c rgb) { d.pdf.SetDrawColor(c.r, c.g, c.b) }

func (d *document) header() {
	d.pdf.SetFont("Arial", "B", 18)
	d.textColor(colorPrimary)
	d.pdf.CellFormat(0, 12, headerTitle, "", 1, "C", false, 0, "")

	d.pdf.SetFont("Arial", "", 11)
	d.textColor(colorText)
	d.pdf.CellFormat(0, 6, headerSubtitle, "", 1, "C", false, 0, "")

	d.drawColor(colorSecondary)
	d.pdf.SetLineWidth(0.5)
	y := d.pdf.GetY() + 2
	d.pdf.Line(marginLeft, y, marginLeft+effectiveWidth, y)
	d.pdf.Ln(8)
}

func (d *document) footer() {
	d.pdf.SetY(-15)
	d.pdf.SetFont("Arial", "", 8)
	d.textColor(colorMuted)
	text := fmt.Sprintf("Page %d of {nb} | Generated: %s", d.pdf.PageNo(), d.generatedAt.Format(footerLayout))
	d.pdf.CellFormat(0, 10, text, "", 0, "C", false, 0, "")
}

// startSection opens a new page, bookmarks it and draws the underlined title.
func (d *document) startSection(title string) {
	d.pdf.AddPage()
	d.pdf.Bookmark(title, 0, -1)
	d.sectionTitle(title)
}

func (d *document) sectionTitle(title string) {
	d.pdf.Ln(8)
	d.pdf.SetFont("Arial", "B", 14)
	d.textColor(colorPrimary)
	d.pdf.CellFormat(0, 10, d.tr(strings.ToUpper(title)), "", 1, "L", false, 0, "")

	d.drawColor(colorPrimary)
	d.pdf.SetLineWidth(0.3)
	y := d.pdf.GetY()
	d.pdf.Line(marginLeft, y, marginLeft+effectiveWidth, y)
	d.pdf.Ln(6)
}

func (d *document) subsectionTitle(title string) {
	d.pdf.Ln(4)
	d.pdf.SetFont("Arial", "B", 11)
	d.textColor(colorText)
	d.pdf.CellFormat(0, 7, d.tr(title), "", 1, "L", false, 0, "")
	d.pdf.Ln(2)
}

// paragraph writes wrapped body text, indented from the left margin.
func (d *document) paragraph(text string, indent float64) {
	d.pdf.SetFont("Arial", "", 10)
	d.textColor(colorText)
	d.pdf.SetX(marginLeft + indent)
	d.pdf.MultiCell(effectiveWidth-indent, 5, d.tr(text), "", "L", false)
}

func (d *document) bullets(items []string) {
	for _, item := range items {
		d.paragraph("- "+item, 0)
	}
}

// centered writes a single centred line in the current font.
func (d *document) centered(h float64, text string) {
	d.pdf.CellFormat(0, h, d.tr(text), "", 1, "C", false, 0, "")
}

// statGrid lays stats out in rows of columns boxes. A row never splits across pages.
func (d *document) statGrid(stats []Stat, columns int) {
	if len(stats) == 0 || columns <= 0 {
		return
	}
	boxWidth := effectiveWidth / float64(columns)

	for start := 0; start < len(stats); start += columns {
		end := min(start+columns, len(stats))
		y := d.pdf.GetY()
		if y+statBoxHeight > pageHeight-marginBottom {
			d.pdf.AddPage()
			y = d.pdf.GetY()
		}
		for i, s := range stats[start:end] {
			x := marginLeft + float64(i)*boxWidth
			d.statBox(s, x, y, boxWidth-statBoxPadding, statBoxHeight)
		}
		d.pdf.SetY(y + statBoxHeight + 6)
	}
}

func (d *document) statBox(s Stat, x, y, w, h float64) {
	d.fillColor(colorLight)
	d.drawColor(colorBorder)
	d.pdf.SetLineWidth(0.2)
	d.pdf.Rect(x, y, w, h, "DF")

	maxWidth := w - 6

	d.pdf.SetXY(x+3, y+3)
	d.pdf.SetFont("Arial", "B", 8)
	d.textColor(colorStatTitle)
	d.pdf.CellFormat(maxWidth, 5, d.truncate(d.tr(s.Label), maxWidth), "", 0, "C", false, 0, "")

	d.pdf.SetXY(x+3, y+12)
	d.textColor(colorSecondary)
	value := d.tr(s.Value)
	size := 12.0
	d.pdf.SetFont("Arial", "B", size)
	for size > 8 && d.pdf.GetStringWidth(value) > maxWidth {
		size--
		d.pdf.SetFont("Arial", "B", size)
	}
	if d.pdf.GetStringWidth(value) > maxWidth && strings.HasPrefix(value, "Rs.") {
		value = strings.ReplaceAll(value, ",", "")
	}
	d.pdf.CellFormat(maxWidth, 10, d.truncate(value, maxWidth), "", 0, "C", false, 0, "")
}

// truncate shortens already-translated text with an ellipsis until it fits w.
func (d *document) truncate(s string, w float64) string {
	for d.pdf.GetStringWidth(s) > w && len(s) > 5 {
		s = s[:len(s)-4] + "..."
	}
	return s
}

// table draws a header row and data rows sized to their tallest wrapped cell.
// The header repeats at the top of every page the table spans.
func (d *document) table(headers []string, rows [][]string, ratios []float64) {
	if len(headers) == 0 || len(rows) == 0 {
		return
	}
	widths := columnWidths(len(headers), ratios)

	if d.pdf.GetY()+tableHeaderH+tableMinRowH > pageHeight-marginBottom {
		d.pdf.AddPage()
	}
	d.tableHeader(headers, widths)

	for i, row := range rows {
		d.pdf.SetFont("Arial", "", 8)
		cells := make([][]string, len(widths))
		lines := 1
		for c := range widths {
			var text string
			if c < len(row) {
				text = row[c]
			}
			cells[c] = d.wrap(text, widths[c]-4)
			lines = max(lines, len(cells[c]))
		}
		rowHeight := max(tableMinRowH, float64(lines)*tableLineH+2)

		if d.pdf.GetY()+rowHeight > pageHeight-marginBottom {
			d.pdf.AddPage()
			d.tableHeader(headers, widths)
			d.pdf.SetFont("Arial", "", 8)
		}

		if i%2 == 0 {
			d.fillColor(colorRowEven)
		} else {
			d.fillColor(colorWhite)
		}
		d.tableRow(cells, widths, rowHeight)
	}
}

func (d *document) tableHeader(headers []string, widths []float64) {
	d.pdf.SetFont("Arial", "B", 9)
	d.fillColor(colorPrimary)
	d.textColor(colorWhite)
	d.drawColor(colorBorder)
	d.pdf.SetLineWidth(0.2)

	d.pdf.SetX(marginLeft)
	for i, h := range headers {
		text := d.truncate(d.tr(h), widths[i]-4)
		d.pdf.CellFormat(widths[i], tableHeaderH, text, "1", 0, "C", true, 0, "")
	}
	d.pdf.Ln(tableHeaderH)
}

func (d *document) tableRow(cells [][]string, widths []float64, rowHeight float64) {
	d.textColor(colorText)
	d.drawColor(colorBorder)
	y := d.pdf.GetY()
	x := marginLeft

	// Cells are positioned explicitly; a row taller than the page must not trigger a break mid-row.
	d.pdf.SetAutoPageBreak(false, marginBottom)
	for c, lines := range cells {
		d.pdf.Rect(x, y, widths[c], rowHeight, "DF")
		if len(lines) == 1 {
			d.pdf.SetXY(x+2, y+1)
			d.pdf.CellFormat(widths[c]-4, rowHeight-2, lines[0], "", 0, "L", false, 0, "")
		} else {
			for j, line := range lines {
				d.pdf.SetXY(x+2, y+1+float64(j)*tableLineH)
				d.pdf.CellFormat(widths[c]-4, tableLineH, line, "", 0, "L", false, 0, "")
			}
		}
		x += widths[c]
	}
	d.pdf.SetAutoPageBreak(true, marginBottom)
	d.pdf.SetXY(marginLeft, y+rowHeight)
}

// wrap splits text into lines that fit w in the current font. The result is
// already translated to the core-font code page.
func (d *document) wrap(text string, w float64) []string {
	encoded := d.tr(text)
	if encoded == "" {
		return []string{""}
	}
	// SplitText measures rune by rune, so each code-page byte is carried as its own rune.
	runes := make([]rune, len(encoded))
	for i := 0; i < len(encoded); i++ {
		runes[i] = rune(encoded[i])
	}
	split := d.pdf.SplitText(string(runes), w)
	if len(split) == 0 {
		return []string{""}
	}
	lines := make([]string, len(split))
	for i, line := range split {
		b := make([]byte, 0, len(line))
		for _, r := range line {
			b = append(b, byte(r))
		}
		lines[i] = strings.TrimSpace(string(b))
	}
	return lines
}

// chart embeds a PNG chart under a subsection title, keeping title and image on one page.
// A missing image is replaced by a short notice.
func (d *document) chart(title string, png []byte, renderErr error) {
	if d.pdf.GetY()+chartHeight+15 > pageHeight-marginBottom {
		d.pdf.AddPage()
	}
	d.subsectionTitle(title)
	if renderErr != nil || len(png) == 0 {
		d.pdf.SetFont("Arial", "I", 10)
		d.textColor(colorAccent)
		d.pdf.MultiCell(effectiveWidth, 5, d.tr(chartFallback+": "+title), "", "L", false)
		d.pdf.Ln(4)
		return
	}

	d.images++
	name := fmt.Sprintf("chart-%d", d.images)
	opts := fpdf.ImageOptions{ImageType: "PNG"}
	d.pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(png))
	y := d.pdf.GetY()
	d.pdf.ImageOptions(name, marginLeft, y, effectiveWidth, chartHeight, false, opts, 0, "")
	d.pdf.SetY(y + chartHeight + 8)
}

func (d *document) output() ([]byte, int, error) {
	var buf bytes.Buffer
	if err := d.pdf.Output(&buf); err != nil {
		return nil, 0, err
	}
	return buf.Bytes(), d.pdf.PageCount(), nil
}

// columnWidths scales ratios to the effective width. Missing or invalid ratios mean equal columns.
func columnWidths(n int, ratios []float64) []float64 {
	var total float64
	for _, r := range ratios {
		total += r
	}
	widths := make([]float64, n)
	for i := range widths {
		if len(ratios) != n || total <= 0 {
			widths[i] = effectiveWidth / float64(n)
			continue
		}
		widths[i] = ratios[i] / total * effectiveWidth
	}
	return widths
}
