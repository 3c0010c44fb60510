// Package report renders the previo PDF report.
//
// Render, WritePDF and DataURL share one document builder, so for the same
// input and the same clock they produce identical bytes.
package report

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"

	"github.com/dharsanguruparan/Previo/internal/model"
)

// ContentType is the MIME type of a rendered report.
const ContentType = "application/pdf"

const (
	marginX      = 14.0
	marginBottom = 16.0
	cellPad      = 1.5
	lineHeight   = 4.2
	tableFont    = 8.0
	continuedY   = 10.0
	tableTopNext = 20.0
)

// column widths are percentages of the usable page width.
type column struct {
	title string
	pct   float64
	align string
	value func(model.Product) string
}

var columns = []column{
	{"No. Parte", 9, "L", func(p model.Product) string { return na(p.NumeroParte) }},
	{"Descripción", 16, "L", func(p model.Product) string { return na(p.Descripcion) }},
	{"Cantidad", 8, "C", func(p model.Product) string {
		return strings.TrimSpace(fmt.Sprintf("%d %s", p.Cantidad, p.UnidadMedida))
	}},
	{"Marca", 7, "L", func(p model.Product) string { return na(p.Marca) }},
	{"Modelo/Lote", 8, "L", func(p model.Product) string { return na(p.ModelText()) }},
	{"Serie", 8, "L", func(p model.Product) string { return na(p.SerialText()) }},
	{"P. Unit. (lbs)", 7, "R", func(p model.Product) string { return number(p.PesoNetoUnitario) }},
	{"P. Neto (lbs)", 7, "R", func(p model.Product) string { return number(p.PesoNetoTotal) }},
	{"P. Bruto (lbs)", 7, "R", func(p model.Product) string { return number(p.PesoBruto) }},
	{"Origen", 6, "C", func(p model.Product) string { return na(p.PaisOrigen) }},
	{"Coincide", 6, "C", func(p model.Product) string { return yesNo(p.MatchesInvoice) }},
	{"Discrepancia", 11, "L", func(p model.Product) string { return na(p.Discrepancy) }},
}

// EmptyPlaceholder is the single row printed when there are no products.
const EmptyPlaceholder = "No hay productos registrados"

// Generator renders reports. The clock is injectable so output can be
// reproduced.
type Generator struct {
	now func() time.Time
	loc *time.Location
}

// Option configures a Generator.
type Option func(*Generator)

// WithClock freezes or replaces the generation timestamp source.
func WithClock(fn func() time.Time) Option {
	return func(g *Generator) { g.now = fn }
}

// WithLocation sets the time zone the timestamp is printed in.
func WithLocation(loc *time.Location) Option {
	return func(g *Generator) { g.loc = loc }
}

// New constructs a Generator.
func New(opts ...Option) *Generator {
	g := &Generator{now: time.Now, loc: time.UTC}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Render returns the PDF bytes of the report.
func (g *Generator) Render(h model.ShipmentHeader, products []model.Product) ([]byte, error) {
	var buf bytes.Buffer
	if err := g.WritePDF(&buf, h, products); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// RenderRecords converts records of either schema before rendering.
func (g *Generator) RenderRecords(h model.ShipmentHeader, records []model.ProductRecord) ([]byte, error) {
	products := make([]model.Product, len(records))
	for i, r := range records {
		products[i] = r.Canonical()
	}
	return g.Render(h, products)
}

// WritePDF writes the report to w, for downloads.
func (g *Generator) WritePDF(w io.Writer, h model.ShipmentHeader, products []model.Product) error {
	doc := g.createDocument(h, products)
	if err := doc.Output(w); err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	return nil
}

// DataURL returns the report as a base64 data URI for inline preview.
func (g *Generator) DataURL(h model.ShipmentHeader, products []model.Product) (string, error) {
	data, err := g.Render(h, products)
	if err != nil {
		return "", err
	}
	return "data:" + ContentType + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

// Filename is previo_{entry}.pdf, or previo_nuevo.pdf without an entry.
func Filename(h model.ShipmentHeader) string {
	entry := strings.TrimSpace(h.Entry)
	if entry == "" {
		return "previo_nuevo.pdf"
	}
	return "previo_" + strings.NewReplacer("/", "-", "\\", "-", " ", "_", "\"", "").Replace(entry) + ".pdf"
}

type document struct {
	pdf     *fpdf.Fpdf
	tr      func(string) string
	widths  []float64
	inTable bool
}

func (g *Generator) createDocument(h model.ShipmentHeader, products []model.Product) *fpdf.Fpdf {
	pdf := fpdf.New("L", "mm", "A4", "")
	generated := g.now().In(g.loc)
	pdf.SetCreationDate(generated)
	pdf.SetModificationDate(generated)
	pdf.SetCatalogSort(true)
	pdf.SetMargins(marginX, 12, marginX)
	pdf.SetAutoPageBreak(false, marginBottom)
	pdf.AliasNbPages("{nb}")

	d := &document{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}
	pdf.SetTitle(d.tr("Reporte de Previo "+na(h.Entry)), false)
	pdf.SetCreator("Previo", false)

	pageW, _ := pdf.GetPageSize()
	usable := pageW - 2*marginX
	for _, c := range columns {
		d.widths = append(d.widths, usable*c.pct/100)
	}

	pdf.SetHeaderFunc(d.continuationHeader)
	pdf.SetFooterFunc(d.footer)
	pdf.AddPage()

	d.titleBlock(generated, h.Reviewer)
	d.infoBox(h)
	d.productTable(products)
	return pdf
}

func (d *document) text(s string) string { return d.tr(latin1(s)) }

func (d *document) titleBlock(generated time.Time, reviewer string) {
	pdf := d.pdf
	pageW, _ := pdf.GetPageSize()
	pdf.SetTextColor(33, 33, 33)
	pdf.SetFont("Helvetica", "B", 20)
	pdf.SetXY(marginX, 12)
	pdf.CellFormat(pageW-2*marginX, 9, d.text("Reporte de Previo"), "", 1, "C", false, 0, "")

	line := "Generado: " + generated.Format("02/01/2006 15:04")
	if strings.TrimSpace(reviewer) != "" {
		line += "  -  Revisor: " + reviewer
	}
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(100, 100, 100)
	pdf.CellFormat(pageW-2*marginX, 6, d.text(line), "", 1, "C", false, 0, "")
}

func (d *document) infoBox(h model.ShipmentHeader) {
	pdf := d.pdf
	pageW, _ := pdf.GetPageSize()
	const top, height = 32.0, 66.0

	pdf.SetDrawColor(200, 200, 200)
	pdf.SetFillColor(245, 245, 245)
	pdf.Rect(marginX, top, pageW-2*marginX, height, "FD")

	pdf.SetTextColor(33, 33, 33)
	pdf.SetFont("Helvetica", "B", 13)
	pdf.Text(marginX+6, top+9, d.text("Información General"))

	bultos := fmt.Sprintf("%d", h.Packages)
	if t := strings.TrimSpace(h.PackageType); t != "" {
		bultos += " " + t
	}
	left := [][2]string{
		{"Cliente:", na(h.Client)},
		{"Fecha:", na(h.Date.String())},
		{"Entrada:", na(h.Entry)},
		{"P.O.:", na(h.PurchaseOrder)},
		{"Guía:", na(h.TrackingNumber)},
	}
	right := [][2]string{
		{"Proveedor:", na(h.Supplier)},
		{"Bultos:", bultos},
		{"Línea:", na(h.Carrier)},
		{"Peso Total:", number(h.TotalWeight) + " lbs"},
		{"Ubicación:", na(h.Location)},
	}
	d.labelColumn(marginX+6, top+19, 30, left)
	d.labelColumn(pageW/2+10, top+19, 35, right)

	cond := h.Packaging
	summary := fmt.Sprintf("Embalaje en buen estado: %s    Sellos: %s    Tarima certificada: %s",
		yesNo(cond.GoodCondition.Enabled), yesNo(cond.HasSeals.Enabled), yesNo(cond.CertifiedPallet.Enabled))
	pdf.SetFont("Helvetica", "", 10)
	pdf.Text(marginX+6, top+height-4, d.text(summary))
}

func (d *document) labelColumn(x, y, labelW float64, rows [][2]string) {
	pdf := d.pdf
	for i, r := range rows {
		yy := y + float64(i)*8
		pdf.SetFont("Helvetica", "B", 11)
		pdf.Text(x, yy, d.text(r[0]))
		pdf.SetFont("Helvetica", "", 11)
		pdf.Text(x+labelW, yy, d.text(r[1]))
	}
}

func (d *document) productTable(products []model.Product) {
	pdf := d.pdf
	pdf.SetTextColor(33, 33, 33)
	pdf.SetFont("Helvetica", "B", 13)
	pdf.Text(marginX, 108, d.text("Detalles de Productos"))
	pdf.SetY(112)

	d.inTable = true
	d.tableHeader()
	if len(products) == 0 {
		d.placeholderRow()
		return
	}
	for _, p := range products {
		cells := make([]string, len(columns))
		for i, c := range columns {
			cells[i] = c.value(p)
		}
		d.row(cells)
	}
}

// wrap splits every cell into lines and returns the row height.
func (d *document) wrap(cells []string) ([][]string, float64) {
	lines := make([][]string, len(cells))
	maxLines := 1
	for i, c := range cells {
		ls := d.pdf.SplitText(latin1(c), d.widths[i]-2*cellPad)
		if len(ls) == 0 {
			ls = []string{""}
		}
		lines[i] = ls
		if len(ls) > maxLines {
			maxLines = len(ls)
		}
	}
	return lines, float64(maxLines)*lineHeight + 2*cellPad
}

func (d *document) fits(height float64) bool {
	_, pageH := d.pdf.GetPageSize()
	return d.pdf.GetY()+height <= pageH-marginBottom
}

func (d *document) tableHeader() {
	pdf := d.pdf
	pdf.SetFont("Helvetica", "B", tableFont)
	titles := make([]string, len(columns))
	for i, c := range columns {
		titles[i] = c.title
	}
	lines, height := d.wrap(titles)
	pdf.SetFillColor(255, 128, 0)
	pdf.SetTextColor(255, 255, 255)
	pdf.SetDrawColor(180, 180, 180)
	d.drawRow(lines, height, func(int) string { return "C" }, true)
	pdf.SetTextColor(33, 33, 33)
}

func (d *document) row(cells []string) {
	pdf := d.pdf
	pdf.SetFont("Helvetica", "", tableFont)
	lines, height := d.wrap(cells)
	if !d.fits(height) {
		pdf.AddPage()
		pdf.SetFont("Helvetica", "", tableFont)
	}
	pdf.SetTextColor(33, 33, 33)
	pdf.SetDrawColor(180, 180, 180)
	d.drawRow(lines, height, func(i int) string { return columns[i].align }, false)
}

func (d *document) placeholderRow() {
	pdf := d.pdf
	pdf.SetFont("Helvetica", "I", tableFont+1)
	pdf.SetTextColor(100, 100, 100)
	var total float64
	for _, w := range d.widths {
		total += w
	}
	pdf.SetX(marginX)
	pdf.CellFormat(total, lineHeight+2*cellPad+2, d.text(EmptyPlaceholder), "1", 1, "C", false, 0, "")
}

func (d *document) drawRow(lines [][]string, height float64, align func(int) string, fill bool) {
	pdf := d.pdf
	x, y := marginX, pdf.GetY()
	style := "D"
	if fill {
		style = "FD"
	}
	for i, cell := range lines {
		w := d.widths[i]
		pdf.Rect(x, y, w, height, style)
		for j, line := range cell {
			pdf.SetXY(x+cellPad, y+cellPad+float64(j)*lineHeight)
			pdf.CellFormat(w-2*cellPad, lineHeight, d.tr(line), "", 0, align(i), false, 0, "")
		}
		x += w
	}
	pdf.SetXY(marginX, y+height)
}

// continuationHeader runs on every new page; the first page has its own
// title block.
func (d *document) continuationHeader() {
	pdf := d.pdf
	if pdf.PageNo() <= 1 {
		return
	}
	pdf.SetFont("Helvetica", "I", 9)
	pdf.SetTextColor(120, 120, 120)
	pdf.SetXY(marginX, continuedY-4)
	pdf.CellFormat(0, 6, d.text("Reporte de Previo (continuación)"), "", 1, "L", false, 0, "")
	if d.inTable {
		pdf.SetY(tableTopNext - 6)
		d.tableHeader()
	}
}

func (d *document) footer() {
	pdf := d.pdf
	pdf.SetY(-10)
	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(150, 150, 150)
	pdf.CellFormat(0, 6, d.text(fmt.Sprintf("Página %d de {nb}", pdf.PageNo())), "", 0, "C", false, 0, "")
}

func na(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}

func yesNo(b bool) string {
	if b {
		return "Sí"
	}
	return "No"
}

func number(v float64) string {
	return decimal.NewFromFloat(v).String()
}

// latin1 keeps characters the core fonts can draw.
func latin1(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\n':
			return r
		case r < 0x20, r >= 0x7f && r < 0xa0, r > 0xff:
			if r == '\t' || r == '\r' {
				return ' '
			}
			return '?'
		}
		return r
	}, s)
}
