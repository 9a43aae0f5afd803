package export

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/W4k4s/herramienta-presupuesto-economilenial/internal/advice"
	"github.com/W4k4s/herramienta-presupuesto-economilenial/internal/core"
)

const (
	pageWidth    = 210.0
	marginLeft   = 20.0
	bandHeight   = 30.0
	contentTop   = 20.0
	footerY      = 290.0
	adviceWidth  = 170.0
	itemWidth    = adviceWidth - 5
	siteName     = "economilenial.com"
	footerFormat = "Generado por Economilenial - Página %d de %d"

	// Content never starts a line below pageBudget; the advice section needs
	// more room and breaks earlier.
	pageBudget   = 250.0
	adviceBudget = 200.0
)

type rgb struct{ r, g, b int }

var (
	colorPrimary   = rgb{55, 184, 175}
	colorSecondary = rgb{15, 76, 92}
	colorPass      = rgb{40, 167, 69}
	colorFail      = rgb{220, 53, 69}
	colorFooter    = rgb{128, 128, 128}
	colorBody      = rgb{0, 0, 0}
	colorWhite     = rgb{255, 255, 255}
)

// ZapfDingbats glyphs for a check mark and a cross.
const (
	glyphCheck = "3"
	glyphCross = "7"
)

type pdfReport struct {
	pdf *fpdf.Fpdf
	tr  func(string) string
	y   float64
}

// PDF renders the paginated report. Every page is stamped with
// "Página i de N" once the whole document has been laid out.
func PDF(doc core.Document, rep advice.Report, now time.Time) ([]byte, error) {
	return renderPDF(doc, rep, now, true)
}

func renderPDF(doc core.Document, rep advice.Report, now time.Time, compress bool) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(compress)
	pdf.SetCatalogSort(true)
	pdf.SetCreationDate(now)
	pdf.SetModificationDate(now)
	pdf.SetTitle(productName, true)
	pdf.SetAutoPageBreak(false, 0)

	r := &pdfReport{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}
	r.layout(doc, rep, now)
	r.stampFooters()

	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// layout is the first pass: it writes every section, breaking pages at the
// height budget.
func (r *pdfReport) layout(doc core.Document, rep advice.Report, now time.Time) {
	r.pdf.AddPage()
	r.titleBand(now)
	r.y = 50

	f := rep.Figures
	r.heading("Resumen Ejecutivo")
	r.y += 10
	r.font(12, colorBody)
	for _, line := range []string{
		fmt.Sprintf("Ingresos totales: %s€", money(f.TotalIncome)),
		fmt.Sprintf("Gastos totales: %s€", money(f.TotalExpense)),
		fmt.Sprintf("Balance: %s€", money(f.Balance)),
	} {
		r.text(marginLeft, line)
		r.y += 7
	}
	r.y += 8

	r.heading("Análisis Regla 50-30-20")
	r.y += 15
	for _, cf := range f.Categories() {
		glyph, color := glyphCheck, colorPass
		if !complies(cf) {
			glyph, color = glyphCross, colorFail
		}
		r.setColor(color)
		r.pdf.SetFont("ZapfDingbats", "", 12)
		r.pdf.Text(marginLeft, r.y, glyph)
		r.font(12, colorBody)
		r.text(marginLeft+10, fmt.Sprintf("%s: %s%% (ideal: %s%%)",
			cf.Category.Label(), cf.ActualPct.StringFixed(1), cf.IdealPct.String()))
		r.y += 7
	}
	r.y += 10

	r.heading("Detalles por Categoría")
	r.y += 15
	for _, c := range core.Categories {
		r.breakAt(pageBudget)
		r.font(14, colorPrimary)
		r.text(marginLeft, sectionTitle(c))
		r.y += 10

		r.font(10, colorBody)
		entries := doc.Expenses.Of(c)
		if len(entries) == 0 {
			r.text(marginLeft+5, "• "+noEntriesPlaceholder)
			r.y += 5
		}
		for _, e := range entries {
			for _, line := range r.wrap(r.tr(fmt.Sprintf("• %s: %s€", e.Label, e.Amount.String())), itemWidth) {
				r.breakAt(pageBudget)
				r.pdf.Text(marginLeft+5, r.y, line)
				r.y += 5
			}
		}
		r.y += 10
	}

	if len(rep.Advice) == 0 {
		return
	}
	r.breakAt(adviceBudget)
	r.heading("Recomendaciones Personalizadas")
	r.y += 15
	r.font(10, colorBody)
	for i, a := range rep.Advice {
		r.breakAt(pageBudget)
		for _, line := range r.wrap(r.tr(fmt.Sprintf("%d. %s", i+1, a.Message)), adviceWidth) {
			r.pdf.Text(marginLeft, r.y, line)
			r.y += 5
		}
		r.y += 3
	}
}

// stampFooters is the second pass: the page count is only known once
// layout has finished.
func (r *pdfReport) stampFooters() {
	total := r.pdf.PageCount()
	for i := 1; i <= total; i++ {
		r.pdf.SetPage(i)
		r.font(8, colorFooter)
		r.pdf.Text(marginLeft, footerY, r.tr(fmt.Sprintf(footerFormat, i, total)))
		r.pdf.Text(150, footerY, siteName)
	}
}

func (r *pdfReport) titleBand(now time.Time) {
	r.pdf.SetFillColor(colorPrimary.r, colorPrimary.g, colorPrimary.b)
	r.pdf.Rect(0, 0, pageWidth, bandHeight, "F")
	r.pdf.SetFont("Helvetica", "B", 20)
	r.setColor(colorWhite)
	r.pdf.Text(marginLeft, 20, productName)
	r.pdf.SetFont("Helvetica", "", 12)
	r.pdf.Text(marginLeft, 27, "Generado el "+displayDate(now))
}

func (r *pdfReport) heading(s string) {
	r.pdf.SetFont("Helvetica", "B", 16)
	r.setColor(colorSecondary)
	r.text(marginLeft, s)
}

func (r *pdfReport) breakAt(budget float64) {
	if r.y > budget {
		r.pdf.AddPage()
		r.y = contentTop
	}
}

func (r *pdfReport) font(size float64, c rgb) {
	r.pdf.SetFont("Helvetica", "", size)
	r.setColor(c)
}

func (r *pdfReport) setColor(c rgb) {
	r.pdf.SetTextColor(c.r, c.g, c.b)
}

// wrap splits already translated text on spaces so no line is wider than w.
// Words wider than w on their own are cut. Translated text is single-byte,
// so cutting at any byte is safe.
func (r *pdfReport) wrap(s string, w float64) []string {
	var lines []string
	line := ""
	for _, word := range strings.Fields(s) {
		for r.pdf.GetStringWidth(word) > w {
			if line != "" {
				lines = append(lines, line)
				line = ""
			}
			n := r.fit(word, w)
			lines = append(lines, word[:n])
			word = word[n:]
		}
		if word == "" {
			continue
		}
		candidate := word
		if line != "" {
			candidate = line + " " + word
		}
		if line != "" && r.pdf.GetStringWidth(candidate) > w {
			lines = append(lines, line)
			line = word
			continue
		}
		line = candidate
	}
	if line != "" {
		lines = append(lines, line)
	}
	return lines
}

// fit returns how many leading bytes of word fit in w, at least one.
func (r *pdfReport) fit(word string, w float64) int {
	n := len(word)
	for n > 1 && r.pdf.GetStringWidth(word[:n]) > w {
		n--
	}
	return n
}

func (r *pdfReport) text(x float64, s string) {
	r.pdf.Text(x, r.y, r.tr(s))
}
