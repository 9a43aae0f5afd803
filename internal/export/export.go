// Package export renders a budget and its analysis as CSV or PDF downloads.
//
// Both renderers are deterministic for a given document, report and
// generation time.
package export

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/W4k4s/herramienta-presupuesto-economilenial/internal/advice"
	"github.com/W4k4s/herramienta-presupuesto-economilenial/internal/analysis"
	"github.com/W4k4s/herramienta-presupuesto-economilenial/internal/core"
)

// Format is an export file type.
type Format string

const (
	FormatCSV Format = "csv"
	FormatPDF Format = "pdf"
)

const (
	// MsgUnsupportedFormat is returned to API clients for unknown formats.
	MsgUnsupportedFormat = "Formato no válido"

	filenamePrefix = "presupuesto-economilenial"
	productName    = "Presupuesto Economilenial"
)

var ErrUnsupportedFormat = errors.New("unsupported export format")

// ComplianceTolerance is the deviation, in percentage points, within which
// a category counts as following the rule in exports.
var ComplianceTolerance = decimal.NewFromInt(5)

// ParseFormat accepts csv or pdf, case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatCSV:
		return FormatCSV, nil
	case FormatPDF:
		return FormatPDF, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
}

// ContentType returns the MIME type of the format.
func (f Format) ContentType() string {
	if f == FormatPDF {
		return "application/pdf"
	}
	return "text/csv; charset=utf-8"
}

// Filename embeds the generation date, e.g.
// presupuesto-economilenial-2024-05-31.csv.
func Filename(f Format, now time.Time) string {
	return fmt.Sprintf("%s-%s.%s", filenamePrefix, now.Format("2006-01-02"), f)
}

// Render dispatches to the renderer of f.
func Render(f Format, doc core.Document, rep advice.Report, now time.Time) ([]byte, error) {
	switch f {
	case FormatCSV:
		return CSV(doc, rep, now)
	case FormatPDF:
		return PDF(doc, rep, now)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, string(f))
}

// complies reports whether the category is within ComplianceTolerance of
// the fixed 50/30/20 ideal, whatever target the document carries.
func complies(cf analysis.CategoryFigures) bool {
	return cf.Deviation.Abs().LessThanOrEqual(ComplianceTolerance)
}

func displayDate(now time.Time) string {
	return now.Format("2/1/2006")
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func sectionTitle(c core.Category) string {
	return fmt.Sprintf("%s (%s%%)", c.Title(), c.IdealPct().String())
}
