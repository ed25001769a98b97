// Package render turns aggregated statements into PDF and XLSX documents.
//
// Statements and the delivery log are separate builders sharing one Document,
// which owns the page frame (header, footer, page numbers) and the vertical
// space accounting used for page breaks.
package render

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jung-kurt/gofpdf"

	"arstatements/internal/config"
)

const (
	pageMarginLeft  = 10.0
	pageMarginTop   = 10.0
	pageMarginRight = 10.0

	// footerReserve is the band at the bottom of every page owned by the footer.
	footerReserve = 17.0
)

// Color is an RGB text color.
type Color struct{ R, G, B int }

var (
	Black = Color{0, 0, 0}
	Green = Color{0, 128, 0}
	Red   = Color{255, 0, 0}
)

// Frame describes the fixed header and footer printed on every page.
type Frame struct {
	Title    string
	Company  config.Company
	LogoPath string
	// PrintedAt is shown in the header; the caller freezes it once per run.
	PrintedAt time.Time
}

// Document is a paginated A4 PDF with a fixed frame.
type Document struct {
	pdf   *gofpdf.Fpdf
	tr    func(string) string
	frame Frame

	// continuation runs at the top of every page after the first,
	// typically to repeat a table header.
	continuation func()
}

// NewDocument creates a document and opens its first page.
func NewDocument(frame Frame) *Document {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pageMarginLeft, pageMarginTop, pageMarginRight)
	pdf.SetAutoPageBreak(false, footerReserve)
	pdf.AliasNbPages("")

	d := &Document{
		pdf:   pdf,
		tr:    pdf.UnicodeTranslatorFromDescriptor(""),
		frame: frame,
	}
	pdf.SetHeaderFunc(d.header)
	pdf.SetFooterFunc(d.footer)
	pdf.AddPage()
	return d
}

func (d *Document) header() {
	pdf := d.pdf
	if d.frame.LogoPath != "" {
		if _, err := os.Stat(d.frame.LogoPath); err == nil {
			pdf.ImageOptions(d.frame.LogoPath, 5, pdf.GetY(), 50, 0, false, gofpdf.ImageOptions{ReadDpi: true}, 0, "")
		}
	}

	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(0, 8, d.tr(d.frame.Title), "", 1, "C", false, 0, "")
	if d.frame.Company.Name != "" && d.frame.Company.Name != d.frame.Title {
		pdf.CellFormat(0, 6, d.tr(d.frame.Company.Name), "", 1, "C", false, 0, "")
	}
	pdf.Ln(2)

	pdf.SetFont("Arial", "", 10)
	for _, line := range companyLines(d.frame.Company) {
		pdf.CellFormat(0, 5, d.tr(line), "", 1, "C", false, 0, "")
	}
	pdf.Ln(2)

	if !d.frame.PrintedAt.IsZero() {
		stamp := fmt.Sprintf("Fecha: %s  Hora: %s",
			d.frame.PrintedAt.Format("02/01/2006"), d.frame.PrintedAt.Format("03:04 PM"))
		pdf.SetXY(-70, pdf.GetY())
		pdf.CellFormat(60, 10, stamp, "", 1, "R", false, 0, "")
	}

	if d.continuation != nil && pdf.PageNo() > 1 {
		d.continuation()
	}
}

func companyLines(c config.Company) []string {
	var lines []string
	if c.TaxID != "" {
		lines = append(lines, "Cédula Jurídica "+c.TaxID)
	}
	if c.Phone != "" {
		lines = append(lines, "Tel: "+c.Phone)
	}
	if c.Address != "" {
		lines = append(lines, c.Address)
	}
	return lines
}

func (d *Document) footer() {
	pdf := d.pdf
	_, pageHeight := pdf.GetPageSize()
	pdf.SetY(pageHeight - 15)
	pdf.SetDrawColor(0, 0, 0)
	pdf.SetLineWidth(0.3)
	pdf.Line(6, pdf.GetY(), 200, pdf.GetY())

	pdf.SetY(pageHeight - 12)
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(0, 10, d.tr(fmt.Sprintf("Página %d de {nb}", pdf.PageNo())), "", 0, "L", false, 0, "")
	if d.frame.Company.FooterEmail != "" {
		pdf.SetX(pageMarginLeft)
		pdf.CellFormat(0, 10, d.frame.Company.FooterEmail, "", 0, "R", false, 0, "")
	}
}

// SetContinuation registers a function drawn below the header on continuation pages.
func (d *Document) SetContinuation(fn func()) {
	d.continuation = fn
}

// RemainingHeight is the vertical space left above the footer on the current page.
func (d *Document) RemainingHeight() float64 {
	_, pageHeight := d.pdf.GetPageSize()
	return pageHeight - footerReserve - d.pdf.GetY()
}

// EnsureSpace starts a new page unless h units still fit above the footer.
// It reports whether a page was added.
func (d *Document) EnsureSpace(h float64) bool {
	if d.RemainingHeight() >= h {
		return false
	}
	d.BreakPage()
	return true
}

// BreakPage starts a new page.
func (d *Document) BreakPage() {
	d.pdf.AddPage()
}

// Pages returns the number of pages so far.
func (d *Document) Pages() int {
	return d.pdf.PageNo()
}

// Row draws one bordered table row and moves to the next line.
func (d *Document) Row(widths []float64, height float64, values []string, align string) {
	for i, w := range widths {
		v := ""
		if i < len(values) {
			v = values[i]
		}
		d.pdf.CellFormat(w, height, d.tr(v), "1", 0, align, false, 0, "")
	}
	d.pdf.Ln(height)
}

func (d *Document) setFont(style string, size float64) {
	d.pdf.SetFont("Arial", style, size)
}

func (d *Document) setTextColor(c Color) {
	d.pdf.SetTextColor(c.R, c.G, c.B)
}

func (d *Document) line(h float64, text, align string) {
	d.pdf.CellFormat(0, h, d.tr(text), "", 1, align, false, 0, "")
}

// Bytes renders the document.
func (d *Document) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := d.pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Save writes the document to path, creating parent directories.
func (d *Document) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	if err := d.pdf.OutputFileAndClose(path); err != nil {
		return fmt.Errorf("write pdf %s: %w", path, err)
	}
	return nil
}
