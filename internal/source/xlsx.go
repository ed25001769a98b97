package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"

	"arstatements/internal/logger"
	"arstatements/pkg/models"
)

// XLSXSource reads invoices from a workbook whose first row holds the column headers.
type XLSXSource struct {
	path       string
	sheet      string
	localCodes []string
	log        zerolog.Logger
}

// NewXLSXSource reads the first sheet of path unless sheet is set.
func NewXLSXSource(path, sheet string, localCodes []string) *XLSXSource {
	return &XLSXSource{
		path:       path,
		sheet:      sheet,
		localCodes: localCodes,
		log:        logger.WithComponent("source-xlsx"),
	}
}

// Rows implements Source. Unparseable rows are logged and skipped.
func (s *XLSXSource) Rows(ctx context.Context) ([]models.InvoiceRow, error) {
	const op = "XLSXSource.Rows"

	f, err := excelize.OpenFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("%s: open %s: %w", op, s.path, err)
	}
	defer f.Close()

	sheet := s.sheet
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	values, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("%s: read sheet %s: %w", op, sheet, err)
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("%s: sheet %s is empty", op, sheet)
	}

	p := parser{header: newHeader(values[0]), localCodes: s.localCodes}
	if err := p.header.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var rows []models.InvoiceRow
	for i, cells := range values[1:] {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rowNum := i + 2
		if isBlank(cells) {
			continue
		}
		row, err := p.parse(cells, rowNum)
		if err != nil {
			s.log.Warn().Err(err).Int("row", rowNum).Msg("Failed to parse invoice row, skipping")
			continue
		}
		rows = append(rows, row)
	}

	s.log.Info().
		Str("path", s.path).
		Int("total_rows", len(values)-1).
		Int("parsed_rows", len(rows)).
		Msg("Invoices read from workbook")
	return rows, nil
}

func isBlank(cells []string) bool {
	for _, c := range cells {
		if c != "" {
			return false
		}
	}
	return true
}

// WriteXLSX dumps rows to a workbook readable by XLSXSource.
// localLabel is written for LOCAL currency rows.
func WriteXLSX(path string, rows []models.InvoiceRow, localLabel string) error {
	const sheet = "Facturas"

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return err
	}
	head := make([]interface{}, len(Columns))
	for i, c := range Columns {
		head[i] = c
	}
	if err := f.SetSheetRow(sheet, "A1", &head); err != nil {
		return err
	}

	for i, r := range rows {
		cur := string(r.Currency)
		if r.Currency == models.CurrencyLocal {
			cur = localLabel
		}
		values := []interface{}{
			r.ClientCode, r.ClientName, r.TaxID, r.ContactEmails, r.InvoiceNumber,
			r.InvoiceDate.Format("02/01/2006"), r.DueDate.Format("02/01/2006"),
			cur, r.PendingAmount.String(), r.ReceiptReference, r.ProcessingDays,
		}
		if err := f.SetSheetRow(sheet, fmt.Sprintf("A%d", i+2), &values); err != nil {
			return err
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	return f.SaveAs(path)
}
