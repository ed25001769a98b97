// Package source reads outstanding invoices from the ledger: a Postgres view,
// an exported workbook or a Google Sheet. Every reader normalizes currencies
// before rows leave the package.
package source

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"arstatements/pkg/models"
)

// Source yields the invoice rows of one run.
type Source interface {
	Rows(ctx context.Context) ([]models.InvoiceRow, error)
}

var (
	// ErrMissingColumn is returned when a tabular source lacks a required column.
	ErrMissingColumn = errors.New("missing required column")
)

// Column headers of tabular sources, in export order.
const (
	ColClientCode     = "Código Cliente"
	ColClientName     = "Cliente"
	ColTaxID          = "Cedula Juridica"
	ColEmails         = "Correo Electrónico"
	ColInvoiceNumber  = "Número Factura"
	ColInvoiceDate    = "Fecha Factura"
	ColDueDate        = "Fecha Vencimiento"
	ColCurrency       = "Moneda"
	ColPendingAmount  = "Monto Pendiente"
	ColReceipt        = "Recibo"
	ColProcessingDays = "Días de Trámite"
)

// Columns is the header row written by WriteXLSX.
var Columns = []string{
	ColClientCode, ColClientName, ColTaxID, ColEmails, ColInvoiceNumber, ColInvoiceDate,
	ColDueDate, ColCurrency, ColPendingAmount, ColReceipt, ColProcessingDays,
}

var requiredColumns = []string{ColClientCode, ColInvoiceNumber, ColInvoiceDate, ColDueDate, ColCurrency}

// header maps normalized column names to their index.
type header map[string]int

func newHeader(cells []string) header {
	h := make(header, len(cells))
	for i, c := range cells {
		h[normalizeHeader(c)] = i
	}
	return h
}

func normalizeHeader(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func (h header) has(col string) bool {
	_, ok := h[normalizeHeader(col)]
	return ok
}

func (h header) validate() error {
	for _, col := range requiredColumns {
		if !h.has(col) {
			return fmt.Errorf("%w: %q", ErrMissingColumn, col)
		}
	}
	if !h.has(ColPendingAmount) && !h.has(ColPendingAmount+" USD") {
		return fmt.Errorf("%w: %q", ErrMissingColumn, ColPendingAmount)
	}
	return nil
}

func (h header) get(row []string, col string) string {
	i, ok := h[normalizeHeader(col)]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// parser turns one tabular row into an invoice row.
type parser struct {
	header     header
	localCodes []string
}

func (p parser) parse(row []string, rowNum int) (models.InvoiceRow, error) {
	const op = "parseRow"
	get := func(col string) string { return p.header.get(row, col) }

	code := get(ColClientCode)
	if code == "" {
		return models.InvoiceRow{}, fmt.Errorf("%s: empty client code in row %d", op, rowNum)
	}

	invoiceDate, err := parseDate(get(ColInvoiceDate))
	if err != nil {
		return models.InvoiceRow{}, fmt.Errorf("%s: invalid invoice date in row %d: %w", op, rowNum, err)
	}
	dueDate, err := parseDate(get(ColDueDate))
	if err != nil {
		return models.InvoiceRow{}, fmt.Errorf("%s: invalid due date in row %d: %w", op, rowNum, err)
	}

	currency := models.NormalizeCurrency(get(ColCurrency), p.localCodes...)
	amountStr := get(ColPendingAmount)
	if amountStr == "" {
		amountStr = get(p.amountColumn(currency))
	}
	amount, err := parseAmount(amountStr)
	if err != nil {
		return models.InvoiceRow{}, fmt.Errorf("%s: invalid amount %q in row %d: %w", op, amountStr, rowNum, err)
	}

	return models.InvoiceRow{
		ClientCode:       code,
		ClientName:       get(ColClientName),
		TaxID:            get(ColTaxID),
		ContactEmails:    get(ColEmails),
		InvoiceNumber:    get(ColInvoiceNumber),
		InvoiceDate:      invoiceDate,
		DueDate:          dueDate,
		Currency:         currency,
		PendingAmount:    amount,
		ReceiptReference: get(ColReceipt),
		ProcessingDays:   get(ColProcessingDays),
	}, nil
}

// amountColumn picks the per-currency amount column of older ledger exports
// ("Monto Pendiente CRC", "Monto Pendiente USD").
func (p parser) amountColumn(c models.Currency) string {
	if c == models.CurrencyUSD {
		return ColPendingAmount + " USD"
	}
	for _, local := range p.localCodes {
		if col := ColPendingAmount + " " + strings.ToUpper(local); p.header.has(col) {
			return col
		}
	}
	return ColPendingAmount + " " + string(c)
}

var dateFormats = []string{
	"02/01/2006",
	"2/1/2006",
	"02-01-2006",
	"2006-01-02",
	"02/01/2006 15:04:05",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// parseDate accepts day-first dates, ISO dates and spreadsheet serial numbers.
func parseDate(s string) (time.Time, error) {
	cleaned := strings.TrimSpace(s)
	if cleaned == "" {
		return time.Time{}, fmt.Errorf("empty date string")
	}
	for _, format := range dateFormats {
		if date, err := time.Parse(format, cleaned); err == nil {
			return date, nil
		}
	}
	if serial, err := strconv.ParseFloat(cleaned, 64); err == nil && serial > 0 {
		return excelize.ExcelDateToTime(serial, false)
	}
	return time.Time{}, fmt.Errorf("unable to parse date: %s", s)
}

// parseAmount parses ledger amounts such as "1,234.56", "1.234,56", "USD 15" or "-20".
// The rightmost of "." and "," is taken as the decimal separator.
func parseAmount(s string) (decimal.Decimal, error) {
	cleaned := strings.TrimSpace(s)
	if cleaned == "" {
		return decimal.Zero, nil
	}
	for _, sym := range []string{"USD", "CRC", "US$", "₡", "$", " "} {
		cleaned = strings.ReplaceAll(cleaned, sym, "")
	}

	dot := strings.LastIndex(cleaned, ".")
	comma := strings.LastIndex(cleaned, ",")
	switch {
	case comma > dot && dot >= 0:
		cleaned = strings.ReplaceAll(cleaned, ".", "")
		cleaned = strings.Replace(cleaned, ",", ".", 1)
	case comma > dot:
		parts := strings.Split(cleaned, ",")
		if len(parts) == 2 && len(parts[1]) <= 2 {
			cleaned = strings.Replace(cleaned, ",", ".", 1)
		} else {
			cleaned = strings.ReplaceAll(cleaned, ",", "")
		}
	default:
		cleaned = strings.ReplaceAll(cleaned, ",", "")
	}

	amount, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("unable to parse amount: %s (cleaned: %s)", s, cleaned)
	}
	return amount, nil
}

// cellString safely extracts a string value from a row slice.
func cellString(row []interface{}, index int) string {
	if index >= len(row) || row[index] == nil {
		return ""
	}
	return strings.TrimSpace(fmt.Sprintf("%v", row[index]))
}
