package source

import (
	"context"
	"errors"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arstatements/pkg/models"
)

var local = []string{"CRC", "COL"}

func TestParseAmount(t *testing.T) {
	tests := map[string]string{
		"":           "0",
		"150":        "150",
		"1,234.56":   "1234.56",
		"1.234,56":   "1234.56",
		"1234,5":     "1234.5",
		"1,234":      "1234",
		"-20.10":     "-20.1",
		"USD 15.00":  "15",
		"₡ 1,000.25": "1000.25",
	}
	for in, want := range tests {
		got, err := parseAmount(in)
		require.NoError(t, err, in)
		assert.True(t, got.Equal(decimal.RequireFromString(want)), "%q => %s", in, got)
	}

	_, err := parseAmount("abc")
	assert.Error(t, err)
}

func TestParseDate(t *testing.T) {
	want := time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)
	for _, in := range []string{"31/01/2025", "31-01-2025", "2025-01-31", "31/01/2025 00:00:00", "45688"} {
		got, err := parseDate(in)
		require.NoError(t, err, in)
		assert.True(t, got.Equal(want), "%s => %s", in, got)
	}

	_, err := parseDate("")
	assert.Error(t, err)
	_, err = parseDate("yesterday")
	assert.Error(t, err)
}

func TestSQLSourceRows(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	cols := []string{"client_code", "client_name", "tax_id", "contact_emails", "invoice_number",
		"invoice_date", "due_date", "currency", "pending_amount", "receipt_reference", "processing_days"}
	issued := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("FROM ar_open_invoices")).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("C1", "Cliente Uno", "3-101-000001", "a@example.com", "1000000001",
				issued, issued.AddDate(0, 0, 30), "col", "150.50", nil, "L-J").
			AddRow("C2", nil, nil, nil, "1000000002",
				issued, issued, "US$", "20", "REC-1", nil))

	rows, err := NewSQLSource(db, "", local).Rows(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, models.CurrencyLocal, rows[0].Currency)
	assert.Equal(t, "150.5", rows[0].PendingAmount.String())
	assert.Equal(t, "L-J", rows[0].ProcessingDays)
	assert.Empty(t, rows[0].ReceiptReference)

	assert.Equal(t, models.CurrencyUSD, rows[1].Currency)
	assert.Empty(t, rows[1].ClientName)
	assert.Equal(t, "REC-1", rows[1].ReceiptReference)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLSourceQueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT").WillReturnError(errors.New("connection refused"))

	_, err = NewSQLSource(db, "SELECT * FROM custom", nil).Rows(context.Background())
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestXLSXRoundTrip(t *testing.T) {
	issued := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	in := []models.InvoiceRow{
		{
			ClientCode: "C1", ClientName: "Cliente Uno", TaxID: "3-101", ContactEmails: "a@x.com;b@x.com",
			InvoiceNumber: "1000000001", InvoiceDate: issued, DueDate: issued.AddDate(0, 0, 30),
			Currency: models.CurrencyLocal, PendingAmount: decimal.RequireFromString("1500.75"),
			ReceiptReference: "REC-9", ProcessingDays: "L-V",
		},
		{
			ClientCode: "C2", ClientName: "Cliente Dos", InvoiceNumber: "1000000002",
			InvoiceDate: issued, DueDate: issued, Currency: models.CurrencyUSD,
			PendingAmount: decimal.NewFromInt(-20),
		},
	}
	path := filepath.Join(t.TempDir(), "export", "facturas.xlsx")
	require.NoError(t, WriteXLSX(path, in, "CRC"))

	out, err := NewXLSXSource(path, "", local).Rows(context.Background())
	require.NoError(t, err)
	require.Len(t, out, 2)

	for i := range in {
		assert.Equal(t, in[i].ClientCode, out[i].ClientCode)
		assert.Equal(t, in[i].ContactEmails, out[i].ContactEmails)
		assert.Equal(t, in[i].Currency, out[i].Currency)
		assert.True(t, in[i].PendingAmount.Equal(out[i].PendingAmount))
		assert.True(t, in[i].InvoiceDate.Equal(out[i].InvoiceDate))
		assert.True(t, in[i].DueDate.Equal(out[i].DueDate))
		assert.Equal(t, in[i].ProcessingDays, out[i].ProcessingDays)
	}
}

type fakeRange struct {
	values [][]interface{}
	err    error
}

func (f fakeRange) ReadRange(context.Context, string) ([][]interface{}, error) {
	return f.values, f.err
}

func TestSheetsSourceRows(t *testing.T) {
	values := [][]interface{}{
		{"Código Cliente", "Cliente", "Número Factura", "Fecha Factura", "Fecha Vencimiento", "Moneda", "Monto Pendiente CRC", "Monto Pendiente USD", "Días de Trámite"},
		{"C1", "Uno", "F1", "01/02/2025", "03/03/2025", "COL", "1,000.00", "", "K"},
		{"C1", "Uno", "F2", "02/02/2025", "04/03/2025", "USD", "", "12.5", "K"},
		{"", "", "", "", "", "", "", "", ""},
		{"C2", "Dos", "F3", "not a date", "04/03/2025", "USD", "", "1", ""},
	}

	rows, err := NewSheetsSource(fakeRange{values: values}, "Facturas!A:I", local).Rows(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 2, "blank and unparseable rows are skipped")

	assert.Equal(t, models.CurrencyLocal, rows[0].Currency)
	assert.Equal(t, "1000", rows[0].PendingAmount.String())
	assert.Equal(t, models.CurrencyUSD, rows[1].Currency)
	assert.Equal(t, "12.5", rows[1].PendingAmount.String())
}

func TestSheetsSourceMissingColumn(t *testing.T) {
	values := [][]interface{}{{"Cliente", "Moneda"}, {"Uno", "USD"}}

	_, err := NewSheetsSource(fakeRange{values: values}, "A:B", local).Rows(context.Background())
	assert.ErrorIs(t, err, ErrMissingColumn)

	_, err = NewSheetsSource(fakeRange{err: errors.New("quota")}, "A:B", local).Rows(context.Background())
	assert.Error(t, err)
}
