package render

import (
	"bytes"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"arstatements/internal/config"
	"arstatements/internal/statement"
	"arstatements/pkg/models"
)

var today = time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)

func fixture(t *testing.T, n int, cur models.Currency) (statement.ClientGroup, statement.CurrencyGroup) {
	t.Helper()
	var rows []models.InvoiceRow
	for i := 0; i < n; i++ {
		date := today.AddDate(0, 0, -10*i)
		rows = append(rows, models.InvoiceRow{
			ClientCode:       "C001",
			ClientName:       "Importadora Ñandú S.A.",
			InvoiceNumber:    fmt.Sprintf("100000%04d", i),
			InvoiceDate:      date,
			DueDate:          date.AddDate(0, 0, 30),
			Currency:         cur,
			PendingAmount:    decimal.NewFromFloat(1234.5).Add(decimal.NewFromInt(int64(i))),
			ReceiptReference: "REC-2025-0001-0002",
		})
	}
	groups, err := statement.Aggregate(rows, today, statement.Monday)
	require.NoError(t, err)
	return groups[0], groups[0].Currencies[0]
}

func builder(t *testing.T, policy BreakPolicy) *StatementBuilder {
	t.Helper()
	profile, err := config.LoadProfile("")
	require.NoError(t, err)
	return NewStatementBuilder(profile, policy, "CRC", today)
}

func TestRowHeightDensity(t *testing.T) {
	layout := NewLayout(config.DefaultProfile())
	assert.Equal(t, 9.0, layout.RowHeight(10))
	assert.Equal(t, 10.0, layout.RowHeight(9))
	assert.Equal(t, 10.0, layout.RowHeight(11))
	assert.Equal(t, 10.0, layout.RowHeight(0))

	custom := NewLayout(config.Profile{
		RowHeight: 8,
		Density:   []config.DensityBand{{MinRows: 20, MaxRows: 40, Height: 6}},
	})
	assert.Equal(t, 6.0, custom.RowHeight(25))
	assert.Equal(t, 8.0, custom.RowHeight(41))
}

func TestSummaryFontSize(t *testing.T) {
	layout := NewLayout(config.DefaultProfile())
	tests := map[string]float64{
		"250000000": 7,
		"100000000": 7,
		"10000000":  8,
		"9999999":   9,
		"1000000":   9,
		"100000":    10,
		"99999.99":  11,
		"0":         11,
		"-500":      11,
	}
	for total, want := range tests {
		assert.Equal(t, want, layout.SummaryFontSize(decimal.RequireFromString(total)), total)
	}
}

func TestClientNameFontSize(t *testing.T) {
	name := func(n int) string { return string(bytes.Repeat([]byte("A"), n)) }
	assert.Equal(t, 14.0, ClientNameFontSize(name(50)))
	assert.Equal(t, 12.0, ClientNameFontSize(name(51)))
	assert.Equal(t, 12.0, ClientNameFontSize(name(70)))
	assert.Equal(t, 10.0, ClientNameFontSize(name(71)))
}

func TestPercentColor(t *testing.T) {
	pct := decimal.NewFromInt(12)
	assert.Equal(t, Green, PercentColor(statement.NotDue, pct))
	assert.Equal(t, Red, PercentColor(statement.Days0To30, pct))
	assert.Equal(t, Red, PercentColor(statement.Days121Plus, pct))
	assert.Equal(t, Black, PercentColor(statement.NotDue, decimal.Zero))
	assert.Equal(t, Black, PercentColor(statement.Days61To90, decimal.Zero))
}

func TestBreakPolicies(t *testing.T) {
	legacy := LegacyPolicy{Bands: LegacyBands}
	for _, rows := range []int{5, 9, 27, 29, 164, 165, 271} {
		assert.True(t, legacy.BreakBeforeSummary(rows, 200, summaryBlockHeight), "rows %d", rows)
	}
	for _, rows := range []int{4, 10, 26, 166, 272} {
		assert.False(t, legacy.BreakBeforeSummary(rows, 200, summaryBlockHeight), "rows %d", rows)
	}
	assert.True(t, legacy.BreakBeforeSummary(12, 20, summaryBlockHeight), "never overlaps the footer")

	space := SpacePolicy{}
	assert.False(t, space.BreakBeforeSummary(7, summaryBlockHeight, summaryBlockHeight))
	assert.True(t, space.BreakBeforeSummary(7, summaryBlockHeight-1, summaryBlockHeight))

	p, err := PolicyByName("LEGACY")
	require.NoError(t, err)
	assert.IsType(t, LegacyPolicy{}, p)
	_, err = PolicyByName("bands")
	assert.Error(t, err)
}

func TestFormatting(t *testing.T) {
	assert.Equal(t, "USD  1,234.50", FormatAmount("USD", decimal.RequireFromString("1234.5")))
	assert.Equal(t, "CRC  1,000,000.00", FormatAmount("CRC", decimal.NewFromInt(1000000)))
	assert.Equal(t, "66.67%", FormatPercent(decimal.RequireFromString("66.67")))
	assert.Equal(t, "E.C. A-B-C", SanitizeFileName(" E.C. A/B:C "))
}

func TestBuildStatementPDF(t *testing.T) {
	client, group := fixture(t, 7, models.CurrencyUSD)

	doc, err := builder(t, SpacePolicy{}).Build(group, client)
	require.NoError(t, err)
	assert.Equal(t, 1, doc.Pages())

	data, err := doc.Bytes()
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))
}

func TestLegacyPolicyMovesSummary(t *testing.T) {
	client, group := fixture(t, 7, models.CurrencyLocal)

	doc, err := builder(t, LegacyPolicy{Bands: LegacyBands}).Build(group, client)
	require.NoError(t, err)
	assert.Equal(t, 2, doc.Pages())
}

func TestLongStatementPaginates(t *testing.T) {
	client, group := fixture(t, 60, models.CurrencyUSD)

	doc, err := builder(t, SpacePolicy{}).Build(group, client)
	require.NoError(t, err)
	assert.Greater(t, doc.Pages(), 2)
	assert.GreaterOrEqual(t, doc.RemainingHeight(), 0.0, "content stays above the footer")

	path := filepath.Join(t.TempDir(), "out", "C001_USD.pdf")
	require.NoError(t, doc.Save(path))
	assert.FileExists(t, path)
}

func TestBuildRejectsUnknownCurrency(t *testing.T) {
	client, group := fixture(t, 2, models.Currency("EUR"))

	_, err := builder(t, nil).Build(group, client)
	require.Error(t, err)
	assert.ErrorIs(t, err, statement.ErrUnknownCurrency)

	err = builder(t, nil).WriteWorkbook(filepath.Join(t.TempDir(), "x.xlsx"), group, client)
	assert.ErrorIs(t, err, statement.ErrUnknownCurrency)
}

func TestWriteWorkbook(t *testing.T) {
	client, group := fixture(t, 3, models.CurrencyLocal)
	path := filepath.Join(t.TempDir(), "C001_LOCAL.xlsx")

	require.NoError(t, builder(t, nil).WriteWorkbook(path, group, client))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	header, err := f.GetCellValue(workbookSheet, "A1")
	require.NoError(t, err)
	assert.Equal(t, "Código Cliente", header)

	first, err := f.GetCellValue(workbookSheet, "C2")
	require.NoError(t, err)
	assert.Equal(t, group.Lines[0].InvoiceNumber, first)

	cur, err := f.GetCellValue(workbookSheet, "G2")
	require.NoError(t, err)
	assert.Equal(t, "CRC", cur)

	total, err := f.GetCellValue(workbookSheet, "G6")
	require.NoError(t, err)
	assert.Equal(t, "Total CRC:", total)
}

func TestDeliveryLog(t *testing.T) {
	log := NewDeliveryLog(config.Company{Name: "Agencia"}, "", today)
	log.Add(LogEntry{Recipient: "a@example.com", Sent: true})
	log.Add(LogEntry{Recipient: "NO_ENVIAR", Sent: true, Detail: "Archivos archivados"})
	for i := 0; i < 40; i++ {
		log.Add(LogEntry{Recipient: fmt.Sprintf("c%d@example.com", i), Detail: "Correo NO enviado: connection reset by peer while writing"})
	}

	assert.Len(t, log.Entries(), 42)
	assert.Greater(t, log.Document().Pages(), 1)

	path := filepath.Join(t.TempDir(), "email_logs.pdf")
	require.NoError(t, log.Document().Save(path))
	assert.FileExists(t, path)
}
