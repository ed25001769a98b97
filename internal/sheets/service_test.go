package sheets

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arstatements/internal/run"
)

func TestExtractSpreadsheetID(t *testing.T) {
	id, err := extractSpreadsheetID("https://docs.google.com/spreadsheets/d/1AbC-d_9/edit#gid=0")
	require.NoError(t, err)
	assert.Equal(t, "1AbC-d_9", id)

	_, err = extractSpreadsheetID("https://example.com/sheet")
	assert.Error(t, err)
}

func TestRunReportRow(t *testing.T) {
	stats := run.NewStats("r1", run.TypeScheduled, "sql", time.Date(2025, 3, 3, 6, 0, 5, 0, time.UTC))
	stats.Duration = 12340 * time.Millisecond
	stats.ClientsProcessed = 4
	stats.DocumentsProcessed = 19
	stats.DocumentsGenerated = 6
	stats.EmailsSentOK = 5
	stats.EmailsSentFail = 1
	stats.TotalUSD = decimal.RequireFromString("1500.5")
	stats.Observe("moneda no reconocida EUR para C9")

	values := rowToValues(NewRunReportRow(*stats))
	require.Len(t, values, len(reportHeaders))
	assert.Equal(t, []interface{}{
		"03/03/2025 06:00:05", "12.34 s", 4, 19, 6, 5, 1, "scheduled", "sql",
		"1500.50", "0.00", "moneda no reconocida EUR para C9",
	}, values)
}
