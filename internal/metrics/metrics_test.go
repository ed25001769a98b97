package metrics

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arstatements/internal/run"
)

func sampleStats() run.Stats {
	return run.Stats{
		StartedAt:          time.Date(2025, 3, 3, 6, 0, 0, 0, time.UTC),
		Duration:           90 * time.Second,
		ClientsProcessed:   3,
		DocumentsProcessed: 12,
		DocumentsGenerated: 4,
		EmailsSentOK:       5,
		EmailsSentFail:     1,
		TotalUSD:           decimal.RequireFromString("250.75"),
		TotalLocal:         decimal.RequireFromString("100000"),
	}
}

func TestObserve(t *testing.T) {
	m := New()
	m.Observe(sampleStats())

	assert.Equal(t, 90.0, testutil.ToFloat64(m.LastRunDuration))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.ClientsProcessed))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Emails.WithLabelValues("fail")))
	assert.Equal(t, 250.75, testutil.ToFloat64(m.AmountTotal.WithLabelValues("USD")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.Success))
}

func TestTextfileReporter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "arstatements.prom")
	reporter := TextfileReporter{Metrics: New(), Path: path}

	require.NoError(t, reporter.Report(context.Background(), sampleStats()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "arstatements_last_run_clients 3")
	assert.Contains(t, string(data), `arstatements_last_run_emails{status="ok"} 5`)
}
