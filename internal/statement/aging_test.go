package statement

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arstatements/pkg/models"
)

func TestAgeBoundaries(t *testing.T) {
	today := time.Date(2025, 6, 30, 17, 45, 0, 0, time.UTC)
	tests := []struct {
		daysAgo int
		days    int
		bucket  Bucket
	}{
		{-10, 0, NotDue},
		{0, 0, NotDue},
		{1, 1, Days0To30},
		{30, 30, Days0To30},
		{31, 31, Days31To60},
		{60, 60, Days31To60},
		{61, 61, Days61To90},
		{90, 90, Days61To90},
		{91, 91, Days91To120},
		{120, 120, Days91To120},
		{121, 121, Days121Plus},
		{900, 900, Days121Plus},
	}
	for _, tt := range tests {
		due := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -tt.daysAgo)
		days, bucket := Age(due, today)
		assert.Equal(t, tt.days, days, "days for %d", tt.daysAgo)
		assert.Equal(t, tt.bucket, bucket, "bucket for %d days", tt.daysAgo)
	}
}

func TestDaysBetweenIgnoresClock(t *testing.T) {
	a := time.Date(2025, 1, 1, 23, 59, 0, 0, time.UTC)
	b := time.Date(2025, 1, 2, 0, 1, 0, 0, time.UTC)
	assert.Equal(t, 1, DaysBetween(a, b))
	assert.Equal(t, -1, DaysBetween(b, a))
}

func TestSummaryScenario(t *testing.T) {
	today := monday
	rows := []models.InvoiceRow{
		row("C1", models.CurrencyUSD, today.AddDate(0, 0, -35), today.AddDate(0, 0, -5), "100"),
		row("C1", models.CurrencyUSD, today.AddDate(0, 0, -70), today.AddDate(0, 0, -40), "50"),
	}
	groups, err := Aggregate(rows, today, Monday)
	require.NoError(t, err)

	s := groups[0].Currencies[0].Summary()
	assert.Equal(t, "150", s.Total.String())
	assert.Equal(t, "100", s.Amount(Days0To30).String())
	assert.Equal(t, "50", s.Amount(Days31To60).String())
	assert.Equal(t, "66.67", s.Percent(Days0To30).StringFixed(2))
	assert.Equal(t, "33.33", s.Percent(Days31To60).StringFixed(2))
	assert.True(t, s.Percent(NotDue).IsZero())
}

func TestSummaryPartitionsGroup(t *testing.T) {
	today := monday
	var rows []models.InvoiceRow
	for i := 0; i < 40; i++ {
		due := today.AddDate(0, 0, 15-i*5)
		rows = append(rows, row("C1", models.CurrencyLocal, due.AddDate(0, 0, -30), due, decimal.NewFromInt(int64(i*37+1)).String()))
	}
	groups, err := Aggregate(rows, today, Monday)
	require.NoError(t, err)

	g := groups[0].Currencies[0]
	s := g.Summary()
	sum := decimal.Zero
	count := 0
	for _, b := range Buckets {
		sum = sum.Add(s.Amount(b))
	}
	for _, l := range g.Lines {
		for _, b := range Buckets {
			if l.Bucket == b {
				count++
			}
		}
	}
	assert.True(t, sum.Equal(s.Total))
	assert.True(t, s.Total.Equal(g.Total()))
	assert.Equal(t, len(g.Lines), count)
}

func TestPercentZeroTotal(t *testing.T) {
	s := Summarize(nil)
	for _, b := range Buckets {
		assert.True(t, s.Percent(b).IsZero(), b.String())
	}

	credit := Summarize([]Line{
		{Amount: decimal.NewFromInt(10), Bucket: NotDue},
		{Amount: decimal.NewFromInt(-10), Bucket: Days0To30},
	})
	assert.True(t, credit.Total.IsZero())
	assert.True(t, credit.Percent(NotDue).IsZero())
}

func TestBucketLabels(t *testing.T) {
	assert.Equal(t, "Sin Vencer", NotDue.String())
	assert.Equal(t, "+121", Days121Plus.String())
	assert.False(t, NotDue.Overdue())
	assert.True(t, Days31To60.Overdue())
}

func TestTruncateReference(t *testing.T) {
	tests := map[string]string{
		"":                         "",
		"REC-1":                    "REC-1",
		"ABCDEFGHIJKL":             "ABCDEFGHIJKL",
		"ABCDEFGHIJKLM":            "ABCDEF, +1",
		"ABCDEFGHIJKLMNOP":         "ABCDEF, +1",
		"ABCDEFGHIJKLMNOPQR":       "ABCDEF, +2",
		"111111;222222;333333;444": "111111, +3",
		"ÁÉÍÓÚÑáéíóúñx":            "ÁÉÍÓÚÑ, +1",
	}
	for in, want := range tests {
		assert.Equal(t, want, TruncateReference(in), in)
	}
}
