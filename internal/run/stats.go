package run

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"arstatements/pkg/models"
)

// Run types recorded in the run report.
const (
	TypeManual    = "manual"
	TypeScheduled = "scheduled"
)

// ObservationNoClients is recorded when no client is due on the run's processing day.
const ObservationNoClients = "No hubo clientes para procesar"

// Stats accumulates the counters of one run. It is created at run start,
// mutated additively while documents are rendered and delivered, and read
// once by the reporters.
type Stats struct {
	RunID     string
	RunType   string
	Source    string
	StartedAt time.Time
	Duration  time.Duration

	ClientsProcessed   int
	DocumentsProcessed int
	DocumentsGenerated int
	EmailsSentOK       int
	EmailsSentFail     int
	TotalUSD           decimal.Decimal
	TotalLocal         decimal.Decimal

	Observations string
}

// NewStats returns zeroed counters for a run starting at startedAt.
func NewStats(runID, runType, source string, startedAt time.Time) *Stats {
	return &Stats{
		RunID:      runID,
		RunType:    runType,
		Source:     source,
		StartedAt:  startedAt,
		TotalUSD:   decimal.Zero,
		TotalLocal: decimal.Zero,
	}
}

// AddAmount adds a rendered group's total to the currency totals.
func (s *Stats) AddAmount(c models.Currency, amount decimal.Decimal) {
	switch c {
	case models.CurrencyUSD:
		s.TotalUSD = s.TotalUSD.Add(amount)
	case models.CurrencyLocal:
		s.TotalLocal = s.TotalLocal.Add(amount)
	}
}

// RecordDelivery counts one email outcome.
func (s *Stats) RecordDelivery(ok bool) {
	if ok {
		s.EmailsSentOK++
	} else {
		s.EmailsSentFail++
	}
}

// Observe appends a note to the observations.
func (s *Stats) Observe(note string) {
	note = strings.TrimSpace(note)
	if note == "" {
		return
	}
	if s.Observations == "" {
		s.Observations = note
		return
	}
	s.Observations += "; " + note
}

// Finish records the elapsed time.
func (s *Stats) Finish(now time.Time) {
	s.Duration = now.Sub(s.StartedAt)
}
