package run

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
)

// Reporter publishes the stats of a finished run.
type Reporter interface {
	Report(ctx context.Context, stats Stats) error
}

// MultiReporter fans a report out to every reporter. All reporters run even
// when one fails.
type MultiReporter []Reporter

// Report implements Reporter.
func (m MultiReporter) Report(ctx context.Context, stats Stats) error {
	var errs []error
	for _, r := range m {
		if r == nil {
			continue
		}
		if err := r.Report(ctx, stats); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// LogReporter writes the run summary to the structured log.
type LogReporter struct {
	Logger zerolog.Logger
}

// Report implements Reporter.
func (l LogReporter) Report(_ context.Context, stats Stats) error {
	l.Logger.Info().
		Str("run_id", stats.RunID).
		Str("type", stats.RunType).
		Str("source", stats.Source).
		Dur("duration", stats.Duration).
		Int("clients", stats.ClientsProcessed).
		Int("documents_processed", stats.DocumentsProcessed).
		Int("documents_generated", stats.DocumentsGenerated).
		Int("emails_ok", stats.EmailsSentOK).
		Int("emails_fail", stats.EmailsSentFail).
		Str("total_usd", stats.TotalUSD.StringFixed(2)).
		Str("total_local", stats.TotalLocal.StringFixed(2)).
		Str("observations", stats.Observations).
		Msg("Run finished")
	return nil
}
