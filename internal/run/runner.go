package run

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"arstatements/internal/logger"
	"arstatements/internal/source"
	"arstatements/internal/statement"
)

// Runner executes one full run: read the source, generate statements and
// report the counters.
type Runner struct {
	Source     source.Source
	Generator  *Generator
	Reporter   Reporter
	RunType    string
	SourceName string

	// Now defaults to time.Now.
	Now func() time.Time
}

func (r *Runner) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

// Run processes the clients due on today. An empty run is not an error: the
// stats carry ObservationNoClients and are reported as usual. Reporter
// failures are logged and never fail the run.
func (r *Runner) Run(ctx context.Context, today time.Time) (*Stats, error) {
	const op = "Runner.Run"

	stats := NewStats(uuid.NewString(), r.RunType, r.SourceName, r.now())
	log := logger.WithRunID(logger.WithComponent("runner"), stats.RunID)
	log.Info().
		Str("type", r.RunType).
		Str("source", r.SourceName).
		Str("date", today.Format("2006-01-02")).
		Msg("Run started")

	var runErr error
	rows, err := r.Source.Rows(ctx)
	if err != nil {
		stats.Observe("error leyendo la fuente: " + err.Error())
		runErr = fmt.Errorf("%s: %w", op, err)
	} else {
		_, err = r.Generator.GenerateStatements(ctx, rows, today, stats)
		if err != nil && !errors.Is(err, statement.ErrEmptyResult) {
			runErr = fmt.Errorf("%s: %w", op, err)
		}
	}

	stats.Finish(r.now())
	r.report(ctx, stats, log)
	return stats, runErr
}

func (r *Runner) report(ctx context.Context, stats *Stats, log zerolog.Logger) {
	if r.Reporter == nil {
		return
	}
	if err := r.Reporter.Report(context.WithoutCancel(ctx), *stats); err != nil {
		log.Warn().Err(err).Msg("Failed to report run")
	}
}
