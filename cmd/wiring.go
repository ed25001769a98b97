package cmd

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"arstatements/internal/archive"
	"arstatements/internal/config"
	"arstatements/internal/delivery"
	"arstatements/internal/googleauth"
	"arstatements/internal/logger"
	"arstatements/internal/metrics"
	"arstatements/internal/notify"
	"arstatements/internal/render"
	"arstatements/internal/run"
	"arstatements/internal/sheets"
	"arstatements/internal/source"
	"arstatements/internal/statement"
)

// createRunContext creates a context with timeout and signal handling.
// A zero timeout only cancels on signals.
func createRunContext(timeout time.Duration, log zerolog.Logger) (context.Context, context.CancelFunc) {
	var (
		ctx    context.Context
		cancel context.CancelFunc
	)
	if timeout > 0 {
		ctx, cancel = context.WithTimeout(context.Background(), timeout)
	} else {
		ctx, cancel = context.WithCancel(context.Background())
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			log.Info().
				Str("signal", sig.String()).
				Msg("Received interrupt signal, canceling run")
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}

// localCodes lists every ledger code read as the home currency.
func localCodes(cfg *config.Config) []string {
	codes := []string{cfg.LocalCurrencyCode}
	for _, alias := range cfg.LocalCurrencyAliases {
		if !strings.EqualFold(alias, cfg.LocalCurrencyCode) {
			codes = append(codes, alias)
		}
	}
	return codes
}

// openSource builds the configured invoice source. The returned closer
// releases its resources.
func openSource(ctx context.Context, cfg *config.Config) (source.Source, func(), error) {
	noop := func() {}
	codes := localCodes(cfg)

	switch cfg.SourceKind {
	case config.SourceSQL:
		db, err := source.OpenPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, noop, err
		}
		return source.NewSQLSource(db, cfg.InvoiceQuery, codes), func() { closeDB(db) }, nil
	case config.SourceXLSX:
		return source.NewXLSXSource(cfg.SourceXLSXPath, "", codes), noop, nil
	case config.SourceSheets:
		svc, err := sheets.NewSheetsService(ctx, cfg.SourceSheetURL)
		if err != nil {
			return nil, noop, err
		}
		return source.NewSheetsSource(svc, cfg.SourceSheetRange, codes), noop, nil
	default:
		return nil, noop, fmt.Errorf("unknown invoice source %q", cfg.SourceKind)
	}
}

func closeDB(db *sql.DB) {
	if err := db.Close(); err != nil {
		log := logger.WithComponent("source")
		log.Warn().Err(err).Msg("Failed to close database")
	}
}

// newBuilder loads the statement profile and page-break policy.
func newBuilder(cfg *config.Config, printedAt time.Time) (*render.StatementBuilder, config.Profile, error) {
	profile, err := config.LoadProfile(cfg.StatementProfile)
	if err != nil {
		return nil, config.Profile{}, err
	}
	policy, err := render.PolicyByName(cfg.PageBreakPolicy)
	if err != nil {
		return nil, config.Profile{}, err
	}
	return render.NewStatementBuilder(profile, policy, cfg.LocalCurrencyCode, printedAt), profile, nil
}

// newArchive returns nil when archiving is disabled.
func newArchive(ctx context.Context, cfg *config.Config) (archive.Sink, error) {
	switch cfg.ArchiveBackend {
	case config.ArchiveS3:
		return archive.NewS3Sink(ctx, archive.S3Options{
			Endpoint:     cfg.S3Endpoint,
			Region:       cfg.S3Region,
			AccessKey:    cfg.S3AccessKey,
			SecretKey:    cfg.S3SecretKey,
			Bucket:       cfg.ArchiveBucket,
			Prefix:       cfg.ArchivePrefix,
			UsePathStyle: cfg.S3UsePathStyle,
		})
	case config.ArchiveGCS:
		return archive.NewGCSSink(ctx, cfg.ArchiveBucket, cfg.ArchivePrefix)
	default:
		return nil, nil
	}
}

// newMailer returns nil for dry runs.
func newMailer(cfg *config.Config, dryRun bool) (delivery.Sink, error) {
	if dryRun {
		return nil, nil
	}
	if err := cfg.ValidateDelivery(); err != nil {
		return nil, err
	}
	return delivery.NewMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom, cfg.SMTPTimeout), nil
}

// newReporter fans the run summary out to every configured reporter. A
// reporter that cannot be created is logged and skipped.
func newReporter(ctx context.Context, cfg *config.Config, log zerolog.Logger) run.Reporter {
	reporters := run.MultiReporter{run.LogReporter{Logger: logger.WithComponent("report")}}

	if cfg.GoogleSheetURL != "" {
		svc, err := sheets.NewSheetsService(ctx, cfg.GoogleSheetURL)
		if err != nil {
			log.Warn().Err(err).Msg("Run report sheet disabled")
		} else {
			reporters = append(reporters, sheets.RunReporter{Service: svc, Worksheet: cfg.GoogleSheetWorksheet})
		}
	}
	if cfg.MetricsTextfile != "" {
		reporters = append(reporters, metrics.TextfileReporter{Metrics: metrics.New(), Path: cfg.MetricsTextfile})
	}
	if cfg.WebhookURL != "" {
		reporters = append(reporters, notify.NewWebhookNotifier(cfg.WebhookURL))
	}
	return reporters
}

// buildRunner wires a Runner from configuration.
func buildRunner(ctx context.Context, cfg *config.Config, opts runOptions, log zerolog.Logger) (*run.Runner, func(), error) {
	builder, profile, err := newBuilder(cfg, time.Now())
	if err != nil {
		return nil, nil, err
	}
	mailer, err := newMailer(cfg, opts.dryRun)
	if err != nil {
		return nil, nil, err
	}
	archiver, err := newArchive(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	src, closeSource, err := openSource(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	generator := run.NewGenerator(run.Options{
		Builder:       builder,
		Profile:       profile,
		Delivery:      mailer,
		Archive:       archiver,
		OutputDir:     cfg.OutputDir,
		LogRecipients: cfg.LogRecipients,
		Filter:        opts.day,
	})

	return &run.Runner{
		Source:     src,
		Generator:  generator,
		Reporter:   newReporter(ctx, cfg, log),
		RunType:    opts.runType,
		SourceName: cfg.RunSource,
	}, closeSource, nil
}

type runOptions struct {
	day     statement.Weekday
	dryRun  bool
	runType string
}

// handleRunError maps run failures to actionable messages.
func handleRunError(err error, log zerolog.Logger) error {
	log.Error().Err(err).Msg("Statement run failed")

	errStr := err.Error()

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("statement run timed out. Try increasing --timeout")
	case errors.Is(err, context.Canceled):
		return fmt.Errorf("statement run was canceled")
	case errors.Is(err, source.ErrMissingColumn):
		return fmt.Errorf("the invoice source is missing a required column: %w", err)
	case errors.Is(err, googleauth.ErrNoCredentials):
		return fmt.Errorf("missing Google Cloud credentials. Please set one of:\n" +
			"  GOOGLE_APPLICATION_CREDENTIALS=/path/to/service-account-key.json\n" +
			"  GOOGLE_CREDENTIALS='<json-credentials>'")
	case strings.Contains(errStr, "connection refused"),
		strings.Contains(errStr, "password authentication failed"):
		return fmt.Errorf("could not reach the invoice database. Please check DATABASE_URL: %w", err)
	case strings.Contains(errStr, "PERMISSION_DENIED"):
		return fmt.Errorf("permission denied. Please ensure the service account can read the invoice sheet")
	default:
		return fmt.Errorf("statement run failed: %w", err)
	}
}
