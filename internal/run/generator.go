// Package run orchestrates one statement run: aggregate, render, deliver,
// archive and report.
package run

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"arstatements/internal/archive"
	"arstatements/internal/config"
	"arstatements/internal/delivery"
	"arstatements/internal/logger"
	"arstatements/internal/render"
	"arstatements/internal/statement"
	"arstatements/pkg/models"
)

// Options wires the collaborators of a Generator. Delivery and Archive are
// optional: a nil Delivery renders without emailing and a nil Archive keeps
// documents local.
type Options struct {
	Builder       *render.StatementBuilder
	Profile       config.Profile
	Delivery      delivery.Sink
	Archive       archive.Sink
	OutputDir     string
	LogRecipients []string
	DayPolicy     statement.DayPolicy
	// Filter overrides the processing day derived from today.
	Filter statement.Weekday
	Logger *zerolog.Logger
}

// Generator renders and delivers the statements of one run, strictly in
// client order then currency order.
type Generator struct {
	builder       *render.StatementBuilder
	profile       config.Profile
	delivery      delivery.Sink
	archive       archive.Sink
	outputDir     string
	logRecipients []string
	policy        statement.DayPolicy
	filter        statement.Weekday
	log           zerolog.Logger

	// lastLog is the delivery log of the latest run.
	lastLog *render.DeliveryLog
}

// NewGenerator creates a generator.
func NewGenerator(opts Options) *Generator {
	policy := opts.DayPolicy
	if policy.DefaultDay == "" {
		policy = statement.DefaultDayPolicy
	}
	log := logger.WithComponent("generator")
	if opts.Logger != nil {
		log = *opts.Logger
	}
	return &Generator{
		builder:       opts.Builder,
		profile:       opts.Profile,
		delivery:      opts.Delivery,
		archive:       opts.Archive,
		outputDir:     opts.OutputDir,
		logRecipients: opts.LogRecipients,
		policy:        policy,
		filter:        opts.Filter,
		log:           log,
	}
}

// RunDir is the directory holding the documents generated on today.
func (g *Generator) RunDir(today time.Time) string {
	return filepath.Join(g.outputDir, today.Format("2006-01-02"))
}

// GenerateStatements renders, archives and delivers the statements due today.
// It returns the number of clients processed. When no client is due it
// returns statement.ErrEmptyResult, records ObservationNoClients and writes
// nothing. Failures of one (client, currency) group never stop the others.
func (g *Generator) GenerateStatements(ctx context.Context, rows []models.InvoiceRow, today time.Time, stats *Stats) (int, error) {
	const op = "GenerateStatements"

	filter := g.filter
	if filter == "" {
		filter = statement.WeekdayOf(today)
	}

	groups, err := statement.AggregateWithPolicy(rows, today, filter, g.policy)
	if err != nil {
		if errors.Is(err, statement.ErrEmptyResult) {
			stats.Observe(ObservationNoClients)
			g.log.Info().Str("day", string(filter)).Int("rows", len(rows)).Msg("No clients to process today")
		}
		return 0, err
	}

	builder := g.builder.PrintedAt(today)
	runDir := g.RunDir(today)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return 0, fmt.Errorf("%s: create run directory: %w", op, err)
	}

	deliveryLog := render.NewDeliveryLog(g.profile.Company, g.profile.LogoPath, today)
	stats.ClientsProcessed = len(groups)

	g.log.Info().
		Str("day", string(filter)).
		Int("clients", len(groups)).
		Str("dir", runDir).
		Msg("Generating statements")

	for i, client := range groups {
		if err := ctx.Err(); err != nil {
			stats.Observe("ejecución interrumpida")
			g.finishLog(context.WithoutCancel(ctx), deliveryLog, runDir, today)
			return i, fmt.Errorf("%s: %w", op, err)
		}
		clientLog := logger.WithClient(g.log, client.ClientCode)
		stats.DocumentsProcessed += client.Rows()

		files := g.renderClient(builder, client, runDir, stats, clientLog)
		if len(files) == 0 {
			g.logNoDocuments(client, deliveryLog)
			continue
		}
		archiveErr := g.archiveFiles(ctx, files, archive.Destination{Date: today}, clientLog)
		if archiveErr != nil {
			stats.Observe("error al archivar documentos de " + client.ClientCode)
		}
		g.deliverClient(ctx, client, files, archiveErr, deliveryLog, stats, clientLog)
	}

	g.finishLog(ctx, deliveryLog, runDir, today)
	return stats.ClientsProcessed, nil
}

// renderClient writes the PDF and workbook of every currency group and
// returns the generated paths.
func (g *Generator) renderClient(builder *render.StatementBuilder, client statement.ClientGroup, runDir string, stats *Stats, log zerolog.Logger) []string {
	var files []string
	for _, group := range client.Currencies {
		groupLog := log.With().Str("currency", string(group.Currency)).Logger()

		doc, err := builder.Build(group, client)
		if err != nil {
			var unknown *statement.UnknownCurrencyError
			if errors.As(err, &unknown) {
				groupLog.Warn().Err(err).Msg("Skipping currency group")
				stats.Observe(fmt.Sprintf("moneda no reconocida %s para %s", group.Currency, client.ClientCode))
			} else {
				groupLog.Error().Err(err).Msg("Failed to render statement")
			}
			continue
		}

		name := render.SanitizeFileName(client.ClientCode) + "_" + string(group.Currency)
		pdfPath := filepath.Join(runDir, name+".pdf")
		if err := doc.Save(pdfPath); err != nil {
			groupLog.Error().Err(err).Msg("Failed to save statement")
			continue
		}
		stats.DocumentsGenerated++
		stats.AddAmount(group.Currency, group.Total())
		files = append(files, pdfPath)

		xlsxPath := filepath.Join(runDir, name+".xlsx")
		if err := builder.WriteWorkbook(xlsxPath, group, client); err != nil {
			groupLog.Error().Err(err).Msg("Failed to write workbook")
		} else {
			files = append(files, xlsxPath)
		}

		groupLog.Debug().
			Int("rows", len(group.Lines)).
			Int("pages", doc.Pages()).
			Str("path", pdfPath).
			Msg("Statement generated")
	}
	return files
}

func (g *Generator) archiveFiles(ctx context.Context, files []string, dest archive.Destination, log zerolog.Logger) error {
	if g.archive == nil {
		return nil
	}
	var errs []error
	for _, path := range files {
		ref, err := g.archive.Archive(ctx, path, dest)
		if err != nil {
			log.Error().Err(err).Str("path", path).Msg("Failed to archive document")
			errs = append(errs, err)
			continue
		}
		log.Debug().Str("path", path).Str("ref", ref).Msg("Document archived")
	}
	return errors.Join(errs...)
}

// logNoDocuments records a failed row per recipient of a client whose
// currency groups all failed to render.
func (g *Generator) logNoDocuments(client statement.ClientGroup, deliveryLog *render.DeliveryLog) {
	for _, rcpt := range delivery.ParseRecipients(client.ContactEmails) {
		deliveryLog.Add(render.LogEntry{Recipient: rcpt, Sent: false, Detail: "Sin documentos generados"})
	}
}

// deliverClient emails the client's files to every recipient. archiveErr is
// the outcome of archiving them, reported for clients that opted out of email.
func (g *Generator) deliverClient(ctx context.Context, client statement.ClientGroup, files []string, archiveErr error, deliveryLog *render.DeliveryLog, stats *Stats, log zerolog.Logger) {
	recipients := delivery.ParseRecipients(client.ContactEmails)
	if len(recipients) == 1 && recipients[0] == delivery.DoNotSend {
		switch {
		case archiveErr != nil:
			deliveryLog.Add(render.LogEntry{Recipient: delivery.DoNotSend, Sent: false, Detail: "Error al subir archivos"})
			log.Warn().Err(archiveErr).Msg("Client opted out of email and archiving failed")
			return
		case g.archive == nil:
			deliveryLog.Add(render.LogEntry{Recipient: delivery.DoNotSend, Sent: true, Detail: "Documentos solo en disco"})
		default:
			deliveryLog.Add(render.LogEntry{Recipient: delivery.DoNotSend, Sent: true, Detail: "Documentos solo archivados"})
		}
		log.Info().Msg("Client opted out of email, documents kept")
		return
	}

	attachments := make([]delivery.Attachment, 0, len(files))
	for _, path := range files {
		attachments = append(attachments, delivery.Attachment{Path: path})
	}

	for _, rcpt := range recipients {
		if g.delivery == nil {
			deliveryLog.Add(render.LogEntry{Recipient: rcpt, Sent: false, Detail: "Envío deshabilitado"})
			continue
		}

		msg, err := delivery.StatementMessage(g.profile.Email, rcpt, client.ClientName, attachments)
		if err == nil {
			err = g.delivery.Send(ctx, msg)
		}
		stats.RecordDelivery(err == nil)
		deliveryLog.Add(render.LogEntry{Recipient: rcpt, Sent: err == nil, Detail: delivery.Summary(err)})
		if err != nil {
			log.Warn().Err(err).Str("recipient", delivery.Mask(rcpt)).Msg("Statement email failed")
		}
	}
}

// finishLog saves the delivery log, archives it and sends it to operations.
func (g *Generator) finishLog(ctx context.Context, deliveryLog *render.DeliveryLog, runDir string, today time.Time) {
	g.lastLog = deliveryLog
	path := filepath.Join(runDir, "email_logs_"+today.Format("02-01-2006")+".pdf")
	if err := deliveryLog.Document().Save(path); err != nil {
		g.log.Error().Err(err).Msg("Failed to save delivery log")
		return
	}
	g.log.Info().Str("path", path).Int("entries", len(deliveryLog.Entries())).Msg("Delivery log written")

	_ = g.archiveFiles(ctx, []string{path}, archive.Destination{Kind: archive.KindLog, Date: today}, g.log)

	if g.delivery == nil {
		return
	}
	for _, rcpt := range g.logRecipients {
		if err := g.delivery.Send(ctx, delivery.LogMessage(rcpt, today, path)); err != nil {
			g.log.Warn().Err(err).Str("recipient", delivery.Mask(rcpt)).Msg("Failed to send delivery log")
		}
	}
}
