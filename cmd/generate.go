package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"arstatements/internal/config"
	"arstatements/internal/logger"
	"arstatements/internal/run"
	"arstatements/internal/statement"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate, email and archive today's account statements",
	Long: `Read outstanding invoices, select the clients due today and produce one PDF
and one XLSX statement per client and currency. Statements are emailed to
the client contacts, archived, and summarised in a delivery log PDF that is
sent to LOG_RECIPIENTS.

Clients are selected by their processing-day codes (L K M J V S D). Clients
without processing days are handled on Mondays.

Required environment variables:
  SOURCE_KIND - sql, xlsx or sheets (default: sql)
  DATABASE_URL - PostgreSQL connection string when SOURCE_KIND=sql
  SOURCE_XLSX_PATH - Workbook path when SOURCE_KIND=xlsx
  SOURCE_SHEET_URL - Google Sheets URL when SOURCE_KIND=sheets
  SMTP_HOST, SMTP_USER, SMTP_PASS - Mail server (not needed with --dry-run)

Optional environment variables:
  STATEMENT_PROFILE - YAML file with company data, bank accounts and layout
  PAGE_BREAK_POLICY - space (default) or legacy
  ARCHIVE_BACKEND - none, s3 or gcs
  GOOGLE_SHEET_URL - Spreadsheet receiving one row per run
  METRICS_TEXTFILE - Prometheus textfile written after each run
  WEBHOOK_URL - Automation webhook notified after weekday runs`,
	Example: `  # Process the clients due today
  arstatements generate

  # Render Friday's clients without sending email
  arstatements generate --day V --dry-run

  # Re-run a past date
  arstatements generate --date 2025-03-03`,
	Args: cobra.NoArgs,
	RunE: runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)

	generateCmd.Flags().String("day", "", "Processing-day code to select (L K M J V S D); defaults to today's")
	generateCmd.Flags().String("date", "", "Run date as YYYY-MM-DD (default: today)")
	generateCmd.Flags().Bool("dry-run", false, "Render and archive documents but don't send email")
	generateCmd.Flags().Int("timeout", 3600, "Run timeout in seconds (0 disables)")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("generate")

	dayFlag, _ := cmd.Flags().GetString("day")
	dateFlag, _ := cmd.Flags().GetString("date")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")

	today, err := parseRunDate(dateFlag, time.Now())
	if err != nil {
		return err
	}
	var day statement.Weekday
	if dayFlag != "" {
		if day, err = statement.ParseWeekday(dayFlag); err != nil {
			return err
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	log.Info().
		Str("date", today.Format("2006-01-02")).
		Str("day", string(day)).
		Str("source", cfg.SourceKind).
		Bool("dry_run", dryRun).
		Int("timeout", timeoutSecs).
		Msg("Starting statement run")

	ctx, cancel := createRunContext(time.Duration(timeoutSecs)*time.Second, log)
	defer cancel()

	runner, closeSource, err := buildRunner(ctx, cfg, runOptions{day: day, dryRun: dryRun, runType: run.TypeManual}, log)
	if err != nil {
		return handleRunError(err, log)
	}
	defer closeSource()

	stats, err := runner.Run(ctx, today)
	if stats != nil {
		printSummary(*stats, dryRun)
	}
	if err != nil {
		return handleRunError(err, log)
	}
	return nil
}

// parseRunDate returns now, or the given date at now's time of day.
func parseRunDate(value string, now time.Time) (time.Time, error) {
	if value == "" {
		return now, nil
	}
	d, err := time.ParseInLocation("2006-01-02", value, now.Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --date %q (expected YYYY-MM-DD)", value)
	}
	return time.Date(d.Year(), d.Month(), d.Day(), now.Hour(), now.Minute(), now.Second(), 0, now.Location()), nil
}

func printSummary(stats run.Stats, dryRun bool) {
	fmt.Println(strings.Repeat("=", 60))
	fmt.Println("                 ESTADOS DE CUENTA")
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("Ejecución:            %s\n", stats.RunID)
	fmt.Printf("Duración:             %s\n", stats.Duration.Round(time.Millisecond))
	fmt.Printf("Clientes procesados:  %d\n", stats.ClientsProcessed)
	fmt.Printf("Documentos:           %d procesados, %d generados\n", stats.DocumentsProcessed, stats.DocumentsGenerated)
	if dryRun {
		fmt.Println("Correos:              envío deshabilitado (--dry-run)")
	} else {
		fmt.Printf("Correos:              %d enviados, %d fallidos\n", stats.EmailsSentOK, stats.EmailsSentFail)
	}
	fmt.Printf("Total USD:            %s\n", stats.TotalUSD.StringFixed(2))
	fmt.Printf("Total local:          %s\n", stats.TotalLocal.StringFixed(2))
	if stats.Observations != "" {
		fmt.Printf("Observaciones:        %s\n", stats.Observations)
	}
	fmt.Println(strings.Repeat("=", 60))
}
