package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"arstatements/internal/config"
	"arstatements/internal/logger"
	"arstatements/internal/source"
)

var exportCmd = &cobra.Command{
	Use:   "export [output.xlsx]",
	Short: "Dump the invoice source to a workbook for verification",
	Long: `Read every outstanding invoice from the configured source and write it to an
XLSX workbook with the same columns the xlsx source reads. The workbook can
be inspected, corrected and fed back with SOURCE_KIND=xlsx.`,
	Example: `  arstatements export facturas.xlsx`,
	Args:    cobra.ExactArgs(1),
	RunE:    runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().Int("timeout", 300, "Read timeout in seconds")
}

func runExport(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("export")

	timeoutSecs, _ := cmd.Flags().GetInt("timeout")
	outputPath := args[0]

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	ctx, cancel := createRunContext(time.Duration(timeoutSecs)*time.Second, log)
	defer cancel()

	src, closeSource, err := openSource(ctx, cfg)
	if err != nil {
		return handleRunError(err, log)
	}
	defer closeSource()

	rows, err := src.Rows(ctx)
	if err != nil {
		return handleRunError(err, log)
	}
	if err := source.WriteXLSX(outputPath, rows, cfg.LocalCurrencyCode); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}

	log.Info().Str("output", outputPath).Int("rows", len(rows)).Msg("Invoice source exported")
	fmt.Printf("%d facturas exportadas a %s\n", len(rows), outputPath)
	return nil
}
