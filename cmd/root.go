package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"arstatements/internal/logger"
)

var version = "1.0.0"

var rootCmd = &cobra.Command{
	Use:   "arstatements",
	Short: "Accounts-receivable statements: render, email and archive per client",
	Long: `arstatements reads outstanding invoices, groups them by client and currency,
computes aging, renders a PDF and XLSX statement per client and currency,
emails them to the client contacts and archives them.

Each run processes the clients whose processing days include today's
weekday code (L K M J V S D). A delivery log PDF is written and sent to
operations, and the run summary is appended to the configured reporters.`,
	Version: version,
	Run: func(cmd *cobra.Command, args []string) {
		log := logger.WithComponent("root")
		log.Info().
			Str("version", version).
			Msg("arstatements executed")

		fmt.Println("Use --help to see available commands and options.")
	},
}

func Execute() {
	log := logger.WithComponent("cmd")

	if err := rootCmd.Execute(); err != nil {
		log.Error().
			Err(err).
			Msg("Command execution failed")
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().BoolP("version", "v", false, "Print version information")
}
