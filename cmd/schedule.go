package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"arstatements/internal/config"
	"arstatements/internal/logger"
	"arstatements/internal/run"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run statement generation every day at SCHEDULE_AT",
	Long: `Stay in the foreground and start a statement run every day at SCHEDULE_AT
(HH:MM, local time) on the weekdays listed in SCHEDULE_DAYS (e.g. L-K-M-J-V).
Runs are reported with type "scheduled". Stop with Ctrl+C or SIGTERM.`,
	Example: `  SCHEDULE_AT=06:00 SCHEDULE_DAYS=L-K-M-J-V arstatements schedule`,
	Args:    cobra.NoArgs,
	RunE:    runSchedule,
}

func init() {
	rootCmd.AddCommand(scheduleCmd)

	scheduleCmd.Flags().Bool("dry-run", false, "Render and archive documents but don't send email")
}

func runSchedule(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("schedule")

	dryRun, _ := cmd.Flags().GetBool("dry-run")

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	ctx, cancel := createRunContext(0, log)
	defer cancel()

	runner, closeSource, err := buildRunner(ctx, cfg, runOptions{dryRun: dryRun, runType: run.TypeScheduled}, log)
	if err != nil {
		return handleRunError(err, log)
	}
	defer closeSource()

	scheduler, err := run.NewScheduler(runner, cfg.ScheduleAt, cfg.ScheduleDays, time.Local)
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	log.Info().
		Str("at", cfg.ScheduleAt).
		Str("days", cfg.ScheduleDays).
		Bool("dry_run", dryRun).
		Msg("Waiting for scheduled runs")

	scheduler.Start(ctx)
	return nil
}
