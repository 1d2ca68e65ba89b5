package cmd

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"starmirror/internal/config"
	"starmirror/internal/schedule"
	"starmirror/internal/ui"
	apperrors "starmirror/pkg/errors"
	"starmirror/pkg/models"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run replication on a schedule",
	Long: "Wrap the replicate command for recurring execution: run it once under a " +
		"timeout, keep a daemon firing it daily, or inspect the execution history.",
}

var scheduleRunCmd = &cobra.Command{
	Use:          "run",
	Short:        "Execute one scheduled replication run immediately",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		runner, err := newRunner(cfg.Scheduler)
		if err != nil {
			return err
		}
		record := runner.RunJob(cmd.Context())
		if !record.Success {
			return fmt.Errorf("scheduled run finished with outcome %s", record.Outcome)
		}
		return nil
	},
}

var scheduleDaemonCmd = &cobra.Command{
	Use:          "daemon",
	Short:        "Run in the foreground, firing a replication run daily",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		term := ui.New(flagVerbose, flagQuiet)
		runner, err := newRunner(cfg.Scheduler)
		if err != nil {
			return err
		}
		daemon, err := schedule.NewDaemon(runner, cfg.Scheduler.Time, term)
		if err != nil {
			return err
		}
		return daemon.Start(cmd.Context())
	},
}

var scheduleStatusCmd = &cobra.Command{
	Use:          "status",
	Short:        "Show the scheduled-execution history",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		history, err := schedule.LoadHistory(cfg.Scheduler.HistoryFile)
		if err != nil {
			return err
		}
		summary := schedule.Summarize(history)

		fmt.Printf("Scheduled time:    %s daily\n", cfg.Scheduler.Time)
		fmt.Printf("Total executions:  %d\n", summary.TotalExecutions)
		if summary.LastExecution == nil {
			fmt.Println("No executions recorded yet.")
			return nil
		}
		fmt.Printf("Recent success:    %.0f%% (last %d runs)\n",
			summary.RecentSuccessRate, min(summary.TotalExecutions, 10))

		last := summary.LastExecution
		outcome := color.RedString(string(last.Outcome))
		if last.Success {
			outcome = color.GreenString(string(last.Outcome))
		}
		fmt.Printf("Last execution:    %s  %s (%.1fs, exit %d)\n",
			last.Timestamp, outcome, last.DurationSeconds, last.ReturnCode)
		return nil
	},
}

// newRunner builds a runner whose job re-invokes this binary's replicate
// command.
func newRunner(cfg models.Scheduler) (*schedule.Runner, error) {
	self, err := os.Executable()
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeSchedulerFailed, "failed to locate the starmirror binary")
	}
	term := ui.New(flagVerbose, flagQuiet)
	return schedule.NewRunner(cfg, []string{self, "replicate"}, term), nil
}

func init() {
	scheduleCmd.AddCommand(scheduleRunCmd, scheduleDaemonCmd, scheduleStatusCmd)
	rootCmd.AddCommand(scheduleCmd)
}
