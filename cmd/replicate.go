package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"starmirror/internal/config"
	"starmirror/internal/replicate"
	"starmirror/internal/ui"
)

var replicateCmd = &cobra.Command{
	Use:   "replicate",
	Short: "Run one full replication of the star schema into the mirror",
	Long: "Connect to the PostgreSQL source and the SQLite mirror, provision the mirror " +
		"schema, replace every table's contents, validate the result, and write a JSON run report.",
	SilenceUsage: true,
	RunE:         runReplicate,
}

func runReplicate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	term := ui.New(flagVerbose, flagQuiet)
	orchestrator := replicate.NewOrchestrator(cfg, term)
	if !orchestrator.Run(cmd.Context()) {
		return fmt.Errorf("replication run failed")
	}
	return nil
}

func init() {
	rootCmd.AddCommand(replicateCmd)
}
