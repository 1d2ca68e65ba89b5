package cmd

import (
	"github.com/spf13/cobra"

	"starmirror/internal/config"
	"starmirror/internal/db"
	"starmirror/internal/seed"
	"starmirror/internal/ui"
)

var flagSeedDataDir string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load the star schema in the PostgreSQL source from CSV files",
	Long: "Replace the contents of the source dimension and fact tables with rows from " +
		"CSV files, recomputing sale totals from unit price and quantity, then validate " +
		"row counts and referential integrity.",
	SilenceUsage: true,
	RunE:         runSeed,
}

func runSeed(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	dataDir := cfg.Seed.DataDir
	if flagSeedDataDir != "" {
		dataDir = flagSeedDataDir
	}

	term := ui.New(flagVerbose, flagQuiet)
	source, err := db.OpenSource(cfg.Source)
	if err != nil {
		return err
	}
	defer db.Close(source)

	loader := seed.NewLoader(source, dataDir, cfg.Source.Schema, term)
	return loader.RunFullLoad(cmd.Context())
}

func init() {
	seedCmd.Flags().StringVar(&flagSeedDataDir, "data-dir", "", "directory containing the CSV files (defaults to seed.data_dir)")
	rootCmd.AddCommand(seedCmd)
}
