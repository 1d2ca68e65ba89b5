package cmd

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"starmirror/internal/config"
	"starmirror/internal/ui"
)

var (
	flagVerbose bool
	flagQuiet   bool

	rootCmd = &cobra.Command{
		Use:   "starmirror",
		Short: "Replicate a PostgreSQL star schema into a local SQLite mirror",
		Long: "starmirror - a CLI tool that mirrors a PostgreSQL sales star schema into a " +
			"local SQLite analytics database, with validation, audit records, and run reports",
		SilenceErrors: true,
	}
)

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		ui.ShowError(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "suppress non-error output")
}

func initConfig() {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath(config.GetConfigPath())

	if err := viper.ReadInConfig(); err != nil {
		// Config file not found is okay for now
	}
}
