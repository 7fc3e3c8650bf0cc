package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	flagConfig   string
	flagLogLevel string
	flagLimit    int
	flagDryRun   bool
)

var rootCmd = &cobra.Command{
	Use:   "sns-contents-tracker",
	Short: "Collect blog and microblog posts into a content database",
	Long: `sns-contents-tracker reads blog RSS feeds and microblog mirrors, drops
items already stored, and records the rest in a Notion database (or a local
SQLite file).

Running it with no subcommand performs one ingestion run.`,
	SilenceUsage: true,
	RunE:         runIngest,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to config file")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "override log level (debug, info, warn, error)")
	addIngestFlags(rootCmd)

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(recentCmd)
	rootCmd.AddCommand(activityCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "sns-contents-tracker %s (commit: %s, built: %s)\n", version, commit, date)
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
}
