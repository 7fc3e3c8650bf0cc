package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Movie-Song/sns-contents-tracker/internal/config"
	"github.com/Movie-Song/sns-contents-tracker/internal/feed"
	"github.com/Movie-Song/sns-contents-tracker/internal/ingest"
	"github.com/Movie-Song/sns-contents-tracker/internal/reconcile"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Fetch every source once and store new items",
	Long: `Fetch every enabled source, skip items the store already holds (same
canonical URL, or same title on the same day) and create the rest.

Source failures are reported in the summary and do not change the exit
status. Only configuration errors do.`,
	RunE: runIngest,
}

func init() {
	addIngestFlags(ingestCmd)
}

func addIngestFlags(c *cobra.Command) {
	c.Flags().IntVar(&flagLimit, "limit", 0, "max entries read per source (default from config)")
	c.Flags().BoolVar(&flagDryRun, "dry-run", false, "decide without writing to the store")
}

func runIngest(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if flagLogLevel != "" {
		cfg.LogLevel = flagLogLevel
	}
	if flagLimit > 0 {
		cfg.Limit = flagLimit
	}
	if err := cfg.RequireSources(); err != nil {
		return err
	}

	e, err := setupWith(cfg)
	if err != nil {
		return err
	}
	defer e.close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps := feed.Deps{
		Fetcher: feed.NewHTTPFetcher(e.client, cfg.UserAgent),
		Log:     e.log,
	}
	runner := ingest.NewRunner(
		func(src config.Source) (feed.Source, error) { return feed.NewSource(src, deps) },
		reconcile.New(e.store, e.log, reconcile.Options{DryRun: flagDryRun}),
		e.log,
		ingest.Options{Limit: cfg.Limit, Concurrency: cfg.FetchConcurrency},
	)

	summary := runner.Run(ctx, cfg.EnabledSources())
	renderSummary(cmd.OutOrStdout(), summary, flagDryRun)

	if recent, err := recentItems(ctx, e.store, recentDefaultWindow, recentDefaultCount); err == nil && len(recent) > 0 {
		fmt.Fprintln(cmd.OutOrStdout())
		renderRecent(cmd.OutOrStdout(), recent)
	}
	return nil
}
