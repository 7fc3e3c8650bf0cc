package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Movie-Song/sns-contents-tracker/internal/content"
	"github.com/Movie-Song/sns-contents-tracker/internal/store"
)

const (
	recentDefaultWindow = 30 * 24 * time.Hour
	recentDefaultCount  = 5
)

var (
	flagRecentSince string
	flagRecentCount int
)

var recentCmd = &cobra.Command{
	Use:   "recent",
	Short: "List the most recently published stored items",
	RunE: func(cmd *cobra.Command, args []string) error {
		window, err := parseSince(flagRecentSince)
		if err != nil {
			return fmt.Errorf("invalid --since value: %w", err)
		}
		if flagRecentCount < 1 {
			return fmt.Errorf("-n must be positive, got %d", flagRecentCount)
		}

		e, err := setup()
		if err != nil {
			return err
		}
		defer e.close()

		items, err := recentItems(cmd.Context(), e.store, window, flagRecentCount)
		if err != nil {
			return fmt.Errorf("listing recent items: %w", err)
		}
		if len(items) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "Nothing published in that window.")
			return nil
		}
		renderRecent(cmd.OutOrStdout(), items)
		return nil
	},
}

func init() {
	recentCmd.Flags().StringVar(&flagRecentSince, "since", "30d", "look-back window (e.g., 30d, 72h)")
	recentCmd.Flags().IntVarP(&flagRecentCount, "count", "n", recentDefaultCount, "number of items to show")
}

func recentItems(ctx context.Context, s store.Store, window time.Duration, n int) ([]content.StoredRecord, error) {
	since := time.Now().UTC().Add(-window).Format("2006-01-02")
	items, err := s.Query(ctx, store.Query{
		Filter:       store.Filter{Since: since},
		SortDateDesc: true,
	})
	if err != nil {
		return nil, err
	}
	if len(items) > n {
		items = items[:n]
	}
	return items, nil
}
